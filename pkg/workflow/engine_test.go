package workflow

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buyflow/buyflow/pkg/log"
	"github.com/buyflow/buyflow/pkg/models"
	"github.com/buyflow/buyflow/pkg/persistence/memory"
)

func testEngine() *Engine {
	store := memory.NewPersistence()

	return NewEngine(store.WorkflowStepRepository(), log.WithModule("workflow-test"))
}

func TestEngine_CreateStepStoresVerbatimSnapshot(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	raw := json.RawMessage(`{"buyer_ref":"br-1",  "note":"spacing preserved"}`)

	step, err := engine.CreateStep(ctx, "tenant-1", "principal-1", StepTypeToolCall, "create_media_buy", raw)
	require.NoError(t, err)

	assert.Equal(t, models.StepStatusInProgress, step.Status)
	assert.Equal(t, []byte(raw), []byte(step.RequestSnapshot))

	fetched, err := engine.GetStep(ctx, "tenant-1", step.StepID)
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), []byte(fetched.RequestSnapshot))
}

func TestEngine_UpdateStepNeverRewindsFromTerminal(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	step, err := engine.CreateStep(ctx, "tenant-1", "", StepTypeToolCall, "create_media_buy", nil)
	require.NoError(t, err)

	_, err = engine.UpdateStep(ctx, "tenant-1", step.StepID, models.StepStatusCompleted, nil, "")
	require.NoError(t, err)

	for _, next := range []models.StepStatus{
		models.StepStatusInProgress,
		models.StepStatusRequiresApproval,
		models.StepStatusFailed,
	} {
		_, err = engine.UpdateStep(ctx, "tenant-1", step.StepID, next, nil, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTerminalStep)
	}

	fetched, err := engine.GetStep(ctx, "tenant-1", step.StepID)
	require.NoError(t, err)
	assert.Equal(t, models.StepStatusCompleted, fetched.Status)
}

func TestEngine_UpdateStepRecordsErrorVerbatim(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	step, err := engine.CreateStep(ctx, "tenant-1", "", StepTypeToolCall, "create_media_buy", nil)
	require.NoError(t, err)

	updated, err := engine.UpdateStep(ctx, "tenant-1", step.StepID, models.StepStatusFailed, nil, "ad server said no")
	require.NoError(t, err)
	assert.Equal(t, "ad server said no", updated.Error)
}

func TestEngine_CommentsAreAppendOnly(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	step, err := engine.CreateStep(ctx, "tenant-1", "", StepTypeApproval, "create_media_buy", nil)
	require.NoError(t, err)

	_, err = engine.AddComment(ctx, "tenant-1", step.StepID, "reviewer-a", "looks fine")
	require.NoError(t, err)

	updated, err := engine.AddComment(ctx, "tenant-1", step.StepID, "reviewer-b", "shipping it")
	require.NoError(t, err)

	require.Len(t, updated.Comments, 2)
	assert.Equal(t, "reviewer-a", updated.Comments[0].User)
	assert.Equal(t, "looks fine", updated.Comments[0].Text)
	assert.Equal(t, "reviewer-b", updated.Comments[1].User)
}

func TestEngine_LinkBuildsAuditTrail(t *testing.T) {
	engine := testEngine()
	ctx := context.Background()

	first, err := engine.CreateStep(ctx, "tenant-1", "", StepTypeToolCall, "create_media_buy", nil)
	require.NoError(t, err)

	second, err := engine.CreateStep(ctx, "tenant-1", "", StepTypeToolCall, "update_media_buy", nil)
	require.NoError(t, err)

	require.NoError(t, engine.Link(ctx, first.StepID, "media_buy", "mb-1", "create"))
	require.NoError(t, engine.Link(ctx, second.StepID, "media_buy", "mb-1", "update"))

	trail, err := engine.AuditTrail(ctx, "media_buy", "mb-1")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, "create", trail[0].Action)
	assert.Equal(t, "update", trail[1].Action)
}
