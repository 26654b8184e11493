package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/buyflow/buyflow/pkg/models"
)

func statusInput() StatusInput {
	return StatusInput{
		HasCreatives:      true,
		CreativesApproved: true,
		StartTime:         time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		EndTime:           time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveStatus_CompletedWinsOverEverything(t *testing.T) {
	in := statusInput()
	in.ManualApprovalRequired = true

	now := in.EndTime.Add(time.Hour)

	assert.Equal(t, models.MediaBuyStatusCompleted, ResolveStatus(in, now))
}

func TestResolveStatus_PendingActivation(t *testing.T) {
	now := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	manual := statusInput()
	manual.ManualApprovalRequired = true
	assert.Equal(t, models.MediaBuyStatusPendingActivation, ResolveStatus(manual, now))

	noCreatives := statusInput()
	noCreatives.HasCreatives = false
	assert.Equal(t, models.MediaBuyStatusPendingActivation, ResolveStatus(noCreatives, now))

	unapproved := statusInput()
	unapproved.CreativesApproved = false
	assert.Equal(t, models.MediaBuyStatusPendingActivation, ResolveStatus(unapproved, now))

	beforeStart := statusInput()
	assert.Equal(t, models.MediaBuyStatusPendingActivation,
		ResolveStatus(beforeStart, beforeStart.StartTime.Add(-time.Hour)))
}

func TestResolveStatus_Active(t *testing.T) {
	now := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, models.MediaBuyStatusActive, ResolveStatus(statusInput(), now))
}

func TestResolveStatus_IsPure(t *testing.T) {
	in := statusInput()
	now := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)

	first := ResolveStatus(in, now)
	for range 100 {
		assert.Equal(t, first, ResolveStatus(in, now))
	}
}
