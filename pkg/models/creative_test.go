package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRef_RejectsBareString(t *testing.T) {
	var ref FormatRef

	err := json.Unmarshal([]byte(`"display_300x250"`), &ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBareStringFormat)
}

func TestFormatRef_AcceptsStructuredReference(t *testing.T) {
	var ref FormatRef

	err := json.Unmarshal([]byte(`{"agent_url":"https://agent.example.com","format_id":"display_300x250"}`), &ref)
	require.NoError(t, err)
	assert.Equal(t, "https://agent.example.com", ref.AgentURL)
	assert.Equal(t, "display_300x250", ref.FormatID)
}

func TestFormatRef_RejectsBareStringInsideCreative(t *testing.T) {
	var creative Creative

	err := json.Unmarshal([]byte(`{"creative_id":"cr-1","format":"display_300x250"}`), &creative)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBareStringFormat)
}
