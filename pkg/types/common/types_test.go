package common

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_Validate(t *testing.T) {
	assert.NoError(t, ID("550e8400-e29b-41d4-a716-446655440000").Validate())

	err := ID("").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	err = ID("not-a-uuid").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid ID format")
}

func TestNewID_GeneratesValidUUID(t *testing.T) {
	assert.NoError(t, NewID().Validate())
}

func TestGenerateID_Prefix(t *testing.T) {
	id := GenerateID("job")
	assert.True(t, strings.HasPrefix(id, "job-"))
	assert.NoError(t, ID(strings.TrimPrefix(id, "job-")).Validate())
	assert.NoError(t, ID(GenerateID("")).Validate())
}

func TestTimestamp_JSONRoundTrip(t *testing.T) {
	ts := Timestamp(time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T08:30:00Z"`, string(data))

	var back Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, time.Time(ts).Equal(time.Time(back)))

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &back))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("ENT_001", "invalid entity definition")
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ENT_001", resp.Error.Code)

	ok := NewSuccessResponse([]int{1, 2})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)
}

//Personal.AI order the ending
