package scale

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp100(-3))
	assert.Equal(t, 100.0, Clamp100(130))
	assert.Equal(t, 42.5, Clamp100(42.5))
	assert.Equal(t, 5, Clamp(9, 1, 5))
}

func TestLevel_NudgesSaturate(t *testing.T) {
	assert.Equal(t, VeryHigh, VeryHigh.Up())
	assert.Equal(t, VeryLow, VeryLow.Down())
	assert.Equal(t, High, Medium.Up())
	assert.Equal(t, Low, Medium.Down())

	l := VeryLow
	for i := 0; i < 10; i++ {
		l = l.Up()
	}
	assert.Equal(t, VeryHigh, l)
}

func TestLevel_JSON(t *testing.T) {
	b, err := json.Marshal(High)
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(b))

	var l Level
	require.NoError(t, json.Unmarshal([]byte(`"very_low"`), &l))
	assert.Equal(t, VeryLow, l)
	assert.Error(t, json.Unmarshal([]byte(`"extreme"`), &l))
}
