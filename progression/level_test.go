package progression

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCareerLevel_Order(t *testing.T) {
	levels := Levels()
	require.Len(t, levels, 6)
	for i := 1; i < len(levels); i++ {
		assert.Less(t, levels[i-1], levels[i])
	}
	assert.Less(t, LevelNone, LevelJunior)
}

func TestCareerLevel_Next(t *testing.T) {
	next, ok := LevelNone.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelJunior, next)

	next, ok = LevelPartner.Next()
	assert.True(t, ok)
	assert.Equal(t, LevelExecutiveDirector, next)

	_, ok = LevelManagingDirector.Next()
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	for _, level := range append([]CareerLevel{LevelNone}, Levels()...) {
		parsed, err := ParseLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	_, err := ParseLevel("intern")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCareerLevel_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Level CareerLevel `json:"level"`
	}{LevelTeamLeader})
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"team_leader"}`, string(data))

	var decoded struct {
		Level CareerLevel `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"partner"}`), &decoded))
	assert.Equal(t, LevelPartner, decoded.Level)

	assert.Error(t, json.Unmarshal([]byte(`{"level":"boss"}`), &decoded))
}

func TestCareerLevel_Scan(t *testing.T) {
	var level CareerLevel
	require.NoError(t, level.Scan([]byte("senior")))
	assert.Equal(t, LevelSenior, level)

	require.NoError(t, level.Scan(nil))
	assert.Equal(t, LevelNone, level)

	assert.Error(t, level.Scan(42))

	value, err := LevelExecutiveDirector.Value()
	require.NoError(t, err)
	assert.Equal(t, "executive_director", value)

	_, err = CareerLevel(99).Value()
	assert.Error(t, err)
}
