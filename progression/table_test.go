package progression

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTable_RatesNonDecreasing(t *testing.T) {
	table := DefaultTable()
	prev := 0.0
	for _, level := range Levels() {
		rate := table.Rate(level)
		assert.Greater(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 1.0)
		assert.GreaterOrEqual(t, rate, prev, "rate for %s", level)
		prev = rate
	}
	assert.Zero(t, table.Rate(LevelNone))
}

func TestDefaultTable_Requirement(t *testing.T) {
	table := DefaultTable()

	req, ok := table.Requirement(LevelSenior)
	require.True(t, ok)
	assert.Equal(t, 20000.0, req.PersonalRevenue)
	require.NotNil(t, req.GroupRevenue)
	assert.Equal(t, 60000.0, *req.GroupRevenue)
	assert.True(t, req.IsOrCondition)
	assert.Equal(t, &MemberRequirement{Count: 1, Level: LevelJunior}, req.RequiredMembers)

	_, ok = table.Requirement(LevelNone)
	assert.False(t, ok)
}

func TestTable_RulesReturnsCopy(t *testing.T) {
	table := DefaultTable()
	rules := table.Rules()
	rules[0].CommissionRate = 0.99
	assert.Equal(t, 0.20, table.Rate(LevelJunior))
}

func TestNewTable_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]LevelRule) []LevelRule
	}{
		{"missing level", func(r []LevelRule) []LevelRule { return r[:5] }},
		{"wrong order", func(r []LevelRule) []LevelRule { r[0], r[1] = r[1], r[0]; return r }},
		{"negative personal threshold", func(r []LevelRule) []LevelRule { r[2].PersonalRevenue = -1; return r }},
		{"negative group threshold", func(r []LevelRule) []LevelRule { r[2].GroupRevenue = revenue(-10); return r }},
		{"zero rate", func(r []LevelRule) []LevelRule { r[0].CommissionRate = 0; return r }},
		{"rate above one", func(r []LevelRule) []LevelRule { r[5].CommissionRate = 1.5; return r }},
		{"decreasing rate", func(r []LevelRule) []LevelRule { r[3].CommissionRate = 0.1; return r }},
		{"zero member count", func(r []LevelRule) []LevelRule {
			r[1].RequiredMembers = &MemberRequirement{Count: 0, Level: LevelJunior}
			return r
		}},
		{"member level none", func(r []LevelRule) []LevelRule {
			r[1].RequiredMembers = &MemberRequirement{Count: 1, Level: LevelNone}
			return r
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultTable().Rules()
			_, err := NewTable(tt.mutate(rules))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

const customTable = `
[[level]]
level = "junior"
personal_revenue = 1000.0
commission_rate = 0.1

[[level]]
level = "senior"
personal_revenue = 2000.0
group_revenue = 8000.0
is_or_condition = true
commission_rate = 0.2
required_members = { count = 1, level = "junior" }

[[level]]
level = "team_leader"
personal_revenue = 4000.0
group_revenue = 16000.0
is_or_condition = true
commission_rate = 0.3

[[level]]
level = "partner"
personal_revenue = 8000.0
group_revenue = 32000.0
is_or_condition = true
commission_rate = 0.4

[[level]]
level = "executive_director"
group_revenue = 64000.0
commission_rate = 0.5

[[level]]
level = "managing_director"
group_revenue = 128000.0
commission_rate = 0.6
required_members = { count = 2, level = "executive_director" }
`

func TestParseTable(t *testing.T) {
	table, err := ParseTable(customTable)
	require.NoError(t, err)

	assert.Equal(t, 0.1, table.Rate(LevelJunior))
	req, ok := table.Requirement(LevelSenior)
	require.True(t, ok)
	assert.Equal(t, &MemberRequirement{Count: 1, Level: LevelJunior}, req.RequiredMembers)

	got, err := NewEvaluator(table).Evaluate(MemberInputs{PersonalRevenue: 4000}, nil)
	require.NoError(t, err)
	assert.Equal(t, LevelTeamLeader, got.CurrentLevel)
}

func TestParseTable_UnknownLevel(t *testing.T) {
	_, err := ParseTable("[[level]]\nlevel = \"intern\"\ncommission_rate = 0.1\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.toml")
	require.NoError(t, os.WriteFile(path, []byte(customTable), 0o600))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, table.Rate(LevelManagingDirector))

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLevelRuleJSON(t *testing.T) {
	req, _ := DefaultTable().Requirement(LevelJunior)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"junior","personalRevenue":5000,"isOrCondition":false}`, string(data))
}
