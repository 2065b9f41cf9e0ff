package progression

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(level CareerLevel, n int) []TeamMember {
	out := make([]TeamMember, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, TeamMember{ID: fmt.Sprintf("%s-%d", level, i), Level: level})
	}
	return out
}

func TestEvaluate_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		in        MemberInputs
		downline  []TeamMember
		wantLevel CareerLevel
		wantRate  float64
	}{
		{
			name:      "personal revenue reaches junior",
			in:        MemberInputs{PersonalRevenue: 5000},
			wantLevel: LevelJunior,
			wantRate:  0.20,
		},
		{
			name:      "senior via personal revenue branch",
			in:        MemberInputs{PersonalRevenue: 20000},
			downline:  members(LevelJunior, 1),
			wantLevel: LevelSenior,
			wantRate:  0.30,
		},
		{
			name:      "managing director via group revenue",
			in:        MemberInputs{GroupRevenue: 5000000},
			downline:  members(LevelExecutiveDirector, 3),
			wantLevel: LevelManagingDirector,
			wantRate:  0.60,
		},
		{
			name:      "below junior",
			in:        MemberInputs{PersonalRevenue: 1000},
			wantLevel: LevelNone,
			wantRate:  0,
		},
		{
			name:      "senior revenue without recruited junior stays junior",
			in:        MemberInputs{PersonalRevenue: 20000},
			wantLevel: LevelJunior,
			wantRate:  0.20,
		},
		{
			name:      "senior via group revenue branch",
			in:        MemberInputs{PersonalRevenue: 0, GroupRevenue: 60000},
			downline:  members(LevelSenior, 1),
			wantLevel: LevelSenior,
			wantRate:  0.30,
		},
		{
			name:      "executive director needs group revenue as well as members",
			in:        MemberInputs{PersonalRevenue: 900000, GroupRevenue: 2000000},
			downline:  members(LevelPartner, 3),
			wantLevel: LevelPartner,
			wantRate:  0.45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.in, tt.downline)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, got.CurrentLevel)
			assert.InDelta(t, tt.wantRate, got.CommissionRate, 1e-9)
		})
	}
}

func TestEvaluate_BelowJuniorProgressTowardJunior(t *testing.T) {
	got, err := Evaluate(MemberInputs{PersonalRevenue: 1000}, nil)
	require.NoError(t, err)

	require.NotNil(t, got.NextLevel)
	assert.Equal(t, LevelJunior, *got.NextLevel)
	assert.InDelta(t, 0.2, got.ProgressToNextLevel, 1e-9)
	assert.Zero(t, got.TotalCommission)
}

func TestEvaluate_TopLevelHasNoNextLevel(t *testing.T) {
	got, err := Evaluate(MemberInputs{GroupRevenue: 6000000}, members(LevelManagingDirector, 3))
	require.NoError(t, err)

	assert.Equal(t, LevelManagingDirector, got.CurrentLevel)
	assert.Nil(t, got.NextLevel)
	assert.Equal(t, 1.0, got.ProgressToNextLevel)
}

func TestEvaluate_ProgressUsesNearerMetricForOrRule(t *testing.T) {
	// junior -> senior: 个人 12500/20000 = 0.5（下限5000），团队 45000/60000 = 0.75
	got, err := Evaluate(MemberInputs{PersonalRevenue: 12500, GroupRevenue: 45000}, nil)
	require.NoError(t, err)

	assert.Equal(t, LevelJunior, got.CurrentLevel)
	assert.InDelta(t, 0.75, got.ProgressToNextLevel, 1e-9)
}

func TestEvaluate_ProgressUsesGroupRevenueForAndRule(t *testing.T) {
	// partner -> executive_director 只看团队业绩: (1750000-1000000)/(2500000-1000000)
	got, err := Evaluate(MemberInputs{PersonalRevenue: 200000, GroupRevenue: 1750000}, members(LevelTeamLeader, 3))
	require.NoError(t, err)

	assert.Equal(t, LevelPartner, got.CurrentLevel)
	assert.InDelta(t, 0.5, got.ProgressToNextLevel, 1e-9)
}

func TestEvaluate_ProgressUsesNearerMetricForAndRule(t *testing.T) {
	// senior 改为且条件，两项门槛都大于0时仍取更接近达成的一项
	rules := DefaultTable().Rules()
	rules[LevelSenior-LevelJunior].IsOrCondition = false
	table, err := NewTable(rules)
	require.NoError(t, err)

	got, err := NewEvaluator(table).Evaluate(MemberInputs{PersonalRevenue: 20000, GroupRevenue: 0}, nil)
	require.NoError(t, err)

	assert.Equal(t, LevelJunior, got.CurrentLevel)
	assert.InDelta(t, 1.0, got.ProgressToNextLevel, 1e-9)

	// 个人 (12500-5000)/(20000-5000) = 0.5，团队 15000/60000 = 0.25
	got, err = NewEvaluator(table).Evaluate(MemberInputs{PersonalRevenue: 12500, GroupRevenue: 15000}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got.ProgressToNextLevel, 1e-9)
}

func TestEvaluate_ProgressClampedToZero(t *testing.T) {
	// 通过团队业绩晋升为 senior，个人业绩低于 senior 门槛
	got, err := Evaluate(MemberInputs{PersonalRevenue: 1000, GroupRevenue: 70000}, members(LevelJunior, 1))
	require.NoError(t, err)

	assert.Equal(t, LevelSenior, got.CurrentLevel)
	assert.InDelta(t, (70000.0-60000)/(150000-60000), got.ProgressToNextLevel, 1e-9)
	assert.GreaterOrEqual(t, got.ProgressToNextLevel, 0.0)
}

func TestEvaluate_Commissions(t *testing.T) {
	downline := []TeamMember{
		{ID: "a", Level: LevelJunior, PersonalRevenue: 10000},
		{ID: "b", Level: LevelJunior, PersonalRevenue: 6000},
		{ID: "c", Level: LevelNone, PersonalRevenue: 2000},
	}
	got, err := Evaluate(MemberInputs{PersonalRevenue: 20000, GroupRevenue: 38000}, downline)
	require.NoError(t, err)

	assert.Equal(t, LevelSenior, got.CurrentLevel)
	assert.InDelta(t, 6000, got.PersonalCommission, 1e-9)
	assert.InDelta(t, 18000, got.TeamRevenue, 1e-9)
	// (0.30-0.20)*10000 + (0.30-0.20)*6000 + 0.30*2000
	assert.InDelta(t, 2200, got.TeamCommission, 1e-9)
	assert.InDelta(t, 8200, got.TotalCommission, 1e-9)

	require.Len(t, got.TeamMembers, 3)
	assert.InDelta(t, 2000, got.TeamMembers[0].Commission, 1e-9)
	assert.InDelta(t, 1200, got.TeamMembers[1].Commission, 1e-9)
	assert.Zero(t, got.TeamMembers[2].Commission)
}

func TestEvaluate_Idempotent(t *testing.T) {
	in := MemberInputs{PersonalRevenue: 42000, GroupRevenue: 130000}
	downline := append(members(LevelSenior, 2), members(LevelJunior, 2)...)

	first, err := Evaluate(in, downline)
	require.NoError(t, err)
	second, err := Evaluate(in, downline)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluate_DoesNotMutateDownline(t *testing.T) {
	downline := []TeamMember{{ID: "a", Level: LevelJunior, PersonalRevenue: 10000, Commission: 1}}
	_, err := Evaluate(MemberInputs{PersonalRevenue: 20000}, downline)
	require.NoError(t, err)
	assert.Equal(t, 1.0, downline[0].Commission)
}

func TestEvaluate_RateMonotonicInRevenue(t *testing.T) {
	downlines := map[string][]TeamMember{
		"empty":     nil,
		"juniors":   members(LevelJunior, 2),
		"seniors":   members(LevelSenior, 3),
		"leaders":   members(LevelTeamLeader, 3),
		"partners":  members(LevelPartner, 3),
		"directors": members(LevelExecutiveDirector, 3),
	}
	amounts := []float64{0, 1000, 5000, 20000, 50000, 60000, 150000, 1000000, 2500000, 5000000, 9000000}

	for name, downline := range downlines {
		t.Run(name, func(t *testing.T) {
			for _, fixed := range amounts {
				prevPersonal, prevGroup := -1.0, -1.0
				for _, v := range amounts {
					byPersonal, err := Evaluate(MemberInputs{PersonalRevenue: v, GroupRevenue: fixed}, downline)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, byPersonal.CommissionRate, prevPersonal)
					prevPersonal = byPersonal.CommissionRate

					byGroup, err := Evaluate(MemberInputs{PersonalRevenue: fixed, GroupRevenue: v}, downline)
					require.NoError(t, err)
					assert.GreaterOrEqual(t, byGroup.CommissionRate, prevGroup)
					prevGroup = byGroup.CommissionRate
				}
			}
		})
	}
}

func TestEvaluate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       MemberInputs
		downline []TeamMember
		field    string
	}{
		{"negative personal revenue", MemberInputs{PersonalRevenue: -1}, nil, "personalRevenue"},
		{"negative group revenue", MemberInputs{GroupRevenue: -0.01}, nil, "groupRevenue"},
		{"level above top rank", MemberInputs{}, []TeamMember{{ID: "x", Level: LevelManagingDirector + 1}}, "downline"},
		{"negative level", MemberInputs{}, []TeamMember{{ID: "x", Level: -1}}, "downline"},
		{"missing id", MemberInputs{}, []TeamMember{{Level: LevelJunior}}, "downline"},
		{"duplicate id", MemberInputs{}, []TeamMember{{ID: "x"}, {ID: "x"}}, "downline"},
		{"negative member revenue", MemberInputs{}, []TeamMember{{ID: "x", PersonalRevenue: -5}}, "downline"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.in, tt.downline)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
