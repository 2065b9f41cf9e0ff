package progression

import (
	"math"
)

// MemberInputs 成员本次评估的业绩数据
type MemberInputs struct {
	PersonalRevenue float64 `json:"personalRevenue"` // 个人业绩
	GroupRevenue    float64 `json:"groupRevenue"`    // 团队业绩（含本人），由调用方汇总
}

// TeamMember 下级成员快照，仅在一次评估中使用
type TeamMember struct {
	ID              string      `json:"id"`
	Name            string      `json:"name,omitempty"`
	Level           CareerLevel `json:"level"`
	PersonalRevenue float64     `json:"personalRevenue"`
	GroupRevenue    float64     `json:"groupRevenue"`
	Commission      float64     `json:"commission"` // 个人业绩 × 本人职级佣金比例
}

// DashboardMetrics 看板指标
// 只读的派生数据，每次根据当前业绩和团队结构重新计算，不做持久化
type DashboardMetrics struct {
	CurrentLevel        CareerLevel  `json:"currentLevel"`
	NextLevel           *CareerLevel `json:"nextLevel,omitempty"` // 已是最高职级时为空
	CommissionRate      float64      `json:"commissionRate"`
	PersonalRevenue     float64      `json:"personalRevenue"`
	GroupRevenue        float64      `json:"groupRevenue"`
	TeamRevenue         float64      `json:"teamRevenue"` // 下级个人业绩之和
	PersonalCommission  float64      `json:"personalCommission"`
	TeamCommission      float64      `json:"teamCommission"` // 与下级之间的佣金比例差额
	TotalCommission     float64      `json:"totalCommission"`
	ProgressToNextLevel float64      `json:"progressToNextLevel"`
	TeamMembers         []TeamMember `json:"teamMembers"`
}

// Evaluator 晋升评估器
// 无内部可变状态，可并发使用
type Evaluator struct {
	table *Table
}

// NewEvaluator 使用指定规则表创建评估器，table 为空时使用默认规则表
func NewEvaluator(table *Table) *Evaluator {
	if table == nil {
		table = DefaultTable()
	}
	return &Evaluator{table: table}
}

// Table 返回评估器使用的规则表
func (e *Evaluator) Table() *Table {
	return e.table
}

// Evaluate 使用默认规则表评估
func Evaluate(in MemberInputs, downline []TeamMember) (DashboardMetrics, error) {
	return NewEvaluator(nil).Evaluate(in, downline)
}

// Evaluate 计算成员当前职级、佣金和晋升进度
// downline 是成员全部直接和间接下级（已定级），只用于统计结构要求中的人数
func (e *Evaluator) Evaluate(in MemberInputs, downline []TeamMember) (DashboardMetrics, error) {
	if err := validateInputs(in, downline); err != nil {
		return DashboardMetrics{}, err
	}

	level := e.Level(in, downline)
	rate := e.table.Rate(level)

	metrics := DashboardMetrics{
		CurrentLevel:       level,
		CommissionRate:     rate,
		PersonalRevenue:    in.PersonalRevenue,
		GroupRevenue:       in.GroupRevenue,
		PersonalCommission: roundCents(in.PersonalRevenue * rate),
		TeamMembers:        make([]TeamMember, 0, len(downline)),
	}
	if next, ok := level.Next(); ok {
		metrics.NextLevel = &next
	}

	for _, m := range downline {
		memberRate := e.table.Rate(m.Level)
		m.Commission = roundCents(m.PersonalRevenue * memberRate)
		metrics.TeamMembers = append(metrics.TeamMembers, m)

		metrics.TeamRevenue += m.PersonalRevenue
		if diff := rate - memberRate; diff > 0 {
			metrics.TeamCommission += m.PersonalRevenue * diff
		}
	}
	metrics.TeamRevenue = roundCents(metrics.TeamRevenue)
	metrics.TeamCommission = roundCents(metrics.TeamCommission)
	metrics.TotalCommission = roundCents(metrics.PersonalCommission + metrics.TeamCommission)
	metrics.ProgressToNextLevel = e.progress(level, in)

	return metrics, nil
}

// Level 返回满足要求的最高职级，调用方需保证输入已校验
// 从最高职级向下查找，每个职级只按自身要求判断
func (e *Evaluator) Level(in MemberInputs, downline []TeamMember) CareerLevel {
	for i := len(e.table.rules) - 1; i >= 0; i-- {
		if eligible(e.table.rules[i].LevelRequirement, in, downline) {
			return e.table.rules[i].Level
		}
	}
	return LevelNone
}

// eligible 判断是否满足某一职级的要求
// 或条件只作用于个人业绩和团队业绩两项，下级结构要求始终必须满足
func eligible(req LevelRequirement, in MemberInputs, downline []TeamMember) bool {
	personalOK := in.PersonalRevenue >= req.PersonalRevenue

	var revenueOK bool
	switch {
	case req.GroupRevenue == nil:
		revenueOK = personalOK
	case req.IsOrCondition:
		revenueOK = personalOK || in.GroupRevenue >= *req.GroupRevenue
	default:
		revenueOK = personalOK && in.GroupRevenue >= *req.GroupRevenue
	}
	if !revenueOK {
		return false
	}

	if m := req.RequiredMembers; m != nil {
		return countAtLeast(downline, m.Level) >= m.Count
	}
	return true
}

// countAtLeast 统计职级不低于 level 的下级人数
func countAtLeast(downline []TeamMember, level CareerLevel) int {
	n := 0
	for _, m := range downline {
		if m.Level >= level {
			n++
		}
	}
	return n
}

// progress 计算距离下一职级的进度
// 在当前职级门槛和下一职级门槛之间线性插值，取最接近达成的一项
// 门槛为0的个人业绩项在团队业绩存在时不参与计算
func (e *Evaluator) progress(level CareerLevel, in MemberInputs) float64 {
	next, ok := level.Next()
	if !ok {
		return 1
	}
	target, _ := e.table.Requirement(next)
	current, hasCurrent := e.table.Requirement(level)

	fractions := make([]float64, 0, 2)
	if target.PersonalRevenue > 0 || target.GroupRevenue == nil {
		lower := 0.0
		if hasCurrent {
			lower = current.PersonalRevenue
		}
		fractions = append(fractions, fraction(in.PersonalRevenue, lower, target.PersonalRevenue))
	}
	if target.GroupRevenue != nil {
		lower := 0.0
		if hasCurrent && current.GroupRevenue != nil {
			lower = *current.GroupRevenue
		}
		fractions = append(fractions, fraction(in.GroupRevenue, lower, *target.GroupRevenue))
	}

	result := fractions[0]
	for _, f := range fractions[1:] {
		result = math.Max(result, f)
	}
	return result
}

func fraction(value, lower, threshold float64) float64 {
	if threshold <= lower {
		if value >= threshold {
			return 1
		}
		return 0
	}
	f := (value - lower) / (threshold - lower)
	return math.Max(0, math.Min(1, f))
}

func validateInputs(in MemberInputs, downline []TeamMember) error {
	if !validAmount(in.PersonalRevenue) {
		return invalid("personalRevenue", "个人业绩必须为非负数: %v", in.PersonalRevenue)
	}
	if !validAmount(in.GroupRevenue) {
		return invalid("groupRevenue", "团队业绩必须为非负数: %v", in.GroupRevenue)
	}

	seen := make(map[string]struct{}, len(downline))
	for i, m := range downline {
		if m.ID == "" {
			return invalid("downline", "第 %d 名下级缺少ID", i+1)
		}
		if _, dup := seen[m.ID]; dup {
			return invalid("downline", "下级 %s 重复出现", m.ID)
		}
		seen[m.ID] = struct{}{}

		if !m.Level.Valid() {
			return invalid("downline", "下级 %s 的职级超出范围: %d", m.ID, int(m.Level))
		}
		if !validAmount(m.PersonalRevenue) || !validAmount(m.GroupRevenue) {
			return invalid("downline", "下级 %s 的业绩必须为非负数", m.ID)
		}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
