package progression

import (
	"math"
	"os"

	"github.com/BurntSushi/toml"
)

// MemberRequirement 下级结构要求：至少 Count 名下级达到 Level 或更高职级
type MemberRequirement struct {
	Count int         `json:"count" toml:"count"`
	Level CareerLevel `json:"level" toml:"level"`
}

// LevelRequirement 单个职级的晋升要求
type LevelRequirement struct {
	Level           CareerLevel        `json:"level" toml:"level"`
	PersonalRevenue float64            `json:"personalRevenue" toml:"personal_revenue"`           // 最低个人业绩
	GroupRevenue    *float64           `json:"groupRevenue,omitempty" toml:"group_revenue"`       // 最低团队业绩，可选
	RequiredMembers *MemberRequirement `json:"requiredMembers,omitempty" toml:"required_members"` // 下级结构要求，可选
	IsOrCondition   bool               `json:"isOrCondition" toml:"is_or_condition"`              // 个人业绩与团队业绩满足其一即可
}

// LevelRule 规则表中的一行，包含职级要求和对应的佣金比例
type LevelRule struct {
	LevelRequirement
	CommissionRate float64 `json:"commissionRate" toml:"commission_rate"`
}

// Table 职级规则表
// 创建后不可修改，可在多个 goroutine 间共享
type Table struct {
	rules []LevelRule // 按职级从低到高排列
}

func revenue(v float64) *float64 { return &v }

// defaultRules 默认职级规则
var defaultRules = []LevelRule{
	{
		LevelRequirement: LevelRequirement{Level: LevelJunior, PersonalRevenue: 5000},
		CommissionRate:   0.20,
	},
	{
		LevelRequirement: LevelRequirement{
			Level:           LevelSenior,
			PersonalRevenue: 20000,
			GroupRevenue:    revenue(60000),
			RequiredMembers: &MemberRequirement{Count: 1, Level: LevelJunior},
			IsOrCondition:   true,
		},
		CommissionRate: 0.30,
	},
	{
		LevelRequirement: LevelRequirement{
			Level:           LevelTeamLeader,
			PersonalRevenue: 50000,
			GroupRevenue:    revenue(150000),
			RequiredMembers: &MemberRequirement{Count: 2, Level: LevelSenior},
			IsOrCondition:   true,
		},
		CommissionRate: 0.40,
	},
	{
		LevelRequirement: LevelRequirement{
			Level:           LevelPartner,
			PersonalRevenue: 150000,
			GroupRevenue:    revenue(1000000),
			RequiredMembers: &MemberRequirement{Count: 3, Level: LevelTeamLeader},
			IsOrCondition:   true,
		},
		CommissionRate: 0.45,
	},
	{
		LevelRequirement: LevelRequirement{
			Level:           LevelExecutiveDirector,
			GroupRevenue:    revenue(2500000),
			RequiredMembers: &MemberRequirement{Count: 3, Level: LevelPartner},
		},
		CommissionRate: 0.50,
	},
	{
		LevelRequirement: LevelRequirement{
			Level:           LevelManagingDirector,
			GroupRevenue:    revenue(5000000),
			RequiredMembers: &MemberRequirement{Count: 3, Level: LevelExecutiveDirector},
		},
		CommissionRate: 0.60,
	},
}

// DefaultTable 返回默认规则表
func DefaultTable() *Table {
	t, err := NewTable(defaultRules)
	if err != nil {
		panic("默认职级规则无效: " + err.Error())
	}
	return t
}

// NewTable 校验规则并创建规则表
// 规则必须按职级从低到高覆盖全部六个职级，佣金比例在(0,1]之间且随职级单调不减
func NewTable(rules []LevelRule) (*Table, error) {
	levels := Levels()
	if len(rules) != len(levels) {
		return nil, invalid("levels", "需要 %d 个职级规则，实际 %d 个", len(levels), len(rules))
	}

	copied := make([]LevelRule, len(rules))
	prevRate := 0.0
	for i, rule := range rules {
		if rule.Level != levels[i] {
			return nil, invalid("levels", "第 %d 条规则应为 %s，实际为 %s", i+1, levels[i], rule.Level)
		}
		if !validAmount(rule.PersonalRevenue) {
			return nil, invalid(rule.Level.String()+".personal_revenue", "个人业绩门槛必须为非负数")
		}
		if rule.GroupRevenue != nil && !validAmount(*rule.GroupRevenue) {
			return nil, invalid(rule.Level.String()+".group_revenue", "团队业绩门槛必须为非负数")
		}
		if m := rule.RequiredMembers; m != nil {
			if m.Count <= 0 {
				return nil, invalid(rule.Level.String()+".required_members", "人数必须大于0")
			}
			if !m.Level.IsRank() {
				return nil, invalid(rule.Level.String()+".required_members", "未知职级 %s", m.Level)
			}
		}
		if rule.CommissionRate <= 0 || rule.CommissionRate > 1 || math.IsNaN(rule.CommissionRate) {
			return nil, invalid(rule.Level.String()+".commission_rate", "佣金比例必须在(0,1]之间")
		}
		if rule.CommissionRate < prevRate {
			return nil, invalid(rule.Level.String()+".commission_rate", "佣金比例不能低于下一级职级")
		}
		prevRate = rule.CommissionRate

		copied[i] = rule
		if rule.GroupRevenue != nil {
			copied[i].GroupRevenue = revenue(*rule.GroupRevenue)
		}
		if rule.RequiredMembers != nil {
			m := *rule.RequiredMembers
			copied[i].RequiredMembers = &m
		}
	}

	return &Table{rules: copied}, nil
}

// tableFile TOML 规则文件格式
//
//	[[level]]
//	level = "senior"
//	personal_revenue = 20000.0
//	group_revenue = 60000.0
//	is_or_condition = true
//	commission_rate = 0.3
//	required_members = { count = 1, level = "junior" }
type tableFile struct {
	Levels []LevelRule `toml:"level"`
}

// LoadTable 从 TOML 文件加载规则表
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTable(string(data))
}

// ParseTable 从 TOML 文本解析规则表
func ParseTable(data string) (*Table, error) {
	var file tableFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, &ValidationError{Field: "levels", Reason: err.Error()}
	}
	return NewTable(file.Levels)
}

// Rules 返回规则副本，按职级从低到高排列
func (t *Table) Rules() []LevelRule {
	out := make([]LevelRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// Requirement 返回指定职级的晋升要求
func (t *Table) Requirement(level CareerLevel) (LevelRequirement, bool) {
	if !level.IsRank() {
		return LevelRequirement{}, false
	}
	return t.rules[level-LevelJunior].LevelRequirement, true
}

// Rate 返回指定职级的佣金比例，LevelNone 为0
func (t *Table) Rate(level CareerLevel) float64 {
	if !level.IsRank() {
		return 0
	}
	return t.rules[level-LevelJunior].CommissionRate
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
