// Package progression 实现职级晋升与佣金比例的计算规则
// 该包是纯计算模块，不依赖数据库和网络：
// - 职级定义及其顺序
// - 职级要求规则表（个人业绩、团队业绩、下级人数结构要求）
// - 晋升评估器，计算当前职级、佣金和距离下一职级的进度
// - 团队树聚合，自底向上计算每个成员的团队业绩和职级
package progression

import (
	"database/sql/driver"
	"fmt"
)

// CareerLevel 职级
// 数值越大职级越高，LevelNone 表示尚未达到最低职级
type CareerLevel int

const (
	LevelNone CareerLevel = iota
	LevelJunior
	LevelSenior
	LevelTeamLeader
	LevelPartner
	LevelExecutiveDirector
	LevelManagingDirector
)

// levelNames 职级的文本名称，下标与 CareerLevel 数值一致
var levelNames = [...]string{
	"none",
	"junior",
	"senior",
	"team_leader",
	"partner",
	"executive_director",
	"managing_director",
}

// Levels 按职级从低到高返回所有正式职级（不含 LevelNone）
func Levels() []CareerLevel {
	return []CareerLevel{
		LevelJunior,
		LevelSenior,
		LevelTeamLeader,
		LevelPartner,
		LevelExecutiveDirector,
		LevelManagingDirector,
	}
}

// String 返回职级名称
func (l CareerLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid 判断是否是已定义的职级（包括 LevelNone）
func (l CareerLevel) Valid() bool {
	return l >= LevelNone && l <= LevelManagingDirector
}

// IsRank 判断是否是正式职级
func (l CareerLevel) IsRank() bool {
	return l >= LevelJunior && l <= LevelManagingDirector
}

// Next 返回上一级职级，已是最高职级时第二个返回值为false
func (l CareerLevel) Next() (CareerLevel, bool) {
	if !l.Valid() || l == LevelManagingDirector {
		return l, false
	}
	return l + 1, true
}

// ParseLevel 将职级名称解析为 CareerLevel
func ParseLevel(name string) (CareerLevel, error) {
	for i, n := range levelNames {
		if n == name {
			return CareerLevel(i), nil
		}
	}
	return LevelNone, &ValidationError{Field: "level", Reason: fmt.Sprintf("未知职级 %q", name)}
}

// MarshalText 实现 encoding.TextMarshaler，JSON 和 TOML 中以名称表示职级
func (l CareerLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, &ValidationError{Field: "level", Reason: fmt.Sprintf("职级超出范围: %d", int(l))}
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (l *CareerLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value 实现 driver.Valuer，数据库中以名称存储职级
func (l CareerLevel) Value() (driver.Value, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(text), nil
}

// Scan 实现 sql.Scanner
func (l *CareerLevel) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = LevelNone
		return nil
	case string:
		return l.UnmarshalText([]byte(v))
	case []byte:
		return l.UnmarshalText(v)
	default:
		return fmt.Errorf("无法将 %T 转换为职级", src)
	}
}
