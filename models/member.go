package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"go_commission/navigation"
	"go_commission/progression"
)

// 成员状态
const (
	MemberStatusActive    = "active"    // 在职
	MemberStatusInactive  = "inactive"  // 离职
	MemberStatusSuspended = "suspended" // 暂停
)

// Member 销售成员模型
// 存储成员的基本信息、上下级关系以及最近一次评估得到的职级
type Member struct {
	ID            uint                    `json:"id" gorm:"primaryKey"`                              // 主键ID
	Username      string                  `json:"username" gorm:"size:50;uniqueIndex"`               // 用户名，登录用，唯一
	Password      string                  `json:"-" gorm:"size:100"`                                 // 密码，不返回给前端
	Name          string                  `json:"name" gorm:"size:50"`                               // 姓名
	Phone         string                  `json:"phone" gorm:"size:20"`                              // 电话
	Email         string                  `json:"email" gorm:"size:100"`                             // 邮箱
	Role          navigation.Role         `json:"role" gorm:"size:20;default:member"`                // 角色：member, leader, admin
	Status        string                  `json:"status" gorm:"size:20;default:active"`              // 状态：active在职, inactive离职, suspended暂停
	ParentID      *uint                   `json:"parent_id" gorm:"index"`                            // 上级成员ID，允许为空
	Depth         int                     `json:"depth" gorm:"default:0"`                            // 团队层级深度，0表示顶级
	ChildrenCount int                     `json:"children_count" gorm:"default:0"`                   // 直接下级数量
	InviteCode    string                  `json:"invite_code" gorm:"size:50;uniqueIndex"`            // 团队邀请码
	CareerLevel   progression.CareerLevel `json:"career_level" gorm:"type:varchar(32);default:none"` // 最近一次评估的职级
	LevelAt       *time.Time              `json:"level_at"`                                          // 职级最近变更时间
	LastLoginAt   *time.Time              `json:"last_login_at"`                                     // 最后登录时间
	CreatedAt     time.Time               `json:"created_at" gorm:"autoCreateTime"`                  // 创建时间
	UpdatedAt     time.Time               `json:"updated_at" gorm:"autoUpdateTime"`                  // 更新时间
}

// TableName 返回表名
func (Member) TableName() string {
	return "members"
}

// SetPassword 设置加密密码
func (m *Member) SetPassword(plainPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.Password = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码
func (m *Member) CheckPassword(plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(plainPassword))
	return err == nil
}

// IsActive 是否在职
func (m *Member) IsActive() bool {
	return m.Status == MemberStatusActive
}

// MemberQuery 成员查询参数
type MemberQuery struct {
	Username string `json:"username" query:"username"`   // 用户名
	Name     string `json:"name" query:"name"`           // 姓名
	Status   string `json:"status" query:"status"`       // 状态
	Role     string `json:"role" query:"role"`           // 角色
	ParentID uint   `json:"parent_id" query:"parent_id"` // 上级ID
	Page     int    `json:"page" query:"page"`           // 页码
	PageSize int    `json:"page_size" query:"page_size"` // 每页数量
}

// Normalize 设置默认分页参数
func (q *MemberQuery) Normalize() {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 10
	}
	if q.PageSize > 100 {
		q.PageSize = 100
	}
}
