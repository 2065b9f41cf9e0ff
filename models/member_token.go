package models

import (
	"time"
)

// MemberToken 成员登录令牌模型
// 该模型用于存储成员的JWT认证令牌及相关会话信息
// 支持多设备登录，每个设备会创建独立的令牌记录
type MemberToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	MemberID  uint      `json:"member_id" gorm:"index"`           // 关联的成员ID
	Token     string    `json:"token" gorm:"size:500;index"`      // JWT令牌字符串
	UserAgent string    `json:"user_agent" gorm:"size:255"`       // 用户代理信息，用于识别登录设备
	IP        string    `json:"ip" gorm:"size:50"`                // 登录IP地址，用于安全审计
	ExpiredAt time.Time `json:"expired_at" gorm:"index"`          // 令牌过期时间
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // 记录创建时间
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 记录更新时间
}

// TableName 返回表名
func (MemberToken) TableName() string {
	return "member_tokens"
}
