package models

import (
	"time"
)

// 邀请状态
const (
	InvitationPending  = "pending"  // 待接受
	InvitationAccepted = "accepted" // 已接受
	InvitationExpired  = "expired"  // 已过期
)

// TeamInvitation 团队邀请记录
// 成员邀请新成员加入自己的下级团队
type TeamInvitation struct {
	ID         uint       `json:"id" gorm:"primaryKey"`                   // 主键ID
	InviterID  uint       `json:"inviter_id" gorm:"index"`                // 邀请人ID
	InviteeID  *uint      `json:"invitee_id"`                             // 被邀请人ID，接受后才有
	InviteCode string     `json:"invite_code" gorm:"size:50;uniqueIndex"` // 邀请码
	Email      string     `json:"email" gorm:"size:100"`                  // 被邀请人邮箱
	Phone      string     `json:"phone" gorm:"size:20"`                   // 被邀请人电话
	Status     string     `json:"status" gorm:"default:pending"`          // 状态：pending, accepted, expired
	AcceptedAt *time.Time `json:"accepted_at"`                            // 接受时间
	ExpiredAt  time.Time  `json:"expired_at"`                             // 过期时间
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`       // 创建时间
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`       // 更新时间
}

// TableName 返回表名
func (TeamInvitation) TableName() string {
	return "team_invitations"
}
