// Package services 组合数据访问与晋升评估，供HTTP处理函数和命令行使用
package services

import (
	"context"
	"errors"
	"time"

	"go_commission/models"
	"go_commission/progression"
)

// 业务错误，处理函数据此选择HTTP状态码
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInactiveMember     = errors.New("成员不存在或已被禁用")
	ErrInvitationInvalid  = errors.New("邀请不存在或已失效")
	ErrInvitationExpired  = errors.New("邀请已过期")
	ErrAlreadyInTeam      = errors.New("您已经有上级，不能接受其他邀请")
	ErrCircularTeam       = errors.New("不能接受下级或间接下级的邀请，这会形成循环引用")
	ErrTeamDepthExceeded  = errors.New("团队层级已达到最大限制")
	ErrInvitationConflict = errors.New("该联系方式已有待接受的邀请")
)

// MaxTeamDepth 团队最大层级深度，顶级成员深度为0
const MaxTeamDepth = 5

// TeamStore 团队相关的数据访问
type TeamStore interface {
	// GetMember 按ID查询成员，不存在时返回 ErrNotFound
	GetMember(ctx context.Context, id uint) (*models.Member, error)
	// Subtree 返回以rootID为顶点的全部成员（含自身），按层次顺序
	Subtree(ctx context.Context, rootID uint) ([]models.Member, error)
	// Children 返回直接下级
	Children(ctx context.Context, id uint) ([]models.Member, error)
	// SignedRevenue 汇总各成员已签约合同金额
	SignedRevenue(ctx context.Context, memberIDs []uint) (map[uint]float64, error)
	// UpdateCareerLevel 更新成员职级
	UpdateCareerLevel(ctx context.Context, id uint, level progression.CareerLevel, at time.Time) error

	// CreateInvitation 保存新邀请
	CreateInvitation(ctx context.Context, inv *models.TeamInvitation) error
	// PendingInvitationExists 判断同一邀请人对该联系方式是否已有待接受邀请
	PendingInvitationExists(ctx context.Context, inviterID uint, email, phone string) (bool, error)
	// FindPendingInvitation 按邀请码查询待接受邀请，不存在时返回 ErrNotFound
	FindPendingInvitation(ctx context.Context, code string) (*models.TeamInvitation, error)
	// ExpireInvitation 将邀请标记为过期
	ExpireInvitation(ctx context.Context, id uint) error
	// JoinTeam 在一个事务内完成加入团队：设置上级、调整整棵子树深度、更新邀请记录
	JoinTeam(ctx context.Context, join TeamJoin) error
}

// TeamJoin 加入团队所需的全部变更
type TeamJoin struct {
	MemberID      uint   // 接受邀请的成员
	InviterID     uint   // 新上级
	InvitationID  uint   // 邀请记录
	DepthDelta    int    // 成员及其子树深度的变化量
	SubtreeIDs    []uint // 成员及其全部下级
	PromoteLeader bool   // 邀请人是否由普通成员升为团队长角色
	At            time.Time
}
