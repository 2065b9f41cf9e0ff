package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go_commission/logger"
	"go_commission/models"
	"go_commission/navigation"
	"go_commission/progression"
	"go_commission/utils"
)

// InvitationTTL 邀请有效期
const InvitationTTL = 7 * 24 * time.Hour

// MemberSummary 团队视图中的成员摘要
type MemberSummary struct {
	ID            uint                    `json:"id"`
	Name          string                  `json:"name"`
	CareerLevel   progression.CareerLevel `json:"career_level"`
	ChildrenCount int                     `json:"children_count"`
}

// Hierarchy 成员的团队结构：上级和直接下级
type Hierarchy struct {
	MemberSummary
	Depth      int             `json:"depth"`
	InviteCode string          `json:"invite_code"`
	Parent     *MemberSummary  `json:"parent,omitempty"`
	Children   []MemberSummary `json:"children"`
}

// TeamService 团队结构与邀请
type TeamService struct {
	store TeamStore
	log   *logger.Logger
	now   func() time.Time
}

// NewTeamService 创建团队服务
func NewTeamService(store TeamStore, log *logger.Logger) *TeamService {
	return &TeamService{store: store, log: log, now: time.Now}
}

func summarize(m *models.Member) MemberSummary {
	return MemberSummary{
		ID:            m.ID,
		Name:          m.Name,
		CareerLevel:   m.CareerLevel,
		ChildrenCount: m.ChildrenCount,
	}
}

// Hierarchy 查询成员的上级和直接下级
func (s *TeamService) Hierarchy(ctx context.Context, memberID uint) (*Hierarchy, error) {
	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	h := &Hierarchy{
		MemberSummary: summarize(member),
		Depth:         member.Depth,
		InviteCode:    member.InviteCode,
		Children:      []MemberSummary{},
	}

	if member.ParentID != nil {
		parent, err := s.store.GetMember(ctx, *member.ParentID)
		switch {
		case err == nil:
			p := summarize(parent)
			h.Parent = &p
		case errors.Is(err, ErrNotFound):
			s.log.Warnw("上级成员不存在", "member_id", memberID, "parent_id", *member.ParentID)
		default:
			return nil, err
		}
	}

	children, err := s.store.Children(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("查询下级失败: %w", err)
	}
	for i := range children {
		h.Children = append(h.Children, summarize(&children[i]))
	}
	return h, nil
}

// CreateInvitation 创建团队邀请，email和phone至少提供一个
func (s *TeamService) CreateInvitation(ctx context.Context, inviterID uint, email, phone string) (*models.TeamInvitation, error) {
	inviter, err := s.activeMember(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	if inviter.Depth >= MaxTeamDepth {
		return nil, ErrTeamDepthExceeded
	}

	exists, err := s.store.PendingInvitationExists(ctx, inviterID, email, phone)
	if err != nil {
		return nil, fmt.Errorf("查询邀请失败: %w", err)
	}
	if exists {
		return nil, ErrInvitationConflict
	}

	inv := &models.TeamInvitation{
		InviterID:  inviterID,
		InviteCode: utils.GenerateInviteCode(),
		Email:      email,
		Phone:      phone,
		Status:     models.InvitationPending,
		ExpiredAt:  s.now().Add(InvitationTTL),
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("创建邀请失败: %w", err)
	}

	s.log.Infow("创建团队邀请", "inviter_id", inviterID, "invitation_id", inv.ID)
	return inv, nil
}

// AcceptInvitation 接受邀请加入邀请人的团队，返回新上级
// 成员只能有一个上级，不能加入自己下级的团队，整棵子树加入后深度不能超过 MaxTeamDepth
func (s *TeamService) AcceptInvitation(ctx context.Context, memberID uint, code string) (*models.Member, error) {
	inv, err := s.store.FindPendingInvitation(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvitationInvalid
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if now.After(inv.ExpiredAt) {
		if err := s.store.ExpireInvitation(ctx, inv.ID); err != nil {
			s.log.Warnw("更新邀请状态失败", "invitation_id", inv.ID, "error", err)
		}
		return nil, ErrInvitationExpired
	}

	member, err := s.activeMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	inviter, err := s.activeMember(ctx, inv.InviterID)
	if err != nil {
		return nil, err
	}

	if member.ParentID != nil {
		return nil, ErrAlreadyInTeam
	}

	subtree, err := s.store.Subtree(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("查询团队成员失败: %w", err)
	}
	ids := make([]uint, 0, len(subtree))
	height := 0
	for _, m := range subtree {
		if m.ID == inviter.ID {
			return nil, ErrCircularTeam
		}
		if d := m.Depth - member.Depth; d > height {
			height = d
		}
		ids = append(ids, m.ID)
	}

	newDepth := inviter.Depth + 1
	if newDepth+height > MaxTeamDepth {
		return nil, fmt.Errorf("%w: 加入后最深层级将达到%d，最大限制为%d",
			ErrTeamDepthExceeded, newDepth+height, MaxTeamDepth)
	}

	join := TeamJoin{
		MemberID:      member.ID,
		InviterID:     inviter.ID,
		InvitationID:  inv.ID,
		DepthDelta:    newDepth - member.Depth,
		SubtreeIDs:    ids,
		PromoteLeader: inviter.Role == navigation.RoleMember,
		At:            now,
	}
	if err := s.store.JoinTeam(ctx, join); err != nil {
		return nil, fmt.Errorf("加入团队失败: %w", err)
	}

	s.log.Infow("成员加入团队", "member_id", member.ID, "inviter_id", inviter.ID, "depth", newDepth)
	return inviter, nil
}

func (s *TeamService) activeMember(ctx context.Context, id uint) (*models.Member, error) {
	m, err := s.store.GetMember(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInactiveMember
	}
	if err != nil {
		return nil, err
	}
	if !m.IsActive() {
		return nil, ErrInactiveMember
	}
	return m, nil
}
