// Package store 基于GORM实现服务层的数据访问接口
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go_commission/models"
	"go_commission/navigation"
	"go_commission/progression"
	"go_commission/services"
)

// GormStore 团队数据访问的MySQL实现
type GormStore struct {
	db *gorm.DB
}

// New 创建数据访问实例
func New(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ services.TeamStore = (*GormStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return err
}

// GetMember 按ID查询成员
func (s *GormStore) GetMember(ctx context.Context, id uint) (*models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

// Subtree 逐层查询下级，返回包含自身在内的整棵子树
// 每层一次查询，层数受团队最大深度限制
func (s *GormStore) Subtree(ctx context.Context, rootID uint) ([]models.Member, error) {
	root, err := s.GetMember(ctx, rootID)
	if err != nil {
		return nil, err
	}

	out := []models.Member{*root}
	seen := map[uint]bool{root.ID: true}
	frontier := []uint{root.ID}
	for len(frontier) > 0 {
		var level []models.Member
		if err := s.db.WithContext(ctx).
			Where("parent_id IN ?", frontier).
			Order("id").
			Find(&level).Error; err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, m := range level {
			// 数据异常出现环时不再继续展开
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
			frontier = append(frontier, m.ID)
		}
	}
	return out, nil
}

// Children 返回直接下级
func (s *GormStore) Children(ctx context.Context, id uint) ([]models.Member, error) {
	var children []models.Member
	err := s.db.WithContext(ctx).Where("parent_id = ?", id).Order("id").Find(&children).Error
	return children, err
}

// SignedRevenue 汇总各成员已签约合同金额，没有合同的成员不出现在结果中
func (s *GormStore) SignedRevenue(ctx context.Context, memberIDs []uint) (map[uint]float64, error) {
	out := make(map[uint]float64, len(memberIDs))
	if len(memberIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		MemberID uint
		Total    float64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Contract{}).
		Select("member_id, COALESCE(SUM(amount), 0) AS total").
		Where("member_id IN ? AND status = ?", memberIDs, models.ContractStatusSigned).
		Group("member_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.MemberID] = r.Total
	}
	return out, nil
}

// UpdateCareerLevel 更新成员职级及变更时间
func (s *GormStore) UpdateCareerLevel(ctx context.Context, id uint, level progression.CareerLevel, at time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"career_level": level,
			"level_at":     at,
		}).Error
}

// CreateInvitation 保存新邀请
func (s *GormStore) CreateInvitation(ctx context.Context, inv *models.TeamInvitation) error {
	return s.db.WithContext(ctx).Create(inv).Error
}

// PendingInvitationExists 判断同一邀请人对该联系方式是否已有待接受邀请
func (s *GormStore) PendingInvitationExists(ctx context.Context, inviterID uint, email, phone string) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&models.TeamInvitation{}).
		Where("inviter_id = ? AND status = ?", inviterID, models.InvitationPending)

	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		return false, nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindPendingInvitation 按邀请码查询待接受邀请
func (s *GormStore) FindPendingInvitation(ctx context.Context, code string) (*models.TeamInvitation, error) {
	var inv models.TeamInvitation
	err := s.db.WithContext(ctx).
		Where("invite_code = ? AND status = ?", code, models.InvitationPending).
		First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

// ExpireInvitation 将邀请标记为过期
func (s *GormStore) ExpireInvitation(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.TeamInvitation{}).
		Where("id = ?", id).
		Update("status", models.InvitationExpired).Error
}

// JoinTeam 在一个事务内完成加入团队
func (s *GormStore) JoinTeam(ctx context.Context, join services.TeamJoin) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 只有仍然没有上级时才更新，避免并发接受两个邀请
		res := tx.Model(&models.Member{}).
			Where("id = ? AND parent_id IS NULL", join.MemberID).
			Update("parent_id", join.InviterID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrAlreadyInTeam
		}

		if join.DepthDelta != 0 && len(join.SubtreeIDs) > 0 {
			if err := tx.Model(&models.Member{}).
				Where("id IN ?", join.SubtreeIDs).
				UpdateColumn("depth", gorm.Expr("depth + ?", join.DepthDelta)).Error; err != nil {
				return err
			}
		}

		inviterUpdates := map[string]interface{}{
			"children_count": gorm.Expr("children_count + 1"),
		}
		if join.PromoteLeader {
			inviterUpdates["role"] = navigation.RoleLeader
		}
		if err := tx.Model(&models.Member{}).
			Where("id = ?", join.InviterID).
			UpdateColumns(inviterUpdates).Error; err != nil {
			return err
		}

		return tx.Model(&models.TeamInvitation{}).
			Where("id = ? AND status = ?", join.InvitationID, models.InvitationPending).
			Updates(map[string]interface{}{
				"status":      models.InvitationAccepted,
				"invitee_id":  join.MemberID,
				"accepted_at": join.At,
			}).Error
	})
}
