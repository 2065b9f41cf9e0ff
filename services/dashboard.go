package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go_commission/diagnostics"
	"go_commission/models"
	"go_commission/progression"
)

// DashboardService 计算成员看板
// 每次请求都根据已签约合同重新汇总业绩，职级变化时回写成员表
type DashboardService struct {
	store   TeamStore
	eval    *progression.Evaluator
	metrics *diagnostics.Metrics
	log     *diagnostics.ThrottledLogger
	now     func() time.Time
}

// NewDashboardService 创建看板服务，metrics 可以为空
func NewDashboardService(store TeamStore, eval *progression.Evaluator, metrics *diagnostics.Metrics, log *diagnostics.ThrottledLogger) *DashboardService {
	if eval == nil {
		eval = progression.NewEvaluator(nil)
	}
	return &DashboardService{
		store:   store,
		eval:    eval,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Dashboard 返回成员的看板指标
// 团队范围为该成员的全部直接和间接下级，成员本人的上级不参与计算
func (s *DashboardService) Dashboard(ctx context.Context, memberID uint) (progression.DashboardMetrics, error) {
	start := s.now()

	member, err := s.store.GetMember(ctx, memberID)
	if err != nil {
		return progression.DashboardMetrics{}, err
	}
	if !member.IsActive() {
		return progression.DashboardMetrics{}, ErrInactiveMember
	}

	subtree, err := s.store.Subtree(ctx, memberID)
	if err != nil {
		return progression.DashboardMetrics{}, fmt.Errorf("查询团队成员失败: %w", err)
	}

	ids := make([]uint, 0, len(subtree))
	for _, m := range subtree {
		ids = append(ids, m.ID)
	}
	revenue, err := s.store.SignedRevenue(ctx, ids)
	if err != nil {
		return progression.DashboardMetrics{}, fmt.Errorf("汇总合同业绩失败: %w", err)
	}

	nodes := make([]progression.Node, 0, len(subtree))
	for _, m := range subtree {
		node := progression.Node{
			ID:              nodeID(m.ID),
			Name:            m.Name,
			PersonalRevenue: revenue[m.ID],
		}
		// 只在子树内部建立上下级关系，评估对象本人作为根节点
		if m.ParentID != nil && m.ID != memberID {
			node.ParentID = nodeID(*m.ParentID)
		}
		nodes = append(nodes, node)
	}

	tree, err := s.eval.BuildTree(nodes)
	if err != nil {
		s.fail(memberID, err)
		return progression.DashboardMetrics{}, err
	}
	result, err := tree.Evaluate(nodeID(memberID))
	if err != nil {
		s.fail(memberID, err)
		return progression.DashboardMetrics{}, err
	}

	s.syncLevels(ctx, subtree, tree)
	s.metrics.ObserveEvaluation(result.CurrentLevel, s.now().Sub(start))

	return result, nil
}

// syncLevels 把树中计算出的职级回写到发生变化的成员
// 回写失败不影响看板返回，只记录日志
func (s *DashboardService) syncLevels(ctx context.Context, subtree []models.Member, tree *progression.Tree) {
	for _, m := range subtree {
		computed, ok := tree.Member(nodeID(m.ID))
		if !ok || computed.Level == m.CareerLevel {
			continue
		}
		if err := s.store.UpdateCareerLevel(ctx, m.ID, computed.Level, s.now()); err != nil {
			s.metrics.ObserveError("level_sync")
			s.log.Warn("level_sync", "职级回写失败", "member_id", m.ID, "error", err)
			continue
		}
		s.metrics.ObserveLevelChange(m.CareerLevel, computed.Level)
		s.log.Info("level_change:"+nodeID(m.ID), "成员职级变更",
			"member_id", m.ID, "from", m.CareerLevel.String(), "to", computed.Level.String())
	}
}

func (s *DashboardService) fail(memberID uint, err error) {
	kind := "evaluation"
	if errors.Is(err, progression.ErrInvalidInput) {
		kind = "invalid_input"
	}
	s.metrics.ObserveError(kind)
	s.log.Error("dashboard:"+kind, "看板计算失败", "member_id", memberID, "error", err)
}

func nodeID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
