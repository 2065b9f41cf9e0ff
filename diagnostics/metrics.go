// Package diagnostics 提供限流日志、错误监控和监控指标
// 所有组件都由调用方创建并注入，不使用包级全局状态
package diagnostics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go_commission/progression"
)

// Metrics 业务与错误监控指标
type Metrics struct {
	evaluations        *prometheus.CounterVec
	evaluationDuration prometheus.Histogram
	levelChanges       *prometheus.CounterVec
	errors             *prometheus.CounterVec
	suppressedLogs     prometheus.Counter
}

// NewMetrics 在指定注册器上注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commission",
			Subsystem: "progression",
			Name:      "evaluations_total",
			Help:      "职级评估次数，按评估结果职级统计",
		}, []string{"level"}),
		evaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "commission",
			Subsystem: "progression",
			Name:      "evaluation_duration_seconds",
			Help:      "看板计算耗时（含数据加载）",
			Buckets:   prometheus.DefBuckets,
		}),
		levelChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commission",
			Subsystem: "progression",
			Name:      "level_changes_total",
			Help:      "成员职级变更次数",
		}, []string{"from", "to"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "commission",
			Name:      "errors_total",
			Help:      "错误次数，按类型统计",
		}, []string{"kind"}),
		suppressedLogs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "commission",
			Subsystem: "log",
			Name:      "suppressed_total",
			Help:      "被限流丢弃的日志条数",
		}),
	}
}

// ObserveEvaluation 记录一次评估
func (m *Metrics) ObserveEvaluation(level progression.CareerLevel, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(level.String()).Inc()
	m.evaluationDuration.Observe(elapsed.Seconds())
}

// ObserveLevelChange 记录职级变更
func (m *Metrics) ObserveLevelChange(from, to progression.CareerLevel) {
	if m == nil {
		return
	}
	m.levelChanges.WithLabelValues(from.String(), to.String()).Inc()
}

// ObserveError 记录一次错误，kind 如 panic、server_error、level_sync
func (m *Metrics) ObserveError(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeSuppressed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.suppressedLogs.Add(float64(n))
}
