package diagnostics

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go_commission/logger"
)

// ThrottleConfig 限流日志配置
type ThrottleConfig struct {
	Interval time.Duration // 统计周期，每个周期输出一次被丢弃的条数
	Burst    int           // 每个周期内同一键最多输出的条数
}

// DefaultThrottleConfig 默认每分钟同一键最多输出10条
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{Interval: time.Minute, Burst: 10}
}

type throttleState struct {
	limiter    *rate.Limiter
	suppressed int
	lastSeen   time.Time
}

// ThrottledLogger 按键限流的日志
// 同一键的日志超过限额后被丢弃并计数，Flush 时汇总输出被丢弃的条数
type ThrottledLogger struct {
	log      *logger.Logger
	metrics  *Metrics
	interval time.Duration
	limit    rate.Limit
	burst    int
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*throttleState

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewThrottledLogger 创建限流日志，metrics 可以为空
func NewThrottledLogger(log *logger.Logger, metrics *Metrics, cfg ThrottleConfig) *ThrottledLogger {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &ThrottledLogger{
		log:      log,
		metrics:  metrics,
		interval: cfg.Interval,
		limit:    rate.Every(cfg.Interval / time.Duration(cfg.Burst)),
		burst:    cfg.Burst,
		now:      time.Now,
		states:   make(map[string]*throttleState),
	}
}

// allow 判断该键当前是否允许输出
func (t *ThrottledLogger) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	state, ok := t.states[key]
	if !ok {
		state = &throttleState{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.states[key] = state
	}
	state.lastSeen = now

	if state.limiter.AllowN(now, 1) {
		return true
	}
	state.suppressed++
	return false
}

// Info 输出限流的信息日志，返回是否实际输出
func (t *ThrottledLogger) Info(key, msg string, keysAndValues ...interface{}) bool {
	if !t.allow(key) {
		return false
	}
	t.log.Infow(msg, append(keysAndValues, "throttle_key", key)...)
	return true
}

// Warn 输出限流的警告日志，返回是否实际输出
func (t *ThrottledLogger) Warn(key, msg string, keysAndValues ...interface{}) bool {
	if !t.allow(key) {
		return false
	}
	t.log.Warnw(msg, append(keysAndValues, "throttle_key", key)...)
	return true
}

// Error 输出限流的错误日志，返回是否实际输出
func (t *ThrottledLogger) Error(key, msg string, keysAndValues ...interface{}) bool {
	if !t.allow(key) {
		return false
	}
	t.log.Errorw(msg, append(keysAndValues, "throttle_key", key)...)
	return true
}

// Suppressed 返回该键当前周期被丢弃的条数
func (t *ThrottledLogger) Suppressed(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state, ok := t.states[key]; ok {
		return state.suppressed
	}
	return 0
}

// Flush 输出并清零各键被丢弃的条数，同时清理超过两个周期未出现的键
func (t *ThrottledLogger) Flush() {
	t.mu.Lock()
	now := t.now()
	report := make(map[string]int)
	for key, state := range t.states {
		if state.suppressed > 0 {
			report[key] = state.suppressed
			state.suppressed = 0
		}
		if now.Sub(state.lastSeen) > 2*t.interval {
			delete(t.states, key)
		}
	}
	t.mu.Unlock()

	for key, n := range report {
		t.metrics.observeSuppressed(n)
		t.log.Warnw("日志已限流", "throttle_key", key, "suppressed", n)
	}
}

// Start 启动周期性汇总，重复调用无效
func (t *ThrottledLogger) Start(ctx context.Context) {
	t.lifecycle.Lock()
	defer t.lifecycle.Unlock()
	if t.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Flush()
			}
		}
	}(t.done)
}

// Stop 停止周期性汇总并输出剩余的统计，未启动时只执行一次汇总
func (t *ThrottledLogger) Stop() {
	t.lifecycle.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.lifecycle.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.Flush()
	_ = t.log.Sync()
}
