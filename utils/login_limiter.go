package utils

import (
	"context"
	"math"
	"sync"
	"time"
)

// LoginPolicy 登录失败锁定策略
type LoginPolicy struct {
	MaxAttempts   int           // 统计窗口内允许的失败次数
	Window        time.Duration // 统计窗口，从第一次失败开始计算
	LockDuration  time.Duration // 达到上限后的锁定时长
	CleanInterval time.Duration // 过期记录的清理间隔
}

// DefaultLoginPolicy 1小时内失败5次锁定15分钟
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{
		MaxAttempts:   5,
		Window:        time.Hour,
		LockDuration:  15 * time.Minute,
		CleanInterval: time.Hour,
	}
}

// LoginStatus 某个账号当前的登录限制状态
type LoginStatus struct {
	Locked            bool
	RetryAfter        time.Duration // 剩余锁定时长，未锁定时为0
	RemainingAttempts int
}

// Minutes 剩余锁定分钟数，向上取整
func (s LoginStatus) Minutes() int {
	return int(math.Ceil(s.RetryAfter.Minutes()))
}

type failureRecord struct {
	count     int
	firstFail time.Time
	lockUntil time.Time
}

// LoginLimiter 按账号统计登录失败次数，防止暴力破解
type LoginLimiter struct {
	policy LoginPolicy
	now    func() time.Time

	mu      sync.Mutex
	records map[string]*failureRecord
}

// NewLoginLimiter 创建登录限制器，不合法的策略项使用默认值
func NewLoginLimiter(policy LoginPolicy) *LoginLimiter {
	def := DefaultLoginPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.Window <= 0 {
		policy.Window = def.Window
	}
	if policy.LockDuration <= 0 {
		policy.LockDuration = def.LockDuration
	}
	if policy.CleanInterval <= 0 {
		policy.CleanInterval = def.CleanInterval
	}
	return &LoginLimiter{
		policy:  policy,
		now:     time.Now,
		records: make(map[string]*failureRecord),
	}
}

// DefaultLoginLimiter 使用默认策略创建登录限制器
func DefaultLoginLimiter() *LoginLimiter {
	return NewLoginLimiter(DefaultLoginPolicy())
}

// Run 定期清理过期记录，直到ctx结束
func (l *LoginLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.policy.CleanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *LoginLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, r := range l.records {
		if l.expired(r, now) {
			delete(l.records, key)
		}
	}
}

// expired 锁定已结束且统计窗口已过
func (l *LoginLimiter) expired(r *failureRecord, now time.Time) bool {
	return !now.Before(r.lockUntil) && now.Sub(r.firstFail) >= l.policy.Window
}

// status 调用方需持有锁
func (l *LoginLimiter) status(r *failureRecord, now time.Time) LoginStatus {
	if r == nil {
		return LoginStatus{RemainingAttempts: l.policy.MaxAttempts}
	}
	if now.Before(r.lockUntil) {
		return LoginStatus{Locked: true, RetryAfter: r.lockUntil.Sub(now)}
	}
	remaining := l.policy.MaxAttempts - r.count
	if remaining < 0 {
		remaining = 0
	}
	return LoginStatus{RemainingAttempts: remaining}
}

// Check 返回账号当前状态，不改变计数
func (l *LoginLimiter) Check(key string) LoginStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.records[key]
	if r != nil && l.expired(r, now) {
		delete(l.records, key)
		r = nil
	}
	return l.status(r, now)
}

// Fail 记录一次登录失败，达到上限时开始锁定
func (l *LoginLimiter) Fail(key string) LoginStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	r := l.records[key]
	if r == nil || l.expired(r, now) {
		r = &failureRecord{firstFail: now}
		l.records[key] = r
	}
	if now.Before(r.lockUntil) {
		return l.status(r, now)
	}

	r.count++
	if r.count >= l.policy.MaxAttempts {
		r.lockUntil = now.Add(l.policy.LockDuration)
		// 锁定结束后重新计数
		r.count = 0
		r.firstFail = r.lockUntil
	}
	return l.status(r, now)
}

// Succeed 登录成功后清除失败记录
func (l *LoginLimiter) Succeed(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, key)
}
