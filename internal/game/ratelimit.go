package game

import (
	"sync"
	"time"

	"github.com/wfunc/physics-game/internal/config"
)

// RateLimiter 按用户滑动窗口限流
// 窗口过期后重新计数，拒绝时给出需等待的毫秒数。
type RateLimiter struct {
	mu      sync.Mutex
	cfg     config.RateLimitConfig
	now     func() time.Time
	windows map[uint]*rateWindow
}

type rateWindow struct {
	start time.Time
	count int
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		cfg:     cfg,
		now:     time.Now,
		windows: make(map[uint]*rateWindow),
	}
}

// WithClock 注入时钟（测试用）
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow 判断该用户的事件是否放行
// 拒绝时返回距窗口重置还需等待的毫秒数。
func (l *RateLimiter) Allow(userID uint) (bool, int64) {
	if !l.cfg.Enabled {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[userID]
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		l.windows[userID] = &rateWindow{start: now, count: 1}
		return true, 0
	}

	if w.count < l.cfg.MaxEvents {
		w.count++
		return true, 0
	}

	retryAfter := l.cfg.Window - now.Sub(w.start)
	return false, retryAfter.Milliseconds()
}

// Reset 清空指定用户的窗口（测试和运维用）
func (l *RateLimiter) Reset(userID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, userID)
}
