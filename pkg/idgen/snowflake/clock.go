package snowflake

import (
	"sync"
	"time"
)

// Clock 时钟抽象，生成器只读取时钟，从不修改
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock 返回系统时钟
func SystemClock() Clock {
	return systemClock{}
}

// ManualClock 手动推进的时钟
// 说明：Sleep 不阻塞，而是把时钟向前推进 d，用于测试和仿真
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock 创建停在 t 的手动时钟
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now 当前时间
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep 推进 d
func (c *ManualClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// Advance 推进 d（d 可以为负，用于模拟时钟回拨）
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Set 直接设置当前时间
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
