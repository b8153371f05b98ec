package snowflake

import (
	"sync/atomic"
	"time"
)

// Metrics 性能监控指标
type Metrics struct {
	IDCount          atomic.Uint64 // 已生成ID总数
	SequenceOverflow atomic.Uint64 // 序列号耗尽次数
	ClockBackward    atomic.Uint64 // 时钟回拨次数
	WaitCount        atomic.Uint64 // 等待下一毫秒次数
	TotalWaitTimeNs  atomic.Uint64 // 总等待时间（纳秒）
}

// NewMetrics 创建新的监控指标实例
func NewMetrics() *Metrics {
	return &Metrics{}
}

// recordWait 记录一次序列号耗尽后的等待
func (m *Metrics) recordWait(d time.Duration) {
	if m == nil {
		return
	}
	m.SequenceOverflow.Add(1)
	m.WaitCount.Add(1)
	if d > 0 {
		m.TotalWaitTimeNs.Add(uint64(d.Nanoseconds()))
	}
}

// Reset 重置所有监控指标
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.IDCount.Store(0)
	m.SequenceOverflow.Store(0)
	m.ClockBackward.Store(0)
	m.WaitCount.Store(0)
	m.TotalWaitTimeNs.Store(0)
}

// ToMap 转换为map格式（便于序列化和展示）
func (m *Metrics) ToMap() map[string]uint64 {
	if m == nil {
		return map[string]uint64{
			"metrics_enabled": 0,
		}
	}

	waitCount := m.WaitCount.Load()
	var avgWaitTime uint64
	if waitCount > 0 {
		avgWaitTime = m.TotalWaitTimeNs.Load() / waitCount
	}

	return map[string]uint64{
		"metrics_enabled":    1,
		"id_count":           m.IDCount.Load(),
		"sequence_overflow":  m.SequenceOverflow.Load(),
		"clock_backward":     m.ClockBackward.Load(),
		"wait_count":         waitCount,
		"total_wait_time_ns": m.TotalWaitTimeNs.Load(),
		"avg_wait_time_ns":   avgWaitTime,
	}
}
