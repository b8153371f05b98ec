package snowflake

// phase 一次时钟读数对应的状态迁移
type phase uint8

const (
	// phaseAdvance 时间前进，序列号归零
	phaseAdvance phase = iota
	// phaseSameMillisecond 同一毫秒，序列号递增
	phaseSameMillisecond
	// phaseWaitForTick 同一毫秒内序列号耗尽，需等待时钟前进
	phaseWaitForTick
	// phaseRegressed 时钟回拨
	phaseRegressed
)

func (p phase) String() string {
	switch p {
	case phaseAdvance:
		return "ADVANCE"
	case phaseSameMillisecond:
		return "SAME-MILLISECOND"
	case phaseWaitForTick:
		return "WAIT-FOR-TICK"
	case phaseRegressed:
		return "REGRESSED"
	default:
		return "UNKNOWN"
	}
}

// state 时钟+序列号状态机
// 说明：值类型，observe 不修改接收者，并发控制由 Generator 负责
type state struct {
	lastTimestamp int64 // 上次生成ID的时间戳（相对Epoch的毫秒），0 表示尚未生成
	sequence      int64 // 当前毫秒内的序列号
}

// observe 根据时钟读数 now 计算下一个状态
// WAIT-FOR-TICK 与 REGRESSED 返回原状态，调用方不应提交
func (s state) observe(now, maxSequence int64) (state, phase) {
	switch {
	case now < s.lastTimestamp:
		return s, phaseRegressed
	case now == s.lastTimestamp:
		seq := (s.sequence + 1) & maxSequence
		if seq == 0 {
			return s, phaseWaitForTick
		}
		return state{lastTimestamp: now, sequence: seq}, phaseSameMillisecond
	default:
		return state{lastTimestamp: now, sequence: 0}, phaseAdvance
	}
}
