package snowflake

import "time"

const (
	// DefaultEpochMillis 默认起始时间戳 (2023-01-01 00:00:00 +08:00)，毫秒
	DefaultEpochMillis int64 = 1672502400000

	// usableBits int64去掉符号位后的可用位数
	usableBits = 63

	// 等待下一毫秒时的休眠时间
	sleepDuration = 100 * time.Microsecond

	// 批量生成最大数量（支持跨毫秒生成）
	maxBatchSize = 100_000

	// 允许的未来时间容差（毫秒）
	maxFutureTimeTolerance = 60 * 1000 // 1分钟
)

// DefaultEpoch 默认起始时间
var DefaultEpoch = time.UnixMilli(DefaultEpochMillis)
