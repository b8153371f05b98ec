package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkerID 工作机器ID超出布局允许的范围
	ErrInvalidWorkerID = errors.New("invalid worker id: out of layout range")

	// ErrInvalidDatacenterID 数据中心ID超出布局允许的范围
	ErrInvalidDatacenterID = errors.New("invalid datacenter id: out of layout range")

	// ErrInvalidLayout 位布局非法
	ErrInvalidLayout = errors.New("invalid bit layout")

	// ErrInvalidEpoch 起始时间非法（晚于当前时钟）
	ErrInvalidEpoch = errors.New("invalid epoch")

	// ErrClockMovedBackwards 检测到时钟回拨
	ErrClockMovedBackwards = errors.New("clock moved backwards: refusing to generate id")

	// ErrTimestampOverflow 时间戳超出布局的时间戳位宽
	ErrTimestampOverflow = errors.New("timestamp overflow: exceeds layout lifespan")

	// ErrInvalidSnowflakeID 无效的Snowflake ID
	ErrInvalidSnowflakeID = errors.New("invalid snowflake id")

	// ErrInvalidBatchSize 批量生成数量无效
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrNilConfig 配置为nil
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrGeneratorNotFound 生成器未找到
	ErrGeneratorNotFound = errors.New("generator not found")

	// ErrGeneratorAlreadyExists 生成器已存在
	ErrGeneratorAlreadyExists = errors.New("generator already exists")

	// ErrIdentityInUse 同一身份（数据中心ID+工作机器ID）已被其他生成器占用
	ErrIdentityInUse = errors.New("generator identity already in use")

	// ErrInvalidGeneratorType 无效的生成器类型
	ErrInvalidGeneratorType = errors.New("invalid generator type")

	// ErrInvalidKey 无效的键
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidKeyFormat 键格式不合法
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrFactoryNotFound 工厂未找到
	ErrFactoryNotFound = errors.New("factory not found")

	// ErrParserNotFound 解析器未找到
	ErrParserNotFound = errors.New("parser not found")

	// ErrValidatorNotFound 验证器未找到
	ErrValidatorNotFound = errors.New("validator not found")

	// ErrMaxGeneratorsReached 达到最大生成器数量
	ErrMaxGeneratorsReached = errors.New("maximum number of generators reached")
)

// ClockRegressionError 时钟回拨错误
// 说明：回拨是致命错误，生成器不会自行修复，调用方决定重启、告警或退出
type ClockRegressionError struct {
	Last int64 // 上次记录的时间戳（相对Epoch的毫秒）
	Now  int64 // 本次读取的时间戳（相对Epoch的毫秒）
}

// Error 实现error接口
func (e *ClockRegressionError) Error() string {
	return fmt.Sprintf("%s: last=%d now=%d drift=%dms",
		ErrClockMovedBackwards.Error(), e.Last, e.Now, e.Drift())
}

// Unwrap 便于 errors.Is(err, ErrClockMovedBackwards)
func (e *ClockRegressionError) Unwrap() error {
	return ErrClockMovedBackwards
}

// Drift 回拨的毫秒数
func (e *ClockRegressionError) Drift() int64 {
	return e.Last - e.Now
}
