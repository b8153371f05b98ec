package snowflake

import (
	"fmt"
	"time"

	"katydid-common-idgen/pkg/idgen/core"
)

var _ core.IIDValidator = (*Validator)(nil)

// Validator Snowflake ID验证器
type Validator struct {
	layout      Layout
	epochMillis int64
	clock       Clock
}

// NewValidator 创建验证器
func NewValidator(layout Layout, epoch time.Time, clock Clock) *Validator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Validator{
		layout:      layout,
		epochMillis: epoch.UnixMilli(),
		clock:       clock,
	}
}

// NewDefaultValidator 默认布局、默认Epoch、系统时钟的验证器
func NewDefaultValidator() *Validator {
	return NewValidator(DefaultLayout, DefaultEpoch, SystemClock())
}

// Validate 验证Snowflake ID的有效性
func (v *Validator) Validate(id int64) error {
	// 验证1：ID必须为正整数（符号位为0）
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d",
			core.ErrInvalidSnowflakeID, id)
	}

	// 验证2：时间戳不能太超前
	// 说明：容忍服务器之间 maxFutureTimeTolerance 以内的时钟偏差
	timestamp := (id >> v.layout.TimestampShift()) + v.epochMillis
	now := v.clock.Now().UnixMilli()
	if timestamp > now+maxFutureTimeTolerance {
		return fmt.Errorf("%w: timestamp %d is too far in the future (current: %d, max tolerance: %d ms)",
			core.ErrInvalidSnowflakeID, timestamp, now, maxFutureTimeTolerance)
	}

	return nil
}

// ValidateBatch 批量验证ID，遇到第一个错误立即返回
func (v *Validator) ValidateBatch(ids []int64) error {
	if ids == nil {
		return fmt.Errorf("ids slice cannot be nil")
	}

	for i, id := range ids {
		if err := v.Validate(id); err != nil {
			return fmt.Errorf("invalid ID at index %d: %w", i, err)
		}
	}

	return nil
}
