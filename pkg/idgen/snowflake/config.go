package snowflake

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"katydid-common-idgen/pkg/idgen/core"
)

// ============================================================================
// Snowflake 配置定义
// ============================================================================

// Config Snowflake生成器配置
type Config struct {
	// DatacenterID 数据中心ID
	// 范围：[0, Layout.MaxDatacenterID()]，默认布局下为 0-31
	DatacenterID int64

	// WorkerID 工作机器ID
	// 范围：[0, Layout.MaxWorkerID()]，默认布局下为 0-31
	WorkerID int64

	// Layout 位布局
	// 零值时使用 DefaultLayout
	Layout Layout

	// Epoch 起始时间，ID中的时间戳为相对它的毫秒数
	// 零值时使用 DefaultEpoch；不能晚于当前时钟
	Epoch time.Time

	// Clock 时钟，nil时使用系统时钟
	Clock Clock

	// EnableMetrics 是否启用性能监控
	// 默认值：false
	EnableMetrics bool

	// Logger 日志，nil时不输出
	Logger *zap.Logger
}

// SetDefaults 设置配置的默认值
func (c *Config) SetDefaults() {
	if c.Layout.IsZero() {
		c.Layout = DefaultLayout
	}
	if c.Epoch.IsZero() {
		c.Epoch = DefaultEpoch
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Validate 验证配置的有效性
// 说明：应在 SetDefaults 之后调用
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}

	if c.DatacenterID < 0 || c.DatacenterID > c.Layout.MaxDatacenterID() {
		return fmt.Errorf("%w: got %d, valid range [0, %d]",
			core.ErrInvalidDatacenterID, c.DatacenterID, c.Layout.MaxDatacenterID())
	}

	if c.WorkerID < 0 || c.WorkerID > c.Layout.MaxWorkerID() {
		return fmt.Errorf("%w: got %d, valid range [0, %d]",
			core.ErrInvalidWorkerID, c.WorkerID, c.Layout.MaxWorkerID())
	}

	if c.Clock != nil && c.Epoch.After(c.Clock.Now()) {
		return fmt.Errorf("%w: epoch %s is in the future",
			core.ErrInvalidEpoch, c.Epoch.UTC().Format(time.RFC3339))
	}

	return nil
}

// Clone 克隆配置对象
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
