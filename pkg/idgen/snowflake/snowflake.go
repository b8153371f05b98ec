package snowflake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"katydid-common-idgen/pkg/idgen/core"
)

var _ core.IGenerator = (*Generator)(nil)

// Generator Snowflake算法的ID生成器实现
type Generator struct {
	// ========== 核心状态 ==========
	st state // 时钟+序列号状态，只在持有 mu 时读写

	// ========== 身份与布局（构造后不变） ==========
	datacenterID int64
	workerID     int64
	layout       Layout
	epoch        time.Time
	epochMillis  int64
	maxSequence  int64
	maxTimestamp int64

	// precomputedPart 预计算的 datacenterID 和 workerID 部分
	precomputedPart int64

	// ========== 依赖 ==========
	clock     Clock
	metrics   *Metrics // 为nil时不收集
	logger    *zap.Logger
	parser    *Parser
	validator *Validator

	mu sync.Mutex
}

// New 使用默认布局和默认Epoch创建生成器
// 注意：参数顺序为数据中心ID在前、工作机器ID在后，与ID中的位序一致；
// 两个参数同为int64，容易写反，需要自定义Epoch或按字段名传参时使用 NewWithConfig
func New(datacenterID, workerID int64) (*Generator, error) {
	return NewWithConfig(&Config{
		DatacenterID: datacenterID,
		WorkerID:     workerID,
	})
}

// NewWithConfig 使用配置创建Snowflake ID生成器
func NewWithConfig(config *Config) (*Generator, error) {
	if config == nil {
		return nil, core.ErrNilConfig
	}

	// 使用配置副本，调用方后续修改不影响生成器
	cfg := config.Clone()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var metrics *Metrics
	if cfg.EnableMetrics {
		metrics = NewMetrics()
	}

	validator := NewValidator(cfg.Layout, cfg.Epoch, cfg.Clock)
	g := &Generator{
		datacenterID:    cfg.DatacenterID,
		workerID:        cfg.WorkerID,
		layout:          cfg.Layout,
		epoch:           cfg.Epoch,
		epochMillis:     cfg.Epoch.UnixMilli(),
		maxSequence:     cfg.Layout.MaxSequence(),
		maxTimestamp:    cfg.Layout.MaxTimestamp(),
		precomputedPart: cfg.Layout.Pack(0, cfg.DatacenterID, cfg.WorkerID, 0),
		clock:           cfg.Clock,
		metrics:         metrics,
		logger:          cfg.Logger,
		parser:          newParser(cfg.Layout, cfg.Epoch, validator),
		validator:       validator,
	}

	g.logger.Info("Snowflake生成器创建成功",
		zap.Int64("datacenter_id", g.datacenterID),
		zap.Int64("worker_id", g.workerID),
		zap.Stringer("layout", g.layout),
		zap.Time("epoch", g.epoch),
		zap.Bool("metrics_enabled", metrics != nil))

	return g, nil
}

// NextID 生成下一个唯一ID（线程安全）
// 序列号耗尽时阻塞到下一毫秒，没有超时
func (g *Generator) NextID() (int64, error) {
	return g.NextIDContext(context.Background())
}

// NextIDContext 生成下一个唯一ID，等待下一毫秒时响应 ctx 取消
// 取消时返回 ctx.Err()，生成器状态不变
func (g *Generator) NextIDContext(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nextIDLocked(ctx)
}

// MustNextID 生成下一个ID，失败（如时钟回拨）时 panic
func (g *Generator) MustNextID() int64 {
	id, err := g.NextID()
	if err != nil {
		panic(err)
	}
	return id
}

// NextIDBatch 批量生成ID（线程安全）
// 时钟回拨时返回已生成的ID和错误
func (g *Generator) NextIDBatch(n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d",
			core.ErrInvalidBatchSize, n)
	}
	if n > maxBatchSize {
		return nil, fmt.Errorf("%w: batch size too large (max %d), got %d",
			core.ErrInvalidBatchSize, maxBatchSize, n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int64, 0, n)
	for len(ids) < n {
		id, err := g.nextIDLocked(context.Background())
		if err != nil {
			return ids, fmt.Errorf("%w (generated %d/%d IDs)", err, len(ids), n)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// GetWorkerID 获取工作机器ID
func (g *Generator) GetWorkerID() int64 {
	return g.workerID
}

// GetDatacenterID 获取数据中心ID
func (g *Generator) GetDatacenterID() int64 {
	return g.datacenterID
}

// Layout 获取位布局
func (g *Generator) Layout() Layout {
	return g.layout
}

// Epoch 获取起始时间
func (g *Generator) Epoch() time.Time {
	return g.epoch
}

// GetMetrics 获取性能监控指标
func (g *Generator) GetMetrics() map[string]uint64 {
	return g.metrics.ToMap()
}

// ResetMetrics 重置性能监控指标
func (g *Generator) ResetMetrics() {
	g.metrics.Reset()
}

// GetIDCount 获取已生成的ID总数
func (g *Generator) GetIDCount() uint64 {
	if g.metrics == nil {
		return 0
	}
	return g.metrics.IDCount.Load()
}

// ParseID 解析ID
func (g *Generator) ParseID(id int64) (*core.IDInfo, error) {
	return g.parser.Parse(id)
}

// ValidateID 验证ID
func (g *Generator) ValidateID(id int64) error {
	return g.validator.Validate(id)
}

// Parser 获取与本生成器布局一致的解析器
func (g *Generator) Parser() *Parser {
	return g.parser
}

// nextIDLocked 调用者必须已持有锁
func (g *Generator) nextIDLocked(ctx context.Context) (int64, error) {
	now := g.currentMillis()

	next, ph := g.st.observe(now, g.maxSequence)
	switch ph {
	case phaseRegressed:
		return 0, g.regressed(now)

	case phaseWaitForTick:
		start := g.clock.Now()
		tick, err := g.waitNextMillis(ctx, g.st.lastTimestamp)
		if err != nil {
			return 0, err
		}
		g.metrics.recordWait(g.clock.Now().Sub(start))

		// tick 严格大于 lastTimestamp，必然是 ADVANCE
		next, _ = g.st.observe(tick, g.maxSequence)
	}

	if next.lastTimestamp > g.maxTimestamp {
		return 0, fmt.Errorf("%w: %d ms since epoch exceeds %d (layout %s)",
			core.ErrTimestampOverflow, next.lastTimestamp, g.maxTimestamp, g.layout)
	}

	g.st = next
	if g.metrics != nil {
		g.metrics.IDCount.Add(1)
	}

	return next.lastTimestamp<<g.layout.TimestampShift() | g.precomputedPart | next.sequence, nil
}

// waitNextMillis 轮询直到时钟严格大于 lastTimestamp
func (g *Generator) waitNextMillis(ctx context.Context, lastTimestamp int64) (int64, error) {
	for {
		now := g.currentMillis()
		if now > lastTimestamp {
			return now, nil
		}
		if now < lastTimestamp {
			return 0, g.regressed(now)
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		g.clock.Sleep(sleepDuration)
	}
}

// regressed 记录并构造时钟回拨错误，不做任何修复
func (g *Generator) regressed(now int64) error {
	if g.metrics != nil {
		g.metrics.ClockBackward.Add(1)
	}

	err := &core.ClockRegressionError{Last: g.st.lastTimestamp, Now: now}
	g.logger.Error("时钟回拨，ID生成失败",
		zap.Int64("datacenter_id", g.datacenterID),
		zap.Int64("worker_id", g.workerID),
		zap.Int64("last_timestamp", err.Last),
		zap.Int64("current_timestamp", err.Now),
		zap.Int64("drift_ms", err.Drift()))

	return err
}

// currentMillis 当前时间相对Epoch的毫秒数
func (g *Generator) currentMillis() int64 {
	return g.clock.Now().UnixMilli() - g.epochMillis
}
