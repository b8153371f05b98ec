package snowflake

import (
	"fmt"
	"time"

	"katydid-common-idgen/pkg/idgen/core"
)

var _ core.IIDParser = (*Parser)(nil)

// Parser Snowflake ID解析器
// 说明：解析必须使用与生成时相同的布局和Epoch
type Parser struct {
	layout      Layout
	epochMillis int64
	validator   core.IIDValidator // 解析前验证ID有效性
}

// NewParser 创建解析器，零值布局/Epoch使用默认值
// 说明：布局非法时返回 core.ErrInvalidLayout，与 NewWithConfig 的校验一致
func NewParser(layout Layout, epoch time.Time) (*Parser, error) {
	if layout.IsZero() {
		layout = DefaultLayout
	}
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return newParser(layout, epoch, NewValidator(layout, epoch, SystemClock())), nil
}

// NewDefaultParser 默认布局、默认Epoch的解析器
func NewDefaultParser() *Parser {
	return newParser(DefaultLayout, DefaultEpoch, NewDefaultValidator())
}

func newParser(layout Layout, epoch time.Time, validator core.IIDValidator) *Parser {
	return &Parser{
		layout:      layout,
		epochMillis: epoch.UnixMilli(),
		validator:   validator,
	}
}

// Parse 解析Snowflake ID，提取完整的元信息
func (p *Parser) Parse(id int64) (*core.IDInfo, error) {
	if err := p.validator.Validate(id); err != nil {
		return nil, fmt.Errorf("invalid snowflake ID: %w", err)
	}

	timestamp, datacenterID, workerID, sequence := p.layout.Unpack(id)

	return &core.IDInfo{
		ID:           id,
		Timestamp:    timestamp + p.epochMillis,
		DatacenterID: datacenterID,
		WorkerID:     workerID,
		Sequence:     sequence,
	}, nil
}

// ExtractTimestamp 提取时间戳（Unix毫秒），无效ID返回0
func (p *Parser) ExtractTimestamp(id int64) int64 {
	if id <= 0 {
		return 0
	}
	return (id >> p.layout.TimestampShift()) + p.epochMillis
}

// ExtractTime 提取时间戳并转换为time.Time，无效ID返回零值
func (p *Parser) ExtractTime(id int64) time.Time {
	timestamp := p.ExtractTimestamp(id)
	if timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(timestamp)
}

// ExtractDatacenterID 提取数据中心ID，无效ID返回-1
func (p *Parser) ExtractDatacenterID(id int64) int64 {
	if id <= 0 {
		return -1
	}
	return (id >> p.layout.DatacenterShift()) & p.layout.MaxDatacenterID()
}

// ExtractWorkerID 提取工作机器ID，无效ID返回-1
func (p *Parser) ExtractWorkerID(id int64) int64 {
	if id <= 0 {
		return -1
	}
	return (id >> p.layout.WorkerShift()) & p.layout.MaxWorkerID()
}

// ExtractSequence 提取序列号，无效ID返回-1
func (p *Parser) ExtractSequence(id int64) int64 {
	if id <= 0 {
		return -1
	}
	return id & p.layout.MaxSequence()
}
