package snowflake

import (
	"fmt"
	"math"
	"time"

	"katydid-common-idgen/pkg/idgen/core"
)

// Layout ID位布局
// 说明：
//   - 最高位为符号位，保持为0，保证ID在int64下非负
//   - 时间戳占用剩余的 63 - (DatacenterBits+WorkerBits+SequenceBits) 位
//   - 同一部署内的所有生成器必须使用相同的布局
//
// ID结构（高位到低位）：时间戳 | 数据中心ID | 工作机器ID | 序列号
type Layout struct {
	DatacenterBits uint8 `json:"datacenter_bits"` // 数据中心ID位数
	WorkerBits     uint8 `json:"worker_bits"`     // 工作机器ID位数
	SequenceBits   uint8 `json:"sequence_bits"`   // 序列号位数
}

// DefaultLayout 经典Twitter布局：41位时间戳 | 5位数据中心 | 5位工作机器 | 12位序列号
var DefaultLayout = Layout{
	DatacenterBits: 5,
	WorkerBits:     5,
	SequenceBits:   12,
}

// Capacity 布局容量信息
type Capacity struct {
	TimestampBits     uint8         `json:"timestamp_bits"`
	MaxDatacenters    int64         `json:"max_datacenters"`
	MaxWorkers        int64         `json:"max_workers"`
	IDsPerMillisecond int64         `json:"ids_per_millisecond"`
	Lifespan          time.Duration `json:"lifespan"`
}

// IsZero 是否为零值布局（未配置）
func (l Layout) IsZero() bool {
	return l == Layout{}
}

// Validate 验证布局
func (l Layout) Validate() error {
	if l.SequenceBits == 0 {
		return fmt.Errorf("%w: sequence bits must be positive", core.ErrInvalidLayout)
	}

	used := int(l.DatacenterBits) + int(l.WorkerBits) + int(l.SequenceBits)
	if used > usableBits {
		return fmt.Errorf("%w: %d+%d+%d bits exceeds %d usable bits",
			core.ErrInvalidLayout, l.DatacenterBits, l.WorkerBits, l.SequenceBits, usableBits)
	}

	return nil
}

// TimestampBits 时间戳位数，布局超出63位时为0
func (l Layout) TimestampBits() uint8 {
	used := int(l.DatacenterBits) + int(l.WorkerBits) + int(l.SequenceBits)
	if used >= usableBits {
		return 0
	}
	return uint8(usableBits - used)
}

// MaxDatacenterID 最大数据中心ID（2^bits - 1）
func (l Layout) MaxDatacenterID() int64 { return mask(l.DatacenterBits) }

// MaxWorkerID 最大工作机器ID（2^bits - 1）
func (l Layout) MaxWorkerID() int64 { return mask(l.WorkerBits) }

// MaxSequence 最大序列号（2^bits - 1）
func (l Layout) MaxSequence() int64 { return mask(l.SequenceBits) }

// MaxTimestamp 最大时间戳（相对Epoch的毫秒）
func (l Layout) MaxTimestamp() int64 { return mask(l.TimestampBits()) }

// WorkerShift 工作机器ID位移量
func (l Layout) WorkerShift() uint8 { return l.SequenceBits }

// DatacenterShift 数据中心ID位移量
func (l Layout) DatacenterShift() uint8 { return l.SequenceBits + l.WorkerBits }

// TimestampShift 时间戳位移量
func (l Layout) TimestampShift() uint8 {
	return l.SequenceBits + l.WorkerBits + l.DatacenterBits
}

// Pack 按布局组装ID
// 说明：调用者保证各字段在位宽范围内
func (l Layout) Pack(timestamp, datacenterID, workerID, sequence int64) int64 {
	return timestamp<<l.TimestampShift() |
		datacenterID<<l.DatacenterShift() |
		workerID<<l.WorkerShift() |
		sequence
}

// Unpack 按布局拆解ID，Pack的逆运算
func (l Layout) Unpack(id int64) (timestamp, datacenterID, workerID, sequence int64) {
	timestamp = (id >> l.TimestampShift()) & l.MaxTimestamp()
	datacenterID = (id >> l.DatacenterShift()) & l.MaxDatacenterID()
	workerID = (id >> l.WorkerShift()) & l.MaxWorkerID()
	sequence = id & l.MaxSequence()
	return
}

// Capacity 计算布局的理论容量
func (l Layout) Capacity() Capacity {
	lifespan := time.Duration(math.MaxInt64)
	// 2^43毫秒以内不会溢出time.Duration
	if l.TimestampBits() <= 43 {
		lifespan = time.Duration(l.MaxTimestamp()+1) * time.Millisecond
	}

	return Capacity{
		TimestampBits:     l.TimestampBits(),
		MaxDatacenters:    l.MaxDatacenterID() + 1,
		MaxWorkers:        l.MaxWorkerID() + 1,
		IDsPerMillisecond: l.MaxSequence() + 1,
		Lifespan:          lifespan,
	}
}

// String 形如 "41/5/5/12"（时间戳/数据中心/工作机器/序列号）
func (l Layout) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", l.TimestampBits(), l.DatacenterBits, l.WorkerBits, l.SequenceBits)
}

func mask(bits uint8) int64 {
	return -1 ^ (int64(-1) << bits)
}
