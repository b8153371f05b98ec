package snowflake

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"katydid-common-idgen/pkg/idgen/core"
)

// TestDefaultLayout 默认布局的派生常量
func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout
	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"TimestampBits", int64(l.TimestampBits()), 41},
		{"MaxWorkerID", l.MaxWorkerID(), 31},
		{"MaxDatacenterID", l.MaxDatacenterID(), 31},
		{"MaxSequence", l.MaxSequence(), 4095},
		{"MaxTimestamp", l.MaxTimestamp(), 1<<41 - 1},
		{"WorkerShift", int64(l.WorkerShift()), 12},
		{"DatacenterShift", int64(l.DatacenterShift()), 17},
		{"TimestampShift", int64(l.TimestampShift()), 22},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, 期望 %d", c.name, c.got, c.want)
		}
	}
	if l.String() != "41/5/5/12" {
		t.Errorf("String() = %s", l.String())
	}
}

// TestLayout_Validate 布局校验
func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		wantErr bool
	}{
		{"默认布局", DefaultLayout, false},
		{"无数据中心位", Layout{WorkerBits: 10, SequenceBits: 12}, false},
		{"32位时间戳", Layout{DatacenterBits: 10, WorkerBits: 10, SequenceBits: 11}, false},
		{"31位时间戳", Layout{DatacenterBits: 10, WorkerBits: 10, SequenceBits: 12}, false},
		{"恰好用满63位", Layout{DatacenterBits: 20, WorkerBits: 20, SequenceBits: 23}, false},
		{"超出63位", Layout{DatacenterBits: 20, WorkerBits: 20, SequenceBits: 24}, true},
		{"各字段位宽之和超出uint8", Layout{DatacenterBits: 200, WorkerBits: 100, SequenceBits: 1}, true},
		{"序列号位为0", Layout{DatacenterBits: 5, WorkerBits: 5}, true},
		{"零值布局", Layout{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.wantErr && !errors.Is(err, core.ErrInvalidLayout) {
				t.Errorf("期望 ErrInvalidLayout，得到 %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("不期望错误，得到 %v", err)
			}
		})
	}
}

// TestLayout_TimestampBits 时间戳位数随其余字段收缩，超出63位时为0
func TestLayout_TimestampBits(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		want   uint8
	}{
		{"默认布局", DefaultLayout, 41},
		{"31位时间戳", Layout{DatacenterBits: 10, WorkerBits: 10, SequenceBits: 12}, 31},
		{"恰好用满63位", Layout{DatacenterBits: 20, WorkerBits: 20, SequenceBits: 23}, 0},
		{"超出63位", Layout{DatacenterBits: 30, WorkerBits: 30, SequenceBits: 12}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.layout.TimestampBits(); got != tt.want {
				t.Errorf("TimestampBits() = %d, 期望 %d", got, tt.want)
			}
		})
	}
}

// TestLayout_PackUnpackRoundTrip 组装再拆解得到原始字段
func TestLayout_PackUnpackRoundTrip(t *testing.T) {
	layouts := []Layout{
		DefaultLayout,
		{DatacenterBits: 0, WorkerBits: 10, SequenceBits: 12},
		{DatacenterBits: 3, WorkerBits: 7, SequenceBits: 1},
		{DatacenterBits: 10, WorkerBits: 10, SequenceBits: 11},
		{DatacenterBits: 10, WorkerBits: 10, SequenceBits: 12},
		{DatacenterBits: 20, WorkerBits: 20, SequenceBits: 20},
	}
	rng := rand.New(rand.NewSource(42))

	for _, l := range layouts {
		t.Run(l.String(), func(t *testing.T) {
			cases := [][4]int64{
				{0, 0, 0, 0},
				{l.MaxTimestamp(), l.MaxDatacenterID(), l.MaxWorkerID(), l.MaxSequence()},
				{1, 0, l.MaxWorkerID(), 0},
			}
			for i := 0; i < 1000; i++ {
				cases = append(cases, [4]int64{
					rng.Int63n(l.MaxTimestamp() + 1),
					rng.Int63n(l.MaxDatacenterID() + 1),
					rng.Int63n(l.MaxWorkerID() + 1),
					rng.Int63n(l.MaxSequence() + 1),
				})
			}

			for _, c := range cases {
				id := l.Pack(c[0], c[1], c[2], c[3])
				if id < 0 {
					t.Fatalf("ID不应为负: %d (%v)", id, c)
				}
				ts, dc, w, seq := l.Unpack(id)
				if [4]int64{ts, dc, w, seq} != c {
					t.Fatalf("往返结果 %v, 期望 %v", [4]int64{ts, dc, w, seq}, c)
				}
			}
		})
	}
}

// TestLayout_Capacity 容量计算
func TestLayout_Capacity(t *testing.T) {
	c := DefaultLayout.Capacity()
	if c.MaxWorkers != 32 || c.MaxDatacenters != 32 || c.IDsPerMillisecond != 4096 {
		t.Errorf("Capacity = %+v", c)
	}
	if c.Lifespan != time.Duration(1<<41)*time.Millisecond {
		t.Errorf("Lifespan = %v", c.Lifespan)
	}

	wide := Layout{SequenceBits: 1}.Capacity()
	if wide.Lifespan != time.Duration(math.MaxInt64) {
		t.Errorf("超长寿命应封顶为 MaxInt64，得到 %v", wide.Lifespan)
	}
}
