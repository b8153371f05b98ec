package domain

import (
	"fmt"
	"sort"
)

// maxSliceLength NewIDSlice 接受的最大长度
const maxSliceLength = 1_000_000

// IDSlice ID切片类型
type IDSlice []ID

// NewIDSlice 创建ID切片（副本），超过 maxSliceLength 的部分被截断
func NewIDSlice(ids ...ID) IDSlice {
	if len(ids) > maxSliceLength {
		ids = ids[:maxSliceLength]
	}
	result := make(IDSlice, len(ids))
	copy(result, ids)
	return result
}

// FromInt64s 从int64切片构造
func FromInt64s(vals []int64) IDSlice {
	result := make(IDSlice, len(vals))
	for i, v := range vals {
		result[i] = ID(v)
	}
	return result
}

// Int64Slice 转换为int64切片
func (ids IDSlice) Int64Slice() []int64 {
	result := make([]int64, len(ids))
	for i, id := range ids {
		result[i] = id.Int64()
	}
	return result
}

// StringSlice 转换为字符串切片
func (ids IDSlice) StringSlice() []string {
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = id.String()
	}
	return result
}

// Contains 检查是否包含指定ID，O(n)
func (ids IDSlice) Contains(id ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Len 返回切片长度
func (ids IDSlice) Len() int {
	return len(ids)
}

// IsEmpty 检查切片是否为空
func (ids IDSlice) IsEmpty() bool {
	return len(ids) == 0
}

// First 第一个元素
func (ids IDSlice) First() (ID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Last 最后一个元素
func (ids IDSlice) Last() (ID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	return ids[len(ids)-1], true
}

// IsSorted 是否严格递增
// 说明：同一生成器按顺序产出的ID必然满足
func (ids IDSlice) IsSorted() bool {
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			return false
		}
	}
	return true
}

// Sort 升序排序（原地）
func (ids IDSlice) Sort() {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Deduplicate 去重，保留首次出现的顺序
func (ids IDSlice) Deduplicate() IDSlice {
	if len(ids) == 0 {
		return IDSlice{}
	}

	seen := make(map[ID]struct{}, len(ids))
	result := make(IDSlice, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}

// Filter 过滤ID，predicate 为 nil 时返回副本
func (ids IDSlice) Filter(predicate func(ID) bool) IDSlice {
	if predicate == nil {
		return NewIDSlice(ids...)
	}

	result := make(IDSlice, 0, len(ids))
	for _, id := range ids {
		if predicate(id) {
			result = append(result, id)
		}
	}
	return result
}

// ValidateAll 验证切片中所有ID的有效性
func (ids IDSlice) ValidateAll() error {
	for i, id := range ids {
		if err := id.Validate(); err != nil {
			return fmt.Errorf("invalid ID at index %d: %w", i, err)
		}
	}
	return nil
}
