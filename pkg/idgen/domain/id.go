package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	// maxSafeInteger JavaScript最大安全整数 (2^53 - 1)
	maxSafeInteger = 9007199254740991

	// maxParseIDStringLength 解析ID字符串的最大长度
	// 说明：100个字符足以表示任意进制的int64，超长输入直接拒绝
	maxParseIDStringLength = 100
)

// ID 标识符类型
// 说明：JSON中序列化为十进制字符串，避免JavaScript精度丢失
type ID int64

// NewID 创建新的ID
func NewID(val int64) ID {
	return ID(val)
}

// ParseID 从字符串解析ID
// 说明：支持十进制、十六进制（0x）、二进制（0b）
func ParseID(s string) (ID, error) {
	if len(s) == 0 {
		return 0, fmt.Errorf("ID string cannot be empty")
	}
	if len(s) > maxParseIDStringLength {
		return 0, fmt.Errorf("ID string too long: max %d characters, got %d",
			maxParseIDStringLength, len(s))
	}

	base, digits := 10, s
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, digits = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, digits = 2, s[2:]
	}
	if len(digits) == 0 {
		return 0, fmt.Errorf("invalid ID format: missing digits after %s", s)
	}

	val, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ID: %w", err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid ID: must be non-negative, got %d", val)
	}

	return ID(val), nil
}

// Int64 转换为int64类型
func (id ID) Int64() int64 {
	return int64(id)
}

// String 十进制字符串
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Hex 带0x前缀的十六进制字符串
func (id ID) Hex() string {
	return "0x" + strconv.FormatInt(int64(id), 16)
}

// Binary 带0b前缀的二进制字符串
func (id ID) Binary() string {
	return "0b" + strconv.FormatInt(int64(id), 2)
}

// MarshalJSON 序列化为字符串
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON 支持从字符串或数字反序列化
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty JSON data")
	}
	if len(data) > maxParseIDStringLength {
		return fmt.Errorf("JSON data too large: max %d bytes, got %d",
			maxParseIDStringLength, len(data))
	}

	var val int64
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if len(str) == 0 {
			return fmt.Errorf("ID string cannot be empty")
		}
		if val, err = strconv.ParseInt(str, 10, 64); err != nil {
			return fmt.Errorf("invalid ID string format: %w", err)
		}
	} else if err := json.Unmarshal(data, &val); err != nil {
		return fmt.Errorf("invalid ID format: expected string or number, got %s", string(data))
	}

	if val < 0 {
		return fmt.Errorf("invalid ID: must be non-negative, got %d", val)
	}
	*id = ID(val)
	return nil
}

// IsZero 检查ID是否为零值
func (id ID) IsZero() bool {
	return id == 0
}

// IsValid 检查ID是否有效（正整数）
func (id ID) IsValid() bool {
	return id > 0
}

// IsSafeForJavaScript 检查ID是否在JavaScript安全整数范围内
// 说明：默认布局下生成的ID很快会超出 2^53-1，前端必须按字符串处理
func (id ID) IsSafeForJavaScript() bool {
	return int64(id) >= 0 && int64(id) <= maxSafeInteger
}
