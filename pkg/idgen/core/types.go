package core

// GeneratorType 生成器类型枚举
type GeneratorType string

const (
	// GeneratorTypeSnowflake Snowflake算法生成器
	GeneratorTypeSnowflake GeneratorType = "snowflake"
)

// String 实现Stringer接口
func (t GeneratorType) String() string {
	return string(t)
}

// IsValid 验证生成器类型是否有效
func (t GeneratorType) IsValid() bool {
	switch t {
	case GeneratorTypeSnowflake:
		return true
	default:
		return false
	}
}
