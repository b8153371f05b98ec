package registry

import (
	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/snowflake"
)

// DefaultGeneratorKey 默认生成器的键
const DefaultGeneratorKey = "default"

// GetOrCreateDefaultGenerator 获取或创建全局注册表中的默认生成器
// 说明：默认生成器使用身份 (0, 0)、默认布局和默认Epoch；
// 多实例部署应在启动时用 Register 或 Create 注册自己的身份
func GetOrCreateDefaultGenerator() (core.IGenerator, error) {
	return GetRegistry().GetOrCreate(DefaultGeneratorKey, core.GeneratorTypeSnowflake, &snowflake.Config{
		EnableMetrics: true,
	})
}

// GetDefaultParser 获取默认的Snowflake解析器
func GetDefaultParser() (core.IIDParser, error) {
	return GetParserRegistry().Get(core.GeneratorTypeSnowflake)
}

// GetDefaultValidator 获取默认的Snowflake验证器
func GetDefaultValidator() (core.IIDValidator, error) {
	return GetValidatorRegistry().Get(core.GeneratorTypeSnowflake)
}
