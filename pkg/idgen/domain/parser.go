package domain

import (
	"fmt"
	"time"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/registry"
)

// defaultGeneratorType 解析和验证时默认使用的生成器类型
const defaultGeneratorType = core.GeneratorTypeSnowflake

// 说明：以下方法使用注册表中的默认解析器（默认布局、默认Epoch），
// 自定义布局的ID请使用对应生成器的 ParseID

// Parse 解析ID，提取元信息
func (id ID) Parse() (*core.IDInfo, error) {
	return id.ParseWithType(defaultGeneratorType)
}

// ParseWithType 使用指定生成器类型解析ID
func (id ID) ParseWithType(generatorType core.GeneratorType) (*core.IDInfo, error) {
	if !id.IsValid() {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidSnowflakeID, id)
	}

	parser, err := parserFor(generatorType)
	if err != nil {
		return nil, err
	}
	return parser.Parse(int64(id))
}

// Validate 验证ID的有效性
func (id ID) Validate() error {
	validator, err := registry.GetValidatorRegistry().Get(defaultGeneratorType)
	if err != nil {
		return fmt.Errorf("failed to get validator: %w", err)
	}
	return validator.Validate(int64(id))
}

// ExtractTime 提取生成时间，无效ID返回零值
func (id ID) ExtractTime() time.Time {
	if !id.IsValid() {
		return time.Time{}
	}
	parser, err := parserFor(defaultGeneratorType)
	if err != nil {
		return time.Time{}
	}

	timestamp := parser.ExtractTimestamp(int64(id))
	if timestamp <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(timestamp)
}

// ExtractDatacenterID 提取数据中心ID，无效ID返回-1
func (id ID) ExtractDatacenterID() int64 {
	return id.extract(core.IIDParser.ExtractDatacenterID)
}

// ExtractWorkerID 提取工作机器ID，无效ID返回-1
func (id ID) ExtractWorkerID() int64 {
	return id.extract(core.IIDParser.ExtractWorkerID)
}

// ExtractSequence 提取序列号，无效ID返回-1
func (id ID) ExtractSequence() int64 {
	return id.extract(core.IIDParser.ExtractSequence)
}

func (id ID) extract(field func(core.IIDParser, int64) int64) int64 {
	if !id.IsValid() {
		return -1
	}
	parser, err := parserFor(defaultGeneratorType)
	if err != nil {
		return -1
	}
	return field(parser, int64(id))
}

func parserFor(generatorType core.GeneratorType) (core.IIDParser, error) {
	if !generatorType.IsValid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}
	parser, err := registry.GetParserRegistry().Get(generatorType)
	if err != nil {
		return nil, fmt.Errorf("failed to get parser: %w", err)
	}
	return parser, nil
}
