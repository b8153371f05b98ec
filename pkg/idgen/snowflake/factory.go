package snowflake

import (
	"fmt"

	"katydid-common-idgen/pkg/idgen/core"
)

var _ core.IGeneratorFactory = (*Factory)(nil)

// Factory Snowflake生成器工厂
type Factory struct{}

// NewFactory 创建Snowflake工厂实例
func NewFactory() *Factory {
	return &Factory{}
}

// Create 创建Snowflake生成器实例，接受 *Config 或 Config
func (f *Factory) Create(config any) (core.IGenerator, error) {
	var cfg *Config
	switch c := config.(type) {
	case *Config:
		cfg = c
	case Config:
		cfg = &c
	default:
		return nil, fmt.Errorf("invalid config type: expected *snowflake.Config, got %T", config)
	}

	// 避免把 nil *Generator 装进非nil接口
	gen, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return gen, nil
}
