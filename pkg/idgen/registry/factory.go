package registry

import (
	"fmt"
	"sort"
	"sync"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/snowflake"
)

// init 注册内置的工厂、解析器和验证器
func init() {
	_ = GetFactoryRegistry().Register(core.GeneratorTypeSnowflake, snowflake.NewFactory())
	_ = GetParserRegistry().Register(core.GeneratorTypeSnowflake, snowflake.NewDefaultParser())
	_ = GetValidatorRegistry().Register(core.GeneratorTypeSnowflake, snowflake.NewDefaultValidator())
}

// FactoryRegistry 工厂注册表
type FactoryRegistry struct {
	factories map[core.GeneratorType]core.IGeneratorFactory
	mu        sync.RWMutex
}

var (
	globalFactoryRegistry *FactoryRegistry
	factoryRegistryOnce   sync.Once
)

// GetFactoryRegistry 获取全局工厂注册表
func GetFactoryRegistry() *FactoryRegistry {
	factoryRegistryOnce.Do(func() {
		globalFactoryRegistry = &FactoryRegistry{
			factories: make(map[core.GeneratorType]core.IGeneratorFactory),
		}
	})
	return globalFactoryRegistry
}

// Register 注册工厂（允许覆盖已有工厂）
func (r *FactoryRegistry) Register(generatorType core.GeneratorType, factory core.IGeneratorFactory) error {
	if !generatorType.IsValid() {
		return fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[generatorType] = factory
	return nil
}

// Get 获取工厂
func (r *FactoryRegistry) Get(generatorType core.GeneratorType) (core.IGeneratorFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[generatorType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrFactoryNotFound, generatorType)
	}
	return factory, nil
}

// Has 检查工厂是否存在
func (r *FactoryRegistry) Has(generatorType core.GeneratorType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[generatorType]
	return exists
}

// List 列出所有已注册的工厂类型
func (r *FactoryRegistry) List() []core.GeneratorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]core.GeneratorType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
