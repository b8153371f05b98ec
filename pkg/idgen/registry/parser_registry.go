package registry

import (
	"fmt"
	"sync"

	"katydid-common-idgen/pkg/idgen/core"
)

// ParserRegistry 解析器注册表
// 说明：保存每种生成器类型的默认解析器（默认布局、默认Epoch）
type ParserRegistry struct {
	parsers map[core.GeneratorType]core.IIDParser
	mu      sync.RWMutex
}

// ValidatorRegistry 验证器注册表
type ValidatorRegistry struct {
	validators map[core.GeneratorType]core.IIDValidator
	mu         sync.RWMutex
}

var (
	globalParserRegistry *ParserRegistry
	parserRegistryOnce   sync.Once

	globalValidatorRegistry *ValidatorRegistry
	validatorRegistryOnce   sync.Once
)

// GetParserRegistry 获取全局解析器注册表
func GetParserRegistry() *ParserRegistry {
	parserRegistryOnce.Do(func() {
		globalParserRegistry = &ParserRegistry{
			parsers: make(map[core.GeneratorType]core.IIDParser),
		}
	})
	return globalParserRegistry
}

// Register 注册解析器（允许覆盖）
func (r *ParserRegistry) Register(generatorType core.GeneratorType, parser core.IIDParser) error {
	if !generatorType.IsValid() {
		return fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}
	if parser == nil {
		return fmt.Errorf("parser cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[generatorType] = parser
	return nil
}

// Get 获取解析器
func (r *ParserRegistry) Get(generatorType core.GeneratorType) (core.IIDParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	parser, exists := r.parsers[generatorType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrParserNotFound, generatorType)
	}
	return parser, nil
}

// Has 检查解析器是否存在
func (r *ParserRegistry) Has(generatorType core.GeneratorType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.parsers[generatorType]
	return exists
}

// GetValidatorRegistry 获取全局验证器注册表
func GetValidatorRegistry() *ValidatorRegistry {
	validatorRegistryOnce.Do(func() {
		globalValidatorRegistry = &ValidatorRegistry{
			validators: make(map[core.GeneratorType]core.IIDValidator),
		}
	})
	return globalValidatorRegistry
}

// Register 注册验证器（允许覆盖）
func (r *ValidatorRegistry) Register(generatorType core.GeneratorType, validator core.IIDValidator) error {
	if !generatorType.IsValid() {
		return fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}
	if validator == nil {
		return fmt.Errorf("validator cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.validators[generatorType] = validator
	return nil
}

// Get 获取验证器
func (r *ValidatorRegistry) Get(generatorType core.GeneratorType) (core.IIDValidator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	validator, exists := r.validators[generatorType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrValidatorNotFound, generatorType)
	}
	return validator, nil
}

// Has 检查验证器是否存在
func (r *ValidatorRegistry) Has(generatorType core.GeneratorType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.validators[generatorType]
	return exists
}
