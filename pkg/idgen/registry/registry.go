package registry

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	"katydid-common-idgen/pkg/idgen/core"
)

const (
	// defaultMaxGenerators 默认最大生成器数量
	defaultMaxGenerators = 100

	// absoluteMaxGenerators 绝对最大生成器数量，SetMaxGenerators 也不能超过
	absoluteMaxGenerators = 100_000

	// maxKeyLength 键的最大长度
	maxKeyLength = 256
)

// keyFormatRegex 键的合法字符：字母、数字、下划线、连字符、点
var keyFormatRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// identity 生成器身份
type identity struct {
	datacenterID int64
	workerID     int64
}

func identityOf(g core.IGenerator) identity {
	return identity{datacenterID: g.GetDatacenterID(), workerID: g.GetWorkerID()}
}

// Registry 生成器注册表
// 说明：
//   - 键 → 生成器，读写锁保护
//   - 同一个 (数据中心ID, 工作机器ID) 在一个注册表中只能被一个生成器持有，
//     两个生成器共用身份会在同一毫秒产出相同的ID
type Registry struct {
	generators    map[string]core.IGenerator // 生成器映射表
	identities    map[identity]string        // 身份 → 持有该身份的键
	maxGenerators int                        // 最大生成器数量限制
	logger        *zap.Logger
	mu            sync.RWMutex
}

var (
	// globalRegistry 全局生成器注册表实例（单例）
	globalRegistry *Registry
	registryOnce   sync.Once
)

// NewRegistry 创建独立的注册表，logger 为 nil 时不输出日志
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		generators:    make(map[string]core.IGenerator),
		identities:    make(map[identity]string),
		maxGenerators: defaultMaxGenerators,
		logger:        logger,
	}
}

// GetRegistry 获取全局生成器注册表，日志使用 zap 全局 logger
func GetRegistry() *Registry {
	registryOnce.Do(func() {
		globalRegistry = NewRegistry(zap.L().Named("idgen.registry"))
	})
	return globalRegistry
}

// Create 创建并注册一个新的生成器
func (r *Registry) Create(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !generatorType.IsValid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[key]; exists {
		return nil, fmt.Errorf("%w: key '%s'", core.ErrGeneratorAlreadyExists, key)
	}

	return r.createLocked(key, generatorType, config)
}

// GetOrCreate 获取生成器，如果不存在则创建
func (r *Registry) GetOrCreate(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !generatorType.IsValid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidGeneratorType, generatorType)
	}

	// 快速路径：读锁命中
	r.mu.RLock()
	generator, exists := r.generators[key]
	r.mu.RUnlock()
	if exists {
		return generator, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 双重检查
	if generator, exists := r.generators[key]; exists {
		return generator, nil
	}

	return r.createLocked(key, generatorType, config)
}

// Register 注册一个已构造好的生成器
func (r *Registry) Register(key string, generator core.IGenerator) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if generator == nil {
		return fmt.Errorf("generator cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.generators[key]; exists {
		return fmt.Errorf("%w: key '%s'", core.ErrGeneratorAlreadyExists, key)
	}
	return r.putLocked(key, generator)
}

func (r *Registry) createLocked(key string, generatorType core.GeneratorType, config any) (core.IGenerator, error) {
	if len(r.generators) >= r.maxGenerators {
		return nil, fmt.Errorf("%w: current %d, max %d",
			core.ErrMaxGeneratorsReached, len(r.generators), r.maxGenerators)
	}

	factory, err := GetFactoryRegistry().Get(generatorType)
	if err != nil {
		return nil, err
	}

	generator, err := factory.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	if err := r.putLocked(key, generator); err != nil {
		return nil, err
	}

	r.logger.Info("生成器创建成功",
		zap.String("key", key),
		zap.String("type", generatorType.String()),
		zap.Int64("datacenter_id", generator.GetDatacenterID()),
		zap.Int64("worker_id", generator.GetWorkerID()),
	)

	return generator, nil
}

func (r *Registry) putLocked(key string, generator core.IGenerator) error {
	if len(r.generators) >= r.maxGenerators {
		return fmt.Errorf("%w: current %d, max %d",
			core.ErrMaxGeneratorsReached, len(r.generators), r.maxGenerators)
	}

	id := identityOf(generator)
	if holder, taken := r.identities[id]; taken {
		return fmt.Errorf("%w: datacenter %d worker %d is held by key '%s'",
			core.ErrIdentityInUse, id.datacenterID, id.workerID, holder)
	}

	r.generators[key] = generator
	r.identities[id] = key
	return nil
}

// Get 获取已注册的生成器
func (r *Registry) Get(key string) (core.IGenerator, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	generator, exists := r.generators[key]
	if !exists {
		return nil, fmt.Errorf("%w: key '%s'", core.ErrGeneratorNotFound, key)
	}

	return generator, nil
}

// Has 检查生成器是否存在
func (r *Registry) Has(key string) bool {
	if err := validateKey(key); err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.generators[key]
	return exists
}

// Remove 移除生成器，同时释放其身份
func (r *Registry) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	generator, exists := r.generators[key]
	if !exists {
		return fmt.Errorf("%w: key '%s'", core.ErrGeneratorNotFound, key)
	}

	delete(r.generators, key)
	delete(r.identities, identityOf(generator))

	r.logger.Info("生成器已移除", zap.String("key", key))

	return nil
}

// Clear 清空所有生成器
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generators = make(map[string]core.IGenerator)
	r.identities = make(map[identity]string)

	r.logger.Info("注册表已清空")
}

// Count 获取生成器数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.generators)
}

// ListKeys 列出所有生成器的键（升序）
func (r *Registry) ListKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.generators))
	for key := range r.generators {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot 返回键 → 生成器的副本，供监控采集等只读场景使用
func (r *Registry) Snapshot() map[string]core.IGenerator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]core.IGenerator, len(r.generators))
	for key, generator := range r.generators {
		out[key] = generator
	}
	return out
}

// SetMaxGenerators 设置最大生成器数量
func (r *Registry) SetMaxGenerators(max int) error {
	if max <= 0 {
		return fmt.Errorf("max generators must be positive, got %d", max)
	}
	if max > absoluteMaxGenerators {
		return fmt.Errorf("max generators cannot exceed absolute limit %d, got %d",
			absoluteMaxGenerators, max)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.generators) > max {
		return fmt.Errorf("current generator count %d exceeds new max %d",
			len(r.generators), max)
	}

	r.maxGenerators = max

	r.logger.Info("注册表容量已调整",
		zap.Int("new_max", max),
		zap.Int("current_count", len(r.generators)),
	)

	return nil
}

// GetMaxGenerators 获取最大生成器数量
func (r *Registry) GetMaxGenerators() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.maxGenerators
}

// validateKey 验证键的有效性
func validateKey(key string) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: key cannot be empty", core.ErrInvalidKey)
	}

	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key too long (max %d), got %d",
			core.ErrInvalidKey, maxKeyLength, len(key))
	}

	if !keyFormatRegex.MatchString(key) {
		return fmt.Errorf("%w: key '%s' contains invalid characters",
			core.ErrInvalidKeyFormat, key)
	}

	return nil
}
