package registry_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/registry"
	"katydid-common-idgen/pkg/idgen/snowflake"
)

func cfg(dc, worker int64) *snowflake.Config {
	return &snowflake.Config{DatacenterID: dc, WorkerID: worker}
}

// ============================================================================
// 1. Registry基础功能测试
// ============================================================================

// TestRegistry_Create 测试创建生成器
func TestRegistry_Create(t *testing.T) {
	r := registry.NewRegistry(nil)

	t.Run("正常创建", func(t *testing.T) {
		gen, err := r.Create("test1", core.GeneratorTypeSnowflake, cfg(1, 1))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if gen.GetDatacenterID() != 1 || gen.GetWorkerID() != 1 {
			t.Errorf("身份 = (%d, %d)", gen.GetDatacenterID(), gen.GetWorkerID())
		}
	})

	tests := []struct {
		name    string
		key     string
		typ     core.GeneratorType
		config  any
		wantErr error
	}{
		{"重复键", "test1", core.GeneratorTypeSnowflake, cfg(2, 2), core.ErrGeneratorAlreadyExists},
		{"无效类型", "test2", core.GeneratorType("invalid"), cfg(2, 2), core.ErrInvalidGeneratorType},
		{"空键", "", core.GeneratorTypeSnowflake, cfg(2, 2), core.ErrInvalidKey},
		{"键过长", strings.Repeat("a", 257), core.GeneratorTypeSnowflake, cfg(2, 2), core.ErrInvalidKey},
		{"非法字符", "a/b", core.GeneratorTypeSnowflake, cfg(2, 2), core.ErrInvalidKeyFormat},
		{"非法配置", "test3", core.GeneratorTypeSnowflake, cfg(99, 0), core.ErrInvalidDatacenterID},
		{"身份已被占用", "test4", core.GeneratorTypeSnowflake, cfg(1, 1), core.ErrIdentityInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := r.Create(tt.key, tt.typ, tt.config)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if gen != nil {
				t.Error("失败时不应返回生成器")
			}
		})
	}

	if r.Count() != 1 {
		t.Errorf("失败的创建不应留下记录，Count() = %d", r.Count())
	}
}

// TestRegistry_IdentityGuard 同一身份只能被一个键持有
func TestRegistry_IdentityGuard(t *testing.T) {
	r := registry.NewRegistry(nil)

	if _, err := r.Create("a", core.GeneratorTypeSnowflake, cfg(3, 7)); err != nil {
		t.Fatal(err)
	}

	t.Run("同身份不同键被拒绝", func(t *testing.T) {
		_, err := r.GetOrCreate("b", core.GeneratorTypeSnowflake, cfg(3, 7))
		if !errors.Is(err, core.ErrIdentityInUse) {
			t.Errorf("期望 ErrIdentityInUse，得到 %v", err)
		}
	})

	t.Run("Register同样受约束", func(t *testing.T) {
		gen, _ := snowflake.New(3, 7)
		if err := r.Register("c", gen); !errors.Is(err, core.ErrIdentityInUse) {
			t.Errorf("期望 ErrIdentityInUse，得到 %v", err)
		}
	})

	t.Run("不同身份允许", func(t *testing.T) {
		if _, err := r.Create("d", core.GeneratorTypeSnowflake, cfg(3, 8)); err != nil {
			t.Errorf("不期望错误: %v", err)
		}
	})

	t.Run("移除后身份释放", func(t *testing.T) {
		if err := r.Remove("a"); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Create("b", core.GeneratorTypeSnowflake, cfg(3, 7)); err != nil {
			t.Errorf("身份释放后应可重新注册: %v", err)
		}
	})

	t.Run("清空后身份释放", func(t *testing.T) {
		r.Clear()
		if _, err := r.Create("a", core.GeneratorTypeSnowflake, cfg(3, 7)); err != nil {
			t.Errorf("清空后应可重新注册: %v", err)
		}
	})
}

// TestRegistry_Get 测试获取生成器
func TestRegistry_Get(t *testing.T) {
	r := registry.NewRegistry(nil)
	created, err := r.Create("test1", core.GeneratorTypeSnowflake, cfg(1, 1))
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	t.Run("获取存在的生成器", func(t *testing.T) {
		gen, err := r.Get("test1")
		if err != nil || gen != created {
			t.Errorf("Get() = %v, %v", gen, err)
		}
	})

	t.Run("获取不存在的生成器", func(t *testing.T) {
		if _, err := r.Get("nonexistent"); !errors.Is(err, core.ErrGeneratorNotFound) {
			t.Errorf("期望 ErrGeneratorNotFound，得到 %v", err)
		}
	})

	t.Run("空键", func(t *testing.T) {
		if _, err := r.Get(""); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("期望 ErrInvalidKey，得到 %v", err)
		}
	})
}

// TestRegistry_GetOrCreate 测试获取或创建生成器
func TestRegistry_GetOrCreate(t *testing.T) {
	r := registry.NewRegistry(nil)

	first, err := r.GetOrCreate("test1", core.GeneratorTypeSnowflake, cfg(1, 1))
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	// 已存在时忽略配置，返回同一实例
	second, err := r.GetOrCreate("test1", core.GeneratorTypeSnowflake, cfg(2, 2))
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if first != second {
		t.Error("GetOrCreate() 应返回已存在的实例")
	}
}

// TestRegistry_Register 测试注册外部构造的生成器
func TestRegistry_Register(t *testing.T) {
	r := registry.NewRegistry(nil)
	gen, _ := snowflake.New(4, 4)

	if err := r.Register("ext", gen); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("ext", gen); !errors.Is(err, core.ErrGeneratorAlreadyExists) {
		t.Errorf("期望 ErrGeneratorAlreadyExists，得到 %v", err)
	}
	if err := r.Register("nil", nil); err == nil {
		t.Error("nil生成器应返回错误")
	}
}

// TestRegistry_Has 测试检查生成器是否存在
func TestRegistry_Has(t *testing.T) {
	r := registry.NewRegistry(nil)
	_, _ = r.Create("test1", core.GeneratorTypeSnowflake, cfg(1, 1))

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"存在的键", "test1", true},
		{"不存在的键", "nonexistent", false},
		{"空键", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Has(tt.key); got != tt.want {
				t.Errorf("Has(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// TestRegistry_Remove 测试删除生成器
func TestRegistry_Remove(t *testing.T) {
	r := registry.NewRegistry(nil)
	_, _ = r.Create("test1", core.GeneratorTypeSnowflake, cfg(1, 1))

	if err := r.Remove("test1"); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if r.Has("test1") {
		t.Error("Generator still exists after Remove()")
	}
	if err := r.Remove("test1"); !errors.Is(err, core.ErrGeneratorNotFound) {
		t.Errorf("期望 ErrGeneratorNotFound，得到 %v", err)
	}
}

// TestRegistry_ListKeysAndSnapshot 测试列出键和快照
func TestRegistry_ListKeysAndSnapshot(t *testing.T) {
	r := registry.NewRegistry(nil)
	for i, key := range []string{"c", "a", "b"} {
		if _, err := r.Create(key, core.GeneratorTypeSnowflake, cfg(0, int64(i))); err != nil {
			t.Fatal(err)
		}
	}

	if got := strings.Join(r.ListKeys(), ","); got != "a,b,c" {
		t.Errorf("ListKeys() = %s", got)
	}

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot() 长度 = %d", len(snap))
	}
	// 修改快照不影响注册表
	delete(snap, "a")
	if !r.Has("a") || r.Count() != 3 {
		t.Error("快照应为副本")
	}
}

// TestRegistry_MaxGenerators 测试最大生成器限制
func TestRegistry_MaxGenerators(t *testing.T) {
	r := registry.NewRegistry(nil)

	if got := r.GetMaxGenerators(); got != 100 {
		t.Errorf("默认上限 = %d, want 100", got)
	}

	tests := []struct {
		name    string
		max     int
		wantErr bool
	}{
		{"设置最大值", 2, false},
		{"零", 0, true},
		{"负数", -1, true},
		{"超出绝对限制", 200_000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.SetMaxGenerators(tt.max); (err != nil) != tt.wantErr {
				t.Errorf("SetMaxGenerators(%d) error = %v, wantErr %v", tt.max, err, tt.wantErr)
			}
		})
	}

	t.Run("达到上限", func(t *testing.T) {
		_, _ = r.Create("g0", core.GeneratorTypeSnowflake, cfg(0, 0))
		_, _ = r.Create("g1", core.GeneratorTypeSnowflake, cfg(0, 1))
		_, err := r.Create("g2", core.GeneratorTypeSnowflake, cfg(0, 2))
		if !errors.Is(err, core.ErrMaxGeneratorsReached) {
			t.Errorf("期望 ErrMaxGeneratorsReached，得到 %v", err)
		}
		if err := r.SetMaxGenerators(1); err == nil {
			t.Error("新上限小于当前数量应返回错误")
		}
	})
}

// TestFactoryRegistry 内置类型在包加载时注册
func TestFactoryRegistry(t *testing.T) {
	if !registry.GetFactoryRegistry().Has(core.GeneratorTypeSnowflake) {
		t.Error("snowflake 工厂未注册")
	}
	if types := registry.GetFactoryRegistry().List(); len(types) != 1 || types[0] != core.GeneratorTypeSnowflake {
		t.Errorf("List() = %v", types)
	}
	if _, err := registry.GetFactoryRegistry().Get("unknown"); !errors.Is(err, core.ErrFactoryNotFound) {
		t.Errorf("期望 ErrFactoryNotFound，得到 %v", err)
	}
	if err := registry.GetFactoryRegistry().Register("unknown", snowflake.NewFactory()); !errors.Is(err, core.ErrInvalidGeneratorType) {
		t.Errorf("期望 ErrInvalidGeneratorType，得到 %v", err)
	}

	parser, err := registry.GetDefaultParser()
	if err != nil || parser == nil {
		t.Errorf("GetDefaultParser() = %v, %v", parser, err)
	}
	validator, err := registry.GetDefaultValidator()
	if err != nil || validator == nil {
		t.Errorf("GetDefaultValidator() = %v, %v", validator, err)
	}
}

// TestGetOrCreateDefaultGenerator 默认生成器是全局单例
func TestGetOrCreateDefaultGenerator(t *testing.T) {
	defer func() { _ = registry.GetRegistry().Remove(registry.DefaultGeneratorKey) }()

	a, err := registry.GetOrCreateDefaultGenerator()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := registry.GetOrCreateDefaultGenerator()
	if a != b {
		t.Error("默认生成器应为同一实例")
	}
	if registry.GetRegistry() != registry.GetRegistry() {
		t.Error("GetRegistry() 应返回单例")
	}
}

// ============================================================================
// 2. 并发测试
// ============================================================================

// TestRegistry_ConcurrentGetOrCreate 并发 GetOrCreate 同一个键只创建一次
func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	r := registry.NewRegistry(nil)

	const goroutines = 64
	var wg sync.WaitGroup
	var failures atomic.Int64
	results := make([]core.IGenerator, goroutines)

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			gen, err := r.GetOrCreate("shared", core.GeneratorTypeSnowflake, cfg(1, 1))
			if err != nil {
				failures.Add(1)
				return
			}
			results[i] = gen
		}(i)
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d 次 GetOrCreate 失败", failures.Load())
	}
	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatal("并发 GetOrCreate 返回了不同实例")
		}
	}
}

// TestRegistry_ConcurrentGeneration 多生成器并发生成，所有ID全局唯一
func TestRegistry_ConcurrentGeneration(t *testing.T) {
	r := registry.NewRegistry(nil)

	const generators = 8
	const perGoroutine = 2000

	for i := 0; i < generators; i++ {
		if _, err := r.Create(fmt.Sprintf("gen_%d", i), core.GeneratorTypeSnowflake, cfg(0, int64(i))); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	seen := make(map[int64]struct{}, generators*perGoroutine*2)
	var wg sync.WaitGroup

	for _, key := range r.ListKeys() {
		gen, _ := r.Get(key)
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(gen core.IGenerator) {
				defer wg.Done()
				local := make([]int64, 0, perGoroutine)
				for j := 0; j < perGoroutine; j++ {
					id, err := gen.NextID()
					if err != nil {
						t.Errorf("NextID() error = %v", err)
						return
					}
					local = append(local, id)
				}
				mu.Lock()
				for _, id := range local {
					seen[id] = struct{}{}
				}
				mu.Unlock()
			}(gen)
		}
	}
	wg.Wait()

	if want := generators * 2 * perGoroutine; len(seen) != want {
		t.Errorf("唯一ID数量 = %d, want %d", len(seen), want)
	}
}

// BenchmarkRegistry_Get 基准测试：Get操作
func BenchmarkRegistry_Get(b *testing.B) {
	r := registry.NewRegistry(nil)
	_, _ = r.Create("bench", core.GeneratorTypeSnowflake, cfg(1, 1))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = r.Get("bench")
		}
	})
}

// BenchmarkRegistry_IDGeneration 基准测试：通过注册表生成ID
func BenchmarkRegistry_IDGeneration(b *testing.B) {
	r := registry.NewRegistry(nil)
	gen, _ := r.Create("bench", core.GeneratorTypeSnowflake, cfg(1, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = gen.NextID()
	}
}
