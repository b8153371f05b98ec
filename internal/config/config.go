// Package config 进程配置：viper 读取文件与 IDGEN_ 前缀的环境变量，pkg/validator 按场景校验
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"katydid-common-idgen/internal/logger"
	"katydid-common-idgen/pkg/idgen/snowflake"
	"katydid-common-idgen/pkg/validator"
)

// EnvPrefix 环境变量前缀，generator.worker_id 对应 IDGEN_GENERATOR_WORKER_ID
const EnvPrefix = "IDGEN"

// 验证场景
const (
	SceneGenerate validator.ValidateScene = 1 << 0 // 生成ID
	SceneServe    validator.ValidateScene = 1 << 1 // 提供HTTP服务
)

// Config 根配置
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator" json:"generator"`
	HTTP      HTTPConfig      `mapstructure:"http" json:"http"`
	Log       logger.Config   `mapstructure:"log" json:"log"`
}

// GeneratorConfig 生成器身份与位布局
type GeneratorConfig struct {
	DatacenterID   int64  `mapstructure:"datacenter_id" json:"datacenter_id"`
	WorkerID       int64  `mapstructure:"worker_id" json:"worker_id"`
	DatacenterBits uint8  `mapstructure:"datacenter_bits" json:"datacenter_bits"`
	WorkerBits     uint8  `mapstructure:"worker_bits" json:"worker_bits"`
	SequenceBits   uint8  `mapstructure:"sequence_bits" json:"sequence_bits"`
	Epoch          string `mapstructure:"epoch" json:"epoch"` // RFC3339 或 Unix 毫秒，空为默认纪元
	EnableMetrics  bool   `mapstructure:"enable_metrics" json:"enable_metrics"`
}

// HTTPConfig HTTP 服务
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" json:"addr"`
	JWTSecret       string        `mapstructure:"jwt_secret" json:"-"` // 为空时不鉴权
	CORSOrigins     []string      `mapstructure:"cors_origins" json:"cors_origins"`
	RateLimit       int           `mapstructure:"rate_limit" json:"rate_limit"` // 每个IP在窗口内的请求数，0 不限流
	RateWindow      time.Duration `mapstructure:"rate_window" json:"rate_window"`
	MaxBatch        int           `mapstructure:"max_batch" json:"max_batch"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// defaults 所有键都需要默认值，环境变量才能在 Unmarshal 时生效
var defaults = map[string]any{
	"generator.datacenter_id":   0,
	"generator.worker_id":       0,
	"generator.datacenter_bits": snowflake.DefaultLayout.DatacenterBits,
	"generator.worker_bits":     snowflake.DefaultLayout.WorkerBits,
	"generator.sequence_bits":   snowflake.DefaultLayout.SequenceBits,
	"generator.epoch":           "",
	"generator.enable_metrics":  true,

	"http.addr":             ":8080",
	"http.jwt_secret":       "",
	"http.cors_origins":     []string{},
	"http.rate_limit":       0,
	"http.rate_window":      time.Minute,
	"http.max_batch":        1000,
	"http.read_timeout":     5 * time.Second,
	"http.write_timeout":    10 * time.Second,
	"http.shutdown_timeout": 5 * time.Second,

	"log.level":        "info",
	"log.format":       "json",
	"log.file":         "",
	"log.max_size_mb":  100,
	"log.max_backups":  7,
	"log.max_age_days": 30,
	"log.compress":     false,
}

// Load 加载配置，path 为空时只使用默认值和环境变量
// 文件格式由扩展名决定（yaml/json/toml）
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate 按场景校验，失败时返回 *validator.ValidationContext
func (c *Config) Validate(scene validator.ValidateScene) error {
	return validator.Check(c, scene)
}

// Layout 配置中的位布局
func (g *GeneratorConfig) Layout() snowflake.Layout {
	return snowflake.Layout{
		DatacenterBits: g.DatacenterBits,
		WorkerBits:     g.WorkerBits,
		SequenceBits:   g.SequenceBits,
	}
}

// EpochTime 解析纪元，空字符串为 snowflake.DefaultEpoch
func (g *GeneratorConfig) EpochTime() (time.Time, error) {
	s := strings.TrimSpace(g.Epoch)
	if s == "" {
		return snowflake.DefaultEpoch, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return time.Time{}, errors.New("epoch millis must not be negative")
		}
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("epoch %q is neither RFC3339 nor unix millis", s)
	}
	return t, nil
}

// SnowflakeConfig 转换为生成器配置，Clock 与 Logger 由调用方补充
func (g *GeneratorConfig) SnowflakeConfig() (*snowflake.Config, error) {
	epoch, err := g.EpochTime()
	if err != nil {
		return nil, err
	}
	return &snowflake.Config{
		DatacenterID:  g.DatacenterID,
		WorkerID:      g.WorkerID,
		Layout:        g.Layout(),
		Epoch:         epoch,
		EnableMetrics: g.EnableMetrics,
	}, nil
}

func (g *GeneratorConfig) RuleValidation() map[validator.ValidateScene]map[string]string {
	return map[validator.ValidateScene]map[string]string{
		SceneGenerate: {
			"datacenter_id": "gte=0",
			"worker_id":     "gte=0",
			"sequence_bits": "gte=1",
		},
	}
}

// CustomValidation 布局合法性、身份范围与纪元格式
func (g *GeneratorConfig) CustomValidation(scene validator.ValidateScene, report validator.FuncReportError) {
	if scene&SceneGenerate == 0 {
		return
	}

	layout := g.Layout()
	if err := layout.Validate(); err != nil {
		report("generator.layout", "layout", layout.String())
		return
	}
	if g.DatacenterID > layout.MaxDatacenterID() {
		report("generator.datacenter_id", "lte", strconv.FormatInt(layout.MaxDatacenterID(), 10))
	}
	if g.WorkerID > layout.MaxWorkerID() {
		report("generator.worker_id", "lte", strconv.FormatInt(layout.MaxWorkerID(), 10))
	}
	if _, err := g.EpochTime(); err != nil {
		report("generator.epoch", "epoch", g.Epoch)
	}
}

func (h *HTTPConfig) RuleValidation() map[validator.ValidateScene]map[string]string {
	return map[validator.ValidateScene]map[string]string{
		SceneServe: {
			"addr":         "required",
			"JWTSecret":    "omitempty,min=16",
			"cors_origins": "omitempty,dive,required",
			"rate_limit":   "gte=0",
			"max_batch":    "gte=1,lte=100000",
		},
	}
}

func (h *HTTPConfig) CustomValidation(scene validator.ValidateScene, report validator.FuncReportError) {
	if scene&SceneServe != 0 && h.RateLimit > 0 && h.RateWindow <= 0 {
		report("http.rate_window", "gt", "0")
	}
}
