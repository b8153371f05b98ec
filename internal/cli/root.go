// Package cli idgen 命令行：serve / next / parse / layout
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"katydid-common-idgen/internal/config"
	"katydid-common-idgen/internal/logger"
	"katydid-common-idgen/pkg/idgen/core"
	"katydid-common-idgen/pkg/idgen/registry"
	"katydid-common-idgen/pkg/validator"
)

// app 命令共享的状态，在 PersistentPreRunE 中初始化
type app struct {
	configPath string
	envFile    string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand 创建根命令
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "idgen",
		Short:         "Snowflake ID generator",
		Long:          "idgen generates and decodes 64-bit time-ordered Snowflake IDs, standalone or as an HTTP service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("IDGEN_CONFIG"), "config file (yaml|json|toml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCommand(a),
		newNextCommand(a),
		newParseCommand(a),
		newLayoutCommand(a),
	)
	return root
}

// init 加载 .env、配置并创建日志
func (a *app) init() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := validator.Check(&cfg.Log, validator.SceneAll); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// newGenerator 按配置在新的注册表中创建默认生成器
func (a *app) newGenerator() (*registry.Registry, core.IGenerator, error) {
	if err := a.cfg.Validate(config.SceneGenerate); err != nil {
		return nil, nil, err
	}

	sc, err := a.cfg.Generator.SnowflakeConfig()
	if err != nil {
		return nil, nil, err
	}
	sc.Logger = a.log.Named("idgen.snowflake")

	r := registry.NewRegistry(a.log.Named("idgen.registry"))
	gen, err := r.Create(registry.DefaultGeneratorKey, core.GeneratorTypeSnowflake, sc)
	if err != nil {
		return nil, nil, err
	}
	return r, gen, nil
}

// Execute 运行命令行，出错时返回进程退出码
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
