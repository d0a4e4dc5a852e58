// Package cli 命令行入口：serve、migrate、seed
package cli

import (
	"fmt"
	"os"

	"labelhub/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options 全局命令行参数
type options struct {
	configFile string
	v          *viper.Viper
}

// RootCommand 创建根命令，未指定子命令时启动服务
func RootCommand() *cobra.Command {
	opts := &options{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "labelhub",
		Short:         "Image labeling submission service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to config file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Int("port", 8000, "HTTP listen port")

	// 命令行参数优先于配置文件和环境变量
	_ = opts.v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = opts.v.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))

	serveCmd := serveCommand(opts)
	rootCmd.AddCommand(serveCmd, migrateCommand(opts), seedCommand(opts))
	rootCmd.RunE = serveCmd.RunE

	return rootCmd
}

// Execute 执行根命令
func Execute() {
	if err := RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// load 加载配置并创建日志
func (o *options) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadWithViper(o.v, o.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, newLogger(&cfg.Log), nil
}

// newLogger 初始化日志
func newLogger(cfg *config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.Warnf("无效的日志级别 %q，使用 info", cfg.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
