package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xipc/pkg/config/xconf"
	"github.com/omeyang/xipc/pkg/observability/xlog"
)

// fileConfig 配置文件结构。命令行参数优先于配置文件。
//
//	log:
//	  level: info
//	  format: text
//	  file: /var/log/xnmutexctl.log
//	  max_size_mb: 100
//	  max_backups: 5
//	  max_age_days: 30
//	  compress: false
//	wait:
//	  retry_max: 0        # 0 表示一直等待
//	  initial_delay: 100ms
//	  max_delay: 2s
//	fallback_limit: 1024
type fileConfig struct {
	Log           logConfig  `koanf:"log"`
	Wait          waitConfig `koanf:"wait"`
	FallbackLimit int        `koanf:"fallback_limit"`
}

type logConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type waitConfig struct {
	RetryMax     int           `koanf:"retry_max"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
}

func defaultConfig() fileConfig {
	return fileConfig{
		Log: logConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Wait: waitConfig{
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		FallbackLimit: 1024,
	}
}

// Validate 由 xconf 在每次加载后调用。
func (c *fileConfig) Validate() error {
	var errs []error
	if _, err := xlog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", xlog.ErrUnknownFormat, c.Log.Format))
	}
	if c.Wait.RetryMax < 0 {
		errs = append(errs, fmt.Errorf("wait.retry_max must not be negative (got %d)", c.Wait.RetryMax))
	}
	if c.Wait.InitialDelay <= 0 || c.Wait.MaxDelay < c.Wait.InitialDelay {
		errs = append(errs, fmt.Errorf("wait delays must satisfy 0 < initial_delay <= max_delay (got %s, %s)",
			c.Wait.InitialDelay, c.Wait.MaxDelay))
	}
	if c.FallbackLimit < 1 {
		errs = append(errs, fmt.Errorf("fallback_limit must be positive (got %d)", c.FallbackLimit))
	}
	return errors.Join(errs...)
}

// loadConfig 读取 --config 指定的文件（未指定时使用默认值），再叠加命令行参数。
// 返回的 Loader 在未指定文件时为 nil。
func loadConfig(cmd *cli.Command) (*xconf.Loader[fileConfig], fileConfig, error) {
	var (
		loader *xconf.Loader[fileConfig]
		cfg    = defaultConfig()
	)
	if path := cmd.String("config"); path != "" {
		l, err := xconf.Load(path, defaultConfig())
		if err != nil {
			return nil, cfg, usagef("load config %s: %v", path, err)
		}
		loader, cfg = l, *l.Current()
	}

	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, cfg, usagef("invalid configuration: %v", err)
	}
	return loader, cfg, nil
}

func applyFlags(cmd *cli.Command, cfg *fileConfig) {
	if cmd.IsSet("log-level") {
		cfg.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		cfg.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		cfg.Log.File = cmd.String("log-file")
	}
}
