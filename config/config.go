// Package config loads pool and batch tuning from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/utkarsh5026/fanout/fanout"
	"github.com/utkarsh5026/fanout/pool"
)

// DefaultShutdownDrainSeconds bounds the drain at teardown.
const DefaultShutdownDrainSeconds = 1800

// Config is the on-disk configuration.
type Config struct {
	Name  string      `yaml:"name"`
	Pool  PoolConfig  `yaml:"pool"`
	Batch BatchConfig `yaml:"batch"`
}

// PoolConfig tunes the shared worker pool.
type PoolConfig struct {
	CoreThreads          int             `yaml:"core_threads"`
	MaxThreads           int             `yaml:"max_threads"`
	QueueCapacity        int             `yaml:"queue_capacity"`
	KeepAlive            string          `yaml:"keep_alive"`
	SaturationPolicy     string          `yaml:"saturation_policy"`
	ShutdownDrainSeconds int             `yaml:"shutdown_drain_seconds"`
	RateLimit            RateLimitConfig `yaml:"rate_limit"`
	CPUAffinity          bool            `yaml:"cpu_affinity"`
}

// RateLimitConfig throttles task starts. Zero values disable it.
type RateLimitConfig struct {
	TasksPerSecond float64 `yaml:"tasks_per_second"`
	Burst          int     `yaml:"burst"`
}

// BatchConfig tunes the coordinator.
type BatchConfig struct {
	Timeout            string `yaml:"timeout"`
	RetryAttempts      int    `yaml:"retry_attempts"`
	RetryDelay         string `yaml:"retry_delay"`
	FailurePropagation bool   `yaml:"failure_propagation"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Name: pool.DefaultName,
		Pool: PoolConfig{
			CoreThreads:          pool.DefaultCoreWorkers,
			MaxThreads:           pool.DefaultMaxWorkers,
			QueueCapacity:        pool.DefaultQueueCapacity,
			KeepAlive:            pool.DefaultKeepAlive.String(),
			SaturationPolicy:     pool.CallerRuns.String(),
			ShutdownDrainSeconds: DefaultShutdownDrainSeconds,
		},
	}
}

// Load reads path over the defaults. A missing file yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and formats.
func (c *Config) Validate() error {
	p := c.Pool
	switch {
	case p.CoreThreads < 0:
		return fmt.Errorf("%w: pool.core_threads must be >= 0", pool.ErrInvalidConfig)
	case p.MaxThreads < 1:
		return fmt.Errorf("%w: pool.max_threads must be >= 1", pool.ErrInvalidConfig)
	case p.CoreThreads > p.MaxThreads:
		return fmt.Errorf("%w: pool.core_threads (%d) exceeds pool.max_threads (%d)",
			pool.ErrInvalidConfig, p.CoreThreads, p.MaxThreads)
	case p.QueueCapacity < 1:
		return fmt.Errorf("%w: pool.queue_capacity must be >= 1", pool.ErrInvalidConfig)
	case p.ShutdownDrainSeconds < 0:
		return fmt.Errorf("%w: pool.shutdown_drain_seconds must be >= 0", pool.ErrInvalidConfig)
	case p.RateLimit.TasksPerSecond < 0 || p.RateLimit.Burst < 0:
		return fmt.Errorf("%w: pool.rate_limit must not be negative", pool.ErrInvalidConfig)
	case c.Batch.RetryAttempts < 0:
		return fmt.Errorf("%w: batch.retry_attempts must be >= 0", pool.ErrInvalidConfig)
	}

	if _, err := pool.ParseSaturationPolicy(p.SaturationPolicy); err != nil {
		return err
	}
	for field, v := range map[string]string{
		"pool.keep_alive":   p.KeepAlive,
		"batch.timeout":     c.Batch.Timeout,
		"batch.retry_delay": c.Batch.RetryDelay,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("%w: %s: %w", pool.ErrInvalidConfig, field, err)
		}
	}
	return nil
}

// PoolOptions converts the pool section into executor options.
func (c *Config) PoolOptions() ([]pool.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	p := c.Pool
	policy, _ := pool.ParseSaturationPolicy(p.SaturationPolicy)
	keepAlive, _ := parseDuration(p.KeepAlive)

	opts := []pool.Option{
		pool.WithName(c.Name),
		pool.WithCoreWorkers(p.CoreThreads),
		pool.WithMaxWorkers(p.MaxThreads),
		pool.WithQueueCapacity(p.QueueCapacity),
		pool.WithKeepAlive(keepAlive),
		pool.WithSaturationPolicy(policy),
		pool.WithShutdownTimeout(time.Duration(p.ShutdownDrainSeconds) * time.Second),
	}
	if p.RateLimit.TasksPerSecond > 0 {
		opts = append(opts, pool.WithRateLimit(p.RateLimit.TasksPerSecond, max(p.RateLimit.Burst, 1)))
	}
	if p.CPUAffinity {
		opts = append(opts, pool.WithCPUAffinity())
	}
	return opts, nil
}

// CoordinatorOptions converts the batch section into coordinator options.
func (c *Config) CoordinatorOptions() ([]fanout.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	timeout, _ := parseDuration(c.Batch.Timeout)
	delay, _ := parseDuration(c.Batch.RetryDelay)

	opts := []fanout.Option{fanout.WithTimeout(timeout)}
	if c.Batch.RetryAttempts > 1 {
		opts = append(opts, fanout.WithRetry(c.Batch.RetryAttempts, delay))
	}
	if c.Batch.FailurePropagation {
		opts = append(opts, fanout.WithFailurePropagation())
	}
	return opts, nil
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
