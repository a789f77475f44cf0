package pool

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// SaturationPolicy decides what Submit does when the queue is full and the
// pool already runs its maximum number of workers.
type SaturationPolicy int

const (
	// CallerRuns executes the task synchronously on the submitting goroutine.
	CallerRuns SaturationPolicy = iota
	// Reject fails the submission with ErrPoolSaturated.
	Reject
	// Block waits until the queue has room, the pool closes, or ctx is done.
	Block
)

func (p SaturationPolicy) String() string {
	switch p {
	case CallerRuns:
		return "caller-runs"
	case Reject:
		return "reject"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("SaturationPolicy(%d)", int(p))
	}
}

// ParseSaturationPolicy parses "caller-runs", "reject" or "block".
func ParseSaturationPolicy(s string) (SaturationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "caller-runs", "caller_runs", "callerruns":
		return CallerRuns, nil
	case "reject", "abort":
		return Reject, nil
	case "block":
		return Block, nil
	default:
		return CallerRuns, fmt.Errorf("%w: unknown saturation policy %q", ErrInvalidConfig, s)
	}
}

// Defaults mirror a pool sized for request fan-out inside a service.
const (
	DefaultCoreWorkers     = 16
	DefaultMaxWorkers      = 100
	DefaultQueueCapacity   = 5000
	DefaultKeepAlive       = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Minute
	DefaultName            = "fanout"
)

// Option is a functional option for configuring an Executor.
type Option func(*executorConfig)

type executorConfig struct {
	name            string
	coreWorkers     int
	maxWorkers      int
	queueCapacity   int
	keepAlive       time.Duration
	policy          SaturationPolicy
	shutdownTimeout time.Duration
	rateLimiter     *rate.Limiter
	pinWorkers      bool
	logger          *log.Logger
}

func defaultConfig() *executorConfig {
	return &executorConfig{
		name:            DefaultName,
		coreWorkers:     DefaultCoreWorkers,
		maxWorkers:      DefaultMaxWorkers,
		queueCapacity:   DefaultQueueCapacity,
		keepAlive:       DefaultKeepAlive,
		policy:          CallerRuns,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          log.New(io.Discard, "", 0),
	}
}

func (c *executorConfig) validate() error {
	switch {
	case c.coreWorkers < 0:
		return fmt.Errorf("%w: core workers must be >= 0, got %d", ErrInvalidConfig, c.coreWorkers)
	case c.maxWorkers < 1:
		return fmt.Errorf("%w: max workers must be >= 1, got %d", ErrInvalidConfig, c.maxWorkers)
	case c.coreWorkers > c.maxWorkers:
		return fmt.Errorf("%w: core workers (%d) exceed max workers (%d)", ErrInvalidConfig, c.coreWorkers, c.maxWorkers)
	case c.queueCapacity < 1:
		return fmt.Errorf("%w: queue capacity must be >= 1, got %d", ErrInvalidConfig, c.queueCapacity)
	case c.policy < CallerRuns || c.policy > Block:
		return fmt.Errorf("%w: unknown saturation policy %d", ErrInvalidConfig, int(c.policy))
	}
	return nil
}

// WithName sets the name used as log prefix.
func WithName(name string) Option {
	return func(cfg *executorConfig) {
		if name != "" {
			cfg.name = name
		}
	}
}

// WithCoreWorkers sets the number of workers kept alive while idle.
func WithCoreWorkers(n int) Option {
	return func(cfg *executorConfig) {
		cfg.coreWorkers = n
	}
}

// WithMaxWorkers sets the ceiling on live workers under load.
func WithMaxWorkers(n int) Option {
	return func(cfg *executorConfig) {
		cfg.maxWorkers = n
	}
}

// WithQueueCapacity sets the pending-work buffer size.
// The buffer is rounded up to a power of two and fixed at construction.
func WithQueueCapacity(n int) Option {
	return func(cfg *executorConfig) {
		cfg.queueCapacity = n
	}
}

// WithKeepAlive sets how long a worker above the core count may sit idle
// before it exits. Zero keeps every worker forever.
func WithKeepAlive(d time.Duration) Option {
	return func(cfg *executorConfig) {
		if d >= 0 {
			cfg.keepAlive = d
		}
	}
}

// WithSaturationPolicy sets the behavior when the pool cannot admit work.
func WithSaturationPolicy(p SaturationPolicy) Option {
	return func(cfg *executorConfig) {
		cfg.policy = p
	}
}

// WithShutdownTimeout bounds how long Shutdown waits for queued and running
// work before forcing termination. Zero waits forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(cfg *executorConfig) {
		if d >= 0 {
			cfg.shutdownTimeout = d
		}
	}
}

// WithRateLimit caps how fast workers start tasks.
// tasksPerSecond is the sustained rate, burst the bucket size.
//
// Example:
//
//	WithRateLimit(10, 5) // Allow 10 tasks/sec with burst of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *executorConfig) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithCPUAffinity pins each worker goroutine to an OS thread bound to one
// core (Linux only; elsewhere only the thread lock applies).
func WithCPUAffinity() Option {
	return func(cfg *executorConfig) {
		cfg.pinWorkers = true
	}
}

// WithLogger sets the logger for lifecycle events. Defaults to discarding.
func WithLogger(l *log.Logger) Option {
	return func(cfg *executorConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}
