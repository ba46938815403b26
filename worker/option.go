package worker

import (
	"time"
)

const DefaultIdleQuantum = 10 * time.Millisecond

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type Config struct {
	// IdleQuantum is the longest the worker sleeps without rechecking
	// its schedule.
	IdleQuantum time.Duration
	Clock       Clock
}

func defaultConfig() Config {
	return Config{
		IdleQuantum: DefaultIdleQuantum,
		Clock:       realClock{},
	}
}

type Option interface {
	apply(*Config)
}

type Options []Option

func (opts Options) apply(cfg *Config) {
	for _, opt := range opts {
		opt.apply(cfg)
	}
}

func (opts Options) config() Config {
	cfg := defaultConfig()
	opts.apply(&cfg)
	return cfg
}

type OptionIdleQuantum time.Duration

func (opt OptionIdleQuantum) apply(cfg *Config) {
	cfg.IdleQuantum = time.Duration(opt)
}

type OptionClock struct {
	Clock
}

func (opt OptionClock) apply(cfg *Config) {
	cfg.Clock = opt.Clock
}
