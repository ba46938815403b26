package queue

import (
	"github.com/xaionaro-go/mediagraph/frame"
)

type Config struct {
	Pool *frame.Pool
}

func defaultConfig() Config {
	return Config{
		Pool: frame.DefaultPool,
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

type OptionPool struct {
	*frame.Pool
}

func (o OptionPool) apply(cfg *Config) {
	cfg.Pool = o.Pool
}
