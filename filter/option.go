package filter

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/xaionaro-go/mediagraph/queue"
)

type Config struct {
	FrameTime       time.Duration
	Force           bool
	QueueCapacity   uint
	Clock           Clock
	PortIDGenerator func() PortID
}

func defaultConfig() Config {
	return Config{
		QueueCapacity: queue.DefaultCapacity,
		Clock:         RealClock{},
		PortIDGenerator: func() PortID {
			return PortID(rand.IntN(math.MaxInt32))
		},
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

// OptionFrameTime sets the target period between output frames; zero
// means the filter is push-driven and has no intrinsic rate.
type OptionFrameTime time.Duration

func (opt OptionFrameTime) apply(cfg *Config) {
	cfg.FrameTime = time.Duration(opt)
}

// OptionForce makes the filter run its transform even without new input,
// reusing the last frame of every reader. Output slots are always
// allocated, regardless of this option.
type OptionForce bool

func (opt OptionForce) apply(cfg *Config) {
	cfg.Force = bool(opt)
}

// OptionQueueCapacity is the capacity of the queues allocated for the
// filter's writers by default.
type OptionQueueCapacity uint

func (opt OptionQueueCapacity) apply(cfg *Config) {
	cfg.QueueCapacity = uint(opt)
}

type OptionClock struct {
	Clock
}

func (opt OptionClock) apply(cfg *Config) {
	cfg.Clock = opt.Clock
}

// OptionPortIDGenerator replaces the random source of multi-port ids.
type OptionPortIDGenerator func() PortID

func (opt OptionPortIDGenerator) apply(cfg *Config) {
	cfg.PortIDGenerator = opt
}
