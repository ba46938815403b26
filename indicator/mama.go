package indicator

import (
	"sync"

	indicators "github.com/lmpizarro/go_ehlers_indicators"
)

const (
	DefaultMAMAFastLimit = 0.5
	DefaultMAMASlowLimit = 0.05
)

// MAMA is the MESA adaptive moving average over a sliding window.
//
// Until the window is filled the measurements are returned as is.
type MAMA[T Number] struct {
	FastLimit float64
	SlowLimit float64

	locker sync.Mutex
	window window
}

var _ Smoother[int64] = (*MAMA[int64])(nil)

func NewMAMA[T Number](
	windowSize int,
	fastLimit float64,
	slowLimit float64,
) *MAMA[T] {
	return &MAMA[T]{
		FastLimit: fastLimit,
		SlowLimit: slowLimit,
		window:    newWindow(windowSize),
	}
}

func NewMAMADefault[T Number](windowSize int) *MAMA[T] {
	return NewMAMA[T](windowSize, DefaultMAMAFastLimit, DefaultMAMASlowLimit)
}

func (m *MAMA[T]) Update(v T) T {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.window.push(float64(v))
	if !m.window.isFull() {
		return v
	}
	result := indicators.MAMA(m.window.oldestFirst(), m.FastLimit, m.SlowLimit)
	return T(result[len(result)-1])
}

func (m *MAMA[T]) Valid() bool {
	m.locker.Lock()
	defer m.locker.Unlock()
	return m.window.isFull()
}

func (m *MAMA[T]) Reset() {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.window.reset()
}
