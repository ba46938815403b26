// Package indicator smooths noisy measurements, such as the interval
// between consecutive frames arriving at a sink.
package indicator

import (
	"golang.org/x/exp/constraints"
)

type Number interface {
	constraints.Integer | constraints.Float
}

type Smoother[T Number] interface {
	// Update accounts the measurement and returns the smoothed value.
	Update(v T) T
	Valid() bool
	Reset()
}

// window is a fixed-size ring of the latest measurements.
type window struct {
	values  []float64
	ordered []float64
	next    int
	count   int
}

func newWindow(size int) window {
	if size < 1 {
		size = 1
	}
	return window{
		values:  make([]float64, size),
		ordered: make([]float64, size),
	}
}

func (w *window) push(v float64) {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	w.count++
}

func (w *window) isFull() bool {
	return w.count >= len(w.values)
}

// oldestFirst returns the measurements starting from the oldest one. The
// returned slice is reused by the next call.
func (w *window) oldestFirst() []float64 {
	n := copy(w.ordered, w.values[w.next:])
	copy(w.ordered[n:], w.values[:w.next])
	return w.ordered
}

func (w *window) reset() {
	clear(w.values)
	w.next = 0
	w.count = 0
}
