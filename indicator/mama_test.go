package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowOldestFirst(t *testing.T) {
	w := newWindow(3)
	for _, v := range []float64{1, 2, 3, 4} {
		w.push(v)
	}
	require.True(t, w.isFull())
	require.Equal(t, []float64{2, 3, 4}, w.oldestFirst())

	w.reset()
	require.False(t, w.isFull())
}

func TestMAMA(t *testing.T) {
	t.Run("warmup", func(t *testing.T) {
		m := NewMAMADefault[int64](10)
		for i := range int64(9) {
			require.Equal(t, i*7, m.Update(i*7))
			require.False(t, m.Valid())
		}
		m.Update(0)
		require.True(t, m.Valid())
		m.Reset()
		require.False(t, m.Valid())
	})

	t.Run("flat", func(t *testing.T) {
		m := NewMAMADefault[int64](50)
		for range 100 {
			require.Equal(t, int64(100), m.Update(100))
		}
	})

	t.Run("ramp", func(t *testing.T) {
		m := NewMAMA[int64](50, 0.3, 0.05)
		for i := int64(0); i <= 100; i++ {
			v := m.Update(i)
			require.True(t, i/2 <= v && v <= i, "%d: %d", i, v)
		}
	})

	t.Run("alternating", func(t *testing.T) {
		m := NewMAMA[int64](50, 0.3, 0.05)
		for i := range 100 {
			lo := m.Update(0)
			hi := m.Update(100)
			if i > 50 {
				require.True(t, 40 <= lo && lo <= 60, "%d: %d", i, lo)
				require.True(t, 40 <= hi && hi <= 60, "%d: %d", i, hi)
			}
		}
	})
}
