package motion

import (
	"fmt"
)

// MAF is a moving average filter, for smoothing out motion percentages when
// polling a sensor in a loop.
type MAF struct {
	index  int
	sum    float64
	values []float64
}

// NewMAF returns a new moving average filter with a history of given size.
// Values are initialized to all zeroes.
func NewMAF(size int) (*MAF, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be > 0")
	}
	return &MAF{values: make([]float64, size)}, nil
}

// Update adds one value to the history and returns the average over the
// history.
func (m *MAF) Update(v float64) (float64, error) {
	if len(m.values) == 0 {
		return 0, fmt.Errorf("invalid MAF, use NewMAF")
	}
	m.sum -= m.values[m.index]
	m.sum += v
	m.values[m.index] = v
	m.index++
	if m.index >= len(m.values) {
		m.index = 0
	}
	return m.sum / float64(len(m.values)), nil
}
