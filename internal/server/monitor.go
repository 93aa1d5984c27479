package server

import "sync"

// Monitor adapts the WebSocket hub into a sample sink. It keeps every
// decim-th sample and broadcasts batches of points; with decim equal to
// the samples-per-symbol factor and an offset of the filter group delay
// modulo that factor, the scatter settles onto the constellation grid.
type Monitor struct {
	hub   *WSHub
	decim int
	batch int

	mu    sync.Mutex
	phase int
	total int
	i, q  []float64
}

// NewMonitor creates a monitor over hub keeping every decim-th sample and
// broadcasting batches of the given size.
func NewMonitor(hub *WSHub, decim, batch int) *Monitor {
	if decim < 1 {
		decim = 1
	}
	if batch < 1 {
		batch = 256
	}
	return &Monitor{hub: hub, decim: decim, batch: batch}
}

// Offset aligns the kept samples to stream indices congruent to n modulo
// the decimation factor. Feeding it the shaping filter's group delay puts
// the scatter on the symbol instants. Call before the first Write.
func (m *Monitor) Offset(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = (m.decim - n%m.decim) % m.decim
}

// Write implements the sink contract.
func (m *Monitor) Write(samples []complex128) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total += len(samples)
	for _, v := range samples {
		if m.phase == 0 {
			m.i = append(m.i, real(v))
			m.q = append(m.q, imag(v))
			if len(m.i) >= m.batch {
				m.flushLocked()
			}
		}
		m.phase++
		if m.phase == m.decim {
			m.phase = 0
		}
	}
	return nil
}

// Close broadcasts any buffered tail and a final status message.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocked()
	m.hub.BroadcastStatus("done", m.total, 0)
	return nil
}

// Total returns the number of samples observed.
func (m *Monitor) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *Monitor) flushLocked() {
	if len(m.i) == 0 {
		return
	}
	if m.hub.ClientCount() > 0 {
		m.hub.BroadcastIQ(m.i, m.q)
	}
	m.i = nil
	m.q = nil
}
