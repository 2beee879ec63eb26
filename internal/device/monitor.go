package device

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// Monitor continuously polls for device changes
type Monitor struct {
	manager  *Manager
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
	previous map[string]Device
}

// NewMonitor creates a new device monitor
func NewMonitor(manager *Manager, interval time.Duration) *Monitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &Monitor{
		manager:  manager,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		previous: make(map[string]Device),
	}
}

// Start begins monitoring. Devices present at the first tick are reported
// as added.
func (m *Monitor) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.checkChanges()
			}
		}
	}()
}

// Stop stops the monitor and waits for the polling goroutine
func (m *Monitor) Stop() {
	m.cancel()
	if m.started.Load() {
		<-m.done
	}
}

func (m *Monitor) checkChanges() {
	current := make(map[string]Device)
	for _, d := range m.manager.Detect() {
		current[d.ID] = *d
	}

	added, removed := m.manager.callbacks()

	for id, d := range current {
		if _, exists := m.previous[id]; !exists {
			logger.Info("device added", zap.String("kind", d.Kind), zap.String("path", d.Path))
			if added != nil {
				added(d)
			}
		}
	}

	for id, d := range m.previous {
		if _, exists := current[id]; !exists {
			logger.Info("device removed", zap.String("kind", d.Kind), zap.String("path", d.Path))
			if removed != nil {
				removed(d)
			}
		}
	}

	m.previous = current
}
