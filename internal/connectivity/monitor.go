package connectivity

import (
	"context"
	"log"
	"sync"
	"time"
)

// Pinger is anything that can answer a cheap reachability probe. The
// Gateway satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks the online/offline signal and notifies subscribers on
// every transition. The signal is best effort: a false "online" reading
// that later fails a request is the caller's problem, not the monitor's.
//
// A manual SetOnline overrides the probe loop until ResumeProbe, so a
// forced-offline toggle is not undone by the next probe tick.
type Monitor struct {
	mu         sync.Mutex
	online     bool
	overridden bool
	subs       []func(online bool)
}

func NewMonitor(initiallyOnline bool) *Monitor {
	return &Monitor{online: initiallyOnline}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnTransition registers a callback fired whenever the signal flips.
// Callbacks run synchronously inside SetOnline, in registration order.
func (m *Monitor) OnTransition(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// SetOnline forces the signal and fires callbacks if it changed. Probe
// results are ignored until ResumeProbe.
func (m *Monitor) SetOnline(online bool) {
	m.set(online, true)
}

// ResumeProbe lifts a manual override and hands the signal back to the
// probe loop.
func (m *Monitor) ResumeProbe() {
	m.mu.Lock()
	m.overridden = false
	m.mu.Unlock()
}

// Overridden reports whether a manual SetOnline is pinning the signal.
func (m *Monitor) Overridden() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overridden
}

func (m *Monitor) applyProbe(online bool) {
	m.set(online, false)
}

func (m *Monitor) set(online, manual bool) {
	m.mu.Lock()
	if manual {
		m.overridden = true
	} else if m.overridden {
		m.mu.Unlock()
		return
	}
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	if online {
		log.Println("Connectivity restored")
	} else {
		log.Println("Connectivity lost")
	}
	for _, fn := range subs {
		fn(online)
	}
}

// Watch probes the pinger on the given interval until ctx is done,
// feeding each result into the signal unless a manual override is
// active. Intended to run in its own goroutine.
func (m *Monitor) Watch(ctx context.Context, pinger Pinger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := pinger.Ping(probeCtx)
			cancel()
			m.applyProbe(err == nil)
		}
	}
}
