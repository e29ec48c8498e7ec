// Package connectivity supplies the "is the network reachable" signal the
// request pipeline consults before dispatching and while draining the offline
// queue. The platform network API of the mobile original becomes a background
// prober here.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Checker reports the last known connectivity state. Implementations must be
// safe for concurrent use.
type Checker interface {
	Online() bool
}

// Static is a fixed, manually switched connectivity state. Used in tests and
// as a fallback when no probe URL is configured.
type Static struct {
	online atomic.Bool
}

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Online() bool          { return s.online.Load() }
func (s *Static) SetOnline(online bool) { s.online.Store(online) }

const (
	defaultProbeInterval = 5 * time.Second
	probeTimeout         = 3 * time.Second
)

// Monitor periodically probes a URL and caches the result. Any HTTP response,
// including an error status, counts as online; only transport failures count
// as offline.
type Monitor struct {
	probeURL string
	interval time.Duration
	client   *http.Client
	clock    clockwork.Clock

	online atomic.Bool
}

func NewMonitor(probeURL string, clock clockwork.Clock) *Monitor {
	m := &Monitor{
		probeURL: probeURL,
		interval: defaultProbeInterval,
		client:   &http.Client{Timeout: probeTimeout},
		clock:    clock,
	}
	m.online.Store(true)
	return m
}

func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Run probes once immediately, then on every tick until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	m.refresh(ctx)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			m.refresh(ctx)
		}
	}
}

func (m *Monitor) refresh(ctx context.Context) {
	was := m.online.Load()
	now := m.probe(ctx)
	m.online.Store(now)

	if was != now {
		slog.Info("Connectivity changed", "online", now)
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
