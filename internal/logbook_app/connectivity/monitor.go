// Package connectivity tracks whether the sync endpoint is reachable
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fahrtenbuch-logbook/internal/config"
)

// Prober checks reachability once
type Prober interface {
	Probe(ctx context.Context) error
}

// ProbeFunc adapts a function to Prober
type ProbeFunc func(ctx context.Context) error

func (f ProbeFunc) Probe(ctx context.Context) error { return f(ctx) }

// HTTPProber sends a HEAD request. Any response counts as reachable, whatever its status.
type HTTPProber struct {
	client *http.Client
	url    string
}

// NewHTTPProber probes url with client; a nil client gets a plain http.Client, so the
// probe is bounded only by the caller's context
func NewHTTPProber(client *http.Client, url string) *HTTPProber {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProber{client: client, url: url}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Monitor holds the online flag and notifies listeners when connectivity comes back
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	online atomic.Bool

	mu        sync.Mutex
	listeners []func(ctx context.Context)
}

// NewMonitor creates a monitor that starts offline until the first probe succeeds
func NewMonitor(logger *slog.Logger, cfg *config.ConnectivityConfig, prober Prober) *Monitor {
	return &Monitor{
		prober:   prober,
		interval: cfg.ProbeInterval,
		timeout:  cfg.ProbeTimeout,
		logger:   logger,
	}
}

// IsOnline reports the last known connectivity state
func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// OnRegained registers fn to run on every offline to online transition
func (m *Monitor) OnRegained(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// SetOnline overrides the state. Listeners run synchronously when the state flips to online.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	previous := m.online.Swap(online)
	if previous == online {
		return
	}

	if !online {
		m.logger.Info("Connectivity lost")
		return
	}

	m.logger.Info("Connectivity regained")
	m.mu.Lock()
	listeners := make([]func(ctx context.Context), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx)
	}
}

// Check probes once and updates the state
func (m *Monitor) Check(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.prober.Probe(probeCtx)
	cancel()

	if err != nil {
		m.logger.Debug("Connectivity probe failed", "error", err)
	}
	m.SetOnline(ctx, err == nil)
	return err == nil
}

// Start probes immediately and then every interval until ctx is canceled
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("Starting connectivity monitor", "probe_interval", m.interval.String())
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Connectivity monitor stopping due to context cancellation.")
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
