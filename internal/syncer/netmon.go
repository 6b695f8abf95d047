package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fixmybarangay/internal/events"
	"fixmybarangay/internal/logging"
)

// Prober performs the lightweight reachability request against the backend.
type Prober interface {
	Probe(ctx context.Context) error
}

// networkMonitor tracks online/offline/checking status using passive link
// signals and a periodic active reachability probe. A passive "connected"
// signal alone is never trusted; only a successful probe flips the status to
// online.
type networkMonitor struct {
	prober        Prober
	logger        *slog.Logger
	bus           *events.Bus
	probeInterval time.Duration
	onOnline      func()

	mu      sync.Mutex
	status  NetworkStatus
	running bool
	poke    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newNetworkMonitor(prober Prober, bus *events.Bus, logger *slog.Logger, probeInterval time.Duration, onOnline func()) *networkMonitor {
	return &networkMonitor{
		prober:        prober,
		logger:        logging.NewComponentLogger(logger, "netmon"),
		bus:           bus,
		probeInterval: probeInterval,
		onOnline:      onOnline,
		status:        NetworkChecking,
		poke:          make(chan struct{}, 1),
	}
}

func (m *networkMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.ctx = runCtx
	m.cancel = cancel
	m.running = true

	m.wg.Add(1)
	go m.loop()
}

func (m *networkMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Status returns the current network status.
func (m *networkMonitor) Status() NetworkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// LinkDown handles a passive "disconnected" signal: offline immediately.
func (m *networkMonitor) LinkDown() {
	m.setStatus(NetworkOffline)
}

// LinkUp handles a passive "connected" signal: move to checking and probe;
// the probe result decides whether we are actually online.
func (m *networkMonitor) LinkUp() {
	m.setStatus(NetworkChecking)
	m.Poke()
}

// Poke requests an immediate probe outside the periodic schedule.
func (m *networkMonitor) Poke() {
	select {
	case m.poke <- struct{}{}:
	default:
	}
}

func (m *networkMonitor) loop() {
	defer m.wg.Done()

	m.probe()

	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.probe()
		case <-m.poke:
			m.probe()
		}
	}
}

func (m *networkMonitor) probe() {
	ctx := m.ctx
	if ctx == nil {
		return
	}

	if err := m.prober.Probe(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Debug("reachability probe failed", logging.Error(err))
		m.setStatus(NetworkOffline)
		return
	}
	m.setStatus(NetworkOnline)
}

func (m *networkMonitor) setStatus(next NetworkStatus) {
	m.mu.Lock()
	prev := m.status
	m.status = next
	m.mu.Unlock()

	if prev == next {
		return
	}

	m.logger.Info("network status changed",
		logging.String(logging.FieldEventType, "network_changed"),
		logging.String("from", string(prev)),
		logging.String(logging.FieldNetwork, string(next)),
	)
	m.bus.Publish(events.NetworkChange, next)

	if next == NetworkOnline && m.onOnline != nil {
		m.onOnline()
	}
}
