package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"fixmybarangay/internal/config"
	"fixmybarangay/internal/events"
	"fixmybarangay/internal/localstore"
	"fixmybarangay/internal/logging"
	"fixmybarangay/internal/queue"
	"fixmybarangay/internal/report"
)

// ErrNotRunning is returned by ForceSync when the manager has been stopped.
var ErrNotRunning = errors.New("sync manager is not running")

// ErrOffline is returned by ForceSync when the backend is unreachable.
var ErrOffline = errors.New("backend is not reachable")

// Backend is the remote surface the sync manager needs: the reachability
// probe plus the report listing that feeds the offline cache.
type Backend interface {
	Prober
	FetchReports(ctx context.Context, category, status string, limit int) ([]report.Report, error)
}

// Manager schedules queue drain cycles: periodic timer, reconnect events,
// explicit ForceSync, and (when the netlink socket is available) passive
// interface events.
type Manager struct {
	cfg     *config.Config
	queue   *queue.Manager
	backend Backend
	store   *localstore.Store
	bus     *events.Bus
	logger  *slog.Logger

	interval     time.Duration
	cycleTimeout time.Duration
	settleDelay  time.Duration

	netmon  *networkMonitor
	netlink *netlinkMonitor

	mu          sync.Mutex
	running     bool
	bgSupported bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	wake        chan struct{}
	inflight    chan struct{}
	lastErr     error
	lastSyncAt  time.Time
	notBefore   time.Time
	retryWait   *backoff.ExponentialBackOff
}

// NewManager constructs a sync manager.
func NewManager(cfg *config.Config, queueMgr *queue.Manager, backend Backend, store *localstore.Store, bus *events.Bus, logger *slog.Logger) *Manager {
	componentLogger := logging.NewComponentLogger(logger, "syncer")

	retryWait := backoff.NewExponentialBackOff()
	retryWait.InitialInterval = time.Duration(cfg.Sync.SettleDelay) * time.Second
	if retryWait.InitialInterval <= 0 {
		retryWait.InitialInterval = time.Second
	}
	retryWait.MaxInterval = time.Duration(cfg.Sync.MaxCycleBackoff) * time.Second
	retryWait.MaxElapsedTime = 0 // never give up; the queue is durable

	m := &Manager{
		cfg:          cfg,
		queue:        queueMgr,
		backend:      backend,
		store:        store,
		bus:          bus,
		logger:       componentLogger,
		interval:     time.Duration(cfg.Sync.Interval) * time.Second,
		cycleTimeout: time.Duration(cfg.Sync.CycleTimeout) * time.Second,
		settleDelay:  time.Duration(cfg.Sync.SettleDelay) * time.Second,
		wake:         make(chan struct{}, 1),
		retryWait:    retryWait,
	}
	m.netmon = newNetworkMonitor(backend, bus, logger, time.Duration(cfg.Sync.ProbeInterval)*time.Second, m.onReconnect)
	m.netlink = newNetlinkMonitor(logger, m.netmon.LinkUp, m.netmon.LinkDown)
	return m
}

// Start transitions the manager from stopped to idle: the network monitor
// and periodic timer begin, and a sync fires immediately when online.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("sync manager already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	m.netmon.Start(runCtx)

	bgSupported := m.netlink.Start()
	m.mu.Lock()
	m.bgSupported = bgSupported
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop(runCtx)

	if loaded, err := m.store.LastSyncAt(runCtx); err == nil && !loaded.IsZero() {
		m.mu.Lock()
		m.lastSyncAt = loaded
		m.mu.Unlock()
	}

	m.logger.Info("sync manager started",
		logging.String(logging.FieldEventType, "sync_manager_started"),
		logging.Duration("interval", m.interval),
		logging.Bool("background_sync", bgSupported),
	)
	m.publishStatus()
	return nil
}

// Stop cancels timers and monitors. An in-flight cycle finishes on its own;
// no new cycles are scheduled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	m.netlink.Stop()
	m.netmon.Stop()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()

	m.logger.Info("sync manager stopped",
		logging.String(logging.FieldEventType, "sync_manager_stopped"),
	)
	m.publishStatus()
}

// Status returns a snapshot of the manager's state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Enabled:                 m.running,
		Syncing:                 m.inflight != nil,
		Network:                 m.netmon.Status(),
		LastSyncAt:              m.lastSyncAt,
		BackgroundSyncSupported: m.bgSupported,
	}
}

// ForceSync runs a drain cycle now, joining the in-flight cycle if one is
// already running. Unlike scheduled syncs it ignores the failure backoff, but
// it still requires the backend to be reachable.
func (m *Manager) ForceSync(ctx context.Context) error {
	m.mu.Lock()
	running := m.running
	m.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	if m.netmon.Status() != NetworkOnline {
		// One direct probe before giving up; the periodic check may be stale.
		if err := m.backend.Probe(ctx); err != nil {
			return errors.Join(ErrOffline, err)
		}
		m.netmon.Poke()
	}
	return m.runCycle(ctx)
}

// onReconnect is invoked by the network monitor when status flips to online.
// The settle delay absorbs flapping connections before a sync is triggered.
func (m *Manager) onReconnect() {
	time.AfterFunc(m.settleDelay, func() {
		select {
		case m.wake <- struct{}{}:
		default:
		}
	})
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()

	// Initial drain as soon as the first probe confirms reachability; the
	// monitor's onOnline callback covers it via the wake channel, so the loop
	// itself only owns the periodic tick.
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.trySync(ctx)
		case <-m.wake:
			m.trySync(ctx)
		}
	}
}

// trySync runs a scheduled cycle unless the network is down or a previous
// failure's backoff window is still open.
func (m *Manager) trySync(ctx context.Context) {
	if m.netmon.Status() != NetworkOnline {
		return
	}

	m.mu.Lock()
	wait := time.Until(m.notBefore)
	m.mu.Unlock()
	if wait > 0 {
		m.logger.Debug("sync deferred by backoff", logging.Duration("wait", wait))
		return
	}

	if err := m.runCycle(ctx); err != nil && ctx.Err() == nil {
		m.logger.Warn("sync cycle failed", logging.Error(err))
	}
}

// runCycle executes one bounded drain cycle. Overlapping callers join the
// same cycle and observe its outcome.
func (m *Manager) runCycle(ctx context.Context) error {
	m.mu.Lock()
	if m.inflight != nil {
		done := m.inflight
		m.mu.Unlock()
		select {
		case <-done:
			m.mu.Lock()
			err := m.lastErr
			m.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	m.inflight = done
	m.mu.Unlock()

	m.publishStatus()
	err := m.syncOnce(ctx)

	m.mu.Lock()
	m.lastErr = err
	if err != nil {
		m.notBefore = time.Now().Add(m.retryWait.NextBackOff())
	} else {
		m.retryWait.Reset()
		m.notBefore = time.Time{}
	}
	m.inflight = nil
	close(done)
	m.mu.Unlock()

	m.publishStatus()
	return err
}

func (m *Manager) syncOnce(ctx context.Context) error {
	start := time.Now()
	m.bus.Publish(events.SyncStarted, start)

	cycleCtx, cancel := context.WithTimeout(ctx, m.cycleTimeout)
	defer cancel()

	result, err := m.queue.Process(cycleCtx)
	duration := time.Since(start)
	if err != nil {
		m.bus.Publish(events.SyncFailed, events.SyncResult{
			Submitted: result.Submitted,
			Failed:    result.Failed,
			Dropped:   result.Dropped,
			Duration:  duration,
			Err:       err,
		})
		return err
	}

	m.refreshCache(cycleCtx)

	now := time.Now().UTC()
	m.mu.Lock()
	m.lastSyncAt = now
	m.mu.Unlock()
	if err := m.store.SetLastSyncAt(ctx, now); err != nil {
		m.logger.Warn("record last sync time", logging.Error(err))
	}

	m.logger.Info("sync cycle completed",
		logging.String(logging.FieldEventType, "sync_completed"),
		logging.Int("submitted", result.Submitted),
		logging.Int("failed", result.Failed),
		logging.Int("dropped", result.Dropped),
		logging.Duration("duration", duration),
	)
	m.bus.Publish(events.SyncCompleted, events.SyncResult{
		Submitted: result.Submitted,
		Failed:    result.Failed,
		Dropped:   result.Dropped,
		Duration:  duration,
	})
	return nil
}

// refreshCache replaces the offline report cache after a successful drain.
// Cache staleness is tolerable, so failures only log.
func (m *Manager) refreshCache(ctx context.Context) {
	reports, err := m.backend.FetchReports(ctx, "", "", m.cfg.Sync.CacheRefreshLimit)
	if err != nil {
		m.logger.Warn("refresh report cache", logging.Error(err))
		return
	}
	if err := m.store.ReplaceCachedReports(ctx, reports); err != nil {
		m.logger.Warn("store report cache", logging.Error(err))
	}
}

func (m *Manager) publishStatus() {
	m.bus.Publish(events.StatusUpdated, m.Status())
}
