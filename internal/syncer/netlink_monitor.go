package syncer

import (
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"fixmybarangay/internal/logging"
)

// netlinkMonitor listens for udev netlink events on the net subsystem so the
// agent notices interface changes without waiting for the next probe tick.
// When the netlink socket is unavailable (permissions, non-Linux kernels) the
// sync manager falls back to timer-and-probe only.
type netlinkMonitor struct {
	logger   *slog.Logger
	linkUp   func()
	linkDown func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newNetlinkMonitor(logger *slog.Logger, linkUp, linkDown func()) *netlinkMonitor {
	return &netlinkMonitor{
		logger:   logging.NewComponentLogger(logger, "netlink-monitor"),
		linkUp:   linkUp,
		linkDown: linkDown,
	}
}

// Start begins listening for interface uevents. It returns false when the
// netlink socket cannot be subscribed; that is non-fatal and the caller
// degrades to polling.
func (m *netlinkMonitor) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return true
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; relying on periodic probes only",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
		)
		return false
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(quit)

	m.logger.Info("netlink monitor started",
		logging.String(logging.FieldEventType, "netlink_monitor_started"),
	)
	return true
}

// Stop shuts down the netlink monitor.
func (m *netlinkMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

func (m *netlinkMonitor) monitorLoop(quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := m.buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
			)
		}
	}
}

// buildMatcher creates a matcher for network interface events:
// SUBSYSTEM=net, ACTION=add|remove|change|move.
func (m *netlinkMonitor) buildMatcher() netlink.Matcher {
	action := "add|remove|change|move"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	return rules
}

func (m *netlinkMonitor) handleEvent(uevent netlink.UEvent) {
	iface := uevent.Env["INTERFACE"]
	if iface == "lo" {
		return
	}

	m.logger.Debug("interface event",
		logging.String("interface", iface),
		logging.String("action", string(uevent.Action)),
	)

	// Interface removal is the only signal trustworthy enough to act on
	// directly; everything else just prompts a reachability check.
	if string(uevent.Action) == "remove" {
		if m.linkDown != nil {
			m.linkDown()
		}
		return
	}
	if m.linkUp != nil {
		m.linkUp()
	}
}
