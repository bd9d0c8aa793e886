// Package sync keeps the remote row store in step with local state: cached
// reads, queued writes and the connectivity monitor that replays them.
package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/winterbreak/internal/remote"
)

// State is the monitor's view of connectivity.
type State int

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
	StateLocalOnly
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	case StateLocalOnly:
		return "local-only"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the monitor.
type Status struct {
	State      State
	LastProbe  time.Time
	LastOnline time.Time
	Error      error
	Pending    int
}

// ConnectivityMsg is a tea.Msg sent after every probe.
type ConnectivityMsg struct {
	State       State
	Reconnected bool
	Flush       FlushResult
	Pushed      int
	AuthError   bool
	Err         error
}

// ReconnectFunc runs after the queue is flushed on reconnect. It returns
// how many local-only records it pushed.
type ReconnectFunc func(ctx context.Context) int

// probeTimeout is the maximum time allowed for a probe and the replay that
// may follow it.
const probeTimeout = 60 * time.Second

// Monitor probes the remote on an interval. Only a transition to online
// (or the first successful probe) flushes the offline queue; the interval
// detects connectivity and never retries entries by itself.
type Monitor struct {
	syncer      *Syncer
	onReconnect ReconnectFunc
	interval    time.Duration
	log         *slog.Logger

	status    Status
	resultCh  chan ConnectivityMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	probeMu   gosync.Mutex
	running   bool
}

// NewMonitor creates a monitor. onReconnect may be nil.
func NewMonitor(s *Syncer, interval time.Duration, onReconnect ReconnectFunc, log *slog.Logger) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Monitor{
		syncer:      s,
		onReconnect: onReconnect,
		interval:    interval,
		log:         log,
		resultCh:    make(chan ConnectivityMsg, 16),
		triggerCh:   make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
	}
	if !s.Online() {
		m.status.State = StateLocalOnly
	}
	s.OnQueued(m.MarkOffline)
	return m
}

// Start returns a tea.Cmd that starts the probe goroutine and waits for
// its first result. It returns nil when no remote is configured.
func (m *Monitor) Start() tea.Cmd {
	m.mu.Lock()
	if m.running || !m.syncer.Online() {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.mu.Unlock()

	go m.loop()

	return m.waitForResult()
}

// Stop halts the probe goroutine.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	close(m.stopCh)
	m.running = false
}

// Refresh triggers an immediate probe.
func (m *Monitor) Refresh() tea.Cmd {
	select {
	case m.triggerCh <- struct{}{}:
	default:
		// A probe is already pending.
	}
	return nil
}

// Status returns the current connectivity snapshot.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	st := m.status
	m.mu.Unlock()

	st.Pending = m.syncer.Queue().Len()
	return st
}

// MarkOffline records an observed network failure so the next successful
// probe counts as a reconnect.
func (m *Monitor) MarkOffline(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status.State == StateOnline {
		m.status.State = StateOffline
		m.status.Error = err
	}
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probeAndSend()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.probeAndSend()
		case <-m.triggerCh:
			m.probeAndSend()
		}
	}
}

func (m *Monitor) probeAndSend() {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	m.sendResult(m.Probe(ctx))
}

// Probe pings the remote once, updates the state, and on a transition to
// online flushes the queue and runs the reconnect hook.
func (m *Monitor) Probe(ctx context.Context) ConnectivityMsg {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	if !m.syncer.Online() {
		return ConnectivityMsg{State: StateLocalOnly}
	}

	err := m.syncer.Remote().Ping(ctx)

	m.mu.Lock()
	prev := m.status.State
	m.status.LastProbe = time.Now()
	m.status.Error = err
	if err != nil {
		m.status.State = StateOffline
	} else {
		m.status.State = StateOnline
		m.status.LastOnline = m.status.LastProbe
	}
	m.mu.Unlock()

	if err != nil {
		if prev != StateOffline {
			m.log.Warn("remote unreachable", "err", err)
		}
		return ConnectivityMsg{State: StateOffline, Err: err, AuthError: remote.IsAuthError(err)}
	}

	msg := ConnectivityMsg{State: StateOnline}
	if prev == StateOnline {
		return msg
	}

	m.log.Info("remote reachable", "previous", prev.String())
	msg.Reconnected = prev == StateOffline
	msg.Flush = m.syncer.Flush(ctx)
	if m.onReconnect != nil {
		msg.Pushed = m.onReconnect(ctx)
	}
	return msg
}

// sendResult sends a ConnectivityMsg on the result channel without blocking.
func (m *Monitor) sendResult(msg ConnectivityMsg) {
	select {
	case m.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the monitor
	}
}

// waitForResult returns a tea.Cmd that waits for the next probe result.
func (m *Monitor) waitForResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-m.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next probe result.
// This should be called after processing a ConnectivityMsg to continue
// listening.
func (m *Monitor) WaitForNextResult() tea.Cmd {
	return m.waitForResult()
}
