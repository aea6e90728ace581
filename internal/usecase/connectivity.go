package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ConnectivityState is the last known reachability of the remote store
type ConnectivityState string

const (
	StateUnknown ConnectivityState = "unknown"
	StateOnline  ConnectivityState = "online"
	StateOffline ConnectivityState = "offline"
)

// ConnectivityStatus is a snapshot of the monitor
type ConnectivityStatus struct {
	State     ConnectivityState `json:"status"`
	CheckedAt time.Time         `json:"checkedAt,omitempty"`
}

// Pinger probes the remote store
type Pinger interface {
	Ping(ctx context.Context) bool
}

// ConnectivityMonitor answers "is the remote reachable right now?".
// A verdict younger than the freshness window is reused; otherwise one
// probe runs and concurrent callers share its answer.
type ConnectivityMonitor struct {
	pinger    Pinger
	freshness time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu        sync.RWMutex
	state     ConnectivityState
	checkedAt time.Time

	probes singleflight.Group
}

// NewConnectivityMonitor creates a monitor in the unknown state
func NewConnectivityMonitor(pinger Pinger, freshness time.Duration, logger *zap.Logger) *ConnectivityMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if freshness < 0 {
		freshness = 0
	}
	return &ConnectivityMonitor{
		pinger:    pinger,
		freshness: freshness,
		logger:    logger.Named("connectivity"),
		now:       time.Now,
		state:     StateUnknown,
	}
}

// IsOnline returns the cached verdict when fresh, otherwise probes the
// remote. A caller whose context ends first gets false without
// disturbing the shared probe.
func (m *ConnectivityMonitor) IsOnline(ctx context.Context) bool {
	if online, ok := m.fresh(); ok {
		return online
	}

	ch := m.probes.DoChan("ping", func() (interface{}, error) {
		online := m.pinger.Ping(context.WithoutCancel(ctx))
		m.set(online)
		return online, nil
	})

	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (m *ConnectivityMonitor) fresh() (online, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == StateUnknown || m.freshness == 0 {
		return false, false
	}
	if m.now().Sub(m.checkedAt) >= m.freshness {
		return false, false
	}
	return m.state == StateOnline, true
}

// MarkOnline records a successful remote call
func (m *ConnectivityMonitor) MarkOnline() {
	m.set(true)
}

// MarkOffline records a failed remote call so the next callers skip the
// network until the verdict goes stale
func (m *ConnectivityMonitor) MarkOffline() {
	m.set(false)
}

func (m *ConnectivityMonitor) set(online bool) {
	state := StateOffline
	if online {
		state = StateOnline
	}

	m.mu.Lock()
	previous := m.state
	m.state = state
	m.checkedAt = m.now()
	m.mu.Unlock()

	if previous != state {
		m.logger.Info("connectivity changed",
			zap.String("from", string(previous)),
			zap.String("to", string(state)))
	}
}

// Status returns the current snapshot without probing
func (m *ConnectivityMonitor) Status() ConnectivityStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ConnectivityStatus{State: m.state, CheckedAt: m.checkedAt}
}
