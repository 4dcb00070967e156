// Package connection owns the lifecycle of the link to an RTC6 card: the
// retrying connect loop, close, and the cached card identity.
package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
	"github.com/banshee-data/rtc6-controller/internal/timeutil"
)

// RetryInterval is the fixed pause between connect attempts when retry is
// enabled.
const RetryInterval = time.Second

// State is the link state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Params are the addresses and files handed to the card on connect.
type Params struct {
	Host           string
	ProgramDir     string
	CorrectionFile string
	Retry          bool
}

// Manager owns one card link. It is not safe for concurrent use: the host
// serializes calls into a controller.
type Manager struct {
	card    rtc.Card
	params  Params
	clock   timeutil.Clock
	metrics *monitoring.Metrics

	state  State
	linkID uint32
	info   *rtc.CardInfo
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the real clock, used by tests to observe retry sleeps.
func WithClock(c timeutil.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithMetrics records connect attempts and hardware calls.
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates a disconnected manager for card.
func NewManager(card rtc.Card, params Params, opts ...Option) *Manager {
	m := &Manager{
		card:   card,
		params: params,
		clock:  timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.setState(Disconnected)
	return m
}

// Card returns the hardware handle used by the list and attribute layers.
func (m *Manager) Card() rtc.Card { return m.card }

// State returns the current link state.
func (m *Manager) State() State { return m.state }

// Params returns the connection parameters.
func (m *Manager) Params() Params { return m.params }

// LinkID returns the id reported by the card on the last successful connect.
func (m *Manager) LinkID() uint32 { return m.linkID }

// SetRetryPolicy changes whether future Connect calls retry.
func (m *Manager) SetRetryPolicy(enabled bool) { m.params.Retry = enabled }

func (m *Manager) setState(s State) {
	m.state = s
	if m.metrics != nil {
		m.metrics.ConnectionState.Set(float64(s))
	}
}

// Connect opens the link. Without retry the first failure is returned
// wrapped in rtc.ErrConnectionFailure. With retry it logs a warning, sleeps
// RetryInterval and tries again until the card answers or ctx is done; the
// state stays Disconnected between attempts.
func (m *Manager) Connect(ctx context.Context) error {
	if m.state == Connected {
		return nil
	}
	for attempt := 1; ; attempt++ {
		err := m.attempt()
		if err == nil {
			monitoring.Logf("rtc6 connected to %s (link %d, attempt %d)", m.params.Host, m.linkID, attempt)
			return nil
		}
		if !m.params.Retry {
			return err
		}
		monitoring.Warnf("rtc6 connect to %s failed, retrying in %s: %v", m.params.Host, RetryInterval, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("connect to %s abandoned after %d attempts: %w", m.params.Host, attempt, ctxErr)
		}
		m.clock.Sleep(RetryInterval)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("connect to %s abandoned after %d attempts: %w", m.params.Host, attempt, ctxErr)
		}
	}
}

func (m *Manager) attempt() error {
	if m.metrics != nil {
		m.metrics.ConnectAttempts.Inc()
	}
	m.setState(Connecting)
	id, err := m.card.Connect(m.params.Host, m.params.ProgramDir, m.params.CorrectionFile)
	m.metrics.ObserveCall("Connect", err)
	if err == nil && id == 0 {
		err = fmt.Errorf("card at %s returned link id 0", m.params.Host)
	}
	if err != nil {
		m.setState(Disconnected)
		return wrapConnectionFailure(m.params.Host, err)
	}
	m.linkID = id
	m.setState(Connected)
	return nil
}

func wrapConnectionFailure(host string, err error) error {
	if errors.Is(err, rtc.ErrConnectionFailure) {
		return fmt.Errorf("connect to %s: %w", host, err)
	}
	return fmt.Errorf("%w: connect to %s: %v", rtc.ErrConnectionFailure, host, err)
}

// Close releases the link unconditionally. It is idempotent; a close error
// from the card is returned but the manager is Disconnected regardless.
func (m *Manager) Close() error {
	wasConnected := m.state == Connected
	err := m.metrics.ObserveCall("Close", m.card.Close())
	m.linkID = 0
	m.info = nil
	m.setState(Disconnected)
	if wasConnected {
		monitoring.Logf("rtc6 link to %s closed", m.params.Host)
	}
	if err != nil {
		return fmt.Errorf("close link to %s: %w", m.params.Host, err)
	}
	return nil
}

// CardInfo returns the card identity, querying the card on first use and
// returning the cached snapshot afterwards.
func (m *Manager) CardInfo() (rtc.CardInfo, error) {
	if m.info != nil {
		return *m.info, nil
	}
	return m.RefreshCardInfo()
}

// RefreshCardInfo queries the card and replaces the cached snapshot.
func (m *Manager) RefreshCardInfo() (rtc.CardInfo, error) {
	if m.state != Connected {
		return rtc.CardInfo{}, fmt.Errorf("%w: card info requested while %s", rtc.ErrHardwareQuery, m.state)
	}
	info, err := m.card.CardInfo()
	if err := m.metrics.ObserveCall("CardInfo", err); err != nil {
		return rtc.CardInfo{}, fmt.Errorf("card info: %w", err)
	}
	bits, err := m.LastError()
	if err != nil {
		return rtc.CardInfo{}, err
	}
	if bits != 0 {
		return rtc.CardInfo{}, &rtc.HardwareError{Op: "card info", Bits: bits}
	}
	m.info = &info
	return info, nil
}

// LastError returns the card's raw error bitmask.
func (m *Manager) LastError() (rtc.ErrorBits, error) {
	bits, err := m.card.LastError()
	if err := m.metrics.ObserveCall("LastError", err); err != nil {
		return 0, fmt.Errorf("last error: %w", err)
	}
	return bits, nil
}
