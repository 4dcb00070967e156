package rtc

import (
	"errors"
	"fmt"
	"sync"
)

// ErrSimRejected is returned by SimCard for list calls the real card would
// silently ignore (adding to a list that is not loading, executing an
// unterminated list).
var ErrSimRejected = errors.New("rtc6 sim: call rejected")

// Call records one hardware call made against a SimCard.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string { return fmt.Sprintf("%s%v", c.Op, c.Args) }

// SimCard is an in-process stand-in for an RTC6 card. It records every call,
// keeps enough state to answer queries, and supports injected failures. It
// backs development mode and the package tests of the controller.
type SimCard struct {
	mu sync.Mutex

	// Info is returned by CardInfo while linked.
	Info CardInfo

	// Unreachable makes every Connect fail.
	Unreachable bool

	// FailConnects makes the next n Connect attempts fail before one succeeds.
	FailConnects int

	// ZeroLinkID makes Connect return a zero link id without an error.
	ZeroLinkID bool

	// Bits is reported by LastError.
	Bits ErrorBits

	// failures holds one-shot errors keyed by op name.
	failures map[string]error

	calls        []Call
	linkID       uint32
	connects     int
	loadingSlot  int
	listComplete bool
}

// NewSimCard returns a reachable simulator with plausible identity values.
func NewSimCard() *SimCard {
	ip, _ := IPStrToInt("172.23.17.192")
	return &SimCard{
		Info: CardInfo{
			FirmwareVersion: 656,
			SerialNumber:    134570,
			IPAddress:       IPIntToStr(ip),
			IsAcquired:      true,
		},
		failures: make(map[string]error),
	}
}

// FailNext makes the next call of op return err.
func (s *SimCard) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures == nil {
		s.failures = make(map[string]error)
	}
	s.failures[op] = err
}

// Calls returns a copy of the recorded calls.
func (s *SimCard) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsTo returns the recorded calls of a single op.
func (s *SimCard) CallsTo(op string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Call
	for _, c := range s.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// ConnectAttempts returns the number of Connect calls seen.
func (s *SimCard) ConnectAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Reset forgets recorded calls.
func (s *SimCard) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// record appends the call and returns any injected failure for op.
// s.mu must be held.
func (s *SimCard) record(op string, args ...any) error {
	s.calls = append(s.calls, Call{Op: op, Args: args})
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

func (s *SimCard) requireLink(op string) error {
	if s.linkID == 0 {
		return fmt.Errorf("%w: %s: card not linked", ErrHardwareQuery, op)
	}
	return nil
}

func (s *SimCard) requireLoading(op string) error {
	if s.loadingSlot == 0 || s.listComplete {
		return fmt.Errorf("%w: %s: no list loading", ErrSimRejected, op)
	}
	return nil
}

func (s *SimCard) Connect(host, programDir, correctionFile string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if err := s.record("Connect", host, programDir, correctionFile); err != nil {
		return 0, err
	}
	if s.Unreachable {
		s.Bits |= ErrorNoCard
		return 0, fmt.Errorf("%w: no card answering at %s", ErrConnectionFailure, host)
	}
	if s.FailConnects > 0 {
		s.FailConnects--
		s.Bits |= ErrorNoCard
		return 0, fmt.Errorf("%w: no card answering at %s", ErrConnectionFailure, host)
	}
	if s.ZeroLinkID {
		return 0, nil
	}
	if _, err := IPStrToInt(host); err == nil {
		s.Info.IPAddress = host
	}
	s.Bits &^= ErrorNoCard
	s.linkID = uint32(s.connects)
	return s.linkID, nil
}

func (s *SimCard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkID = 0
	s.loadingSlot = 0
	return s.record("Close")
}

func (s *SimCard) CardInfo() (CardInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CardInfo"); err != nil {
		return CardInfo{}, err
	}
	if err := s.requireLink("CardInfo"); err != nil {
		return CardInfo{}, err
	}
	return s.Info, nil
}

func (s *SimCard) ConfigListMemory(size, slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("ConfigListMemory", size, slot)
}

func (s *SimCard) InitListLoading(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("InitListLoading", slot); err != nil {
		return err
	}
	s.loadingSlot = slot
	s.listComplete = false
	return nil
}

func (s *SimCard) AddJumpTo(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddJumpTo", x, y); err != nil {
		return err
	}
	return s.requireLoading("AddJumpTo")
}

func (s *SimCard) AddLineTo(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddLineTo", x, y); err != nil {
		return err
	}
	return s.requireLoading("AddLineTo")
}

func (s *SimCard) AddArcTo(x, y int, angleDeg float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddArcTo", x, y, angleDeg); err != nil {
		return err
	}
	return s.requireLoading("AddArcTo")
}

func (s *SimCard) SetEndOfList() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("SetEndOfList"); err != nil {
		return err
	}
	s.listComplete = true
	return nil
}

func (s *SimCard) ExecuteList(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("ExecuteList", slot); err != nil {
		return err
	}
	if !s.listComplete || slot != s.loadingSlot {
		return fmt.Errorf("%w: execute list %d: list not terminated", ErrSimRejected, slot)
	}
	return nil
}

func (s *SimCard) SetLaserMode(mode LaserMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetLaserMode", mode)
}

func (s *SimCard) SetLaserControl(ctrl int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetLaserControl", ctrl)
}

func (s *SimCard) SetJumpSpeed(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetJumpSpeed", v)
}

func (s *SimCard) SetMarkSpeed(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetMarkSpeed", v)
}

func (s *SimCard) SetScannerDelays(jump, mark, polygon int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetScannerDelays", jump, mark, polygon)
}

func (s *SimCard) SetSkyWritingMode(mode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record("SetSkyWritingMode", mode)
}

func (s *SimCard) LastError() (ErrorBits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("LastError"); err != nil {
		return 0, err
	}
	return s.Bits, nil
}
