// Package rtc describes the capability contract of a SCANLAB RTC6 ethernet
// card as consumed by the controller. The vendor binding that talks to the
// real card lives outside this module and registers itself with Register; an
// in-process simulator (SimCard) backs development mode and tests.
package rtc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnectionFailure is returned when the card cannot be reached or
	// rejects the link.
	ErrConnectionFailure = errors.New("rtc6: connection failure")
	// ErrHardwareQuery is returned when a query is issued while disconnected
	// or the card reports an error bitmask.
	ErrHardwareQuery = errors.New("rtc6: hardware query error")
)

// CardInfo is the identity/status snapshot returned by one card query.
type CardInfo struct {
	FirmwareVersion int    `json:"firmware_version"`
	SerialNumber    int    `json:"serial_number"`
	IPAddress       string `json:"ip_address"`
	IsAcquired      bool   `json:"is_acquired"`
}

// Card is the set of hardware calls the controller issues. Implementations
// are not required to be safe for concurrent use; callers serialize access.
type Card interface {
	// Connect opens the link to the card at host, loading program files from
	// programDir and the optical correction table from correctionFile. A
	// zero link id means the card refused the connection.
	Connect(host, programDir, correctionFile string) (linkID uint32, err error)
	// Close releases the link. Closing an unlinked card is not an error.
	Close() error
	CardInfo() (CardInfo, error)

	// ConfigListMemory assigns size entries of list memory to the given slot.
	ConfigListMemory(size, slot int) error
	InitListLoading(slot int) error
	AddJumpTo(x, y int) error
	AddLineTo(x, y int) error
	AddArcTo(x, y int, angleDeg float64) error
	SetEndOfList() error
	ExecuteList(slot int) error

	SetLaserMode(mode LaserMode) error
	SetLaserControl(ctrl int) error
	SetJumpSpeed(v float64) error
	SetMarkSpeed(v float64) error
	SetScannerDelays(jump, mark, polygon int) error
	SetSkyWritingMode(mode int) error

	LastError() (ErrorBits, error)
}

// LaserMode selects the laser signal timing scheme. The ordinal is the vendor
// mode code.
type LaserMode int

const (
	LaserModeCO2 LaserMode = iota
	LaserModeYAG1
	LaserModeYAG2
	LaserModeYAG3
	LaserMode4
	LaserModeYAG5
	LaserMode6
)

var laserModeNames = [...]string{"CO2", "YAG1", "YAG2", "YAG3", "LaserMode4", "YAG5", "LaserMode6"}

// LaserModeNames returns the accepted laser mode names in vendor code order.
func LaserModeNames() []string {
	names := make([]string, len(laserModeNames))
	copy(names, laserModeNames[:])
	return names
}

func (m LaserMode) String() string {
	if m < 0 || int(m) >= len(laserModeNames) {
		return fmt.Sprintf("LaserMode(%d)", int(m))
	}
	return laserModeNames[m]
}

// ParseLaserMode maps a laser mode name to its code. Matching is exact.
func ParseLaserMode(name string) (LaserMode, error) {
	for i, n := range laserModeNames {
		if n == name {
			return LaserMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown laser mode %q: expected one of %s", name, strings.Join(laserModeNames[:], ", "))
}

// ErrorBits is the card's last-error bitmask. Only ErrorNoCard is documented;
// every other bit is passed through without interpretation.
type ErrorBits uint32

// ErrorNoCard is set when the card could not be reached.
const ErrorNoCard ErrorBits = 1 << 0

// Has reports whether all bits in b are set.
func (e ErrorBits) Has(b ErrorBits) bool { return e&b == b }

func (e ErrorBits) String() string { return fmt.Sprintf("0x%08x", uint32(e)) }

// HardwareError reports a non-zero last-error bitmask.
type HardwareError struct {
	Op   string
	Bits ErrorBits
}

func (e *HardwareError) Error() string {
	if e.Bits.Has(ErrorNoCard) {
		return fmt.Sprintf("rtc6: %s: card reported error bits %s (no connection to card)", e.Op, e.Bits)
	}
	return fmt.Sprintf("rtc6: %s: card reported error bits %s", e.Op, e.Bits)
}

// Is makes a HardwareError match ErrHardwareQuery.
func (e *HardwareError) Is(target error) bool { return target == ErrHardwareQuery }
