// Package motionlist builds and executes ordered motion-instruction lists
// on the card. A strict state machine mirrors the card's list programming
// discipline: a list must be fully loaded and terminated before it runs,
// and cannot be amended while it runs.
package motionlist

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
)

// ErrProtocolViolation is returned when a list operation is invoked in the
// wrong state. It indicates an integration bug and is never retried.
var ErrProtocolViolation = errors.New("motion list protocol violation")

// State is the lifecycle of the current list.
type State int

const (
	Unopened State = iota
	Open
	Closed
	Executing
	Done
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "Unopened"
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case Executing:
		return "Executing"
	case Done:
		return "Done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Corrector maps commanded coordinates to hardware coordinates.
type Corrector interface {
	Correct(x, y int) (int, int)
}

// Run describes one list handed to the card for execution.
type Run struct {
	Slot         int
	Instructions []Instruction
	ExecutedAt   time.Time
}

// Journal receives every executed list. A journal error is logged and does
// not fail the execution, which has already been issued to the card.
type Journal interface {
	RecordRun(Run) error
}

// Config selects the card list memory used for loading.
type Config struct {
	// MemorySize is the number of list entries reserved for Slot.
	MemorySize int
	// Slot is the list number (1 or 2) loaded and executed.
	Slot int
}

// DefaultConfig reserves 8000 entries of list 1.
func DefaultConfig() Config {
	return Config{MemorySize: 8000, Slot: 1}
}

// Controller owns the one list that may be open on a card. It is not safe
// for concurrent use.
type Controller struct {
	card      rtc.Card
	corrector Corrector
	cfg       Config
	journal   Journal
	metrics   *monitoring.Metrics
	now       func() time.Time

	state        State
	instructions []Instruction
}

// Option configures a Controller.
type Option func(*Controller)

// WithJournal records executed lists.
func WithJournal(j Journal) Option { return func(c *Controller) { c.journal = j } }

// WithMetrics counts hardware calls and appended instructions.
func WithMetrics(m *monitoring.Metrics) Option { return func(c *Controller) { c.metrics = m } }

// WithNow replaces time.Now for journal timestamps.
func WithNow(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// NewController creates an Unopened controller.
func NewController(card rtc.Card, corrector Corrector, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		card:      card,
		corrector: corrector,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current list state.
func (c *Controller) State() State { return c.state }

// Config returns the list memory configuration.
func (c *Controller) Config() Config { return c.cfg }

// Instructions returns a copy of the corrected instructions issued for the
// current or most recent list.
func (c *Controller) Instructions() []Instruction {
	out := make([]Instruction, len(c.instructions))
	copy(out, c.instructions)
	return out
}

func (c *Controller) violation(op string, allowed ...State) error {
	return fmt.Errorf("%w: %s requires state %v, list is %s", ErrProtocolViolation, op, allowed, c.state)
}

func (c *Controller) call(op string, err error) error {
	if err := c.metrics.ObserveCall(op, err); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InitList configures list memory and starts loading a new list. It is
// valid before the first list and after the previous list executed.
func (c *Controller) InitList() error {
	if c.state != Unopened && c.state != Done {
		return c.violation("init list", Unopened, Done)
	}
	if err := c.call("ConfigListMemory", c.card.ConfigListMemory(c.cfg.MemorySize, c.cfg.Slot)); err != nil {
		return err
	}
	if err := c.call("InitListLoading", c.card.InitListLoading(c.cfg.Slot)); err != nil {
		return err
	}
	c.instructions = c.instructions[:0]
	c.state = Open
	monitoring.Logf("motion list %d opened", c.cfg.Slot)
	return nil
}

// Append corrects the instruction's point and issues it to the card. The
// instruction is remembered only if the card accepted it.
func (c *Controller) Append(in Instruction) error {
	if c.state != Open {
		return c.violation("append "+in.Kind.String(), Open)
	}
	x, y := c.corrector.Correct(in.X, in.Y)
	corrected := in
	corrected.X, corrected.Y = x, y

	var err error
	switch in.Kind {
	case Jump:
		err = c.call("AddJumpTo", c.card.AddJumpTo(x, y))
	case Line:
		err = c.call("AddLineTo", c.card.AddLineTo(x, y))
	case Arc:
		err = c.call("AddArcTo", c.card.AddArcTo(x, y, in.AngleDeg))
	default:
		return fmt.Errorf("append: unknown instruction kind %s", in.Kind)
	}
	if err != nil {
		return err
	}
	c.instructions = append(c.instructions, corrected)
	if c.metrics != nil {
		c.metrics.InstructionsAppended.WithLabelValues(in.Kind.String()).Inc()
	}
	return nil
}

// AppendAll appends each instruction in order, stopping at the first error.
func (c *Controller) AppendAll(ins ...Instruction) error {
	for i, in := range ins {
		if err := c.Append(in); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, in, err)
		}
	}
	return nil
}

// EndList marks the list complete on the card.
func (c *Controller) EndList() error {
	if c.state != Open {
		return c.violation("end list", Open)
	}
	if err := c.call("SetEndOfList", c.card.SetEndOfList()); err != nil {
		return err
	}
	c.state = Closed
	monitoring.Logf("motion list %d closed with %d instructions", c.cfg.Slot, len(c.instructions))
	return nil
}

// ExecuteList starts the closed list. Completion of the physical motion is
// reported by the card asynchronously; once the call is accepted the list
// is Done. If the card refuses, the list stays Closed and may be retried.
func (c *Controller) ExecuteList() error {
	if c.state != Closed {
		return c.violation("execute list", Closed)
	}
	c.state = Executing
	if err := c.call("ExecuteList", c.card.ExecuteList(c.cfg.Slot)); err != nil {
		c.state = Closed
		return err
	}
	c.state = Done
	if c.metrics != nil {
		c.metrics.ListsExecuted.Inc()
	}
	monitoring.Logf("motion list %d executing (%d instructions)", c.cfg.Slot, len(c.instructions))

	if c.journal != nil {
		run := Run{Slot: c.cfg.Slot, Instructions: c.Instructions(), ExecutedAt: c.now()}
		if err := c.journal.RecordRun(run); err != nil {
			monitoring.Warnf("failed to journal motion list: %v", err)
		}
	}
	return nil
}
