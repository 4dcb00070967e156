// Package controller assembles the RTC6 device: one connection manager, one
// coordinate corrector and one motion list, exposed through a dotted-path
// attribute registry under info, control and list.
package controller

import (
	"context"
	"fmt"
	"sync"

	"github.com/banshee-data/rtc6-controller/internal/attribute"
	"github.com/banshee-data/rtc6-controller/internal/connection"
	"github.com/banshee-data/rtc6-controller/internal/correction"
	"github.com/banshee-data/rtc6-controller/internal/monitoring"
	"github.com/banshee-data/rtc6-controller/internal/motionlist"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
	"github.com/banshee-data/rtc6-controller/internal/timeutil"
)

// Options configure a Controller. The zero value uses the real clock, the
// default list memory layout, no journal and no metrics.
type Options struct {
	List    motionlist.Config
	Journal motionlist.Journal
	Metrics *monitoring.Metrics
	Clock   timeutil.Clock
}

// Controller is the root of the device tree. Every exported method takes the
// controller lock, so admin requests and the host are serialized against
// each other.
type Controller struct {
	mu sync.Mutex

	card      rtc.Card
	conn      *connection.Manager
	corrector *correction.Corrector
	list      *motionlist.Controller
	registry  *attribute.Registry
	metrics   *monitoring.Metrics
}

// New builds the controller tree for card. corrector may be nil, in which
// case coordinates pass through unchanged.
func New(card rtc.Card, params connection.Params, corrector *correction.Corrector, opts Options) (*Controller, error) {
	if card == nil {
		return nil, fmt.Errorf("controller: nil card")
	}
	if corrector == nil {
		corrector = correction.NewCorrectorFromTransform(correction.Identity())
	}
	if opts.List == (motionlist.Config{}) {
		opts.List = motionlist.DefaultConfig()
	}

	var connOpts []connection.Option
	if opts.Clock != nil {
		connOpts = append(connOpts, connection.WithClock(opts.Clock))
	}
	if opts.Metrics != nil {
		connOpts = append(connOpts, connection.WithMetrics(opts.Metrics))
	}
	listOpts := []motionlist.Option{motionlist.WithMetrics(opts.Metrics)}
	if opts.Journal != nil {
		listOpts = append(listOpts, motionlist.WithJournal(opts.Journal))
	}

	c := &Controller{
		card:      card,
		conn:      connection.NewManager(card, params, connOpts...),
		corrector: corrector,
		list:      motionlist.NewController(card, corrector, opts.List, listOpts...),
		metrics:   opts.Metrics,
	}
	registry, err := c.declare().Build()
	if err != nil {
		return nil, fmt.Errorf("controller attributes: %w", err)
	}
	c.registry = registry
	return c, nil
}

// Connect opens the link to the card, retrying if the connection parameters
// ask for it. Other operations wait until it returns.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Connect(ctx)
}

// Close releases the link.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// Write writes one attribute by dotted path.
func (c *Controller) Write(name string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Write(name, v)
}

// WriteString writes one attribute from its textual form.
func (c *Controller) WriteString(name, s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.WriteString(name, s)
}

// Read reads one attribute by dotted path.
func (c *Controller) Read(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Read(name)
}

// Run invokes a command by dotted path.
func (c *Controller) Run(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Run(name)
}

// Snapshot reads every readable attribute.
func (c *Controller) Snapshot() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.Snapshot()
}

// Instructions returns the corrected instructions of the current or last
// list.
func (c *Controller) Instructions() []motionlist.Instruction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Instructions()
}

// ConnectionState returns the link state.
func (c *Controller) ConnectionState() connection.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.State()
}

// ListState returns the motion list state.
func (c *Controller) ListState() motionlist.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.State()
}

// Registry exposes the attribute declarations. Callers must go through the
// Controller methods to read or write.
func (c *Controller) Registry() *attribute.Registry { return c.registry }

// Corrector returns the coordinate corrector in use.
func (c *Controller) Corrector() *correction.Corrector { return c.corrector }
