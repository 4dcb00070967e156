package controller

import (
	"fmt"

	"github.com/banshee-data/rtc6-controller/internal/attribute"
	"github.com/banshee-data/rtc6-controller/internal/motionlist"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
)

// ScannerDelays is the commit group of the three scanner delay attributes.
const ScannerDelays = "scanner_delays"

func (c *Controller) declare() *attribute.Builder {
	b := attribute.NewBuilder().WithMetrics(c.metrics)
	c.declareInfo(b.Scope("info"))
	c.declareControl(b.Scope("control"))
	c.declareList(b.Scope("list"))
	return b
}

// hw counts a hardware call and wraps its error with the op name.
func (c *Controller) hw(op string, err error) error {
	if err := c.metrics.ObserveCall(op, err); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Controller) cardInfo(field func(rtc.CardInfo) any) func() (any, error) {
	return func() (any, error) {
		info, err := c.conn.CardInfo()
		if err != nil {
			return nil, err
		}
		return field(info), nil
	}
}

func (c *Controller) declareInfo(s *attribute.Scope) {
	s.Attribute(attribute.Attribute{
		Name: "firmware_version", Kind: attribute.Int, Mode: attribute.ReadOnly,
		Description: "Firmware version reported by the card",
		Read:        c.cardInfo(func(i rtc.CardInfo) any { return i.FirmwareVersion }),
	}).Attribute(attribute.Attribute{
		Name: "serial_number", Kind: attribute.Int, Mode: attribute.ReadOnly,
		Description: "Card serial number",
		Read:        c.cardInfo(func(i rtc.CardInfo) any { return i.SerialNumber }),
	}).Attribute(attribute.Attribute{
		Name: "ip_address", Kind: attribute.String, Mode: attribute.ReadOnly,
		Description: "Card IP address",
		Read:        c.cardInfo(func(i rtc.CardInfo) any { return i.IPAddress }),
	}).Attribute(attribute.Attribute{
		Name: "is_acquired", Kind: attribute.Bool, Mode: attribute.ReadOnly,
		Description: "Whether this host holds the card",
		Read:        c.cardInfo(func(i rtc.CardInfo) any { return i.IsAcquired }),
	}).Attribute(attribute.Attribute{
		Name: "last_error", Kind: attribute.Int, Mode: attribute.ReadOnly,
		Description: "Raw card error bitmask",
		Read: func() (any, error) {
			bits, err := c.conn.LastError()
			if err != nil {
				return nil, err
			}
			return int(bits), nil
		},
	}).Attribute(attribute.Attribute{
		Name: "connection_state", Kind: attribute.String, Mode: attribute.ReadOnly,
		Description: "Link state",
		Read:        func() (any, error) { return c.conn.State().String(), nil },
	}).Command("refresh", "Re-query the card identity", func() error {
		_, err := c.conn.RefreshCardInfo()
		return err
	})
}

func (c *Controller) declareControl(s *attribute.Scope) {
	delays := attribute.GroupCommand{Group: ScannerDelays, Fn: func(v attribute.Values) error {
		return c.hw("SetScannerDelays", c.card.SetScannerDelays(
			v.Int("control.jump_delay"), v.Int("control.mark_delay"), v.Int("control.polygon_delay")))
	}}

	s.Attribute(attribute.Attribute{
		Name: "laser_mode", Kind: attribute.String, Mode: attribute.ReadWrite,
		Description: "Laser source type",
		Allowed:     rtc.LaserModeNames(),
		Handler: attribute.StringCommand(func(name string) error {
			mode, err := rtc.ParseLaserMode(name)
			if err != nil {
				return err
			}
			return c.hw("SetLaserMode", c.card.SetLaserMode(mode))
		}),
	}).Attribute(attribute.Attribute{
		Name: "laser_control", Kind: attribute.Int, Mode: attribute.ReadWrite,
		Description: "Laser control signal bits",
		Handler: attribute.IntCommand(func(v int) error {
			return c.hw("SetLaserControl", c.card.SetLaserControl(v))
		}),
	}).Attribute(attribute.Attribute{
		Name: "jump_speed", Kind: attribute.Float, Mode: attribute.ReadWrite,
		Description: "Jump speed in bits per ms",
		Handler: attribute.FloatCommand(func(v float64) error {
			return c.hw("SetJumpSpeed", c.card.SetJumpSpeed(v))
		}),
	}).Attribute(attribute.Attribute{
		Name: "mark_speed", Kind: attribute.Float, Mode: attribute.ReadWrite,
		Description: "Mark speed in bits per ms",
		Handler: attribute.FloatCommand(func(v float64) error {
			return c.hw("SetMarkSpeed", c.card.SetMarkSpeed(v))
		}),
	}).Attribute(attribute.Attribute{
		Name: "jump_delay", Kind: attribute.Int, Mode: attribute.ReadWrite, Initial: 0,
		Description: "Scanner jump delay in 10 µs units",
		Handler:     delays,
	}).Attribute(attribute.Attribute{
		Name: "mark_delay", Kind: attribute.Int, Mode: attribute.ReadWrite, Initial: 0,
		Description: "Scanner mark delay in 10 µs units",
		Handler:     delays,
	}).Attribute(attribute.Attribute{
		Name: "polygon_delay", Kind: attribute.Int, Mode: attribute.ReadWrite, Initial: 0,
		Description: "Scanner polygon delay in 10 µs units",
		Handler:     delays,
	}).Attribute(attribute.Attribute{
		Name: "sky_writing_mode", Kind: attribute.Int, Mode: attribute.ReadWrite,
		Description: "Sky writing mode",
		Handler: attribute.IntCommand(func(v int) error {
			return c.hw("SetSkyWritingMode", c.card.SetSkyWritingMode(v))
		}),
	})
}

func (c *Controller) declareList(s *attribute.Scope) {
	s.Attribute(attribute.Attribute{
		Name: "state", Kind: attribute.String, Mode: attribute.ReadOnly,
		Description: "Motion list state",
		Read:        func() (any, error) { return c.list.State().String(), nil },
	}).Command("init_list", "Open a new motion list", c.list.InitList).
		Command("end_list", "Terminate the open motion list", c.list.EndList).
		Command("execute_list", "Execute the terminated motion list", c.list.ExecuteList)

	point := func(scope string) {
		s.Scope(scope).
			Attribute(attribute.Attribute{Name: "x", Kind: attribute.Int, Mode: attribute.WriteOnly, Initial: 0}).
			Attribute(attribute.Attribute{Name: "y", Kind: attribute.Int, Mode: attribute.WriteOnly, Initial: 0})
	}
	point("add_jump")
	point("add_line")
	point("add_arc")
	s.Scope("add_arc").Attribute(attribute.Attribute{
		Name: "angle", Kind: attribute.Float, Mode: attribute.WriteOnly, Initial: 0.0,
		Description: "Arc sweep in degrees, positive clockwise",
	})

	s.Scope("add_jump").Command("proc", "Append a jump to the staged point", func() error {
		x, y := c.stagedPoint("list.add_jump")
		return c.list.Append(motionlist.JumpTo(x, y))
	})
	s.Scope("add_line").Command("proc", "Append a marked line to the staged point", func() error {
		x, y := c.stagedPoint("list.add_line")
		return c.list.Append(motionlist.LineTo(x, y))
	})
	s.Scope("add_arc").Command("proc", "Append an arc about the staged centre", func() error {
		x, y := c.stagedPoint("list.add_arc")
		angle, _ := c.registry.Staged("list.add_arc.angle")
		return c.list.Append(motionlist.ArcTo(x, y, angle.(float64)))
	})
}

func (c *Controller) stagedPoint(prefix string) (int, int) {
	x, _ := c.registry.Staged(prefix + ".x")
	y, _ := c.registry.Staged(prefix + ".y")
	return x.(int), y.(int)
}
