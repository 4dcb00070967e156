package attribute

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
	"github.com/banshee-data/rtc6-controller/internal/rtc"
)

// buildControl declares a control scope wired to a simulated card.
func buildControl(t *testing.T, card *rtc.SimCard, metrics *monitoring.Metrics) *Registry {
	t.Helper()
	delays := func(v Values) error {
		return card.SetScannerDelays(v.Int("control.jump_delay"), v.Int("control.mark_delay"), v.Int("control.polygon_delay"))
	}
	b := NewBuilder().WithMetrics(metrics)
	b.Scope("control").
		Attribute(Attribute{
			Name: "laser_mode", Kind: String, Mode: ReadWrite, Initial: "YAG5",
			Allowed: rtc.LaserModeNames(),
			Handler: StringCommand(func(s string) error {
				mode, err := rtc.ParseLaserMode(s)
				if err != nil {
					return err
				}
				return card.SetLaserMode(mode)
			}),
		}).
		Attribute(Attribute{Name: "jump_speed", Kind: Float, Mode: ReadWrite, Handler: FloatCommand(card.SetJumpSpeed)}).
		Attribute(Attribute{Name: "laser_control", Kind: Int, Mode: ReadWrite, Handler: IntCommand(card.SetLaserControl)}).
		Attribute(Attribute{Name: "jump_delay", Kind: Int, Mode: ReadWrite, Initial: 0, Handler: GroupCommand{Group: "scanner_delays", Fn: delays}}).
		Attribute(Attribute{Name: "mark_delay", Kind: Int, Mode: ReadWrite, Initial: 0, Handler: GroupCommand{Group: "scanner_delays", Fn: delays}}).
		Attribute(Attribute{Name: "polygon_delay", Kind: Int, Mode: ReadWrite, Initial: 0, Handler: GroupCommand{Group: "scanner_delays", Fn: delays}})
	b.Scope("list", "add_jump").
		Attribute(Attribute{Name: "x", Kind: Int, Mode: WriteOnly, Initial: 0}).
		Command("proc", "add a jump", func() error { return nil })
	b.Scope("info").
		Attribute(Attribute{Name: "serial_number", Kind: Int, Mode: ReadOnly, Read: func() (any, error) { return 1234, nil }}).
		Attribute(Attribute{Name: "ip_address", Kind: String, Mode: ReadOnly, Read: func() (any, error) { return nil, errors.New("not connected") }})

	r, err := b.Build()
	require.NoError(t, err)
	return r
}

func TestWrite_LaserModeOutsideEnumeration(t *testing.T) {
	card := rtc.NewSimCard()
	metrics := monitoring.NewMetrics()
	r := buildControl(t, card, metrics)

	for _, bad := range []string{"FIBER", "yag5", "", "LaserMode7"} {
		err := r.Write("control.laser_mode", bad)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Empty(t, card.Calls(), "rejected writes issue zero hardware calls")
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.AttributeRejections.WithLabelValues("control.laser_mode")))

	v, err := r.Read("control.laser_mode")
	require.NoError(t, err)
	assert.Equal(t, "YAG5", v, "staged value untouched by rejected writes")

	require.NoError(t, r.Write("control.laser_mode", "CO2"))
	calls := card.CallsTo("SetLaserMode")
	require.Len(t, calls, 1)
	assert.Equal(t, []any{rtc.LaserModeCO2}, calls[0].Args)
}

func TestWrite_DelayGroupFiresOnEveryWrite(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)

	require.NoError(t, r.Write("control.jump_delay", 100))
	require.NoError(t, r.Write("control.mark_delay", 200))
	require.NoError(t, r.Write("control.polygon_delay", 50))

	want := []rtc.Call{
		{Op: "SetScannerDelays", Args: []any{100, 0, 0}},
		{Op: "SetScannerDelays", Args: []any{100, 200, 0}},
		{Op: "SetScannerDelays", Args: []any{100, 200, 50}},
	}
	if diff := cmp.Diff(want, card.Calls()); diff != "" {
		t.Errorf("delay calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"control.jump_delay", "control.mark_delay", "control.polygon_delay"}, r.Group("scanner_delays"))
}

func TestWrite_GroupOrderIrrelevant(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)

	require.NoError(t, r.Write("control.polygon_delay", 50))
	require.NoError(t, r.Write("control.mark_delay", 200))
	require.NoError(t, r.Write("control.jump_delay", 100))

	calls := card.CallsTo("SetScannerDelays")
	require.Len(t, calls, 3)
	assert.Equal(t, []any{100, 200, 50}, calls[2].Args)
}

func TestWrite_HandlerFailureRestoresStagedValue(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)
	require.NoError(t, r.Write("control.jump_delay", 100))

	boom := errors.New("card busy")
	card.FailNext("SetScannerDelays", boom)
	err := r.Write("control.mark_delay", 999)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrValidation)

	v, _ := r.Read("control.mark_delay")
	assert.Equal(t, 0, v)

	require.NoError(t, r.Write("control.polygon_delay", 7))
	calls := card.CallsTo("SetScannerDelays")
	assert.Equal(t, []any{100, 0, 7}, calls[len(calls)-1].Args)
}

func TestWrite_TypeAndModeChecks(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)

	assert.ErrorIs(t, r.Write("control.jump_speed", "fast"), ErrValidation)
	assert.ErrorIs(t, r.Write("control.laser_control", 1.5), ErrValidation)
	assert.ErrorIs(t, r.Write("info.serial_number", 1), ErrValidation)
	assert.ErrorIs(t, r.Write("nope", 1), ErrUnknown)
	assert.Empty(t, card.Calls())

	// JSON numbers arrive as float64; integral values are accepted for ints
	require.NoError(t, r.Write("control.laser_control", float64(3)))
	require.NoError(t, r.Write("control.jump_speed", 250))
	assert.Equal(t, []any{3}, card.CallsTo("SetLaserControl")[0].Args)
	assert.Equal(t, []any{250.0}, card.CallsTo("SetJumpSpeed")[0].Args)
}

func TestWriteString(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)

	require.NoError(t, r.WriteString("control.jump_speed", " 1250.5 "))
	require.NoError(t, r.WriteString("control.jump_delay", "40"))
	require.NoError(t, r.WriteString("control.laser_mode", "YAG1"))
	assert.ErrorIs(t, r.WriteString("control.jump_delay", "forty"), ErrValidation)
	assert.ErrorIs(t, r.WriteString("missing", "1"), ErrUnknown)

	assert.Equal(t, []any{1250.5}, card.CallsTo("SetJumpSpeed")[0].Args)
}

func TestFloatRejectsNonFinite(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)
	require.NoError(t, r.Write("control.jump_speed", 100.0))

	for _, s := range []string{"NaN", "+Inf", "-Inf", "inf"} {
		assert.ErrorIs(t, r.WriteString("control.jump_speed", s), ErrValidation, s)
	}
	assert.ErrorIs(t, r.Write("control.jump_speed", math.NaN()), ErrValidation)
	assert.ErrorIs(t, r.Write("control.jump_speed", math.Inf(1)), ErrValidation)
	assert.ErrorIs(t, r.Write("control.jump_speed", float32(math.Inf(-1))), ErrValidation)
	assert.ErrorIs(t, r.Write("control.laser_control", math.NaN()), ErrValidation)

	assert.Len(t, card.CallsTo("SetJumpSpeed"), 1, "rejected values must not reach the card")
	v, ok := r.Staged("control.jump_speed")
	require.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestStagingAttributeAndCommand(t *testing.T) {
	card := rtc.NewSimCard()
	r := buildControl(t, card, nil)

	require.NoError(t, r.Write("list.add_jump.x", 42))
	assert.Empty(t, card.Calls(), "staging attributes do not call the card")

	v, ok := r.Staged("list.add_jump.x")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, err := r.Read("list.add_jump.x")
	assert.ErrorIs(t, err, ErrNotReadable)

	require.NoError(t, r.Run("list.add_jump.proc"))
	assert.ErrorIs(t, r.Run("list.add_jump.nope"), ErrUnknown)
}

func TestRun_WrapsError(t *testing.T) {
	boom := errors.New("boom")
	b := NewBuilder()
	b.Scope("list").Command("init_list", "", func() error { return boom })
	r := b.MustBuild()

	err := r.Run("list.init_list")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "list.init_list")
}

func TestSnapshot(t *testing.T) {
	r := buildControl(t, rtc.NewSimCard(), nil)

	snap := r.Snapshot()
	assert.Equal(t, "YAG5", snap["control.laser_mode"])
	assert.Equal(t, 1234, snap["info.serial_number"])
	assert.Contains(t, snap["info.ip_address"], "not connected")
	assert.NotContains(t, snap, "list.add_jump.x")
}

func TestDeclarations(t *testing.T) {
	r := buildControl(t, rtc.NewSimCard(), nil)

	attrs := r.Attributes()
	require.NotEmpty(t, attrs)
	assert.Equal(t, "control.laser_mode", attrs[0].Name)

	a, ok := r.Lookup("control.mark_delay")
	require.True(t, ok)
	assert.Equal(t, "scanner_delays", a.Group())
	_, ok = r.Lookup("control.nothing")
	assert.False(t, ok)

	cmds := r.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "list.add_jump.proc", cmds[0].Name)
}

func TestBuild_RejectsInvalidDeclarations(t *testing.T) {
	noop := func(any) error { return nil }
	cases := map[string]func(b *Builder){
		"duplicate": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite})
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite})
		},
		"read-only with handler": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Mode: ReadOnly, Handler: SingleCommand{Fn: noop}})
		},
		"write-only with reader": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Mode: WriteOnly, Read: func() (any, error) { return 1, nil }})
		},
		"allowed on int": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite, Allowed: []string{"1"}})
		},
		"group without initial": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite,
				Handler: GroupCommand{Group: "g", Fn: func(Values) error { return nil }}})
		},
		"bad initial": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite, Initial: "one"})
		},
		"nil single": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite, Handler: SingleCommand{}})
		},
		"nil command": func(b *Builder) {
			b.Scope("a").Command("c", "", nil)
		},
		"command clash": func(b *Builder) {
			b.Scope("a").Attribute(Attribute{Name: "x", Kind: Int, Mode: ReadWrite}).Command("x", "", func() error { return nil })
		},
		"empty name": func(b *Builder) {
			b.Scope().Attribute(Attribute{Kind: Int, Mode: ReadWrite})
		},
	}
	for name, declare := range cases {
		t.Run(name, func(t *testing.T) {
			b := NewBuilder()
			declare(b)
			_, err := b.Build()
			assert.Error(t, err)
			assert.Panics(t, func() { b.MustBuild() })
		})
	}
}

func TestScopeNesting(t *testing.T) {
	b := NewBuilder()
	b.Scope("list").Scope("add_arc").Attribute(Attribute{Name: "angle", Kind: Float, Mode: WriteOnly})
	b.Scope().Attribute(Attribute{Name: "top", Kind: Bool, Mode: ReadWrite, Initial: true})
	r := b.MustBuild()

	_, ok := r.Lookup("list.add_arc.angle")
	assert.True(t, ok)
	v, err := r.Read("top")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestValuesPanicsOnWrongKind(t *testing.T) {
	v := Values{"a": 1.5, "b": 2}
	assert.Panics(t, func() { v.Int("a") })
	assert.Panics(t, func() { v.Float("b") })
	assert.Equal(t, 1.5, v.Float("a"))
	assert.Equal(t, 2, v.Int("b"))
}

func TestKindModeStrings(t *testing.T) {
	assert.Equal(t, "float", Float.String())
	assert.Equal(t, "rw", ReadWrite.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
