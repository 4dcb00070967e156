package preview

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"

	"github.com/banshee-data/rtc6-controller/internal/motionlist"
)

func TestTrace_JumpAndLine(t *testing.T) {
	segs := Trace([]motionlist.Instruction{
		motionlist.JumpTo(10, 0),
		motionlist.LineTo(10, 20),
	})
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{From: plotter.XY{}, To: plotter.XY{X: 10}}, segs[0])
	assert.Equal(t, Segment{From: plotter.XY{X: 10}, To: plotter.XY{X: 10, Y: 20}, LaserOn: true}, segs[1])
}

func TestTrace_ArcIsClockwiseAndChorded(t *testing.T) {
	// start at (10,0), rotate 90° clockwise about the origin to (0,-10)
	segs := Trace([]motionlist.Instruction{
		motionlist.JumpTo(10, 0),
		motionlist.ArcTo(0, 0, 90),
	})
	require.Len(t, segs, 1+18)
	end := segs[len(segs)-1].To
	assert.InDelta(t, 0, end.X, 1e-9)
	assert.InDelta(t, -10, end.Y, 1e-9)
	for _, s := range segs[1:] {
		assert.True(t, s.LaserOn)
	}
}

func TestTrace_ZeroAngleArc(t *testing.T) {
	segs := Trace([]motionlist.Instruction{motionlist.ArcTo(5, 5, 0)})
	assert.Empty(t, segs)
}

func TestTrace_LargeArcIsBounded(t *testing.T) {
	segs := Trace([]motionlist.Instruction{
		motionlist.JumpTo(10, 0),
		motionlist.ArcTo(0, 0, 1e9),
	})
	// 1e9 mod 360 = 280: one full circle plus 280 degrees
	require.Len(t, segs, 1+128)

	want := Trace([]motionlist.Instruction{
		motionlist.JumpTo(10, 0),
		motionlist.ArcTo(0, 0, 280),
	})
	end, wantEnd := segs[len(segs)-1].To, want[len(want)-1].To
	assert.InDelta(t, wantEnd.X, end.X, 1e-6)
	assert.InDelta(t, wantEnd.Y, end.Y, 1e-6)

	neg := Trace([]motionlist.Instruction{motionlist.ArcTo(0, 0, -1e9)})
	assert.Len(t, neg, 128)
}

func TestTrace_NonFiniteArcDrawsNothing(t *testing.T) {
	for _, angle := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		segs := Trace([]motionlist.Instruction{
			motionlist.JumpTo(10, 0),
			motionlist.ArcTo(0, 0, angle),
			motionlist.LineTo(20, 0),
		})
		require.Len(t, segs, 2, "angle %v", angle)
		assert.Equal(t, plotter.XY{X: 10}, segs[1].From)
	}
}

func TestRender_LargeArc(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, []motionlist.Instruction{
		motionlist.JumpTo(10, 0),
		motionlist.ArcTo(0, 0, 5e7),
	}, Options{})
	require.NoError(t, err)
	_, err = png.Decode(&buf)
	require.NoError(t, err)
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, []motionlist.Instruction{
		motionlist.JumpTo(-100, -100),
		motionlist.LineTo(100, -100),
		motionlist.LineTo(100, 100),
		motionlist.ArcTo(0, 100, 180),
	}, Options{Title: "test", Width: 200, Height: 200})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, nil, Options{}), ErrEmpty)
	assert.Zero(t, buf.Len())
}
