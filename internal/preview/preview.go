// Package preview renders a motion list as a PNG so an operator can check the
// corrected path before it is executed.
package preview

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rtc6-controller/internal/motionlist"
)

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("preview: no instructions")

// arcStep is the maximum sweep in degrees of one polyline segment of an arc.
const arcStep = 5.0

var (
	markColor = color.RGBA{R: 200, A: 255}
	jumpColor = color.Gray{Y: 160}
)

// Options control the rendered image.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "Motion list"
	}
	if o.Width == 0 {
		o.Width = 6 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 6 * vg.Inch
	}
	return o
}

// Segment is one straight piece of the beam path.
type Segment struct {
	From, To plotter.XY
	LaserOn  bool
}

// Trace walks the instructions from the origin and returns the straight
// segments the beam follows. Arcs rotate the current position about the
// centre (X, Y) by AngleDeg, positive clockwise, and are split into chords
// of at most arcStep degrees. Sweeps over one turn are drawn as one circle
// plus the remainder.
func Trace(ins []motionlist.Instruction) []Segment {
	var segs []Segment
	pos := plotter.XY{}
	for _, in := range ins {
		target := plotter.XY{X: float64(in.X), Y: float64(in.Y)}
		switch in.Kind {
		case motionlist.Jump:
			segs = append(segs, Segment{From: pos, To: target})
			pos = target
		case motionlist.Line:
			segs = append(segs, Segment{From: pos, To: target, LaserOn: true})
			pos = target
		case motionlist.Arc:
			sweep := drawnSweep(in.AngleDeg)
			steps := int(math.Ceil(math.Abs(sweep) / arcStep))
			for i := 1; i <= steps; i++ {
				next := rotate(pos, target, -sweep/float64(steps))
				segs = append(segs, Segment{From: pos, To: next, LaserOn: true})
				pos = next
			}
		}
	}
	return segs
}

// drawnSweep bounds the sweep that Trace draws for an arc. Beyond one turn
// the path retraces itself, so the sweep is cut to one full circle plus the
// remainder, which keeps the end point and at most 2*360/arcStep chords.
// Non-finite angles draw nothing.
func drawnSweep(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	if math.Abs(deg) <= 360 {
		return deg
	}
	return math.Copysign(360+math.Mod(math.Abs(deg), 360), deg)
}

// rotate turns p about centre by deg degrees counter-clockwise.
func rotate(p, centre plotter.XY, deg float64) plotter.XY {
	sin, cos := math.Sincos(deg * math.Pi / 180)
	dx, dy := p.X-centre.X, p.Y-centre.Y
	return plotter.XY{
		X: centre.X + dx*cos - dy*sin,
		Y: centre.Y + dx*sin + dy*cos,
	}
}

// Plot builds the plot of ins without rendering it.
func Plot(ins []motionlist.Instruction, opts Options) (*plot.Plot, error) {
	if len(ins) == 0 {
		return nil, ErrEmpty
	}
	opts = opts.withDefaults()

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "X (bits)"
	p.Y.Label.Text = "Y (bits)"
	p.Add(plotter.NewGrid())

	var marked, jumped bool
	for _, s := range Trace(ins) {
		line, err := plotter.NewLine(plotter.XYs{s.From, s.To})
		if err != nil {
			return nil, fmt.Errorf("preview segment: %w", err)
		}
		line.Width = vg.Points(1)
		if s.LaserOn {
			line.Color = markColor
			if !marked {
				p.Legend.Add("mark", line)
				marked = true
			}
		} else {
			line.Color = jumpColor
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			if !jumped {
				p.Legend.Add("jump", line)
				jumped = true
			}
		}
		p.Add(line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// Render writes ins as a PNG to w.
func Render(w io.Writer, ins []motionlist.Instruction, opts Options) error {
	p, err := Plot(ins, opts)
	if err != nil {
		return err
	}
	opts = opts.withDefaults()
	wt, err := p.WriterTo(opts.Width, opts.Height, "png")
	if err != nil {
		return fmt.Errorf("preview writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("preview write: %w", err)
	}
	return nil
}
