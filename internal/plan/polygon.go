package plan

import (
	"fmt"
	"math"
)

// Vertex is one polygon corner. The beam moves to it with the laser on if
// LaserOn, otherwise it jumps.
type Vertex struct {
	X, Y    int
	LaserOn bool
}

// Polygon draws the vertices in order. The first vertex is always reached by
// a jump regardless of its LaserOn flag.
func (r *Runner) Polygon(vertices []Vertex) error {
	if len(vertices) == 0 {
		return fmt.Errorf("polygon: %w: no vertices", ErrInvalidShape)
	}
	return r.staged("polygon", func() error {
		if err := r.Jump(vertices[0].X, vertices[0].Y); err != nil {
			return err
		}
		for _, v := range vertices[1:] {
			if err := r.vertex(v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Runner) vertex(v Vertex) error {
	if v.LaserOn {
		return r.Line(v.X, v.Y)
	}
	return r.Jump(v.X, v.Y)
}

// Move is the kind of one Element of a path with arcs.
type Move int

const (
	// MoveStart is the plain starting point of a path.
	MoveStart Move = iota
	MoveJump
	MoveLine
	MoveArc
)

// Element is one step of a path with arcs. For MoveArc, X and Y are the
// centre and AngleDeg the sweep.
type Element struct {
	Move     Move
	X, Y     int
	AngleDeg float64
}

// Start is the first element of every path.
func Start(x, y int) Element { return Element{Move: MoveStart, X: x, Y: y} }

// JumpTo moves to (x, y) with the laser off.
func JumpTo(x, y int) Element { return Element{Move: MoveJump, X: x, Y: y} }

// LineTo moves to (x, y) with the laser on.
func LineTo(x, y int) Element { return Element{Move: MoveLine, X: x, Y: y} }

// ArcAbout sweeps angleDeg degrees about centre (x, y), positive clockwise.
func ArcAbout(x, y int, angleDeg float64) Element {
	return Element{Move: MoveArc, X: x, Y: y, AngleDeg: angleDeg}
}

// PolygonWithArcs draws a path that mixes lines, jumps and arcs. It must
// begin with exactly one Start element; the shape is checked before
// anything is sent to the card.
func (r *Runner) PolygonWithArcs(path []Element) error {
	if len(path) == 0 || path[0].Move != MoveStart {
		return fmt.Errorf("polygon with arcs: %w: path must begin with a single start point", ErrInvalidShape)
	}
	for i, e := range path[1:] {
		if e.Move <= MoveStart || e.Move > MoveArc {
			return fmt.Errorf("polygon with arcs: %w: element %d has move %d", ErrInvalidShape, i+1, e.Move)
		}
	}
	return r.staged("polygon with arcs", func() error {
		if err := r.Jump(path[0].X, path[0].Y); err != nil {
			return err
		}
		for _, e := range path[1:] {
			var err error
			switch e.Move {
			case MoveJump:
				err = r.Jump(e.X, e.Y)
			case MoveLine:
				err = r.Line(e.X, e.Y)
			case MoveArc:
				err = r.Arc(e.X, e.Y, e.AngleDeg)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Cylinder cuts the side profile of a cylinder of the given width and length
// passes times: a lead-in jump, the outline, and a lead-out line. The
// half-width is rounded half away from zero.
func (r *Runner) Cylinder(width, length, passes int) error {
	if width <= 0 || length <= 0 || passes <= 0 {
		return fmt.Errorf("cylinder: %w: dimensions and passes must be positive", ErrInvalidShape)
	}
	half := int(math.Round(float64(width) / 2))
	profile := []Vertex{
		{X: -width, Y: width},
		{X: 0, Y: half, LaserOn: true},
		{X: length, Y: half, LaserOn: true},
		{X: length, Y: -half, LaserOn: true},
		{X: 0, Y: -half, LaserOn: true},
		{X: -width, Y: -width, LaserOn: true},
	}
	vertices := make([]Vertex, 0, len(profile)*passes)
	for range passes {
		vertices = append(vertices, profile...)
	}
	return r.Polygon(vertices)
}
