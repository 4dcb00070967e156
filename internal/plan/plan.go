// Package plan drives common drawing sequences through the controller's
// attribute tree: stage, append moves, then trigger execution.
package plan

import (
	"errors"
	"fmt"

	"github.com/banshee-data/rtc6-controller/internal/monitoring"
)

// ErrInvalidShape is returned for shapes that cannot be drawn.
var ErrInvalidShape = errors.New("invalid shape")

// Target is the part of the controller a plan needs.
type Target interface {
	Write(name string, v any) error
	Run(name string) error
}

// Settings are written to the card when a plan stages.
type Settings struct {
	LaserMode    string
	LaserControl int
}

// DefaultSettings stages a YAG5 laser with control bits cleared.
func DefaultSettings() Settings {
	return Settings{LaserMode: "YAG5", LaserControl: 0}
}

// Point is a position in card bits.
type Point struct{ X, Y int }

// Runner issues plans against one target. Plans stop at the first error;
// whatever was already appended stays on the card. A staged plan that fails
// after Stage never executes its partial list and leaves it Open, so the
// next Stage fails with a protocol violation until the caller ends and
// executes that list.
type Runner struct {
	t        Target
	settings Settings
}

// NewRunner returns a runner that stages with s.
func NewRunner(t Target, s Settings) *Runner {
	return &Runner{t: t, settings: s}
}

// Stage sets the laser mode and control and opens a new list.
func (r *Runner) Stage() error {
	if err := r.t.Write("control.laser_mode", r.settings.LaserMode); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if err := r.t.Write("control.laser_control", r.settings.LaserControl); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	if err := r.t.Run("list.init_list"); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	return nil
}

// Trigger terminates the open list and executes it.
func (r *Runner) Trigger() error {
	if err := r.t.Run("list.end_list"); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	if err := r.t.Run("list.execute_list"); err != nil {
		return fmt.Errorf("trigger: %w", err)
	}
	return nil
}

func (r *Runner) point(prefix string, x, y int) error {
	if err := r.t.Write(prefix+".x", x); err != nil {
		return err
	}
	if err := r.t.Write(prefix+".y", y); err != nil {
		return err
	}
	return nil
}

// Jump appends a jump to (x, y).
func (r *Runner) Jump(x, y int) error {
	if err := r.point("list.add_jump", x, y); err != nil {
		return err
	}
	return r.t.Run("list.add_jump.proc")
}

// Line appends a marked line to (x, y).
func (r *Runner) Line(x, y int) error {
	if err := r.point("list.add_line", x, y); err != nil {
		return err
	}
	return r.t.Run("list.add_line.proc")
}

// Arc appends an arc about centre (x, y) sweeping angleDeg degrees.
func (r *Runner) Arc(x, y int, angleDeg float64) error {
	if err := r.point("list.add_arc", x, y); err != nil {
		return err
	}
	if err := r.t.Write("list.add_arc.angle", angleDeg); err != nil {
		return err
	}
	return r.t.Run("list.add_arc.proc")
}

// Rectangle appends an outline with its lower left corner at origin and its
// opposite corner at (x, y). It neither stages nor triggers.
func (r *Runner) Rectangle(x, y int, origin Point) error {
	if err := r.Jump(origin.X, origin.Y); err != nil {
		return err
	}
	for _, p := range []Point{{x, origin.Y}, {x, y}, {origin.X, y}, origin} {
		if err := r.Line(p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

// staged wraps body in Stage and Trigger. Trigger only runs if body
// succeeds.
func (r *Runner) staged(name string, body func() error) error {
	monitoring.Logf("plan %s started", name)
	if err := r.Stage(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := body(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := r.Trigger(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	monitoring.Logf("plan %s executing", name)
	return nil
}

// Square draws a size × size square from the origin.
func (r *Runner) Square(size int) error {
	return r.staged("square", func() error {
		return r.Rectangle(size, size, Point{})
	})
}

// GoToHome stages a list holding a single jump to (0, 0) and executes it,
// so the beam is parked at the origin when it returns.
func (r *Runner) GoToHome() error {
	return r.staged("go to home", func() error {
		return r.Jump(0, 0)
	})
}
