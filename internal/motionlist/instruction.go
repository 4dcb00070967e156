package motionlist

import "fmt"

// Kind identifies the shape of a motion instruction.
type Kind int

const (
	Jump Kind = iota
	Line
	Arc
)

func (k Kind) String() string {
	switch k {
	case Jump:
		return "jump"
	case Line:
		return "line"
	case Arc:
		return "arc"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{Jump, Line, Arc} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown instruction kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Instruction is one entry of a motion list. AngleDeg is only meaningful
// for arcs.
type Instruction struct {
	Kind     Kind    `json:"kind"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	AngleDeg float64 `json:"angle_deg,omitempty"`
}

// JumpTo is a positioning move with the laser off.
func JumpTo(x, y int) Instruction { return Instruction{Kind: Jump, X: x, Y: y} }

// LineTo is a straight marking move.
func LineTo(x, y int) Instruction { return Instruction{Kind: Line, X: x, Y: y} }

// ArcTo is a circular marking move around the centre (x, y) through
// angleDeg degrees.
func ArcTo(x, y int, angleDeg float64) Instruction {
	return Instruction{Kind: Arc, X: x, Y: y, AngleDeg: angleDeg}
}

func (in Instruction) String() string {
	if in.Kind == Arc {
		return fmt.Sprintf("arc(%d,%d,%g°)", in.X, in.Y, in.AngleDeg)
	}
	return fmt.Sprintf("%s(%d,%d)", in.Kind, in.X, in.Y)
}
