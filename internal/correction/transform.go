// Package correction applies the linear coordinate-system correction that
// compensates for optical and mechanical distortion between commanded and
// physical scanner positions.
package correction

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/rtc6-controller/internal/fsutil"
)

// ErrFileLoad is returned when the transform file is missing or corrupt.
var ErrFileLoad = errors.New("coordinate transform file load failed")

// maxFileSize bounds the transform file; a 2x2 matrix is a few dozen bytes.
const maxFileSize = 64 * 1024

// Transform is an immutable 2x2 matrix applied to scanner coordinates.
type Transform struct {
	m *mat.Dense
}

// Identity returns the transform that leaves points unchanged.
func Identity() *Transform {
	return NewTransform(1, 0, 0, 1)
}

// NewTransform builds the row-major matrix [[a b] [c d]].
func NewTransform(a, b, c, d float64) *Transform {
	return &Transform{m: mat.NewDense(2, 2, []float64{a, b, c, d})}
}

// At returns element (i, j).
func (t *Transform) At(i, j int) float64 { return t.m.At(i, j) }

// IsIdentity reports whether t is exactly the identity.
func (t *Transform) IsIdentity() bool {
	return mat.Equal(t.m, Identity().m)
}

func (t *Transform) String() string {
	return fmt.Sprintf("%v", mat.Formatted(t.m, mat.Squeeze()))
}

// Apply returns round(M·[x y]) with halves rounded away from zero.
func (t *Transform) Apply(x, y int) (int, int) {
	var out mat.VecDense
	out.MulVec(t.m, mat.NewVecDense(2, []float64{float64(x), float64(y)}))
	return int(math.Round(out.AtVec(0))), int(math.Round(out.AtVec(1)))
}

// ParseTransform reads a plain-text 2x2 matrix: two non-empty rows of two
// numbers separated by whitespace or commas. Blank lines and '#' comments
// are ignored, which accepts numpy savetxt output.
func ParseTransform(data []byte) (*Transform, error) {
	var values []float64
	rows := 0
	for lineNo, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 values, got %d", lineNo+1, len(fields))
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("line %d: non-finite value %q", lineNo+1, f)
			}
			values = append(values, v)
		}
		rows++
	}
	if rows != 2 {
		return nil, fmt.Errorf("expected 2 rows, got %d", rows)
	}
	return NewTransform(values[0], values[1], values[2], values[3]), nil
}

// LoadTransform reads and parses the transform file at path. Every failure
// wraps ErrFileLoad.
func LoadTransform(fsys fsutil.FileSystem, path string) (*Transform, error) {
	data, err := fsutil.ReadLimited(fsys, path, maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileLoad, err)
	}
	t, err := ParseTransform(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileLoad, path, err)
	}
	return t, nil
}
