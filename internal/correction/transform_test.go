package correction

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	id := Identity()
	assert.True(t, id.IsIdentity())
	for _, p := range [][2]int{{0, 0}, {100, 0}, {-524288, 524287}, {17, -3}} {
		x, y := id.Apply(p[0], p[1])
		assert.Equal(t, p[0], x)
		assert.Equal(t, p[1], y)
	}
}

func TestApply_MatchesRoundedProduct(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a, b, c, d := rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()
		x, y := rng.Intn(200001)-100000, rng.Intn(200001)-100000

		tr := NewTransform(a, b, c, d)
		gotX, gotY := tr.Apply(x, y)

		wantX := int(math.Round(a*float64(x) + b*float64(y)))
		wantY := int(math.Round(c*float64(x) + d*float64(y)))
		require.Equal(t, wantX, gotX, "matrix %v point (%d,%d)", tr, x, y)
		require.Equal(t, wantY, gotY, "matrix %v point (%d,%d)", tr, x, y)
	}
}

func TestApply_RoundsHalfAwayFromZero(t *testing.T) {
	half := NewTransform(0.5, 0, 0, 0.5)
	x, y := half.Apply(3, -3)
	assert.Equal(t, 2, x)
	assert.Equal(t, -2, y)
}

func TestApply_Rotation(t *testing.T) {
	rot := NewTransform(0, -1, 1, 0)
	x, y := rot.Apply(100, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 100, y)
	assert.False(t, rot.IsIdentity())
	assert.Equal(t, -1.0, rot.At(0, 1))
}

func TestParseTransform(t *testing.T) {
	cases := map[string]string{
		"whitespace": "1 0\n0 1\n",
		"numpy": "# coordinate transform\n" +
			"1.000000000000000000e+00 0.000000000000000000e+00\n" +
			"0.000000000000000000e+00 1.000000000000000000e+00\n",
		"commas":     "1, 0\r\n0, 1\r\n",
		"blank rows": "\n\n1\t0\n\n0\t1\n\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			tr, err := ParseTransform([]byte(in))
			require.NoError(t, err)
			assert.True(t, tr.IsIdentity())
		})
	}

	tr, err := ParseTransform([]byte("0.998 0.012 # row 1\n-0.011 1.003\n"))
	require.NoError(t, err)
	assert.InDelta(t, 0.012, tr.At(0, 1), 1e-12)
	assert.InDelta(t, -0.011, tr.At(1, 0), 1e-12)
}

func TestParseTransform_Invalid(t *testing.T) {
	for name, in := range map[string]string{
		"empty":         "",
		"one row":       "1 0\n",
		"three rows":    "1 0\n0 1\n0 0\n",
		"three columns": "1 0 0\n0 1 0\n",
		"not a number":  "1 x\n0 1\n",
		"nan":           "NaN 0\n0 1\n",
		"inf":           "1 0\n0 +Inf\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTransform([]byte(in))
			assert.Error(t, err)
		})
	}
}
