package correction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/rtc6-controller/internal/fsutil"
	"github.com/banshee-data/rtc6-controller/internal/monitoring"
)

func captureLogs(t *testing.T) *[]string {
	t.Helper()
	original := monitoring.Logf
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return &lines
}

func TestLoadTransform(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/corr/coord_transform", []byte("2 0\n0 2\n"))

	tr, err := LoadTransform(fsys, "/corr/coord_transform")
	require.NoError(t, err)
	x, y := tr.Apply(10, -4)
	assert.Equal(t, 20, x)
	assert.Equal(t, -8, y)
}

func TestLoadTransform_Errors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/corr/bad", []byte("garbage\n"))

	_, err := LoadTransform(fsys, "/corr/missing")
	assert.True(t, errors.Is(err, ErrFileLoad))

	_, err = LoadTransform(fsys, "/corr/bad")
	assert.True(t, errors.Is(err, ErrFileLoad))
	assert.Contains(t, err.Error(), "/corr/bad")
}

func TestNewCorrector_FallsBackToIdentity(t *testing.T) {
	logs := captureLogs(t)
	c := NewCorrector(fsutil.NewMemoryFileSystem(), "/corr/missing")

	assert.True(t, c.Transform().IsIdentity())
	assert.ErrorIs(t, c.LoadError(), ErrFileLoad)
	assert.Equal(t, "/corr/missing", c.Source())
	x, y := c.Correct(123, -456)
	assert.Equal(t, 123, x)
	assert.Equal(t, -456, y)

	require.NotEmpty(t, *logs)
	assert.Contains(t, (*logs)[0], "warning:")
}

func TestNewCorrector_CorruptFile(t *testing.T) {
	captureLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/corr/t", []byte("1 0\n"))

	c := NewCorrector(fsys, "/corr/t")
	assert.True(t, c.Transform().IsIdentity())
	assert.Error(t, c.LoadError())
}

func TestNewCorrector_Loaded(t *testing.T) {
	captureLogs(t)
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("/corr/t", []byte("0 -1\n1 0\n"))

	c := NewCorrector(fsys, "/corr/t")
	require.NoError(t, c.LoadError())
	x, y := c.Correct(100, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 100, y)
}

func TestNewCorrectorFromTransform(t *testing.T) {
	c := NewCorrectorFromTransform(NewTransform(1, 0, 0, -1))
	x, y := c.Correct(5, 5)
	assert.Equal(t, 5, x)
	assert.Equal(t, -5, y)
	assert.Empty(t, c.Source())
}
