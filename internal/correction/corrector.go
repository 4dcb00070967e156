package correction

import (
	"github.com/banshee-data/rtc6-controller/internal/fsutil"
	"github.com/banshee-data/rtc6-controller/internal/monitoring"
)

// Corrector applies one Transform loaded at construction. A load failure
// never blocks motion: the identity is substituted and a warning logged.
type Corrector struct {
	transform *Transform
	source    string
	loadErr   error
}

// NewCorrector loads the transform at path, falling back to the identity.
func NewCorrector(fsys fsutil.FileSystem, path string) *Corrector {
	t, err := LoadTransform(fsys, path)
	if err != nil {
		monitoring.Warnf("using identity coordinate transform: %v", err)
		return &Corrector{transform: Identity(), source: path, loadErr: err}
	}
	monitoring.Logf("loaded coordinate transform from %s: %s", path, t)
	return &Corrector{transform: t, source: path}
}

// NewCorrectorFromTransform wraps an already built transform.
func NewCorrectorFromTransform(t *Transform) *Corrector {
	return &Corrector{transform: t}
}

// Correct maps a commanded point to the corrected hardware point.
func (c *Corrector) Correct(x, y int) (int, int) {
	return c.transform.Apply(x, y)
}

// Transform returns the matrix in use.
func (c *Corrector) Transform() *Transform { return c.transform }

// Source returns the file the transform was loaded from, if any.
func (c *Corrector) Source() string { return c.source }

// LoadError returns the recovered load failure, or nil if the file loaded.
func (c *Corrector) LoadError() error { return c.loadErr }
