// Package session holds the editable state of one spectrum being prepared
// for identification and the reversible commands that change it.
//
// Every command captures the state it will need to restore when it is built,
// so undo is well defined even for a command that never ran. Commands only
// touch Session fields; rendering is left to whoever observes the session.
package session

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"ramanid/internal/pipeline"
	"ramanid/internal/spectrum"
)

var (
	// ErrNoSpectrum indicates an edit that needs a loaded spectrum.
	ErrNoSpectrum = errors.New("no spectrum loaded")
	// ErrNoBaseline indicates an edit that needs an estimated baseline.
	ErrNoBaseline = errors.New("no baseline estimated")
	// ErrNoPeaks indicates an edit that needs at least one peak.
	ErrNoPeaks = errors.New("no peaks selected")
	// ErrNoControlPoints indicates a drag without a discretized baseline.
	ErrNoControlPoints = errors.New("baseline not discretized")
)

// Session is the state owned by one editing session.
type Session struct {
	ID     string
	Source string
	// Spectrum is the current snapshot. It is replaced, never edited in place.
	Spectrum *spectrum.Spectrum
	// Baseline is aligned with Spectrum.X; nil when none is estimated.
	Baseline []float64
	// Control holds the draggable points of a discretized baseline.
	Control *pipeline.ControlPoints
	Peaks   spectrum.PeakSet
	Fit     *pipeline.FitResult
	Log     []string
}

// New returns an empty session with a fresh identifier.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Snapshot is a deep copy of the session's editable state.
type Snapshot struct {
	Source   string
	Spectrum *spectrum.Spectrum
	Baseline []float64
	Control  *pipeline.ControlPoints
	Peaks    spectrum.PeakSet
	Fit      *pipeline.FitResult
	Log      []string
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Source:   s.Source,
		Spectrum: s.Spectrum.Clone(),
		Baseline: slices.Clone(s.Baseline),
		Control:  s.Control.Clone(),
		Peaks:    s.Peaks.Clone(),
		Fit:      s.Fit.Clone(),
		Log:      slices.Clone(s.Log),
	}
}

// Equal reports whether two snapshots describe the same state. Missing
// samples compare equal.
func (a Snapshot) Equal(b Snapshot) bool {
	if a.Source != b.Source || !a.Spectrum.Equal(b.Spectrum) {
		return false
	}
	if (a.Baseline == nil) != (b.Baseline == nil) || !spectrum.FloatsEqual(a.Baseline, b.Baseline) {
		return false
	}
	if !controlEqual(a.Control, b.Control) || !a.Peaks.Equal(b.Peaks) {
		return false
	}
	if !fitEqual(a.Fit, b.Fit) {
		return false
	}
	return slices.Equal(a.Log, b.Log)
}

func controlEqual(a, b *pipeline.ControlPoints) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return spectrum.FloatsEqual(a.X, b.X) && spectrum.FloatsEqual(a.Y, b.Y)
}

func fitEqual(a, b *pipeline.FitResult) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Converged != b.Converged || a.Evaluations != b.Evaluations || !slices.Equal(a.Labels, b.Labels) {
		return false
	}
	for label, stats := range a.Peaks {
		if b.Peaks[label] != stats {
			return false
		}
	}
	return len(a.Peaks) == len(b.Peaks)
}

// PeakPositions returns the selected peak positions in ascending order.
func (s *Session) PeakPositions() []float64 {
	return s.Peaks.Positions()
}
