package session

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"ramanid/internal/config"
	"ramanid/internal/history"
	"ramanid/internal/ingest"
	"ramanid/internal/logging"
	"ramanid/internal/pipeline"
	"ramanid/internal/spectrum"
)

// Editor serializes edits to one session and records them in its history.
// Expensive inputs are computed before a command is built, so a cancelled
// computation leaves the session and history untouched.
type Editor struct {
	mu      sync.Mutex
	cfg     *config.Config
	logger  *slog.Logger
	session *Session
	history *history.History
}

// NewEditor returns an editor over a fresh session.
func NewEditor(cfg *config.Config, logger *slog.Logger) *Editor {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	return &Editor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "session"),
		session: New(),
		history: history.New(),
	}
}

// ID returns the session identifier.
func (e *Editor) ID() string { return e.session.ID }

// Snapshot returns a deep copy of the session state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot()
}

// HistoryState reports the undo cursor position.
func (e *Editor) HistoryState() history.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.State()
}

// History lists the recorded command names and the index of the last
// applied one (-1 when none).
func (e *Editor) History() ([]string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Names(), e.history.Cursor()
}

// apply builds a command under the lock and executes it through the history.
func (e *Editor) apply(ctx context.Context, name string, build func() (history.Command, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = logging.WithCommand(logging.WithSessionID(ctx, e.session.ID), name)
	logger := logging.WithContext(ctx, e.logger)

	cmd, err := build()
	if err == nil {
		err = e.history.Execute(ctx, cmd)
	}
	if err != nil {
		logging.WarnWithContext(logger, "command rejected", "command_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "session left unchanged"),
		)
		return err
	}
	logger.Info("command executed",
		logging.String(logging.FieldEventType, "command_executed"),
		logging.String("log", lastLine(e.session.Log)),
		logging.Int("history", e.history.Cursor()),
	)
	return nil
}

func lastLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// Load reads a spectrum file and loads it.
func (e *Editor) Load(ctx context.Context, path string) error {
	spec, err := ingest.ReadFile(path)
	if err != nil {
		return err
	}
	return e.LoadSpectrum(ctx, path, spec)
}

// LoadSpectrum loads an already parsed spectrum attributed to source.
func (e *Editor) LoadSpectrum(ctx context.Context, source string, spec *spectrum.Spectrum) error {
	return e.apply(ctx, NameLoad, func() (history.Command, error) {
		return NewLoad(e.session, source, spec)
	})
}

// Crop marks the samples between start and end as missing.
func (e *Editor) Crop(ctx context.Context, start, end float64) error {
	return e.apply(ctx, NameCrop, func() (history.Command, error) {
		return NewCrop(e.session, start, end)
	})
}

// SuggestedCrop returns the x range at the low end of the spectrum that looks
// like a filter edge worth cropping.
func (e *Editor) SuggestedCrop() (start, end float64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	spec := e.session.Spectrum
	if spec == nil {
		return 0, 0, false
	}
	idx := pipeline.SuggestCrop(spec.Y)
	if idx < 0 || idx >= spec.Len() {
		return 0, 0, false
	}
	return spec.X[0], spec.X[idx], true
}

// EstimateBaseline computes an ALS baseline with the configured parameters
// and installs it. Cancelling ctx abandons the computation without recording
// anything.
func (e *Editor) EstimateBaseline(ctx context.Context) error {
	return e.apply(ctx, NameEstimateBaseline, func() (history.Command, error) {
		if e.session.Spectrum == nil {
			return nil, ErrNoSpectrum
		}
		baseline, err := pipeline.BaselineALS(ctx, e.session.Spectrum.Y, e.cfg.ALSOptions())
		if err != nil {
			return nil, err
		}
		return NewEstimateBaseline(e.session, baseline)
	})
}

// CorrectBaseline subtracts the current baseline.
func (e *Editor) CorrectBaseline(ctx context.Context) error {
	return e.apply(ctx, NameCorrectBaseline, func() (history.Command, error) {
		return NewCorrectBaseline(e.session)
	})
}

// Smooth applies the configured Savitzky-Golay filter.
func (e *Editor) Smooth(ctx context.Context) error {
	return e.apply(ctx, NameSmooth, func() (history.Command, error) {
		return NewSmooth(e.session, e.cfg.SmoothOptions())
	})
}

// AddPeak adds a peak at (x, y).
func (e *Editor) AddPeak(ctx context.Context, x, y float64) error {
	return e.apply(ctx, NameAddPeak, func() (history.Command, error) {
		return NewAddPeakPoint(e.session, x, y)
	})
}

// RemovePeak removes the peak at idx.
func (e *Editor) RemovePeak(ctx context.Context, idx int) error {
	return e.apply(ctx, NameRemovePeak, func() (history.Command, error) {
		return NewRemovePeakPoint(e.session, idx)
	})
}

// DetectPeaks replaces the peak set using the configured detection options.
func (e *Editor) DetectPeaks(ctx context.Context) error {
	return e.apply(ctx, NameDetectPeaks, func() (history.Command, error) {
		return NewDetectPeaks(e.session, e.cfg.PeakOptions())
	})
}

// DiscretizeBaseline converts the baseline into draggable control points.
func (e *Editor) DiscretizeBaseline(ctx context.Context) error {
	return e.apply(ctx, NameDiscretizeBaseline, func() (history.Command, error) {
		return NewDiscretizeBaseline(e.session, e.cfg.Baseline.DiscreteStep)
	})
}

// DragPoint moves control point idx to (x, y).
func (e *Editor) DragPoint(ctx context.Context, idx int, x, y float64) error {
	return e.apply(ctx, NameDragPoint, func() (history.Command, error) {
		return NewDragPoint(e.session, idx, x, y)
	})
}

// FitPeaks fits Gaussians at the current peak positions.
func (e *Editor) FitPeaks(ctx context.Context) error {
	return e.apply(ctx, NameFitPeaks, func() (history.Command, error) {
		return NewFitPeaks(e.session, e.cfg.FitOptions(), e.cfg.Fit.AcceptPartial)
	})
}

// Undo reverts the most recent applied command. It is a no-op when there is
// nothing to undo.
func (e *Editor) Undo(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.history.CanUndo() {
		return nil
	}
	if err := e.history.Undo(); err != nil {
		return err
	}
	logging.WithContext(logging.WithSessionID(ctx, e.session.ID), e.logger).
		Info("command undone", logging.Int("history", e.history.Cursor()))
	return nil
}

// Redo reapplies the next undone command. It is a no-op at the tip.
func (e *Editor) Redo(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.history.CanRedo() {
		return nil
	}
	if err := e.history.Redo(ctx); err != nil {
		return err
	}
	logging.WithContext(logging.WithSessionID(ctx, e.session.ID), e.logger).
		Info("command redone", logging.Int("history", e.history.Cursor()))
	return nil
}

// Save writes the current spectrum as "x y" lines. A relative or empty path
// is placed in the configured output directory; an empty path is derived
// from the source file name.
func (e *Editor) Save(path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	spec := e.session.Spectrum
	if spec == nil {
		return "", ErrNoSpectrum
	}
	if strings.TrimSpace(path) == "" {
		path = processedName(e.session.Source)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(e.cfg.Paths.OutputDir, path)
	}
	if err := spec.SaveText(path); err != nil {
		return "", err
	}
	e.logger.Info("spectrum saved",
		logging.String(logging.FieldSessionID, e.session.ID),
		logging.String(logging.FieldFile, path),
	)
	return path, nil
}

func processedName(source string) string {
	base := filepath.Base(source)
	if source == "" || base == "." || base == string(filepath.Separator) {
		return "spectrum_processed.txt"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_processed.txt"
}

// IsUserError reports whether err stems from editing in the wrong order
// rather than from bad data or a numeric failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoSpectrum) || errors.Is(err, ErrNoBaseline) ||
		errors.Is(err, ErrNoPeaks) || errors.Is(err, ErrNoControlPoints)
}
