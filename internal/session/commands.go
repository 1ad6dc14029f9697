package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"ramanid/internal/history"
	"ramanid/internal/pipeline"
	"ramanid/internal/spectrum"
)

// Command names as recorded in the history and in logs.
const (
	NameLoad               = "load"
	NameCrop               = "crop"
	NameEstimateBaseline   = "estimate_baseline"
	NameCorrectBaseline    = "correct_baseline"
	NameSmooth             = "smooth"
	NameAddPeak            = "add_peak"
	NameRemovePeak         = "remove_peak"
	NameDetectPeaks        = "detect_peaks"
	NameDiscretizeBaseline = "discretize_baseline"
	NameDragPoint          = "drag_point"
	NameFitPeaks           = "fit_peaks"
)

var (
	_ history.Command = (*Load)(nil)
	_ history.Command = (*Crop)(nil)
	_ history.Command = (*EstimateBaseline)(nil)
	_ history.Command = (*CorrectBaseline)(nil)
	_ history.Command = (*Smooth)(nil)
	_ history.Command = (*AddPeakPoint)(nil)
	_ history.Command = (*RemovePeakPoint)(nil)
	_ history.Command = (*DetectPeaks)(nil)
	_ history.Command = (*DiscretizeBaseline)(nil)
	_ history.Command = (*DragPoint)(nil)
	_ history.Command = (*FitPeaks)(nil)
)

// logMark remembers the edit log length at construction; undo truncates back
// to it so the log matches its prior state exactly.
type logMark struct {
	s   *Session
	len int
}

func markLog(s *Session) logMark { return logMark{s: s, len: len(s.Log)} }

func (m logMark) write(format string, args ...any) {
	m.s.Log = append(m.s.Log[:m.len:m.len], fmt.Sprintf(format, args...))
}

func (m logMark) restore() { m.s.Log = m.s.Log[:m.len:m.len] }

// Load replaces the session with a newly read spectrum. Derived state is
// cleared and the edit log restarts.
type Load struct {
	s    *Session
	path string
	next *spectrum.Spectrum
	prev Snapshot
}

// NewLoad prepares loading spec, read from path, into s.
func NewLoad(s *Session, path string, spec *spectrum.Spectrum) (*Load, error) {
	if spec == nil || spec.Len() == 0 {
		return nil, ErrNoSpectrum
	}
	return &Load{s: s, path: path, next: spec.Clone(), prev: s.Snapshot()}, nil
}

func (c *Load) Name() string { return NameLoad }

func (c *Load) Execute(context.Context) error {
	c.s.Source = c.path
	c.s.Spectrum = c.next
	c.s.Baseline = nil
	c.s.Control = nil
	c.s.Peaks = spectrum.PeakSet{}
	c.s.Fit = nil
	c.s.Log = []string{"Loaded file: " + c.path}
	return nil
}

func (c *Load) Undo() error {
	prev := c.prev
	c.s.Source = prev.Source
	c.s.Spectrum = prev.Spectrum
	c.s.Baseline = slices.Clone(prev.Baseline)
	c.s.Control = prev.Control.Clone()
	c.s.Peaks = prev.Peaks.Clone()
	c.s.Fit = prev.Fit.Clone()
	c.s.Log = slices.Clone(prev.Log)
	return nil
}

// Crop marks the samples between two positions as missing.
type Crop struct {
	s          *Session
	start, end float64
	prev, next *spectrum.Spectrum
	log        logMark
}

// NewCrop prepares cropping [start, end] out of the current spectrum. The
// bounds may be given in either order.
func NewCrop(s *Session, start, end float64) (*Crop, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if start > end {
		start, end = end, start
	}
	return &Crop{
		s:     s,
		start: start,
		end:   end,
		prev:  s.Spectrum,
		next:  s.Spectrum.Crop(start, end),
		log:   markLog(s),
	}, nil
}

func (c *Crop) Name() string { return NameCrop }

func (c *Crop) Execute(context.Context) error {
	c.s.Spectrum = c.next
	c.log.write("Cropped spectrum from %d to %d cm^-1", int(math.Round(c.start)), int(math.Round(c.end)))
	return nil
}

func (c *Crop) Undo() error {
	c.s.Spectrum = c.prev
	c.log.restore()
	return nil
}

// EstimateBaseline installs a computed baseline. Any discretized control
// points belong to the replaced baseline and are dropped.
type EstimateBaseline struct {
	s           *Session
	next        []float64
	prev        []float64
	prevControl *pipeline.ControlPoints
	log         logMark
}

// NewEstimateBaseline prepares installing baseline, which must be aligned
// with the current spectrum.
func NewEstimateBaseline(s *Session, baseline []float64) (*EstimateBaseline, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if len(baseline) != s.Spectrum.Len() {
		return nil, fmt.Errorf("%w: spectrum has %d samples, baseline has %d", spectrum.ErrLengthMismatch, s.Spectrum.Len(), len(baseline))
	}
	return &EstimateBaseline{
		s:           s,
		next:        slices.Clone(baseline),
		prev:        s.Baseline,
		prevControl: s.Control,
		log:         markLog(s),
	}, nil
}

func (c *EstimateBaseline) Name() string { return NameEstimateBaseline }

func (c *EstimateBaseline) Execute(context.Context) error {
	c.s.Baseline = c.next
	c.s.Control = nil
	c.log.write("Baseline estimate calculated")
	return nil
}

func (c *EstimateBaseline) Undo() error {
	c.s.Baseline = c.prev
	c.s.Control = c.prevControl
	c.log.restore()
	return nil
}

// CorrectBaseline subtracts the current baseline from the spectrum. The
// baseline is consumed; undo restores both the spectrum and the exact prior
// baseline.
type CorrectBaseline struct {
	s            *Session
	prev, next   *spectrum.Spectrum
	prevBaseline []float64
	prevControl  *pipeline.ControlPoints
	log          logMark
}

// NewCorrectBaseline prepares the subtraction.
func NewCorrectBaseline(s *Session) (*CorrectBaseline, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if s.Baseline == nil {
		return nil, ErrNoBaseline
	}
	next, err := s.Spectrum.Subtract(s.Baseline)
	if err != nil {
		return nil, err
	}
	return &CorrectBaseline{
		s:            s,
		prev:         s.Spectrum,
		next:         next,
		prevBaseline: s.Baseline,
		prevControl:  s.Control,
		log:          markLog(s),
	}, nil
}

func (c *CorrectBaseline) Name() string { return NameCorrectBaseline }

func (c *CorrectBaseline) Execute(context.Context) error {
	c.s.Spectrum = c.next
	c.s.Baseline = nil
	c.s.Control = nil
	c.log.write("Baseline corrected")
	return nil
}

func (c *CorrectBaseline) Undo() error {
	c.s.Spectrum = c.prev
	c.s.Baseline = c.prevBaseline
	c.s.Control = c.prevControl
	c.log.restore()
	return nil
}

// Smooth replaces the spectrum with its Savitzky-Golay filtered version.
type Smooth struct {
	s          *Session
	prev, next *spectrum.Spectrum
	opts       pipeline.SmoothOptions
	log        logMark
}

// NewSmooth filters the current spectrum with opts.
func NewSmooth(s *Session, opts pipeline.SmoothOptions) (*Smooth, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	y, err := pipeline.Smooth(s.Spectrum.Y, opts)
	if err != nil {
		return nil, err
	}
	next, err := s.Spectrum.WithY(y)
	if err != nil {
		return nil, err
	}
	return &Smooth{s: s, prev: s.Spectrum, next: next, opts: opts, log: markLog(s)}, nil
}

func (c *Smooth) Name() string { return NameSmooth }

func (c *Smooth) Execute(context.Context) error {
	c.s.Spectrum = c.next
	c.log.write("Smoothed spectrum (window %d, order %d)", c.opts.WindowLength, c.opts.PolyOrder)
	return nil
}

func (c *Smooth) Undo() error {
	c.s.Spectrum = c.prev
	c.log.restore()
	return nil
}

// peakEdit swaps between two peak sets.
type peakEdit struct {
	s          *Session
	prev, next spectrum.PeakSet
	log        logMark
}

func (e *peakEdit) apply(format string, args ...any) {
	e.s.Peaks = e.next.Clone()
	e.log.write(format, args...)
}

func (e *peakEdit) Undo() error {
	e.s.Peaks = e.prev.Clone()
	e.log.restore()
	return nil
}

// AddPeakPoint appends one peak.
type AddPeakPoint struct {
	peakEdit
	x, y float64
}

// NewAddPeakPoint prepares adding (x, y) to the peak set.
func NewAddPeakPoint(s *Session, x, y float64) (*AddPeakPoint, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("invalid peak position %v", x)
	}
	return &AddPeakPoint{
		peakEdit: peakEdit{s: s, prev: s.Peaks.Clone(), next: s.Peaks.Add(x, y), log: markLog(s)},
		x:        x,
		y:        y,
	}, nil
}

func (c *AddPeakPoint) Name() string { return NameAddPeak }

func (c *AddPeakPoint) Execute(context.Context) error {
	c.apply("Added peak at %.2f cm^-1", c.x)
	return nil
}

// RemovePeakPoint deletes the peak at an index.
type RemovePeakPoint struct {
	peakEdit
	x float64
}

// NewRemovePeakPoint prepares removing the peak at idx.
func NewRemovePeakPoint(s *Session, idx int) (*RemovePeakPoint, error) {
	next, err := s.Peaks.Remove(idx)
	if err != nil {
		return nil, err
	}
	return &RemovePeakPoint{
		peakEdit: peakEdit{s: s, prev: s.Peaks.Clone(), next: next, log: markLog(s)},
		x:        s.Peaks.X[idx],
	}, nil
}

func (c *RemovePeakPoint) Name() string { return NameRemovePeak }

func (c *RemovePeakPoint) Execute(context.Context) error {
	c.apply("Removed peak at %.2f cm^-1", c.x)
	return nil
}

// DetectPeaks replaces the peak set with the local maxima of the spectrum.
type DetectPeaks struct {
	peakEdit
}

// NewDetectPeaks runs peak detection on the current spectrum.
func NewDetectPeaks(s *Session, opts pipeline.PeakOptions) (*DetectPeaks, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	found, err := pipeline.FindPeaks(s.Spectrum.X, s.Spectrum.Y, opts)
	if err != nil {
		return nil, err
	}
	return &DetectPeaks{peakEdit{s: s, prev: s.Peaks.Clone(), next: found, log: markLog(s)}}, nil
}

func (c *DetectPeaks) Name() string { return NameDetectPeaks }

func (c *DetectPeaks) Execute(context.Context) error {
	c.apply("Detected %d peaks", c.next.Len())
	return nil
}

// baselineEdit swaps the control points and the baseline interpolated from them.
type baselineEdit struct {
	s            *Session
	prevControl  *pipeline.ControlPoints
	nextControl  *pipeline.ControlPoints
	prevBaseline []float64
	nextBaseline []float64
	log          logMark
}

func newBaselineEdit(s *Session, next *pipeline.ControlPoints) baselineEdit {
	return baselineEdit{
		s:            s,
		prevControl:  s.Control,
		nextControl:  next,
		prevBaseline: s.Baseline,
		nextBaseline: next.Interpolate(s.Spectrum.X),
		log:          markLog(s),
	}
}

func (e *baselineEdit) apply(format string, args ...any) {
	e.s.Control = e.nextControl
	e.s.Baseline = e.nextBaseline
	e.log.write(format, args...)
}

func (e *baselineEdit) Undo() error {
	e.s.Control = e.prevControl
	e.s.Baseline = e.prevBaseline
	e.log.restore()
	return nil
}

// DiscretizeBaseline samples the baseline at a fixed step into draggable
// control points and replaces the baseline with their interpolation.
type DiscretizeBaseline struct {
	baselineEdit
	step float64
}

// NewDiscretizeBaseline prepares discretizing the current baseline every step.
func NewDiscretizeBaseline(s *Session, step float64) (*DiscretizeBaseline, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if s.Baseline == nil {
		return nil, ErrNoBaseline
	}
	points, err := pipeline.Discretize(s.Spectrum.X, s.Baseline, step)
	if err != nil {
		return nil, err
	}
	return &DiscretizeBaseline{baselineEdit: newBaselineEdit(s, points), step: step}, nil
}

func (c *DiscretizeBaseline) Name() string { return NameDiscretizeBaseline }

func (c *DiscretizeBaseline) Execute(context.Context) error {
	c.apply("Discretized baseline into %d points every %g cm^-1", c.nextControl.Len(), c.step)
	return nil
}

// DragPoint moves one control point and re-interpolates the baseline.
type DragPoint struct {
	baselineEdit
	index        int
	fromX, fromY float64
	toX, toY     float64
}

// NewDragPoint prepares moving control point idx to (x, y).
func NewDragPoint(s *Session, idx int, x, y float64) (*DragPoint, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if s.Control.Len() == 0 {
		return nil, ErrNoControlPoints
	}
	moved, err := s.Control.Move(idx, x, y)
	if err != nil {
		return nil, err
	}
	return &DragPoint{
		baselineEdit: newBaselineEdit(s, moved),
		index:        idx,
		fromX:        s.Control.X[idx],
		fromY:        s.Control.Y[idx],
		toX:          x,
		toY:          y,
	}, nil
}

func (c *DragPoint) Name() string { return NameDragPoint }

func (c *DragPoint) Execute(context.Context) error {
	c.apply("Moved baseline point %d from (%.1f, %.3g) to (%.1f, %.3g)", c.index+1, c.fromX, c.fromY, c.toX, c.toY)
	return nil
}

// FitPeaks fits one Gaussian per peak position. The fit runs on the first
// execute; redo reinstalls the same result.
type FitPeaks struct {
	s             *Session
	x, y          []float64
	centers       []float64
	opts          pipeline.FitOptions
	acceptPartial bool
	prev          *pipeline.FitResult
	result        *pipeline.FitResult
	log           logMark
}

// NewFitPeaks prepares a fit of the current spectrum seeded at the current
// peak positions. With acceptPartial, a fit that exhausts its budget is kept
// and flagged as not converged instead of failing.
func NewFitPeaks(s *Session, opts pipeline.FitOptions, acceptPartial bool) (*FitPeaks, error) {
	if s.Spectrum == nil {
		return nil, ErrNoSpectrum
	}
	if s.Peaks.Len() == 0 {
		return nil, ErrNoPeaks
	}
	return &FitPeaks{
		s:             s,
		x:             s.Spectrum.X,
		y:             s.Spectrum.Y,
		centers:       s.PeakPositions(),
		opts:          opts,
		acceptPartial: acceptPartial,
		prev:          s.Fit,
		log:           markLog(s),
	}, nil
}

func (c *FitPeaks) Name() string { return NameFitPeaks }

func (c *FitPeaks) Execute(ctx context.Context) error {
	if c.result == nil {
		result, err := pipeline.FitGaussians(ctx, c.x, c.y, c.centers, c.opts)
		switch {
		case err == nil:
		case errors.Is(err, pipeline.ErrNotConverged) && c.acceptPartial && result != nil:
		default:
			return err
		}
		c.result = result
	}
	c.s.Fit = c.result.Clone()
	if c.result.Converged {
		c.log.write("Fitted %d peaks (R² %.4f)", len(c.centers), c.result.RSquared)
	} else {
		c.log.write("Fitted %d peaks without converging after %d evaluations", len(c.centers), c.result.Evaluations)
	}
	return nil
}

func (c *FitPeaks) Undo() error {
	c.s.Fit = c.prev
	c.log.restore()
	return nil
}

// Result returns the fit computed by the first successful execute.
func (c *FitPeaks) Result() *pipeline.FitResult { return c.result.Clone() }
