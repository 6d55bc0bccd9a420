package heatmap

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"time"

	"periph.io/x/devices/v3/heatmap/keyrgb"
)

const (
	// counterCeiling is the running maximum at which an increment forces an
	// immediate rescale so no counter can reach 2^15.
	counterCeiling = math.MaxInt16

	// stopResolution is the number of counts per gradient stop above which
	// the periodic check rescales. After halving there are at least 256
	// counts between two adjacent stops.
	stopResolution = 512

	// DefaultUpdateInterval is the minimum time between two renders.
	DefaultUpdateInterval = time.Second

	// MaxUpdateInterval is the longest interval the wrapping millisecond
	// clock can schedule.
	MaxUpdateInterval = math.MaxInt32 * time.Millisecond
)

// ErrEmptyGradient is returned when a gradient has no stops.
// It matches keyrgb.ErrEmptyGradient with errors.Is.
var ErrEmptyGradient = fmt.Errorf("heatmap: %w", keyrgb.ErrEmptyGradient)

// ErrInvalidSize is returned when the key matrix dimensions are not positive.
var ErrInvalidSize = errors.New("heatmap: rows and cols must be positive")

// Opts is the configuration for the heatmap engine.
type Opts struct {
	// Key matrix dimensions
	Rows int // Default: 4
	Cols int // Default: 16

	// Gradient from cold to hot (default: off, green, yellow, red)
	Gradient keyrgb.Gradient

	// Minimum time between renders (default: 1s)
	UpdateInterval time.Duration

	// Clock used by Render (default: monotonic clock starting at New)
	Clock Clock

	// Logger for rescale and gradient events (default: discarded)
	Logger *slog.Logger
}

// Engine is the per-key heatmap state.
//
// Engine is not safe for concurrent use. The host calls every entry point
// from a single cooperative loop.
type Engine struct {
	// Collaborators
	sink  LEDSink
	clock Clock
	log   *slog.Logger

	// Key matrix
	rows, cols int
	counts     []uint16 // Press counters, row-major
	highest    uint16   // Upper bound of counts, never below 1

	// Rendering
	gradient   keyrgb.Gradient
	interval   uint32 // Milliseconds
	nextUpdate uint32
	scheduled  bool // nextUpdate is valid
	frame      *keyrgb.Frame

	// State
	halted bool
}

// New creates a heatmap engine pushing colors to sink.
//
// opts can be nil to use defaults (4x16 matrix, default gradient, 1s interval).
func New(sink LEDSink, opts *Opts) (*Engine, error) {
	if sink == nil {
		return nil, errors.New("heatmap: sink is required")
	}
	if opts == nil {
		opts = &Opts{}
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 && cols == 0 {
		rows, cols = 4, 16
	}
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidSize
	}

	gradient := opts.Gradient
	if gradient == nil {
		gradient = keyrgb.DefaultGradient
	}
	if len(gradient) == 0 {
		return nil, ErrEmptyGradient
	}

	interval := opts.UpdateInterval
	if interval == 0 {
		interval = DefaultUpdateInterval
	}
	if err := checkInterval(interval); err != nil {
		return nil, err
	}

	clock := opts.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		sink:     sink,
		clock:    clock,
		log:      logger,
		rows:     rows,
		cols:     cols,
		counts:   make([]uint16, rows*cols),
		highest:  1,
		gradient: gradient.Clone(),
		interval: uint32(interval.Milliseconds()),
		frame:    keyrgb.NewFrame(cols, rows),
	}, nil
}

// OnKeyswitchEvent counts a key press.
//
// Injected events and anything other than the press edge are ignored. The
// event is never consumed.
func (e *Engine) OnKeyswitchEvent(key *Key, row, col int, state KeyState) EventHandlerResult {
	if state&Injected != 0 {
		return EventHandlerResultOK
	}
	if !KeyToggledOn(state) {
		return EventHandlerResultOK
	}
	if row < 0 || row >= e.rows || col < 0 || col >= e.cols {
		return EventHandlerResultOK
	}

	i := row*e.cols + col
	e.counts[i]++

	if e.counts[i] > e.highest {
		e.highest = e.counts[i]

		// The periodic check normally rescales long before this fires.
		if e.highest >= counterCeiling {
			e.Rescale()
		}
	}

	return EventHandlerResultOK
}

// BeforeEachCycle rescales the counters once the running maximum exceeds
// 512 counts per gradient stop.
func (e *Engine) BeforeEachCycle() EventHandlerResult {
	threshold := len(e.gradient) * stopResolution
	for int(e.highest) > threshold {
		e.Rescale()
	}
	return EventHandlerResultOK
}

// Rescale halves every counter and the running maximum.
// Remainders are dropped.
func (e *Engine) Rescale() {
	for i := range e.counts {
		e.counts[i] >>= 1
	}
	e.highest >>= 1
	if e.highest == 0 {
		e.highest = 1
	}
	e.log.Debug("heatmap: rescaled", "highest", e.highest)
}

// ComputeColor samples the gradient at ratio.
//
// Ratios at or below 0 yield the first stop and ratios at or above 1 yield the
// last stop. In between, the two surrounding stops are blended linearly on
// each channel.
func (e *Engine) ComputeColor(ratio float32) keyrgb.RGB {
	last := len(e.gradient) - 1

	// !(ratio > 0) also catches NaN.
	if !(ratio > 0) {
		return e.gradient[0]
	}
	if ratio >= 1 {
		return e.gradient[last]
	}

	scaled := ratio * float32(last)
	idx1 := int(scaled)
	if idx1 >= last {
		return e.gradient[last]
	}
	frac := scaled - float32(idx1)

	return keyrgb.Lerp(e.gradient[idx1], e.gradient[idx1+1], frac)
}

// Activate schedules a render on the next Update.
func (e *Engine) Activate() {
	e.scheduled = false
}

// Update renders the heatmap if the update interval elapsed since the last
// render. now is the platform monotonic time in milliseconds.
//
// All keys are pushed to the sink in the same call. When the sink implements
// Syncer, Sync is called once after the last key.
func (e *Engine) Update(now uint32) {
	if e.halted {
		return
	}
	// Wrap-safe comparison of the millisecond counter.
	if e.scheduled && int32(now-e.nextUpdate) < 0 {
		return
	}
	e.nextUpdate = now + e.interval
	e.scheduled = true

	highest := float32(e.highest)
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {
			ratio := float32(e.counts[r*e.cols+c]) / highest
			e.frame.SetRGB(c, r, e.ComputeColor(ratio))
		}
	}

	if err := e.push(); err != nil {
		e.log.Warn("heatmap: sync failed", "err", err)
	}
}

// Render calls Update with the current time of the engine clock.
func (e *Engine) Render() {
	e.Update(e.clock.Millis())
}

// push writes the current frame to the sink.
func (e *Engine) push() error {
	for r := 0; r < e.rows; r++ {
		for c := 0; c < e.cols; c++ {
			e.sink.SetCrgbAt(r, c, e.frame.RGBAt(c, r))
		}
	}
	if s, ok := e.sink.(Syncer); ok {
		return s.Sync()
	}
	return nil
}

// Reset clears all counters and schedules a render on the next Update.
func (e *Engine) Reset() {
	for i := range e.counts {
		e.counts[i] = 0
	}
	e.highest = 1
	e.scheduled = false
}

// SetGradient replaces the whole gradient.
// The new colors show on the next Update.
func (e *Engine) SetGradient(g keyrgb.Gradient) error {
	if len(g) == 0 {
		return ErrEmptyGradient
	}
	e.gradient = g.Clone()
	e.scheduled = false
	e.log.Debug("heatmap: gradient replaced", "stops", len(g))
	return nil
}

// Gradient returns a copy of the current gradient.
func (e *Engine) Gradient() keyrgb.Gradient {
	return e.gradient.Clone()
}

// SetUpdateInterval sets the minimum time between two renders.
// It takes effect after the next render.
func (e *Engine) SetUpdateInterval(d time.Duration) error {
	if err := checkInterval(d); err != nil {
		return err
	}
	e.interval = uint32(d.Milliseconds())
	return nil
}

func checkInterval(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("heatmap: negative update interval %v", d)
	}
	if d > MaxUpdateInterval {
		return fmt.Errorf("heatmap: update interval %v exceeds %v", d, MaxUpdateInterval)
	}
	return nil
}

// UpdateInterval returns the minimum time between two renders.
func (e *Engine) UpdateInterval() time.Duration {
	return time.Duration(e.interval) * time.Millisecond
}

// Counter returns the press counter of the key at (row, col).
func (e *Engine) Counter(row, col int) uint16 {
	if row < 0 || row >= e.rows || col < 0 || col >= e.cols {
		return 0
	}
	return e.counts[row*e.cols+col]
}

// Highest returns the running maximum of the counters.
func (e *Engine) Highest() uint16 {
	return e.highest
}

// Bounds returns the key matrix as a rectangle of cols x rows.
func (e *Engine) Bounds() image.Rectangle {
	return image.Rect(0, 0, e.cols, e.rows)
}

// Frame returns the last rendered frame.
// The frame is owned by the engine and overwritten on the next render.
func (e *Engine) Frame() *keyrgb.Frame {
	return e.frame
}

// Halt turns every key LED off and stops rendering.
// Key presses are still counted.
func (e *Engine) Halt() error {
	e.halted = true
	e.frame.Fill(keyrgb.RGB{})
	return e.push()
}

// String returns a string representation of the engine.
func (e *Engine) String() string {
	return fmt.Sprintf("heatmap.Engine{%dx%d}", e.rows, e.cols)
}
