package heatmap

import (
	"time"

	"periph.io/x/devices/v3/heatmap/keyrgb"
)

// KeyState holds the per-scan state flags the host reports for a key switch.
type KeyState uint8

const (
	IsPressed  KeyState = 1 << 0 // Key is down in the current scan
	WasPressed KeyState = 1 << 1 // Key was down in the previous scan
	Injected   KeyState = 1 << 7 // Event was synthesized, not scanned
)

// KeyToggledOn reports whether the key went down in this scan.
func KeyToggledOn(s KeyState) bool {
	return s&IsPressed != 0 && s&WasPressed == 0
}

// KeyToggledOff reports whether the key went up in this scan.
func KeyToggledOff(s KeyState) bool {
	return s&IsPressed == 0 && s&WasPressed != 0
}

// KeyIsPressed reports whether the key is held down.
func KeyIsPressed(s KeyState) bool {
	return s&IsPressed != 0
}

// Key is the keymap entry the host resolved for a key switch.
type Key struct {
	Code  uint8
	Flags uint8
}

// EventHandlerResult tells the host whether to keep dispatching an event.
type EventHandlerResult uint8

const (
	EventHandlerResultOK            EventHandlerResult = iota // Continue with other plugins
	EventHandlerResultEventConsumed                           // Stop, the event was handled
	EventHandlerResultAbort                                   // Stop, the event is dropped
)

// Plugin is the set of host callbacks dispatched on key events and scan cycles.
type Plugin interface {
	OnKeyswitchEvent(key *Key, row, col int, state KeyState) EventHandlerResult
	BeforeEachCycle() EventHandlerResult
}

// LEDMode is an LED effect driven by the host render loop.
type LEDMode interface {
	// Activate is called when the mode becomes the active LED effect.
	Activate()
	// Update is called from the render loop with the current monotonic
	// time in milliseconds.
	Update(now uint32)
}

// LEDSink receives the color of each key LED.
type LEDSink interface {
	SetCrgbAt(row, col int, c keyrgb.RGB)
}

// Syncer is implemented by sinks that latch a frame after all keys are set.
type Syncer interface {
	Sync() error
}

// Clock is the platform monotonic millisecond clock.
type Clock interface {
	Millis() uint32
}

// MonotonicClock counts milliseconds since it was created.
// The count wraps after about 49.7 days, like a microcontroller millis().
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a clock starting at zero.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Millis returns the milliseconds elapsed since the clock was created.
func (c *MonotonicClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}
