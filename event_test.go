package heatmap

import (
	"testing"
	"time"
)

func TestKeyStateHelpers(t *testing.T) {
	tests := []struct {
		name                  string
		state                 KeyState
		toggledOn, toggledOff bool
		pressed               bool
	}{
		{"idle", 0, false, false, false},
		{"press edge", IsPressed, true, false, true},
		{"held", IsPressed | WasPressed, false, false, true},
		{"release edge", WasPressed, false, true, false},
		{"injected press", IsPressed | Injected, true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeyToggledOn(tt.state); got != tt.toggledOn {
				t.Errorf("KeyToggledOn() = %v, want %v", got, tt.toggledOn)
			}
			if got := KeyToggledOff(tt.state); got != tt.toggledOff {
				t.Errorf("KeyToggledOff() = %v, want %v", got, tt.toggledOff)
			}
			if got := KeyIsPressed(tt.state); got != tt.pressed {
				t.Errorf("KeyIsPressed() = %v, want %v", got, tt.pressed)
			}
		})
	}
}

func TestMonotonicClock(t *testing.T) {
	c := NewMonotonicClock()
	if got := c.Millis(); got > 1000 {
		t.Errorf("Millis() = %d right after creation", got)
	}

	c.start = c.start.Add(-3 * time.Second)
	if got := c.Millis(); got < 3000 {
		t.Errorf("Millis() = %d, want at least 3000", got)
	}
}
