package strip

import (
	"bytes"
	"testing"

	"periph.io/x/conn/v3/spi/spitest"
	"periph.io/x/devices/v3/heatmap/keyrgb"
)

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options (uses defaults)", nil, false},
		{"valid 5x15", &Opts{Rows: 5, Cols: 15}, false},
		{"serpentine", &Opts{Rows: 2, Cols: 3, Serpentine: true}, false},
		{"brightness 1", &Opts{Rows: 1, Cols: 1, Brightness: 1}, false},
		{"brightness too high", &Opts{Rows: 1, Cols: 1, Brightness: 32}, true},
		{"zero cols", &Opts{Rows: 4, Cols: 0}, true},
		{"negative rows", &Opts{Rows: -1, Cols: 4}, true},
		{"map size mismatch", &Opts{Rows: 1, Cols: 2, Map: []int{0}}, true},
		{"map duplicate", &Opts{Rows: 1, Cols: 2, Map: []int{1, 1}}, true},
		{"map negative", &Opts{Rows: 1, Cols: 2, Map: []int{0, -5}}, true},
		{"map with gap", &Opts{Rows: 1, Cols: 2, Map: []int{0, NoLED}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSPI(&spitest.Record{}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSPI() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEndFrameLen(t *testing.T) {
	tests := []struct {
		leds int
		want int
	}{
		{1, 4},
		{64, 4},
		{65, 5},
		{100, 7},
	}

	for _, tt := range tests {
		if got := endFrameLen(tt.leds); got != tt.want {
			t.Errorf("endFrameLen(%d) = %d, want %d", tt.leds, got, tt.want)
		}
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name     string
		opts     *Opts
		want     []int
		wantLEDs int
	}{
		{"row-major", &Opts{}, []int{0, 1, 2, 3, 4, 5}, 6},
		{"serpentine", &Opts{Serpentine: true}, []int{0, 1, 2, 5, 4, 3}, 6},
		{"explicit", &Opts{Map: []int{4, NoLED, 0, 1, 2, 3}}, []int{4, NoLED, 0, 1, 2, 3}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, leds, err := layout(2, 3, tt.opts)
			if err != nil {
				t.Fatalf("layout() error = %v", err)
			}
			if leds != tt.wantLEDs {
				t.Errorf("leds = %d, want %d", leds, tt.wantLEDs)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("index[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSyncFrame(t *testing.T) {
	r := &spitest.Record{}
	d, err := NewSPI(r, &Opts{Rows: 1, Cols: 2, Brightness: 16})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	d.SetCrgbAt(0, 1, keyrgb.RGB{R: 0x11, G: 0x22, B: 0x33})
	if err := d.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	want := []byte{
		0x00, 0x00, 0x00, 0x00, // Start frame
		0xF0, 0x00, 0x00, 0x00, // LED 0: off
		0xF0, 0x33, 0x22, 0x11, // LED 1: blue, green, red
		0xFF, 0xFF, 0xFF, 0xFF, // End frame
	}
	if len(r.Ops) != 1 {
		t.Fatalf("len(Ops) = %d, want 1", len(r.Ops))
	}
	if !bytes.Equal(r.Ops[0].W, want) {
		t.Errorf("frame = % x, want % x", r.Ops[0].W, want)
	}
}

func TestSetCrgbAtSerpentine(t *testing.T) {
	r := &spitest.Record{}
	d, err := NewSPI(r, &Opts{Rows: 2, Cols: 2, Serpentine: true})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	// Row 1, col 1 is the first LED of the second, reversed row.
	d.SetCrgbAt(1, 1, keyrgb.RGB{R: 0xAA})
	_ = d.Sync()

	w := r.Ops[0].W
	if w[4+4*2+3] != 0xAA {
		t.Errorf("LED 2 red = 0x%02X, want 0xAA", w[4+4*2+3])
	}
	if w[4+4*3+3] != 0x00 {
		t.Errorf("LED 3 red = 0x%02X, want 0x00", w[4+4*3+3])
	}
}

func TestSetCrgbAtIgnoresInvalid(t *testing.T) {
	d, err := NewSPI(&spitest.Record{}, &Opts{Rows: 1, Cols: 2, Map: []int{0, NoLED}})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	before := append([]byte(nil), d.buf...)

	d.SetCrgbAt(0, 1, keyrgb.RGB{R: 1})
	d.SetCrgbAt(-1, 0, keyrgb.RGB{R: 1})
	d.SetCrgbAt(0, 2, keyrgb.RGB{R: 1})

	if !bytes.Equal(before, d.buf) {
		t.Errorf("buffer changed: % x, want % x", d.buf, before)
	}
}

func TestSetBrightness(t *testing.T) {
	d, err := NewSPI(&spitest.Record{}, &Opts{Rows: 1, Cols: 3})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}

	if err := d.SetBrightness(0); err == nil {
		t.Error("SetBrightness(0) should fail")
	}
	if err := d.SetBrightness(32); err == nil {
		t.Error("SetBrightness(32) should fail")
	}
	if err := d.SetBrightness(5); err != nil {
		t.Fatalf("SetBrightness(5) error = %v", err)
	}
	for i := 0; i < d.Len(); i++ {
		if got := d.buf[4+4*i]; got != 0xE5 {
			t.Errorf("LED %d header = 0x%02X, want 0xE5", i, got)
		}
	}
}

func TestHalt(t *testing.T) {
	r := &spitest.Record{}
	d, err := NewSPI(r, &Opts{Rows: 1, Cols: 1})
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	d.SetCrgbAt(0, 0, keyrgb.RGB{R: 255, G: 255, B: 255})

	if err := d.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	want := []byte{0, 0, 0, 0, 0xFF, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(r.Ops[0].W, want) {
		t.Errorf("halt frame = % x, want % x", r.Ops[0].W, want)
	}

	if err := d.Sync(); err == nil {
		t.Error("Sync should fail when halted")
	}
	if err := d.SetBrightness(3); err == nil {
		t.Error("SetBrightness should fail when halted")
	}
}

func TestDevString(t *testing.T) {
	d, err := NewSPI(&spitest.Record{}, nil)
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	want := "strip.Dev{4x16, 64 LEDs}"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
