// Package strip drives an APA102 LED chain wired under a keyboard matrix via SPI.
//
// Each key position maps to one LED of the chain. Colors are buffered by
// SetCrgbAt and sent as one frame by Sync.
package strip

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/heatmap/keyrgb"
)

// NoLED marks a key position without an LED in Opts.Map.
const NoLED = -1

// MaxBrightness is the highest APA102 global brightness level.
const MaxBrightness = 31

// Opts is the configuration for the LED chain.
type Opts struct {
	// Key matrix dimensions
	Rows int // Default: 4
	Cols int // Default: 16

	// Chain layout
	Serpentine bool  // Odd rows run right to left
	Map        []int // Explicit chain index per key, row-major (NoLED to skip)

	// Global brightness, 1-31 (default: 31)
	Brightness uint8

	// SPI clock (default: 4MHz)
	Hz physic.Frequency
}

// Dev is the device handle for the LED chain.
type Dev struct {
	// Communication
	c conn.Conn

	// Layout
	rows, cols int
	index      []int // Chain index per key, row-major
	leds       int

	// Frame: start frame, 4 bytes per LED, end frame
	buf        []byte
	brightness uint8

	// State
	halted bool
}

// NewSPI creates a new LED chain connected via SPI.
//
// The SPI port is configured for Mode0, 8-bit transfers. opts can be nil to
// use defaults (4x16 matrix, row-major chain, full brightness).
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}

	rows, cols := opts.Rows, opts.Cols
	if rows == 0 && cols == 0 {
		rows, cols = 4, 16
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.New("strip: rows and cols must be positive")
	}

	brightness := opts.Brightness
	if brightness == 0 {
		brightness = MaxBrightness
	}
	if brightness > MaxBrightness {
		return nil, errors.New("strip: brightness must be between 1 and 31")
	}

	index, leds, err := layout(rows, cols, opts)
	if err != nil {
		return nil, err
	}

	hz := opts.Hz
	if hz == 0 {
		hz = 4 * physic.MegaHertz
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("strip: %w", err)
	}

	d := &Dev{
		c:          c,
		rows:       rows,
		cols:       cols,
		index:      index,
		leds:       leds,
		buf:        make([]byte, 4+4*leds+endFrameLen(leds)),
		brightness: brightness,
	}
	d.clear()
	return d, nil
}

// layout returns the chain index of every key and the chain length.
func layout(rows, cols int, opts *Opts) ([]int, int, error) {
	index := make([]int, rows*cols)

	if opts.Map != nil {
		if len(opts.Map) != rows*cols {
			return nil, 0, fmt.Errorf("strip: map has %d entries, want %d", len(opts.Map), rows*cols)
		}
		leds := 0
		seen := make(map[int]bool, len(opts.Map))
		for i, n := range opts.Map {
			if n == NoLED {
				index[i] = NoLED
				continue
			}
			if n < 0 {
				return nil, 0, fmt.Errorf("strip: invalid chain index %d", n)
			}
			if seen[n] {
				return nil, 0, fmt.Errorf("strip: chain index %d used twice", n)
			}
			seen[n] = true
			index[i] = n
			if n+1 > leds {
				leds = n + 1
			}
		}
		return index, leds, nil
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			n := r*cols + c
			if opts.Serpentine && r%2 == 1 {
				n = r*cols + (cols - 1 - c)
			}
			index[r*cols+c] = n
		}
	}
	return index, rows * cols, nil
}

// endFrameLen is the number of 0xFF bytes clocking the data through the
// chain: one bit per two LEDs, at least 4 bytes.
func endFrameLen(leds int) int {
	n := (leds + 15) / 16
	if n < 4 {
		n = 4
	}
	return n
}

// clear resets the frame buffer to all LEDs off.
func (d *Dev) clear() {
	for i := 0; i < 4; i++ {
		d.buf[i] = 0x00
	}
	for i := 0; i < d.leds; i++ {
		o := 4 + 4*i
		d.buf[o] = 0xE0 | d.brightness
		d.buf[o+1] = 0
		d.buf[o+2] = 0
		d.buf[o+3] = 0
	}
	for i := 4 + 4*d.leds; i < len(d.buf); i++ {
		d.buf[i] = 0xFF
	}
}

// SetCrgbAt buffers the color of the key at (row, col).
// Positions outside the matrix or without an LED are ignored.
func (d *Dev) SetCrgbAt(row, col int, c keyrgb.RGB) {
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return
	}
	n := d.index[row*d.cols+col]
	if n == NoLED {
		return
	}
	// APA102 wire order is blue, green, red.
	o := 4 + 4*n
	d.buf[o+1] = c.B
	d.buf[o+2] = c.G
	d.buf[o+3] = c.R
}

// Sync sends the buffered frame to the chain.
func (d *Dev) Sync() error {
	if d.halted {
		return errors.New("strip: halted")
	}
	return d.c.Tx(d.buf, nil)
}

// SetBrightness sets the global brightness (1-31) of every LED.
// It takes effect on the next Sync.
func (d *Dev) SetBrightness(b uint8) error {
	if d.halted {
		return errors.New("strip: halted")
	}
	if b == 0 || b > MaxBrightness {
		return errors.New("strip: brightness must be between 1 and 31")
	}
	d.brightness = b
	for i := 0; i < d.leds; i++ {
		d.buf[4+4*i] = 0xE0 | b
	}
	return nil
}

// Len returns the number of LEDs in the chain.
func (d *Dev) Len() int {
	return d.leds
}

// Halt turns every LED off.
// After calling Halt, the chain will not accept further frames.
func (d *Dev) Halt() error {
	d.clear()
	err := d.c.Tx(d.buf, nil)
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("strip.Dev{%dx%d, %d LEDs}", d.rows, d.cols, d.leds)
}
