// Package keyrgb provides the per-key 8-bit RGB color model used by the heatmap.
//
// Frame stores one RGB value per key, addressed as (x=column, y=row).
// Gradient holds the color stops sampled by the heatmap engine.
package keyrgb

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit per channel LED color.
type RGB struct {
	R, G, B uint8
}

// RGBA converts the RGB color to standard RGBA.
// Each 8-bit channel is scaled to 16-bit (0-65535), alpha is always opaque.
func (c RGB) RGBA() (r, g, b, a uint32) {
	// 0xFF * 0x101 = 0xFFFF
	r = uint32(c.R) * 0x101
	g = uint32(c.G) * 0x101
	b = uint32(c.B) * 0x101
	return r, g, b, 0xFFFF
}

// String returns the color as a #rrggbb hex string.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp interpolates between a and b independently on each channel.
// frac 0 yields a, frac 1 yields b. Results are truncated, not rounded.
func Lerp(a, b RGB, frac float32) RGB {
	inv := 1 - frac
	return RGB{
		R: uint8(float32(b.R)*frac + float32(a.R)*inv),
		G: uint8(float32(b.G)*frac + float32(a.G)*inv),
		B: uint8(float32(b.B)*frac + float32(a.B)*inv),
	}
}

// toRGB converts any color.Color to RGB.
func toRGB(c color.Color) color.Color {
	if rgb, ok := c.(RGB); ok {
		return rgb
	}
	r, g, b, _ := c.RGBA()
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// RGBModel converts colors to RGB.
var RGBModel = color.ModelFunc(toRGB)

// Gradient is an ordered list of color stops from coldest to hottest.
type Gradient []RGB

// DefaultGradient is off, green, yellow, red.
var DefaultGradient = Gradient{
	{R: 0, G: 0, B: 0},
	{R: 25, G: 255, B: 25},
	{R: 255, G: 255, B: 25},
	{R: 255, G: 25, B: 25},
}

// ErrEmptyGradient is returned when a gradient has no stops.
var ErrEmptyGradient = errors.New("keyrgb: gradient must have at least one stop")

// ParseGradient builds a gradient from hex color strings ("#rrggbb" or "#rgb").
func ParseGradient(stops ...string) (Gradient, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyGradient
	}
	g := make(Gradient, 0, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("keyrgb: stop %d: %w", i, err)
		}
		r, gr, b := c.RGB255()
		g = append(g, RGB{R: r, G: gr, B: b})
	}
	return g, nil
}

// Clone returns a copy of the gradient that shares no storage with g.
func (g Gradient) Clone() Gradient {
	out := make(Gradient, len(g))
	copy(out, g)
	return out
}

// Hex returns the gradient stops as #rrggbb strings.
func (g Gradient) Hex() []string {
	out := make([]string, len(g))
	for i, c := range g {
		out[i] = c.String()
	}
	return out
}

// Frame is an image with one RGB pixel per key.
// X is the matrix column and Y is the matrix row.
type Frame struct {
	Pix    []RGB           // Key colors, row-major
	Stride int             // Keys per row
	Rect   image.Rectangle // Image bounds
}

// NewFrame creates a zeroed frame for a cols x rows key matrix.
func NewFrame(cols, rows int) *Frame {
	if cols < 0 || rows < 0 {
		panic("keyrgb: negative frame size")
	}
	return &Frame{
		Pix:    make([]RGB, cols*rows),
		Stride: cols,
		Rect:   image.Rect(0, 0, cols, rows),
	}
}

// ColorModel returns the color model of the frame.
func (f *Frame) ColorModel() color.Model {
	return RGBModel
}

// Bounds returns the frame bounds.
func (f *Frame) Bounds() image.Rectangle {
	return f.Rect
}

// At returns the color of the key at (x, y).
// It implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	return f.RGBAt(x, y)
}

// RGBAt returns the RGB color of the key at (x, y).
func (f *Frame) RGBAt(x, y int) RGB {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return RGB{}
	}
	return f.Pix[f.offset(x, y)]
}

// Set sets the color of the key at (x, y).
func (f *Frame) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return
	}
	f.Pix[f.offset(x, y)] = RGBModel.Convert(c).(RGB)
}

// SetRGB sets the RGB color of the key at (x, y) without color conversion.
func (f *Frame) SetRGB(x, y int, c RGB) {
	if !(image.Point{X: x, Y: y}.In(f.Rect)) {
		return
	}
	f.Pix[f.offset(x, y)] = c
}

// Fill sets every key to c.
func (f *Frame) Fill(c RGB) {
	for i := range f.Pix {
		f.Pix[i] = c
	}
}

func (f *Frame) offset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Stride + (x - f.Rect.Min.X)
}
