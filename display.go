package heatmap

import (
	"errors"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/heatmap/keyrgb"
)

// DrawerSink shows the heatmap on a periph.io display, one block per key.
//
// Keys are buffered by SetCrgbAt and drawn together on Sync, scaled to the
// display bounds with nearest-neighbour sampling.
type DrawerSink struct {
	d     display.Drawer
	frame *keyrgb.Frame
	dst   *image.RGBA
}

// NewDrawerSink creates a sink drawing a rows x cols key matrix onto d.
func NewDrawerSink(d display.Drawer, rows, cols int) (*DrawerSink, error) {
	if d == nil {
		return nil, errors.New("heatmap: drawer is required")
	}
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidSize
	}
	if d.Bounds().Empty() {
		return nil, errors.New("heatmap: drawer has empty bounds")
	}
	return &DrawerSink{
		d:     d,
		frame: keyrgb.NewFrame(cols, rows),
		dst:   image.NewRGBA(d.Bounds()),
	}, nil
}

// SetCrgbAt buffers the color of the key at (row, col).
func (s *DrawerSink) SetCrgbAt(row, col int, c keyrgb.RGB) {
	s.frame.SetRGB(col, row, c)
}

// Sync draws the buffered keys onto the display.
func (s *DrawerSink) Sync() error {
	xdraw.NearestNeighbor.Scale(s.dst, s.dst.Bounds(), s.frame, s.frame.Bounds(), xdraw.Src, nil)
	if err := s.d.Draw(s.d.Bounds(), s.dst, s.dst.Bounds().Min); err != nil {
		return fmt.Errorf("heatmap: draw: %w", err)
	}
	return nil
}

// Halt halts the underlying display.
func (s *DrawerSink) Halt() error {
	return s.d.Halt()
}

// String returns a string representation of the sink.
func (s *DrawerSink) String() string {
	return fmt.Sprintf("heatmap.DrawerSink{%s}", s.d)
}
