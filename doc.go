// Package heatmap renders a per-key usage heatmap onto keyboard LEDs.
//
// The engine counts how often each key of the matrix is pressed and paints
// every key with a color sampled from a gradient: rarely used keys take the
// first (cold) stop, the most used key takes the last (hot) stop.
//
// # Host Integration
//
// The engine is driven by a cooperative host loop. All callbacks run on one
// goroutine and none of them block:
//
//	Callback          When                        Effect
//	OnKeyswitchEvent  every key switch transition counts press edges
//	BeforeEachCycle   every scan cycle            rescales when needed
//	Update            every render tick           recomputes, rate limited
//
// Injected (synthetic) events, releases and held keys are not counted. The
// engine never consumes an event.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/heatmap"
//		"periph.io/x/devices/v3/heatmap/strip"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		leds, _ := strip.NewSPI(spiBus, &strip.Opts{Rows: 4, Cols: 16})
//		defer leds.Halt()
//
//		hm, _ := heatmap.New(leds, &heatmap.Opts{Rows: 4, Cols: 16})
//
//		for ev := range keyEvents() {
//			hm.OnKeyswitchEvent(&ev.Key, ev.Row, ev.Col, ev.State)
//			hm.BeforeEachCycle()
//			hm.Render()
//		}
//	}
//
// # Counters and Rescaling
//
// Counters are 16-bit and kept below 2^15. Once the running maximum exceeds
// 512 counts per gradient stop, BeforeEachCycle halves every counter and the
// maximum, so older presses fade while relative magnitudes are preserved. An
// increment that brings the maximum to 32767 rescales immediately; with the
// periodic check in place this practically never happens.
//
// # Gradients
//
// A gradient is any number of 8-bit RGB stops. The usage ratio of a key,
// counter/maximum, is mapped onto the stops and the two surrounding stops are
// blended linearly per channel:
//
//	hm.SetGradient(keyrgb.Gradient{{0, 0, 0}, {0, 0, 255}, {255, 255, 255}})
//
// Replacing the gradient swaps the whole sequence and forces a render on the
// next Update.
//
// # Sinks
//
// Any type with a SetCrgbAt method receives the colors. Sinks that latch a
// whole frame also implement Syncer:
//
//   - strip.Dev drives an APA102 LED chain over SPI
//   - DrawerSink draws the key matrix onto any periph.io display.Drawer
//
// # Compatibility with periph.io
//
// Engine, DrawerSink and strip.Dev implement conn.Resource. DrawerSink accepts
// any display.Drawer:
// https://pkg.go.dev/periph.io/x/conn/v3/display
package heatmap
