// Package keyrgb provides the per-key 8-bit RGB color model used by the heatmap.
//
// Each key LED takes three 8-bit channels. Colors are interpolated per channel
// in the device-native RGB space, with no gamma or perceptual correction.
//
// This package provides:
//
// - RGB: A color type holding one 8-bit value per channel
// - RGBModel: A color model for converting standard Go colors to RGB
// - Gradient: An ordered list of color stops, sampled from cold to hot
// - Frame: An image.Image implementation with one pixel per key position
//
// Example usage:
//
//	// Create a frame for a 4 row, 16 column keyboard
//	f := keyrgb.NewFrame(16, 4)
//
//	// Light the key at row 1, column 3 in red
//	f.SetRGB(3, 1, keyrgb.RGB{R: 255})
//
//	// Build a gradient from hex strings
//	g, err := keyrgb.ParseGradient("#000000", "#19ff19", "#ff1919")
package keyrgb
