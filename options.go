package stage

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/stage/gl"
)

// Option configures a Renderer during creation.
//
// Example:
//
//	// Default context on the registered driver
//	r, err := stage.NewRenderer(800, 600)
//
//	// High-dpi with an explicit background
//	r, err := stage.NewRenderer(800, 600,
//		stage.WithResolution(2),
//		stage.WithBackground(stage.Hex("#1e1e2e")))
type Option func(*rendererOptions)

// rendererOptions holds optional configuration for Renderer creation.
type rendererOptions struct {
	device                gl.Device
	driver                string
	resolution            float64
	background            RGBA
	clearBeforeRender     bool
	antialias             bool
	preserveDrawingBuffer bool
	powerPreference       gputypes.PowerPreference
}

// defaultRendererOptions returns the default renderer options.
func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		resolution:        1,
		background:        RGBA{R: 0, G: 0, B: 0, A: 1},
		clearBeforeRender: true,
	}
}

// WithDevice adopts an already opened device instead of opening one.
// The renderer takes over the device's context-loss handler but does
// not release the device on Destroy; whoever opened it owns it.
//
// Example:
//
//	dev, _ := gl.OpenNamed("gltest", gl.Options{Width: 640, Height: 480})
//	r, err := stage.NewRenderer(640, 480, stage.WithDevice(dev))
func WithDevice(dev gl.Device) Option {
	return func(o *rendererOptions) {
		o.device = dev
	}
}

// WithDriver opens the context on a specific registered driver instead
// of the default one. Useful to force the test device in benchmarks.
func WithDriver(name string) Option {
	return func(o *rendererOptions) {
		o.driver = name
	}
}

// WithResolution sets the device pixel density of the screen target.
// Pass the monitor's content scale for crisp output on high-dpi
// displays. Values below 1 are ignored in favor of the default.
func WithResolution(res float64) Option {
	return func(o *rendererOptions) {
		if res >= 1 {
			o.resolution = res
		}
	}
}

// WithBackground sets the color the target is cleared to before each
// pass.
func WithBackground(c RGBA) Option {
	return func(o *rendererOptions) {
		o.background = c
	}
}

// WithoutClear leaves the previous frame's contents in place at the
// start of each pass. Individual passes can still opt out via
// RenderOptions.SkipClear when clearing stays enabled.
func WithoutClear() Option {
	return func(o *rendererOptions) {
		o.clearBeforeRender = false
	}
}

// WithAntialias requests a multisampled backbuffer. Drivers are free to
// ignore the request; check the device's capabilities for the outcome.
func WithAntialias() Option {
	return func(o *rendererOptions) {
		o.antialias = true
	}
}

// WithPreserveDrawingBuffer keeps the backbuffer contents after
// presentation, allowing incremental drawing across frames at a
// performance cost.
func WithPreserveDrawingBuffer() Option {
	return func(o *rendererOptions) {
		o.preserveDrawingBuffer = true
	}
}

// WithPowerPreference hints at adapter selection on multi-GPU systems.
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *rendererOptions) {
		o.powerPreference = p
	}
}
