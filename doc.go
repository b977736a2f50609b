// Package stage is a retained-resource 2D rendering engine for Go.
//
// # Overview
//
// stage drives a GL-class device through a set of cooperating systems:
// textures, geometries and shaders are declarative resources uploaded
// lazily and rebuilt automatically after a context loss, while a
// batcher packs textured quads into as few draw calls as the device's
// sampler limit allows. Masking (scissor, stencil and texture based)
// and a filter pipeline for offscreen post-processing sit on top.
//
// # Quick Start
//
//	import "github.com/gogpu/stage"
//
//	r, err := stage.NewRenderer(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	sprite := stage.NewSprite(stage.NewTextureFromImage(img))
//	sprite.Transform = stage.Translate(400, 300)
//
//	r.Render(sprite, nil)
//
// # Architecture
//
// The Renderer owns one device context and exposes its systems as
// fields: Context, State, Texture, Geometry, Shader and Framebuffer
// manage device state; RenderTexture and Projection route output;
// Mask, Filter and Batch build on them. Systems can be driven directly
// for custom pipelines, Renderable implementations plug into the
// normal pass.
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// The projection flips Y when rendering to the screen so the device's
// bottom-left origin never leaks into user code.
//
// # Context Loss
//
// A lost device context invalidates every GPU handle. Resources track
// the context generation they uploaded to and re-upload on first use
// after a restore; user code only re-renders.
package stage

// Version information
const (
	// Version is the current version of the library
	Version = "0.5.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 5

	// VersionPatch is the patch version
	VersionPatch = 0
)
