// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gl defines the WebGL-class device abstraction that stage renders
// against. A Device is a stateful command stream: resources are created
// once, bound to well-known bind points, and subsequent calls operate on
// whatever is currently bound, exactly like an OpenGL ES 2/3 context.
//
// Drivers implement Device and register themselves with [Register]. The
// opengl subpackage provides a desktop OpenGL 3.3 driver; the gltest
// subpackage provides an in-memory recording driver for tests and headless
// environments.
package gl

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Sentinel errors shared by all drivers.
var (
	// ErrNoDriver is returned by Open when no driver is registered.
	ErrNoDriver = errors.New("gl: no driver available")

	// ErrUnknownDriver is returned by OpenNamed for unregistered names.
	ErrUnknownDriver = errors.New("gl: unknown driver")

	// ErrContextLost is returned by resource constructors while the
	// device's context is lost. Callers are expected to retry after the
	// context is restored.
	ErrContextLost = errors.New("gl: context lost")

	// ErrShaderCompile is returned by NewProgram when a shader stage does
	// not compile. The wrapped message carries the driver's info log.
	ErrShaderCompile = errors.New("gl: shader compile failed")

	// ErrProgramLink is returned by NewProgram when the two stages do not
	// link. The wrapped message carries the driver's info log.
	ErrProgramLink = errors.New("gl: program link failed")

	// ErrFramebufferIncomplete is returned by Framebuffer.IsComplete when
	// the current attachment set cannot be rendered to.
	ErrFramebufferIncomplete = errors.New("gl: framebuffer incomplete")
)

// Options configures context creation. The zero value requests a small
// RGBA8 backbuffer with a depth/stencil attachment and no multisampling.
type Options struct {
	// Width and Height size the default backbuffer in device pixels.
	Width, Height int

	// Antialias requests a multisampled default backbuffer. Drivers clamp
	// the sample count to Caps().MaxSamples and may ignore the request.
	Antialias bool

	// Stencil requests a stencil buffer on the default backbuffer.
	// Stencil-based masking needs it; stage always asks for one.
	Stencil bool

	// Depth requests a depth buffer on the default backbuffer.
	Depth bool

	// PreserveDrawingBuffer keeps the backbuffer contents between frames
	// instead of allowing the driver to discard them after present.
	PreserveDrawingBuffer bool

	// PremultipliedAlpha declares that the backbuffer carries colors with
	// premultiplied alpha. Compositors use it; drivers may ignore it.
	PremultipliedAlpha bool

	// PowerPreference hints at adapter selection on multi-GPU systems.
	PowerPreference gputypes.PowerPreference
}

// Device is a WebGL-class rendering context.
//
// Calls are not safe for concurrent use; a Device is owned by the single
// goroutine that renders with it. Methods that operate on a bound resource
// (texture uploads, buffer uploads, framebuffer attachments, uniform
// stores) require that resource to be currently bound; drivers are free to
// assume it and the gltest driver fails loudly when the contract is
// violated.
type Device interface {
	// Caps reports the device's limits and optional features. The result
	// is fixed for the lifetime of a context and must be re-read after a
	// context restore.
	Caps() Caps

	// IsLost reports whether the context is currently lost. While lost,
	// resource constructors fail with ErrContextLost and all other calls
	// are silently ignored.
	IsLost() bool

	// SetContextHandler installs callbacks invoked synchronously when the
	// context is lost and when it has been restored. Either func may be
	// nil. Only one handler pair is active at a time.
	SetContextHandler(onLost, onRestored func())

	// NewBuffer creates a buffer object for the given bind target.
	NewBuffer(typ BufferType) (Buffer, error)

	// NewTexture creates an unallocated 2D texture object.
	NewTexture() (Texture, error)

	// NewRenderbuffer creates an unallocated renderbuffer object.
	NewRenderbuffer() (Renderbuffer, error)

	// NewFramebuffer creates a framebuffer object with no attachments.
	NewFramebuffer() (Framebuffer, error)

	// NewProgram compiles and links a vertex/fragment shader pair written
	// in GLSL ES 1.00. Drivers targeting core profiles translate the
	// source as needed.
	NewProgram(vertexSrc, fragmentSrc string) (Program, error)

	// NewVertexArray creates a vertex array object.
	NewVertexArray() (VertexArray, error)

	// BindBuffer binds b to its target; nil unbinds the target.
	BindBuffer(typ BufferType, b Buffer)

	// BindTexture binds t to the given texture unit; nil unbinds the unit.
	BindTexture(unit int, t Texture)

	// BindFramebuffer makes f the render target; nil selects the default
	// backbuffer.
	BindFramebuffer(f Framebuffer)

	// BindVertexArray binds v; nil unbinds.
	BindVertexArray(v VertexArray)

	// UseProgram makes p current for draws and uniform stores; nil clears.
	UseProgram(p Program)

	// VertexAttribPointer describes one vertex attribute of the currently
	// bound array buffer, recorded into the currently bound vertex array.
	VertexAttribPointer(location, size int, typ DataType, normalized bool, stride, offset int)

	// EnableVertexAttrib enables an attribute location in the bound
	// vertex array.
	EnableVertexAttrib(location int)

	// DisableVertexAttrib disables an attribute location in the bound
	// vertex array.
	DisableVertexAttrib(location int)

	// VertexAttribDivisor sets the instance divisor for an attribute
	// location. Requires FeatureInstancing.
	VertexAttribDivisor(location, divisor int)

	// State machine. Setters mirror the GL enable/disable and parameter
	// calls one to one so that a state cache can diff against them.

	SetBlend(enable bool)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor)
	BlendEquationSeparate(rgb, alpha BlendOp)
	SetDepthTest(enable bool)
	DepthFunc(f CompareFunc)
	DepthMask(write bool)
	SetCullFace(enable bool)
	CullFace(mode CullMode)
	FrontFace(clockwise bool)
	SetPolygonOffset(enable bool)
	PolygonOffset(factor, units float32)
	SetScissorTest(enable bool)
	Scissor(x, y, width, height int)
	SetStencilTest(enable bool)
	StencilFunc(f CompareFunc, ref int, mask uint32)
	StencilOp(fail, zfail, zpass StencilOp)
	StencilMask(mask uint32)
	ColorMask(r, g, b, a bool)

	// Viewport sets the drawable region of the current render target in
	// device pixels.
	Viewport(x, y, width, height int)

	// ClearColor sets the color used by Clear for the color buffer.
	ClearColor(r, g, b, a float32)

	// Clear clears the selected buffers of the current render target.
	Clear(mask ClearMask)

	// DrawElements draws indexed primitives from the bound vertex array
	// using its element buffer. byteOffset is in bytes.
	DrawElements(mode PrimitiveMode, count int, typ DataType, byteOffset int)

	// DrawElementsInstanced is DrawElements repeated for instanceCount
	// instances. Requires FeatureInstancing.
	DrawElementsInstanced(mode PrimitiveMode, count int, typ DataType, byteOffset, instanceCount int)

	// DrawArrays draws non-indexed primitives from the bound vertex array.
	DrawArrays(mode PrimitiveMode, first, count int)

	// DrawArraysInstanced is DrawArrays repeated for instanceCount
	// instances. Requires FeatureInstancing.
	DrawArraysInstanced(mode PrimitiveMode, first, count, instanceCount int)

	// BlitFramebuffer copies the color region (0,0)-(width,height) from
	// src to dst, resolving multisampling if src is multisampled. Nil
	// selects the default backbuffer on either side. Requires FeatureBlit.
	BlitFramebuffer(src, dst Framebuffer, width, height int)

	// Flush submits buffered commands to the GPU without waiting.
	Flush()

	// Release destroys the context and every resource still alive on it.
	// The Device must not be used afterwards.
	Release()
}

// Buffer is a GPU buffer object. Upload and SubUpload require the buffer
// to be bound to its target.
type Buffer interface {
	// Upload allocates (or reallocates) the buffer store and fills it
	// with data.
	Upload(data []byte, usage BufferUsage)

	// SubUpload overwrites a range of an already allocated store.
	// offset+len(data) must not exceed Size.
	SubUpload(offset int, data []byte)

	// Size returns the allocated store size in bytes.
	Size() int

	Release()
}

// Texture is a 2D texture object. All methods require the texture to be
// bound to the active texture unit.
type Texture interface {
	// Storage allocates level 0 with undefined contents. Calling Storage
	// again reallocates, orphaning previous contents.
	Storage(width, height int, format gputypes.TextureFormat)

	// Upload overwrites a region of level 0 with tightly packed pixels in
	// the texture's format.
	Upload(x, y, width, height int, pixels []byte)

	// SetFilter sets minification and magnification filters.
	SetFilter(min, mag TextureFilter)

	// SetWrap sets the wrap mode for both texture axes.
	SetWrap(u, v TextureWrap)

	// GenerateMipmap builds the full mip chain from level 0.
	GenerateMipmap()

	Release()
}

// Renderbuffer is an offscreen attachment without sampling support.
// Storage binds the renderbuffer internally; no external bind point exists.
type Renderbuffer interface {
	// Storage allocates the renderbuffer. samples <= 1 allocates a
	// single-sampled store.
	Storage(width, height, samples int, format gputypes.TextureFormat)

	Release()
}

// Framebuffer is a render target. Attachment and query methods require the
// framebuffer to be currently bound.
type Framebuffer interface {
	// AttachColor attaches a texture's level 0 as color attachment index.
	AttachColor(index int, t Texture)

	// AttachColorRenderbuffer attaches a renderbuffer as color attachment
	// index. Used for multisampled targets that are later resolved with
	// BlitFramebuffer.
	AttachColorRenderbuffer(index int, rb Renderbuffer)

	// AttachDepthStencil attaches a combined depth/stencil renderbuffer.
	AttachDepthStencil(rb Renderbuffer)

	// AttachDepthTexture attaches a depth texture. Requires
	// FeatureDepthTexture.
	AttachDepthTexture(t Texture)

	// IsComplete returns nil when the attachment set is renderable and
	// ErrFramebufferIncomplete (wrapped with detail) otherwise.
	IsComplete() error

	// ReadPixels reads a rectangle of RGBA8 pixels into dst, which must
	// hold at least width*height*4 bytes.
	ReadPixels(x, y, width, height int, dst []byte) error

	Release()
}

// Program is a linked shader program. Uniform stores require the program
// to be in use.
type Program interface {
	// AttribLocation returns the location of a vertex attribute, or -1
	// if the attribute is not active.
	AttribLocation(name string) int

	// ActiveAttribs returns the names of the vertex attributes the
	// linker kept, excluding builtins.
	ActiveAttribs() []string

	// UniformLocation returns the location of a uniform, or -1 if the
	// uniform is not active. Locations remain valid for the program's
	// lifetime.
	UniformLocation(name string) int

	Uniform1i(location int, v int)
	Uniform1iv(location int, v []int32)
	Uniform1f(location int, v float32)
	Uniform2f(location int, v0, v1 float32)
	Uniform3f(location int, v0, v1, v2 float32)
	Uniform4f(location int, v0, v1, v2, v3 float32)
	Uniform1fv(location int, v []float32)
	Uniform4fv(location int, v []float32)
	UniformMatrix3fv(location int, v [9]float32)

	Release()
}

// VertexArray captures vertex attribute layout and the element buffer
// binding.
type VertexArray interface {
	Release()
}
