// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build cgo

// Package opengl implements the gl.Device interface on desktop OpenGL 3.3
// core profiles via github.com/go-gl/gl.
//
// The driver does not create windows or GL contexts. The embedder makes a
// context current on the calling goroutine first (typically with glfw and
// runtime.LockOSThread) and then opens the device:
//
//	import _ "github.com/gogpu/stage/gl/opengl"
//
//	window.MakeContextCurrent()
//	device, err := gl.OpenNamed(gl.DriverOpenGL, gl.Options{...})
//
// Desktop contexts do not get lost, so IsLost always reports false and
// FeatureLoseContext is absent from the caps.
package opengl

import (
	"fmt"
	"strings"

	ogl "github.com/go-gl/gl/v3.3-core/gl"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

func init() {
	gl.Register(gl.DriverOpenGL, func(opts gl.Options) (gl.Device, error) {
		return Open(opts)
	})
}

// Open initializes the GL bindings against the current context and
// returns a device for it.
func Open(opts gl.Options) (gl.Device, error) {
	if err := ogl.Init(); err != nil {
		return nil, fmt.Errorf("opengl: init: %w", err)
	}
	ogl.PixelStorei(ogl.UNPACK_ALIGNMENT, 1)

	var maxTexSize, maxUnits, maxSamples, maxAttribs int32
	ogl.GetIntegerv(ogl.MAX_TEXTURE_SIZE, &maxTexSize)
	ogl.GetIntegerv(ogl.MAX_TEXTURE_IMAGE_UNITS, &maxUnits)
	ogl.GetIntegerv(ogl.MAX_SAMPLES, &maxSamples)
	ogl.GetIntegerv(ogl.MAX_VERTEX_ATTRIBS, &maxAttribs)

	d := &device{opts: opts}
	d.caps = gl.Caps{
		Features: gl.FeatureVertexArrays | gl.FeatureInstancing |
			gl.FeatureUint32Indices | gl.FeatureStencil | gl.FeatureMSAA |
			gl.FeatureBlit | gl.FeatureFloatTextures | gl.FeatureDepthTexture,
		MaxTextureSize:   int(maxTexSize),
		MaxTextureUnits:  int(maxUnits),
		MaxSamples:       int(maxSamples),
		MaxVertexAttribs: int(maxAttribs),
	}
	return d, nil
}

type device struct {
	caps gl.Caps
	opts gl.Options

	// currentFB tracks the bound draw framebuffer so BlitFramebuffer can
	// restore it after retargeting the blit bind points.
	currentFB uint32
}

func (d *device) Caps() gl.Caps { return d.caps }

func (d *device) IsLost() bool { return false }

func (d *device) SetContextHandler(onLost, onRestored func()) {
	// Desktop contexts do not get lost; the handlers never fire.
}

func (d *device) NewBuffer(typ gl.BufferType) (gl.Buffer, error) {
	b := &buffer{target: bufferTypes[typ]}
	ogl.GenBuffers(1, &b.name)
	return b, nil
}

func (d *device) NewTexture() (gl.Texture, error) {
	t := &texture{}
	ogl.GenTextures(1, &t.name)
	return t, nil
}

func (d *device) NewRenderbuffer() (gl.Renderbuffer, error) {
	r := &renderbuffer{}
	ogl.GenRenderbuffers(1, &r.name)
	return r, nil
}

func (d *device) NewFramebuffer() (gl.Framebuffer, error) {
	f := &framebuffer{d: d}
	ogl.GenFramebuffers(1, &f.name)
	return f, nil
}

func (d *device) NewProgram(vertexSrc, fragmentSrc string) (gl.Program, error) {
	name, err := linkProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, err
	}
	return &program{name: name}, nil
}

func (d *device) NewVertexArray() (gl.VertexArray, error) {
	v := &vertexArray{}
	ogl.GenVertexArrays(1, &v.name)
	return v, nil
}

func (d *device) BindBuffer(typ gl.BufferType, b gl.Buffer) {
	var name uint32
	if b != nil {
		name = b.(*buffer).name
	}
	ogl.BindBuffer(bufferTypes[typ], name)
}

func (d *device) BindTexture(unit int, t gl.Texture) {
	ogl.ActiveTexture(ogl.TEXTURE0 + uint32(unit))
	var name uint32
	if t != nil {
		name = t.(*texture).name
	}
	ogl.BindTexture(ogl.TEXTURE_2D, name)
}

func (d *device) BindFramebuffer(f gl.Framebuffer) {
	var name uint32
	if f != nil {
		name = f.(*framebuffer).name
	}
	d.currentFB = name
	ogl.BindFramebuffer(ogl.FRAMEBUFFER, name)
}

func (d *device) BindVertexArray(v gl.VertexArray) {
	var name uint32
	if v != nil {
		name = v.(*vertexArray).name
	}
	ogl.BindVertexArray(name)
}

func (d *device) UseProgram(p gl.Program) {
	var name uint32
	if p != nil {
		name = p.(*program).name
	}
	ogl.UseProgram(name)
}

func (d *device) VertexAttribPointer(location, size int, typ gl.DataType, normalized bool, stride, offset int) {
	ogl.VertexAttribPointer(uint32(location), int32(size), dataTypes[typ], normalized, int32(stride), ogl.PtrOffset(offset))
}

func (d *device) EnableVertexAttrib(location int) {
	ogl.EnableVertexAttribArray(uint32(location))
}

func (d *device) DisableVertexAttrib(location int) {
	ogl.DisableVertexAttribArray(uint32(location))
}

func (d *device) VertexAttribDivisor(location, divisor int) {
	ogl.VertexAttribDivisor(uint32(location), uint32(divisor))
}

func (d *device) SetBlend(enable bool) { setCap(ogl.BLEND, enable) }

func (d *device) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gl.BlendFactor) {
	ogl.BlendFuncSeparate(blendFactors[srcRGB], blendFactors[dstRGB], blendFactors[srcAlpha], blendFactors[dstAlpha])
}

func (d *device) BlendEquationSeparate(rgb, alpha gl.BlendOp) {
	ogl.BlendEquationSeparate(blendOps[rgb], blendOps[alpha])
}

func (d *device) SetDepthTest(enable bool) { setCap(ogl.DEPTH_TEST, enable) }

func (d *device) DepthFunc(f gl.CompareFunc) { ogl.DepthFunc(compareFuncs[f]) }

func (d *device) DepthMask(write bool) { ogl.DepthMask(write) }

func (d *device) SetCullFace(enable bool) { setCap(ogl.CULL_FACE, enable) }

func (d *device) CullFace(mode gl.CullMode) { ogl.CullFace(cullModes[mode]) }

func (d *device) FrontFace(clockwise bool) {
	if clockwise {
		ogl.FrontFace(ogl.CW)
	} else {
		ogl.FrontFace(ogl.CCW)
	}
}

func (d *device) SetPolygonOffset(enable bool) { setCap(ogl.POLYGON_OFFSET_FILL, enable) }

func (d *device) PolygonOffset(factor, units float32) { ogl.PolygonOffset(factor, units) }

func (d *device) SetScissorTest(enable bool) { setCap(ogl.SCISSOR_TEST, enable) }

func (d *device) Scissor(x, y, width, height int) {
	ogl.Scissor(int32(x), int32(y), int32(width), int32(height))
}

func (d *device) SetStencilTest(enable bool) { setCap(ogl.STENCIL_TEST, enable) }

func (d *device) StencilFunc(f gl.CompareFunc, ref int, mask uint32) {
	ogl.StencilFunc(compareFuncs[f], int32(ref), mask)
}

func (d *device) StencilOp(fail, zfail, zpass gl.StencilOp) {
	ogl.StencilOp(stencilOps[fail], stencilOps[zfail], stencilOps[zpass])
}

func (d *device) StencilMask(mask uint32) { ogl.StencilMask(mask) }

func (d *device) ColorMask(r, g, b, a bool) { ogl.ColorMask(r, g, b, a) }

func (d *device) Viewport(x, y, width, height int) {
	ogl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *device) ClearColor(r, g, b, a float32) { ogl.ClearColor(r, g, b, a) }

func (d *device) Clear(mask gl.ClearMask) { ogl.Clear(clearBits(mask)) }

func (d *device) DrawElements(mode gl.PrimitiveMode, count int, typ gl.DataType, byteOffset int) {
	ogl.DrawElements(primitiveModes[mode], int32(count), dataTypes[typ], ogl.PtrOffset(byteOffset))
}

func (d *device) DrawElementsInstanced(mode gl.PrimitiveMode, count int, typ gl.DataType, byteOffset, instanceCount int) {
	ogl.DrawElementsInstanced(primitiveModes[mode], int32(count), dataTypes[typ], ogl.PtrOffset(byteOffset), int32(instanceCount))
}

func (d *device) DrawArrays(mode gl.PrimitiveMode, first, count int) {
	ogl.DrawArrays(primitiveModes[mode], int32(first), int32(count))
}

func (d *device) DrawArraysInstanced(mode gl.PrimitiveMode, first, count, instanceCount int) {
	ogl.DrawArraysInstanced(primitiveModes[mode], int32(first), int32(count), int32(instanceCount))
}

func (d *device) BlitFramebuffer(src, dst gl.Framebuffer, width, height int) {
	var srcName, dstName uint32
	if src != nil {
		srcName = src.(*framebuffer).name
	}
	if dst != nil {
		dstName = dst.(*framebuffer).name
	}
	ogl.BindFramebuffer(ogl.READ_FRAMEBUFFER, srcName)
	ogl.BindFramebuffer(ogl.DRAW_FRAMEBUFFER, dstName)
	ogl.BlitFramebuffer(0, 0, int32(width), int32(height), 0, 0, int32(width), int32(height), ogl.COLOR_BUFFER_BIT, ogl.NEAREST)
	ogl.BindFramebuffer(ogl.FRAMEBUFFER, d.currentFB)
}

func (d *device) Flush() { ogl.Flush() }

func (d *device) Release() {
	// The embedder owns the GL context; nothing to tear down here.
}

func setCap(capability uint32, enable bool) {
	if enable {
		ogl.Enable(capability)
	} else {
		ogl.Disable(capability)
	}
}

type buffer struct {
	name   uint32
	target uint32
	size   int
}

func (b *buffer) Upload(data []byte, usage gl.BufferUsage) {
	b.size = len(data)
	if len(data) == 0 {
		ogl.BufferData(b.target, 0, nil, bufferUsages[usage])
		return
	}
	ogl.BufferData(b.target, len(data), ogl.Ptr(data), bufferUsages[usage])
}

func (b *buffer) SubUpload(offset int, data []byte) {
	if len(data) == 0 {
		return
	}
	ogl.BufferSubData(b.target, offset, len(data), ogl.Ptr(data))
}

func (b *buffer) Size() int { return b.size }

func (b *buffer) Release() { ogl.DeleteBuffers(1, &b.name) }

type texture struct {
	name   uint32
	w, h   int32
	extFmt uint32
	extTyp uint32
}

func (t *texture) Storage(width, height int, format gputypes.TextureFormat) {
	internal, extFmt, extTyp := texFormat(format)
	t.w, t.h = int32(width), int32(height)
	t.extFmt, t.extTyp = extFmt, extTyp
	ogl.TexImage2D(ogl.TEXTURE_2D, 0, internal, t.w, t.h, 0, extFmt, extTyp, nil)
}

func (t *texture) Upload(x, y, width, height int, pixels []byte) {
	if len(pixels) == 0 {
		return
	}
	ogl.TexSubImage2D(ogl.TEXTURE_2D, 0, int32(x), int32(y), int32(width), int32(height), t.extFmt, t.extTyp, ogl.Ptr(pixels))
}

func (t *texture) SetFilter(min, mag gl.TextureFilter) {
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_MIN_FILTER, textureFilters[min])
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_MAG_FILTER, textureFilters[mag])
}

func (t *texture) SetWrap(u, v gl.TextureWrap) {
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_WRAP_S, textureWraps[u])
	ogl.TexParameteri(ogl.TEXTURE_2D, ogl.TEXTURE_WRAP_T, textureWraps[v])
}

func (t *texture) GenerateMipmap() { ogl.GenerateMipmap(ogl.TEXTURE_2D) }

func (t *texture) Release() { ogl.DeleteTextures(1, &t.name) }

type renderbuffer struct {
	name uint32
}

func (r *renderbuffer) Storage(width, height, samples int, format gputypes.TextureFormat) {
	ogl.BindRenderbuffer(ogl.RENDERBUFFER, r.name)
	if samples > 1 {
		ogl.RenderbufferStorageMultisample(ogl.RENDERBUFFER, int32(samples), rbFormat(format), int32(width), int32(height))
	} else {
		ogl.RenderbufferStorage(ogl.RENDERBUFFER, rbFormat(format), int32(width), int32(height))
	}
	ogl.BindRenderbuffer(ogl.RENDERBUFFER, 0)
}

func (r *renderbuffer) Release() { ogl.DeleteRenderbuffers(1, &r.name) }

type framebuffer struct {
	d    *device
	name uint32
}

func (f *framebuffer) AttachColor(index int, t gl.Texture) {
	ogl.FramebufferTexture2D(ogl.FRAMEBUFFER, ogl.COLOR_ATTACHMENT0+uint32(index), ogl.TEXTURE_2D, t.(*texture).name, 0)
}

func (f *framebuffer) AttachColorRenderbuffer(index int, rb gl.Renderbuffer) {
	ogl.FramebufferRenderbuffer(ogl.FRAMEBUFFER, ogl.COLOR_ATTACHMENT0+uint32(index), ogl.RENDERBUFFER, rb.(*renderbuffer).name)
}

func (f *framebuffer) AttachDepthStencil(rb gl.Renderbuffer) {
	ogl.FramebufferRenderbuffer(ogl.FRAMEBUFFER, ogl.DEPTH_STENCIL_ATTACHMENT, ogl.RENDERBUFFER, rb.(*renderbuffer).name)
}

func (f *framebuffer) AttachDepthTexture(t gl.Texture) {
	ogl.FramebufferTexture2D(ogl.FRAMEBUFFER, ogl.DEPTH_ATTACHMENT, ogl.TEXTURE_2D, t.(*texture).name, 0)
}

func (f *framebuffer) IsComplete() error {
	status := ogl.CheckFramebufferStatus(ogl.FRAMEBUFFER)
	if status != ogl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("%w: status 0x%04x", gl.ErrFramebufferIncomplete, status)
	}
	return nil
}

func (f *framebuffer) ReadPixels(x, y, width, height int, dst []byte) error {
	if len(dst) < width*height*4 {
		return fmt.Errorf("opengl: ReadPixels destination too small: %d < %d", len(dst), width*height*4)
	}
	ogl.ReadPixels(int32(x), int32(y), int32(width), int32(height), ogl.RGBA, ogl.UNSIGNED_BYTE, ogl.Ptr(dst))
	return nil
}

func (f *framebuffer) Release() { ogl.DeleteFramebuffers(1, &f.name) }

type program struct {
	name uint32
}

func (p *program) AttribLocation(name string) int {
	return int(ogl.GetAttribLocation(p.name, ogl.Str(name+"\x00")))
}

func (p *program) ActiveAttribs() []string {
	var count, maxLen int32
	ogl.GetProgramiv(p.name, ogl.ACTIVE_ATTRIBUTES, &count)
	ogl.GetProgramiv(p.name, ogl.ACTIVE_ATTRIBUTE_MAX_LENGTH, &maxLen)
	if maxLen < 1 {
		maxLen = 1
	}
	names := make([]string, 0, count)
	buf := make([]byte, maxLen)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		ogl.GetActiveAttrib(p.name, uint32(i), maxLen, &length, &size, &xtype, &buf[0])
		name := string(buf[:length])
		if strings.HasPrefix(name, "gl_") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (p *program) UniformLocation(name string) int {
	return int(ogl.GetUniformLocation(p.name, ogl.Str(name+"\x00")))
}

func (p *program) Uniform1i(location int, v int) { ogl.Uniform1i(int32(location), int32(v)) }

func (p *program) Uniform1iv(location int, v []int32) {
	if len(v) == 0 {
		return
	}
	ogl.Uniform1iv(int32(location), int32(len(v)), &v[0])
}

func (p *program) Uniform1f(location int, v float32) { ogl.Uniform1f(int32(location), v) }

func (p *program) Uniform2f(location int, v0, v1 float32) {
	ogl.Uniform2f(int32(location), v0, v1)
}

func (p *program) Uniform3f(location int, v0, v1, v2 float32) {
	ogl.Uniform3f(int32(location), v0, v1, v2)
}

func (p *program) Uniform4f(location int, v0, v1, v2, v3 float32) {
	ogl.Uniform4f(int32(location), v0, v1, v2, v3)
}

func (p *program) Uniform1fv(location int, v []float32) {
	if len(v) == 0 {
		return
	}
	ogl.Uniform1fv(int32(location), int32(len(v)), &v[0])
}

func (p *program) Uniform4fv(location int, v []float32) {
	if len(v) == 0 {
		return
	}
	ogl.Uniform4fv(int32(location), int32(len(v)/4), &v[0])
}

func (p *program) UniformMatrix3fv(location int, v [9]float32) {
	ogl.UniformMatrix3fv(int32(location), 1, false, &v[0])
}

func (p *program) Release() { ogl.DeleteProgram(p.name) }

type vertexArray struct {
	name uint32
}

func (v *vertexArray) Release() { ogl.DeleteVertexArrays(1, &v.name) }
