//go:build cgo

package opengl

import (
	ogl "github.com/go-gl/gl/v3.3-core/gl"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

var blendFactors = [...]uint32{
	gl.Zero:             ogl.ZERO,
	gl.One:              ogl.ONE,
	gl.SrcColor:         ogl.SRC_COLOR,
	gl.OneMinusSrcColor: ogl.ONE_MINUS_SRC_COLOR,
	gl.DstColor:         ogl.DST_COLOR,
	gl.OneMinusDstColor: ogl.ONE_MINUS_DST_COLOR,
	gl.SrcAlpha:         ogl.SRC_ALPHA,
	gl.OneMinusSrcAlpha: ogl.ONE_MINUS_SRC_ALPHA,
	gl.DstAlpha:         ogl.DST_ALPHA,
	gl.OneMinusDstAlpha: ogl.ONE_MINUS_DST_ALPHA,
}

var blendOps = [...]uint32{
	gl.BlendAdd:             ogl.FUNC_ADD,
	gl.BlendSubtract:        ogl.FUNC_SUBTRACT,
	gl.BlendReverseSubtract: ogl.FUNC_REVERSE_SUBTRACT,
	gl.BlendMin:             ogl.MIN,
	gl.BlendMax:             ogl.MAX,
}

var compareFuncs = [...]uint32{
	gl.Never:        ogl.NEVER,
	gl.Less:         ogl.LESS,
	gl.Equal:        ogl.EQUAL,
	gl.LessEqual:    ogl.LEQUAL,
	gl.Greater:      ogl.GREATER,
	gl.NotEqual:     ogl.NOTEQUAL,
	gl.GreaterEqual: ogl.GEQUAL,
	gl.Always:       ogl.ALWAYS,
}

var stencilOps = [...]uint32{
	gl.StencilKeep:     ogl.KEEP,
	gl.StencilZero:     ogl.ZERO,
	gl.StencilReplace:  ogl.REPLACE,
	gl.StencilIncr:     ogl.INCR,
	gl.StencilIncrWrap: ogl.INCR_WRAP,
	gl.StencilDecr:     ogl.DECR,
	gl.StencilDecrWrap: ogl.DECR_WRAP,
	gl.StencilInvert:   ogl.INVERT,
}

var primitiveModes = [...]uint32{
	gl.Points:        ogl.POINTS,
	gl.Lines:         ogl.LINES,
	gl.LineLoop:      ogl.LINE_LOOP,
	gl.LineStrip:     ogl.LINE_STRIP,
	gl.Triangles:     ogl.TRIANGLES,
	gl.TriangleStrip: ogl.TRIANGLE_STRIP,
	gl.TriangleFan:   ogl.TRIANGLE_FAN,
}

var dataTypes = [...]uint32{
	gl.Float:         ogl.FLOAT,
	gl.Byte:          ogl.BYTE,
	gl.UnsignedByte:  ogl.UNSIGNED_BYTE,
	gl.Short:         ogl.SHORT,
	gl.UnsignedShort: ogl.UNSIGNED_SHORT,
	gl.UnsignedInt:   ogl.UNSIGNED_INT,
}

var textureFilters = [...]int32{
	gl.Linear:               ogl.LINEAR,
	gl.Nearest:              ogl.NEAREST,
	gl.LinearMipmapLinear:   ogl.LINEAR_MIPMAP_LINEAR,
	gl.LinearMipmapNearest:  ogl.LINEAR_MIPMAP_NEAREST,
	gl.NearestMipmapLinear:  ogl.NEAREST_MIPMAP_LINEAR,
	gl.NearestMipmapNearest: ogl.NEAREST_MIPMAP_NEAREST,
}

var textureWraps = [...]int32{
	gl.ClampToEdge:    ogl.CLAMP_TO_EDGE,
	gl.Repeat:         ogl.REPEAT,
	gl.MirroredRepeat: ogl.MIRRORED_REPEAT,
}

var bufferTypes = [...]uint32{
	gl.ArrayBuffer:        ogl.ARRAY_BUFFER,
	gl.ElementArrayBuffer: ogl.ELEMENT_ARRAY_BUFFER,
}

var bufferUsages = [...]uint32{
	gl.StaticDraw:  ogl.STATIC_DRAW,
	gl.DynamicDraw: ogl.DYNAMIC_DRAW,
	gl.StreamDraw:  ogl.STREAM_DRAW,
}

var cullModes = [...]uint32{
	gl.Back:         ogl.BACK,
	gl.Front:        ogl.FRONT,
	gl.FrontAndBack: ogl.FRONT_AND_BACK,
}

// texFormat maps a gputypes format onto GL internal format, external
// format and component type for TexImage-style calls.
func texFormat(f gputypes.TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gputypes.TextureFormatBGRA8Unorm:
		return ogl.RGBA8, ogl.BGRA, ogl.UNSIGNED_BYTE
	case gputypes.TextureFormatR8Unorm:
		return ogl.R8, ogl.RED, ogl.UNSIGNED_BYTE
	case gputypes.TextureFormatDepth24PlusStencil8:
		return ogl.DEPTH24_STENCIL8, ogl.DEPTH_STENCIL, ogl.UNSIGNED_INT_24_8
	default:
		// TextureFormatUndefined and TextureFormatRGBA8Unorm.
		return ogl.RGBA8, ogl.RGBA, ogl.UNSIGNED_BYTE
	}
}

// rbFormat maps a gputypes format onto a renderbuffer internal format.
func rbFormat(f gputypes.TextureFormat) uint32 {
	switch f {
	case gputypes.TextureFormatDepth24PlusStencil8:
		return ogl.DEPTH24_STENCIL8
	case gputypes.TextureFormatR8Unorm:
		return ogl.R8
	default:
		return ogl.RGBA8
	}
}

func glBool(b bool) uint32 {
	if b {
		return ogl.TRUE
	}
	return ogl.FALSE
}

func clearBits(mask gl.ClearMask) uint32 {
	var bits uint32
	if mask&gl.ColorBufferBit != 0 {
		bits |= ogl.COLOR_BUFFER_BIT
	}
	if mask&gl.DepthBufferBit != 0 {
		bits |= ogl.DEPTH_BUFFER_BIT
	}
	if mask&gl.StencilBufferBit != 0 {
		bits |= ogl.STENCIL_BUFFER_BIT
	}
	return bits
}
