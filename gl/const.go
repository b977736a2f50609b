package gl

// BlendFactor selects a blend function operand.
type BlendFactor uint8

const (
	Zero BlendFactor = iota
	One
	SrcColor
	OneMinusSrcColor
	DstColor
	OneMinusDstColor
	SrcAlpha
	OneMinusSrcAlpha
	DstAlpha
	OneMinusDstAlpha
)

// BlendOp selects the blend equation.
type BlendOp uint8

const (
	BlendAdd BlendOp = iota
	BlendSubtract
	BlendReverseSubtract
	BlendMin
	BlendMax
)

// CompareFunc is a depth or stencil comparison.
type CompareFunc uint8

const (
	Never CompareFunc = iota
	Less
	Equal
	LessEqual
	Greater
	NotEqual
	GreaterEqual
	Always
)

// StencilOp selects how a stencil value is updated.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncr
	StencilIncrWrap
	StencilDecr
	StencilDecrWrap
	StencilInvert
)

// PrimitiveMode selects the primitive assembled by draw calls.
type PrimitiveMode uint8

const (
	Points PrimitiveMode = iota
	Lines
	LineLoop
	LineStrip
	Triangles
	TriangleStrip
	TriangleFan
)

// DataType describes the component type of vertex or index data.
type DataType uint8

const (
	Float DataType = iota
	Byte
	UnsignedByte
	Short
	UnsignedShort
	UnsignedInt
)

// ByteSize returns the size of one component in bytes.
func (t DataType) ByteSize() int {
	switch t {
	case Byte, UnsignedByte:
		return 1
	case Short, UnsignedShort:
		return 2
	default:
		return 4
	}
}

// TextureFilter selects texture sampling. The zero value is Linear, the
// default stage applies to new textures.
type TextureFilter uint8

const (
	Linear TextureFilter = iota
	Nearest
	LinearMipmapLinear
	LinearMipmapNearest
	NearestMipmapLinear
	NearestMipmapNearest
)

// TextureWrap selects texture addressing outside [0,1]. The zero value is
// ClampToEdge.
type TextureWrap uint8

const (
	ClampToEdge TextureWrap = iota
	Repeat
	MirroredRepeat
)

// BufferType is a buffer bind target.
type BufferType uint8

const (
	ArrayBuffer BufferType = iota
	ElementArrayBuffer
)

// BufferUsage hints at the update frequency of a buffer store.
type BufferUsage uint8

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
	StreamDraw
)

// CullMode selects which triangle faces are culled.
type CullMode uint8

const (
	Back CullMode = iota
	Front
	FrontAndBack
)

// ClearMask selects buffers for Device.Clear.
type ClearMask uint8

const (
	ColorBufferBit ClearMask = 1 << iota
	DepthBufferBit
	StencilBufferBit
)
