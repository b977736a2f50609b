package stage

// ClearMode tells a filter pass what to do with the output target
// before drawing into it.
type ClearMode uint8

const (
	// ClearModeBlend leaves the output as is and blends over it. Final
	// passes use it to composite onto the restored target.
	ClearModeBlend ClearMode = iota

	// ClearModeClear wipes the output first. Intermediate ping-pong
	// passes use it so stale texels never bleed through.
	ClearModeClear

	// ClearModeAuto clears only when the output is a temporary filter
	// texture.
	ClearModeAuto
)

func (m ClearMode) String() string {
	switch m {
	case ClearModeBlend:
		return "blend"
	case ClearModeClear:
		return "clear"
	case ClearModeAuto:
		return "auto"
	}
	return "unknown"
}

// FilterSettings control how the filter pipeline prepares input for a
// pass. The zero value is not useful; NewFilter fills in the defaults.
type FilterSettings struct {
	// Padding grows the captured region on every side, in world units.
	// Blur-like filters need their reach covered or the effect clips at
	// the frame edge.
	Padding float64

	// Resolution of the temporary textures. Zero uses the renderer's
	// resolution.
	Resolution float64

	// AutoFit clamps the captured region to the visible source frame.
	// Filters that sample outside the output frame turn it off.
	AutoFit bool

	// Enabled lets a filter be skipped without removing it.
	Enabled bool

	// Blend is the pipeline state the pass draws with.
	Blend *State
}

// Filter is one full-screen pass of the post-process pipeline. The
// pipeline captures the filtered content into a texture, hands it to
// Apply, and composites the result.
type Filter interface {
	// Settings returns the pass configuration. The pipeline reads it on
	// every push.
	Settings() *FilterSettings

	// Apply renders input into output, usually by delegating to
	// FilterSystem.ApplyFilter with the filter's own shader.
	Apply(sys *FilterSystem, input, output *RenderTexture, clear ClearMode)
}

// BaseFilter is a single-program filter pass. Concrete filters embed it,
// add their uniforms, and override Apply when one draw is not enough.
type BaseFilter struct {
	FilterSettings

	// Shader runs the pass. Its uniform group carries the filter's own
	// uniforms; the pipeline injects the frame uniforms separately.
	Shader *Shader
}

// NewFilter builds a filter over the given fragment source. Empty
// sources fall back to the default pass-through pair. Uniforms may be
// nil.
func NewFilter(vertexSrc, fragmentSrc string, uniforms *UniformGroup) *BaseFilter {
	if vertexSrc == "" {
		vertexSrc = defaultFilterVertexSrc
	}
	if fragmentSrc == "" {
		fragmentSrc = defaultFilterFragmentSrc
	}
	return &BaseFilter{
		FilterSettings: FilterSettings{
			AutoFit:    true,
			Enabled:    true,
			Blend:      NewState(),
			Resolution: 0,
		},
		Shader: NewShader(NewProgram(vertexSrc, fragmentSrc), uniforms),
	}
}

// Settings implements Filter.
func (f *BaseFilter) Settings() *FilterSettings { return &f.FilterSettings }

// Apply implements Filter with a single pass of the filter's shader.
func (f *BaseFilter) Apply(sys *FilterSystem, input, output *RenderTexture, clear ClearMode) {
	sys.ApplyFilter(f.Shader, f.Blend, input, output, clear)
}

// defaultFilterVertexSrc positions the unit quad over the output frame
// and derives input texture coordinates from it. outputFrame is the
// captured region in world space; inputSize.zw holds 1/width, 1/height
// of the input texture.
const defaultFilterVertexSrc = `
attribute vec2 aVertexPosition;

uniform mat3 projectionMatrix;

uniform vec4 inputSize;
uniform vec4 outputFrame;

varying vec2 vTextureCoord;

vec4 filterVertexPosition(void)
{
	vec2 position = aVertexPosition * max(outputFrame.zw, vec2(0.0)) + outputFrame.xy;
	return vec4((projectionMatrix * vec3(position, 1.0)).xy, 0.0, 1.0);
}

vec2 filterTextureCoord(void)
{
	return aVertexPosition * (outputFrame.zw * inputSize.zw);
}

void main(void)
{
	gl_Position = filterVertexPosition();
	vTextureCoord = filterTextureCoord();
}
`

// defaultFilterFragmentSrc copies the input unchanged.
const defaultFilterFragmentSrc = `
varying vec2 vTextureCoord;

uniform sampler2D uSampler;

void main(void)
{
	gl_FragColor = texture2D(uSampler, vTextureCoord);
}
`
