package stage

// SpriteMaskFilter multiplies filtered content by a mask texture's red
// and alpha channels. The mask system runs it for masks that cannot be
// expressed with the scissor rectangle or the stencil buffer.
type SpriteMaskFilter struct {
	*BaseFilter

	// Alpha scales the whole mask.
	Alpha float64

	maskTexture   *Texture
	maskTransform Matrix
	texMatrix     *TextureMatrix
}

// NewSpriteMaskFilter creates the filter with no mask selected.
func NewSpriteMaskFilter() *SpriteMaskFilter {
	return &SpriteMaskFilter{
		BaseFilter: NewFilter(spriteMaskVertexSrc, spriteMaskFragmentSrc, nil),
		Alpha:      1,
	}
}

// SetMask selects the mask texture and the transform placing it in
// world space.
func (f *SpriteMaskFilter) SetMask(tex *Texture, transform Matrix) {
	f.maskTexture = tex
	f.maskTransform = transform
	if tex == nil {
		return
	}
	if f.texMatrix == nil {
		f.texMatrix = NewTextureMatrix(tex, 0)
		return
	}
	f.texMatrix.SetTexture(tex)
}

// Mask returns the selected mask texture.
func (f *SpriteMaskFilter) Mask() *Texture { return f.maskTexture }

// Apply implements Filter. An invalid mask draws nothing, matching how
// an empty mask hides its content entirely.
func (f *SpriteMaskFilter) Apply(sys *FilterSystem, input, output *RenderTexture, clear ClearMode) {
	tex := f.maskTexture
	if tex == nil || !tex.Valid() {
		return
	}
	f.texMatrix.Update(false)

	npm := 1.0
	if tex.Base.Premultiplied() {
		npm = 0.0
	}

	other := f.texMatrix.MapCoord.Multiply(
		sys.CalculateSpriteMatrix(input, f.maskTransform, tex))

	u := f.Shader.Uniforms
	u.Set("mask", tex)
	u.Set("otherMatrix", other)
	u.Set("alpha", f.Alpha)
	u.Set("npmAlpha", npm)
	u.Set("maskClamp", f.texMatrix.UClampFrame)

	sys.ApplyFilter(f.Shader, f.Blend, input, output, clear)
}

// spriteMaskVertexSrc forwards the filter quad and derives the mask
// sampling coordinate from the input coordinate through otherMatrix.
const spriteMaskVertexSrc = `
attribute vec2 aVertexPosition;

uniform mat3 projectionMatrix;
uniform mat3 otherMatrix;

uniform vec4 inputSize;
uniform vec4 outputFrame;

varying vec2 vTextureCoord;
varying vec2 vMaskCoord;

void main(void)
{
	vec2 position = aVertexPosition * max(outputFrame.zw, vec2(0.0)) + outputFrame.xy;
	gl_Position = vec4((projectionMatrix * vec3(position, 1.0)).xy, 0.0, 1.0);
	vTextureCoord = aVertexPosition * (outputFrame.zw * inputSize.zw);
	vMaskCoord = (otherMatrix * vec3(vTextureCoord, 1.0)).xy;
}
`

// spriteMaskFragmentSrc clips samples outside the mask frame and scales
// the content by the mask's red channel. npmAlpha folds straight-alpha
// masks down to their premultiplied equivalent.
const spriteMaskFragmentSrc = `
varying vec2 vTextureCoord;
varying vec2 vMaskCoord;

uniform sampler2D uSampler;
uniform sampler2D mask;
uniform float alpha;
uniform float npmAlpha;
uniform vec4 maskClamp;

void main(void)
{
	float clip = step(3.5,
		step(maskClamp.x, vMaskCoord.x) +
		step(maskClamp.y, vMaskCoord.y) +
		step(vMaskCoord.x, maskClamp.z) +
		step(vMaskCoord.y, maskClamp.w));

	vec4 original = texture2D(uSampler, vTextureCoord);
	vec4 masky = texture2D(mask, vMaskCoord);
	float alphaMul = 1.0 - npmAlpha * (1.0 - masky.a);

	gl_FragColor = original * (alphaMul * masky.r * alpha * clip);
}
`
