package gl

import "strings"

// Features is a bitset of optional device capabilities.
type Features uint32

const (
	// FeatureVertexArrays indicates vertex array object support. stage
	// requires it; both shipped drivers provide it.
	FeatureVertexArrays Features = 1 << iota

	// FeatureInstancing indicates instanced draw and attribute divisor
	// support.
	FeatureInstancing

	// FeatureUint32Indices indicates 32-bit element indices.
	FeatureUint32Indices

	// FeatureStencil indicates a stencil buffer on the default backbuffer
	// and stencil attachments on framebuffers.
	FeatureStencil

	// FeatureMSAA indicates multisampled renderbuffer support.
	FeatureMSAA

	// FeatureBlit indicates BlitFramebuffer support.
	FeatureBlit

	// FeatureFloatTextures indicates float32 texture sampling.
	FeatureFloatTextures

	// FeatureDepthTexture indicates depth texture attachments.
	FeatureDepthTexture

	// FeatureLoseContext indicates the context can be lost and restored.
	FeatureLoseContext
)

var featureNames = map[Features]string{
	FeatureVertexArrays:  "vertex-arrays",
	FeatureInstancing:    "instancing",
	FeatureUint32Indices: "uint32-indices",
	FeatureStencil:       "stencil",
	FeatureMSAA:          "msaa",
	FeatureBlit:          "blit",
	FeatureFloatTextures: "float-textures",
	FeatureDepthTexture:  "depth-texture",
	FeatureLoseContext:   "lose-context",
}

// Has reports whether all of feats are present.
func (f Features) Has(feats Features) bool {
	return f&feats == feats
}

// String lists the set features, for diagnostics.
func (f Features) String() string {
	var names []string
	for bit := Features(1); bit <= FeatureLoseContext; bit <<= 1 {
		if f&bit != 0 {
			names = append(names, featureNames[bit])
		}
	}
	return strings.Join(names, ",")
}

// Caps describes a device's fixed limits. Values are valid for the
// lifetime of one context and must be re-read after a restore.
type Caps struct {
	Features Features

	// MaxTextureSize is the largest texture edge in texels.
	MaxTextureSize int

	// MaxTextureUnits is the number of simultaneously bound samplers
	// available to a fragment shader.
	MaxTextureUnits int

	// MaxSamples is the highest multisample count for renderbuffers.
	// Zero or one means no multisampling.
	MaxSamples int

	// MaxVertexAttribs is the number of vertex attribute locations.
	MaxVertexAttribs int
}
