package stage

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

// fullScreenKey buckets textures that exactly match the screen size.
// They skip power-of-two rounding because filters covering the whole
// screen are common and the exact size avoids wasted memory.
const fullScreenKey int64 = -1

// RenderTexturePool recycles render textures between filter passes.
// Textures are bucketed by power-of-two pixel dimensions, so requests of
// similar size share storage; the sampled region is tracked separately
// by the texture's filter frame.
type RenderTexturePool struct {
	// ScaleMode and Format are applied to textures the pool creates.
	ScaleMode gl.TextureFilter
	Format    gputypes.TextureFormat

	// EnableFullScreen keeps exact-size textures for requests matching
	// the screen. SetScreenSize must be kept current for it to trigger.
	EnableFullScreen bool

	pools map[int64][]*RenderTexture

	screenWidth, screenHeight int
}

// NewRenderTexturePool creates an empty pool.
func NewRenderTexturePool() *RenderTexturePool {
	return &RenderTexturePool{
		EnableFullScreen: true,
		pools:            make(map[int64][]*RenderTexture),
	}
}

// SetScreenSize records the backbuffer pixel size. Changing it destroys
// the full-screen bucket, whose textures no longer match.
func (p *RenderTexturePool) SetScreenSize(width, height int) {
	if width == p.screenWidth && height == p.screenHeight {
		return
	}
	p.screenWidth, p.screenHeight = width, height
	for _, rt := range p.pools[fullScreenKey] {
		rt.Destroy()
	}
	delete(p.pools, fullScreenKey)
}

// GetOptimalTexture returns a texture at least minWidth x minHeight
// logical units at the given resolution, reusing a pooled one when the
// bucket has any. The result's resolution is adjusted so its logical
// size covers the request.
func (p *RenderTexturePool) GetOptimalTexture(minWidth, minHeight, resolution float64) *RenderTexture {
	if resolution <= 0 {
		resolution = 1
	}
	pw := int(math.Ceil(minWidth*resolution - ceilEps))
	ph := int(math.Ceil(minHeight*resolution - ceilEps))
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}

	var key int64
	if p.EnableFullScreen && pw == p.screenWidth && ph == p.screenHeight {
		key = fullScreenKey
	} else {
		pw, ph = nextPow2(pw), nextPow2(ph)
		key = int64(pw)<<32 | int64(ph)
	}

	bucket := p.pools[key]
	var rt *RenderTexture
	if n := len(bucket); n > 0 {
		rt = bucket[n-1]
		p.pools[key] = bucket[:n-1]
	} else {
		rt = NewRenderTexture(&RenderTextureOptions{
			Width:     float64(pw),
			Height:    float64(ph),
			ScaleMode: p.ScaleMode,
			Format:    p.Format,
		})
		rt.filterPoolKey = key
		Logger().Debug("render texture pool grew",
			"width", pw, "height", ph, "fullscreen", key == fullScreenKey)
	}
	rt.Base.SetResolution(resolution)
	return rt
}

// ReturnTexture puts a texture back into its bucket. The texture must
// have come from this pool.
func (p *RenderTexturePool) ReturnTexture(rt *RenderTexture) {
	if rt.filterPoolKey == 0 {
		panic("stage: returned texture was not acquired from the pool")
	}
	rt.filterFrame = nil
	p.pools[rt.filterPoolKey] = append(p.pools[rt.filterPoolKey], rt)
}

// Clear empties the pool, destroying the pooled textures when asked.
func (p *RenderTexturePool) Clear(destroyTextures bool) {
	if destroyTextures {
		for _, bucket := range p.pools {
			for _, rt := range bucket {
				rt.Destroy()
			}
		}
	}
	p.pools = make(map[int64][]*RenderTexture)
}

// nextPow2 rounds v up to the next power of two. Values below one round
// to one.
func nextPow2(v int) int {
	if v <= 1 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	return v + 1
}
