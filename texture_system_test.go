package stage

import (
	"testing"

	"github.com/gogpu/stage/gl"
	"github.com/gogpu/stage/gl/gltest"
)

func TestTextureBindUploadsOnce(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 8*8*4), 8, 8), nil)

	dev.ResetCalls()
	r.Texture.Bind(base, 0)
	r.Texture.Bind(base, 0)
	r.Texture.Bind(base, 0)

	if got := dev.Count("BindTexture"); got != 1 {
		t.Errorf("BindTexture calls = %d, want 1 (unit cache)", got)
	}
	glt := dev.BoundTexture(0)
	if glt == nil {
		t.Fatal("nothing bound on unit 0")
	}
	if glt.Uploads != 1 {
		t.Errorf("uploads = %d, want 1", glt.Uploads)
	}
	if glt.W != 8 || glt.H != 8 {
		t.Errorf("storage = %dx%d, want 8x8", glt.W, glt.H)
	}
}

func TestTextureBindReuploadsWhenDirty(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	r.Texture.Bind(base, 0)
	before := dev.BoundTexture(0).Uploads

	base.Update()
	r.Texture.Bind(base, 0)
	if got := dev.BoundTexture(0).Uploads; got != before+1 {
		t.Errorf("uploads = %d, want %d", got, before+1)
	}
}

func TestTextureStyleChangeDoesNotReupload(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	r.Texture.Bind(base, 0)
	before := dev.BoundTexture(0).Uploads

	base.SetScaleMode(gl.Nearest)
	r.Texture.Bind(base, 0)

	glt := dev.BoundTexture(0)
	if glt.Uploads != before {
		t.Errorf("style change re-uploaded pixels: %d -> %d", before, glt.Uploads)
	}
	if glt.MagFilter != gl.Nearest {
		t.Errorf("mag filter = %v, want nearest", glt.MagFilter)
	}
}

func TestTextureBindNilUsesEmptySentinel(t *testing.T) {
	r, dev := newTestRenderer(t)

	r.Texture.Bind(nil, 2)
	if dev.BoundTexture(2) == nil {
		t.Fatal("nil bind should still bind the empty sentinel")
	}
	if got := r.Texture.Bound(2); got != r.Texture.emptyTexture {
		t.Error("unit cache should hold the empty sentinel")
	}
}

func TestTextureBindInvalidUsesPlaceholder(t *testing.T) {
	r, _ := newTestRenderer(t)
	invalid := NewBaseTexture(nil, nil) // no size, not usable

	r.Texture.Bind(invalid, 0)
	if got := r.Texture.Bound(0); got != r.Texture.invalidTexture {
		t.Error("invalid texture should bind the placeholder")
	}
}

func TestTextureBindDestroyedFallsBackToEmpty(t *testing.T) {
	r, _ := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	r.Texture.Bind(base, 0)

	base.Destroy()
	r.Texture.Bind(base, 0)
	if got := r.Texture.Bound(0); got != r.Texture.emptyTexture {
		t.Error("destroyed texture should bind the empty sentinel")
	}
}

func TestTextureDestroyReleasesAndUnbinds(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	r.Texture.Bind(base, 0)
	glt := dev.BoundTexture(0)

	base.Destroy()
	if !glt.Released {
		t.Error("GPU copy not released on Destroy")
	}
	if dev.BoundTexture(0) == glt {
		t.Error("destroyed texture still bound")
	}
	if r.Texture.Bound(0) != nil {
		t.Error("unit cache still holds the destroyed texture")
	}
}

func TestTextureUnbindClearsUnits(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	r.Texture.Bind(base, 0)
	r.Texture.Bind(base, 3)
	r.Texture.Unbind(base)

	if dev.BoundTexture(0) != nil || dev.BoundTexture(3) != nil {
		t.Error("Unbind left device units bound")
	}
	if r.Texture.Bound(0) != nil || r.Texture.Bound(3) != nil {
		t.Error("Unbind left cache entries")
	}
}

func TestTextureMipmapsForPowerOfTwo(t *testing.T) {
	r, dev := newTestRenderer(t)

	pot := NewBaseTexture(NewBufferResource(make([]byte, 16*16*4), 16, 16), nil)
	r.Texture.Bind(pot, 0)
	if dev.BoundTexture(0).Mipmaps == 0 {
		t.Error("power-of-two texture should generate mipmaps by default")
	}

	npot := NewBaseTexture(NewBufferResource(make([]byte, 5*3*4), 5, 3), nil)
	r.Texture.Bind(npot, 1)
	if dev.BoundTexture(1).Mipmaps != 0 {
		t.Error("NPOT texture must not generate mipmaps by default")
	}
}

func TestTextureBindOutOfRangeUnit(t *testing.T) {
	r, dev := newTestRenderer(t)
	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)

	dev.ResetCalls()
	r.Texture.Bind(base, -1)
	r.Texture.Bind(base, len(r.Texture.boundTextures))
	if got := dev.Count("BindTexture"); got != 0 {
		t.Errorf("out-of-range units reached the device %d times", got)
	}
}

func TestTextureGCUnloadsIdle(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.TextureGC.MaxIdle = 2

	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	r.Texture.Bind(base, 0)
	glt := dev.BoundTexture(0)

	// Advance well past MaxIdle without touching the texture.
	quad := newTestQuad(newTestTexture(4, 4))
	for i := 0; i < 4; i++ {
		if err := r.Render(quad, nil); err != nil {
			t.Fatal(err)
		}
	}
	r.TextureGC.Run()

	if !glt.Released {
		t.Error("idle texture GPU copy not unloaded")
	}
	if base.Destroyed() {
		t.Error("GC must keep the CPU descriptor")
	}
	if !base.Valid() {
		t.Error("GC must keep the texture usable")
	}

	// Using it again re-uploads.
	r.Texture.Bind(base, 0)
	fresh := dev.BoundTexture(0)
	if fresh == nil || fresh == glt {
		t.Error("re-bind after GC should create a fresh GPU copy")
	}
}

func TestTextureGCKeepsRecentlyUsed(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.TextureGC.MaxIdle = 10

	quad := newTestQuad(newTestTexture(4, 4))
	for i := 0; i < 5; i++ {
		if err := r.Render(quad, nil); err != nil {
			t.Fatal(err)
		}
	}
	r.TextureGC.Run()

	// The quad texture was bound every frame; it must survive.
	if n := len(dev.LiveTextures()); n == 0 {
		t.Error("working set evicted")
	}
}

func TestTextureGCSkipsRenderTargets(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.TextureGC.MaxIdle = 1

	rt := NewRenderTexture(&RenderTextureOptions{Width: 8, Height: 8})
	defer rt.Destroy()
	if err := r.Render(newTestQuad(newTestTexture(4, 4)), &RenderOptions{Into: rt}); err != nil {
		t.Fatal(err)
	}

	quad := newTestQuad(newTestTexture(4, 4))
	for i := 0; i < 5; i++ {
		if err := r.Render(quad, nil); err != nil {
			t.Fatal(err)
		}
	}
	r.TextureGC.Run()

	if _, ok := rt.Base.glTextures[r.contextUID()]; !ok {
		t.Error("render target storage must never be garbage collected")
	}
}

func TestTextureGCManualMode(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.TextureGC.Mode = GCManual
	r.TextureGC.MaxIdle = 1
	r.TextureGC.CheckPeriod = 1

	base := NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
	r.Texture.Bind(base, 0)
	glt := dev.BoundTexture(0)

	quad := newTestQuad(newTestTexture(4, 4))
	for i := 0; i < 5; i++ {
		if err := r.Render(quad, nil); err != nil {
			t.Fatal(err)
		}
	}
	if glt.Released {
		t.Error("manual mode must not sweep on its own")
	}
}

func TestTextureGCAutoSweeps(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.TextureGC.CheckPeriod = 2
	r.TextureGC.MaxIdle = 1

	victim := newTestTexture(8, 8)
	if err := r.Render(newTestQuad(victim), nil); err != nil {
		t.Fatal(err)
	}
	keeper := newTestTexture(4, 4)
	if err := r.Render(newTestQuad(keeper), nil); err != nil {
		t.Fatal(err)
	}

	// The second screen frame hits the check period and sweeps.
	if len(victim.Base.glTextures) != 0 {
		t.Error("auto sweep did not unload the idle texture")
	}
	if len(keeper.Base.glTextures) == 0 {
		t.Error("auto sweep unloaded a live texture")
	}
}

func TestTextureGCBoundedScan(t *testing.T) {
	r, _ := newTestRenderer(t)
	r.TextureGC.MaxIdle = 1
	r.TextureGC.MaxScan = 2

	idle := make([]*BaseTexture, 3)
	for i := range idle {
		idle[i] = NewBaseTexture(NewBufferResource(make([]byte, 4*4*4), 4, 4), nil)
		r.Texture.Bind(idle[i], 0)
	}
	quad := newTestQuad(newTestTexture(4, 4))
	for i := 0; i < 4; i++ {
		if err := r.Render(quad, nil); err != nil {
			t.Fatal(err)
		}
	}

	// A sweep examining at most two textures cannot unload all three.
	r.TextureGC.Run()
	live := 0
	for _, base := range idle {
		if len(base.glTextures) > 0 {
			live++
		}
	}
	if live < 1 {
		t.Error("bounded sweep examined more textures than MaxScan")
	}

	// An unbounded sweep finishes the job.
	r.TextureGC.MaxScan = 0
	r.TextureGC.Run()
	for i, base := range idle {
		if len(base.glTextures) != 0 {
			t.Errorf("texture %d still resident after full sweep", i)
		}
	}
}

func TestTextureGCOnlyCountsScreenFrames(t *testing.T) {
	r, _ := newTestRenderer(t)
	rt := NewRenderTexture(&RenderTextureOptions{Width: 8, Height: 8})
	defer rt.Destroy()

	before := r.TextureGC.Count()
	if err := r.Render(newTestQuad(newTestTexture(4, 4)), &RenderOptions{Into: rt}); err != nil {
		t.Fatal(err)
	}
	if r.TextureGC.Count() != before {
		t.Error("texture pass advanced the frame tick")
	}
	if err := r.Render(newTestQuad(newTestTexture(4, 4)), nil); err != nil {
		t.Fatal(err)
	}
	if r.TextureGC.Count() != before+1 {
		t.Error("screen pass should advance the frame tick")
	}
}

func TestTextureSystemReducedUnits(t *testing.T) {
	caps := gltest.DefaultCaps()
	caps.MaxTextureUnits = 2
	r, _ := newTestRendererWithCaps(t, caps)

	if got := len(r.Texture.boundTextures); got != 2 {
		t.Errorf("unit cache = %d entries, want 2", got)
	}
}
