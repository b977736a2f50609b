package stage

import (
	"errors"
	"testing"

	"github.com/gogpu/stage/gl"
	"github.com/gogpu/stage/gl/gltest"
)

func TestMaskPopWithoutPush(t *testing.T) {
	r, _ := newTestRenderer(t)
	if err := r.Mask.Pop(); !errors.Is(err, ErrMaskStackUnderflow) {
		t.Errorf("err = %v, want ErrMaskStackUnderflow", err)
	}
}

func TestMaskAutoDetect(t *testing.T) {
	r, _ := newTestRenderer(t)

	rect := NewMaskData()
	rect.Region = R(0, 0, 10, 10)
	r.Mask.Push(rect)
	if rect.Type != MaskScissor {
		t.Errorf("axis-aligned region = %v, want scissor", rect.Type)
	}

	rotated := NewMaskData()
	rotated.Region = R(0, 0, 10, 10)
	rotated.Transform = Rotate(0.3)
	r.Mask.Push(rotated)
	if rotated.Type != MaskStencil {
		t.Errorf("rotated region = %v, want stencil", rotated.Type)
	}

	sprite := NewMaskData()
	sprite.SpriteTexture = newTestTexture(8, 8)
	r.Mask.Push(sprite)
	if sprite.Type != MaskSprite {
		t.Errorf("texture mask = %v, want sprite", sprite.Type)
	}

	for i := 0; i < 3; i++ {
		if err := r.Mask.Pop(); err != nil {
			t.Fatal(err)
		}
	}
	if r.Mask.Depth() != 0 {
		t.Errorf("depth = %d after balanced pops", r.Mask.Depth())
	}
}

func TestMaskAutoDetectWithoutStencilSupport(t *testing.T) {
	caps := gltest.DefaultCaps()
	caps.Features &^= gl.FeatureStencil
	r, _ := newTestRendererWithCaps(t, caps)

	md := NewMaskData()
	md.Region = R(0, 0, 10, 10)
	md.Transform = Rotate(0.3)
	r.Mask.Push(md)
	if md.Type != MaskSprite {
		t.Errorf("type = %v, want the sprite fallback", md.Type)
	}
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if r.Filter.Depth() != 0 {
		t.Errorf("filter depth = %d after pop", r.Filter.Depth())
	}
}

func TestMaskScissorAppliesDeviceRect(t *testing.T) {
	r, dev := newTestRenderer(t)

	// Screen is 64x48: the scissor origin flips to the bottom-left.
	r.Mask.PushRegion(R(8, 8, 16, 12), Identity())
	if !dev.ScissorEnabled() {
		t.Fatal("scissor not enabled")
	}
	if sc := dev.ScissorRect(); sc != [4]int{8, 28, 16, 12} {
		t.Errorf("scissor = %v, want [8 28 16 12]", sc)
	}

	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if dev.ScissorEnabled() {
		t.Error("scissor still enabled after pop")
	}
}

func TestMaskScissorNestingIntersects(t *testing.T) {
	r, dev := newTestRenderer(t)

	r.Mask.PushRegion(R(0, 0, 20, 20), Identity())
	if sc := dev.ScissorRect(); sc != [4]int{0, 28, 20, 20} {
		t.Errorf("outer scissor = %v", sc)
	}

	// The inner mask reaches outside the outer one; only the overlap
	// survives.
	r.Mask.PushRegion(R(10, 10, 20, 20), Identity())
	if sc := dev.ScissorRect(); sc != [4]int{10, 28, 10, 10} {
		t.Errorf("inner scissor = %v, want the intersection", sc)
	}

	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if sc := dev.ScissorRect(); sc != [4]int{0, 28, 20, 20} {
		t.Errorf("outer scissor not restored: %v", sc)
	}
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
}

func TestMaskScissorScalesByTransformAndResolution(t *testing.T) {
	dev := gltest.New()
	r, err := NewRenderer(64, 48, WithDevice(dev), WithResolution(2))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Destroy()

	r.Mask.PushRegion(R(0, 0, 5, 5), Translate(4, 6).Multiply(Scale(2, 2)))
	// World rect (4,6)-(14,16), resolution 2, backbuffer 96px tall:
	// y = 96 - 12 - 20 = 64.
	if sc := dev.ScissorRect(); sc != [4]int{8, 64, 20, 20} {
		t.Errorf("scissor = %v, want [8 64 20 20]", sc)
	}
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
}

func TestMaskStencilCarvesAndTests(t *testing.T) {
	r, dev := newTestRenderer(t)

	outer := NewMaskData()
	outer.Region = R(0, 0, 20, 20)
	outer.Transform = Rotate(0.5)
	r.Mask.Push(outer)

	if !dev.StencilEnabled() {
		t.Fatal("stencil test not enabled")
	}
	fn, ref := dev.StencilState()
	if fn != gl.Equal || ref != 1 {
		t.Errorf("stencil test = %v ref %d, want Equal 1", fn, ref)
	}
	if ops := dev.StencilOpState(); ops != [3]gl.StencilOp{gl.StencilKeep, gl.StencilKeep, gl.StencilKeep} {
		t.Errorf("stencil ops = %v, want keep after the carve", ops)
	}
	// The carve draw ran while testing against the previous depth.
	carve := dev.Draws[len(dev.Draws)-1]
	if !carve.StencilOn || carve.StencilRef != 0 {
		t.Errorf("carve draw ref = %d (on=%v), want 0", carve.StencilRef, carve.StencilOn)
	}

	inner := NewMaskData()
	inner.Region = R(5, 5, 10, 10)
	inner.Transform = Rotate(0.25)
	r.Mask.Push(inner)
	if _, ref := dev.StencilState(); ref != 2 {
		t.Errorf("nested ref = %d, want 2", ref)
	}

	// Popping the inner mask erases its increment and drops the test
	// back one level.
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	erase := dev.Draws[len(dev.Draws)-1]
	if erase.StencilRef != 2 {
		t.Errorf("erase draw ref = %d, want 2", erase.StencilRef)
	}
	if _, ref := dev.StencilState(); ref != 1 {
		t.Errorf("ref after inner pop = %d, want 1", ref)
	}

	// The last stencil mask clears the buffer and disables the test.
	dev.ResetCalls()
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if dev.StencilEnabled() {
		t.Error("stencil still enabled after the last pop")
	}
	if got := dev.Count("Clear"); got != 1 {
		t.Errorf("Clear calls = %d, want the stencil wipe", got)
	}
}

func TestMaskSpriteRunsFilterPass(t *testing.T) {
	r, dev := newTestRenderer(t)
	tex := newTestTexture(8, 8)

	r.Mask.PushSprite(tex, Translate(2, 3))
	if r.Filter.Depth() != 1 {
		t.Fatalf("filter depth = %d, want 1", r.Filter.Depth())
	}
	// Content drawn under the mask lands in the capture texture.
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))

	dev.ResetCalls()
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if r.Filter.Depth() != 0 {
		t.Errorf("filter depth = %d after pop", r.Filter.Depth())
	}

	// The composite samples the capture through the mask shader.
	var composite *gltest.DrawCall
	for i := range dev.Draws {
		if dev.Draws[i].Mode == gl.TriangleStrip {
			composite = &dev.Draws[i]
		}
	}
	if composite == nil {
		t.Fatal("no mask composite draw")
	}
	uv := composite.Program.UniformValues
	if _, ok := uv["npmAlpha"]; !ok {
		t.Error("mask shader missing npmAlpha")
	}
	if _, ok := uv["maskClamp"]; !ok {
		t.Error("mask shader missing maskClamp")
	}
	if got := uv["alpha"]; got != float32(1) {
		t.Errorf("alpha = %v, want 1", got)
	}
}

func TestMaskPushFlushesPendingBatches(t *testing.T) {
	r, dev := newTestRenderer(t)
	r.Batch.Add(newTestQuad(newTestTexture(4, 4)))

	dev.ResetCalls()
	r.Mask.PushRegion(R(0, 0, 10, 10), Identity())

	// Geometry queued before the push is not clipped by the new mask.
	if len(dev.Draws) != 1 {
		t.Fatalf("draws = %d, want the pre-mask flush", len(dev.Draws))
	}
	if dev.Draws[0].ScissorOn {
		t.Error("pre-mask content must not be scissored")
	}
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
}

func TestMaskPooledDataResetOnPop(t *testing.T) {
	r, _ := newTestRenderer(t)

	md := r.Mask.PushRegion(R(1, 2, 3, 4), Translate(5, 6))
	if err := r.Mask.Pop(); err != nil {
		t.Fatal(err)
	}
	if md.Region != (Rect{}) || md.Transform != Identity() {
		t.Error("pooled mask data not reset for reuse")
	}
}
