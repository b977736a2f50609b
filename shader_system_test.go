package stage

import (
	"errors"
	"testing"

	"github.com/gogpu/stage/gl"
	"github.com/gogpu/stage/gl/gltest"
)

const testVertSrc = `attribute vec2 aPos;
uniform mat3 uTransform;
void main(void) {
    gl_Position = vec4((uTransform * vec3(aPos, 1.0)).xy, 0.0, 1.0);
}`

const testFragSrc = `precision mediump float;
uniform float uAlpha;
uniform vec4 uColor;
uniform sampler2D uSampler;
void main(void) {
    gl_FragColor = uColor * uAlpha;
}`

func TestShaderBindCompilesOncePerContext(t *testing.T) {
	r, dev := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)

	dev.ResetCalls()
	gp1, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	gp2, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	if gp1 != gp2 {
		t.Error("second bind should reuse the compiled program")
	}
	if got := dev.Count("NewProgram"); got != 1 {
		t.Errorf("NewProgram calls = %d, want 1", got)
	}
	if got := dev.Count("UseProgram"); got != 1 {
		t.Errorf("UseProgram calls = %d, want 1 (already bound)", got)
	}
}

func TestShaderUniformUploadSkipsCleanGroups(t *testing.T) {
	r, dev := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	sh.Uniforms.Set("uAlpha", float32(0.5))
	sh.Uniforms.Set("uColor", RGBA{R: 1, G: 0.5, B: 0, A: 1})

	gp, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	prog := gp.Prog.(*gltest.Program)
	if got := prog.UniformValues["uAlpha"]; got != float32(0.5) {
		t.Errorf("uAlpha = %v, want 0.5", got)
	}
	if got := prog.UniformValues["uColor"]; got != [4]float32{1, 0.5, 0, 1} {
		t.Errorf("uColor = %v", got)
	}

	// Nothing changed, so the re-bind uploads nothing.
	dev.ResetCalls()
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatal(err)
	}
	if got := dev.Count("Uniform1f") + dev.Count("Uniform4f"); got != 0 {
		t.Errorf("clean group issued %d uniform stores", got)
	}

	sh.Uniforms.Set("uAlpha", float32(0.25))
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatal(err)
	}
	if got := prog.UniformValues["uAlpha"]; got != float32(0.25) {
		t.Errorf("uAlpha after change = %v, want 0.25", got)
	}
}

func TestShaderTextureUniformsRebindEverySync(t *testing.T) {
	r, dev := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	tex := newTestTexture(4, 4)
	sh.Uniforms.Set("uSampler", tex)

	gp, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	prog := gp.Prog.(*gltest.Program)
	if got := prog.UniformValues["uSampler"]; got != 0 {
		t.Errorf("uSampler unit = %v, want 0", got)
	}
	glt := tex.Base.glTextures[r.contextUID()]
	if glt == nil || dev.BoundTexture(0) != glt.Tex {
		t.Fatal("texture not bound on unit 0")
	}

	// Evict the unit, then re-bind the clean shader: texture uniforms
	// are exempt from the dirty skip and must claim the unit back.
	other := newTestTexture(2, 2)
	r.Texture.Bind(other.Base, 0)
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatal(err)
	}
	if dev.BoundTexture(0) != glt.Tex {
		t.Error("clean re-bind did not restore the sampler texture")
	}
}

func TestShaderNestedGroupSync(t *testing.T) {
	r, _ := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	globals := NewUniformGroup()
	globals.Set("uTransform", Translate(3, 4))
	sh.Uniforms.Set("globals", globals)

	gp, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	prog := gp.Prog.(*gltest.Program)
	if got := prog.UniformValues["uTransform"]; got != Translate(3, 4).Mat3() {
		t.Errorf("uTransform = %v", got)
	}

	// The nested group tracks its own revisions: changing it re-uploads
	// even though the outer group is clean.
	globals.Set("uTransform", Translate(7, 8))
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatal(err)
	}
	if got := prog.UniformValues["uTransform"]; got != Translate(7, 8).Mat3() {
		t.Errorf("uTransform after nested change = %v", got)
	}
}

func TestShaderSharedGroupTrackedPerProgram(t *testing.T) {
	r, dev := newTestRenderer(t)
	shA := NewShaderFromSource(testVertSrc, testFragSrc)
	shB := NewShaderFromSource(testVertSrc, testFragSrc)
	shared := NewUniformGroup()
	shared.Set("uAlpha", float32(0.75))

	gpA, err := r.Shader.Bind(shA)
	if err != nil {
		t.Fatal(err)
	}
	r.Shader.SyncUniformGroup(shared)
	if got := gpA.Prog.(*gltest.Program).UniformValues["uAlpha"]; got != float32(0.75) {
		t.Errorf("program A uAlpha = %v", got)
	}

	dev.ResetCalls()
	r.Shader.SyncUniformGroup(shared)
	if got := dev.Count("Uniform1f"); got != 0 {
		t.Errorf("clean shared group issued %d stores", got)
	}

	// A fresh program has never seen the group and gets the upload.
	gpB, err := r.Shader.Bind(shB)
	if err != nil {
		t.Fatal(err)
	}
	r.Shader.SyncUniformGroup(shared)
	if got := gpB.Prog.(*gltest.Program).UniformValues["uAlpha"]; got != float32(0.75) {
		t.Errorf("program B uAlpha = %v", got)
	}
}

func TestShaderBindCompileError(t *testing.T) {
	r, _ := newTestRenderer(t)
	sh := NewShaderFromSource("", "")
	if _, err := r.Shader.Bind(sh); !errors.Is(err, gl.ErrShaderCompile) {
		t.Errorf("err = %v, want ErrShaderCompile", err)
	}
}

func TestShaderUndeclaredUniformIgnored(t *testing.T) {
	r, _ := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	sh.Uniforms.Set("uMissing", float32(3))
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatalf("undeclared uniform should be skipped, got %v", err)
	}
}

func TestShaderContextChangeRecompiles(t *testing.T) {
	r, dev := newTestRenderer(t)
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	sh.Uniforms.Set("uAlpha", float32(1))
	if _, err := r.Shader.Bind(sh); err != nil {
		t.Fatal(err)
	}

	oldUID := r.contextUID()
	dev.LoseContext()
	dev.RestoreContext()
	if r.contextUID() == oldUID {
		t.Fatal("restore must assign a fresh context UID")
	}

	dev.ResetCalls()
	gp, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}
	if got := dev.Count("NewProgram"); got != 1 {
		t.Errorf("NewProgram calls after restore = %d, want 1", got)
	}
	// The fresh program starts with no synced state, so the uniform
	// lands again.
	if got := gp.Prog.(*gltest.Program).UniformValues["uAlpha"]; got != float32(1) {
		t.Errorf("uAlpha after restore = %v, want 1", got)
	}
	if got := len(sh.Program.glPrograms); got != 1 {
		t.Errorf("compiled copies = %d, want only the new context's", got)
	}
}

func TestShaderDestroyReleasesPrograms(t *testing.T) {
	dev := gltest.New()
	r, err := NewRenderer(32, 32, WithDevice(dev))
	if err != nil {
		t.Fatal(err)
	}
	sh := NewShaderFromSource(testVertSrc, testFragSrc)
	gp, err := r.Shader.Bind(sh)
	if err != nil {
		t.Fatal(err)
	}

	r.Destroy()
	if !gp.Prog.(*gltest.Program).Released {
		t.Error("Destroy must release compiled programs")
	}
	if got := len(sh.Program.glPrograms); got != 0 {
		t.Errorf("stale compiled copies after Destroy = %d", got)
	}
}
