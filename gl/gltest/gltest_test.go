package gltest

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/stage/gl"
)

func TestParseAttributes(t *testing.T) {
	src := `
attribute vec2 aVertexPosition;
attribute vec2 aTextureCoord;
uniform mat3 projectionMatrix;
in vec4 aColor;
void main() {}
`
	got := parseAttributes(src)
	want := []string{"aVertexPosition", "aTextureCoord", "aColor"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attrib %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseUniforms(t *testing.T) {
	vert := "uniform mat3 projectionMatrix;\nattribute vec2 aPos;"
	frag := "uniform sampler2D uSamplers[16];\nuniform mat3 projectionMatrix;\nuniform vec4 inputSize;"
	got := parseUniforms(vert, frag)
	want := []string{"projectionMatrix", "uSamplers", "inputSize"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uniform %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestProgramReflection(t *testing.T) {
	d := New()
	p, err := d.NewProgram(
		"attribute vec2 aPos;\nuniform mat3 projectionMatrix;\nvoid main(){}",
		"uniform sampler2D uSampler;\nvoid main(){}",
	)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}
	if loc := p.AttribLocation("aPos"); loc != 0 {
		t.Errorf("AttribLocation(aPos) = %d", loc)
	}
	if loc := p.AttribLocation("missing"); loc != -1 {
		t.Errorf("AttribLocation(missing) = %d", loc)
	}
	if loc := p.UniformLocation("uSampler"); loc < 0 {
		t.Errorf("UniformLocation(uSampler) = %d", loc)
	}

	d.UseProgram(p)
	loc := p.UniformLocation("projectionMatrix")
	p.UniformMatrix3fv(loc, [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1})
	tp := p.(*Program)
	if _, ok := tp.UniformValues["projectionMatrix"]; !ok {
		t.Error("uniform store not recorded")
	}
}

func TestLoseAndRestoreContext(t *testing.T) {
	d := New()
	var lost, restored int
	d.SetContextHandler(func() { lost++ }, func() { restored++ })

	tex, err := d.NewTexture()
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	d.BindTexture(0, tex)
	tex.(*Texture).Storage(4, 4, gputypes.TextureFormatRGBA8Unorm)

	d.LoseContext()
	if lost != 1 {
		t.Fatalf("lost handler ran %d times", lost)
	}
	if !d.IsLost() {
		t.Fatal("IsLost() = false after LoseContext")
	}

	// Constructors fail while lost.
	if _, err := d.NewTexture(); !errors.Is(err, gl.ErrContextLost) {
		t.Fatalf("NewTexture while lost: %v", err)
	}

	// Releases while lost are counted, not honored.
	tex.Release()
	if d.LostReleases != 1 {
		t.Fatalf("LostReleases = %d", d.LostReleases)
	}

	d.RestoreContext()
	if restored != 1 {
		t.Fatalf("restored handler ran %d times", restored)
	}
	if d.IsLost() {
		t.Fatal("IsLost() = true after RestoreContext")
	}

	// The pre-loss texture is stale: touching it must fail the test.
	defer func() {
		if recover() == nil {
			t.Error("expected panic using stale texture")
		}
	}()
	d.BindTexture(0, tex)
	tex.(*Texture).Storage(4, 4, gputypes.TextureFormatRGBA8Unorm)
}

func TestUseAfterReleasePanics(t *testing.T) {
	d := New()
	b, err := d.NewBuffer(gl.ArrayBuffer)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	d.BindBuffer(gl.ArrayBuffer, b)
	b.Upload(make([]byte, 16), gl.StaticDraw)
	b.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic on released buffer")
		}
	}()
	b.Upload(make([]byte, 16), gl.StaticDraw)
}

func TestDrawSnapshot(t *testing.T) {
	d := New()
	d.SetScissorTest(true)
	d.Scissor(1, 2, 3, 4)
	d.Viewport(0, 0, 100, 50)
	d.DrawElements(gl.Triangles, 6, gl.UnsignedShort, 0)

	if len(d.Draws) != 1 {
		t.Fatalf("Draws = %d", len(d.Draws))
	}
	dc := d.Draws[0]
	if !dc.ScissorOn || dc.Scissor != [4]int{1, 2, 3, 4} {
		t.Errorf("scissor snapshot = %v on=%v", dc.Scissor, dc.ScissorOn)
	}
	if dc.Viewport != [4]int{0, 0, 100, 50} {
		t.Errorf("viewport snapshot = %v", dc.Viewport)
	}
	if !dc.Indexed || dc.Count != 6 {
		t.Errorf("draw call = %+v", dc)
	}
}

func TestVertexArrayRecordsElementBinding(t *testing.T) {
	d := New()
	vao, _ := d.NewVertexArray()
	vbo, _ := d.NewBuffer(gl.ArrayBuffer)
	ibo, _ := d.NewBuffer(gl.ElementArrayBuffer)

	d.BindVertexArray(vao)
	d.BindBuffer(gl.ArrayBuffer, vbo)
	d.VertexAttribPointer(0, 2, gl.Float, false, 0, 0)
	d.EnableVertexAttrib(0)
	d.BindBuffer(gl.ElementArrayBuffer, ibo)

	tv := vao.(*VertexArray)
	if tv.Element == nil || tv.Element != ibo.(*Buffer) {
		t.Error("element buffer binding not captured by vertex array")
	}
	ap := tv.Attribs[0]
	if ap.Buffer != vbo.(*Buffer) || ap.Size != 2 || !ap.Enabled {
		t.Errorf("attrib pointer = %+v", ap)
	}
}
