package stage

// GCMode selects when the texture garbage collector sweeps.
type GCMode int

const (
	// GCAuto sweeps periodically after rendering to the screen.
	GCAuto GCMode = iota
	// GCManual only sweeps when Run is called.
	GCManual
)

// TextureGCSystem unloads the GPU copies of textures that have not been
// bound for a while. Only the GPU side is dropped: the CPU descriptor and
// pixel resource stay, so a texture that is used again simply re-uploads.
//
// Time is counted in rendered frames, not wall clock, so a paused
// application does not evict its own working set.
type TextureGCSystem struct {
	renderer *Renderer

	// Mode selects automatic or manual sweeping.
	Mode GCMode

	// MaxIdle is the number of frames a texture may go unbound before it
	// is unloaded.
	MaxIdle int

	// CheckPeriod is the number of frames between automatic sweeps.
	CheckPeriod int

	// MaxScan bounds how many textures one sweep examines. Zero examines
	// all of them. The managed set is walked in no fixed order, so bounded
	// sweeps still reach every texture across frames.
	MaxScan int

	count      int
	checkCount int
}

func newTextureGCSystem(r *Renderer) *TextureGCSystem {
	return &TextureGCSystem{
		renderer:    r,
		MaxIdle:     60 * 60,
		CheckPeriod: 600,
	}
}

// Count returns the current frame tick. Texture binds stamp it onto the
// texture; the sweep compares against it.
func (s *TextureGCSystem) Count() int { return s.count }

// Postrender advances the frame tick and runs a periodic sweep. Frames
// rendered into a texture do not count; only screen frames do.
func (s *TextureGCSystem) Postrender() {
	if !s.renderer.renderingToScreen() {
		return
	}
	s.count++
	if s.Mode == GCManual {
		return
	}
	s.checkCount++
	if s.checkCount >= s.CheckPeriod {
		s.checkCount = 0
		s.Run()
	}
}

// Run unloads every managed texture that has been idle for longer than
// MaxIdle frames. Textures backing a framebuffer are never unloaded; they
// have no resource to re-upload from.
func (s *TextureGCSystem) Run() {
	var idle []*BaseTexture
	scanned := 0
	for _, base := range s.renderer.Texture.managed {
		if s.MaxScan > 0 && scanned >= s.MaxScan {
			break
		}
		scanned++
		if base.isRenderTarget {
			continue
		}
		if s.count-base.touched > s.MaxIdle {
			idle = append(idle, base)
		}
	}
	for _, base := range idle {
		base.Dispose()
	}
	if len(idle) > 0 {
		Logger().Debug("texture gc unloaded idle textures",
			"unloaded", len(idle), "tick", s.count)
	}
}
