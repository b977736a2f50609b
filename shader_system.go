package stage

// ShaderSystem compiles programs lazily per context, tracks the program
// in use and uploads uniform values from uniform groups.
//
// Group uploads are skipped when the group's dirty ID matches the last
// sync for that program. Texture uniforms are exempt from the skip: the
// unit a texture occupies can change between draws, so textures re-bind
// on every sync. Units are handed out sequentially from zero per bind.
type ShaderSystem struct {
	renderer *Renderer

	boundProgram *GLProgram

	// managed holds every program compiled on this context, keyed by ID.
	managed map[int]*Program

	nextUnit int
}

func newShaderSystem(r *Renderer) *ShaderSystem {
	return &ShaderSystem{
		renderer: r,
		managed:  make(map[int]*Program),
	}
}

// ContextChange drops compiled programs of the previous context.
func (s *ShaderSystem) ContextChange(oldUID int) {
	for _, p := range s.managed {
		delete(p.glPrograms, oldUID)
	}
	s.managed = make(map[int]*Program)
	s.boundProgram = nil
}

// Bind makes the shader's program current and syncs its uniform group.
func (s *ShaderSystem) Bind(shader *Shader) (*GLProgram, error) {
	glProg, err := s.glProgram(shader.Program)
	if err != nil {
		return nil, err
	}
	if s.boundProgram != glProg {
		s.renderer.device().UseProgram(glProg.Prog)
		s.boundProgram = glProg
	}
	s.nextUnit = 0
	s.syncGroup(shader.Uniforms, glProg)
	return glProg, nil
}

// SyncUniformGroup uploads an extra group into the bound program. Systems
// use it for shared per-frame groups (projection, filter geometry) that
// are not owned by the shader.
func (s *ShaderSystem) SyncUniformGroup(group *UniformGroup) {
	if s.boundProgram == nil || group == nil {
		return
	}
	s.syncGroup(group, s.boundProgram)
}

// glProgram returns the compiled copy of p on the current context,
// compiling on first use.
func (s *ShaderSystem) glProgram(p *Program) (*GLProgram, error) {
	uid := s.renderer.contextUID()
	if gp, ok := p.glPrograms[uid]; ok {
		return gp, nil
	}
	prog, err := s.renderer.device().NewProgram(p.VertexSrc, p.FragmentSrc)
	if err != nil {
		return nil, err
	}
	gp := &GLProgram{
		Prog:             prog,
		uniformLocations: make(map[string]int),
		dirtyGroups:      make(map[int]int),
	}
	p.glPrograms[uid] = gp
	s.managed[p.ID] = p
	return gp, nil
}

func (s *ShaderSystem) syncGroup(group *UniformGroup, glProg *GLProgram) {
	clean := glProg.dirtyGroups[group.ID] == group.dirtyID
	for name, value := range group.values {
		switch v := value.(type) {
		case *UniformGroup:
			// Nested groups carry their own dirty tracking.
			s.syncGroup(v, glProg)
		case *Texture:
			unit := s.nextUnit
			s.nextUnit++
			var base *BaseTexture
			if v != nil {
				base = v.Base
			}
			s.renderer.Texture.Bind(base, unit)
			if loc := glProg.UniformLocation(name); loc >= 0 {
				glProg.Prog.Uniform1i(loc, unit)
			}
		default:
			if clean {
				continue
			}
			s.uploadUniform(glProg, name, value)
		}
	}
	glProg.dirtyGroups[group.ID] = group.dirtyID
}

func (s *ShaderSystem) uploadUniform(glProg *GLProgram, name string, value any) {
	loc := glProg.UniformLocation(name)
	if loc < 0 {
		return
	}
	p := glProg.Prog
	switch v := value.(type) {
	case bool:
		i := 0
		if v {
			i = 1
		}
		p.Uniform1i(loc, i)
	case int:
		p.Uniform1i(loc, v)
	case int32:
		p.Uniform1i(loc, int(v))
	case float32:
		p.Uniform1f(loc, v)
	case float64:
		p.Uniform1f(loc, float32(v))
	case [2]float32:
		p.Uniform2f(loc, v[0], v[1])
	case [3]float32:
		p.Uniform3f(loc, v[0], v[1], v[2])
	case [4]float32:
		p.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case [9]float32:
		p.UniformMatrix3fv(loc, v)
	case []float32:
		p.Uniform1fv(loc, v)
	case []int32:
		p.Uniform1iv(loc, v)
	case Matrix:
		p.UniformMatrix3fv(loc, v.Mat3())
	case Rect:
		p.Uniform4f(loc, float32(v.X), float32(v.Y), float32(v.Width), float32(v.Height))
	case RGBA:
		p.Uniform4f(loc, float32(v.R), float32(v.G), float32(v.B), float32(v.A))
	default:
		Logger().Warn("unsupported uniform type", "uniform", name)
	}
}

// Destroy releases the compiled programs of the current context.
func (s *ShaderSystem) Destroy() {
	uid := s.renderer.contextUID()
	lost := s.renderer.device().IsLost()
	for _, p := range s.managed {
		if gp, ok := p.glPrograms[uid]; ok {
			if !lost {
				gp.Prog.Release()
			}
			delete(p.glPrograms, uid)
		}
	}
	s.managed = make(map[int]*Program)
	s.boundProgram = nil
}
