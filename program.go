package stage

import "github.com/gogpu/stage/gl"

// Program holds a vertex/fragment source pair. Compilation happens
// lazily per context inside the shader system; the same Program can be
// shared by many shaders.
type Program struct {
	// ID identifies this program in per-context caches.
	ID int

	VertexSrc   string
	FragmentSrc string

	glPrograms map[int]*GLProgram
}

// GLProgram is the compiled per-context copy of a Program.
type GLProgram struct {
	Prog gl.Program

	// uniformLocations caches lookups; missing uniforms cache -1.
	uniformLocations map[string]int

	// dirtyGroups tracks the last synced dirty ID per uniform group, so
	// unchanged groups skip their upload entirely.
	dirtyGroups map[int]int
}

// UniformLocation resolves and caches a uniform location. It returns -1
// for uniforms the linker discarded.
func (gp *GLProgram) UniformLocation(name string) int {
	if loc, ok := gp.uniformLocations[name]; ok {
		return loc
	}
	loc := gp.Prog.UniformLocation(name)
	gp.uniformLocations[name] = loc
	return loc
}

// NewProgram creates a program from GLSL ES sources.
func NewProgram(vertexSrc, fragmentSrc string) *Program {
	return &Program{
		ID:          nextUID(),
		VertexSrc:   vertexSrc,
		FragmentSrc: fragmentSrc,
		glPrograms:  make(map[int]*GLProgram),
	}
}

// Shader pairs a program with the uniform values it runs under. Many
// shaders can share one program with different uniform groups.
type Shader struct {
	Program  *Program
	Uniforms *UniformGroup
}

// NewShader creates a shader over program. A nil uniforms gets a fresh
// empty group.
func NewShader(program *Program, uniforms *UniformGroup) *Shader {
	if uniforms == nil {
		uniforms = NewUniformGroup()
	}
	return &Shader{Program: program, Uniforms: uniforms}
}

// NewShaderFromSource compiles nothing yet; it just bundles the sources
// with a fresh uniform group.
func NewShaderFromSource(vertexSrc, fragmentSrc string) *Shader {
	return NewShader(NewProgram(vertexSrc, fragmentSrc), nil)
}
