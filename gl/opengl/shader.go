//go:build cgo

package opengl

import (
	"fmt"
	"strings"

	ogl "github.com/go-gl/gl/v3.3-core/gl"

	"github.com/gogpu/stage/gl"
)

// translateES rewrites a GLSL ES 1.00 shader into GLSL 3.30 core so the
// same generated sources run on desktop core profiles. The rewrite is
// purely lexical: storage qualifiers, the fragment output and the
// texture2D builtin. Sources that already carry a #version directive are
// passed through untouched.
func translateES(src string, fragment bool) string {
	if strings.Contains(src, "#version") {
		return src
	}

	var b strings.Builder
	b.WriteString("#version 330 core\n")
	if fragment {
		b.WriteString("out vec4 fragColor;\n")
	}

	src = strings.ReplaceAll(src, "texture2D(", "texture(")
	src = strings.ReplaceAll(src, "gl_FragColor", "fragColor")

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "precision "):
			continue
		case strings.HasPrefix(trimmed, "attribute "):
			line = strings.Replace(line, "attribute ", "in ", 1)
		case strings.HasPrefix(trimmed, "varying ") && fragment:
			line = strings.Replace(line, "varying ", "in ", 1)
		case strings.HasPrefix(trimmed, "varying "):
			line = strings.Replace(line, "varying ", "out ", 1)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// compileShader compiles one stage, returning the shader name or the
// driver's info log on failure.
func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := ogl.CreateShader(shaderType)

	csources, free := ogl.Strs(src + "\x00")
	ogl.ShaderSource(shader, 1, csources, nil)
	free()
	ogl.CompileShader(shader)

	var status int32
	ogl.GetShaderiv(shader, ogl.COMPILE_STATUS, &status)
	if status == ogl.FALSE {
		var logLength int32
		ogl.GetShaderiv(shader, ogl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		ogl.GetShaderInfoLog(shader, logLength, nil, ogl.Str(log))
		ogl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: %s", gl.ErrShaderCompile, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

// linkProgram compiles both stages and links them.
func linkProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(translateES(vertexSrc, false), ogl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	fs, err := compileShader(translateES(fragmentSrc, true), ogl.FRAGMENT_SHADER)
	if err != nil {
		ogl.DeleteShader(vs)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	program := ogl.CreateProgram()
	ogl.AttachShader(program, vs)
	ogl.AttachShader(program, fs)
	ogl.LinkProgram(program)
	ogl.DeleteShader(vs)
	ogl.DeleteShader(fs)

	var status int32
	ogl.GetProgramiv(program, ogl.LINK_STATUS, &status)
	if status == ogl.FALSE {
		var logLength int32
		ogl.GetProgramiv(program, ogl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		ogl.GetProgramInfoLog(program, logLength, nil, ogl.Str(log))
		ogl.DeleteProgram(program)
		return 0, fmt.Errorf("%w: %s", gl.ErrProgramLink, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}
