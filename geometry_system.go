package stage

import (
	"errors"
	"fmt"

	"github.com/gogpu/stage/gl"
)

// ErrIncompatibleGeometry is returned by GeometrySystem.Bind when the
// geometry does not supply an attribute the program reads. The check runs
// before any device work, so a bad pairing fails on its first bind.
var ErrIncompatibleGeometry = errors.New("stage: geometry is missing a program attribute")

// GLBuffer is the GPU copy of a Buffer on one context.
type GLBuffer struct {
	Buf gl.Buffer

	// UpdateID is the Buffer revision last uploaded. -1 forces the first
	// upload.
	UpdateID int

	// ByteLength is the allocated store size. Uploads that fit go through
	// SubUpload; larger ones reallocate.
	ByteLength int
}

// GeometrySystem owns the GPU side of geometry: buffer objects, their
// uploads, and one vertex array per (context, program) pair. Vertex
// arrays are keyed by program because attribute locations differ between
// programs.
type GeometrySystem struct {
	renderer *Renderer

	boundGeometry *Geometry
	boundVAO      gl.VertexArray

	managedGeometries map[int]*Geometry
	managedBuffers    map[int]*Buffer

	hasInstancing bool
}

func newGeometrySystem(r *Renderer) *GeometrySystem {
	return &GeometrySystem{
		renderer:          r,
		managedGeometries: make(map[int]*Geometry),
		managedBuffers:    make(map[int]*Buffer),
	}
}

// ContextChange drops per-context records of the previous context and
// re-reads capabilities.
func (s *GeometrySystem) ContextChange(oldUID int) {
	for _, g := range s.managedGeometries {
		delete(g.glVAOs, oldUID)
		g.removeListener(s)
	}
	for _, b := range s.managedBuffers {
		delete(b.glBuffers, oldUID)
		b.removeListener(s)
	}
	s.managedGeometries = make(map[int]*Geometry)
	s.managedBuffers = make(map[int]*Buffer)
	s.boundGeometry = nil
	s.boundVAO = nil
	s.hasInstancing = s.renderer.device().Caps().Features.Has(gl.FeatureInstancing)
}

// Bind makes geo current for draws under the shader's program, creating
// the vertex array on first use and uploading any dirty buffers.
func (s *GeometrySystem) Bind(geo *Geometry, shader *Shader) error {
	glProg, err := s.renderer.Shader.glProgram(shader.Program)
	if err != nil {
		return err
	}
	vao, err := s.vao(geo, shader.Program.ID, glProg)
	if err != nil {
		return err
	}
	if s.boundVAO != vao {
		s.renderer.device().BindVertexArray(vao)
		s.boundVAO = vao
	}
	s.boundGeometry = geo
	s.updateBuffers(geo)
	return nil
}

// Unbind clears the vertex array binding.
func (s *GeometrySystem) Unbind() {
	s.renderer.device().BindVertexArray(nil)
	s.boundVAO = nil
	s.boundGeometry = nil
}

// Draw submits the bound geometry. size <= 0 draws the whole geometry;
// start is measured in indices (or vertices when non-indexed);
// instanceCount <= 0 falls back to the geometry's instance count.
func (s *GeometrySystem) Draw(mode gl.PrimitiveMode, size, start, instanceCount int) {
	geo := s.boundGeometry
	if geo == nil {
		return
	}
	if instanceCount <= 0 {
		instanceCount = geo.InstanceCount
	}
	if instanceCount > 1 && !s.hasInstancing {
		Logger().Warn("instanced draw without device instancing support, drawing once",
			"instances", instanceCount)
		instanceCount = 1
	}
	s.renderer.stats.DrawCalls++
	dev := s.renderer.device()
	if geo.IndexBuffer != nil {
		byteSize := geo.IndexType.ByteSize()
		if size <= 0 {
			size = geo.IndexBuffer.Len() / byteSize
		}
		if geo.Instanced() || instanceCount > 1 {
			dev.DrawElementsInstanced(mode, size, geo.IndexType, start*byteSize, instanceCount)
		} else {
			dev.DrawElements(mode, size, geo.IndexType, start*byteSize)
		}
		return
	}
	if size <= 0 {
		size = geo.Size()
	}
	if geo.Instanced() || instanceCount > 1 {
		dev.DrawArraysInstanced(mode, start, size, instanceCount)
	} else {
		dev.DrawArrays(mode, start, size)
	}
}

// vao returns the vertex array for (current context, program), creating
// and recording the attribute layout on first use.
func (s *GeometrySystem) vao(geo *Geometry, programID int, glProg *GLProgram) (gl.VertexArray, error) {
	uid := s.renderer.contextUID()
	byProg := geo.glVAOs[uid]
	if byProg == nil {
		byProg = make(map[int]gl.VertexArray)
		geo.glVAOs[uid] = byProg
	}
	if vao, ok := byProg[programID]; ok {
		return vao, nil
	}
	vao, err := s.initVAO(geo, glProg)
	if err != nil {
		return nil, err
	}
	byProg[programID] = vao
	if _, ok := s.managedGeometries[geo.ID]; !ok {
		s.managedGeometries[geo.ID] = geo
		geo.addListener(s)
	}
	return vao, nil
}

// initVAO creates a vertex array recording geo's attribute layout at the
// program's locations. Attributes the linker discarded are skipped; an
// attribute the program reads but the geometry lacks fails the bind.
func (s *GeometrySystem) initVAO(geo *Geometry, glProg *GLProgram) (gl.VertexArray, error) {
	for _, name := range glProg.Prog.ActiveAttribs() {
		if geo.Attribute(name) == nil {
			return nil, fmt.Errorf("%w: %s", ErrIncompatibleGeometry, name)
		}
	}

	dev := s.renderer.device()
	vao, err := dev.NewVertexArray()
	if err != nil {
		return nil, err
	}
	dev.BindVertexArray(vao)
	s.boundVAO = vao

	if geo.IndexBuffer != nil {
		glBuf, err := s.glBuffer(geo.IndexBuffer)
		if err != nil {
			return nil, err
		}
		dev.BindBuffer(gl.ElementArrayBuffer, glBuf.Buf)
	}
	for _, name := range geo.AttributeNames() {
		attr := geo.Attribute(name)
		loc := glProg.Prog.AttribLocation(name)
		if loc < 0 {
			continue
		}
		glBuf, err := s.glBuffer(geo.Buffers[attr.Buffer])
		if err != nil {
			return nil, err
		}
		dev.BindBuffer(gl.ArrayBuffer, glBuf.Buf)
		dev.VertexAttribPointer(loc, attr.Size, attr.Type, attr.Normalized, attr.Stride, attr.Offset)
		dev.EnableVertexAttrib(loc)
		if attr.Instance {
			if s.hasInstancing {
				dev.VertexAttribDivisor(loc, 1)
			} else {
				Logger().Warn("instanced attribute without device instancing support",
					"attribute", name)
			}
		}
	}
	return vao, nil
}

// updateBuffers uploads every dirty buffer of geo. Must run with geo's
// vertex array bound: element buffer binds are vertex array state.
func (s *GeometrySystem) updateBuffers(geo *Geometry) {
	dev := s.renderer.device()
	for _, buf := range geo.Buffers {
		glBuf, err := s.glBuffer(buf)
		if err != nil {
			return
		}
		if glBuf.UpdateID == buf.UpdateID() {
			continue
		}
		glBuf.UpdateID = buf.UpdateID()
		s.renderer.stats.BufferUploads++
		target := gl.ArrayBuffer
		if buf.Index {
			target = gl.ElementArrayBuffer
		}
		dev.BindBuffer(target, glBuf.Buf)
		data := buf.Data()
		if len(data) <= glBuf.ByteLength {
			glBuf.Buf.SubUpload(0, data)
			continue
		}
		usage := gl.DynamicDraw
		if buf.Static {
			usage = gl.StaticDraw
		}
		glBuf.Buf.Upload(data, usage)
		glBuf.ByteLength = len(data)
	}
}

// glBuffer returns the GPU copy of buf on the current context, creating
// it on first use.
func (s *GeometrySystem) glBuffer(buf *Buffer) (*GLBuffer, error) {
	uid := s.renderer.contextUID()
	if glBuf, ok := buf.glBuffers[uid]; ok {
		return glBuf, nil
	}
	typ := gl.ArrayBuffer
	if buf.Index {
		typ = gl.ElementArrayBuffer
	}
	b, err := s.renderer.device().NewBuffer(typ)
	if err != nil {
		return nil, err
	}
	glBuf := &GLBuffer{Buf: b, UpdateID: -1}
	buf.glBuffers[uid] = glBuf
	if _, ok := s.managedBuffers[buf.ID]; !ok {
		s.managedBuffers[buf.ID] = buf
		buf.addListener(s)
	}
	return glBuf, nil
}

// geometryDisposed evicts this context's vertex arrays for g.
func (s *GeometrySystem) geometryDisposed(g *Geometry) {
	uid := s.renderer.contextUID()
	if s.boundGeometry == g {
		s.Unbind()
	}
	if vaos, ok := g.glVAOs[uid]; ok {
		if !s.renderer.device().IsLost() {
			for _, vao := range vaos {
				vao.Release()
			}
		}
		delete(g.glVAOs, uid)
	}
	delete(s.managedGeometries, g.ID)
	g.removeListener(s)
}

// bufferDisposed evicts this context's GPU copy of b.
func (s *GeometrySystem) bufferDisposed(b *Buffer) {
	uid := s.renderer.contextUID()
	if glBuf, ok := b.glBuffers[uid]; ok {
		if !s.renderer.device().IsLost() {
			glBuf.Buf.Release()
		}
		delete(b.glBuffers, uid)
	}
	delete(s.managedBuffers, b.ID)
	b.removeListener(s)
}

// Destroy releases every managed vertex array and buffer.
func (s *GeometrySystem) Destroy() {
	for _, g := range s.managedGeometries {
		s.geometryDisposed(g)
	}
	for _, b := range s.managedBuffers {
		s.bufferDisposed(b)
	}
}
