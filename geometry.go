package stage

import "github.com/gogpu/stage/gl"

// Attribute describes how a shader input reads from one of a geometry's
// buffers.
type Attribute struct {
	// Buffer is the index of the source buffer within the geometry.
	// AddAttribute fills it in.
	Buffer int

	// Size is the number of components, 1 through 4.
	Size int

	// Type of each component. The zero value is gl.Float.
	Type gl.DataType

	// Normalized maps integer components onto [0,1] (or [-1,1]).
	Normalized bool

	// Stride is the byte distance between consecutive vertices. Zero
	// means tightly packed.
	Stride int

	// Offset is the byte position of the first component.
	Offset int

	// Instance advances the attribute once per instance instead of once
	// per vertex.
	Instance bool
}

// Geometry binds buffers and attribute descriptions together. A geometry
// can be drawn with different shaders; the geometry system keeps one
// vertex array per (context, program) pair.
type Geometry struct {
	// ID identifies this geometry in per-context caches.
	ID int

	// Buffers in registration order. Attribute.Buffer indexes this.
	Buffers []*Buffer

	// IndexBuffer is the element buffer, also present in Buffers.
	IndexBuffer *Buffer

	// IndexType is the element type, gl.UnsignedShort unless changed.
	IndexType gl.DataType

	// InstanceCount is the draw instance count for instanced geometry.
	InstanceCount int

	attributes map[string]*Attribute
	attrOrder  []string

	instanced bool

	// glVAOs caches vertex arrays by context UID, then by program ID.
	glVAOs map[int]map[int]gl.VertexArray

	listeners []geometryListener
}

// geometryListener is notified when a Geometry is destroyed.
type geometryListener interface {
	geometryDisposed(g *Geometry)
}

// NewGeometry creates an empty geometry.
func NewGeometry() *Geometry {
	return &Geometry{
		ID:            nextUID(),
		IndexType:     gl.UnsignedShort,
		InstanceCount: 1,
		attributes:    make(map[string]*Attribute),
		glVAOs:        make(map[int]map[int]gl.VertexArray),
	}
}

// AddAttribute registers a named shader input sourced from buf.
// attr.Buffer is filled in; buffers are deduplicated by identity.
// It returns the geometry for chaining.
func (g *Geometry) AddAttribute(name string, buf *Buffer, attr Attribute) *Geometry {
	attr.Buffer = g.bufferIndex(buf)
	if attr.Size == 0 {
		attr.Size = 1
	}
	if attr.Instance {
		g.instanced = true
	}
	if _, exists := g.attributes[name]; !exists {
		g.attrOrder = append(g.attrOrder, name)
	}
	g.attributes[name] = &attr
	return g
}

// AddIndex registers buf as the element buffer.
func (g *Geometry) AddIndex(buf *Buffer) *Geometry {
	buf.Index = true
	g.IndexBuffer = buf
	g.bufferIndex(buf)
	return g
}

func (g *Geometry) bufferIndex(buf *Buffer) int {
	for i, have := range g.Buffers {
		if have == buf {
			return i
		}
	}
	g.Buffers = append(g.Buffers, buf)
	return len(g.Buffers) - 1
}

// Attribute returns the named attribute, or nil.
func (g *Geometry) Attribute(name string) *Attribute {
	return g.attributes[name]
}

// AttributeNames returns the attribute names in registration order.
func (g *Geometry) AttributeNames() []string { return g.attrOrder }

// AttributeBuffer returns the buffer feeding the named attribute, or nil.
func (g *Geometry) AttributeBuffer(name string) *Buffer {
	a := g.attributes[name]
	if a == nil {
		return nil
	}
	return g.Buffers[a.Buffer]
}

// Instanced reports whether any attribute advances per instance.
func (g *Geometry) Instanced() bool { return g.instanced }

// Size returns the vertex count implied by the index buffer, or by the
// first attribute when the geometry is not indexed.
func (g *Geometry) Size() int {
	if g.IndexBuffer != nil {
		return g.IndexBuffer.Len() / g.IndexType.ByteSize()
	}
	for _, name := range g.attrOrder {
		a := g.attributes[name]
		buf := g.Buffers[a.Buffer]
		stride := a.Stride
		if stride == 0 {
			stride = a.Size * a.Type.ByteSize()
		}
		if stride == 0 {
			return 0
		}
		return buf.Len() / stride
	}
	return 0
}

func (g *Geometry) addListener(l geometryListener) {
	for _, have := range g.listeners {
		if have == l {
			return
		}
	}
	g.listeners = append(g.listeners, l)
}

func (g *Geometry) removeListener(l geometryListener) {
	for i, have := range g.listeners {
		if have == l {
			g.listeners = append(g.listeners[:i], g.listeners[i+1:]...)
			return
		}
	}
}

// Dispose releases the GPU vertex arrays on every context, keeping
// buffers and attribute descriptions.
func (g *Geometry) Dispose() {
	ls := make([]geometryListener, len(g.listeners))
	copy(ls, g.listeners)
	for _, l := range ls {
		l.geometryDisposed(g)
	}
}

// Destroy disposes GPU state and destroys the buffers.
func (g *Geometry) Destroy() {
	g.Dispose()
	for _, b := range g.Buffers {
		b.Destroy()
	}
	g.Buffers = nil
	g.IndexBuffer = nil
	g.attributes = make(map[string]*Attribute)
	g.attrOrder = nil
}
