package stage

import (
	"encoding/binary"
	"math"
)

// Buffer owns a block of vertex or index data on the CPU side. GPU
// copies are created per context by the geometry system and re-uploaded
// when UpdateID advances.
type Buffer struct {
	// ID identifies this buffer in per-context caches.
	ID int

	// Static declares the data as upload-once. Dynamic buffers are
	// uploaded with streaming hints and can grow in place.
	Static bool

	// Index marks the buffer as element data.
	Index bool

	data     []byte
	updateID int

	glBuffers map[int]*GLBuffer

	listeners []bufferListener
}

// bufferListener is notified when a Buffer is destroyed, so geometry
// systems can drop their per-context GPU copies.
type bufferListener interface {
	bufferDisposed(b *Buffer)
}

// NewBuffer creates a vertex buffer over data. Data may be nil for
// buffers filled later with Update.
func NewBuffer(data []byte, static bool) *Buffer {
	return &Buffer{
		ID:        nextUID(),
		Static:    static,
		data:      data,
		glBuffers: make(map[int]*GLBuffer),
	}
}

// NewIndexBuffer creates an element buffer over data.
func NewIndexBuffer(data []byte, static bool) *Buffer {
	b := NewBuffer(data, static)
	b.Index = true
	return b
}

// Data returns the current CPU-side bytes.
func (b *Buffer) Data() []byte { return b.data }

// Len returns the CPU-side byte length.
func (b *Buffer) Len() int { return len(b.data) }

// UpdateID returns the data revision.
func (b *Buffer) UpdateID() int { return b.updateID }

// Update replaces the buffer contents. Passing nil keeps the current
// bytes and just marks them dirty.
func (b *Buffer) Update(data []byte) {
	if data != nil {
		b.data = data
	}
	b.updateID++
}

func (b *Buffer) addListener(l bufferListener) {
	for _, have := range b.listeners {
		if have == l {
			return
		}
	}
	b.listeners = append(b.listeners, l)
}

func (b *Buffer) removeListener(l bufferListener) {
	for i, have := range b.listeners {
		if have == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Dispose releases the GPU copies on every context, keeping the CPU data.
func (b *Buffer) Dispose() {
	ls := make([]bufferListener, len(b.listeners))
	copy(ls, b.listeners)
	for _, l := range ls {
		l.bufferDisposed(b)
	}
}

// Destroy disposes the GPU copies and drops the CPU data.
func (b *Buffer) Destroy() {
	b.Dispose()
	b.data = nil
}

// Float32Bytes lays out float32 vertex data in the byte order the device
// reads, which is the CPU's native order.
func Float32Bytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.NativeEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// Uint16Bytes lays out uint16 index data in the device byte order.
func Uint16Bytes(data []uint16) []byte {
	out := make([]byte, len(data)*2)
	for i, v := range data {
		binary.NativeEndian.PutUint16(out[i*2:], v)
	}
	return out
}
