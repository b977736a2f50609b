package stage

// Batchable is one primitive the sprite batcher can absorb: a textured,
// tinted triangle list in world space.
type Batchable interface {
	// BatchVertexData returns world-space positions, two floats per
	// vertex.
	BatchVertexData() []float32

	// BatchUVs returns normalized texture coordinates, two floats per
	// vertex, parallel to BatchVertexData.
	BatchUVs() []float32

	// BatchIndices returns triangle indices into the vertex list.
	BatchIndices() []uint16

	// BatchTexture returns the sampled texture.
	BatchTexture() *BaseTexture

	// BatchBlendMode returns the blend the primitive draws with.
	BatchBlendMode() BlendMode

	// BatchTint returns the multiplicative tint as 0xRRGGBB.
	BatchTint() uint32

	// BatchAlpha returns the opacity in [0, 1].
	BatchAlpha() float64
}

// ObjectRenderer accumulates primitives of one kind and turns them into
// draw calls when flushed. The batch system keeps exactly one active at
// a time so differently-rendered content still draws in submission
// order.
type ObjectRenderer interface {
	// Start runs when the renderer becomes active.
	Start()

	// Stop runs before another renderer takes over. It must flush.
	Stop()

	// Flush submits everything accumulated so far.
	Flush()

	// Destroy releases held resources.
	Destroy()
}

// nopRenderer is the resting state of the batch system.
type nopRenderer struct{}

func (nopRenderer) Start()   {}
func (nopRenderer) Stop()    {}
func (nopRenderer) Flush()   {}
func (nopRenderer) Destroy() {}

// BatchSystem routes drawable primitives to the active object renderer.
// It owns the sprite batcher, which is what most content renders
// through.
type BatchSystem struct {
	renderer *Renderer

	current ObjectRenderer
	empty   ObjectRenderer

	batcher *BatchRenderer
}

func newBatchSystem(r *Renderer) *BatchSystem {
	s := &BatchSystem{renderer: r, empty: nopRenderer{}}
	s.current = s.empty
	s.batcher = newBatchRenderer(r)
	return s
}

// SetObjectRenderer makes or the active renderer, stopping the previous
// one first. Custom object renderers call it before accumulating.
func (s *BatchSystem) SetObjectRenderer(or ObjectRenderer) {
	if s.current == or {
		return
	}
	s.current.Stop()
	s.current = or
	or.Start()
}

// Add hands el to the sprite batcher, activating it if needed.
func (s *BatchSystem) Add(el Batchable) {
	s.SetObjectRenderer(s.batcher)
	s.batcher.Add(el)
}

// Flush draws everything the active renderer is holding.
func (s *BatchSystem) Flush() {
	s.current.Flush()
}

// Reset flushes and deactivates the active renderer.
func (s *BatchSystem) Reset() {
	s.SetObjectRenderer(s.empty)
}

// Batcher returns the sprite batcher.
func (s *BatchSystem) Batcher() *BatchRenderer { return s.batcher }

// ContextChange rebuilds the batcher for the new context's limits.
func (s *BatchSystem) ContextChange(oldUID int) {
	s.batcher.ContextChange(oldUID)
}

// Destroy releases the batcher.
func (s *BatchSystem) Destroy() {
	s.batcher.Destroy()
	s.current = s.empty
}
