package stage

// Bit positions inside State.bits. The order is load-bearing: the state
// system walks set bits of the XOR diff and dispatches by position.
const (
	stateBlend = iota
	stateOffset
	stateCulling
	stateDepthTest
	stateWinding
	stateDepthMask

	stateBitCount
)

// State captures the fixed-function pipeline toggles a draw runs under.
// Two states can be compared and applied differentially because the bool
// toggles live in a single bitfield.
type State struct {
	bits uint32

	// BlendMode is applied only while Blend is enabled.
	BlendMode BlendMode

	// PolygonOffset is applied as both factor and units while the offset
	// toggle is enabled.
	PolygonOffset float32
}

// NewState returns the default state for 2D drawing: blending on, depth
// writes on, everything else off.
func NewState() *State {
	s := &State{BlendMode: BlendNormal}
	s.SetBlend(true)
	s.SetDepthMask(true)
	return s
}

func (s *State) bit(i int) bool { return s.bits&(1<<i) != 0 }

func (s *State) setBit(i int, on bool) {
	if on {
		s.bits |= 1 << i
	} else {
		s.bits &^= 1 << i
	}
}

// Blend reports whether blending is enabled.
func (s *State) Blend() bool { return s.bit(stateBlend) }

// SetBlend enables or disables blending.
func (s *State) SetBlend(on bool) { s.setBit(stateBlend, on) }

// Offsets reports whether polygon offset fill is enabled.
func (s *State) Offsets() bool { return s.bit(stateOffset) }

// SetOffsets enables or disables polygon offset fill.
func (s *State) SetOffsets(on bool) { s.setBit(stateOffset, on) }

// Culling reports whether back-face culling is enabled.
func (s *State) Culling() bool { return s.bit(stateCulling) }

// SetCulling enables or disables back-face culling.
func (s *State) SetCulling(on bool) { s.setBit(stateCulling, on) }

// DepthTest reports whether depth testing is enabled.
func (s *State) DepthTest() bool { return s.bit(stateDepthTest) }

// SetDepthTest enables or disables depth testing.
func (s *State) SetDepthTest(on bool) { s.setBit(stateDepthTest, on) }

// Clockwise reports whether front faces wind clockwise.
func (s *State) Clockwise() bool { return s.bit(stateWinding) }

// SetClockwise selects the front-face winding order.
func (s *State) SetClockwise(on bool) { s.setBit(stateWinding, on) }

// DepthMask reports whether depth writes are enabled.
func (s *State) DepthMask() bool { return s.bit(stateDepthMask) }

// SetDepthMask enables or disables depth writes.
func (s *State) SetDepthMask(on bool) { s.setBit(stateDepthMask, on) }
