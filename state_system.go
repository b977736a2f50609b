package stage

// StateSystem tracks the fixed-function pipeline state currently applied
// to the device and moves it to a requested State with the fewest calls:
// the bitfields are XORed and only differing toggles are touched.
type StateSystem struct {
	renderer *Renderer

	// bits mirrors the toggles applied to the device.
	bits uint32

	// blendMode mirrors the applied blend configuration. -1 forces the
	// next SetBlendMode to apply.
	blendMode BlendMode

	polygonOffset float32

	defaultState *State
}

// stateAppliers dispatches a toggle change by bit position.
var stateAppliers = [stateBitCount]func(*StateSystem, bool){
	stateBlend:     (*StateSystem).applyBlend,
	stateOffset:    (*StateSystem).applyOffset,
	stateCulling:   (*StateSystem).applyCulling,
	stateDepthTest: (*StateSystem).applyDepthTest,
	stateWinding:   (*StateSystem).applyWinding,
	stateDepthMask: (*StateSystem).applyDepthMask,
}

func newStateSystem(r *Renderer) *StateSystem {
	return &StateSystem{
		renderer:     r,
		blendMode:    -1,
		defaultState: NewState(),
	}
}

// SetState moves the device to st, touching only what differs from the
// applied state. A nil st selects the default 2D state.
func (s *StateSystem) SetState(st *State) {
	if st == nil {
		st = s.defaultState
	}
	if s.bits != st.bits {
		diff := s.bits ^ st.bits
		for i := 0; diff != 0; i++ {
			if diff&1 != 0 {
				stateAppliers[i](s, st.bits&(1<<i) != 0)
			}
			diff >>= 1
		}
		s.bits = st.bits
	}
	s.SetBlendMode(st.BlendMode)
	if st.Offsets() && st.PolygonOffset != s.polygonOffset {
		s.applyPolygonOffsetValue(st.PolygonOffset)
	}
}

// ForceState applies every toggle of st unconditionally. Used after a
// context change, when the device state is unknown.
func (s *StateSystem) ForceState(st *State) {
	if st == nil {
		st = s.defaultState
	}
	for i := 0; i < stateBitCount; i++ {
		stateAppliers[i](s, st.bit(i))
	}
	s.bits = st.bits
	s.blendMode = -1
	s.SetBlendMode(st.BlendMode)
	s.applyPolygonOffsetValue(st.PolygonOffset)
}

// BlendMode returns the applied blend mode.
func (s *StateSystem) BlendMode() BlendMode { return s.blendMode }

// SetBlendMode applies a blend configuration if it differs from the
// current one.
func (s *StateSystem) SetBlendMode(mode BlendMode) {
	if mode == s.blendMode || mode < 0 || mode >= blendModeCount {
		return
	}
	s.blendMode = mode
	e := blendTable[mode]
	dev := s.renderer.device()
	dev.BlendFuncSeparate(e.srcRGB, e.dstRGB, e.srcAlpha, e.dstAlpha)
	dev.BlendEquationSeparate(e.opRGB, e.opAlpha)
}

func (s *StateSystem) applyBlend(on bool)     { s.renderer.device().SetBlend(on) }
func (s *StateSystem) applyCulling(on bool)   { s.renderer.device().SetCullFace(on) }
func (s *StateSystem) applyDepthTest(on bool) { s.renderer.device().SetDepthTest(on) }
func (s *StateSystem) applyWinding(on bool)   { s.renderer.device().FrontFace(on) }
func (s *StateSystem) applyDepthMask(on bool) { s.renderer.device().DepthMask(on) }

func (s *StateSystem) applyOffset(on bool) {
	s.renderer.device().SetPolygonOffset(on)
}

func (s *StateSystem) applyPolygonOffsetValue(v float32) {
	s.polygonOffset = v
	s.renderer.device().PolygonOffset(v, v)
}

// ContextChange forces the default state onto the fresh context.
func (s *StateSystem) ContextChange(oldUID int) {
	s.ForceState(s.defaultState)
}
