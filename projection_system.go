package stage

// ProjectionSystem keeps the matrix mapping the source frame (world
// units) onto the destination frame of the current render target, in
// normalized device coordinates.
//
// The backbuffer has its origin at the bottom left, so projecting onto
// the screen flips Y; render textures are written top-down and are
// sampled top-down again, so they do not flip.
type ProjectionSystem struct {
	renderer *Renderer

	// SourceFrame is the world-space region being projected.
	SourceFrame Rect

	// DestinationFrame is the target region receiving it, in logical
	// units of the render target.
	DestinationFrame Rect

	// ProjectionMatrix is the resulting transform. It is also published
	// into the renderer's global uniforms as projectionMatrix.
	ProjectionMatrix Matrix
}

func newProjectionSystem(r *Renderer) *ProjectionSystem {
	return &ProjectionSystem{renderer: r}
}

// Update recomputes the projection. root selects the screen orientation.
func (s *ProjectionSystem) Update(destinationFrame, sourceFrame Rect, root bool) {
	s.DestinationFrame = destinationFrame
	s.SourceFrame = sourceFrame
	s.ProjectionMatrix = projectionMatrix(sourceFrame, root)
	s.renderer.globalUniforms.Set("projectionMatrix", s.ProjectionMatrix)
}

// projectionMatrix maps src onto [-1,1] NDC, Y up for the screen (root)
// and Y down for textures.
func projectionMatrix(src Rect, root bool) Matrix {
	sign := 1.0
	if root {
		sign = -1
	}
	a := 2 / src.Width
	e := sign * 2 / src.Height
	return Matrix{
		A: a,
		E: e,
		C: -1 - src.X*a,
		F: -sign - src.Y*e,
	}
}
