package stage

// UniformGroup is a named bag of uniform values with change tracking.
// The shader system uploads a group only when its dirty ID advanced
// since the last sync for that program, so per-frame groups shared by
// many draws (projection, filter geometry) upload once.
//
// Supported value types: bool, int, int32, float32, float64, [2]float32,
// [3]float32, [4]float32, [9]float32, []float32, []int32, Matrix (as
// mat3), Rect (as vec4 x,y,w,h), RGBA (as vec4) and *Texture (bound to a
// sampler unit at sync time). A *UniformGroup value nests another group
// with independent dirty tracking; shared groups are injected that way.
type UniformGroup struct {
	// ID identifies this group in per-program sync caches.
	ID int

	values  map[string]any
	dirtyID int
}

// NewUniformGroup creates an empty group.
func NewUniformGroup() *UniformGroup {
	return &UniformGroup{
		ID:     nextUID(),
		values: make(map[string]any),
	}
}

// Set stores a uniform value and marks the group dirty.
func (u *UniformGroup) Set(name string, value any) {
	u.values[name] = value
	u.dirtyID++
}

// Get returns a stored value, or nil.
func (u *UniformGroup) Get(name string) any {
	return u.values[name]
}

// Has reports whether the group holds the named uniform.
func (u *UniformGroup) Has(name string) bool {
	_, ok := u.values[name]
	return ok
}

// Names returns the uniform names. Order is unspecified.
func (u *UniformGroup) Names() []string {
	names := make([]string, 0, len(u.values))
	for name := range u.values {
		names = append(names, name)
	}
	return names
}

// Update marks the group dirty without changing values. Call it after
// mutating a stored slice or array in place.
func (u *UniformGroup) Update() {
	u.dirtyID++
}

// DirtyID returns the change revision.
func (u *UniformGroup) DirtyID() int { return u.dirtyID }
