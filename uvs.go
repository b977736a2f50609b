package stage

// Rotation is one of the eight axis-aligned orientations a texture frame
// can be packed under: four rotations, each optionally preceded by a
// horizontal flip. Atlas packers rotate and mirror sprites to tighten
// packing; the rotation on the Texture undoes that at draw time without
// touching the pixels.
type Rotation int

const (
	Rotate0 Rotation = iota
	// Rotate90 displays the content rotated 90 degrees clockwise.
	Rotate90
	Rotate180
	Rotate270
	// FlipX mirrors the content horizontally.
	FlipX
	FlipX90
	FlipX180
	FlipX270

	rotationCount
)

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0"
	case Rotate90:
		return "90"
	case Rotate180:
		return "180"
	case Rotate270:
		return "270"
	case FlipX:
		return "flipX"
	case FlipX90:
		return "flipX+90"
	case FlipX180:
		return "flipX+180"
	case FlipX270:
		return "flipX+270"
	}
	return "invalid"
}

// rotationPerm maps each orientation to a corner permutation: quad
// vertex i (top-left, top-right, bottom-right, bottom-left) samples
// frame corner rotationPerm[r][i].
var rotationPerm = [rotationCount][4]int{
	Rotate0:   {0, 1, 2, 3},
	Rotate90:  {3, 0, 1, 2},
	Rotate180: {2, 3, 0, 1},
	Rotate270: {1, 2, 3, 0},
	FlipX:     {1, 0, 3, 2},
	FlipX90:   {2, 1, 0, 3},
	FlipX180:  {3, 2, 1, 0},
	FlipX270:  {0, 3, 2, 1},
}

// Inverse returns the orientation that undoes r. Pure rotations invert to
// the opposite rotation; the flipped orientations are involutions.
func (r Rotation) Inverse() Rotation {
	if r < FlipX {
		return (4 - r) & 3
	}
	return r
}

// Swapped reports whether the orientation exchanges width and height.
func (r Rotation) Swapped() bool {
	return r == Rotate90 || r == Rotate270 || r == FlipX90 || r == FlipX270
}

// UVQuad holds the normalized texture coordinates of the four corners of
// a texture frame, in quad vertex order: top-left, top-right,
// bottom-right, bottom-left.
type UVQuad struct {
	X0, Y0 float32
	X1, Y1 float32
	X2, Y2 float32
	X3, Y3 float32
}

// Set computes the quad from a frame inside base, applying the packing
// orientation.
func (u *UVQuad) Set(frame Rect, base *BaseTexture, rotate Rotation) {
	tw := base.Width()
	th := base.Height()
	if tw <= 0 || th <= 0 {
		*u = UVQuad{}
		return
	}

	x0 := float32(frame.X / tw)
	y0 := float32(frame.Y / th)
	x1 := float32(frame.Right() / tw)
	y1 := float32(frame.Bottom() / th)

	c := [4][2]float32{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	if rotate < 0 || rotate >= rotationCount {
		rotate = Rotate0
	}
	p := rotationPerm[rotate]

	u.X0, u.Y0 = c[p[0]][0], c[p[0]][1]
	u.X1, u.Y1 = c[p[1]][0], c[p[1]][1]
	u.X2, u.Y2 = c[p[2]][0], c[p[2]][1]
	u.X3, u.Y3 = c[p[3]][0], c[p[3]][1]
}

// Floats returns the quad as a flat array, two floats per corner.
func (u *UVQuad) Floats() [8]float32 {
	return [8]float32{u.X0, u.Y0, u.X1, u.Y1, u.X2, u.Y2, u.X3, u.Y3}
}
