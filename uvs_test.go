package stage

import "testing"

func fullFrameBase() (*BaseTexture, Rect) {
	base := NewBaseTexture(nil, &BaseTextureOptions{Width: 100, Height: 50})
	return base, R(0, 0, 100, 50)
}

func TestUVQuadIdentity(t *testing.T) {
	base, frame := fullFrameBase()
	var u UVQuad
	u.Set(frame, base, Rotate0)
	want := [8]float32{0, 0, 1, 0, 1, 1, 0, 1}
	if u.Floats() != want {
		t.Errorf("identity UVs = %v, want %v", u.Floats(), want)
	}
}

func TestUVQuadSubFrame(t *testing.T) {
	base := NewBaseTexture(nil, &BaseTextureOptions{Width: 200, Height: 100})
	var u UVQuad
	u.Set(R(50, 25, 100, 50), base, Rotate0)
	want := [8]float32{0.25, 0.25, 0.75, 0.25, 0.75, 0.75, 0.25, 0.75}
	if u.Floats() != want {
		t.Errorf("sub-frame UVs = %v, want %v", u.Floats(), want)
	}
}

func TestUVQuadRotate90(t *testing.T) {
	base, frame := fullFrameBase()
	var u UVQuad
	u.Set(frame, base, Rotate90)
	// Quad top-left samples the frame's bottom-left corner.
	if u.X0 != 0 || u.Y0 != 1 {
		t.Errorf("rotate90 top-left = (%v, %v), want (0, 1)", u.X0, u.Y0)
	}
	if u.X1 != 0 || u.Y1 != 0 {
		t.Errorf("rotate90 top-right = (%v, %v), want (0, 0)", u.X1, u.Y1)
	}
}

func TestUVQuadFlipX(t *testing.T) {
	base, frame := fullFrameBase()
	var u UVQuad
	u.Set(frame, base, FlipX)
	want := [8]float32{1, 0, 0, 0, 0, 1, 1, 1}
	if u.Floats() != want {
		t.Errorf("flipX UVs = %v, want %v", u.Floats(), want)
	}
}

func TestRotationInverseRoundTrip(t *testing.T) {
	// Applying a rotation's permutation and then its inverse's permutation
	// must restore every corner.
	for r := Rotation(0); r < rotationCount; r++ {
		p := rotationPerm[r]
		q := rotationPerm[r.Inverse()]
		for i := 0; i < 4; i++ {
			if p[q[i]] != i {
				t.Errorf("rotation %v: inverse %v does not undo it (corner %d -> %d)",
					r, r.Inverse(), i, p[q[i]])
			}
		}
	}
}

func TestRotationInversePairs(t *testing.T) {
	tests := []struct {
		r, want Rotation
	}{
		{Rotate0, Rotate0},
		{Rotate90, Rotate270},
		{Rotate180, Rotate180},
		{Rotate270, Rotate90},
		{FlipX, FlipX},
		{FlipX90, FlipX90},
		{FlipX180, FlipX180},
		{FlipX270, FlipX270},
	}
	for _, tt := range tests {
		if got := tt.r.Inverse(); got != tt.want {
			t.Errorf("%v.Inverse() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestRotationPermsAreBijections(t *testing.T) {
	for r := Rotation(0); r < rotationCount; r++ {
		var seen [4]bool
		for _, c := range rotationPerm[r] {
			if c < 0 || c > 3 || seen[c] {
				t.Fatalf("rotation %v: permutation %v is not a bijection", r, rotationPerm[r])
			}
			seen[c] = true
		}
	}
}

func TestRotationSwapped(t *testing.T) {
	swapped := map[Rotation]bool{
		Rotate90: true, Rotate270: true, FlipX90: true, FlipX270: true,
	}
	for r := Rotation(0); r < rotationCount; r++ {
		if got := r.Swapped(); got != swapped[r] {
			t.Errorf("%v.Swapped() = %v, want %v", r, got, swapped[r])
		}
	}
}

func TestUVQuadEmptyBase(t *testing.T) {
	base := NewBaseTexture(nil, nil)
	u := UVQuad{X0: 9}
	u.Set(R(0, 0, 10, 10), base, Rotate0)
	if u != (UVQuad{}) {
		t.Errorf("UVs against an empty base should zero out, got %+v", u)
	}
}
