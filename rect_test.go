package stage

import "testing"

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlap", R(0, 0, 10, 10), R(5, 5, 10, 10), R(5, 5, 5, 5)},
		{"contained", R(0, 0, 10, 10), R(2, 3, 4, 5), R(2, 3, 4, 5)},
		{"identical", R(1, 1, 5, 5), R(1, 1, 5, 5), R(1, 1, 5, 5)},
		{"disjoint", R(0, 0, 5, 5), R(10, 10, 5, 5), Rect{}},
		{"touching edges", R(0, 0, 5, 5), R(5, 0, 5, 5), Rect{}},
		{"empty operand", R(0, 0, 10, 10), Rect{}, Rect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersect(tt.b); got != tt.want {
				t.Errorf("%+v.Intersect(%+v) = %+v, want %+v", tt.a, tt.b, got, tt.want)
			}
			// Intersection is commutative.
			if got := tt.b.Intersect(tt.a); got != tt.want {
				t.Errorf("%+v.Intersect(%+v) = %+v, want %+v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestRectUnion(t *testing.T) {
	a := R(0, 0, 5, 5)
	b := R(10, 10, 5, 5)
	want := R(0, 0, 15, 15)
	if got := a.Union(b); got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
	if got := a.Union(Rect{}); got != a {
		t.Errorf("Union with empty = %+v, want %+v", got, a)
	}
	if got := (Rect{}).Union(b); got != b {
		t.Errorf("empty Union = %+v, want %+v", got, b)
	}
}

func TestRectPad(t *testing.T) {
	r := R(10, 10, 20, 20)
	if got := r.Pad(4); got != R(6, 6, 28, 28) {
		t.Errorf("Pad(4) = %+v", got)
	}
	if got := r.Pad(-5); got != R(15, 15, 10, 10) {
		t.Errorf("Pad(-5) = %+v", got)
	}
}

func TestRectCeil(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		res  float64
		want Rect
	}{
		{"already integral", R(1, 2, 3, 4), 1, R(1, 2, 3, 4)},
		{"fractional grows", R(0.4, 0.6, 9.2, 9.1), 1, R(0, 0, 10, 10)},
		{"float noise ignored", R(0, 0, 99.99999999, 50.00000001), 1, R(0, 0, 100, 50)},
		{"resolution 2 snaps to halves", R(0.3, 0.3, 1.0, 1.0), 2, R(0, 0, 1.5, 1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Ceil(tt.res); got != tt.want {
				t.Errorf("%+v.Ceil(%v) = %+v, want %+v", tt.in, tt.res, got, tt.want)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	r := R(0, 0, 10, 10)
	if !r.Contains(0, 0) {
		t.Error("origin should be inside")
	}
	if r.Contains(10, 10) {
		t.Error("far corner is exclusive")
	}
	if (Rect{}).Contains(0, 0) {
		t.Error("empty rect contains nothing")
	}
}
