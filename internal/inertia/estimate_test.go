package inertia

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

func TestEstimate(t *testing.T) {
	ident := mgl64.QuatIdent()
	rz90 := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	tests := []struct {
		name      string
		bodies    []SubBody
		reference mgl64.Quat
		want      mgl64.Vec3
	}{
		{
			name:      "single body at origin",
			bodies:    []SubBody{{Mass: 5, Rotation: ident, Principal: mgl64.Vec3{2, 3, 4}}},
			reference: ident,
			want:      mgl64.Vec3{2, 3, 4},
		},
		{
			name: "point masses in a cross",
			bodies: []SubBody{
				{Mass: 1, Position: mgl64.Vec3{1, 0, 0}, Rotation: ident},
				{Mass: 1, Position: mgl64.Vec3{-1, 0, 0}, Rotation: ident},
				{Mass: 1, Position: mgl64.Vec3{0, 1, 0}, Rotation: ident},
				{Mass: 1, Position: mgl64.Vec3{0, -1, 0}, Rotation: ident},
			},
			reference: ident,
			want:      mgl64.Vec3{2, 2, 4},
		},
		{
			name: "parallel axis about offset centre of mass",
			bodies: []SubBody{
				{Mass: 1, Position: mgl64.Vec3{0, 0, 0}, Rotation: ident, Principal: mgl64.Vec3{1, 1, 1}},
				{Mass: 3, Position: mgl64.Vec3{4, 0, 0}, Rotation: ident, Principal: mgl64.Vec3{1, 1, 1}},
			},
			reference: ident,
			want:      mgl64.Vec3{2, 14, 14},
		},
		{
			name:      "rotated part",
			bodies:    []SubBody{{Mass: 1, Rotation: rz90, Principal: mgl64.Vec3{1, 2, 3}}},
			reference: ident,
			want:      mgl64.Vec3{2, 1, 3},
		},
		{
			name:      "rotated reference",
			bodies:    []SubBody{{Mass: 1, Rotation: ident, Principal: mgl64.Vec3{1, 2, 3}}},
			reference: rz90,
			want:      mgl64.Vec3{2, 1, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.bodies, tt.reference)
			if !floats.EqualApprox(got[:], tt.want[:], 1e-9) {
				t.Errorf("Estimate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateDegenerate(t *testing.T) {
	ident := mgl64.QuatIdent()
	tests := []struct {
		name   string
		bodies []SubBody
	}{
		{"no bodies", nil},
		{"massless", []SubBody{{Mass: 0, Principal: mgl64.Vec3{1, 1, 1}}}},
		{"nan mass", []SubBody{{Mass: math.NaN(), Principal: mgl64.Vec3{1, 1, 1}}}},
		{"single point mass", []SubBody{{Mass: 10, Position: mgl64.Vec3{3, 0, 0}, Rotation: ident}}},
		{"rod along x", []SubBody{
			{Mass: 1, Position: mgl64.Vec3{1, 0, 0}, Rotation: ident},
			{Mass: 1, Position: mgl64.Vec3{-1, 0, 0}, Rotation: ident},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.bodies, ident); got != Identity {
				t.Errorf("Estimate = %v, want identity", got)
			}
		})
	}
}

func TestEstimateIgnoresInvalidParts(t *testing.T) {
	ident := mgl64.QuatIdent()
	good := SubBody{Mass: 2, Rotation: ident, Principal: mgl64.Vec3{3, 3, 3}}
	bad := SubBody{Mass: 1, Position: mgl64.Vec3{math.Inf(1), 0, 0}, Rotation: ident}

	got := Estimate([]SubBody{good, bad}, ident)
	want := mgl64.Vec3{3, 3, 3}
	if !floats.EqualApprox(got[:], want[:], 1e-12) {
		t.Errorf("Estimate = %v, want %v", got, want)
	}
}

func TestCenterOfMass(t *testing.T) {
	com, total := CenterOfMass([]SubBody{
		{Mass: 1, Position: mgl64.Vec3{0, 0, 0}},
		{Mass: 3, Position: mgl64.Vec3{4, 0, 0}},
	})
	if total != 4 {
		t.Errorf("total = %f, want 4", total)
	}
	if !com.ApproxEqual(mgl64.Vec3{3, 0, 0}) {
		t.Errorf("com = %v", com)
	}

	if _, total := CenterOfMass(nil); total != 0 {
		t.Errorf("empty total = %f", total)
	}
}
