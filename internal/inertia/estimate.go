// Package inertia estimates the principal moments of inertia of a vessel
// assembled from rigid sub-bodies.
package inertia

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// SubBody is one rigid part of the vessel. Position and Rotation are in the
// vessel frame; Principal holds the part's own principal moments.
type SubBody struct {
	Name      string
	Mass      float64
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
	Principal mgl64.Vec3
}

func (b SubBody) valid() bool {
	if !dynamo.IsFinite(b.Mass) || b.Mass <= 0 {
		return false
	}
	if !dynamo.Finite(b.Position) || !dynamo.Finite(b.Principal) {
		return false
	}
	return b.Principal[0] >= 0 && b.Principal[1] >= 0 && b.Principal[2] >= 0
}

// Identity is returned whenever the combined tensor is unusable.
var Identity = mgl64.Vec3{1, 1, 1}

// CenterOfMass returns the mass-weighted centre of every valid part and the
// total mass. Parts with non-positive or non-finite mass are ignored.
func CenterOfMass(bodies []SubBody) (mgl64.Vec3, float64) {
	var sum mgl64.Vec3
	total := 0.0
	for _, b := range bodies {
		if !b.valid() {
			continue
		}
		sum = sum.Add(b.Position.Mul(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return mgl64.Vec3{}, 0
	}
	return sum.Mul(1 / total), total
}

// Estimate returns the diagonal of the combined inertia tensor expressed in
// the reference frame. reference rotates reference-frame vectors into the
// vessel frame. Off-diagonal products of inertia are discarded.
func Estimate(bodies []SubBody, reference mgl64.Quat) mgl64.Vec3 {
	com, total := CenterOfMass(bodies)
	if total == 0 {
		return Identity
	}

	tensor := mat.NewDense(3, 3, nil)
	for _, b := range bodies {
		if !b.valid() {
			continue
		}
		tensor.Add(tensor, bodyTensor(b, com))
	}

	ref := rotation(reference)
	var inRef mat.Dense
	inRef.Product(ref.T(), tensor, ref)

	diag := mgl64.Vec3{inRef.At(0, 0), inRef.At(1, 1), inRef.At(2, 2)}
	if !dynamo.Finite(diag) || diag[0] <= 0 || diag[1] <= 0 || diag[2] <= 0 {
		return Identity
	}
	return diag
}

// bodyTensor is the part's own tensor rotated into the vessel frame plus its
// parallel-axis shift m(|r|²I - r⊗r) about com.
func bodyTensor(b SubBody, com mgl64.Vec3) *mat.Dense {
	r := rotation(b.Rotation)
	p := b.Principal
	principal := mat.NewDiagDense(3, []float64{p[0], p[1], p[2]})

	var local mat.Dense
	local.Product(r, principal, r.T())

	offset := b.Position.Sub(com)
	rv := mat.NewVecDense(3, []float64{offset[0], offset[1], offset[2]})
	var outer mat.Dense
	outer.Outer(b.Mass, rv, rv)

	s := b.Mass * offset.LenSqr()
	var shift mat.Dense
	shift.Sub(mat.NewDiagDense(3, []float64{s, s, s}), &outer)

	local.Add(&local, &shift)
	return &local
}

func rotation(q mgl64.Quat) *mat.Dense {
	if q.Len() == 0 {
		q = mgl64.QuatIdent()
	}
	m := q.Normalize().Mat4().Mat3()
	out := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
