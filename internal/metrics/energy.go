package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/dynamo"
)

// KineticEnergy tracks the peak rotational energy ½·ωᵀIω over a run.
type KineticEnergy struct {
	name string
	moi  mgl64.Vec3
	peak float64
}

func NewKineticEnergy(moi mgl64.Vec3) *KineticEnergy {
	return &KineticEnergy{
		name: "kinetic_energy",
		moi:  moi,
	}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(s dynamo.Sample) {
	ke := 0.5 * dynamo.MulVec(e.moi, s.Rate).Dot(s.Rate)
	if dynamo.IsFinite(ke) {
		e.peak = math.Max(e.peak, ke)
	}
}

func (e *KineticEnergy) Value() float64 {
	return e.peak
}

func (e *KineticEnergy) Reset() {
	e.peak = 0
}
