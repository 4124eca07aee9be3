package vessel_test

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/inertia"
	"github.com/san-kum/attsim/internal/logging"
	"github.com/san-kum/attsim/internal/vessel"
)

var _ = Describe("Core", func() {
	var (
		ctx   context.Context
		core  *vessel.Core
		wheel actuator.Descriptor
		in    vessel.Input
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		core, err = vessel.New(vessel.DefaultConfig("probe"), logging.Noop())
		Expect(err).NotTo(HaveOccurred())

		wheel = actuator.Descriptor{
			Name:     "rw",
			Kind:     actuator.ReactionWheel,
			Positive: mgl64.Vec3{50, 40, 50},
			Negative: mgl64.Vec3{50, 40, 50},
		}
		in = vessel.Input{
			Orientation: mgl64.QuatRotate(0.1, attitude.BodyRight),
			Mode:        attitude.Hold{Orientation: mgl64.QuatIdent()},
			Actuators:   []actuator.Descriptor{wheel},
			MOI:         mgl64.Vec3{1000, 800, 1000},
			Dt:          0.02,
		}
	})

	It("rejects invalid configuration", func() {
		cfg := vessel.DefaultConfig("bad")
		cfg.Controller.TfMin = -1
		_, err := vessel.New(cfg, nil)
		Expect(err).To(MatchError(dynamo.ErrParameterBounds))
	})

	Context("when not engaged", func() {
		It("issues no command", func() {
			out := core.Tick(ctx, in)
			Expect(out.State).To(Equal(control.Disabled))
			Expect(out.Command).To(Equal(mgl64.Vec3{}))
		})
	})

	Context("when engaged", func() {
		BeforeEach(func() {
			core.Engage(ctx)
		})

		It("activates and drives toward the target", func() {
			out := core.Tick(ctx, in)
			Expect(out.State).To(Equal(control.Active))
			// current is pitched up, so the correction pitches down
			Expect(out.Error.Vector[dynamo.AxisPitch]).To(BeNumerically("~", -0.1, 1e-9))
			Expect(out.Command[dynamo.AxisPitch]).To(BeNumerically("<", 0))
			Expect(out.Command[dynamo.AxisRoll]).To(BeNumerically("~", 0, 1e-12))
		})

		It("clears controller history and wheel momentum on a target jump", func() {
			var before vessel.Output
			for i := 0; i < 50; i++ {
				before = core.Tick(ctx, in)
			}
			wheelBefore, ok := core.Controller().Saturation.State("rw")
			Expect(ok).To(BeTrue())

			in.Mode = attitude.Hold{Orientation: mgl64.QuatRotate(attitude.Radians(30), attitude.BodyUp)}
			after := core.Tick(ctx, in)
			wheelAfter, _ := core.Controller().Saturation.State("rw")

			Expect(after.Reset).To(BeTrue())
			Expect(math.Abs(after.Controller.IntAccum[dynamo.AxisPitch])).
				To(BeNumerically("<", math.Abs(before.Controller.IntAccum[dynamo.AxisPitch])))
			Expect(math.Abs(wheelAfter.Momentum[dynamo.AxisPitch])).
				To(BeNumerically("<", math.Abs(wheelBefore.Momentum[dynamo.AxisPitch])))
		})

		It("clears wheel momentum when the controller re-activates", func() {
			stored := func() float64 {
				w, ok := core.Controller().Saturation.State("rw")
				Expect(ok).To(BeTrue())
				return math.Abs(w.Momentum[dynamo.AxisPitch])
			}
			for i := 0; i < 50; i++ {
				core.Tick(ctx, in)
			}
			before := stored()
			Expect(before).To(BeNumerically(">", 0))

			By("cycling disengage and engage")
			core.Disengage(ctx)
			core.Tick(ctx, in)
			core.Engage(ctx)
			Expect(core.Tick(ctx, in).State).To(Equal(control.Active))
			Expect(stored()).To(BeNumerically("<", before/10))

			for i := 0; i < 50; i++ {
				core.Tick(ctx, in)
			}
			before = stored()
			Expect(before).To(BeNumerically(">", 0))

			By("recovering from lost authority")
			in.Actuators = nil
			Expect(core.Tick(ctx, in).State).To(Equal(control.Disabled))
			in.Actuators = []actuator.Descriptor{wheel}
			Expect(core.Tick(ctx, in).State).To(Equal(control.Active))
			Expect(stored()).To(BeNumerically("<", before/10))
		})

		It("hands a whole axis group to the pilot", func() {
			for i := 0; i < 10; i++ {
				core.Tick(ctx, in)
			}
			in.Stick = control.Stick{Input: mgl64.Vec3{0.8, 0, 0}}
			out := core.Tick(ctx, in)

			Expect(out.Manual).To(BeTrue())
			Expect(out.Mode).To(Equal(control.Nerfed))
			Expect(out.Command[dynamo.AxisPitch]).To(Equal(0.8))
			Expect(out.Command[dynamo.AxisYaw]).To(Equal(0.0))
			Expect(out.Controller.IntAccum[dynamo.AxisPitch]).To(Equal(0.0))
		})

		It("disables without torque and recovers when torque returns", func() {
			in.Actuators = nil
			out := core.Tick(ctx, in)
			Expect(out.State).To(Equal(control.Disabled))
			Expect(out.Command).To(Equal(mgl64.Vec3{}))

			in.Actuators = []actuator.Descriptor{wheel}
			Expect(core.Tick(ctx, in).State).To(Equal(control.Active))

			in.Actuators = nil
			out = core.Tick(ctx, in)
			Expect(out.State).To(Equal(control.Disabled))
			Expect(out.Command).To(Equal(mgl64.Vec3{}))
		})

		It("drops malformed actuators without failing the tick", func() {
			in.Actuators = append(in.Actuators, actuator.Descriptor{Name: "broken", Positive: mgl64.Vec3{math.NaN(), 0, 0}})
			out := core.Tick(ctx, in)
			Expect(out.Budget.Dropped).To(Equal(1))
			Expect(dynamo.Finite(out.Command)).To(BeTrue())
		})

		It("runs at full authority and opposes rotation when killing rotation", func() {
			in.Mode = attitude.KillRotation{}
			in.AngularVelocity = mgl64.Vec3{0.1, 0, 0}
			out := core.Tick(ctx, in)
			Expect(out.Mode).To(Equal(control.Stock))
			Expect(out.Command[dynamo.AxisPitch]).To(BeNumerically("<", 0))
		})

		It("estimates inertia from sub-bodies when given", func() {
			in.Bodies = []inertia.SubBody{{Mass: 10, Rotation: mgl64.QuatIdent(), Principal: mgl64.Vec3{2, 3, 4}}}
			out := core.Tick(ctx, in)
			Expect(out.MOI[0]).To(BeNumerically("~", 2, 1e-9))
			Expect(out.MOI[1]).To(BeNumerically("~", 3, 1e-9))
			Expect(out.MOI[2]).To(BeNumerically("~", 4, 1e-9))
		})

		It("stops commanding after disengage", func() {
			core.Tick(ctx, in)
			core.Disengage(ctx)
			out := core.Tick(ctx, in)
			Expect(out.State).To(Equal(control.Disabled))
			Expect(out.Command).To(Equal(mgl64.Vec3{}))
		})
	})

	Describe("pending actions", func() {
		BeforeEach(func() {
			core.Engage(ctx)
		})

		It("waits for the pilot to let go before applying", func() {
			core.SetParam("kd_factor", 0.8)
			in.Stick = control.Stick{Input: mgl64.Vec3{0, 0.5, 0}}
			for i := 0; i < 3; i++ {
				core.Tick(ctx, in)
			}
			Expect(core.Pending()).To(HaveLen(1))
			Expect(core.Controller().PID.Params().KdFactor).To(Equal(0.5))

			in.Stick = control.Stick{}
			core.Tick(ctx, in)
			Expect(core.Pending()).To(BeEmpty())
			Expect(core.Controller().PID.Params().KdFactor).To(Equal(0.8))
		})

		It("drops an action once its attempts run out", func() {
			calls := 0
			core.Queue("always fails", func(*vessel.ControllerState) error {
				calls++
				return errors.New("not yet")
			}, 2)

			core.Tick(ctx, in)
			Expect(core.Pending()).To(HaveLen(1))
			core.Tick(ctx, in)
			Expect(core.Pending()).To(BeEmpty())
			Expect(calls).To(Equal(2))
		})

		It("never runs an action while overridden", func() {
			calls := 0
			core.Queue("blocked", func(*vessel.ControllerState) error {
				calls++
				return nil
			}, 3)
			in.Stick = control.Stick{Input: mgl64.Vec3{1, 0, 0}}
			for i := 0; i < 3; i++ {
				core.Tick(ctx, in)
			}
			Expect(calls).To(BeZero())
			Expect(core.Pending()).To(BeEmpty())
		})
	})
})
