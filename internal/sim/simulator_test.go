package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/attsim/internal/actuator"
	"github.com/san-kum/attsim/internal/attitude"
	"github.com/san-kum/attsim/internal/control"
	"github.com/san-kum/attsim/internal/dynamo"
	"github.com/san-kum/attsim/internal/integrators"
	"github.com/san-kum/attsim/internal/vessel"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func testVessel(name string) Vessel {
	return Vessel{
		Name: name,
		MOI:  mgl64.Vec3{100, 100, 100},
		Actuators: []actuator.Descriptor{
			{Name: "rw", Kind: actuator.ReactionWheel, Positive: dynamo.Splat(20), Negative: dynamo.Splat(20)},
			{Name: "rcs", Kind: actuator.Thruster, Positive: dynamo.Splat(5), Negative: dynamo.Splat(5), ResponseTime: 0.1},
		},
		Orientation: mgl64.QuatIdent(),
	}
}

func newTestSim(t *testing.T, v Vessel) *Simulator {
	t.Helper()
	core, err := vessel.New(vessel.DefaultConfig(v.Name), nil)
	if err != nil {
		t.Fatalf("core: %v", err)
	}
	integ, err := integrators.New("rk4")
	if err != nil {
		t.Fatalf("integrator: %v", err)
	}
	s, err := New(v, core, integ, nil)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	return s
}

func TestSimulatorHoldConverges(t *testing.T) {
	v := testVessel("hold")
	v.Orientation = mgl64.QuatRotate(0.3, attitude.BodyRight)
	s := newTestSim(t, v)

	result, err := s.Run(context.Background(), Config{
		Dt:            0.02,
		Duration:      120,
		Mode:          attitude.Hold{Orientation: mgl64.QuatIdent()},
		ValidateState: true,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 6000 {
		t.Errorf("expected 6000 steps, got %d", result.StepsTaken)
	}
	if len(result.Samples) != 6000 {
		t.Errorf("expected 6000 samples, got %d", len(result.Samples))
	}
	if got := result.Samples[0].ErrorAngle; math.Abs(got-0.3) > 1e-6 {
		t.Errorf("initial error = %.6f, want 0.3", got)
	}
	if got := result.Final.ErrorAngle; got > 0.15 {
		t.Errorf("final error %.4f did not shrink", got)
	}
	for _, smp := range result.Samples {
		for i := 0; i < 3; i++ {
			if math.Abs(smp.Command[i]) > 1 {
				t.Fatalf("t=%.2f command %v outside [-1, 1]", smp.Time, smp.Command)
			}
		}
	}
}

func TestSimulatorKillRotation(t *testing.T) {
	v := testVessel("spin")
	v.Rate = mgl64.Vec3{0.1, 0, 0}
	s := newTestSim(t, v)

	result, err := s.Run(context.Background(), Config{Dt: 0.02, Duration: 30})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Final.Mode != control.Stock.String() {
		t.Errorf("mode = %s, want stock", result.Final.Mode)
	}
	if got := result.Final.Rate.Len(); got > 0.01 {
		t.Errorf("final rate %.4f, want below 0.01", got)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}, dynamo.ErrInvalidTimestep},
		{"negative dt", Config{Dt: -0.1, Duration: 1}, dynamo.ErrInvalidTimestep},
		{"NaN dt", Config{Dt: math.NaN(), Duration: 1}, dynamo.ErrInvalidTimestep},
		{"zero duration", Config{Dt: 0.1, Duration: 0}, dynamo.ErrParameterBounds},
		{"negative sampling", Config{Dt: 0.1, Duration: 1, SampleEvery: -1}, dynamo.ErrParameterBounds},
	}

	s := newTestSim(t, testVessel("cfg"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVesselValidate(t *testing.T) {
	v := testVessel("empty")
	v.Actuators = nil
	if err := v.Validate(); !errors.Is(err, dynamo.ErrNoActuators) {
		t.Errorf("no actuators: err = %v", err)
	}

	v = testVessel("flat")
	v.MOI[1] = 0
	if err := v.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("zero moi: err = %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	s := newTestSim(t, testVessel("cancel"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, Config{Dt: 0.02, Duration: 10})
	if !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("err = %v, want ErrContextCanceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) || simErr.Step != 0 {
		t.Errorf("expected SimulationError at step 0, got %v", err)
	}
}

func TestSimulatorTimeline(t *testing.T) {
	off := false
	s := newTestSim(t, testVessel("timeline"))
	result, err := s.Run(context.Background(), Config{
		Dt:       0.1,
		Duration: 3,
		Mode:     attitude.Hold{Orientation: mgl64.QuatIdent()},
		Timeline: Timeline{
			{At: 2, Engage: &off},
			{At: 1, Stick: &control.Stick{Input: mgl64.Vec3{0.5, 0, 0}}},
			{At: 1.5, Stick: &control.Stick{}},
		},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, smp := range result.Samples {
		manual := smp.Time >= 1-1e-9 && smp.Time < 1.5-1e-9
		if smp.Manual != manual {
			t.Errorf("t=%.1f manual=%v, want %v", smp.Time, smp.Manual, manual)
		}
		if manual && smp.Command[dynamo.AxisPitch] != 0.5 {
			t.Errorf("t=%.1f pitch command %.3f, want pilot's 0.5", smp.Time, smp.Command[dynamo.AxisPitch])
		}
		if smp.Time >= 2-1e-9 && smp.Command != (mgl64.Vec3{}) {
			t.Errorf("t=%.1f command %v after disengage", smp.Time, smp.Command)
		}
	}
}

func TestSimulatorQueuedParams(t *testing.T) {
	s := newTestSim(t, testVessel("tune"))
	_, err := s.Run(context.Background(), Config{
		Dt:       0.1,
		Duration: 1,
		Timeline: Timeline{{At: 0.5, Params: map[string]float64{"kd_factor": 0.7}}},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := s.Core().Controller().PID.Params().KdFactor; got != 0.7 {
		t.Errorf("kd_factor = %g, want 0.7", got)
	}
}

type testMetric struct {
	count int
	sum   float64
}

func (m *testMetric) Name() string { return "test" }
func (m *testMetric) Observe(s dynamo.Sample) {
	m.count++
	m.sum += s.Time
}
func (m *testMetric) Value() float64 { return float64(m.count) }
func (m *testMetric) Reset()         { m.count, m.sum = 0, 0 }

type testObserver struct {
	vessel string
	steps  int
}

func (o *testObserver) OnStep(vessel string, _ dynamo.Sample) {
	o.vessel = vessel
	o.steps++
}

func TestSimulatorMetricsAndObservers(t *testing.T) {
	s := newTestSim(t, testVessel("observed"))
	m := &testMetric{count: 99}
	o := &testObserver{}
	s.AddMetric(m)
	s.AddObserver(o)

	result, err := s.Run(context.Background(), Config{Dt: 0.1, Duration: 1, SampleEvery: 5})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.Metrics["test"] != 10 {
		t.Errorf("metric = %v, want 10", result.Metrics["test"])
	}
	if o.steps != 10 || o.vessel != "observed" {
		t.Errorf("observer saw %d steps of %q", o.steps, o.vessel)
	}
	if len(result.Samples) != 2 {
		t.Errorf("expected 2 decimated samples, got %d", len(result.Samples))
	}
}

func TestSimulatorCallbackStops(t *testing.T) {
	s := newTestSim(t, testVessel("stop"))
	result, err := s.RunWithCallback(context.Background(), Config{Dt: 0.1, Duration: 10}, func(smp dynamo.Sample) bool {
		return smp.Time < 0.45
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.StepsTaken != 6 {
		t.Errorf("expected 6 steps, got %d", result.StepsTaken)
	}
}

func TestActuatorLag(t *testing.T) {
	v := testVessel("lag")
	v.Actuators = []actuator.Descriptor{{Name: "rcs", Kind: actuator.Thruster, Positive: dynamo.Splat(10), Negative: dynamo.Splat(10), ResponseTime: 0.3}}
	s := newTestSim(t, v)

	applied := make([]mgl64.Vec3, 1)
	out := vessel.Output{Command: mgl64.Vec3{1, 0, 0}, Effective: v.Actuators}
	got := s.actuate(out, applied, 0.1)
	if math.Abs(got[0]-2.5) > 1e-12 {
		t.Errorf("first tick torque %.4f, want 2.5", got[0])
	}
	for i := 0; i < 200; i++ {
		got = s.actuate(out, applied, 0.1)
	}
	if math.Abs(got[0]-10) > 1e-6 {
		t.Errorf("settled torque %.4f, want 10", got[0])
	}
}

func TestFleet(t *testing.T) {
	f := NewFleet(2)
	for _, name := range []string{"a", "b", "c"} {
		v := testVessel(name)
		v.Rate = mgl64.Vec3{0, 0, 0.05}
		f.Add(newTestSim(t, v), Config{Dt: 0.05, Duration: 2})
	}

	results, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("fleet failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, name := range []string{"a", "b", "c"} {
		if results[i].Vessel != name || results[i].StepsTaken != 40 {
			t.Errorf("result %d: vessel %q steps %d", i, results[i].Vessel, results[i].StepsTaken)
		}
	}
}

func TestFleetFailure(t *testing.T) {
	f := NewFleet(0)
	f.Add(newTestSim(t, testVessel("ok")), Config{Dt: 0.05, Duration: 1})
	f.Add(newTestSim(t, testVessel("bad")), Config{Dt: 0, Duration: 1})

	_, err := f.Run(context.Background())
	if !errors.Is(err, dynamo.ErrInvalidTimestep) {
		t.Errorf("err = %v, want ErrInvalidTimestep", err)
	}
}

type scriptedPilot struct {
	polls int
	mode  attitude.Mode
}

func (p *scriptedPilot) Poll(t float64) (control.Stick, attitude.Mode) {
	p.polls++
	m := p.mode
	p.mode = nil
	if t < 0.5 {
		return control.Stick{Input: mgl64.Vec3{0, 0, 1}}, m
	}
	return control.Stick{}, m
}

func TestSimulatorPilot(t *testing.T) {
	s := newTestSim(t, testVessel("pilot"))
	p := &scriptedPilot{mode: attitude.Hold{Orientation: mgl64.QuatIdent()}}
	result, err := s.Run(context.Background(), Config{
		Dt:       0.1,
		Duration: 1,
		Timeline: Timeline{{At: 0, Stick: &control.Stick{Input: mgl64.Vec3{1, 0, 0}}}},
		Pilot:    p,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if p.polls != 10 {
		t.Errorf("pilot polled %d times, want 10", p.polls)
	}
	first := result.Samples[0]
	if !first.Manual || first.Command[dynamo.AxisYaw] != 1 || first.Command[dynamo.AxisPitch] == 1 {
		t.Errorf("pilot stick did not override timeline: %v", first.Command)
	}
	if result.Final.Manual {
		t.Error("still manual after the pilot let go")
	}
}

func TestSimulatorTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	f := NewFleet(1)
	f.Add(newTestSim(t, testVessel("traced")), Config{Dt: 0.1, Duration: 1})
	f.Add(newTestSim(t, testVessel("broken")), Config{Dt: 0.1, Duration: 1, SampleEvery: -1})
	if _, err := f.Run(context.Background()); err == nil {
		t.Fatal("expected fleet error")
	}

	names := map[string]int{}
	for _, span := range sr.Ended() {
		names[span.Name()]++
		if span.Name() != "sim.run" {
			continue
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "steps_taken" && kv.Value.AsInt64() != 10 {
				t.Errorf("steps_taken = %d, want 10", kv.Value.AsInt64())
			}
		}
		if span.Parent().SpanID() == (trace.SpanID{}) {
			t.Error("run span not parented to the fleet span")
		}
	}
	if names["sim.fleet"] != 1 || names["sim.run"] != 1 {
		t.Errorf("spans = %v, want one fleet and one run", names)
	}
}
