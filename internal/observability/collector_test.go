package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/san-kum/attsim/internal/dynamo"
)

func TestCollectorRecordsSample(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.OnStep("probe", dynamo.Sample{
		Error:      mgl64.Vec3{-0.1, 0, 0.02},
		ErrorAngle: 0.102,
		Command:    mgl64.Vec3{-0.6, 0, 0.1},
		Authority:  dynamo.Splat(0.2),
		Tf:         dynamo.Splat(0.3),
		Mode:       "locked",
		WheelFill:  0.4,
		Reset:      true,
	})
	c.OnStep("probe", dynamo.Sample{Mode: "nerfed", Manual: true, ErrorAngle: 0.01})

	if got := testutil.ToFloat64(c.Resets.WithLabelValues("probe")); got != 1 {
		t.Fatalf("attitude_target_resets_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Manual.WithLabelValues("probe")); got != 1 {
		t.Fatalf("attitude_manual_override_ticks_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Mode.WithLabelValues("probe", "nerfed")); got != 1 {
		t.Fatalf("nerfed mode gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.Mode.WithLabelValues("probe", "locked")); got != 0 {
		t.Fatalf("locked mode gauge = %v, want 0", got)
	}
	if got := testutil.CollectAndCount(c.ErrorAngle); got != 1 {
		t.Fatalf("error angle histogram series = %d, want 1", got)
	}
}

func TestCollectorReusesRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	second.OnStep("station", dynamo.Sample{Reset: true})
	if got := testutil.ToFloat64(first.Resets.WithLabelValues("station")); got != 1 {
		t.Fatalf("shared counter = %v, want 1", got)
	}
}

func TestHandlerExposesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.OnStep("lander", dynamo.Sample{Error: mgl64.Vec3{0.25, 0, 0}, Mode: "stock"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	for _, want := range []string{
		`attitude_error_radians{axis="pitch",vessel="lander"} 0.25`,
		`attitude_authority_mode{mode="stock",vessel="lander"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilCollectorIgnoresSamples(t *testing.T) {
	var c *Collector
	c.OnStep("ghost", dynamo.Sample{})
}
