package estimate

import (
	"math"
	"strings"
	"testing"
	"time"

	"mural-budget/internal/budget"
)

const eps = 1e-9

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestComputeEstimate_NoSurfaceType(t *testing.T) {
	req := budget.ProjectRequest{
		FullName:      "Maria da Silva",
		SurfaceWidth:  floatPtr(4),
		SurfaceHeight: floatPtr(3),
		Complexity:    intPtr(9),
		ArtSeries:     "GM-013",
	}

	if got := ComputeEstimate(req, 1.4); got != nil {
		t.Fatalf("expected no estimate without surface type, got %+v", got)
	}
}

func TestComputeEstimate_DefaultArea(t *testing.T) {
	res := ComputeEstimate(budget.ProjectRequest{SurfaceType: budget.SurfaceInternalWall}, 1.0)
	if res == nil {
		t.Fatal("expected estimate")
	}

	if res.BaseValue != 1200 {
		t.Errorf("base value: got %.2f, want 1200", res.BaseValue)
	}
	if res.FinalValue != 1200 {
		t.Errorf("final value: got %.2f, want 1200", res.FinalValue)
	}
	if !almostEqual(res.MinValue, 1020) {
		t.Errorf("min value: got %.6f, want 1020", res.MinValue)
	}
	if !almostEqual(res.MaxValue, 1380) {
		t.Errorf("max value: got %.6f, want 1380", res.MaxValue)
	}
	if res.Area != nil {
		t.Errorf("area should be omitted without dimensions, got %.2f", *res.Area)
	}
	want := Factors{Distance: 1, Complexity: 1, ArtSeries: 1, Surface: 1}
	if res.Factors != want {
		t.Errorf("factors: got %+v, want %+v", res.Factors, want)
	}
}

func TestComputeEstimate_AllFactors(t *testing.T) {
	req := budget.ProjectRequest{
		SurfaceType:   budget.SurfaceCeiling,
		SurfaceWidth:  floatPtr(4),
		SurfaceHeight: floatPtr(3),
		Complexity:    intPtr(9),
		ArtSeries:     "GM-013",
	}

	res := ComputeEstimate(req, 1.0)
	if res == nil {
		t.Fatal("expected estimate")
	}

	if res.Area == nil || *res.Area != 12 {
		t.Fatalf("area: got %v, want 12", res.Area)
	}
	if res.BaseValue != 2400 {
		t.Errorf("base value: got %.2f, want 2400", res.BaseValue)
	}
	if res.Factors.Surface != 1.3 || res.Factors.Complexity != 1.25 || res.Factors.ArtSeries != 1.6 {
		t.Errorf("unexpected factors %+v", res.Factors)
	}
	if !almostEqual(res.FinalValue, 6240) {
		t.Errorf("final value: got %.6f, want 6240", res.FinalValue)
	}

	far := ComputeEstimate(req, 1.6)
	if !almostEqual(far.FinalValue, 6240*1.6) {
		t.Errorf("distance factor not applied: got %.6f", far.FinalValue)
	}
}

func TestComputeEstimate_RangeBand(t *testing.T) {
	for _, st := range budget.SurfaceTypes {
		for _, series := range budget.ArtSeriesCatalog {
			req := budget.ProjectRequest{
				SurfaceType:   st,
				SurfaceWidth:  floatPtr(2.5),
				SurfaceHeight: floatPtr(1.75),
				ArtSeries:     series.ID,
			}
			res := ComputeEstimate(req, 1.25)
			if !almostEqual(res.MinValue, res.FinalValue*0.85) || !almostEqual(res.MaxValue, res.FinalValue*1.15) {
				t.Fatalf("%s/%s: range %.4f..%.4f does not match final %.4f", st, series.ID, res.MinValue, res.MaxValue, res.FinalValue)
			}
		}
	}
}

func TestComputeEstimate_MonotonicInComplexity(t *testing.T) {
	prev := 0.0
	for level := 1; level <= 10; level++ {
		req := budget.ProjectRequest{SurfaceType: budget.SurfaceFence, Complexity: intPtr(level)}
		res := ComputeEstimate(req, 1.0)
		if res.FinalValue < prev {
			t.Fatalf("complexity %d lowered the price: %.2f < %.2f", level, res.FinalValue, prev)
		}
		prev = res.FinalValue
	}
}

func TestComputeEstimate_MonotonicInDistance(t *testing.T) {
	req := budget.ProjectRequest{SurfaceType: budget.SurfaceExternalWall}
	prev := 0.0
	for _, factor := range []float64{1.0, 1.15, 1.25, 1.4, 1.6} {
		res := ComputeEstimate(req, factor)
		if res.FinalValue < prev {
			t.Fatalf("distance factor %.2f lowered the price", factor)
		}
		prev = res.FinalValue
	}
}

func TestComputeEstimate_PartialDimensionsUseDefault(t *testing.T) {
	res := ComputeEstimate(budget.ProjectRequest{
		SurfaceType:  budget.SurfaceInternalWall,
		SurfaceWidth: floatPtr(10),
	}, 1.0)

	if res.BaseValue != DefaultArea*BasePricePerSquareMeter {
		t.Errorf("base value: got %.2f, want default-area price", res.BaseValue)
	}
}

func TestComputeDistanceFactor(t *testing.T) {
	tests := []struct {
		cep  string
		want float64
	}{
		{"", 1.0},
		{"sem cep", 1.0},
		{"01310-100", 1.0},
		{"01360-100", 1.0},  // 50
		{"01400-000", 1.15}, // 89.9
		{"01410-100", 1.15}, // exactly 100
		{"01510-100", 1.25}, // 200
		{"01610-100", 1.4},
		{"02000-000", 1.6},
		{"90010-000", 1.6},
		{"01310100", 1.0},
		{"12345678901234567890", 1.6},
		{strings.Repeat("9", 400), 1.6},
	}

	for _, tt := range tests {
		if got := ComputeDistanceFactor(tt.cep); got != tt.want {
			t.Errorf("ComputeDistanceFactor(%q) = %.2f, want %.2f", tt.cep, got, tt.want)
		}
	}
}

func TestComputeComplexityFactor(t *testing.T) {
	if got := ComputeComplexityFactor(nil); got != 1.0 {
		t.Errorf("unset: got %.2f", got)
	}
	want := map[int]float64{1: 0.9, 2: 0.9, 3: 0.9, 4: 1.0, 5: 1.0, 6: 1.0, 7: 1.25, 8: 1.25, 9: 1.25, 10: 1.25}
	for level, factor := range want {
		if got := ComputeComplexityFactor(intPtr(level)); got != factor {
			t.Errorf("complexity %d: got %.2f, want %.2f", level, got, factor)
		}
	}
}

func TestLookupFactors(t *testing.T) {
	if len(artSeriesFactors) != 16 {
		t.Fatalf("expected 16 art series factors, got %d", len(artSeriesFactors))
	}
	for _, s := range budget.ArtSeriesCatalog {
		f := LookupArtSeriesFactor(s.ID)
		if f < 0.85 || f > 1.6 {
			t.Errorf("%s factor %.2f out of range", s.ID, f)
		}
	}
	if got := LookupArtSeriesFactor(""); got != 1.0 {
		t.Errorf("unset art series: got %.2f", got)
	}
	if got := LookupArtSeriesFactor("GM-999"); got != 1.0 {
		t.Errorf("unknown art series: got %.2f", got)
	}

	surfaces := map[budget.SurfaceType]float64{
		"parede-externa":    1.10,
		"parede-interna":    1.00,
		"muro-cerca":        1.05,
		"fachada-comercial": 1.20,
		"teto-laje":         1.30,
		"outros":            1.00,
		"piscina":           1.00,
	}
	for st, want := range surfaces {
		if got := LookupSurfaceFactor(st); got != want {
			t.Errorf("surface %s: got %.2f, want %.2f", st, got, want)
		}
	}
}

func TestComputePrecision_BaseAndPhotos(t *testing.T) {
	req := budget.ProjectRequest{
		FullName:    "Maria da Silva",
		Email:       "maria@example.com",
		Phone:       "(11) 98765-4321",
		PostalCode:  "01310-100",
		SurfaceType: budget.SurfaceInternalWall,
		Photos:      []string{"photo-1"},
	}

	p := ComputePrecision(req)
	if p.Total != 50 {
		t.Errorf("total: got %d, want 50 (%+v)", p.Total, p)
	}
	if p.BaseFields != 40 || p.Photos != 10 {
		t.Errorf("unexpected breakdown %+v", p)
	}
}

func TestComputePrecision_BaseNeedsEveryField(t *testing.T) {
	req := budget.ProjectRequest{
		FullName:    "Maria da Silva",
		Email:       "maria@example.com",
		PostalCode:  "01310-100",
		SurfaceType: budget.SurfaceInternalWall,
	}
	if p := ComputePrecision(req); p.Total != 0 {
		t.Errorf("missing phone should give 0, got %d", p.Total)
	}
}

func TestComputePrecision_Capped(t *testing.T) {
	deadline := time.Now().Add(30 * 24 * time.Hour)
	req := budget.ProjectRequest{
		FullName:        "Maria da Silva",
		Email:           "maria@example.com",
		Phone:           "(11) 98765-4321",
		PostalCode:      "01310-100",
		SurfaceType:     budget.SurfaceCeiling,
		SurfaceWidth:    floatPtr(4),
		SurfaceHeight:   floatPtr(3),
		ArtSeries:       "GM-001",
		Photos:          []string{"a", "b"},
		Complexity:      intPtr(5),
		DesiredDeadline: &deadline,
		Notes:           strings.Repeat("detalhe ", 5),
	}

	p := ComputePrecision(req)
	sum := p.BaseFields + p.SurfaceSize + p.ArtSeries + p.Photos + p.Complexity + p.Deadline + p.Notes
	if sum != 85 {
		t.Fatalf("expected every indicator to fire (85), got %d", sum)
	}
	if p.Total > MaxPrecision {
		t.Errorf("total %d exceeds cap", p.Total)
	}
}

func TestComputePrecision_NotesThreshold(t *testing.T) {
	short := ComputePrecision(budget.ProjectRequest{Notes: strings.Repeat("a", 20)})
	long := ComputePrecision(budget.ProjectRequest{Notes: strings.Repeat("ç", 21)})

	if short.Notes != 0 {
		t.Errorf("20 characters should not count, got %d", short.Notes)
	}
	if long.Notes != 2 {
		t.Errorf("21 characters should count, got %d", long.Notes)
	}
}

func TestListCatalog(t *testing.T) {
	c := ListCatalog()
	if len(c.Surfaces) != 6 || len(c.ArtSeries) != 16 || len(c.Styles) != 5 {
		t.Fatalf("unexpected catalog sizes: %d surfaces, %d series, %d styles",
			len(c.Surfaces), len(c.ArtSeries), len(c.Styles))
	}
	if c.ArtSeries[12].ID != "GM-013" || c.ArtSeries[12].Factor != 1.6 {
		t.Errorf("unexpected GM-013 entry %+v", c.ArtSeries[12])
	}
}
