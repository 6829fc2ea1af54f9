package estimate

import "mural-budget/internal/budget"

const (
	BasePricePerSquareMeter = 200.0

	// DefaultArea stands in for the surface when no dimensions were given.
	DefaultArea = 6.0

	// ReferencePostalCode is São Paulo, the studio's base.
	ReferencePostalCode = "01310-100"

	MinValueRatio = 0.85
	MaxValueRatio = 1.15

	MaxPrecision = 85
)

// Per-series price multipliers.
var artSeriesFactors = map[budget.ArtSeriesID]float64{
	"GM-001": 1.0,  // Plantas básicas
	"GM-002": 1.2,  // Flores detalhadas
	"GM-003": 0.9,  // Folhagem simples
	"GM-004": 1.5,  // Composição complexa
	"GM-005": 1.1,
	"GM-006": 1.3,
	"GM-007": 0.95,
	"GM-008": 1.4,
	"GM-009": 1.25,
	"GM-010": 1.0,
	"GM-011": 1.35,
	"GM-012": 0.85,
	"GM-013": 1.6,
	"GM-014": 1.15,
	"GM-015": 1.45,
	"GM-016": 1.2,
}

var surfaceFactors = map[budget.SurfaceType]float64{
	budget.SurfaceExternalWall:   1.1,  // weathering
	budget.SurfaceInternalWall:   1.0,
	budget.SurfaceFence:          1.05,
	budget.SurfaceCommercialFace: 1.2,  // durability
	budget.SurfaceCeiling:        1.3,  // overhead work
	budget.SurfaceOther:          1.0,
}

// distanceBands are checked in order; the first band whose threshold the
// distance exceeds wins.
var distanceBands = []struct {
	over   float64
	factor float64
}{
	{500, 1.6},
	{200, 1.4},
	{100, 1.25},
	{50, 1.15},
}

// Precision weights.
const (
	weightBaseFields  = 40
	weightSurfaceSize = 15
	weightArtSeries   = 10
	weightPhotos      = 10
	weightComplexity  = 5
	weightDeadline    = 3
	weightNotes       = 2

	detailedNotesLen = 20
)

type ArtSeriesEntry struct {
	budget.ArtSeries
	Factor float64 `json:"factor"`
}

type SurfaceEntry struct {
	Type   budget.SurfaceType `json:"type"`
	Label  string             `json:"label"`
	Factor float64            `json:"factor"`
}

type Catalog struct {
	Surfaces  []SurfaceEntry   `json:"surfaces"`
	ArtSeries []ArtSeriesEntry `json:"artSeries"`
	Styles    []StyleEntry     `json:"styles"`
}

type StyleEntry struct {
	ID    budget.Style `json:"id"`
	Label string       `json:"label"`
}

// ListCatalog returns the pricing tables in display order.
func ListCatalog() Catalog {
	c := Catalog{
		Surfaces:  make([]SurfaceEntry, 0, len(budget.SurfaceTypes)),
		ArtSeries: make([]ArtSeriesEntry, 0, len(budget.ArtSeriesCatalog)),
		Styles:    make([]StyleEntry, 0, len(budget.Styles)),
	}
	for _, st := range budget.SurfaceTypes {
		c.Surfaces = append(c.Surfaces, SurfaceEntry{Type: st, Label: st.Label(), Factor: LookupSurfaceFactor(st)})
	}
	for _, s := range budget.ArtSeriesCatalog {
		c.ArtSeries = append(c.ArtSeries, ArtSeriesEntry{ArtSeries: s, Factor: LookupArtSeriesFactor(s.ID)})
	}
	for _, s := range budget.Styles {
		c.Styles = append(c.Styles, StyleEntry{ID: s, Label: s.Label()})
	}
	return c
}
