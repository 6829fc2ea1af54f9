package budget

import (
	"time"
)

// SURFACES, ART SERIES AND STYLES

type SurfaceType string

const (
	SurfaceExternalWall   SurfaceType = "parede-externa"
	SurfaceInternalWall   SurfaceType = "parede-interna"
	SurfaceFence          SurfaceType = "muro-cerca"
	SurfaceCommercialFace SurfaceType = "fachada-comercial"
	SurfaceCeiling        SurfaceType = "teto-laje"
	SurfaceOther          SurfaceType = "outros"
)

// SurfaceTypes lists the surface categories in display order.
var SurfaceTypes = []SurfaceType{
	SurfaceExternalWall,
	SurfaceInternalWall,
	SurfaceFence,
	SurfaceCommercialFace,
	SurfaceCeiling,
	SurfaceOther,
}

var surfaceLabels = map[SurfaceType]string{
	SurfaceExternalWall:   "Parede Externa",
	SurfaceInternalWall:   "Parede Interna",
	SurfaceFence:          "Muro/Cerca",
	SurfaceCommercialFace: "Fachada Comercial",
	SurfaceCeiling:        "Teto/Laje",
	SurfaceOther:          "Outros",
}

func (s SurfaceType) Valid() bool {
	_, ok := surfaceLabels[s]
	return ok
}

func (s SurfaceType) Label() string {
	if label, ok := surfaceLabels[s]; ok {
		return label
	}
	return string(s)
}

// SurfaceTypeByLabel resolves a display label back to its surface type.
func SurfaceTypeByLabel(label string) (SurfaceType, bool) {
	for st, l := range surfaceLabels {
		if l == label {
			return st, true
		}
	}
	return "", false
}

type ArtSeriesID string

type ArtSeries struct {
	ID         ArtSeriesID `json:"id"`
	Title      string      `json:"title"`
	Complexity string      `json:"complexity"`
}

// ArtSeriesCatalog is the fixed set of reference artworks a requester may pick.
var ArtSeriesCatalog = []ArtSeries{
	{ID: "GM-001", Title: "Plantas Básicas", Complexity: "Simples"},
	{ID: "GM-002", Title: "Flores Detalhadas", Complexity: "Média"},
	{ID: "GM-003", Title: "Folhagem Simples", Complexity: "Simples"},
	{ID: "GM-004", Title: "Composição Complexa", Complexity: "Alta"},
	{ID: "GM-005", Title: "Natureza Tropical", Complexity: "Média"},
	{ID: "GM-006", Title: "Jardim Vertical", Complexity: "Alta"},
	{ID: "GM-007", Title: "Minimalista Verde", Complexity: "Simples"},
	{ID: "GM-008", Title: "Floresta Urbana", Complexity: "Alta"},
	{ID: "GM-009", Title: "Botânico Realista", Complexity: "Alta"},
	{ID: "GM-010", Title: "Folhas Abstratas", Complexity: "Média"},
	{ID: "GM-011", Title: "Cactos e Suculentas", Complexity: "Alta"},
	{ID: "GM-012", Title: "Sombras Verdes", Complexity: "Simples"},
	{ID: "GM-013", Title: "Exuberância Tropical", Complexity: "Muito Alta"},
	{ID: "GM-014", Title: "Plantas Geométricas", Complexity: "Média"},
	{ID: "GM-015", Title: "Mural Orgânico", Complexity: "Alta"},
	{ID: "GM-016", Title: "Harmonia Natural", Complexity: "Média"},
}

func (id ArtSeriesID) Valid() bool {
	_, ok := LookupArtSeries(id)
	return ok
}

func LookupArtSeries(id ArtSeriesID) (ArtSeries, bool) {
	for _, s := range ArtSeriesCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return ArtSeries{}, false
}

type Style string

var Styles = []Style{
	"tropical-exuberante",
	"minimalista-verde",
	"colorido-vibrante",
	"monocromatico",
	"realista-botanico",
}

var styleLabels = map[Style]string{
	"tropical-exuberante": "Tropical Exuberante",
	"minimalista-verde":   "Minimalista Verde",
	"colorido-vibrante":   "Colorido Vibrante",
	"monocromatico":       "Monocromático",
	"realista-botanico":   "Realista Botânico",
}

func (s Style) Valid() bool {
	_, ok := styleLabels[s]
	return ok
}

func (s Style) Label() string {
	if label, ok := styleLabels[s]; ok {
		return label
	}
	return string(s)
}

var complexityLabels = map[int]string{
	1: "Muito Simples", 2: "Simples", 3: "Simples+",
	4: "Média-", 5: "Média", 6: "Média+",
	7: "Alta-", 8: "Alta", 9: "Alta+",
	10: "Hiper-realista",
}

func ComplexityLabel(level int) string {
	return complexityLabels[level]
}

const (
	MinComplexity = 1
	MaxComplexity = 10
	MaxNotesLen   = 1000
)

// ProjectRequest is the (possibly partial) budget request collected by a form
// session. Optional numeric fields are nil until the requester fills them.
type ProjectRequest struct {
	// Personal data
	FullName   string `json:"fullName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"cep,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`

	// Project details
	SurfaceType       SurfaceType `json:"surfaceType,omitempty"`
	CustomSurfaceType string      `json:"customSurfaceType,omitempty"`

	// Advanced details
	SurfaceWidth    *float64    `json:"surfaceWidth,omitempty"`
	SurfaceHeight   *float64    `json:"surfaceHeight,omitempty"`
	ArtSeries       ArtSeriesID `json:"artSeries,omitempty"`
	PreferredStyles []Style     `json:"preferredStyles,omitempty"`
	Complexity      *int        `json:"complexity,omitempty"`
	DesiredDeadline *time.Time  `json:"desiredDeadline,omitempty"`
	Photos          []string    `json:"photos,omitempty"`
	Notes           string      `json:"additionalNotes,omitempty"`
}

// HasDimensions reports whether both surface dimensions are set.
func (r ProjectRequest) HasDimensions() bool {
	return r.SurfaceWidth != nil && *r.SurfaceWidth != 0 &&
		r.SurfaceHeight != nil && *r.SurfaceHeight != 0
}

func (r ProjectRequest) HasComplexity() bool {
	return r.Complexity != nil && *r.Complexity != 0
}

func (r ProjectRequest) HasContactData() bool {
	return r.FullName != "" && r.Email != "" && r.Phone != "" && r.PostalCode != ""
}

// Area returns width*height when both dimensions are known.
func (r ProjectRequest) Area() (float64, bool) {
	if !r.HasDimensions() {
		return 0, false
	}
	return *r.SurfaceWidth * *r.SurfaceHeight, true
}
