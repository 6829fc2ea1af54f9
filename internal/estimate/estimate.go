package estimate

import (
	"errors"
	"math"
	"strconv"
	"unicode/utf8"

	"mural-budget/internal/budget"
)

type Factors struct {
	Distance   float64 `json:"distance"`
	Complexity float64 `json:"complexity"`
	ArtSeries  float64 `json:"artSeries"`
	Surface    float64 `json:"surface"`
}

// Result is a priced estimate. Values are not rounded.
type Result struct {
	BaseValue  float64 `json:"baseValue"`
	FinalValue float64 `json:"finalValue"`
	MinValue   float64 `json:"minValue"`
	MaxValue   float64 `json:"maxValue"`
	Factors    Factors `json:"factors"`
	// Area is set only when the requester supplied both dimensions.
	Area *float64 `json:"area,omitempty"`
}

// Precision is the confidence breakdown; Total is capped at MaxPrecision.
type Precision struct {
	BaseFields  int `json:"baseFields"`
	SurfaceSize int `json:"surfaceSize"`
	ArtSeries   int `json:"artSeries"`
	Photos      int `json:"photos"`
	Complexity  int `json:"complexity"`
	Deadline    int `json:"deadline"`
	Notes       int `json:"notes"`
	Total       int `json:"total"`
}

var referencePostalCode, _ = postalCodeNumber(ReferencePostalCode)

// postalCodeNumber reads the CEP digits as a number. Digit strings too long
// for an int64 still parse, as +Inf at worst, and land in the farthest band.
func postalCodeNumber(cep string) (float64, bool) {
	digits := budget.PostalCodeDigits(cep)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(digits, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// ComputeDistanceFactor maps a CEP to a travel multiplier using the numeric
// gap to the reference CEP as a stand-in for distance. It is not geography.
func ComputeDistanceFactor(postalCode string) float64 {
	n, ok := postalCodeNumber(postalCode)
	if !ok {
		return 1.0
	}
	distance := math.Abs(n-referencePostalCode) / 1000
	for _, band := range distanceBands {
		if distance > band.over {
			return band.factor
		}
	}
	return 1.0
}

func ComputeComplexityFactor(complexity *int) float64 {
	if complexity == nil || *complexity == 0 {
		return 1.0
	}
	switch {
	case *complexity <= 3:
		return 0.9
	case *complexity >= 7:
		return 1.25
	default:
		return 1.0
	}
}

func LookupArtSeriesFactor(id budget.ArtSeriesID) float64 {
	if f, ok := artSeriesFactors[id]; ok {
		return f
	}
	return 1.0
}

func LookupSurfaceFactor(st budget.SurfaceType) float64 {
	if f, ok := surfaceFactors[st]; ok {
		return f
	}
	return 1.0
}

// ComputeEstimate prices a request. It returns nil when the surface type is
// not known yet: that means "not computable", not an error. Inputs are assumed
// to be validated upstream.
func ComputeEstimate(req budget.ProjectRequest, distanceFactor float64) *Result {
	if req.SurfaceType == "" {
		return nil
	}

	res := &Result{}

	area := DefaultArea
	if a, ok := req.Area(); ok {
		area = a
		res.Area = &a
	}

	res.BaseValue = area * BasePricePerSquareMeter
	res.Factors = Factors{
		Distance:   distanceFactor,
		Complexity: ComputeComplexityFactor(req.Complexity),
		ArtSeries:  LookupArtSeriesFactor(req.ArtSeries),
		Surface:    LookupSurfaceFactor(req.SurfaceType),
	}

	res.FinalValue = res.BaseValue *
		res.Factors.Distance *
		res.Factors.Complexity *
		res.Factors.ArtSeries *
		res.Factors.Surface
	res.MinValue = res.FinalValue * MinValueRatio
	res.MaxValue = res.FinalValue * MaxValueRatio

	return res
}

func ComputePrecision(req budget.ProjectRequest) Precision {
	var p Precision

	if req.HasContactData() && req.SurfaceType != "" {
		p.BaseFields = weightBaseFields
	}
	if req.HasDimensions() {
		p.SurfaceSize = weightSurfaceSize
	}
	if req.ArtSeries != "" {
		p.ArtSeries = weightArtSeries
	}
	if len(req.Photos) > 0 {
		p.Photos = weightPhotos
	}
	if req.HasComplexity() {
		p.Complexity = weightComplexity
	}
	if req.DesiredDeadline != nil && !req.DesiredDeadline.IsZero() {
		p.Deadline = weightDeadline
	}
	if utf8.RuneCountInString(req.Notes) > detailedNotesLen {
		p.Notes = weightNotes
	}

	p.Total = p.BaseFields + p.SurfaceSize + p.ArtSeries + p.Photos +
		p.Complexity + p.Deadline + p.Notes
	if p.Total > MaxPrecision {
		p.Total = MaxPrecision
	}
	return p
}
