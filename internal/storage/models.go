package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
)

const (
	ChannelWeb      = "web"
	ChannelTelegram = "telegram"
)

const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQuoted    = "quoted"
	LeadStatusClosed    = "closed"
	LeadStatusCancelled = "cancelled"
)

var leadStatusLabels = map[string]string{
	LeadStatusNew:       "Novo",
	LeadStatusContacted: "Contatado",
	LeadStatusQuoted:    "Orçado",
	LeadStatusClosed:    "Fechado",
	LeadStatusCancelled: "Cancelado",
}

func IsValidLeadStatus(status string) bool {
	_, ok := leadStatusLabels[status]
	return ok
}

func LeadStatusLabel(status string) string {
	if l, ok := leadStatusLabels[status]; ok {
		return l
	}
	return status
}

// Lead is a submitted budget request together with the estimate shown to the
// requester at submission time.
type Lead struct {
	ID       int64     `db:"id"`
	PublicID uuid.UUID `db:"public_id"`
	Channel  string    `db:"channel"`
	ChatID   *int64    `db:"chat_id"`

	FullName   string `db:"full_name"`
	Email      string `db:"email"`
	Phone      string `db:"phone"`
	PostalCode string `db:"cep"`
	Address    string `db:"address"`
	City       string `db:"city"`
	State      string `db:"state"`

	SurfaceType       string         `db:"surface_type"`
	CustomSurfaceType string         `db:"custom_surface_type"`
	SurfaceWidth      *float64       `db:"surface_width"`
	SurfaceHeight     *float64       `db:"surface_height"`
	ArtSeries         string         `db:"art_series"`
	PreferredStyles   types.JSONText `db:"preferred_styles"`
	Complexity        *int           `db:"complexity"`
	DesiredDeadline   *time.Time     `db:"desired_deadline"`
	Photos            types.JSONText `db:"photos"`
	Notes             string         `db:"notes"`

	DistanceFactor float64 `db:"distance_factor"`
	EstimateMin    float64 `db:"estimate_min"`
	EstimateFinal  float64 `db:"estimate_final"`
	EstimateMax    float64 `db:"estimate_max"`
	Precision      int     `db:"precision_score"`

	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewLead builds an unsaved lead from a validated request and its estimate.
func NewLead(channel string, req budget.ProjectRequest, est *estimate.Result, precision estimate.Precision) (Lead, error) {
	if est == nil {
		return Lead{}, fmt.Errorf("lead requires an estimate")
	}

	styles, err := json.Marshal(nonNil(req.PreferredStyles))
	if err != nil {
		return Lead{}, fmt.Errorf("marshal styles: %w", err)
	}
	photos, err := json.Marshal(nonNil(req.Photos))
	if err != nil {
		return Lead{}, fmt.Errorf("marshal photos: %w", err)
	}

	return Lead{
		PublicID:          uuid.New(),
		Channel:           channel,
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		PostalCode:        req.PostalCode,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		SurfaceType:       string(req.SurfaceType),
		CustomSurfaceType: req.CustomSurfaceType,
		SurfaceWidth:      req.SurfaceWidth,
		SurfaceHeight:     req.SurfaceHeight,
		ArtSeries:         string(req.ArtSeries),
		PreferredStyles:   types.JSONText(styles),
		Complexity:        req.Complexity,
		DesiredDeadline:   req.DesiredDeadline,
		Photos:            types.JSONText(photos),
		Notes:             req.Notes,
		DistanceFactor:    est.Factors.Distance,
		EstimateMin:       est.MinValue,
		EstimateFinal:     est.FinalValue,
		EstimateMax:       est.MaxValue,
		Precision:         precision.Total,
		Status:            LeadStatusNew,
		CreatedAt:         time.Now(),
	}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Request reconstructs the budget request stored in the lead.
func (l Lead) Request() budget.ProjectRequest {
	req := budget.ProjectRequest{
		FullName:          l.FullName,
		Email:             l.Email,
		Phone:             l.Phone,
		PostalCode:        l.PostalCode,
		Address:           l.Address,
		City:              l.City,
		State:             l.State,
		SurfaceType:       budget.SurfaceType(l.SurfaceType),
		CustomSurfaceType: l.CustomSurfaceType,
		SurfaceWidth:      l.SurfaceWidth,
		SurfaceHeight:     l.SurfaceHeight,
		ArtSeries:         budget.ArtSeriesID(l.ArtSeries),
		Complexity:        l.Complexity,
		DesiredDeadline:   l.DesiredDeadline,
		Notes:             l.Notes,
	}
	if len(l.PreferredStyles) > 0 {
		_ = l.PreferredStyles.Unmarshal(&req.PreferredStyles)
	}
	if len(l.Photos) > 0 {
		_ = l.Photos.Unmarshal(&req.Photos)
	}
	return req
}

func (l Lead) PhotoCount() int {
	var photos []string
	if len(l.Photos) == 0 {
		return 0
	}
	if err := l.Photos.Unmarshal(&photos); err != nil {
		return 0
	}
	return len(photos)
}
