package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
	"mural-budget/pkg/redis"
)

const (
	StepName          = "name"
	StepEmail         = "email"
	StepPhone         = "phone"
	StepPostalCode    = "postal_code"
	StepManualAddress = "manual_address"
	StepSurfaceType   = "surface_type"
	StepCustomSurface = "custom_surface"
	StepDimensions    = "dimensions"
	StepArtSeries     = "art_series"
	StepComplexity    = "complexity"
	StepDeadline      = "deadline"
	StepPhotos        = "photos"
	StepNotes         = "notes"
	StepConfirm       = "confirm"
)

// Session is the chat counterpart of a web form session.
type Session struct {
	Step           string                `json:"step"`
	Request        budget.ProjectRequest `json:"request"`
	DistanceFactor float64               `json:"distance_factor"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

func NewSession() Session {
	return Session{
		Step:           StepName,
		DistanceFactor: 1.0,
		UpdatedAt:      time.Now(),
	}
}

// Estimate computes the current estimate; nil until a surface is chosen.
func (s Session) Estimate() *estimate.Result {
	factor := s.DistanceFactor
	if factor == 0 {
		factor = 1.0
	}
	return estimate.ComputeEstimate(s.Request, factor)
}

func (s Session) Precision() estimate.Precision {
	return estimate.ComputePrecision(s.Request)
}

type StateStorage struct {
	redis *redis.Client
}

func NewStateStorage(redis *redis.Client) *StateStorage {
	return &StateStorage{redis: redis}
}

// Get returns the stored session or a zero Session when the chat has none.
func (s *StateStorage) Get(ctx context.Context, chatID int64) (Session, error) {
	var session Session
	if err := s.redis.GetState(ctx, chatID, &session); err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

func (s *StateStorage) Save(ctx context.Context, chatID int64, session Session) error {
	session.UpdatedAt = time.Now()
	if err := s.redis.SaveState(ctx, chatID, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *StateStorage) Clear(ctx context.Context, chatID int64) error {
	if err := s.redis.ClearState(ctx, chatID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
