package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mural-budget/internal/storage"
	"mural-budget/pkg/viacep"
)

type LeadStore interface {
	SaveLead(ctx context.Context, lead *storage.Lead) error
	GetLeadByPublicID(ctx context.Context, publicID uuid.UUID) (*storage.Lead, error)
	CheckRateLimit(ctx context.Context, subject, action string, limit int64, window time.Duration) (bool, error)
}

type AddressLookup interface {
	Lookup(ctx context.Context, postalCode string) (*viacep.Address, error)
}

// Notifier delivers new leads to the business. The Telegram bot implements it.
type Notifier interface {
	NotifyNewLead(ctx context.Context, lead storage.Lead)
}
