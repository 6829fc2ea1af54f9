package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mural-budget/internal/storage"
	"mural-budget/pkg/viacep"
)

// Sender is the part of tgbotapi.BotAPI the handlers talk to.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Save(ctx context.Context, chatID int64, session Session) error
	Clear(ctx context.Context, chatID int64) error
}

type LeadStore interface {
	SaveLead(ctx context.Context, lead *storage.Lead) error
	GetLeadByID(ctx context.Context, id int64) (*storage.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]storage.Lead, error)
	UpdateLeadStatus(ctx context.Context, id int64, status string) error
	GetLeadStatistics(ctx context.Context) (*storage.LeadStatistics, error)
	CheckRateLimit(ctx context.Context, subject, action string, limit int64, window time.Duration) (bool, error)
}

type AddressLookup interface {
	Lookup(ctx context.Context, postalCode string) (*viacep.Address, error)
}
