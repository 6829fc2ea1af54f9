package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mural-budget/internal/config"
)

type Bot struct {
	bot      Sender
	updates  func() tgbotapi.UpdatesChannel
	stop     func()
	logger   *zap.Logger
	state    SessionStore
	storage  LeadStore
	address  AddressLookup
	cfg      *config.Config
	mu       sync.Mutex
	handlers map[string]func(context.Context, int64, string)
}

func New(
	token string,
	state SessionStore,
	leads LeadStore,
	address AddressLookup,
	logger *zap.Logger,
	cfg *config.Config,
) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	botAPI.Debug = cfg.Telegram.Debug

	logger.Info("Bot authorized",
		zap.String("username", botAPI.Self.UserName),
		zap.Int64("id", botAPI.Self.ID))

	b := newBot(botAPI, state, leads, address, logger, cfg)
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return botAPI.GetUpdatesChan(u)
	}
	b.stop = botAPI.StopReceivingUpdates
	return b, nil
}

func newBot(
	sender Sender,
	state SessionStore,
	leads LeadStore,
	address AddressLookup,
	logger *zap.Logger,
	cfg *config.Config,
) *Bot {
	b := &Bot{
		bot:     sender,
		logger:  logger,
		state:   state,
		storage: leads,
		address: address,
		cfg:     cfg,
	}
	b.registerHandlers()
	return b
}

func (b *Bot) registerHandlers() {
	b.handlers = map[string]func(context.Context, int64, string){
		StepName:          b.handleName,
		StepEmail:         b.handleEmail,
		StepPhone:         b.handlePhone,
		StepPostalCode:    b.handlePostalCode,
		StepManualAddress: b.handleManualAddress,
		StepSurfaceType:   b.handleSurfaceType,
		StepCustomSurface: b.handleCustomSurface,
		StepDimensions:    b.handleDimensions,
		StepArtSeries:     b.handleArtSeriesText,
		StepComplexity:    b.handleComplexity,
		StepDeadline:      b.handleDeadline,
		StepPhotos:        b.handlePhotosText,
		StepNotes:         b.handleNotes,
		StepConfirm:       b.handleConfirm,
	}
}

// Start runs the long polling loop until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	updates := b.updates()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Shutting down bot")
			if b.stop != nil {
				b.stop()
			}
			return nil

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if update.Message != nil {
		b.processMessage(ctx, update.Message)
	} else if update.CallbackQuery != nil {
		b.processCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	b.logger.Debug("Processing message",
		zap.Int64("chat_id", chatID),
		zap.String("text", msg.Text))

	if msg.IsCommand() {
		b.handleCommand(ctx, chatID, msg.Command(), strings.Fields(msg.CommandArguments()))
		return
	}

	session, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao processar sua mensagem. Tente novamente.")
		return
	}

	switch {
	case msg.Contact != nil && session.Step == StepPhone:
		b.handlePhone(ctx, chatID, msg.Contact.PhoneNumber)
		return
	case len(msg.Photo) > 0 && session.Step == StepPhotos:
		// Telegram sends several sizes; the last one is the largest.
		b.handlePhoto(ctx, chatID, msg.Photo[len(msg.Photo)-1].FileID)
		return
	}

	if handler, exists := b.handlers[session.Step]; exists {
		handler(ctx, chatID, strings.TrimSpace(msg.Text))
	} else {
		b.handleDefault(ctx, chatID)
	}
}

func (b *Bot) processCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if _, err := b.bot.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}

	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	b.logger.Debug("Processing callback",
		zap.Int64("chat_id", chatID),
		zap.String("data", data))

	prefix, value, _ := strings.Cut(data, ":")
	switch prefix {
	case callbackSeries:
		b.handleArtSeriesCallback(ctx, chatID, value)
	case callbackStatus:
		b.handleStatusCallback(ctx, chatID, value)
	default:
		b.logger.Warn("Unknown callback", zap.String("data", data))
	}
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Int64("chat_id", msg.ChatID),
			zap.String("text", msg.Text),
			zap.Error(err))
	}
}

func (b *Bot) sendText(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.sendMessage(msg)
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, "❌ "+text))
}

func (b *Bot) isAdmin(chatID int64) bool {
	for _, id := range b.cfg.Admin.IDs {
		if id == chatID {
			return true
		}
	}
	return false
}
