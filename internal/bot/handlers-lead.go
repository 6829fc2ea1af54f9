package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
	"mural-budget/internal/storage"
)

const leadAction = "lead"

func (b *Bot) submitLead(ctx context.Context, chatID int64) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	req := budget.Normalize(session.Request)
	if err := budget.Validate(req); err != nil {
		b.sendError(chatID, "Alguns dados precisam ser corrigidos:\n"+formatValidationErrors(err)+
			"\n\nUse /start para preencher novamente.")
		return
	}

	limited, err := b.storage.CheckRateLimit(ctx, strconv.FormatInt(chatID, 10), leadAction,
		b.cfg.Business.LeadRateLimit, b.cfg.Business.LeadRateWindow)
	if err != nil {
		b.logger.Warn("Rate limit check failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	} else if limited {
		b.sendError(chatID, "Você enviou muitos pedidos em pouco tempo. Tente novamente mais tarde.")
		return
	}

	lead, err := storage.NewLead(
		storage.ChannelTelegram,
		req,
		estimate.ComputeEstimate(req, session.DistanceFactor),
		estimate.ComputePrecision(req),
	)
	if err != nil {
		b.logger.Error("Failed to build lead",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao registrar o pedido")
		return
	}
	lead.ChatID = &chatID

	if err := b.storage.SaveLead(ctx, &lead); err != nil {
		b.logger.Error("Failed to save lead",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao registrar o pedido. Tente novamente.")
		return
	}

	b.logger.Info("Lead submitted",
		zap.Int64("lead_id", lead.ID),
		zap.String("channel", lead.Channel),
		zap.Int64("chat_id", chatID))

	b.sendText(chatID, fmt.Sprintf(
		"✅ Pedido #%d enviado com sucesso!\n\n%s\n\nEntraremos em contato em breve.",
		lead.ID,
		budget.FormatRangeBRL(lead.EstimateMin, lead.EstimateMax),
	), removeKeyboard())
	b.sendText(chatID, "Se preferir, fale com a gente pelo WhatsApp:",
		shareKeyboard(budget.ShareURL(b.cfg.Business.WhatsAppNumber, req)))

	b.NotifyNewLead(ctx, lead)

	if err := b.state.Clear(ctx, chatID); err != nil {
		b.logger.Error("Failed to clear session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func formatValidationErrors(err error) string {
	var verrs budget.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		lines = append(lines, "• "+verrs[field])
	}
	return strings.Join(lines, "\n")
}
