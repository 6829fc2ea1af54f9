package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mural-budget/internal/storage"
)

// NotifyNewLead sends the lead summary to the admin channel and, together
// with the spreadsheet and status buttons, to every admin.
func (b *Bot) NotifyNewLead(ctx context.Context, lead storage.Lead) {
	text := formatLeadNotification(lead)

	if b.cfg.Admin.ChannelID != 0 {
		b.sendMessage(tgbotapi.NewMessage(b.cfg.Admin.ChannelID, text))
	} else {
		b.logger.Debug("Channel notifications disabled - no channel ID configured")
	}

	if len(b.cfg.Admin.IDs) == 0 {
		return
	}

	report, err := storage.WriteLeadReport(b.cfg.Business.ReportsDir, lead)
	if err != nil {
		b.logger.Error("Failed to create Excel file for lead",
			zap.Int64("lead_id", lead.ID),
			zap.Error(err))
	}

	for _, adminID := range b.cfg.Admin.IDs {
		if adminID == 0 {
			continue
		}
		b.sendAdminNotification(adminID, lead, text, report)
	}
}

func (b *Bot) sendAdminNotification(chatID int64, lead storage.Lead, text, report string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = leadStatusKeyboard(lead.ID)
	b.sendMessage(msg)

	if report == "" {
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(report))
	doc.Caption = fmt.Sprintf("📊 Pedido #%d", lead.ID)
	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file to admin",
			zap.Int64("lead_id", lead.ID),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

// notifyRequester tells the lead author about a status change.
func (b *Bot) notifyRequester(lead storage.Lead) {
	if lead.ChatID == nil {
		return
	}

	msg := tgbotapi.NewMessage(*lead.ChatID, fmt.Sprintf(
		"ℹ️ O status do seu pedido #%d foi alterado para: %s",
		lead.ID, storage.LeadStatusLabel(lead.Status)))
	if _, err := b.bot.Send(msg); err != nil {
		b.logger.Warn("Failed to notify requester about status change",
			zap.Int64("lead_id", lead.ID),
			zap.Int64("chat_id", *lead.ChatID),
			zap.Error(err))
	}
}
