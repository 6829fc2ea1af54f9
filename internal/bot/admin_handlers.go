package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mural-budget/internal/storage"
)

func (b *Bot) handleAdminCommand(ctx context.Context, chatID int64, cmd string, args []string) {
	switch cmd {
	case "export":
		if len(args) == 0 {
			b.handleExportAllLeads(ctx, chatID)
			return
		}
		leadID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			b.sendError(chatID, "ID de pedido inválido")
			return
		}
		b.handleExportSingleLead(ctx, chatID, leadID)
	case "stats":
		b.handleLeadStats(ctx, chatID)
	case "status":
		if len(args) < 2 {
			b.sendError(chatID, "Uso: /status <id_do_pedido> <novo_status>")
			return
		}
		b.handleStatusUpdate(ctx, chatID, args[0], args[1])
	default:
		b.sendError(chatID, "Comando de administração desconhecido")
	}
}

// handleStatusCallback handles the "id:status" payload of the admin buttons.
func (b *Bot) handleStatusCallback(ctx context.Context, chatID int64, value string) {
	if !b.isAdmin(chatID) {
		return
	}
	idStr, status, ok := strings.Cut(value, ":")
	if !ok {
		b.sendError(chatID, "Ação inválida")
		return
	}
	b.handleStatusUpdate(ctx, chatID, idStr, status)
}

func (b *Bot) handleStatusUpdate(ctx context.Context, chatID int64, leadIDStr, newStatus string) {
	leadID, err := strconv.ParseInt(leadIDStr, 10, 64)
	if err != nil {
		b.sendError(chatID, "ID de pedido inválido")
		return
	}

	newStatus = strings.ToLower(newStatus)
	if !storage.IsValidLeadStatus(newStatus) {
		b.sendError(chatID, "Status inválido. Valores aceitos: new, contacted, quoted, closed, cancelled")
		return
	}

	if err := b.storage.UpdateLeadStatus(ctx, leadID, newStatus); err != nil {
		if errors.Is(err, storage.ErrLeadNotFound) {
			b.sendError(chatID, fmt.Sprintf("Pedido #%d não encontrado", leadID))
			return
		}
		b.logger.Error("Failed to update lead status",
			zap.Int64("lead_id", leadID),
			zap.String("status", newStatus),
			zap.Error(err))
		b.sendError(chatID, "Erro ao atualizar o status")
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"✅ Status do pedido #%d alterado para: %s",
		leadID, storage.LeadStatusLabel(newStatus))))

	lead, err := b.storage.GetLeadByID(ctx, leadID)
	if err != nil {
		b.logger.Warn("Failed to load lead after status change",
			zap.Int64("lead_id", leadID),
			zap.Error(err))
		return
	}
	b.notifyRequester(*lead)
}

func (b *Bot) handleLeadStats(ctx context.Context, chatID int64) {
	stats, err := b.storage.GetLeadStatistics(ctx)
	if err != nil {
		b.logger.Error("Failed to get lead statistics", zap.Error(err))
		b.sendError(chatID, "Erro ao obter estatísticas")
		return
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, formatStats(stats)))
}

func (b *Bot) handleExportAllLeads(ctx context.Context, chatID int64) {
	leads, err := b.storage.ListLeads(ctx, 0)
	if err != nil {
		b.logger.Error("Failed to list leads", zap.Error(err))
		b.sendError(chatID, "Erro ao exportar pedidos")
		return
	}

	name := fmt.Sprintf("pedidos_%s", time.Now().Format("20060102"))
	path, err := storage.WriteLeadsReport(b.cfg.Business.ReportsDir, name, leads)
	if err != nil {
		b.logger.Error("Failed to export leads", zap.Error(err))
		b.sendError(chatID, "Erro ao exportar pedidos")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 %d pedidos exportados", len(leads))

	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "Erro ao enviar o arquivo exportado")
	}
}

func (b *Bot) handleExportSingleLead(ctx context.Context, chatID int64, leadID int64) {
	lead, err := b.storage.GetLeadByID(ctx, leadID)
	if err != nil {
		if !errors.Is(err, storage.ErrLeadNotFound) {
			b.logger.Error("Failed to get lead",
				zap.Int64("lead_id", leadID),
				zap.Error(err))
		}
		b.sendError(chatID, fmt.Sprintf("Pedido #%d não encontrado", leadID))
		return
	}

	path, err := storage.WriteLeadReport(b.cfg.Business.ReportsDir, *lead)
	if err != nil {
		b.logger.Error("Failed to export lead",
			zap.Int64("lead_id", leadID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao exportar o pedido")
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = fmt.Sprintf("📊 Pedido #%d", leadID)

	if _, err := b.bot.Send(doc); err != nil {
		b.logger.Error("Failed to send Excel file", zap.Error(err))
		b.sendError(chatID, "Erro ao enviar o arquivo exportado")
	}
}
