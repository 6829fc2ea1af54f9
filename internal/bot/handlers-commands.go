package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mural-budget/internal/budget"
)

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string, args []string) {
	switch command {
	case "start":
		b.handleStart(ctx, chatID)
	case "help":
		b.handleHelp(ctx, chatID)
	case "cancel":
		b.handleCancel(ctx, chatID)
	case "estimativa":
		b.handleShowEstimate(ctx, chatID)
	case "compartilhar":
		b.handleShare(ctx, chatID)
	case "export", "stats", "status":
		if !b.isAdmin(chatID) {
			b.handleUnknownCommand(ctx, chatID)
			return
		}
		b.handleAdminCommand(ctx, chatID, command, args)
	default:
		b.handleUnknownCommand(ctx, chatID)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	text := `Olá! 👋 Eu sou o assistente de orçamentos de murais artísticos.

Vou fazer algumas perguntas sobre o seu projeto e, ao final, você recebe uma estimativa de valor.
Você pode usar /estimativa a qualquer momento para ver o valor atual e /cancel para recomeçar.

Para começar, qual é o seu nome completo?`

	if err := b.state.Save(ctx, chatID, NewSession()); err != nil {
		b.logger.Error("Failed to start session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Não foi possível iniciar o atendimento. Tente novamente.")
		return
	}

	b.sendText(chatID, text, removeKeyboard())
}

func (b *Bot) handleHelp(ctx context.Context, chatID int64) {
	helpText := `Comandos disponíveis:
/start - Iniciar um novo pedido de orçamento
/estimativa - Ver a estimativa atual
/compartilhar - Enviar o pedido pelo WhatsApp
/cancel - Cancelar o pedido atual
/help - Mostrar esta ajuda`

	if b.isAdmin(chatID) {
		helpText += `

Administração:
/export [id] - Exportar pedidos para Excel
/stats - Estatísticas de pedidos
/status <id> <status> - Alterar status (new, contacted, quoted, closed, cancelled)`
	}

	b.sendMessage(tgbotapi.NewMessage(chatID, helpText))
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64) {
	if err := b.state.Clear(ctx, chatID); err != nil {
		b.logger.Error("Failed to clear session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
	b.sendText(chatID, "Pedido cancelado. Use /start para começar de novo.", removeKeyboard())
}

func (b *Bot) handleShowEstimate(ctx context.Context, chatID int64) {
	session, ok := b.activeSession(ctx, chatID)
	if !ok {
		return
	}
	b.sendMessage(tgbotapi.NewMessage(chatID, formatEstimate(session.Estimate(), session.Precision())))
}

func (b *Bot) handleShare(ctx context.Context, chatID int64) {
	session, ok := b.activeSession(ctx, chatID)
	if !ok {
		return
	}

	url := budget.ShareURL(b.cfg.Business.WhatsAppNumber, session.Request)
	b.sendText(chatID, "Envie seu pedido diretamente pelo WhatsApp:", shareKeyboard(url))
}

// activeSession loads the chat session and tells the user when there is none.
func (b *Bot) activeSession(ctx context.Context, chatID int64) (Session, bool) {
	session, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao carregar seu pedido")
		return Session{}, false
	}
	if session.Step == "" {
		b.sendText(chatID, "Nenhum pedido em andamento. Use /start para começar.", nil)
		return Session{}, false
	}
	return session, true
}

func (b *Bot) handleDefault(ctx context.Context, chatID int64) {
	b.sendError(chatID, "Não entendi. Use /start para iniciar um pedido de orçamento.")
}

func (b *Bot) handleUnknownCommand(ctx context.Context, chatID int64) {
	b.sendError(chatID, "Comando desconhecido. Use /help para ver os comandos disponíveis.")
}
