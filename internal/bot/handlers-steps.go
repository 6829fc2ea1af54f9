package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
)

const (
	maxPhotos        = 10
	maxCustomSurface = 100
)

func (b *Bot) loadSession(ctx context.Context, chatID int64) (Session, bool) {
	session, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao carregar seu pedido")
		return Session{}, false
	}
	return session, true
}

// advance stores the session at the given step and sends its prompt.
func (b *Bot) advance(ctx context.Context, chatID int64, session Session, step, prompt string, markup interface{}) {
	session.Step = step
	if err := b.state.Save(ctx, chatID, session); err != nil {
		b.logger.Error("Failed to save session",
			zap.Int64("chat_id", chatID),
			zap.String("step", step),
			zap.Error(err))
		b.sendError(chatID, "Erro ao salvar seu pedido. Tente novamente.")
		return
	}
	b.sendText(chatID, prompt, markup)
}

func (b *Bot) handleName(ctx context.Context, chatID int64, text string) {
	if !budget.IsValidFullName(text) {
		b.sendError(chatID, "Informe seu nome completo (nome e sobrenome, mínimo 5 caracteres)")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.FullName = budget.NormalizeName(text)

	b.advance(ctx, chatID, session, StepEmail,
		fmt.Sprintf("Prazer, %s! Qual é o seu email?", strings.Fields(session.Request.FullName)[0]), nil)
}

func (b *Bot) handleEmail(ctx context.Context, chatID int64, text string) {
	email := strings.ToLower(text)
	if !budget.IsValidEmail(email) {
		b.sendError(chatID, "Email inválido. Exemplo: nome@dominio.com")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.Email = email

	b.advance(ctx, chatID, session, StepPhone,
		"Qual é o seu telefone com DDD? Você também pode tocar no botão para enviar seu contato.",
		contactKeyboard())
}

func (b *Bot) handlePhone(ctx context.Context, chatID int64, text string) {
	phone := budget.NormalizePhoneNumber(text)
	if !budget.IsValidPhoneNumber(phone) {
		b.sendError(chatID, "Telefone inválido. Exemplo: (11) 98765-4321")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.Phone = phone

	b.advance(ctx, chatID, session, StepPostalCode,
		"Qual é o CEP do local do mural? (ex: 01310-100)", removeKeyboard())
}

func (b *Bot) handlePostalCode(ctx context.Context, chatID int64, text string) {
	cep := budget.NormalizePostalCode(text)
	if !budget.IsValidPostalCode(cep) {
		b.sendError(chatID, "CEP inválido. Informe 8 dígitos, por exemplo 01310-100")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.PostalCode = cep
	session.DistanceFactor = estimate.ComputeDistanceFactor(cep)

	addr, err := b.address.Lookup(ctx, cep)
	if err != nil {
		b.logger.Warn("Address lookup failed, asking for manual address",
			zap.Int64("chat_id", chatID),
			zap.String("cep", cep),
			zap.Error(err))
		b.advance(ctx, chatID, session, StepManualAddress,
			"Não conseguimos localizar esse CEP automaticamente.\n"+
				"Informe o endereço no formato: Rua, número, Cidade - UF", nil)
		return
	}

	session.Request.Address = addr.Line()
	session.Request.City = addr.City
	session.Request.State = addr.State

	b.askSurfaceType(ctx, chatID, session,
		fmt.Sprintf("📍 %s\n\n", joinAddress(session.Request)))
}

func (b *Bot) handleManualAddress(ctx context.Context, chatID int64, text string) {
	address, city, state, ok := parseManualAddress(text)
	if !ok {
		b.sendError(chatID, "Formato inválido. Exemplo: Avenida Paulista, 1000, São Paulo - SP")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.Address = address
	session.Request.City = city
	session.Request.State = state

	b.askSurfaceType(ctx, chatID, session, "")
}

func (b *Bot) askSurfaceType(ctx context.Context, chatID int64, session Session, prefix string) {
	b.advance(ctx, chatID, session, StepSurfaceType,
		prefix+"Onde será pintado o mural?", surfaceKeyboard())
}

func (b *Bot) handleSurfaceType(ctx context.Context, chatID int64, text string) {
	st, ok := budget.SurfaceTypeByLabel(text)
	if !ok {
		if st = budget.SurfaceType(strings.ToLower(text)); !st.Valid() {
			b.sendError(chatID, "Escolha um dos tipos de superfície no teclado")
			return
		}
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.SurfaceType = st

	if st == budget.SurfaceOther {
		b.advance(ctx, chatID, session, StepCustomSurface,
			"Descreva o tipo de superfície:", removeKeyboard())
		return
	}

	session.Request.CustomSurfaceType = ""
	b.askDimensions(ctx, chatID, session)
}

func (b *Bot) handleCustomSurface(ctx context.Context, chatID int64, text string) {
	if text == "" || utf8.RuneCountInString(text) > maxCustomSurface {
		b.sendError(chatID, fmt.Sprintf("Descreva a superfície em até %d caracteres", maxCustomSurface))
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	session.Request.CustomSurfaceType = text

	b.askDimensions(ctx, chatID, session)
}

func (b *Bot) askDimensions(ctx context.Context, chatID int64, session Session) {
	prompt := formatEstimate(session.Estimate(), session.Precision()) +
		"\n\nQuais são as dimensões da superfície? Informe largura e altura em metros (ex: 4 x 3) ou toque em Pular."
	b.advance(ctx, chatID, session, StepDimensions, prompt, skipKeyboard())
}

func (b *Bot) handleDimensions(ctx context.Context, chatID int64, text string) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	if isSkip(text) {
		session.Request.SurfaceWidth = nil
		session.Request.SurfaceHeight = nil
	} else {
		width, height, err := parseDimensions(text)
		if err != nil {
			if errors.Is(err, errOutOfRange) {
				b.sendError(chatID, fmt.Sprintf("As dimensões devem ser maiores que zero e até %.0f m", maxDimension))
			} else {
				b.sendError(chatID, "Formato inválido. Exemplo: 4 x 3 (largura x altura em metros)")
			}
			return
		}
		session.Request.SurfaceWidth = &width
		session.Request.SurfaceHeight = &height
	}

	session.Step = StepArtSeries
	if err := b.state.Save(ctx, chatID, session); err != nil {
		b.logger.Error("Failed to save session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, "Erro ao salvar seu pedido. Tente novamente.")
		return
	}

	b.sendText(chatID, formatEstimate(session.Estimate(), session.Precision()), removeKeyboard())
	b.sendText(chatID, "Escolha uma série de arte GM como referência (opcional):", artSeriesKeyboard())
}

func (b *Bot) handleArtSeriesText(ctx context.Context, chatID int64, text string) {
	if isSkip(text) {
		b.selectArtSeries(ctx, chatID, "")
		return
	}

	id := budget.ArtSeriesID(strings.ToUpper(text))
	if !id.Valid() {
		b.sendError(chatID, "Escolha uma série nos botões acima ou toque em Pular")
		return
	}
	b.selectArtSeries(ctx, chatID, id)
}

func (b *Bot) handleArtSeriesCallback(ctx context.Context, chatID int64, value string) {
	if value == seriesSkip {
		b.selectArtSeries(ctx, chatID, "")
		return
	}

	id := budget.ArtSeriesID(value)
	if !id.Valid() {
		b.logger.Warn("Unknown art series in callback",
			zap.Int64("chat_id", chatID),
			zap.String("series", value))
		return
	}
	b.selectArtSeries(ctx, chatID, id)
}

func (b *Bot) selectArtSeries(ctx context.Context, chatID int64, id budget.ArtSeriesID) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}
	if session.Step != StepArtSeries {
		// Stale button from an earlier message.
		return
	}
	session.Request.ArtSeries = id

	prefix := ""
	if s, ok := budget.LookupArtSeries(id); ok {
		prefix = fmt.Sprintf("Série escolhida: %s - %s\n\n", s.ID, s.Title)
	}

	b.advance(ctx, chatID, session, StepComplexity,
		prefix+"Qual o nível de detalhe desejado? De 1 (muito simples) a 10 (extremamente complexo).",
		complexityKeyboard())
}

func (b *Bot) handleComplexity(ctx context.Context, chatID int64, text string) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	if isSkip(text) {
		session.Request.Complexity = nil
	} else {
		level, err := parseComplexity(text)
		if err != nil {
			b.sendError(chatID, "Escolha um número de 1 a 10 ou toque em Pular")
			return
		}
		session.Request.Complexity = &level
	}

	b.advance(ctx, chatID, session, StepDeadline,
		"Tem um prazo desejado? Informe a data no formato DD/MM/AAAA ou toque em Pular.",
		skipKeyboard())
}

func (b *Bot) handleDeadline(ctx context.Context, chatID int64, text string) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	if isSkip(text) {
		session.Request.DesiredDeadline = nil
	} else {
		deadline, err := parseDeadline(text, time.Now())
		if err != nil {
			if errors.Is(err, errOutOfRange) {
				b.sendError(chatID, "Escolha uma data a partir de hoje")
			} else {
				b.sendError(chatID, "Data inválida. Use o formato DD/MM/AAAA")
			}
			return
		}
		session.Request.DesiredDeadline = &deadline
	}

	b.advance(ctx, chatID, session, StepPhotos,
		"Envie fotos do local, se tiver (até 10). Quando terminar, toque em Pronto.",
		photosKeyboard())
}

func (b *Bot) handlePhoto(ctx context.Context, chatID int64, fileID string) {
	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	if len(session.Request.Photos) >= maxPhotos {
		b.sendError(chatID, fmt.Sprintf("Limite de %d fotos atingido. Toque em Pronto para continuar.", maxPhotos))
		return
	}
	session.Request.Photos = append(session.Request.Photos, fileID)

	b.advance(ctx, chatID, session, StepPhotos,
		fmt.Sprintf("📷 Foto recebida (%d). Envie mais ou toque em Pronto.", len(session.Request.Photos)),
		nil)
}

func (b *Bot) handlePhotosText(ctx context.Context, chatID int64, text string) {
	if !isSkip(text) && !strings.EqualFold(text, buttonDone) {
		b.sendError(chatID, "Envie uma foto ou toque em Pronto")
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	b.advance(ctx, chatID, session, StepNotes,
		"Alguma observação sobre o projeto? Escreva aqui ou toque em Pular.",
		skipKeyboard())
}

func (b *Bot) handleNotes(ctx context.Context, chatID int64, text string) {
	if utf8.RuneCountInString(text) > budget.MaxNotesLen {
		b.sendError(chatID, fmt.Sprintf("As observações devem ter no máximo %d caracteres", budget.MaxNotesLen))
		return
	}

	session, ok := b.loadSession(ctx, chatID)
	if !ok {
		return
	}

	if isSkip(text) {
		session.Request.Notes = ""
	} else {
		session.Request.Notes = text
	}

	b.advance(ctx, chatID, session, StepConfirm,
		formatSummary(session)+"\n\nConfirma o envio do pedido?",
		confirmKeyboard())
}

func (b *Bot) handleConfirm(ctx context.Context, chatID int64, text string) {
	switch text {
	case buttonConfirm:
		b.submitLead(ctx, chatID)
	case buttonCancel:
		b.handleCancel(ctx, chatID)
	default:
		b.sendError(chatID, "Toque em \""+buttonConfirm+"\" para enviar ou \""+buttonCancel+"\" para desistir")
	}
}

func joinAddress(req budget.ProjectRequest) string {
	parts := make([]string, 0, 2)
	if req.Address != "" {
		parts = append(parts, req.Address)
	}
	if req.City != "" {
		parts = append(parts, fmt.Sprintf("%s - %s", req.City, req.State))
	}
	return strings.Join(parts, ", ")
}
