package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"mural-budget/internal/budget"
	"mural-budget/internal/estimate"
	"mural-budget/internal/storage"
)

const (
	deadlineLayout = "02/01/2006"
	maxDimension   = 100.0
)

var (
	errBadFormat  = errors.New("bad format")
	errOutOfRange = errors.New("out of range")
)

// parseDimensions accepts "4 3", "4x3", "4,5 x 3" and similar, in metres.
func parseDimensions(text string) (width, height float64, err error) {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.NewReplacer("×", " ", "x", " ", "*", " ", "m", " ").Replace(s)

	parts := strings.Fields(s)
	if len(parts) != 2 {
		return 0, 0, errBadFormat
	}

	width, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, errBadFormat
	}
	height, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, errBadFormat
	}

	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return 0, 0, errOutOfRange
	}
	return width, height, nil
}

func parseComplexity(text string) (int, error) {
	level, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, errBadFormat
	}
	if level < budget.MinComplexity || level > budget.MaxComplexity {
		return 0, errOutOfRange
	}
	return level, nil
}

// parseDeadline reads DD/MM/AAAA (dots also accepted) and rejects past dates.
func parseDeadline(text string, now time.Time) (time.Time, error) {
	s := strings.ReplaceAll(strings.TrimSpace(text), ".", "/")
	date, err := time.ParseInLocation(deadlineLayout, s, now.Location())
	if err != nil {
		return time.Time{}, errBadFormat
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return time.Time{}, errOutOfRange
	}
	return date, nil
}

// parseManualAddress splits "Rua X, 123, Cidade - UF" into its parts.
func parseManualAddress(text string) (address, city, state string, ok bool) {
	idx := strings.LastIndex(text, "-")
	if idx < 0 {
		return "", "", "", false
	}

	state = strings.ToUpper(strings.TrimSpace(text[idx+1:]))
	if len(state) != 2 || !isLetters(state) {
		return "", "", "", false
	}

	rest := strings.TrimSpace(text[:idx])
	comma := strings.LastIndex(rest, ",")
	if comma < 0 {
		return "", "", "", false
	}

	address = strings.TrimSpace(rest[:comma])
	city = strings.TrimSpace(rest[comma+1:])
	if address == "" || city == "" {
		return "", "", "", false
	}
	return address, city, state, true
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isSkip(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), buttonSkip)
}

func formatEstimate(est *estimate.Result, precision estimate.Precision) string {
	if est == nil {
		return fmt.Sprintf("Selecione o tipo de superfície para ver a estimativa.\nPrecisão atual: %d%%", precision.Total)
	}

	var b strings.Builder
	b.WriteString("💰 Estimativa\n")
	fmt.Fprintf(&b, "%s\n", budget.FormatRangeBRL(est.MinValue, est.MaxValue))
	fmt.Fprintf(&b, "Valor de referência: %s\n", budget.FormatBRL(est.FinalValue))
	if est.Area == nil {
		fmt.Fprintf(&b, "Área padrão de %s m² (informe as dimensões para refinar)\n", budget.FormatMeters(estimate.DefaultArea))
	}
	fmt.Fprintf(&b, "Precisão: %d%%", precision.Total)
	return b.String()
}

func formatSummary(s Session) string {
	return fmt.Sprintf("📋 Resumo do pedido\n\n%s\n%s",
		budget.Summary(s.Request),
		formatEstimate(s.Estimate(), s.Precision()))
}

func formatLeadNotification(lead storage.Lead) string {
	req := lead.Request()

	var b strings.Builder
	fmt.Fprintf(&b, "🎨 Novo pedido #%d (%s)\n\n", lead.ID, lead.Channel)
	b.WriteString(budget.Summary(req))
	b.WriteString("──────────────────\n")
	fmt.Fprintf(&b, "Estimativa: %s\n", budget.FormatRangeBRL(lead.EstimateMin, lead.EstimateMax))
	fmt.Fprintf(&b, "Valor de referência: %s\n", budget.FormatBRL(lead.EstimateFinal))
	fmt.Fprintf(&b, "Fator distância: %.2f\n", lead.DistanceFactor)
	fmt.Fprintf(&b, "Precisão: %d%%\n", lead.Precision)
	fmt.Fprintf(&b, "Status: %s\n", storage.LeadStatusLabel(lead.Status))
	fmt.Fprintf(&b, "Data: %s", lead.CreatedAt.Format("02/01/2006 15:04"))
	return b.String()
}

func formatStats(stats *storage.LeadStatistics) string {
	return fmt.Sprintf(
		"📊 Estatísticas de pedidos\n\n"+
			"📌 Total: %d\n"+
			"💰 Soma das estimativas: %s\n"+
			"📅 Hoje: %d\n"+
			"📅 Últimos 7 dias: %d\n"+
			"📅 Últimos 30 dias: %d\n"+
			"🎯 Precisão média: %.0f%%\n\n"+
			"Por status:\n"+
			"🆕 %s: %d\n"+
			"📞 %s: %d\n"+
			"🧾 %s: %d\n"+
			"✅ %s: %d\n"+
			"❌ %s: %d",
		stats.TotalLeads,
		budget.FormatBRL(stats.TotalEstimated),
		stats.TodayLeads,
		stats.WeekLeads,
		stats.MonthLeads,
		stats.AveragePrecision,
		storage.LeadStatusLabel(storage.LeadStatusNew), stats.StatusCounts[storage.LeadStatusNew],
		storage.LeadStatusLabel(storage.LeadStatusContacted), stats.StatusCounts[storage.LeadStatusContacted],
		storage.LeadStatusLabel(storage.LeadStatusQuoted), stats.StatusCounts[storage.LeadStatusQuoted],
		storage.LeadStatusLabel(storage.LeadStatusClosed), stats.StatusCounts[storage.LeadStatusClosed],
		storage.LeadStatusLabel(storage.LeadStatusCancelled), stats.StatusCounts[storage.LeadStatusCancelled],
	)
}
