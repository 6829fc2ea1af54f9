package budget

import (
	"fmt"
	"math"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brlPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders a value as Brazilian reais, e.g. "R$ 1.200,00".
func FormatBRL(v float64) string {
	return brlPrinter.Sprintf("R$ %.2f", v)
}

// FormatRangeBRL renders an estimate range rounded to whole reais.
func FormatRangeBRL(minValue, maxValue float64) string {
	return brlPrinter.Sprintf("R$ %d - R$ %d", int64(math.Round(minValue)), int64(math.Round(maxValue)))
}

func FormatMeters(v float64) string {
	return brlPrinter.Sprintf("%.2f", v)
}

// ShareMessage is the greeting sent to the business over WhatsApp.
func ShareMessage(r ProjectRequest) string {
	var b strings.Builder
	b.WriteString("Olá! Gostaria de solicitar um orçamento para mural artístico.\n\n")
	fmt.Fprintf(&b, "Nome: %s\n", r.FullName)
	fmt.Fprintf(&b, "Local: %s, %s\n", r.City, r.State)
	fmt.Fprintf(&b, "Tipo: %s\n", r.SurfaceType.Label())
	if r.HasDimensions() {
		fmt.Fprintf(&b, "Tamanho: %gx%gm\n", *r.SurfaceWidth, *r.SurfaceHeight)
	}
	b.WriteString("\nAguardo contato!")
	return b.String()
}

// ShareURL builds a wa.me link that opens a chat with businessNumber prefilled
// with the request greeting.
func ShareURL(businessNumber string, r ProjectRequest) string {
	q := url.Values{}
	q.Set("text", ShareMessage(r))
	return fmt.Sprintf("https://wa.me/%s?%s", digitsOnly(businessNumber), q.Encode())
}

// Summary renders every filled field of the request as plain text lines.
func Summary(r ProjectRequest) string {
	var b strings.Builder

	b.WriteString("Dados Pessoais\n")
	fmt.Fprintf(&b, "Nome: %s\n", r.FullName)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	fmt.Fprintf(&b, "Telefone: %s\n", r.Phone)
	fmt.Fprintf(&b, "CEP: %s\n", r.PostalCode)
	if r.Address != "" {
		fmt.Fprintf(&b, "Endereço: %s, %s - %s\n", r.Address, r.City, r.State)
	}

	b.WriteString("\nDetalhes do Projeto\n")
	fmt.Fprintf(&b, "Tipo de Superfície: %s", r.SurfaceType.Label())
	if r.CustomSurfaceType != "" {
		fmt.Fprintf(&b, " (%s)", r.CustomSurfaceType)
	}
	b.WriteString("\n")
	if area, ok := r.Area(); ok {
		fmt.Fprintf(&b, "Dimensões: %s m x %s m (%s m²)\n",
			FormatMeters(*r.SurfaceWidth), FormatMeters(*r.SurfaceHeight), FormatMeters(area))
	}
	if s, ok := LookupArtSeries(r.ArtSeries); ok {
		fmt.Fprintf(&b, "Série de Arte: %s - %s\n", s.ID, s.Title)
	}
	if len(r.PreferredStyles) > 0 {
		labels := make([]string, 0, len(r.PreferredStyles))
		for _, s := range r.PreferredStyles {
			labels = append(labels, s.Label())
		}
		fmt.Fprintf(&b, "Estilos: %s\n", strings.Join(labels, ", "))
	}
	if r.HasComplexity() {
		fmt.Fprintf(&b, "Complexidade: %d - %s\n", *r.Complexity, ComplexityLabel(*r.Complexity))
	}
	if r.DesiredDeadline != nil {
		fmt.Fprintf(&b, "Prazo Desejado: %s\n", r.DesiredDeadline.Format("02/01/2006"))
	}
	if len(r.Photos) > 0 {
		fmt.Fprintf(&b, "Fotos: %d\n", len(r.Photos))
	}
	if r.Notes != "" {
		fmt.Fprintf(&b, "Observações: %s\n", r.Notes)
	}

	return b.String()
}
