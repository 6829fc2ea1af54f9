package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mural-budget/internal/budget"
)

const (
	leadSheet  = "Orçamento"
	leadsSheet = "Leads"
)

var leadsHeaders = []string{
	"ID", "Código", "Canal", "Nome", "Email", "Telefone", "CEP", "Cidade", "UF",
	"Superfície", "Largura (m)", "Altura (m)", "Série", "Complexidade", "Prazo",
	"Fotos", "Fator Distância", "Mínimo", "Estimado", "Máximo", "Precisão (%)",
	"Status", "Criado em",
}

// BuildLeadWorkbook lays a single lead out as label/value rows.
func BuildLeadWorkbook(lead Lead) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), leadSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	req := lead.Request()

	rows := [][2]interface{}{
		{"Lead", lead.ID},
		{"Código", lead.PublicID.String()},
		{"Canal", lead.Channel},
		{"Criado em", lead.CreatedAt.Format("2006-01-02 15:04")},
		{"Status", LeadStatusLabel(lead.Status)},
		{"Nome", lead.FullName},
		{"Email", lead.Email},
		{"Telefone", lead.Phone},
		{"CEP", lead.PostalCode},
		{"Endereço", joinNonEmpty(", ", lead.Address, lead.City, lead.State)},
		{"Superfície", surfaceDescription(req)},
		{"Dimensões", dimensionsDescription(req)},
		{"Série de Arte", artSeriesDescription(req.ArtSeries)},
		{"Complexidade", complexityDescription(req)},
		{"Prazo Desejado", deadlineDescription(req)},
		{"Fotos", lead.PhotoCount()},
		{"Observações", lead.Notes},
		{"Fator Distância", lead.DistanceFactor},
		{"Valor Mínimo", lead.EstimateMin},
		{"Valor Estimado", lead.EstimateFinal},
		{"Valor Máximo", lead.EstimateMax},
		{"Precisão (%)", lead.Precision},
	}

	for i, row := range rows {
		if err := f.SetCellValue(leadSheet, fmt.Sprintf("A%d", i+1), row[0]); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write label: %w", err)
		}
		if err := f.SetCellValue(leadSheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write value: %w", err)
		}
	}

	// Formatting
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		_ = f.SetCellStyle(leadSheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err == nil {
		first := len(rows) - 3
		_ = f.SetCellStyle(leadSheet, fmt.Sprintf("B%d", first), fmt.Sprintf("B%d", first+2), money)
	}
	_ = f.SetColWidth(leadSheet, "A", "A", 18)
	_ = f.SetColWidth(leadSheet, "B", "B", 48)

	return f, nil
}

// BuildLeadsWorkbook writes one row per lead under a header row.
func BuildLeadsWorkbook(leads []Lead) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), leadsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	for col, header := range leadsHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(leadsSheet, cell, header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, lead := range leads {
		req := lead.Request()
		data := []interface{}{
			lead.ID,
			lead.PublicID.String(),
			lead.Channel,
			lead.FullName,
			lead.Email,
			lead.Phone,
			lead.PostalCode,
			lead.City,
			lead.State,
			surfaceDescription(req),
			optionalFloat(lead.SurfaceWidth),
			optionalFloat(lead.SurfaceHeight),
			lead.ArtSeries,
			optionalInt(lead.Complexity),
			deadlineDescription(req),
			lead.PhotoCount(),
			lead.DistanceFactor,
			lead.EstimateMin,
			lead.EstimateFinal,
			lead.EstimateMax,
			lead.Precision,
			LeadStatusLabel(lead.Status),
			lead.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(leadsSheet, cell, value); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("failed to write lead %d: %w", lead.ID, err)
			}
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(leadsHeaders), 1)
		_ = f.SetCellStyle(leadsSheet, "A1", last, header)
	}
	_ = f.SetPanes(leadsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return f, nil
}

// WorkbookBytes serializes and closes the workbook.
func WorkbookBytes(f *excelize.File) ([]byte, error) {
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteLeadReport saves the lead workbook under dir and returns its path.
func WriteLeadReport(dir string, lead Lead) (string, error) {
	f, err := BuildLeadWorkbook(lead)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(dir, LeadReportName(lead))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

// WriteLeadsReport saves every given lead into one workbook under dir.
func WriteLeadsReport(dir, name string, leads []Lead) (string, error) {
	f, err := BuildLeadsWorkbook(leads)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

func LeadReportName(lead Lead) string {
	return fmt.Sprintf("orcamento_%d_%s.xlsx", lead.ID, lead.CreatedAt.Format("20060102_1504"))
}

func surfaceDescription(req budget.ProjectRequest) string {
	if req.SurfaceType == "" {
		return ""
	}
	if req.CustomSurfaceType != "" {
		return fmt.Sprintf("%s (%s)", req.SurfaceType.Label(), req.CustomSurfaceType)
	}
	return req.SurfaceType.Label()
}

func dimensionsDescription(req budget.ProjectRequest) string {
	area, ok := req.Area()
	if !ok {
		return "Não informado"
	}
	return fmt.Sprintf("%s m x %s m (%s m²)",
		budget.FormatMeters(*req.SurfaceWidth), budget.FormatMeters(*req.SurfaceHeight), budget.FormatMeters(area))
}

func artSeriesDescription(id budget.ArtSeriesID) string {
	if s, ok := budget.LookupArtSeries(id); ok {
		return fmt.Sprintf("%s - %s", s.ID, s.Title)
	}
	return string(id)
}

func complexityDescription(req budget.ProjectRequest) string {
	if !req.HasComplexity() {
		return "Não informado"
	}
	return fmt.Sprintf("%d - %s", *req.Complexity, budget.ComplexityLabel(*req.Complexity))
}

func deadlineDescription(req budget.ProjectRequest) string {
	if req.DesiredDeadline == nil {
		return ""
	}
	return req.DesiredDeadline.Format("02/01/2006")
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
