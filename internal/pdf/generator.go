package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

// Generator renders a stored recommendation as a one page A4 document. It
// uses the core Helvetica font with a cp1252 translator, which covers the
// Spanish accents used in the plan text.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(rec model.Recommendation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, tr("Recomendación de fertilización"), "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Registro %s del %s", rec.ID, formatDate(rec.CreatedAt))), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Datos de la parcela", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Cultivo: %s (%s)", safeValue(rec.CropInput), rec.CropLabel),
		fmt.Sprintf("Ubicación: %s, %s", formatAmount(rec.Latitude, 5), formatAmount(rec.Longitude, 5)),
		fmt.Sprintf("pH del suelo: %s", formatAmount(rec.PH, 2)),
		fmt.Sprintf("Clima (%s): %s °C, humedad %s %%, lluvia %s mm",
			weatherSourceLabel(rec.WeatherSource),
			formatAmount(rec.Temperature, 1),
			formatAmount(rec.Humidity, 0),
			formatAmount(rec.Rainfall, 1),
		),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Requerimiento de nutrientes", "", 1, "L", false, 0, "")

	colWidths := []float64{60, 40}
	drawTableRow(pdf, g.fontName, []string{"Nutriente", "kg/ha"}, colWidths, true)
	drawTableRow(pdf, g.fontName, []string{tr("Nitrógeno (N)"), formatAmount(rec.NitrogenKgHa, 2)}, colWidths, false)
	drawTableRow(pdf, g.fontName, []string{tr("Fósforo (P)"), formatAmount(rec.PhosphorusKgHa, 2)}, colWidths, false)
	drawTableRow(pdf, g.fontName, []string{"Potasio (K)", formatAmount(rec.PotassiumKgHa, 2)}, colWidths, false)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Plan", "", 1, "L", false, 0, "")
	pdf.SetFont("Courier", "", 9)
	for _, line := range strings.Split(rec.PlanText, "\n") {
		pdf.MultiCell(0, 4.5, tr(line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func weatherSourceLabel(source model.WeatherSource) string {
	if source == model.WeatherSourceOpenWeatherMap {
		return "OpenWeatherMap"
	}
	return "valores por defecto"
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func formatAmount(value float64, precision int) string {
	format := fmt.Sprintf("%%.%df", precision)
	return fmt.Sprintf(format, value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("02.01.2006")
}
