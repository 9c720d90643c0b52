package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

const maxSheetName = 31

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes a summary sheet with per crop totals followed by one
// detail sheet per crop.
func (g *Generator) Generate(report model.HistoryReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Resumen"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	groups := groupByCrop(report.Items)
	if err := g.writeSummary(file, summarySheet, report, groups); err != nil {
		return nil, err
	}

	usedNames := map[string]struct{}{summarySheet: {}}
	for _, group := range groups {
		sheetName := buildSheetName(group.crop, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheetName, report, group); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type cropGroup struct {
	crop  string
	items []model.Recommendation
}

func (g cropGroup) totals() (n, p, k float64) {
	for _, item := range g.items {
		n += item.NitrogenKgHa
		p += item.PhosphorusKgHa
		k += item.PotassiumKgHa
	}
	return n, p, k
}

func groupByCrop(items []model.Recommendation) []cropGroup {
	index := make(map[string]int)
	var groups []cropGroup
	for _, item := range items {
		i, ok := index[item.CropLabel]
		if !ok {
			i = len(groups)
			index[item.CropLabel] = i
			groups = append(groups, cropGroup{crop: item.CropLabel})
		}
		groups[i].items = append(groups[i].items, item)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].crop < groups[b].crop
	})
	return groups
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.HistoryReport, groups []cropGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Agricultor")
	set("B1", report.FarmerID)
	set("A2", "Inicio del periodo")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Fin del periodo")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Recomendaciones")
	set("B4", len(report.Items))

	tableRow := 6
	headers := []string{"Cultivo", "Recomendaciones", "N total, kg/ha", "P total, kg/ha", "K total, kg/ha"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, group := range groups {
		row := tableRow + 1 + i
		n, p, k := group.totals()
		set(fmt.Sprintf("A%d", row), group.crop)
		set(fmt.Sprintf("B%d", row), len(group.items))
		set(fmt.Sprintf("C%d", row), formatAmount(n))
		set(fmt.Sprintf("D%d", row), formatAmount(p))
		set(fmt.Sprintf("E%d", row), formatAmount(k))
	}

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "E", 18)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, report model.HistoryReport, group cropGroup) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Cultivo")
	set("B1", group.crop)
	set("A2", "Inicio del periodo")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Fin del periodo")
	set("B3", formatDate(report.PeriodEnd))

	tableRow := 5
	headers := []string{
		"Fecha",
		"Cultivo ingresado",
		"pH",
		"Latitud",
		"Longitud",
		"Temperatura, °C",
		"Humedad, %",
		"Lluvia, mm",
		"Fuente del clima",
		"N, kg/ha",
		"P, kg/ha",
		"K, kg/ha",
		"Plan",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, item := range group.items {
		row := tableRow + 1 + i
		values := []interface{}{
			formatDateTime(item.CreatedAt),
			item.CropInput,
			item.PH,
			item.Latitude,
			item.Longitude,
			item.Temperature,
			item.Humidity,
			item.Rainfall,
			string(item.WeatherSource),
			formatAmount(item.NitrogenKgHa),
			formatAmount(item.PhosphorusKgHa),
			formatAmount(item.PotassiumKgHa),
			item.PlanText,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "B", 18)
	_ = file.SetColWidth(sheet, "C", "L", 14)
	_ = file.SetColWidth(sheet, "M", "M", 80)
	return nil
}

// buildSheetName keeps names within excel's 31 character limit, counted in
// runes.
func buildSheetName(crop string, used map[string]struct{}) string {
	base := []rune(sanitizeSheetName(crop))
	if len(base) > maxSheetName {
		base = base[:maxSheetName]
	}

	nameCandidate := string(base)
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > maxSheetName {
			trimmed = trimmed[:maxSheetName-len(suffix)]
		}
		nameCandidate = string(trimmed) + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Cultivo"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "Cultivo"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatAmount(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
