package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

func recommendation(crop string, n, p, k float64, day int) model.Recommendation {
	return model.Recommendation{
		ID:             uuid.New(),
		CropInput:      crop,
		CropLabel:      crop,
		PH:             6.5,
		WeatherSource:  model.WeatherSourceFallback,
		NitrogenKgHa:   n,
		PhosphorusKgHa: p,
		PotassiumKgHa:  k,
		PlanText:       "PLAN DE FERTILIZACIÓN",
		CreatedAt:      time.Date(2026, 5, day, 8, 30, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	report := model.HistoryReport{
		FarmerID:    "farmer-1",
		PeriodStart: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
		Items: []model.Recommendation{
			recommendation("rice", 100, 20, 30, 2),
			recommendation("maize", 50, 10, 10, 3),
			recommendation("rice", 20, 5, 0, 4),
		},
	}

	content, err := NewGenerator().Generate(report)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Resumen", "maize", "rice"}, file.GetSheetList())

	value, err := file.GetCellValue("Resumen", "B1")
	require.NoError(t, err)
	assert.Equal(t, "farmer-1", value)

	value, err = file.GetCellValue("Resumen", "B4")
	require.NoError(t, err)
	assert.Equal(t, "3", value)

	// rice is the second crop row after sorting.
	value, err = file.GetCellValue("Resumen", "C8")
	require.NoError(t, err)
	assert.Equal(t, "120.00", value)

	rows, err := file.GetRows("rice")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "2026-05-02 08:30:00", rows[5][0])
	assert.Equal(t, "2026-05-04 08:30:00", rows[6][0])
}

func TestGenerateEmptyReport(t *testing.T) {
	content, err := NewGenerator().Generate(model.HistoryReport{FarmerID: "farmer-1"})
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, []string{"Resumen"}, file.GetSheetList())
}

func TestBuildSheetName(t *testing.T) {
	used := map[string]struct{}{"Resumen": {}}

	assert.Equal(t, "a-b", buildSheetName("a/b", used))
	assert.Equal(t, "Cultivo", buildSheetName("  ", used))

	long := "kidneybeans-kidneybeans-kidneybeans"
	first := buildSheetName(long, used)
	assert.Len(t, first, maxSheetName)
	used[first] = struct{}{}

	second := buildSheetName(long, used)
	assert.Len(t, second, maxSheetName)
	assert.Equal(t, "-2", second[len(second)-2:])

	accented := strings.Repeat("ñ", 40)
	first = buildSheetName(accented, used)
	assert.True(t, utf8.ValidString(first))
	assert.Equal(t, strings.Repeat("ñ", maxSheetName), first)
	used[first] = struct{}{}

	second = buildSheetName(accented, used)
	assert.True(t, utf8.ValidString(second))
	assert.Equal(t, strings.Repeat("ñ", maxSheetName-2)+"-2", second)

	assert.Equal(t, "sandía", buildSheetName("sandía", used))
}
