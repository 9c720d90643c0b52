package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/fertilizer"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

func TestGenerate(t *testing.T) {
	plan, err := fertilizer.Allocate("coffee", fertilizer.Requirement{N: 10, P: 40, K: 40})
	require.NoError(t, err)

	content, err := NewGenerator().Generate(model.Recommendation{
		ID:             uuid.New(),
		CropInput:      "café",
		CropLabel:      "coffee",
		PH:             5.8,
		Latitude:       -0.18,
		Longitude:      -78.47,
		Temperature:    19.5,
		Humidity:       80,
		Rainfall:       1.2,
		WeatherSource:  model.WeatherSourceOpenWeatherMap,
		NitrogenKgHa:   10,
		PhosphorusKgHa: 40,
		PotassiumKgHa:  40,
		PlanText:       plan.Text(),
		CreatedAt:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "—", safeValue("  "))
	assert.Equal(t, "12.346", formatAmount(12.3456, 3))
	assert.Equal(t, "—", formatDate(time.Time{}))
	assert.Equal(t, "valores por defecto", weatherSourceLabel(model.WeatherSourceFallback))
}
