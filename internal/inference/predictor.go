package inference

import (
	"context"
	"fmt"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/fertilizer"
)

// Features is one input row of the nutrient model. Crop is the canonical
// English label the model was trained on.
type Features struct {
	Crop        string
	Temperature float64
	Humidity    float64
	PH          float64
	Rainfall    float64
}

type nutrientInstance struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
	Label       string  `json:"label"`
}

// NutrientPredictor asks the regression model for the N, P and K a crop
// needs under the given conditions, in kg/ha.
type NutrientPredictor struct {
	client *Client
	model  string
}

func NewNutrientPredictor(client *Client, model string) *NutrientPredictor {
	return &NutrientPredictor{client: client, model: model}
}

func (p *NutrientPredictor) Predict(ctx context.Context, f Features) (fertilizer.Requirement, error) {
	rows, err := p.client.Predict(ctx, p.model, []nutrientInstance{{
		Temperature: f.Temperature,
		Humidity:    f.Humidity,
		PH:          f.PH,
		Rainfall:    f.Rainfall,
		Label:       f.Crop,
	}})
	if err != nil {
		return fertilizer.Requirement{}, err
	}

	row := rows[0]
	if len(row) < 3 {
		return fertilizer.Requirement{}, fmt.Errorf("%w: expected 3 outputs, got %d", ErrBadResponse, len(row))
	}
	return fertilizer.Requirement{N: row[0], P: row[1], K: row[2]}, nil
}
