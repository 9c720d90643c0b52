package inference

import (
	"context"
	"fmt"
)

// DiseaseClasses is the classifier's output order. It must match the
// directory order the model was trained with.
var DiseaseClasses = []string{
	"Papa_Sana",
	"Papa_Tizon",
	"Pimiento_Bacteria",
	"Pimiento_Sano",
	"Tomate_Bacteria",
	"Tomate_Sano",
}

// Scores are per-class probabilities in DiseaseClasses order.
type Scores []float64

// Top returns the class with the highest score. Ties go to the lower index.
func (s Scores) Top(classes []string) (string, float64, error) {
	if len(s) == 0 || len(s) != len(classes) {
		return "", 0, fmt.Errorf("%w: %d scores for %d classes", ErrBadResponse, len(s), len(classes))
	}
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i] > s[best] {
			best = i
		}
	}
	return classes[best], s[best], nil
}

type DiseaseClassifier struct {
	client *Client
	model  string
}

func NewDiseaseClassifier(client *Client, model string) *DiseaseClassifier {
	return &DiseaseClassifier{client: client, model: model}
}

func (c *DiseaseClassifier) Classify(ctx context.Context, t Tensor) (Scores, error) {
	rows, err := c.client.Predict(ctx, c.model, []Tensor{t})
	if err != nil {
		return nil, err
	}
	return Scores(rows[0]), nil
}
