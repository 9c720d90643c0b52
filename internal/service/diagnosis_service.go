package service

import (
	"context"
	"fmt"
	"io"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/inference"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/metrics"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/translate"
)

type DiseaseClassifier interface {
	Classify(ctx context.Context, t inference.Tensor) (inference.Scores, error)
}

type DiagnosisService struct {
	classifier DiseaseClassifier
	classes    []string
}

func NewDiagnosisService(classifier DiseaseClassifier) *DiagnosisService {
	return &DiagnosisService{classifier: classifier, classes: inference.DiseaseClasses}
}

// Diagnose classifies a leaf photo (JPEG or PNG).
func (s *DiagnosisService) Diagnose(ctx context.Context, r io.Reader) (*model.Diagnosis, error) {
	img, _, err := inference.DecodeImage(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	scores, err := s.classifier.Classify(ctx, inference.Preprocess(img, inference.InputSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}

	class, confidence, err := scores.Top(s.classes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}
	metrics.Diagnoses.WithLabelValues(class).Inc()

	return &model.Diagnosis{
		Class:      class,
		Label:      translate.Disease(class),
		Confidence: confidence,
	}, nil
}
