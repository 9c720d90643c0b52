package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/fertilizer"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/inference"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/metrics"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/translate"
)

const defaultHistoryLimit = 50

type WeatherProvider interface {
	Current(ctx context.Context, lat, lon float64) model.Weather
}

type NutrientPredictor interface {
	Predict(ctx context.Context, f inference.Features) (fertilizer.Requirement, error)
}

type HistoryStore interface {
	Create(ctx context.Context, rec model.Recommendation) (*model.Recommendation, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Recommendation, error)
	ListByFarmer(ctx context.Context, farmerID string, limit int) ([]model.Recommendation, error)
	ListByFarmerInPeriod(ctx context.Context, farmerID string, from, to time.Time) ([]model.Recommendation, error)
}

type PDFGenerator interface {
	Generate(rec model.Recommendation) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(report model.HistoryReport) ([]byte, error)
}

type RecommendationService struct {
	weather   WeatherProvider
	predictor NutrientPredictor
	history   HistoryStore
	pdf       PDFGenerator
	excel     ExcelGenerator
	log       zerolog.Logger
}

type RecommendInput struct {
	Crop      string
	PH        float64
	Latitude  float64
	Longitude float64
	Principal model.Principal
}

type RecommendResult struct {
	ID          *uuid.UUID
	CropLabel   string
	Requirement fertilizer.Requirement
	Weather     model.Weather
	Plan        fertilizer.Plan
}

type FileResult struct {
	FileName string
	Content  []byte
}

// NewRecommendationService wires the recommendation flow. history, pdf and
// excel may be nil when history storage is disabled.
func NewRecommendationService(
	weather WeatherProvider,
	predictor NutrientPredictor,
	history HistoryStore,
	pdf PDFGenerator,
	excel ExcelGenerator,
	log zerolog.Logger,
) *RecommendationService {
	return &RecommendationService{
		weather:   weather,
		predictor: predictor,
		history:   history,
		pdf:       pdf,
		excel:     excel,
		log:       log,
	}
}

// HistoryEnabled reports whether recommendations are stored and can be
// listed or exported.
func (s *RecommendationService) HistoryEnabled() bool {
	return s.history != nil
}

func (s *RecommendationService) Recommend(ctx context.Context, input RecommendInput) (*RecommendResult, error) {
	if err := validateRecommendInput(input); err != nil {
		return nil, err
	}

	label := translate.Crop(input.Crop)
	conditions := s.weather.Current(ctx, input.Latitude, input.Longitude)

	req, err := s.predictor.Predict(ctx, inference.Features{
		Crop:        label,
		Temperature: conditions.Temperature,
		Humidity:    conditions.Humidity,
		PH:          input.PH,
		Rainfall:    conditions.Rainfall,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}

	plan, err := fertilizer.Allocate(label, req)
	if err != nil {
		return nil, fmt.Errorf("%w: predictor returned %v", ErrPredictionUnavailable, err)
	}

	recordPlanMetrics(label, plan)

	result := &RecommendResult{
		CropLabel:   label,
		Requirement: req.Rounded(),
		Weather:     conditions,
		Plan:        plan,
	}

	if s.history != nil {
		rec := model.Recommendation{
			CropInput:      input.Crop,
			CropLabel:      label,
			PH:             input.PH,
			Latitude:       input.Latitude,
			Longitude:      input.Longitude,
			Temperature:    conditions.Temperature,
			Humidity:       conditions.Humidity,
			Rainfall:       conditions.Rainfall,
			WeatherSource:  conditions.Source,
			NitrogenKgHa:   req.N,
			PhosphorusKgHa: req.P,
			PotassiumKgHa:  req.K,
			PlanText:       plan.Text(),
		}
		if !input.Principal.IsAnonymous() {
			farmerID := input.Principal.FarmerID
			rec.FarmerID = &farmerID
		}

		saved, err := s.history.Create(ctx, rec)
		if err != nil {
			s.log.Error().Err(err).Str("crop", label).Msg("store recommendation failed")
		} else {
			result.ID = &saved.ID
		}
	}

	return result, nil
}

func (s *RecommendationService) List(ctx context.Context, principal model.Principal, limit int) ([]model.Recommendation, error) {
	if s.history == nil {
		return nil, ErrNotFound
	}
	if principal.IsAnonymous() {
		return nil, ErrPermissionDenied
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.history.ListByFarmer(ctx, principal.FarmerID, limit)
}

func (s *RecommendationService) Get(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Recommendation, error) {
	if s.history == nil {
		return nil, ErrNotFound
	}
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	rec, err := s.history.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanRead(rec.FarmerID) {
		return nil, ErrPermissionDenied
	}
	return rec, nil
}

func (s *RecommendationService) RenderPDF(ctx context.Context, principal model.Principal, id uuid.UUID) (*FileResult, error) {
	rec, err := s.Get(ctx, principal, id)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*rec)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("recomendacion-%s-%s.pdf", sanitizeFileName(rec.CropLabel), rec.CreatedAt.Format("20060102")),
		Content:  content,
	}, nil
}

type ExportInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Principal   model.Principal
}

func (s *RecommendationService) ExportHistory(ctx context.Context, input ExportInput) (*FileResult, error) {
	if s.history == nil {
		return nil, ErrNotFound
	}
	if input.Principal.IsAnonymous() {
		return nil, ErrPermissionDenied
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}

	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.After(periodEnd) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}

	endExclusive := periodEnd.Add(24 * time.Hour)
	items, err := s.history.ListByFarmerInPeriod(ctx, input.Principal.FarmerID, periodStart, endExclusive)
	if err != nil {
		return nil, err
	}

	report := model.HistoryReport{
		FarmerID:    input.Principal.FarmerID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Items:       items,
	}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%s-%s", periodStart.Format("20060102"), periodEnd.Format("20060102"))
	return &FileResult{
		FileName: fmt.Sprintf("historial-%s-%s.xlsx", sanitizeFileName(input.Principal.FarmerID), period),
		Content:  content,
	}, nil
}

func validateRecommendInput(input RecommendInput) error {
	if strings.TrimSpace(input.Crop) == "" {
		return fmt.Errorf("%w: crop is required", ErrInvalidInput)
	}
	if input.PH < 0 || input.PH > 14 {
		return fmt.Errorf("%w: ph must be between 0 and 14", ErrInvalidInput)
	}
	if input.Latitude < -90 || input.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidInput)
	}
	if input.Longitude < -180 || input.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidInput)
	}
	return nil
}

func recordPlanMetrics(label string, plan fertilizer.Plan) {
	if !translate.KnownCrop(label) {
		label = "other"
	}
	metrics.Recommendations.WithLabelValues(label).Inc()
	for _, item := range plan.Items {
		metrics.PlanItems.WithLabelValues(item.Product.Name).Inc()
	}
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
