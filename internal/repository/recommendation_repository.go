package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

const recommendationColumns = `
	id,
	farmer_id,
	crop_input,
	crop_label,
	ph,
	latitude,
	longitude,
	temperature,
	humidity,
	rainfall,
	weather_source,
	nitrogen_kg_ha,
	phosphorus_kg_ha,
	potassium_kg_ha,
	plan_text,
	created_at`

type RecommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec model.Recommendation) (*model.Recommendation, error) {
	var saved model.Recommendation
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO recommendations (
			farmer_id,
			crop_input,
			crop_label,
			ph,
			latitude,
			longitude,
			temperature,
			humidity,
			rainfall,
			weather_source,
			nitrogen_kg_ha,
			phosphorus_kg_ha,
			potassium_kg_ha,
			plan_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING`+recommendationColumns,
		rec.FarmerID,
		rec.CropInput,
		rec.CropLabel,
		rec.PH,
		rec.Latitude,
		rec.Longitude,
		rec.Temperature,
		rec.Humidity,
		rec.Rainfall,
		rec.WeatherSource,
		rec.NitrogenKgHa,
		rec.PhosphorusKgHa,
		rec.PotassiumKgHa,
		rec.PlanText,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *RecommendationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Recommendation, error) {
	var rec model.Recommendation
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+recommendationColumns+`
		FROM recommendations
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *RecommendationRepository) ListByFarmer(ctx context.Context, farmerID string, limit int) ([]model.Recommendation, error) {
	var rows []model.Recommendation
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+recommendationColumns+`
		FROM recommendations
		WHERE farmer_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, farmerID, limit).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByFarmerInPeriod returns records with from <= created_at < to, oldest first.
func (r *RecommendationRepository) ListByFarmerInPeriod(ctx context.Context, farmerID string, from, to time.Time) ([]model.Recommendation, error) {
	var rows []model.Recommendation
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+recommendationColumns+`
		FROM recommendations
		WHERE farmer_id = ?
			AND created_at >= ?
			AND created_at < ?
		ORDER BY created_at ASC
	`, farmerID, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
