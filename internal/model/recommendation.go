package model

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is the stored history record of one /predict call.
type Recommendation struct {
	ID             uuid.UUID
	FarmerID       *string
	CropInput      string
	CropLabel      string
	PH             float64
	Latitude       float64
	Longitude      float64
	Temperature    float64
	Humidity       float64
	Rainfall       float64
	WeatherSource  WeatherSource
	NitrogenKgHa   float64
	PhosphorusKgHa float64
	PotassiumKgHa  float64
	PlanText       string
	CreatedAt      time.Time
}

func (r Recommendation) Weather() Weather {
	return Weather{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Rainfall:    r.Rainfall,
		Source:      r.WeatherSource,
	}
}

// HistoryReport is a farmer's recommendations over a closed date range.
type HistoryReport struct {
	FarmerID    string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Items       []Recommendation
}
