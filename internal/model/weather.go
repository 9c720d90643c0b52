package model

type WeatherSource string

const (
	WeatherSourceOpenWeatherMap WeatherSource = "openweathermap"
	WeatherSourceFallback       WeatherSource = "fallback"
)

// Weather is the set of conditions fed to the nutrient predictor.
// Rainfall is in mm over the last reporting window.
type Weather struct {
	Temperature float64       `json:"temperature"`
	Humidity    float64       `json:"humidity"`
	Rainfall    float64       `json:"rainfall"`
	Source      WeatherSource `json:"source"`
}

// DefaultWeather is used whenever live conditions cannot be obtained.
func DefaultWeather() Weather {
	return Weather{
		Temperature: 25.0,
		Humidity:    60.0,
		Rainfall:    50.0,
		Source:      WeatherSourceFallback,
	}
}
