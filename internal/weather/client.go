// Package weather looks up current conditions from OpenWeatherMap. Lookups
// never fail: any problem yields model.DefaultWeather so a recommendation
// can still be produced.
package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/breaker"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/config"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/metrics"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

var (
	errMissingAPIKey = errors.New("missing api key")
	// errUpstream marks failures of the provider itself: transport errors,
	// 5xx and 429. Only these count against the circuit breaker.
	errUpstream = errors.New("openweathermap unavailable")
)

type owmResponse struct {
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain *struct {
		OneHour   *float64 `json:"1h"`
		ThreeHour *float64 `json:"3h"`
	} `json:"rain"`
	Message string `json:"message"`
}

// rainfall prefers the 1h accumulation, then 3h. No rain block means no rain.
func (r owmResponse) rainfall() float64 {
	if r.Rain == nil {
		return 0
	}
	if r.Rain.OneHour != nil {
		return *r.Rain.OneHour
	}
	if r.Rain.ThreeHour != nil {
		return *r.Rain.ThreeHour
	}
	return 0
}

type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	http       *http.Client
	breaker    *gobreaker.CircuitBreaker[model.Weather]
	log        zerolog.Logger
}

func NewClient(cfg config.WeatherConfig, log zerolog.Logger) *Client {
	log = log.With().Str("component", "weather").Logger()
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		http:       &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New[model.Weather]("openweathermap", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, errUpstream)
			},
		}, log),
		log: log,
	}
}

// Current returns live conditions at lat/lon, or the defaults when the
// provider cannot be reached.
func (c *Client) Current(ctx context.Context, lat, lon float64) model.Weather {
	w, err := c.breaker.Execute(func() (model.Weather, error) {
		return c.fetchWithRetry(ctx, lat, lon)
	})
	if err != nil {
		c.log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("weather lookup failed, using defaults")
		metrics.WeatherLookups.WithLabelValues(string(model.WeatherSourceFallback)).Inc()
		return model.DefaultWeather()
	}
	metrics.WeatherLookups.WithLabelValues(string(model.WeatherSourceOpenWeatherMap)).Inc()
	return w
}

func (c *Client) fetchWithRetry(ctx context.Context, lat, lon float64) (model.Weather, error) {
	if c.apiKey == "" {
		return model.Weather{}, errMissingAPIKey
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	retries := 0
	if c.maxRetries > 1 {
		retries = c.maxRetries - 1
	}

	var out model.Weather
	err := backoff.Retry(func() error {
		w, err := c.fetch(ctx, lat, lon)
		if err != nil {
			return err
		}
		out = w
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries)), ctx))
	return out, err
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (model.Weather, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/weather?"+q.Encode(), nil)
	if err != nil {
		return model.Weather{}, backoff.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Weather{}, backoff.Permanent(ctxErr)
		}
		return model.Weather{}, fmt.Errorf("%w: %v", errUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.Weather{}, backoff.Permanent(ctxErr)
		}
		return model.Weather{}, fmt.Errorf("%w: read body: %v", errUpstream, err)
	}

	var out owmResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return model.Weather{}, fmt.Errorf("%w: status %d: %s", errUpstream, resp.StatusCode, out.Message)
		}
		return model.Weather{}, backoff.Permanent(fmt.Errorf("owm status %d: %s", resp.StatusCode, out.Message))
	}
	if decodeErr != nil {
		return model.Weather{}, backoff.Permanent(fmt.Errorf("decode owm response: %w", decodeErr))
	}
	if out.Main == nil {
		return model.Weather{}, backoff.Permanent(errors.New("owm response has no main block"))
	}

	return model.Weather{
		Temperature: out.Main.Temp,
		Humidity:    out.Main.Humidity,
		Rainfall:    out.rainfall(),
		Source:      model.WeatherSourceOpenWeatherMap,
	}, nil
}
