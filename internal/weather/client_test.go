package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/config"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/model"
)

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(config.WeatherConfig{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Timeout:    2 * time.Second,
		MaxRetries: 3,
	}, zerolog.Nop())
}

func TestCurrent(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.Weather
	}{
		{
			name: "one hour rain",
			body: `{"main":{"temp":21.4,"humidity":77},"rain":{"1h":0.8,"3h":2.1}}`,
			want: model.Weather{Temperature: 21.4, Humidity: 77, Rainfall: 0.8, Source: model.WeatherSourceOpenWeatherMap},
		},
		{
			name: "three hour rain only",
			body: `{"main":{"temp":18,"humidity":90},"rain":{"3h":4.5}}`,
			want: model.Weather{Temperature: 18, Humidity: 90, Rainfall: 4.5, Source: model.WeatherSourceOpenWeatherMap},
		},
		{
			name: "explicit zero one hour rain wins over three hour",
			body: `{"main":{"temp":18,"humidity":90},"rain":{"1h":0,"3h":4.5}}`,
			want: model.Weather{Temperature: 18, Humidity: 90, Rainfall: 0, Source: model.WeatherSourceOpenWeatherMap},
		},
		{
			name: "no rain block",
			body: `{"main":{"temp":30.2,"humidity":40}}`,
			want: model.Weather{Temperature: 30.2, Humidity: 40, Rainfall: 0, Source: model.WeatherSourceOpenWeatherMap},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/data/2.5/weather", r.URL.Path)
				assert.Equal(t, "-0.18", r.URL.Query().Get("lat"))
				assert.Equal(t, "-78.47", r.URL.Query().Get("lon"))
				assert.Equal(t, "key", r.URL.Query().Get("appid"))
				assert.Equal(t, "metric", r.URL.Query().Get("units"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got := newTestClient(srv.URL, "key").Current(context.Background(), -0.18, -78.47)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentFallsBack(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		got := newTestClient("http://127.0.0.1:1", "").Current(context.Background(), 1, 2)
		assert.Equal(t, model.DefaultWeather(), got)
	})

	t.Run("unauthorized is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
		}))
		defer srv.Close()

		got := newTestClient(srv.URL, "bad").Current(context.Background(), 1, 2)
		assert.Equal(t, model.DefaultWeather(), got)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		got := newTestClient(srv.URL, "key").Current(context.Background(), 1, 2)
		assert.Equal(t, model.DefaultWeather(), got)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("recovers after a transient failure", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"main":{"temp":10,"humidity":50}}`))
		}))
		defer srv.Close()

		got := newTestClient(srv.URL, "key").Current(context.Background(), 1, 2)
		assert.Equal(t, model.WeatherSourceOpenWeatherMap, got.Source)
		assert.Equal(t, 10.0, got.Temperature)
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"main":`))
		}))
		defer srv.Close()

		got := newTestClient(srv.URL, "key").Current(context.Background(), 1, 2)
		assert.Equal(t, model.DefaultWeather(), got)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"main":{"temp":10,"humidity":50}}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		got := newTestClient(srv.URL, "key").Current(ctx, 1, 2)
		assert.Equal(t, model.DefaultWeather(), got)
	})
}

func TestBreakerCountsOnlyProviderFailures(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		c := newTestClient("http://127.0.0.1:1", "")
		for i := 0; i < 8; i++ {
			c.Current(context.Background(), 1, 2)
		}
		assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
	})

	t.Run("rejected requests", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := newTestClient(srv.URL, "bad")
		for i := 0; i < 8; i++ {
			c.Current(context.Background(), 1, 2)
		}
		assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
		assert.Equal(t, int32(8), calls.Load())
	})

	t.Run("cancelled callers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"main":{"temp":10,"humidity":50}}`))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newTestClient(srv.URL, "key")
		for i := 0; i < 8; i++ {
			c.Current(ctx, 1, 2)
		}
		assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
	})

	t.Run("server errors open it", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(config.WeatherConfig{BaseURL: srv.URL, APIKey: "key", Timeout: time.Second, MaxRetries: 1}, zerolog.Nop())
		for i := 0; i < 7; i++ {
			assert.Equal(t, model.DefaultWeather(), c.Current(context.Background(), 1, 2))
		}
		assert.Equal(t, gobreaker.StateOpen, c.breaker.State())
		assert.Equal(t, int32(5), calls.Load())
	})
}

func TestDefaultWeather(t *testing.T) {
	w := model.DefaultWeather()
	require.Equal(t, model.WeatherSourceFallback, w.Source)
	assert.Equal(t, 25.0, w.Temperature)
	assert.Equal(t, 60.0, w.Humidity)
	assert.Equal(t, 50.0, w.Rainfall)
}
