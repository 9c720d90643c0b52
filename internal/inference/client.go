// Package inference talks to the model server that hosts the nutrient
// regression model and the leaf disease classifier. Both are served behind
// the TensorFlow Serving REST API:
//
//	POST {base}/v1/models/{name}:predict  {"instances": [...]}
//	-> {"predictions": [[...], ...]}
package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/breaker"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/config"
	"github.com/fundestpuente/SIC-Asesor-inteligente-agronomico-para-la-optimizacion-y-gestion-de-recursos-en-cultivos/internal/metrics"
)

var (
	ErrUnavailable = errors.New("model server unavailable")
	ErrBadResponse = errors.New("unexpected model server response")
)

type predictRequest struct {
	Instances any `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

// Client keeps one circuit breaker per model, so a model that rejects its
// input or goes down does not block the others.
type Client struct {
	baseURL  string
	http     *http.Client
	log      zerolog.Logger
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[][]float64]
}

func NewClient(cfg config.ModelConfig, log zerolog.Logger) *Client {
	log = log.With().Str("component", "inference").Logger()
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/"),
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[][]float64]),
	}
}

func (c *Client) breakerFor(model string) *gobreaker.CircuitBreaker[[][]float64] {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[model]
	if !ok {
		cb = breaker.New[[][]float64]("model-server:"+model, breaker.Settings{
			IsSuccessful: isHealthyOutcome,
		}, c.log)
		c.breakers[model] = cb
	}
	return cb
}

// isHealthyOutcome counts only ErrUnavailable as a server failure. Rejected
// input and cancelled callers say nothing about the model server.
func isHealthyOutcome(err error) bool {
	return err == nil || !errors.Is(err, ErrUnavailable)
}

// Predict sends instances to the named model and returns the prediction rows.
func (c *Client) Predict(ctx context.Context, model string, instances any) ([][]float64, error) {
	start := time.Now()
	rows, err := c.breakerFor(model).Execute(func() ([][]float64, error) {
		return c.predict(ctx, model, instances)
	})
	metrics.RecordInference(model, err, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		c.log.Error().Err(err).Str("model", model).Msg("predict call failed")
		return nil, err
	}
	return rows, nil
}

func (c *Client) predict(ctx context.Context, model string, instances any) ([][]float64, error) {
	payload, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return nil, fmt.Errorf("encode instances: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("predict %s: %w", model, ctxErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("predict %s: %w", model, ctxErr)
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var out predictResponse
	decodeErr := json.Unmarshal(body, &out)

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d %s", ErrUnavailable, resp.StatusCode, out.Error)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d %s", ErrBadResponse, resp.StatusCode, out.Error)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, decodeErr)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions", ErrBadResponse)
	}
	return out.Predictions, nil
}
