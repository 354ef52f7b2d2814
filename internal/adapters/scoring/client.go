// Package scoring is the HTTP client for the remote diagnostic scoring
// service.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/PabloGalante/heartdx/internal/domain"
	"github.com/PabloGalante/heartdx/internal/observability"
)

const (
	pathDiagnose  = "/api/diagnose"
	pathHealth    = "/api/health"
	pathModelInfo = "/api/model/info"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// diagnoseResponse omits the service's timestamp; results are stamped on
// receipt by the caller.
type diagnoseResponse struct {
	Label        domain.RiskLabel `json:"label"`
	Scores       domain.Scores    `json:"scores"`
	Explanation  string           `json:"explanation"`
	ModelVersion string           `json:"modelVersion"`
}

type errorResponse struct {
	Message string `json:"message"`
	Details string `json:"details"`
}

// Score posts input to the diagnose endpoint. A non-2xx status yields a
// *domain.ScoringServiceError; a transport failure wraps domain.ErrNetwork.
func (c *Client) Score(ctx context.Context, input domain.SymptomInput) (*domain.DiagnosisResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode symptom input: %w", err)
	}

	var out diagnoseResponse
	if err := c.do(ctx, http.MethodPost, pathDiagnose, body, &out); err != nil {
		return nil, err
	}

	return &domain.DiagnosisResult{
		Label:        out.Label,
		Scores:       out.Scores,
		Explanation:  out.Explanation,
		ModelVersion: out.ModelVersion,
	}, nil
}

type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"modelLoaded"`
	ModelInfo   string `json:"modelInfo"`
	Timestamp   int64  `json:"timestamp"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, pathHealth, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

type ModelInfo struct {
	ModelType string `json:"modelType"`
	Status    string `json:"status"`
	Version   string `json:"version"`
}

func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	var info ModelInfo
	if err := c.do(ctx, http.MethodGet, pathModelInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	log := observability.LoggerFromContext(ctx).With("method", method, "path", path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("scoring rate limit: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("scoring request failed", "error", err)
		return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	log.Debug("scoring response", "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &domain.ScoringServiceError{Status: resp.StatusCode}
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil {
			se.Message = e.Message
			se.Details = e.Details
		}
		return se
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
