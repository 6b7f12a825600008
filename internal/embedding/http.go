package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hyperjump/jobrecall/pkg/utils"
)

// HTTPEmbedder calls an OpenAI-compatible /v1/embeddings endpoint.
type HTTPEmbedder struct {
	url             string
	model           string
	apiKey          string
	dimensions      int
	maxRetries      int
	initialInterval time.Duration
	client          *http.Client
}

// HTTPOption configures an HTTPEmbedder.
type HTTPOption func(*HTTPEmbedder)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) HTTPOption {
	return func(e *HTTPEmbedder) { e.apiKey = key }
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(e *HTTPEmbedder) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithMaxRetries sets how many attempts are made for transient failures.
func WithMaxRetries(n int) HTTPOption {
	return func(e *HTTPEmbedder) {
		if n > 0 {
			e.maxRetries = n
		}
	}
}

// WithRetryInterval sets the initial backoff interval.
func WithRetryInterval(d time.Duration) HTTPOption {
	return func(e *HTTPEmbedder) {
		if d > 0 {
			e.initialInterval = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(e *HTTPEmbedder) {
		if c != nil {
			e.client = c
		}
	}
}

// NewHTTPEmbedder returns an embedder for the service at url.
func NewHTTPEmbedder(url, model string, dimensions int, opts ...HTTPOption) *HTTPEmbedder {
	e := &HTTPEmbedder{
		url:             url,
		model:           model,
		dimensions:      dimensions,
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		client:          &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding for a single text.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds all texts in one request. Transient failures (network
// errors, 429, 5xx) are retried with exponential backoff.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts, Dimensions: e.dimensions})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	operation := func() ([][]float32, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if e.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+e.apiKey)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		defer resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("embedding service status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, backoff.Permanent(fmt.Errorf("embedding service status %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
		}

		var parsed embeddingResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decode embedding response: %w", err))
		}
		if len(parsed.Data) != len(texts) {
			return nil, backoff.Permanent(fmt.Errorf("embedding service returned %d vectors for %d inputs", len(parsed.Data), len(texts)))
		}
		sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
		out := make([][]float32, len(texts))
		for i, d := range parsed.Data {
			utils.NormalizeL2(d.Embedding)
			out[i] = d.Embedding
		}
		return out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.initialInterval
	bo.MaxInterval = 10 * e.initialInterval

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(e.maxRetries)),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	return out, nil
}

// Dimensions returns the configured embedding dimension.
func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases idle connections.
func (e *HTTPEmbedder) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
