package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func embeddingServer(t *testing.T, failFirst int, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= failFirst {
			w.WriteHeader(status)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		type item struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		// Return out of order to exercise index sorting.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, item{Index: i, Embedding: []float32{float32(i + 1), 0}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestHTTPEmbedder_EmbedBatch(t *testing.T) {
	srv, calls := embeddingServer(t, 0, 0)
	e := NewHTTPEmbedder(srv.URL, "test-model", 2, WithAPIKey("secret"))
	out, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d vectors", len(out))
	}
	for i, v := range out {
		// Vectors are normalized, so each is (1, 0) regardless of magnitude.
		if v[0] != 1 || v[1] != 0 {
			t.Errorf("vector %d = %v", i, v)
		}
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Errorf("calls = %d, want 1", *calls)
	}
	if e.Dimensions() != 2 {
		t.Errorf("Dimensions = %d", e.Dimensions())
	}
}

func TestHTTPEmbedder_retriesTransientErrors(t *testing.T) {
	srv, calls := embeddingServer(t, 2, http.StatusServiceUnavailable)
	e := NewHTTPEmbedder(srv.URL, "m", 2, WithAPIKey("secret"), WithRetryInterval(time.Millisecond), WithMaxRetries(3))
	if _, err := e.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if got := atomic.LoadInt32(calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestHTTPEmbedder_givesUpAfterMaxRetries(t *testing.T) {
	srv, calls := embeddingServer(t, 10, http.StatusTooManyRequests)
	e := NewHTTPEmbedder(srv.URL, "m", 2, WithAPIKey("secret"), WithRetryInterval(time.Millisecond), WithMaxRetries(2))
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

func TestHTTPEmbedder_permanentError(t *testing.T) {
	srv, calls := embeddingServer(t, 0, 0)
	e := NewHTTPEmbedder(srv.URL, "m", 2, WithAPIKey("wrong"), WithRetryInterval(time.Millisecond))
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Errorf("4xx should not be retried, calls = %d", got)
	}
}

func TestHTTPEmbedder_emptyBatch(t *testing.T) {
	e := NewHTTPEmbedder("http://127.0.0.1:0", "m", 2)
	out, err := e.EmbedBatch(context.Background(), nil)
	if err != nil || out != nil {
		t.Errorf("empty batch: %v, %v", out, err)
	}
}
