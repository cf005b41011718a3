package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/httputil"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(nil, "imgflip:", time.Hour, map[string]string{"Accept": "application/json"})
	if _, ok := client.cache.(cache.NullCache); !ok {
		t.Errorf("nil backend should fall back to NullCache, got %T", client.cache)
	}
	if client.http == nil || client.http.Timeout != httpTimeout {
		t.Errorf("http client = %+v, want %s timeout", client.http, httpTimeout)
	}
	if client.prefix != "imgflip:" || client.headers["Accept"] != "application/json" {
		t.Errorf("client = %+v", client)
	}
}

func TestSentinelsCarryCodes(t *testing.T) {
	tests := []struct {
		err  error
		code errs.Code
	}{
		{ErrNotFound, errs.ErrCodeNotFound},
		{ErrNetwork, errs.ErrCodeNetwork},
		{ErrRateLimited, errs.ErrCodeRateLimited},
		{ErrPaymentRequired, errs.ErrCodePaymentRequired},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("%w: template 42", tt.err)
		if got := errs.GetCode(wrapped); got != tt.code {
			t.Errorf("GetCode(%v) = %s, want %s", tt.err, got, tt.code)
		}
		if !errors.Is(wrapped, tt.err) {
			t.Errorf("errors.Is(%v) = false", wrapped)
		}
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := NewClient(cache.NewNullCache(), "test:", time.Hour, nil)
	client.SetHTTPClient(server.Client())

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var receivedHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeader = r.Header.Get("X-Override")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, map[string]string{"X-Override": "default"})
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if receivedHeader != "overridden" {
		t.Errorf("header = %q, want %q", receivedHeader, "overridden")
	}
}

func TestClientPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]string{"echo": in["topic"]})
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	client.SetHTTPClient(server.Client())

	var out map[string]string
	if err := client.PostJSON(context.Background(), server.URL, nil, map[string]string{"topic": "go"}, &out); err != nil {
		t.Fatalf("PostJSON() error: %v", err)
	}
	if out["echo"] != "go" {
		t.Errorf("echo = %q, want go", out["echo"])
	}
}

func TestClientCachedBytes(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	mem, _ := cache.NewMemoryCache(4)
	client := NewClient(mem, "img:", time.Hour, nil)
	client.SetHTTPClient(server.Client())

	for range 2 {
		data, err := client.CachedBytes(context.Background(), server.URL+"/a.png", false)
		if err != nil {
			t.Fatalf("CachedBytes() error: %v", err)
		}
		if string(data) != "image-bytes" {
			t.Errorf("data = %q", data)
		}
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (second call cached)", hits)
	}
}

func TestClientGetBytesTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", MaxBodySize+1)))
	}))
	defer server.Close()

	client := NewClient(nil, "", 0, nil)
	client.SetHTTPClient(server.Client())

	if _, err := client.GetBytes(context.Background(), server.URL); !errors.Is(err, ErrTooLarge) {
		t.Errorf("GetBytes() error = %v, want ErrTooLarge", err)
	}
}

func TestClientGet404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(nil, "test:", time.Hour, nil)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	if err := client.Get(context.Background(), server.URL, &resp); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestClientCached(t *testing.T) {
	mem, _ := cache.NewMemoryCache(4)
	client := NewClient(mem, "test:", time.Hour, nil)

	type testData struct {
		Value string `json:"value"`
	}
	fetchCount := 0
	fetch := func(v *testData) func() error {
		return func() error {
			fetchCount++
			*v = testData{Value: "fetched"}
			return nil
		}
	}

	var first testData
	if err := client.Cached(context.Background(), "k", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	var second testData
	if err := client.Cached(context.Background(), "k", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached() error: %v", err)
	}
	if fetchCount != 1 {
		t.Errorf("fetch count = %d, want 1", fetchCount)
	}
	if second.Value != "fetched" {
		t.Errorf("cached value = %q, want fetched", second.Value)
	}

	var third testData
	_ = client.Cached(context.Background(), "k", true, &third, fetch(&third))
	if fetchCount != 2 {
		t.Errorf("refresh should bypass cache, fetch count = %d", fetchCount)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client := NewClient(nil, "test:", time.Hour, nil)

	var value string
	fetchCount := 0
	err := client.Cached(context.Background(), "k", false, &value, func() error {
		fetchCount++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v, want ErrNotFound", err)
	}
	if fetchCount != 1 {
		t.Errorf("non-retryable error should not retry, fetch count = %d", fetchCount)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantType   error
		isRetryErr bool
	}{
		{name: "200 OK", code: 200},
		{name: "201 Created", code: 201},
		{name: "404 Not Found", code: 404, wantErr: true, wantType: ErrNotFound},
		{name: "429 Too Many Requests", code: 429, wantErr: true, wantType: ErrRateLimited},
		{name: "402 Payment Required", code: 402, wantErr: true, wantType: ErrPaymentRequired},
		{name: "500 Internal Server Error", code: 500, wantErr: true, wantType: ErrNetwork, isRetryErr: true},
		{name: "503 Service Unavailable", code: 503, wantErr: true, isRetryErr: true},
		{name: "400 Bad Request", code: 400, wantErr: true, wantType: ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(&http.Response{StatusCode: tt.code, Header: http.Header{}})

			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if tt.wantType != nil && !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
			var retryErr *httputil.RetryableError
			if got := errors.As(err, &retryErr); got != tt.isRetryErr {
				t.Errorf("retryable = %v, want %v", got, tt.isRetryErr)
			}
		})
	}
}
