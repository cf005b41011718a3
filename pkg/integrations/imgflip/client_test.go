package imgflip

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/integrations"
)

var sampleTemplates = []Template{
	{ID: "181913649", Name: "Drake Hotline Bling", URL: "https://i.imgflip.com/30b1gx.jpg", Width: 1200, Height: 1200, BoxCount: 2},
	{ID: "87743020", Name: "Two Buttons", URL: "https://i.imgflip.com/1g8my4.jpg", Width: 600, Height: 908, BoxCount: 3},
	{ID: "112126428", Name: "Distracted Boyfriend", URL: "https://i.imgflip.com/1ur9b0.jpg", Width: 1200, Height: 800, BoxCount: 3},
}

func testServer(t *testing.T, success bool, memes []Template) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/get_memes" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		resp := memesResponse{Success: success}
		resp.Data.Memes = memes
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func testClient(t *testing.T, baseURL string, backend cache.Cache) *Client {
	t.Helper()
	c := NewClient(backend, baseURL, time.Hour)
	return c
}

func TestListTemplates(t *testing.T) {
	server, _ := testServer(t, true, sampleTemplates)
	c := testClient(t, server.URL, cache.NewNullCache())

	got, err := c.ListTemplates(context.Background(), false)
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if diff := cmp.Diff(sampleTemplates, got); diff != "" {
		t.Errorf("templates mismatch (-want +got):\n%s", diff)
	}
}

func TestListTemplatesCached(t *testing.T) {
	server, calls := testServer(t, true, sampleTemplates)
	mem, _ := cache.NewMemoryCache(8)
	c := testClient(t, server.URL, mem)

	for range 3 {
		if _, err := c.ListTemplates(context.Background(), false); err != nil {
			t.Fatal(err)
		}
	}
	if *calls != 1 {
		t.Errorf("API calls = %d, want 1", *calls)
	}
	if _, err := c.ListTemplates(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	if *calls != 2 {
		t.Errorf("refresh should hit the API, calls = %d", *calls)
	}
}

func TestListTemplatesEmpty(t *testing.T) {
	tests := []struct {
		name    string
		success bool
		memes   []Template
	}{
		{"success false", false, sampleTemplates},
		{"empty list", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := testServer(t, tt.success, tt.memes)
			c := testClient(t, server.URL, cache.NewNullCache())
			_, err := c.ListTemplates(context.Background(), false)
			if !errors.Is(err, ErrNoTemplates) {
				t.Errorf("error = %v, want ErrNoTemplates", err)
			}
		})
	}
}

func TestRandomTemplateDeterministic(t *testing.T) {
	server, _ := testServer(t, true, sampleTemplates)
	mem, _ := cache.NewMemoryCache(8)

	pick := func() string {
		c := testClient(t, server.URL, mem).WithRand(rand.New(rand.NewPCG(42, 0)))
		tpl, err := c.RandomTemplate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return tpl.ID
	}
	if a, b := pick(), pick(); a != b {
		t.Errorf("same seed picked %s and %s", a, b)
	}
}

func TestFind(t *testing.T) {
	server, _ := testServer(t, true, sampleTemplates)
	c := testClient(t, server.URL, cache.NewNullCache())

	tpl, err := c.Find(context.Background(), "87743020")
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Name != "Two Buttons" {
		t.Errorf("Find returned %q", tpl.Name)
	}
	if _, err := c.Find(context.Background(), "nope"); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("Find(nope) error = %v, want ErrNotFound", err)
	}
}
