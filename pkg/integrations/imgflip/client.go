package imgflip

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/integrations"
)

// DefaultBaseURL is the public imgflip API root.
const DefaultBaseURL = "https://api.imgflip.com"

// ErrNoTemplates is returned when the API reports failure or an empty list.
var ErrNoTemplates = errors.New("no memes found")

// Template is one meme base image.
type Template struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	BoxCount int    `json:"box_count"`
}

// Client fetches templates from imgflip.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewClient creates an imgflip client. baseURL may be empty to use
// DefaultBaseURL.
func NewClient(backend cache.Cache, baseURL string, cacheTTL time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "imgflip:", cacheTTL, nil),
		baseURL: baseURL,
		rnd:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// WithRand replaces the random source used by RandomTemplate. Used for
// deterministic tests and reproducible CLI runs (--seed).
func (c *Client) WithRand(r *rand.Rand) *Client {
	c.mu.Lock()
	c.rnd = r
	c.mu.Unlock()
	return c
}

// ListTemplates returns the template catalogue.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
// Returns [ErrNoTemplates] when the API reports success=false or an empty
// list.
func (c *Client) ListTemplates(ctx context.Context, refresh bool) ([]Template, error) {
	var templates []Template
	err := c.Cached(ctx, "get_memes", refresh, &templates, func() error {
		return c.fetch(ctx, &templates)
	})
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}
	return templates, nil
}

// RandomTemplate picks one template uniformly at random.
func (c *Client) RandomTemplate(ctx context.Context) (*Template, error) {
	templates, err := c.ListTemplates(ctx, false)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	i := c.rnd.IntN(len(templates))
	c.mu.Unlock()
	t := templates[i]
	return &t, nil
}

// Find returns the template with the given ID.
func (c *Client) Find(ctx context.Context, id string) (*Template, error) {
	templates, err := c.ListTemplates(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, t := range templates {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: template %s", integrations.ErrNotFound, id)
}

func (c *Client) fetch(ctx context.Context, out *[]Template) error {
	var resp memesResponse
	if err := c.Get(ctx, c.baseURL+"/get_memes", &resp); err != nil {
		return err
	}
	if !resp.Success || len(resp.Data.Memes) == 0 {
		return ErrNoTemplates
	}
	*out = resp.Data.Memes
	return nil
}

type memesResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Memes []Template `json:"memes"`
	} `json:"data"`
}
