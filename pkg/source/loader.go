package source

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/observability"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// MaxPixels bounds the declared dimensions of a source image. Decoders
// allocate the full pixel buffer from the header before reading pixel
// data, so larger images are rejected before decoding.
const MaxPixels = 50_000_000

// Fetcher downloads raw bytes for a URL. *integrations.Client implements
// it with caching and retries.
type Fetcher interface {
	CachedBytes(ctx context.Context, url string, refresh bool) ([]byte, error)
}

// Decoded is a ready-to-render source image.
type Decoded struct {
	Source string // URL or file path
	Format string // decoder name, e.g. "jpeg"
	Size   int    // encoded size in bytes
	Digest string // hex SHA-256 of the encoded bytes
	Image  image.Image
}

// Loader fetches and decodes images.
type Loader struct {
	fetch Fetcher
}

// NewLoader creates a loader backed by f.
func NewLoader(f Fetcher) *Loader {
	return &Loader{fetch: f}
}

// Load starts fetching and decoding url in the background. The returned
// task completes exactly once, with either a decoded image or an error.
func (l *Loader) Load(ctx context.Context, url string) *Task {
	t := newTask()
	go func() {
		t.complete(l.LoadSync(ctx, url))
	}()
	return t
}

// LoadSync fetches and decodes url on the calling goroutine.
func (l *Loader) LoadSync(ctx context.Context, url string) (Decoded, error) {
	if err := errs.ValidateURL(url); err != nil {
		return Decoded{}, err
	}

	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, url)
	start := time.Now()

	data, err := l.fetch.CachedBytes(ctx, url, false)
	if err != nil {
		err = errs.Wrap(errs.ErrCodeNetwork, err, "failed to fetch image")
		hooks.OnFetchComplete(ctx, url, 0, time.Since(start), err)
		return Decoded{}, err
	}

	d, err := decode(url, data)
	hooks.OnFetchComplete(ctx, url, len(data), time.Since(start), err)
	return d, err
}

// LoadFile reads and decodes a local image.
func (l *Loader) LoadFile(path string) (Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Decoded{}, errs.Wrap(errs.ErrCodeInvalidPath, err, "cannot read image %s", path)
	}
	return decode(path, data)
}

// Decode decodes an in-memory image. name is only used in errors and in
// the returned Decoded.Source.
func Decode(name string, data []byte) (Decoded, error) {
	return decode(name, data)
}

func decode(name string, data []byte) (Decoded, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "cannot decode image %s", name)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxPixels {
		return Decoded{}, errs.New(errs.ErrCodeInvalidInput, "image %s is too large (%dx%d, max %d pixels)", name, cfg.Width, cfg.Height, MaxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "cannot decode image %s", name)
	}
	if img.Bounds().Empty() {
		return Decoded{}, errs.New(errs.ErrCodeInvalidInput, "image %s has no pixels", name)
	}
	return Decoded{Source: name, Format: format, Size: len(data), Digest: cache.Hash(data), Image: img}, nil
}
