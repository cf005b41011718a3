package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/compose"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/history"
	"github.com/matzehuels/memeforge/pkg/integrations"
	"github.com/matzehuels/memeforge/pkg/integrations/caption"
	"github.com/matzehuels/memeforge/pkg/integrations/imgflip"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/sink"
	"github.com/matzehuels/memeforge/pkg/source"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

const templateURL = "https://i.imgflip.com/30b1gx.jpg"

type basicFaces struct{}

func (basicFaces) Face(string, float64) (font.Face, error) { return basicfont.Face7x13, nil }

type fakeTemplates struct {
	err error
}

func (f fakeTemplates) RandomTemplate(ctx context.Context) (*imgflip.Template, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &imgflip.Template{ID: "181913649", Name: "Drake Hotline Bling", URL: templateURL, Width: 300, Height: 200}, nil
}

func (f fakeTemplates) Find(ctx context.Context, id string) (*imgflip.Template, error) {
	t, err := f.RandomTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if id != t.ID {
		return nil, fmt.Errorf("%w: template %s", integrations.ErrNotFound, id)
	}
	return t, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	calls int
}

func (f *fakeFetcher) CachedBytes(ctx context.Context, url string, refresh bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.data, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingGenerator struct{ err error }

func (failingGenerator) Name() string { return "failing" }
func (g failingGenerator) Generate(context.Context, string) (string, error) {
	return "", g.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	runner  *Runner
	fetcher *fakeFetcher
	history *history.MemoryStore
}

func newFixture(t *testing.T, gen caption.Generator) fixture {
	t.Helper()
	mc, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{data: pngBytes(t, 300, 200)}
	h := history.NewMemoryStore(history.DefaultLimit)
	r := NewRunner(Deps{
		Templates: fakeTemplates{},
		Captions:  gen,
		Loader:    source.NewLoader(f),
		Engine:    compose.NewEngine(basicFaces{}),
		History:   h,
		Cache:     mc,
	})
	return fixture{runner: r, fetcher: f, history: h}
}

func TestGenerate(t *testing.T) {
	fx := newFixture(t, caption.NewStatic("when the tests pass\non the first try"))
	ctx := context.Background()

	res, err := fx.runner.Generate(ctx, Options{Topic: "testing", Formats: []sink.Format{sink.FormatPNG, sink.FormatJSON}})
	if err != nil {
		t.Fatalf("Generate(): %v", err)
	}

	if res.Record.ID == "" || res.Record.ImageURL != templateURL {
		t.Errorf("Record = %+v", res.Record)
	}
	if res.Record.TopText != "when the tests pass" || res.Record.BottomText != "on the first try" {
		t.Errorf("captions = %q / %q", res.Record.TopText, res.Record.BottomText)
	}
	if res.Record.Style == nil || *res.Record.Style != meme.DefaultStyle() {
		t.Errorf("Record.Style = %+v, want defaults", res.Record.Style)
	}
	if res.Stats.Provider != "static" || res.Stats.Template != "Drake Hotline Bling" {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if len(res.Layout.Top) == 0 || len(res.Layout.Bottom) == 0 {
		t.Errorf("Layout = %+v, want top and bottom lines", res.Layout)
	}
	if res.Layout.Top[0].Y != 40 {
		t.Errorf("first top line y = %v, want 40", res.Layout.Top[0].Y)
	}

	img, err := png.Decode(bytes.NewReader(res.Artifacts[sink.FormatPNG]))
	if err != nil {
		t.Fatalf("decode png artifact: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 200 {
		t.Errorf("artifact size = %v", b)
	}
	if len(res.Artifacts[sink.FormatJSON]) == 0 {
		t.Error("missing json artifact")
	}

	recs, _ := fx.history.List(ctx)
	if len(recs) != 1 || recs[0].ID != res.Record.ID {
		t.Errorf("history = %+v, want the new record", recs)
	}
}

func TestGenerate_SingleLineCaption(t *testing.T) {
	fx := newFixture(t, caption.NewStatic("just one line"))
	res, err := fx.runner.Generate(context.Background(), Options{Topic: "go"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.TopText != "just one line" || res.Record.BottomText != "" {
		t.Errorf("captions = %q / %q", res.Record.TopText, res.Record.BottomText)
	}
	if len(res.Layout.Bottom) != 0 {
		t.Errorf("bottom lines = %d, want 0", len(res.Layout.Bottom))
	}
}

func TestGenerate_InvalidTopic(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.runner.Generate(context.Background(), Options{Topic: "   "})
	if !errs.Is(err, errs.ErrCodeInvalidTopic) {
		t.Fatalf("error = %v, want INVALID_TOPIC", err)
	}
	if fx.fetcher.Calls() != 0 {
		t.Errorf("image fetched %d times for an invalid topic", fx.fetcher.Calls())
	}
}

func TestGenerate_InvalidStyle(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.runner.Generate(context.Background(), Options{Topic: "go", Style: meme.Style{FontSize: 500}})
	if !errs.Is(err, errs.ErrCodeInvalidStyle) {
		t.Fatalf("error = %v, want INVALID_STYLE", err)
	}
}

func TestGenerate_CaptionError(t *testing.T) {
	fail := errs.New(errs.ErrCodeRateLimited, caption.MsgRateLimited)
	fx := newFixture(t, failingGenerator{err: fail})

	_, err := fx.runner.Generate(context.Background(), Options{Topic: "go"})
	if !errs.Is(err, errs.ErrCodeRateLimited) {
		t.Fatalf("error = %v, want RATE_LIMITED", err)
	}
	recs, _ := fx.history.List(context.Background())
	if len(recs) != 0 {
		t.Errorf("history has %d records after a failed generation", len(recs))
	}
}

func TestGenerate_TemplateError(t *testing.T) {
	fx := newFixture(t, nil)
	fx.runner.Templates = fakeTemplates{err: imgflip.ErrNoTemplates}

	_, err := fx.runner.Generate(context.Background(), Options{Topic: "go"})
	if !errors.Is(err, imgflip.ErrNoTemplates) {
		t.Fatalf("error = %v, want ErrNoTemplates in chain", err)
	}
}

func TestGenerate_UnknownTemplate(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.runner.Generate(context.Background(), Options{Topic: "go", TemplateID: "nope"})
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}

	res, err := fx.runner.Generate(context.Background(), Options{Topic: "go", TemplateID: "181913649"})
	if err != nil {
		t.Fatalf("Generate with known template: %v", err)
	}
	if res.Stats.Template != "Drake Hotline Bling" {
		t.Errorf("Template = %q", res.Stats.Template)
	}
}

func TestGenerate_NoTemplateSource(t *testing.T) {
	fx := newFixture(t, nil)
	fx.runner.Templates = nil

	_, err := fx.runner.Generate(context.Background(), Options{Topic: "go"})
	if !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Fatalf("error = %v, want UNSUPPORTED", err)
	}

	res, err := fx.runner.Generate(context.Background(), Options{Topic: "go", ImageURL: "https://example.com/a.png"})
	if err != nil {
		t.Fatalf("Generate with ImageURL: %v", err)
	}
	if res.Record.ImageURL != "https://example.com/a.png" {
		t.Errorf("ImageURL = %q", res.Record.ImageURL)
	}
}

func TestGenerate_FixedCaptionAndNoHistory(t *testing.T) {
	fx := newFixture(t, failingGenerator{err: errors.New("should not be called")})
	res, err := fx.runner.Generate(context.Background(), Options{
		Topic:     "go",
		Caption:   "fixed top\nfixed bottom",
		NoHistory: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Stats.Provider != "fixed" || res.Record.BottomText != "fixed bottom" {
		t.Errorf("result = %+v", res.Record)
	}
	recs, _ := fx.history.List(context.Background())
	if len(recs) != 0 {
		t.Errorf("history has %d records with NoHistory", len(recs))
	}
}

func TestRender_CacheHit(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	opts := RenderOptions{ImageURL: templateURL, Top: "one does not simply", Bottom: "render once"}

	first, err := fx.runner.Render(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.RenderHit {
		t.Error("first render reported a cache hit")
	}

	// Case differences render identically and share the cache entry.
	opts.Top = "ONE DOES NOT SIMPLY"
	second, err := fx.runner.Render(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second render missed the cache")
	}
	if !bytes.Equal(first.Artifacts[sink.FormatPNG], second.Artifacts[sink.FormatPNG]) {
		t.Error("cached artifact differs from rendered one")
	}
	if fx.fetcher.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", fx.fetcher.Calls())
	}

	opts.Refresh = true
	third, err := fx.runner.Render(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.RenderHit || fx.fetcher.Calls() != 2 {
		t.Errorf("refresh: hit=%v calls=%d", third.CacheInfo.RenderHit, fx.fetcher.Calls())
	}
}

func TestRender_Deterministic(t *testing.T) {
	fx := newFixture(t, nil)
	opts := RenderOptions{ImageURL: templateURL, Top: "same", Bottom: "pixels", Refresh: true}
	a, err := fx.runner.Render(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := fx.runner.Render(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Artifacts[sink.FormatPNG], b.Artifacts[sink.FormatPNG]) {
		t.Error("re-render with identical inputs produced different output")
	}
}

func TestRender_LocalFile(t *testing.T) {
	fx := newFixture(t, nil)
	path := filepath.Join(t.TempDir(), "base.png")
	if err := os.WriteFile(path, pngBytes(t, 120, 80), 0600); err != nil {
		t.Fatal(err)
	}

	res, err := fx.runner.Render(context.Background(), RenderOptions{ImagePath: path, Top: "local"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Image.Bounds().Dx() != 120 {
		t.Errorf("width = %d, want 120", res.Image.Bounds().Dx())
	}
	if fx.fetcher.Calls() != 0 {
		t.Errorf("local render fetched %d urls", fx.fetcher.Calls())
	}

	again, err := fx.runner.Render(context.Background(), RenderOptions{ImagePath: path, Top: "local"})
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.RenderHit {
		t.Error("second render of the same file should hit the artifact cache")
	}

	_, err = fx.runner.Render(context.Background(), RenderOptions{ImagePath: filepath.Join(t.TempDir(), "missing.png")})
	if !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("missing file error = %v, want INVALID_PATH", err)
	}
}

func TestRenderOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		opts RenderOptions
		code errs.Code
	}{
		{"no image", RenderOptions{}, errs.ErrCodeInvalidInput},
		{"both", RenderOptions{ImageURL: templateURL, ImagePath: "/tmp/x.png"}, errs.ErrCodeInvalidInput},
		{"bad url", RenderOptions{ImageURL: "ftp://x/y.png"}, errs.ErrCodeInvalidURL},
		{"bad style", RenderOptions{ImageURL: templateURL, Style: meme.Style{StrokeWidth: 11}}, errs.ErrCodeInvalidStyle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errs.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	a := RenderOptions{Top: "hello", Style: meme.Style{FontFamily: "Impact", FillColor: "#fff"}}
	b := RenderOptions{Top: "HELLO", Style: meme.Style{FontFamily: "impact", FillColor: "#FFF"}}
	if a.ArtifactKeyOpts("u", sink.FormatPNG) != b.ArtifactKeyOpts("u", sink.FormatPNG) {
		t.Error("equivalent renders produced different cache keys")
	}
	if a.ArtifactKeyOpts("u", sink.FormatPNG) == a.ArtifactKeyOpts("u", sink.FormatJPEG) {
		t.Error("formats share a cache key")
	}
}

// resolvedFaces reports a fixed font source for every family.
type resolvedFaces struct {
	basicFaces
	source string
}

func (f resolvedFaces) Resolve(family string) (fonts.Resolved, error) {
	return fonts.Resolved{Family: family, Source: f.source}, nil
}

func TestRender_CacheKeyTracksFontSource(t *testing.T) {
	mc, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{data: pngBytes(t, 100, 80)}
	runnerWith := func(src string) *Runner {
		return NewRunner(Deps{
			Loader: source.NewLoader(f),
			Engine: compose.NewEngine(resolvedFaces{source: src}),
			Cache:  mc,
		})
	}
	ctx := context.Background()
	opts := RenderOptions{ImageURL: templateURL, Top: "font"}

	if _, err := runnerWith(fonts.BuiltinBold).Render(ctx, opts); err != nil {
		t.Fatal(err)
	}
	res, err := runnerWith(fonts.BuiltinBold).Render(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.RenderHit {
		t.Error("same font source should hit the artifact cache")
	}

	res, err = runnerWith("/usr/share/fonts/truetype/impact.ttf").Render(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheInfo.RenderHit {
		t.Error("a newly installed font should not be served from fallback renders")
	}
}

func TestRegenerate(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	style := meme.DefaultStyle()
	style.StrokeWidth = 0
	rec := meme.NewRecord(templateURL, "top", "bottom", "go", &style)
	if err := fx.history.Add(ctx, rec); err != nil {
		t.Fatal(err)
	}

	res, err := fx.runner.Regenerate(ctx, rec.ID, sink.FormatJPEG)
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.ID != rec.ID || res.Record.Style.StrokeWidth != 0 {
		t.Errorf("Record = %+v", res.Record)
	}
	if len(res.Artifacts[sink.FormatJPEG]) == 0 {
		t.Error("missing jpeg artifact")
	}

	_, err = fx.runner.Regenerate(ctx, "nope")
	if !errs.Is(err, errs.ErrCodeMemeNotFound) {
		t.Errorf("unknown id error = %v, want MEME_NOT_FOUND", err)
	}
}

func TestThumbnail(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	rec := meme.NewRecord(templateURL, "thumb", "nail", "go", nil)
	fx.history.Add(ctx, rec)

	data, err := fx.runner.Thumbnail(ctx, rec.ID, 64)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("thumbnail = %v, want 64x64", b)
	}

	if _, err := fx.runner.Thumbnail(ctx, rec.ID, 64); err != nil {
		t.Fatal(err)
	}
	if fx.fetcher.Calls() != 1 {
		t.Errorf("fetch calls = %d, want cached thumbnail", fx.fetcher.Calls())
	}
}

func TestCaption(t *testing.T) {
	fx := newFixture(t, caption.NewStatic("a\nb"))
	got, err := fx.runner.Caption(context.Background(), "go", "")
	if err != nil || got != "a\nb" {
		t.Errorf("Caption() = %q, %v", got, err)
	}
	if _, err := fx.runner.Caption(context.Background(), "", ""); !errs.Is(err, errs.ErrCodeInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
}
