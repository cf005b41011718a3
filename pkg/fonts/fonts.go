// Package fonts resolves caption font families to parsed OpenType fonts.
//
// The classic meme families (Impact, Arial Black, Comic Sans MS, Courier
// New) are looked up on the system with go-findfont and in any extra
// directories the user configures. When a family is not installed, a
// metrically similar Go font embedded in the binary is used instead, so a
// render never fails just because Impact is missing:
//
//	Impact, Arial Black, Comic Sans MS -> Go Bold
//	Courier New                        -> Go Mono Bold
//
// Parsed fonts are kept in an LRU cache. Faces are created per call because
// an opentype face is not safe for concurrent use.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// Builtin font names reported in Resolved.Source.
const (
	BuiltinBold     = "builtin:Go Bold"
	BuiltinMonoBold = "builtin:Go Mono Bold"
)

// candidates maps a lowercase family name to the file names it ships as
// on Windows, macOS and common Linux packages.
var candidates = map[string][]string{
	"impact":        {"impact.ttf", "Impact.ttf"},
	"arial black":   {"ariblk.ttf", "Arial Black.ttf", "Arial_Black.ttf"},
	"comic sans ms": {"comic.ttf", "Comic Sans MS.ttf", "Comic_Sans_MS.ttf", "comicbd.ttf"},
	"courier new":   {"cour.ttf", "Courier New.ttf", "Courier_New.ttf", "courbd.ttf"},
}

var monospace = map[string]bool{"courier new": true}

// Resolved describes where a family's font came from.
type Resolved struct {
	Family string         `json:"family"`
	Source string         `json:"source"` // file path or one of the Builtin* names
	Font   *opentype.Font `json:"-"`
}

// Builtin reports whether the font is an embedded fallback.
func (r Resolved) Builtin() bool {
	return strings.HasPrefix(r.Source, "builtin:")
}

// Registry resolves and caches fonts. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	dirs   []string
	strict bool
	find   func(name string) (string, error)

	mu    sync.Mutex
	fonts *lru.Cache[string, Resolved]
}

// Option configures a Registry.
type Option func(*Registry)

// WithDirs adds directories searched before the system font directories.
func WithDirs(dirs ...string) Option {
	return func(r *Registry) { r.dirs = append(r.dirs, dirs...) }
}

// WithStrict makes Resolve fail with ErrCodeFontNotFound instead of
// falling back to a builtin font.
func WithStrict() Option {
	return func(r *Registry) { r.strict = true }
}

// DefaultCacheSize bounds the number of parsed fonts kept in memory.
const DefaultCacheSize = 16

// NewRegistry creates a registry.
func NewRegistry(opts ...Option) *Registry {
	cache, _ := lru.New[string, Resolved](DefaultCacheSize)
	r := &Registry{fonts: cache, find: findfont.Find}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns a process-wide registry without extra directories.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Resolve returns the font for family (case-insensitive).
func (r *Registry) Resolve(family string) (Resolved, error) {
	key := strings.ToLower(strings.TrimSpace(family))

	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.fonts.Get(key); ok {
		return res, nil
	}

	res, err := r.resolve(family, key)
	if err != nil {
		return Resolved{}, err
	}
	r.fonts.Add(key, res)
	return res, nil
}

func (r *Registry) resolve(family, key string) (Resolved, error) {
	names, known := candidates[key]
	if !known {
		names = []string{family + ".ttf", family + ".otf"}
	}

	for _, name := range names {
		path, ok := r.lookup(name)
		if !ok {
			continue
		}
		f, err := parseFile(path)
		if err != nil {
			return Resolved{}, errs.Wrap(errs.ErrCodeFontNotFound, err, "font %q at %s", family, path)
		}
		return Resolved{Family: family, Source: path, Font: f}, nil
	}

	if r.strict {
		return Resolved{}, errs.New(errs.ErrCodeFontNotFound, "font %q is not installed", family)
	}
	return builtin(family, monospace[key])
}

func (r *Registry) lookup(name string) (string, bool) {
	for _, dir := range r.dirs {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	if r.find == nil {
		return "", false
	}
	path, err := r.find(name)
	if err != nil {
		return "", false
	}
	return path, true
}

// Face returns a new face for family at size pixels (72 DPI, so points
// equal pixels).
func (r *Registry) Face(family string, size float64) (font.Face, error) {
	res, err := r.Resolve(family)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(res.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %s %vpx: %w", family, size, err)
	}
	return face, nil
}

// List resolves every family in families, in order.
func (r *Registry) List(families []string) ([]Resolved, error) {
	out := make([]Resolved, 0, len(families))
	for _, f := range families {
		res, err := r.Resolve(f)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

func parseFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

var (
	builtinOnce sync.Once
	goBold      *opentype.Font
	goMonoBold  *opentype.Font
	builtinErr  error
)

func builtin(family string, mono bool) (Resolved, error) {
	builtinOnce.Do(func() {
		if goBold, builtinErr = opentype.Parse(gobold.TTF); builtinErr != nil {
			return
		}
		goMonoBold, builtinErr = opentype.Parse(gomonobold.TTF)
	})
	if builtinErr != nil {
		return Resolved{}, fmt.Errorf("parse builtin font: %w", builtinErr)
	}
	if mono {
		return Resolved{Family: family, Source: BuiltinMonoBold, Font: goMonoBold}, nil
	}
	return Resolved{Family: family, Source: BuiltinBold, Font: goBold}, nil
}
