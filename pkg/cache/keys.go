package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Keyer builds cache keys for each kind of cached data.
type Keyer interface {
	// HTTPKey returns the key for a JSON API response in a namespace
	// (e.g. "imgflip:").
	HTTPKey(namespace, key string) string

	// ImageKey returns the key for the raw bytes behind an image URL.
	ImageKey(url string) string

	// ArtifactKey returns the key for a rendered meme.
	ArtifactKey(opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts identifies a rendered meme. Two renders with equal
// options produce byte-identical artifacts.
type ArtifactKeyOpts struct {
	Image       string `json:"image"` // image URL or content hash for local files
	TopText     string `json:"top"`
	BottomText  string `json:"bottom"`
	FontSize    int    `json:"font_size"`
	FontFamily  string `json:"font_family"`
	FillColor   string `json:"fill"`
	StrokeColor string `json:"stroke"`
	StrokeWidth int    `json:"stroke_width"`
	Format      string `json:"format"`
	FontSource  string `json:"font_source,omitempty"` // resolved font file or builtin name
}

// DefaultKeyer is the standard key layout.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ImageKey returns "image:<sha256(url)>".
func (DefaultKeyer) ImageKey(url string) string {
	return digest("image", url)
}

// ArtifactKey returns "artifact:<sha256(opts)>".
func (DefaultKeyer) ArtifactKey(opts ArtifactKeyOpts) string {
	return digest("artifact", opts)
}

// Hash returns the hex SHA-256 of data. Local template files are keyed by
// their content hash.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// digest returns "<kind>:<sha256 of v as JSON>". ArtifactKeyOpts marshals
// in field order, so equal options give equal keys.
func digest(kind string, v any) string {
	data, _ := json.Marshal(v)
	return kind + ":" + Hash(data)
}
