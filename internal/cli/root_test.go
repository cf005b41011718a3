package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/integrations/caption"
	"github.com/matzehuels/memeforge/pkg/meme"
	"github.com/matzehuels/memeforge/pkg/share"

	errs "github.com/matzehuels/memeforge/pkg/errors"
)

// testImage returns a PNG-encoded gray image.
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{128, 128, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// testEnv starts a fake imgflip API serving one template and writes a
// config that points at it. It returns the config path and the temp root.
func testEnv(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	t.Setenv("MEMEFORGE_CAPTION_PROVIDER", "")
	t.Setenv("MEMEFORGE_REDIS_ADDR", "")
	t.Setenv("MEMEFORGE_MONGO_URI", "")

	imgData := testImage(t, 400, 300)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_memes":
			fmt.Fprintf(w, `{"success":true,"data":{"memes":[{"id":"1","name":"Gray","url":"%s/img/gray.png","width":400,"height":300,"box_count":2}]}}`, srv.URL)
		case "/img/gray.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(imgData)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := fmt.Sprintf(`[caption]
provider = "static"

[images]
endpoint = %q

[history]
backend = "file"
limit = 10
dir = %q

[cache]
backend = "none"
`, srv.URL, filepath.Join(root, "history"))

	path := filepath.Join(root, "memeforge.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path, root
}

// run executes the CLI with args and returns what commands wrote to their
// output stream.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func TestRootCommandTree(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"generate", "render", "history", "edit", "share", "serve", "fonts", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("command %q not registered", name)
		}
	}

	for _, sub := range [][]string{{"history", "list"}, {"history", "show"}, {"history", "pick"}, {"history", "clear"}, {"config", "init"}, {"cache", "path"}, {"cache", "info"}} {
		cmd, _, err := root.Find(sub)
		if err != nil || cmd.Name() != sub[1] {
			t.Errorf("command %v not registered", sub)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root should have a persistent --config flag")
	}
}

func TestGenerateHistoryShare(t *testing.T) {
	cfgPath, root := testEnv(t)
	output := filepath.Join(root, "out", "meme.png")

	if _, err := run(t, cfgPath, "generate", "go generics", "--seed", "1", "-o", output); err != nil {
		t.Fatalf("generate: %v", err)
	}

	f, err := os.Open(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "png" || cfg.Width != 400 || cfg.Height != 300 {
		t.Errorf("output = %s %dx%d, want png 400x300", format, cfg.Width, cfg.Height)
	}

	out, err := run(t, cfgPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	recs := decodeOutput[[]meme.Record](t, out)
	if len(recs) != 1 {
		t.Fatalf("history has %d records, want 1", len(recs))
	}
	wantTop, wantBottom := caption.Split(caption.DefaultStaticCaptions[0])
	if recs[0].TopText != wantTop || recs[0].BottomText != wantBottom || recs[0].Topic != "go generics" {
		t.Errorf("record = %+v", recs[0])
	}

	out, err = run(t, cfgPath, "history", "show", shortID(recs[0].ID), "--json")
	if err != nil {
		t.Fatalf("history show by prefix: %v", err)
	}
	if got := decodeOutput[meme.Record](t, out); got.ID != recs[0].ID {
		t.Errorf("show returned %s, want %s", got.ID, recs[0].ID)
	}

	out, err = run(t, cfgPath, "share", recs[0].ID, "--json")
	if err != nil {
		t.Fatalf("share: %v", err)
	}
	links := decodeOutput[share.Links](t, out)
	if !strings.HasPrefix(links.Twitter, share.TwitterIntentURL) {
		t.Errorf("twitter link = %q", links.Twitter)
	}
	if links.LinkedIn != "" {
		t.Errorf("linkedin link without base url = %q, want empty", links.LinkedIn)
	}
	if !strings.HasSuffix(links.Text, "#gogenerics") {
		t.Errorf("share text = %q, want topic hashtag", links.Text)
	}

	out, err = run(t, cfgPath, "share", recs[0].ID, "--json", "--url", "https://memes.example.com/m/1")
	if err != nil {
		t.Fatalf("share with url: %v", err)
	}
	if links := decodeOutput[share.Links](t, out); !strings.HasPrefix(links.LinkedIn, share.LinkedInShareURL) {
		t.Errorf("linkedin link = %q", links.LinkedIn)
	}

	c := New(io.Discard, LogInfo)
	c.configPath = cfgPath
	ids, _ := c.completeMemeIDs(&cobra.Command{}, nil, recs[0].ID[:4])
	if len(ids) != 1 || ids[0] != recs[0].ID+"\tgo generics" {
		t.Errorf("completions = %q", ids)
	}

	if _, err := run(t, cfgPath, "history", "clear"); err != nil {
		t.Fatalf("history clear: %v", err)
	}
	out, err = run(t, cfgPath, "history", "list", "--json")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if recs := decodeOutput[[]meme.Record](t, out); len(recs) != 0 {
		t.Errorf("history after clear has %d records", len(recs))
	}
}

func TestGenerateNoHistory(t *testing.T) {
	cfgPath, root := testEnv(t)

	if _, err := run(t, cfgPath, "generate", "testing", "--no-history", "--caption", `fixed top\nfixed bottom`, "-o", filepath.Join(root, "m.png")); err != nil {
		t.Fatalf("generate: %v", err)
	}
	out, err := run(t, cfgPath, "history", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if recs := decodeOutput[[]meme.Record](t, out); len(recs) != 0 {
		t.Errorf("--no-history recorded %d memes", len(recs))
	}
}

func TestGenerateErrors(t *testing.T) {
	cfgPath, _ := testEnv(t)

	tests := []struct {
		name string
		args []string
		code errs.Code
	}{
		{"blank topic", []string{"generate", "   "}, errs.ErrCodeInvalidTopic},
		{"bad style", []string{"generate", "go", "--font-size", "500"}, errs.ErrCodeInvalidStyle},
		{"bad shorthand", []string{"generate", "go", "--style", "fill #12"}, errs.ErrCodeInvalidStyle},
		{"bad format", []string{"generate", "go", "--format", "gif"}, errs.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfgPath, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRenderLocalFile(t *testing.T) {
	cfgPath, root := testEnv(t)
	src := filepath.Join(root, "src.png")
	if err := os.WriteFile(src, testImage(t, 320, 240), 0o644); err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(root, "rendered")

	if _, err := run(t, cfgPath, "render", "--file", src, "--top", "one does not simply", "--bottom", "write tests", "-f", "png,json", "-o", base); err != nil {
		t.Fatalf("render: %v", err)
	}

	if _, err := os.Stat(base + ".png"); err != nil {
		t.Errorf("png not written: %v", err)
	}
	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("json not written: %v", err)
	}
	var dump struct {
		Width int `json:"width"`
		Lines []struct {
			Slot string `json:"slot"`
			Text string `json:"text"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("decode json artifact: %v", err)
	}
	if dump.Width != 320 || len(dump.Lines) == 0 {
		t.Errorf("layout dump = %+v", dump)
	}
	if first := dump.Lines[0]; first.Slot != "top" || !strings.HasPrefix(first.Text, "ONE DOES") {
		t.Errorf("first line = %+v, want upper-cased top text", first)
	}
}

func TestRenderRequiresImage(t *testing.T) {
	cfgPath, _ := testEnv(t)
	if _, err := run(t, cfgPath, "render", "--top", "x"); err == nil {
		t.Error("render without --image or --file should fail")
	}
	if _, err := run(t, cfgPath, "render", "--image", "https://example.com/a.png", "--file", "a.png"); err == nil {
		t.Error("--image and --file together should fail")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("MEMEFORGE_CAPTION_PROVIDER", "")
	path := filepath.Join(root, "new", "config.toml")

	if _, err := run(t, path, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}

	out, err := run(t, path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[caption]", `provider = "gateway"`, "[history]", "[style]"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, path, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	// A second init keeps the existing file.
	if err := os.WriteFile(path, []byte("[caption]\nprovider = \"static\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, path, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(path); !strings.Contains(string(data), "static") {
		t.Error("config init without --force overwrote the file")
	}
}

func TestConfigMissingExplicitFile(t *testing.T) {
	_, err := run(t, filepath.Join(t.TempDir(), "missing.toml"), "history", "list")
	if !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("err = %v, want INVALID_PATH", err)
	}
}

func TestFontsJSON(t *testing.T) {
	cfgPath, _ := testEnv(t)
	out, err := run(t, cfgPath, "fonts", "--json", "Impact", "Courier New")
	if err != nil {
		t.Fatalf("fonts: %v", err)
	}
	var got []struct {
		Family string `json:"family"`
		Source string `json:"source"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Family != "Impact" || got[1].Source == "" {
		t.Errorf("fonts = %+v", got)
	}
}
