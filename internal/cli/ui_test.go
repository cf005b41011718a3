package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/memeforge/pkg/pipeline"
)

func captureUI(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := uiOut
	uiOut = &buf
	t.Cleanup(func() { uiOut = prev })
	return &buf
}

func TestPrintStatus(t *testing.T) {
	buf := captureUI(t)

	printSuccess("wrote %d files", 2)
	printWarning("font %s missing", "Impact")
	printNextStep("Share it", "memeforge share abc")

	out := buf.String()
	for _, want := range []string{"wrote 2 files", "font Impact missing", "memeforge share abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("got %d lines, want 3", n)
	}
}

func TestPrintStats(t *testing.T) {
	buf := captureUI(t)

	res := &pipeline.Result{}
	res.Stats.Template = "Drake"
	res.Stats.Lines = 3
	res.Stats.RenderTime = 12 * time.Millisecond
	printStats(res)
	if out := buf.String(); !strings.Contains(out, "3 lines") || !strings.Contains(out, "fresh") {
		t.Errorf("fresh stats = %q", out)
	}

	buf.Reset()
	res.CacheInfo.RenderHit = true
	printStats(res)
	if out := buf.String(); strings.Contains(out, "lines") || !strings.Contains(out, "cached") {
		t.Errorf("cached stats = %q", out)
	}
}
