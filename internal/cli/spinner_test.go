package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var out syncBuffer
	s := newSpinnerTo(context.Background(), &out, "Fetching template...")
	s.Start()
	time.Sleep(3 * spinnerStyle.FPS)
	s.SetMessage("Rendering...")
	time.Sleep(3 * spinnerStyle.FPS)
	s.Stop()

	got := out.String()
	for _, want := range []string{"Fetching template...", "Rendering..."} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q should contain %q", got, want)
		}
	}
	if !strings.HasSuffix(got, "\r") {
		t.Error("spinner should clear its line when stopped")
	}
}

func TestSpinnerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerTo(ctx, &syncBuffer{}, "Loading image...")
	s.Start()
	cancel()

	select {
	case <-s.exited:
	case <-time.After(time.Second):
		t.Fatal("spinner kept drawing after its context was cancelled")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &syncBuffer{}, "quick")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithStatus(t *testing.T) {
	buf := captureUI(t)

	s := newSpinnerTo(context.Background(), &syncBuffer{}, "Generating...")
	s.Start()
	s.StopWithSuccess("Done")

	s = newSpinnerTo(context.Background(), &syncBuffer{}, "Generating...")
	s.Start()
	s.StopWithError("Failed")

	if out := buf.String(); !strings.Contains(out, "Done") || !strings.Contains(out, "Failed") {
		t.Errorf("status output = %q", out)
	}
}
