package caption

import (
	"context"
	"sync"
)

// Static cycles through a fixed list of captions. It ignores the topic
// beyond validating it.
type Static struct {
	mu       sync.Mutex
	captions []string
	next     int
}

// DefaultStaticCaptions is used by NewStatic when no captions are given.
var DefaultStaticCaptions = []string{
	"IT WORKS ON MY MACHINE\nSHIP THE MACHINE",
	"ONE DOES NOT SIMPLY\nDEPLOY ON A FRIDAY",
	"99 LITTLE BUGS IN THE CODE\nPATCH ONE AROUND, 127 BUGS IN THE CODE",
}

// NewStatic returns a generator that yields captions in order, wrapping
// around at the end.
func NewStatic(captions ...string) *Static {
	if len(captions) == 0 {
		captions = DefaultStaticCaptions
	}
	return &Static{captions: captions}
}

// Name implements Generator.
func (s *Static) Name() string { return "static" }

// Generate implements Generator.
func (s *Static) Generate(ctx context.Context, topic string) (string, error) {
	if _, err := checkTopic(topic); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.captions[s.next%len(s.captions)]
	s.next++
	return c, nil
}
