package queue

import (
	"context"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

type Queue interface {
	Start(ctx context.Context)
	Stop()
	Add(req *Request) (chan string, chan error, error)
}

// Request is one thumbnail to produce. Stale, when set, is checked right
// before the work starts; a stale request is answered without doing it.
type Request struct {
	Prompt string
	Aspect schema.AspectRatio
	Stale  func() bool
}
