package inference

import (
	"context"
	"errors"

	"github.com/invopop/jsonschema"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// Inferencer runs one text completion. When Schema is set the backend is
// asked for JSON matching it.
type Inferencer interface {
	Infer(ctx context.Context, req Request) (string, error)
}

// Imager produces exactly one image per call.
type Imager interface {
	Image(ctx context.Context, req ImageRequest) (*Image, error)
}

type Request struct {
	System string
	User   string

	Model       string
	MaxTokens   int64
	Temperature float64

	Schema            *jsonschema.Schema
	SchemaName        string
	SchemaDescription string
}

type ImageRequest struct {
	Prompt      string
	AspectRatio schema.AspectRatio
	Model       string
}

type Image struct {
	Data     []byte
	MIMEType string
}

var ErrNoImage = errors.New("No image was generated.")
