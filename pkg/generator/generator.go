package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/inference"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

// ThumbnailStore turns raw image bytes into an embeddable reference.
type ThumbnailStore interface {
	Put(data []byte) (string, error)
}

// Generator issues the three backend calls. It never retries.
type Generator struct {
	text   inference.Inferencer
	images inference.Imager
	store  ThumbnailStore

	maxPromptTokens int
	countTokens     func(string) int
}

type Option func(*Generator)

// WithMaxPromptTokens caps the prompt regeneration payload. Zero disables the check.
func WithMaxPromptTokens(n int) Option {
	return func(g *Generator) { g.maxPromptTokens = n }
}

func WithTokenCounter(f func(string) int) Option {
	return func(g *Generator) { g.countTokens = f }
}

func New(text inference.Inferencer, images inference.Imager, store ThumbnailStore, opts ...Option) *Generator {
	g := &Generator{
		text:        text,
		images:      images,
		store:       store,
		countTokens: utils.NumTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RequestMoodboardStructure sends one schema-constrained request and validates
// the answer. Thumbnails of the result are absent and the board is clean.
func (g *Generator) RequestMoodboardStructure(ctx context.Context, req StructureRequest) (*schema.Moodboard, error) {
	log.Info("requesting moodboard structure", "length", req.Length, "style", req.Style, "aspect", req.Aspect)

	out, err := g.text.Infer(ctx, inference.Request{
		System:            req.System,
		User:              req.User,
		Schema:            req.Schema,
		SchemaName:        schema.MoodboardSchemaName,
		SchemaDescription: schema.MoodboardSchemaDescription,
	})
	if err != nil {
		log.Error("structure inference failed", "error", err)
		return nil, apperr.Transport(MsgStructureFailed+": "+err.Error(), err)
	}

	invalid := func(cause error) error {
		log.Warn("invalid structure response", "error", cause, "output", utils.LimitStr(out, 200))
		return apperr.Validation(MsgStructureFailed+": "+MsgInvalidStructure, cause)
	}

	raw := utils.ExtractJSON(out)
	if raw == "" {
		return nil, invalid(errors.New("no JSON object in response"))
	}
	var mb schema.Moodboard
	if err := json.Unmarshal([]byte(raw), &mb); err != nil {
		return nil, invalid(err)
	}

	mb.NormalizeIDs()
	mb.Dirty = false
	for i := range mb.Scenes {
		mb.Scenes[i].Thumbnail = schema.Thumbnail{}
	}
	if err := mb.Validate(); err != nil {
		return nil, invalid(err)
	}

	log.Info("moodboard structure ready", "title", mb.Title, "scenes", len(mb.Scenes), "seconds", mb.TotalDuration())
	return &mb, nil
}

// RequestSceneThumbnail generates one image and returns its stored reference.
func (g *Generator) RequestSceneThumbnail(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error) {
	img, err := g.images.Image(ctx, inference.ImageRequest{
		Prompt:      prompt + ImagePromptSuffix,
		AspectRatio: aspect,
	})
	if errors.Is(err, inference.ErrNoImage) {
		return "", apperr.Validation(inference.ErrNoImage.Error(), err)
	}
	if err != nil {
		return "", apperr.Transport(MsgImageFailed, err)
	}

	ref, err := g.store.Put(img.Data)
	if err != nil {
		return "", fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return ref, nil
}

// RequestPromptRegeneration composes a fresh final prompt from the title and
// scenes. Images never leave the process.
func (g *Generator) RequestPromptRegeneration(ctx context.Context, mb *schema.Moodboard) (string, error) {
	payload, err := json.MarshalIndent(entities.NewPromptPayload(mb), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode prompt payload: %w", err)
	}
	prompt := fmt.Sprintf(regeneratePromptTemplate, payload)

	if g.maxPromptTokens > 0 {
		if n := g.countTokens(prompt); n > g.maxPromptTokens {
			log.Warn("prompt payload over limit", "tokens", n, "limit", g.maxPromptTokens)
			return "", apperr.PayloadTooLarge(MsgPromptTooLong, fmt.Errorf("payload is %d tokens, limit is %d", n, g.maxPromptTokens))
		}
	}

	out, err := g.text.Infer(ctx, inference.Request{User: prompt})
	if err != nil {
		log.Error("prompt regeneration failed", "error", err)
		if isTooLarge(err) {
			return "", apperr.PayloadTooLarge(MsgPromptTooLong, err)
		}
		return "", apperr.Transport(MsgPromptFailed, err)
	}

	text := strings.TrimSpace(utils.CleanJSON(out))
	if text == "" {
		return "", apperr.Validation(MsgPromptFailed, errors.New("empty response"))
	}
	return text, nil
}
