package inference

import (
	"cmp"
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultImagenModel = "imagen-4.0-generate-001"
)

type GeminiInferencer struct {
	client     *genai.Client
	model      string
	imageModel string
}

// NewGeminiInferencer creates a text and image backend over the Gemini API.
func NewGeminiInferencer(apiKey, model, imageModel string) (*GeminiInferencer, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiInferencer{
		client:     client,
		model:      cmp.Or(model, DefaultGeminiModel),
		imageModel: cmp.Or(imageModel, DefaultImagenModel),
	}, nil
}

// Infer sends one prompt to generateContent and returns the response text.
func (o *GeminiInferencer) Infer(ctx context.Context, req Request) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleModel)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = schema.GeminiSchema(req.Schema)
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(req.Model, o.model),
		genai.Text(req.User),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}

// Image asks Imagen for a single JPEG at the requested aspect ratio.
func (o *GeminiInferencer) Image(ctx context.Context, req ImageRequest) (*Image, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    string(req.AspectRatio),
	}
	resp, err := o.client.Models.GenerateImages(ctx, cmp.Or(req.Model, o.imageModel), req.Prompt, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 {
		return nil, ErrNoImage
	}
	img := resp.GeneratedImages[0].Image
	if img == nil || len(img.ImageBytes) == 0 {
		return nil, ErrNoImage
	}
	return &Image{Data: img.ImageBytes, MIMEType: cmp.Or(img.MIMEType, "image/jpeg")}, nil
}
