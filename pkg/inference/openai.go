package inference

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

const (
	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultOpenAIImageModel = openai.ImageModelGPTImage1
)

// OpenAIInferencer implements Inferencer and Imager using OpenAI's official Go SDK.
// Any OpenAI-compatible endpoint works through ChangeBaseURL.
type OpenAIInferencer struct {
	client     *openai.Client
	apiKey     string
	model      string
	imageModel string
}

// NewOpenAIInferencer creates a new inferencer instance using OpenAI client.
func NewOpenAIInferencer(apiKey, model, imageModel string) *OpenAIInferencer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIInferencer{
		client:     &client,
		apiKey:     apiKey,
		model:      cmp.Or(model, DefaultOpenAIModel),
		imageModel: cmp.Or(imageModel, DefaultOpenAIImageModel),
	}
}

func (o *OpenAIInferencer) ChangeBaseURL(baseURL string) {
	client := openai.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

// Infer sends text to the chat completion endpoint and returns the output.
func (o *OpenAIInferencer) Infer(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: cmp.Or(req.Model, o.model),
	}
	if req.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(req.User))

	params.MaxCompletionTokens = openai.Int(cmp.Or(req.MaxTokens, 4096*4))
	params.Temperature = openai.Float(cmp.Or(req.Temperature, 0.7))
	params.TopP = openai.Float(1.0)
	if req.Schema != nil {
		params.ResponseFormat = schema.StructuredOutputsResponseFormat(
			cmp.Or(req.SchemaName, "response"),
			req.SchemaDescription,
			req.Schema,
		)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai inference error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion content")
	}

	return resp.Choices[0].Message.Content, nil
}

// Image requests one base64 image. DALL-E models need an explicit response
// format and have their own size set; gpt-image models always answer in base64.
func (o *OpenAIInferencer) Image(ctx context.Context, req ImageRequest) (*Image, error) {
	model := cmp.Or(req.Model, o.imageModel)
	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  model,
		N:      openai.Int(1),
	}
	mime := "image/jpeg"
	if strings.HasPrefix(model, "dall-e") {
		params.ResponseFormat = openai.ImageGenerateParamsResponseFormatB64JSON
		params.Size = dallESize(req.AspectRatio)
		mime = "image/png"
	} else {
		params.OutputFormat = openai.ImageGenerateParamsOutputFormatJPEG
		params.Size = gptImageSize(req.AspectRatio)
	}

	resp, err := o.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai image error: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}
	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return &Image{Data: data, MIMEType: mime}, nil
}

func gptImageSize(a schema.AspectRatio) openai.ImageGenerateParamsSize {
	switch a {
	case schema.Aspect9x16:
		return openai.ImageGenerateParamsSize1024x1536
	case schema.Aspect1x1:
		return openai.ImageGenerateParamsSize1024x1024
	default:
		return openai.ImageGenerateParamsSize1536x1024
	}
}

func dallESize(a schema.AspectRatio) openai.ImageGenerateParamsSize {
	switch a {
	case schema.Aspect9x16:
		return openai.ImageGenerateParamsSize1024x1792
	case schema.Aspect1x1:
		return openai.ImageGenerateParamsSize1024x1024
	default:
		return openai.ImageGenerateParamsSize1792x1024
	}
}
