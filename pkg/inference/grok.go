package inference

import (
	"cmp"
)

// Providers that speak the OpenAI wire protocol. They reuse OpenAIInferencer
// with their own base URL and default models.
const (
	GrokBaseURL     = "https://api.x.ai/v1"
	MoonshotBaseURL = "https://api.moonshot.ai/v1"
)

// NewGrokInferencer creates an xAI backend. Grok serves images through the
// same images endpoint.
func NewGrokInferencer(apiKey, model string) *OpenAIInferencer {
	o := NewOpenAIInferencer(apiKey, cmp.Or(model, "grok-4-fast-reasoning"), "grok-2-image-1212")
	o.ChangeBaseURL(GrokBaseURL)
	return o
}

// NewMoonshotInferencer creates a Kimi backend. It is text only; pair it
// with another Imager.
func NewMoonshotInferencer(apiKey, model string) *OpenAIInferencer {
	o := NewOpenAIInferencer(apiKey, cmp.Or(model, "kimi-k2-5"), "")
	o.ChangeBaseURL(MoonshotBaseURL)
	return o
}
