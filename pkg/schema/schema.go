package schema

import (
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

func generateSchema[T any]() *jsonschema.Schema {
	r := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	var v T
	return r.Reflect(v)
}

// MoodboardSchema is the structured-output contract for structure requests.
// It is reflected from the Go types so the data model stays the source of truth.
var MoodboardSchema = generateSchema[Moodboard]()

const (
	MoodboardSchemaName        = "moodboard"
	MoodboardSchemaDescription = "Scene-by-scene moodboard for a short video, with a consolidated text-to-video prompt"
)

// StructuredOutputsResponseFormat wraps a JSON schema for OpenAI-compatible chat completions.
func StructuredOutputsResponseFormat(name, description string, s *jsonschema.Schema) openai.ChatCompletionNewParamsResponseFormatUnion {
	p := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      s,
		Strict:      openai.Bool(true),
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: p},
	}
}

// GeminiSchema translates a reflected JSON schema into the OpenAPI subset genai accepts.
// Property order is carried over through PropertyOrdering.
func GeminiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        geminiType(s.Type),
		Title:       s.Title,
		Description: s.Description,
		Required:    s.Required,
	}
	for _, e := range s.Enum {
		if v, ok := e.(string); ok {
			out.Enum = append(out.Enum, v)
		}
	}
	if s.Properties != nil {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = GeminiSchema(pair.Value)
			out.PropertyOrdering = append(out.PropertyOrdering, pair.Key)
		}
	}
	if s.Items != nil {
		out.Items = GeminiSchema(s.Items)
	}
	if s.MinItems != nil {
		out.MinItems = genai.Ptr(int64(*s.MinItems))
	}
	if s.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*s.MaxItems))
	}
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
