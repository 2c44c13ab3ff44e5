package generator

import (
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// StructureRequest is everything a structure call sends to the backend.
type StructureRequest struct {
	Story  string
	Length schema.VideoLength
	Style  schema.StylePreset
	Aspect schema.AspectRatio

	System string
	User   string
	Schema *jsonschema.Schema
}

// BuildStructureRequest maps the user's inputs to instructions and the
// moodboard output schema. It is deterministic and only fails on a blank story.
func BuildStructureRequest(story string, length schema.VideoLength, style schema.StylePreset, aspect schema.AspectRatio) (StructureRequest, error) {
	story = strings.TrimSpace(story)
	if story == "" {
		return StructureRequest{}, apperr.Input(MsgEmptyStory)
	}
	if aspect == "" {
		aspect = schema.DefaultAspect
	}
	return StructureRequest{
		Story:  story,
		Length: length,
		Style:  style,
		Aspect: aspect,
		System: systemPrompt,
		User:   fmt.Sprintf(userPromptTemplate, story, LengthConstraint(length), StyleInstruction(style), aspect),
		Schema: schema.MoodboardSchema,
	}, nil
}
