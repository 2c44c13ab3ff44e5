package edit

import (
	"fmt"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// Op is a single change to one scene.
type Op interface {
	Name() string
	Apply(*schema.Scene) error
}

const (
	OpSummary          = "set_summary"
	OpDuration         = "set_duration"
	OpLighting         = "set_lighting"
	OpThumbnailPrompt  = "set_thumbnail_prompt"
	OpColorPalette     = "set_color_palette"
	OpShotInstructions = "set_shot_instructions"
	OpCameraField      = "set_camera_field"
	OpSoundField       = "set_sound_field"
	OpCharacterField   = "set_character_field"
)

type SetSummary struct{ Value string }

type SetDuration struct{ Seconds float64 }

type SetLighting struct{ Value string }

type SetThumbnailPrompt struct{ Value string }

type SetColorPalette struct{ Colors []string }

type SetShotInstructions struct{ Lines []string }

type SetCameraField struct {
	Field CameraField
	Value string
}

type SetSoundField struct {
	Field SoundField
	Value string
}

type SetCharacterField struct {
	Index int
	Field CharacterField
	Value string
}

type CameraField string

const (
	CameraAngle        CameraField = "angle"
	CameraShotType     CameraField = "shot_type"
	CameraFocalLength  CameraField = "focal_length"
	CameraAperture     CameraField = "aperture"
	CameraShutterSpeed CameraField = "shutter_speed"
	CameraMovement     CameraField = "movement"
)

var cameraFields = map[CameraField]func(*schema.Camera) *string{
	CameraAngle:        func(c *schema.Camera) *string { return &c.Angle },
	CameraShotType:     func(c *schema.Camera) *string { return &c.ShotType },
	CameraFocalLength:  func(c *schema.Camera) *string { return &c.FocalLength },
	CameraAperture:     func(c *schema.Camera) *string { return &c.Aperture },
	CameraShutterSpeed: func(c *schema.Camera) *string { return &c.ShutterSpeed },
	CameraMovement:     func(c *schema.Camera) *string { return &c.Movement },
}

type SoundField string

const (
	SoundMusic SoundField = "music"
	SoundSFX   SoundField = "sfx"
)

var soundFields = map[SoundField]func(*schema.Sound) *string{
	SoundMusic: func(s *schema.Sound) *string { return &s.Music },
	SoundSFX:   func(s *schema.Sound) *string { return &s.SFX },
}

type CharacterField string

const (
	CharacterName            CharacterField = "name"
	CharacterAgeRange        CharacterField = "age_range"
	CharacterLooks           CharacterField = "looks"
	CharacterClothing        CharacterField = "clothing"
	CharacterDominantEmotion CharacterField = "dominant_emotion"
)

var characterFields = map[CharacterField]func(*schema.Character) *string{
	CharacterName:            func(c *schema.Character) *string { return &c.Name },
	CharacterAgeRange:        func(c *schema.Character) *string { return &c.AgeRange },
	CharacterLooks:           func(c *schema.Character) *string { return &c.Looks },
	CharacterClothing:        func(c *schema.Character) *string { return &c.Clothing },
	CharacterDominantEmotion: func(c *schema.Character) *string { return &c.DominantEmotion },
}

func (SetSummary) Name() string          { return OpSummary }
func (SetDuration) Name() string         { return OpDuration }
func (SetLighting) Name() string         { return OpLighting }
func (SetThumbnailPrompt) Name() string  { return OpThumbnailPrompt }
func (SetColorPalette) Name() string     { return OpColorPalette }
func (SetShotInstructions) Name() string { return OpShotInstructions }
func (SetCameraField) Name() string      { return OpCameraField }
func (SetSoundField) Name() string       { return OpSoundField }
func (SetCharacterField) Name() string   { return OpCharacterField }

func (o SetSummary) Apply(s *schema.Scene) error {
	s.Summary = o.Value
	return nil
}

func (o SetDuration) Apply(s *schema.Scene) error {
	if o.Seconds <= 0 {
		return apperr.Input(fmt.Sprintf("Duration must be positive, got %v.", o.Seconds))
	}
	s.DurationSeconds = o.Seconds
	return nil
}

func (o SetLighting) Apply(s *schema.Scene) error {
	s.Lighting = o.Value
	return nil
}

func (o SetThumbnailPrompt) Apply(s *schema.Scene) error {
	s.ThumbnailPrompt = o.Value
	return nil
}

func (o SetColorPalette) Apply(s *schema.Scene) error {
	s.ColorPalette = append([]string(nil), o.Colors...)
	return nil
}

func (o SetShotInstructions) Apply(s *schema.Scene) error {
	s.ShotInstructions = append([]string(nil), o.Lines...)
	return nil
}

func (o SetCameraField) Apply(s *schema.Scene) error {
	field, ok := cameraFields[o.Field]
	if !ok {
		return apperr.Input(fmt.Sprintf("Unknown camera field %q.", o.Field))
	}
	*field(&s.Camera) = o.Value
	return nil
}

func (o SetSoundField) Apply(s *schema.Scene) error {
	field, ok := soundFields[o.Field]
	if !ok {
		return apperr.Input(fmt.Sprintf("Unknown sound field %q.", o.Field))
	}
	*field(&s.Sound) = o.Value
	return nil
}

func (o SetCharacterField) Apply(s *schema.Scene) error {
	field, ok := characterFields[o.Field]
	if !ok {
		return apperr.Input(fmt.Sprintf("Unknown character field %q.", o.Field))
	}
	if o.Index < 0 || o.Index >= len(s.Characters) {
		return apperr.Input(fmt.Sprintf("Scene %s has no character %d.", s.ID, o.Index))
	}
	*field(&s.Characters[o.Index]) = o.Value
	return nil
}

// Apply runs ops in order on a copy of scene. Either every op applies or the
// original is returned untouched with the first error.
func Apply(scene schema.Scene, ops ...Op) (schema.Scene, error) {
	out := scene.Clone()
	for i, op := range ops {
		if err := op.Apply(&out); err != nil {
			return scene, fmt.Errorf("op %d (%s): %w", i, op.Name(), err)
		}
	}
	return out, nil
}
