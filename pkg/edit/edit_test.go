package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

func testScene() schema.Scene {
	return schema.Scene{
		ID:              "s1",
		Summary:         "A cat spots a red dot.",
		DurationSeconds: 3,
		Camera:          schema.Camera{Angle: "low angle", Movement: "static"},
		Characters: []schema.Character{
			{Name: "Miso", Looks: "orange tabby", DominantEmotion: "curious"},
		},
		Lighting:     "warm lamp",
		ColorPalette: []string{"#ff0000"},
		Sound:        schema.Sound{Music: "plucky", SFX: "tail swish"},
		Thumbnail:    schema.ReadyThumbnail("/thumbnails/a.webp"),
	}
}

func TestApply(t *testing.T) {
	orig := testScene()

	got, err := Apply(orig,
		SetSummary{Value: "A cat pounces."},
		SetDuration{Seconds: 4},
		SetLighting{Value: "neon"},
		SetThumbnailPrompt{Value: "cat in neon"},
		SetColorPalette{Colors: []string{"#00ffcc", "#111111"}},
		SetShotInstructions{Lines: []string{"slow motion", "hold"}},
		SetCameraField{Field: CameraShutterSpeed, Value: "1/1000s"},
		SetSoundField{Field: SoundSFX, Value: "thud"},
		SetCharacterField{Index: 0, Field: CharacterDominantEmotion, Value: "triumphant"},
	)
	require.NoError(t, err)

	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "A cat pounces.", got.Summary)
	assert.InDelta(t, 4, got.DurationSeconds, 0)
	assert.Equal(t, "neon", got.Lighting)
	assert.Equal(t, "cat in neon", got.ThumbnailPrompt)
	assert.Equal(t, []string{"#00ffcc", "#111111"}, got.ColorPalette)
	assert.Equal(t, []string{"slow motion", "hold"}, got.ShotInstructions)
	assert.Equal(t, "1/1000s", got.Camera.ShutterSpeed)
	assert.Equal(t, "low angle", got.Camera.Angle)
	assert.Equal(t, "thud", got.Sound.SFX)
	assert.Equal(t, "plucky", got.Sound.Music)
	assert.Equal(t, "triumphant", got.Characters[0].DominantEmotion)
	assert.Equal(t, orig.Thumbnail, got.Thumbnail)

	assert.Equal(t, testScene(), orig, "input is not mutated")
}

func TestEveryFieldReachable(t *testing.T) {
	for f := range cameraFields {
		s := testScene()
		require.NoError(t, SetCameraField{Field: f, Value: "x"}.Apply(&s))
		assert.Equal(t, "x", *cameraFields[f](&s.Camera), f)
	}
	for f := range soundFields {
		s := testScene()
		require.NoError(t, SetSoundField{Field: f, Value: "x"}.Apply(&s))
		assert.Equal(t, "x", *soundFields[f](&s.Sound), f)
	}
	for f := range characterFields {
		s := testScene()
		require.NoError(t, SetCharacterField{Field: f, Value: "x"}.Apply(&s))
		assert.Equal(t, "x", *characterFields[f](&s.Characters[0]), f)
	}
	assert.Len(t, cameraFields, 6)
	assert.Len(t, characterFields, 5)
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		op   Op
	}{
		{"zero duration", SetDuration{Seconds: 0}},
		{"unknown camera field", SetCameraField{Field: "iso", Value: "400"}},
		{"unknown sound field", SetSoundField{Field: "voice", Value: "x"}},
		{"unknown character field", SetCharacterField{Index: 0, Field: "height", Value: "x"}},
		{"character out of range", SetCharacterField{Index: 3, Field: CharacterName, Value: "x"}},
		{"negative character index", SetCharacterField{Index: -1, Field: CharacterName, Value: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := testScene()
			got, err := Apply(orig, SetSummary{Value: "changed"}, tt.op)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInput))
			assert.Equal(t, orig, got, "failed edits change nothing")
		})
	}
}

func TestDecode(t *testing.T) {
	ops, err := Decode([]byte(`[
		{"op": "set_summary", "value": "A cat pounces."},
		{"op": "set_duration", "value": 4.5},
		{"op": "set_camera_field", "field": "angle", "value": "high angle"},
		{"op": "set_sound_field", "field": "music", "value": "jazz"},
		{"op": "set_character_field", "index": 0, "field": "looks", "value": "grey"},
		{"op": "set_color_palette", "value": "#000000, #ffffff"},
		{"op": "set_shot_instructions", "value": "one\ntwo"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []Op{
		SetSummary{Value: "A cat pounces."},
		SetDuration{Seconds: 4.5},
		SetCameraField{Field: CameraAngle, Value: "high angle"},
		SetSoundField{Field: SoundMusic, Value: "jazz"},
		SetCharacterField{Index: 0, Field: CharacterLooks, Value: "grey"},
		SetColorPalette{Colors: []string{"#000000", "#ffffff"}},
		SetShotInstructions{Lines: []string{"one", "two"}},
	}, ops)

	t.Run("single object", func(t *testing.T) {
		ops, err := Decode([]byte(`{"op": "set_lighting", "value": "dusk"}`))
		require.NoError(t, err)
		assert.Equal(t, []Op{SetLighting{Value: "dusk"}}, ops)
	})

	t.Run("array values", func(t *testing.T) {
		ops, err := Decode([]byte(`{"op": "set_color_palette", "value": ["#1", "#2"]}`))
		require.NoError(t, err)
		assert.Equal(t, []Op{SetColorPalette{Colors: []string{"#1", "#2"}}}, ops)
	})

	for name, body := range map[string]string{
		"unknown op":       `[{"op": "set_title", "value": "x"}]`,
		"missing index":    `[{"op": "set_character_field", "field": "name", "value": "x"}]`,
		"wrong value type": `[{"op": "set_summary", "value": 3}]`,
		"empty":            `[]`,
		"garbage":          `not json`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(body))
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInput))
		})
	}
}
