package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Moodboard struct {
	Title       string  `json:"title" jsonschema_description:"A creative title for the video scene."`
	Scenes      []Scene `json:"scenes" jsonschema_description:"An array of scenes that make up the story."`
	FinalPrompt string  `json:"final_prompt" jsonschema_description:"A single, detailed, copy-and-paste ready prompt for a text-to-video AI generator. It must consolidate all scene information into a coherent set of instructions, including timings, camera details, style, and audio cues."`

	// Dirty is true when scenes changed after FinalPrompt was last computed.
	Dirty bool `json:"is_dirty" jsonschema:"-"`
}

type Scene struct {
	ID               string      `json:"id" jsonschema_description:"A unique identifier for the scene, e.g., 's1'."`
	Summary          string      `json:"summary" jsonschema_description:"A brief, one-sentence summary of the scene."`
	DurationSeconds  float64     `json:"duration_seconds" jsonschema_description:"The duration of this scene in seconds."`
	Camera           Camera      `json:"camera" jsonschema_description:"Camera set-up for the scene."`
	Characters       []Character `json:"characters" jsonschema_description:"Characters appearing in the scene, in order of importance."`
	Lighting         string      `json:"lighting" jsonschema_description:"Describe the lighting, e.g., 'soft morning light', 'dramatic neon'."`
	ColorPalette     []string    `json:"color_palette" jsonschema_description:"An array of 3-5 hex color codes that define the scene's mood."`
	Sound            Sound       `json:"sound" jsonschema_description:"Music and sound effects for the scene."`
	ShotInstructions []string    `json:"shot_instructions" jsonschema_description:"Specific directions for how to film the scene."`
	ThumbnailPrompt  string      `json:"thumbnail_prompt" jsonschema_description:"A concise, descriptive prompt for an AI image generator to create a visual thumbnail for this scene. e.g., 'cinematic photo, sleepy teenager with messy hair in a sunlit bedroom, groggy expression, dutch angle'."`

	Thumbnail Thumbnail `json:"thumbnail_url,omitzero" jsonschema:"-"`
}

type Camera struct {
	Angle        string `json:"angle" jsonschema_description:"e.g., 'close-up', 'wide shot', 'low angle'."`
	ShotType     string `json:"shot_type" jsonschema_description:"e.g., 'medium shot', 'establishing shot', 'over-the-shoulder'."`
	FocalLength  string `json:"focal_length" jsonschema_description:"e.g., '50mm', '24mm'."`
	Aperture     string `json:"aperture" jsonschema_description:"e.g., 'f/1.8', 'f/8'."`
	ShutterSpeed string `json:"shutter_speed" jsonschema_description:"e.g., '1/50s', '1/1000s'."`
	Movement     string `json:"movement" jsonschema_description:"e.g., 'static', 'handheld follow', 'slow push-in'."`
}

type Character struct {
	Name            string `json:"name" jsonschema_description:"Character name"`
	AgeRange        string `json:"age_range" jsonschema_description:"Approximate age range, e.g., '16-18'"`
	Looks           string `json:"looks" jsonschema_description:"Physical appearance"`
	Clothing        string `json:"clothing" jsonschema_description:"What the character is wearing"`
	DominantEmotion string `json:"dominant_emotion" jsonschema_description:"The character's main emotion in this scene"`
}

type Sound struct {
	Music string `json:"music" jsonschema_description:"Mood or style of music."`
	SFX   string `json:"sfx" jsonschema_description:"Key sound effects."`
}

// TotalDuration sums the scene durations in seconds.
func (m *Moodboard) TotalDuration() float64 {
	var total float64
	for _, s := range m.Scenes {
		total += s.DurationSeconds
	}
	return total
}

// Scene returns the index of the scene with the given id, or -1.
func (m *Moodboard) Scene(id string) int {
	return slices.IndexFunc(m.Scenes, func(s Scene) bool { return s.ID == id })
}

// Clone returns a deep copy so callers can read it without holding locks.
func (m *Moodboard) Clone() *Moodboard {
	if m == nil {
		return nil
	}
	out := *m
	out.Scenes = make([]Scene, len(m.Scenes))
	for i, s := range m.Scenes {
		out.Scenes[i] = s.Clone()
	}
	return &out
}

func (s Scene) Clone() Scene {
	s.Characters = slices.Clone(s.Characters)
	s.ColorPalette = slices.Clone(s.ColorPalette)
	s.ShotInstructions = slices.Clone(s.ShotInstructions)
	return s
}

var (
	ErrMissingTitle  = errors.New("missing title")
	ErrMissingScenes = errors.New("missing scenes")
	ErrMissingPrompt = errors.New("missing final_prompt")
)

// Validate checks the fields a structure response must carry.
func (m *Moodboard) Validate() error {
	var errs []error
	if strings.TrimSpace(m.Title) == "" {
		errs = append(errs, ErrMissingTitle)
	}
	if len(m.Scenes) == 0 {
		errs = append(errs, ErrMissingScenes)
	}
	if strings.TrimSpace(m.FinalPrompt) == "" {
		errs = append(errs, ErrMissingPrompt)
	}
	seen := make(map[string]struct{}, len(m.Scenes))
	for i, s := range m.Scenes {
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, fmt.Errorf("scene %d: missing id", i+1))
			continue
		}
		if _, ok := seen[s.ID]; ok {
			errs = append(errs, fmt.Errorf("scene %d: duplicate id %q", i+1, s.ID))
		}
		seen[s.ID] = struct{}{}
		if s.DurationSeconds <= 0 {
			errs = append(errs, fmt.Errorf("scene %q: duration must be positive", s.ID))
		}
	}
	return errors.Join(errs...)
}

// NormalizeIDs assigns s1..sN when the ids are empty or collide.
func (m *Moodboard) NormalizeIDs() {
	seen := make(map[string]struct{}, len(m.Scenes))
	ok := true
	for _, s := range m.Scenes {
		id := strings.TrimSpace(s.ID)
		if _, dup := seen[id]; id == "" || dup {
			ok = false
			break
		}
		seen[id] = struct{}{}
	}
	if ok {
		return
	}
	for i := range m.Scenes {
		m.Scenes[i].ID = fmt.Sprintf("s%d", i+1)
	}
}
