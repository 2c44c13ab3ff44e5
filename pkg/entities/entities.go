package entities

import (
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// Moodboard is the exported document. It never carries the dirty flag.
type Moodboard struct {
	Title       string         `json:"title"`
	Scenes      []schema.Scene `json:"scenes"`
	FinalPrompt string         `json:"final_prompt"`
}

// PromptPayload is what a prompt regeneration request sees: no images, no prompt.
type PromptPayload struct {
	Title  string         `json:"title"`
	Scenes []schema.Scene `json:"scenes"`
}

func FromMoodboard(m *schema.Moodboard) Moodboard {
	c := m.Clone()
	return Moodboard{
		Title:       c.Title,
		Scenes:      c.Scenes,
		FinalPrompt: c.FinalPrompt,
	}
}

func NewPromptPayload(m *schema.Moodboard) PromptPayload {
	c := m.Clone()
	for i := range c.Scenes {
		c.Scenes[i].Thumbnail = schema.Thumbnail{}
	}
	return PromptPayload{Title: c.Title, Scenes: c.Scenes}
}

// ToMoodboard turns an imported document back into live state.
// Pending slots cannot resume after an import, so they become absent.
func (d Moodboard) ToMoodboard() *schema.Moodboard {
	m := (&schema.Moodboard{
		Title:       d.Title,
		Scenes:      d.Scenes,
		FinalPrompt: d.FinalPrompt,
	}).Clone()
	for i := range m.Scenes {
		if m.Scenes[i].Thumbnail.State == schema.ThumbnailPending {
			m.Scenes[i].Thumbnail = schema.Thumbnail{}
		}
	}
	return m
}
