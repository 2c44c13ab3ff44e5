package controller

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/diff"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/edit"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// UpdateScene replaces the content of scene id and marks the board dirty even
// when nothing differs. The id and the thumbnail slot are kept. It reports
// false when there is no such scene.
func (c *Controller) UpdateScene(id string, scene schema.Scene) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.replaceLocked(i, scene.Clone())
	return true
}

// EditScene applies ops to scene id as one update and returns what changed.
func (c *Controller) EditScene(id string, ops ...edit.Op) ([]diff.FieldDiff, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		if c.board == nil {
			return nil, ErrNoBoard
		}
		return nil, apperr.NotFound("Scene " + id + " not found.")
	}

	cur := c.board.Scenes[i]
	next, err := edit.Apply(cur, ops...)
	if err != nil {
		return nil, err
	}
	c.replaceLocked(i, next)
	return diff.SceneFields(cur, next), nil
}

func (c *Controller) indexLocked(id string) int {
	if c.board == nil {
		return -1
	}
	return c.board.Scene(id)
}

func (c *Controller) replaceLocked(i int, scene schema.Scene) {
	old := c.board.Scenes[i]
	scene.ID = old.ID
	scene.Thumbnail = old.Thumbnail
	c.board.Scenes[i] = scene
	c.board.Dirty = true
	c.edits++
	c.changedLocked()
}

// RegeneratePrompt recomposes the final prompt from the current scenes. Only
// one regeneration runs at a time.
func (c *Controller) RegeneratePrompt(ctx context.Context) (diff.StringDiff, error) {
	c.mu.Lock()
	if c.board == nil {
		c.mu.Unlock()
		return diff.StringDiff{}, ErrNoBoard
	}
	if c.updatingPrompt {
		c.mu.Unlock()
		return diff.StringDiff{}, ErrBusyPrompt
	}
	c.updatingPrompt = true
	snapshot := c.board.Clone()
	token, edits := c.token, c.edits
	c.changedLocked()
	c.mu.Unlock()

	text, err := c.backend.RequestPromptRegeneration(ctx, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.updatingPrompt = false
	if c.token != token || c.board == nil {
		c.changedLocked()
		return diff.StringDiff{}, ErrSuperseded
	}
	if err != nil {
		log.Error("prompt regeneration failed", "error", err)
		c.err = apperr.Message(err)
		c.changedLocked()
		return diff.StringDiff{}, err
	}

	d := diff.Prompt(c.board.FinalPrompt, text)
	log.Info("final prompt regenerated", "changed", d.Changed(), "dirty_edits", c.edits-edits)
	c.board.FinalPrompt = text
	// Edits made while the request was out are not reflected in text.
	if c.edits == edits {
		c.board.Dirty = false
	}
	c.changedLocked()
	return d, nil
}

// Import installs an exported document as the current moodboard.
func (c *Controller) Import(doc entities.Moodboard) (*schema.Moodboard, error) {
	mb := doc.ToMoodboard()
	mb.NormalizeIDs()
	if err := mb.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInput, "Invalid moodboard file.", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	c.token = ksuid.New()
	c.attempts = make(map[string]uint64)
	c.generating = false
	c.err = ""
	c.board = mb
	c.changedLocked()
	log.Info("imported moodboard", "title", mb.Title, "scenes", len(mb.Scenes))
	return mb.Clone(), nil
}

// SetAspect changes the aspect ratio later thumbnail requests use.
func (c *Controller) SetAspect(a schema.AspectRatio) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a == "" {
		a = schema.DefaultAspect
	}
	c.aspect = a
	c.changedLocked()
}
