package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/flight"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/generator"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/queue"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/queue/thumbnails"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// Backend is the subset of *generator.Generator the controller drives.
type Backend interface {
	RequestMoodboardStructure(ctx context.Context, req generator.StructureRequest) (*schema.Moodboard, error)
	RequestSceneThumbnail(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error)
	RequestPromptRegeneration(ctx context.Context, mb *schema.Moodboard) (string, error)
}

var _ Backend = (*generator.Generator)(nil)

var (
	ErrSuperseded = apperr.Conflict("A newer generation replaced this one.")
	ErrNoBoard    = apperr.NotFound("Generate a moodboard first.")
	ErrBusyPrompt = apperr.Conflict("The final prompt is already being updated.")
	ErrClosed     = errors.New("controller closed")
)

type thumbKey struct {
	Prompt string
	Aspect schema.AspectRatio
}

// Controller owns the one moodboard and every transition on it. The mutex is
// never held across a backend call.
type Controller struct {
	backend Backend
	thumbs  flight.Cache[thumbKey, string]
	queue   queue.Queue

	mu             sync.Mutex
	board          *schema.Moodboard
	generating     bool
	updatingPrompt bool
	err            string
	token          ksuid.KSUID
	aspect         schema.AspectRatio
	attempts       map[string]uint64
	edits          uint64
	revision       uint64
	closed         bool

	subs subscribers

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type config struct {
	perMinute int
	cacheTTL  time.Duration
}

type Option func(*config)

// WithThumbnailRate paces bulk thumbnails to n per minute. n <= 0 is unlimited.
func WithThumbnailRate(n int) Option {
	return func(c *config) { c.perMinute = n }
}

// WithCacheTTL lets identical thumbnail prompts reuse an image for d. Off by
// default, so every scene makes its own request.
func WithCacheTTL(d time.Duration) Option {
	return func(c *config) { c.cacheTTL = d }
}

// New creates a controller and starts its thumbnail queue. Close releases it.
func New(backend Backend, opts ...Option) *Controller {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:  backend,
		aspect:   schema.DefaultAspect,
		attempts: make(map[string]uint64),
		subs:     subscribers{m: make(map[int]chan State)},
		ctx:      ctx,
		cancel:   cancel,
	}
	c.thumbs = flight.NewCache(func(ctx context.Context, k thumbKey) (string, error) {
		return backend.RequestSceneThumbnail(ctx, k.Prompt, k.Aspect)
	})
	c.thumbs.Expiry(cfg.cacheTTL)

	q := thumbnails.New(func(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error) {
		return c.thumbs.Get(ctx, thumbKey{Prompt: prompt, Aspect: aspect})
	}, cfg.perMinute)
	q.Start(ctx)
	c.queue = q

	return c
}

// Input is what the user asks a generation for.
type Input struct {
	Story  string             `json:"story"`
	Length schema.VideoLength `json:"length"`
	Style  schema.StylePreset `json:"style"`
	Aspect schema.AspectRatio `json:"aspect_ratio"`
}

// ParseInput validates the option values a caller picked. Empty values take
// the defaults; unknown ones are Input errors.
func ParseInput(story, length, style, aspect string) (Input, error) {
	l, err := schema.ParseVideoLength(length)
	if err != nil {
		return Input{}, apperr.New(apperr.KindInput, "Unknown video length.", err)
	}
	s, err := schema.ParseStylePreset(style)
	if err != nil {
		return Input{}, apperr.New(apperr.KindInput, "Unknown style preset.", err)
	}
	a, err := schema.ParseAspectRatio(aspect)
	if err != nil {
		return Input{}, apperr.New(apperr.KindInput, "Unknown aspect ratio.", err)
	}
	return Input{Story: story, Length: l, Style: s, Aspect: a}, nil
}

// Generate replaces the moodboard with a freshly generated one. It returns as
// soon as the structure is installed; thumbnails fill in the background.
func (c *Controller) Generate(ctx context.Context, in Input) (*schema.Moodboard, error) {
	req, err := generator.BuildStructureRequest(in.Story, in.Length, in.Style, in.Aspect)
	if err != nil {
		c.mu.Lock()
		c.err = apperr.Message(err)
		c.changedLocked()
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	token := ksuid.New()
	c.token = token
	c.err = ""
	c.board = nil
	c.generating = true
	c.aspect = req.Aspect
	c.attempts = make(map[string]uint64)
	c.changedLocked()
	c.mu.Unlock()

	log.Info("generating moodboard", "token", token, "story", req.Story)
	mb, err := c.backend.RequestMoodboardStructure(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token {
		log.Debug("discarding superseded structure", "token", token)
		return nil, ErrSuperseded
	}
	c.generating = false
	if err != nil {
		c.err = apperr.Message(err)
		c.changedLocked()
		return nil, err
	}

	c.board = mb
	c.changedLocked()
	if !c.closed {
		c.wg.Add(1)
		go c.bulkThumbnails(token)
	}
	return mb.Clone(), nil
}

// bulkThumbnails walks the scenes in order. Each scene is submitted only after
// the previous one settled; the walk ends once token is no longer current.
func (c *Controller) bulkThumbnails(token ksuid.KSUID) {
	defer c.wg.Done()
	for i := 0; ; i++ {
		c.mu.Lock()
		if c.token != token || c.board == nil || i >= len(c.board.Scenes) {
			c.mu.Unlock()
			return
		}
		scene := &c.board.Scenes[i]
		id, prompt, aspect := scene.ID, scene.ThumbnailPrompt, c.aspect
		attempt := c.nextAttemptLocked(id)
		scene.Thumbnail = schema.PendingThumbnail()
		c.changedLocked()
		c.mu.Unlock()

		resp, errs, err := c.queue.Add(&queue.Request{
			Prompt: prompt,
			Aspect: aspect,
			Stale:  func() bool { return !c.isCurrent(token, id, attempt) },
		})
		var ref string
		if err == nil {
			select {
			case r, ok := <-resp:
				if ok {
					ref = r
				} else {
					err = <-errs
				}
			case <-c.ctx.Done():
				return
			}
		}
		if errors.Is(err, thumbnails.ErrStale) {
			continue
		}
		c.settle(token, id, attempt, ref, err)
	}
}

// RegenerateSceneImage restarts one scene's thumbnail outside the queue.
func (c *Controller) RegenerateSceneImage(id string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.board == nil {
		c.mu.Unlock()
		return ErrNoBoard
	}
	i := c.board.Scene(id)
	if i < 0 {
		c.mu.Unlock()
		return apperr.NotFound("Scene " + id + " not found.")
	}
	token := c.token
	key := thumbKey{Prompt: c.board.Scenes[i].ThumbnailPrompt, Aspect: c.aspect}
	attempt := c.nextAttemptLocked(id)
	c.board.Scenes[i].Thumbnail = schema.PendingThumbnail()
	c.changedLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	log.Info("regenerating thumbnail", "scene", id, "attempt", attempt)
	go func() {
		defer c.wg.Done()
		ref, err := c.thumbs.Force(c.ctx, key)
		c.settle(token, id, attempt, ref, err)
	}()
	return nil
}

func (c *Controller) nextAttemptLocked(id string) uint64 {
	c.attempts[id]++
	return c.attempts[id]
}

func (c *Controller) isCurrent(token ksuid.KSUID, id string, attempt uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token == token && c.attempts[id] == attempt
}

// settle stores a thumbnail outcome unless a newer generation or a newer
// attempt for the same scene has been issued since.
func (c *Controller) settle(token ksuid.KSUID, id string, attempt uint64, ref string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != token || c.attempts[id] != attempt || c.board == nil {
		log.Debug("discarding stale thumbnail", "scene", id, "attempt", attempt)
		return
	}
	i := c.board.Scene(id)
	if i < 0 {
		return
	}
	if err != nil {
		log.Warn("thumbnail failed", "scene", id, "error", err)
		c.board.Scenes[i].Thumbnail = schema.FailedThumbnail(errors.New(apperr.Message(err)))
	} else {
		c.board.Scenes[i].Thumbnail = schema.ReadyThumbnail(ref)
	}
	c.changedLocked()
}

// Wait blocks until every background thumbnail request has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels background work, waits for it and ends every subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.queue.Stop()
	c.wg.Wait()
	c.subs.closeAll()
}
