package controller

import (
	"sync"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// State is a consistent snapshot. Moodboard is a private copy.
type State struct {
	Moodboard      *schema.Moodboard
	Generating     bool
	UpdatingPrompt bool
	Error          string
	Token          string
	Aspect         schema.AspectRatio
	Revision       uint64
}

// Settled reports whether every scene's thumbnail reached a terminal state.
func (s State) Settled() bool {
	if s.Generating {
		return false
	}
	if s.Moodboard == nil {
		return true
	}
	for _, sc := range s.Moodboard.Scenes {
		if !sc.Thumbnail.Settled() {
			return false
		}
	}
	return true
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	s := State{
		Moodboard:      c.board.Clone(),
		Generating:     c.generating,
		UpdatingPrompt: c.updatingPrompt,
		Error:          c.err,
		Aspect:         c.aspect,
		Revision:       c.revision,
	}
	if !c.token.IsNil() {
		s.Token = c.token.String()
	}
	return s
}

func (c *Controller) changedLocked() {
	c.revision++
	c.subs.publish(c.stateLocked())
}

// Subscribe returns a channel of snapshots. A slow reader only ever misses
// intermediate states, never the latest one. The channel closes on cancel or
// Close.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, cancel := c.subs.add()
	if c.closed {
		cancel()
		return ch, func() {}
	}
	ch <- c.stateLocked()
	return ch, cancel
}

type subscribers struct {
	mu   sync.Mutex
	next int
	m    map[int]chan State
}

func (s *subscribers) add() (chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan State, 1)
	s.m[id] = ch
	return ch, func() { s.remove(id) }
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.m[id]; ok {
		delete(s.m, id)
		close(ch)
	}
}

func (s *subscribers) publish(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.m {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.m {
		delete(s.m, id)
		close(ch)
	}
}
