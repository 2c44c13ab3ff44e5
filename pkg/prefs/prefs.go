package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"

	DefaultTheme = ThemeDark
)

func ParseTheme(s string) (Theme, error) {
	switch t := Theme(s); t {
	case ThemeDark, ThemeLight:
		return t, nil
	default:
		return "", fmt.Errorf("unknown theme %q", s)
	}
}

func (t Theme) Toggled() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

type file struct {
	Theme Theme `json:"theme"`
}

// Store keeps the theme in memory and writes it to path on every change.
type Store struct {
	path string

	mu    sync.Mutex
	theme Theme
}

// Open reads path. A missing or unreadable file yields the default theme.
func Open(path string) *Store {
	s := &Store{path: path, theme: DefaultTheme}
	f, err := utils.Load[file](path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		log.Warn("ignoring unreadable preferences", "path", path, "error", err)
	default:
		if t, err := ParseTheme(string(f.Theme)); err == nil {
			s.theme = t
		}
	}
	return s
}

func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Store) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(t)
}

// Toggle flips between light and dark and returns the new theme.
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.theme.Toggled()
	return t, s.setLocked(t)
}

func (s *Store) setLocked(t Theme) error {
	s.theme = t
	if s.path == "" {
		return nil
	}
	if err := utils.Save(s.path, file{Theme: t}); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
