package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/prefs"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

func (s *Server) handleGetRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service": "MoodBoard Architect API",
		"status":  "ok",
	})
}

type optionsView struct {
	Lengths      []schema.Option[schema.VideoLength] `json:"lengths"`
	Styles       []schema.Option[schema.StylePreset] `json:"styles"`
	AspectRatios []schema.Option[schema.AspectRatio] `json:"aspect_ratios"`
	Defaults     struct {
		Length      schema.VideoLength `json:"length"`
		Style       schema.StylePreset `json:"style"`
		AspectRatio schema.AspectRatio `json:"aspect_ratio"`
	} `json:"defaults"`
}

// GET /api/options
func (s *Server) handleGetOptions(c echo.Context) error {
	v := optionsView{
		Lengths:      schema.VideoLengths,
		Styles:       schema.StylePresets,
		AspectRatios: schema.AspectRatios,
	}
	v.Defaults.Length = schema.DefaultLength
	v.Defaults.Style = schema.DefaultStyle
	v.Defaults.AspectRatio = schema.DefaultAspect
	return c.JSON(http.StatusOK, v)
}

// GET /api/state
func (s *Server) handleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.view(s.Controller.State()))
}

type sceneView struct {
	schema.Scene
	ThumbnailError string `json:"thumbnail_error,omitempty"`
}

type moodboardView struct {
	Title         string      `json:"title"`
	Scenes        []sceneView `json:"scenes"`
	FinalPrompt   string      `json:"final_prompt"`
	IsDirty       bool        `json:"is_dirty"`
	TotalDuration float64     `json:"total_duration_seconds"`
}

type stateView struct {
	Moodboard      *moodboardView     `json:"moodboard"`
	Generating     bool               `json:"generating"`
	UpdatingPrompt bool               `json:"updating_prompt"`
	Settled        bool               `json:"settled"`
	Error          string             `json:"error,omitempty"`
	AspectRatio    schema.AspectRatio `json:"aspect_ratio"`
	Theme          prefs.Theme        `json:"theme"`
	Revision       uint64             `json:"revision"`
}

func (s *Server) view(st controller.State) stateView {
	v := stateView{
		Generating:     st.Generating,
		UpdatingPrompt: st.UpdatingPrompt,
		Settled:        st.Settled(),
		Error:          st.Error,
		AspectRatio:    st.Aspect,
		Theme:          s.Prefs.Theme(),
		Revision:       st.Revision,
	}
	if mb := st.Moodboard; mb != nil {
		mv := &moodboardView{
			Title:         mb.Title,
			Scenes:        make([]sceneView, len(mb.Scenes)),
			FinalPrompt:   mb.FinalPrompt,
			IsDirty:       mb.Dirty,
			TotalDuration: mb.TotalDuration(),
		}
		for i, sc := range mb.Scenes {
			mv.Scenes[i] = sceneView{Scene: sc, ThumbnailError: sc.Thumbnail.Reason()}
		}
		v.Moodboard = mv
	}
	return v
}
