package server

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/diff"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/edit"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

// PUT /api/scenes/:id
func (s *Server) handlePutScene(c echo.Context) error {
	var scene schema.Scene
	if err := c.Bind(&scene); err != nil {
		log.Warn("invalid JSON in PUT /api/scenes", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if !s.Controller.UpdateScene(c.Param("id"), scene) {
		return echo.NewHTTPError(http.StatusNotFound, "scene not found")
	}
	return c.JSON(http.StatusOK, s.view(s.Controller.State()))
}

type editResp struct {
	Fields []diff.FieldDiff `json:"fields"`
	State  stateView        `json:"state"`
}

// PATCH /api/scenes/:id
func (s *Server) handlePatchScene(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	ops, err := edit.Decode(body)
	if err != nil {
		return fail(err)
	}
	fields, err := s.Controller.EditScene(c.Param("id"), ops...)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, editResp{Fields: fields, State: s.view(s.Controller.State())})
}

// POST /api/scenes/:id/image
func (s *Server) handlePostImage(c echo.Context) error {
	if err := s.Controller.RegenerateSceneImage(c.Param("id")); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusAccepted, s.view(s.Controller.State()))
}

type aspectReq struct {
	AspectRatio string `json:"aspect_ratio"`
}

// PUT /api/aspect
func (s *Server) handlePutAspect(c echo.Context) error {
	var req aspectReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	a, err := schema.ParseAspectRatio(req.AspectRatio)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown aspect ratio.")
	}
	s.Controller.SetAspect(a)
	return c.JSON(http.StatusOK, s.view(s.Controller.State()))
}

type promptResp struct {
	Diff  diff.StringDiff `json:"diff"`
	State stateView       `json:"state"`
}

// POST /api/prompt
func (s *Server) handlePostPrompt(c echo.Context) error {
	d, err := s.Controller.RegeneratePrompt(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, promptResp{Diff: d, State: s.view(s.Controller.State())})
}
