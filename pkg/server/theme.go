package server

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/prefs"
)

type themeReq struct {
	Theme string `json:"theme"`
}

type themeResp struct {
	Theme prefs.Theme `json:"theme"`
}

// GET /api/theme
func (s *Server) handleGetTheme(c echo.Context) error {
	return c.JSON(http.StatusOK, themeResp{Theme: s.Prefs.Theme()})
}

// PUT /api/theme
func (s *Server) handlePutTheme(c echo.Context) error {
	var req themeReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	t, err := prefs.ParseTheme(req.Theme)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.Prefs.SetTheme(t); err != nil {
		// The in-memory value already changed; only persistence failed.
		log.Warn("theme not persisted", "error", err)
	}
	s.hub.nudge()
	return c.JSON(http.StatusOK, themeResp{Theme: t})
}

// POST /api/theme/toggle
func (s *Server) handlePostThemeToggle(c echo.Context) error {
	t, err := s.Prefs.Toggle()
	if err != nil {
		log.Warn("theme not persisted", "error", err)
	}
	s.hub.nudge()
	return c.JSON(http.StatusOK, themeResp{Theme: t})
}
