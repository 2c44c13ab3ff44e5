package server

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

type generateReq struct {
	Story       string `json:"story"`
	Length      string `json:"length"`
	Style       string `json:"style"`
	AspectRatio string `json:"aspect_ratio"`
}

// POST /api/generate
func (s *Server) handlePostGenerate(c echo.Context) error {
	var req generateReq
	if err := c.Bind(&req); err != nil {
		log.Warn("invalid JSON in /api/generate", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	in, err := controller.ParseInput(req.Story, req.Length, req.Style, req.AspectRatio)
	if err != nil {
		return fail(err)
	}

	if stream, _ := strconv.ParseBool(c.QueryParam("stream")); stream {
		return s.streamGenerate(c, in)
	}

	if _, err := s.Controller.Generate(c.Request().Context(), in); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, s.view(s.Controller.State()))
}

// streamGenerate sends a "state" event for every change until the structure
// is installed and every thumbnail has settled.
func (s *Server) streamGenerate(c echo.Context, in controller.Input) error {
	w, err := utils.NewSSEWriter(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer w.Close()

	updates, cancel := s.Controller.Subscribe()
	defer cancel()

	ctx := c.Request().Context()
	errc := make(chan error, 1)
	go func() {
		_, err := s.Controller.Generate(ctx, in)
		errc <- err
	}()

	installed := false
	for {
		select {
		case err := <-errc:
			errc = nil
			if err != nil {
				_ = w.Event("error", utils.ErrJSON(apperr.Message(err)))
				return nil
			}
			installed = true
			st := s.Controller.State()
			if err := w.Event("state", s.view(st)); err != nil {
				log.Warn("SSE write error", "error", err)
				return nil
			}
			if st.Settled() {
				return nil
			}
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if err := w.Event("state", s.view(st)); err != nil {
				log.Warn("SSE write error", "error", err)
				return nil
			}
			if installed && st.Settled() {
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}
