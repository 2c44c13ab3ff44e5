package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/patrickmn/go-cache"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/export"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

func attach(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

func (s *Server) board() (controller.State, error) {
	st := s.Controller.State()
	if st.Moodboard == nil {
		return st, controller.ErrNoBoard
	}
	return st, nil
}

// GET /api/export/json
func (s *Server) handleGetExportJSON(c echo.Context) error {
	st, err := s.board()
	if err != nil {
		return fail(err)
	}
	data, err := export.JSON(st.Moodboard)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to encode moodboard").SetInternal(err)
	}
	attach(c, export.Filename(st.Moodboard.Title, export.ExtJSON))
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

// GET /api/export/pdf renders the panel server-side. Results are cached per
// state revision and theme.
func (s *Server) handleGetExportPDF(c echo.Context) error {
	st, err := s.board()
	if err != nil {
		return fail(err)
	}
	theme := s.Prefs.Theme()
	key := fmt.Sprintf("%d/%s", st.Revision, theme)

	data, ok := s.pdfs.Get(key)
	if !ok {
		var opener export.ImageOpener
		if s.Images != nil {
			opener = s.Images
		}
		raster, err := export.Render(st.Moodboard, theme, opener)
		if err != nil {
			log.Error("failed to render panel", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, export.MsgPDFFailed).SetInternal(err)
		}
		pdf, err := s.writePDF(raster, st.Moodboard)
		if err != nil {
			return err
		}
		s.pdfs.Set(key, pdf, cache.DefaultExpiration)
		data = pdf
	}

	attach(c, export.Filename(st.Moodboard.Title, export.ExtPDF))
	return c.Blob(http.StatusOK, "application/pdf", data.([]byte))
}

// POST /api/export/pdf paginates a panel image the client captured itself,
// sent as raw PNG/JPEG bytes or a data URL.
func (s *Server) handlePostExportPDF(c echo.Context) error {
	st, err := s.board()
	if err != nil {
		return fail(err)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	raster, err := export.DecodeRaster(body)
	if err != nil {
		return fail(apperr.New(apperr.KindInput, export.MsgPDFFailed, err))
	}
	pdf, err := s.writePDF(raster, st.Moodboard)
	if err != nil {
		return err
	}
	attach(c, export.Filename(st.Moodboard.Title, export.ExtPDF))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func (s *Server) writePDF(raster image.Image, mb *schema.Moodboard) ([]byte, error) {
	var buf bytes.Buffer
	pages, err := export.PDF(&buf, raster, mb.Title)
	if err != nil {
		log.Error("failed to write pdf", "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, export.MsgPDFFailed).SetInternal(err)
	}
	log.Info("exported pdf", "title", mb.Title, "pages", pages, "bytes", buf.Len())
	return buf.Bytes(), nil
}

// POST /api/import
func (s *Server) handlePostImport(c echo.Context) error {
	var doc entities.Moodboard
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&doc); err != nil {
		return fail(apperr.New(apperr.KindInput, "Invalid moodboard file.", err))
	}
	if _, err := s.Controller.Import(doc); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, s.view(s.Controller.State()))
}
