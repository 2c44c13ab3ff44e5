package server

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/images"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/prefs"
)

const maxBodySize = "32M"

type Server struct {
	Echo       *echo.Echo
	Controller *controller.Controller
	Prefs      *prefs.Store
	Images     *images.Store
	Ctx        context.Context

	hub  *hub
	pdfs *cache.Cache
}

func NewServer(ctx context.Context, ctrl *controller.Controller, p *prefs.Store, imgs *images.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(maxBodySize))

	s := &Server{
		Echo:       e,
		Controller: ctrl,
		Prefs:      p,
		Images:     imgs,
		Ctx:        ctx,
		hub:        newHub(),
		pdfs:       cache.New(10*time.Minute, 20*time.Minute),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)

	api := s.Echo.Group("/api")
	api.GET("/options", s.handleGetOptions)
	api.GET("/state", s.handleGetState)
	api.POST("/generate", s.handlePostGenerate) // ?stream=1 for SSE progress

	api.PUT("/scenes/:id", s.handlePutScene)         // whole scene replacement
	api.PATCH("/scenes/:id", s.handlePatchScene)     // typed edit ops
	api.POST("/scenes/:id/image", s.handlePostImage) // regenerate one thumbnail
	api.POST("/prompt", s.handlePostPrompt)
	api.PUT("/aspect", s.handlePutAspect) // used by later thumbnail regenerations

	api.GET("/export/json", s.handleGetExportJSON)
	api.GET("/export/pdf", s.handleGetExportPDF)
	api.POST("/export/pdf", s.handlePostExportPDF) // client-captured panel
	api.POST("/import", s.handlePostImport)

	api.GET("/theme", s.handleGetTheme)
	api.PUT("/theme", s.handlePutTheme)
	api.POST("/theme/toggle", s.handlePostThemeToggle)

	api.GET("/ws", s.handleWebSocket)

	if s.Images != nil {
		s.Echo.Static(strings.TrimSuffix(s.Images.Prefix(), "/"), s.Images.Dir())
	}
}

func (s *Server) Start(addr string) error {
	log.Info("server listening", "addr", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("shutting down server")
	s.hub.closeAll()
	return s.Echo.Shutdown(ctx)
}

// fail turns a classified error into an HTTP error carrying its user-facing
// message.
func fail(err error) error {
	status := apperr.Status(err)
	if status >= 500 {
		log.Error("request failed", "error", err)
	} else {
		log.Debug("request rejected", "status", status, "error", err)
	}
	return echo.NewHTTPError(status, apperr.Message(err)).SetInternal(err)
}
