package main

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/config"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/controller"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/generator"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/images"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/inference"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/prefs"
)

const thumbnailPrefix = "/thumbnails/"

// app is everything a command needs, wired from cfg.
type app struct {
	images *images.Store
	prefs  *prefs.Store
	ctrl   *controller.Controller
}

func newApp(cfg config.Config) (*app, error) {
	text, imager, err := backends(cfg)
	if err != nil {
		return nil, err
	}
	store, err := images.NewStore(cfg.ImageDir, thumbnailPrefix)
	if err != nil {
		return nil, err
	}

	gen := generator.New(text, imager, store, generator.WithMaxPromptTokens(cfg.MaxPromptTokens))
	ctrl := controller.New(gen,
		controller.WithThumbnailRate(cfg.ThumbnailsPerMinute),
		controller.WithCacheTTL(cfg.ThumbnailCacheTTL),
	)
	return &app{
		images: store,
		prefs:  prefs.Open(cfg.PrefsPath),
		ctrl:   ctrl,
	}, nil
}

func (a *app) Close() { a.ctrl.Close() }

var errNoImager = errors.New("no image backend configured: set GEMINI_API_KEY, OPENAI_API_KEY or GROK_API_KEY")

// backends picks the text backend by provider priority and the first
// configured backend that can also draw.
func backends(cfg config.Config) (inference.Inferencer, inference.Imager, error) {
	provider, err := cfg.Provider()
	if err != nil {
		return nil, nil, err
	}

	var gemini *inference.GeminiInferencer
	if cfg.Gemini.APIKey != "" {
		if gemini, err = inference.NewGeminiInferencer(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.ImageModel); err != nil {
			return nil, nil, err
		}
	}
	var openAI *inference.OpenAIInferencer
	if cfg.OpenAI.APIKey != "" || cfg.OpenAI.BaseURL != "" {
		openAI = inference.NewOpenAIInferencer(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.ImageModel)
		if cfg.OpenAI.BaseURL != "" {
			openAI.ChangeBaseURL(cfg.OpenAI.BaseURL)
		}
	}
	var grok *inference.OpenAIInferencer
	if cfg.Grok.APIKey != "" {
		grok = inference.NewGrokInferencer(cfg.Grok.APIKey, cfg.Grok.Model)
	}

	var imager inference.Imager
	switch {
	case gemini != nil:
		imager = gemini
	case openAI != nil:
		imager = openAI
	case grok != nil:
		imager = grok
	default:
		return nil, nil, errNoImager
	}

	var text inference.Inferencer
	switch provider {
	case config.ProviderGemini:
		text = gemini
	case config.ProviderOpenAI:
		text = openAI
	case config.ProviderGrok:
		text = grok
	case config.ProviderMoonshot:
		text = inference.NewMoonshotInferencer(cfg.Moonshot.APIKey, cfg.Moonshot.Model)
	}
	log.Info("generation backend", "text", provider, "images", describe(imager))
	return text, imager, nil
}

func describe(i inference.Imager) string {
	switch i.(type) {
	case *inference.GeminiInferencer:
		return string(config.ProviderGemini)
	default:
		return "openai-compatible"
	}
}
