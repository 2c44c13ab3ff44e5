package config

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Provider string

const (
	ProviderGemini   Provider = "gemini"
	ProviderOpenAI   Provider = "openai"
	ProviderGrok     Provider = "grok"
	ProviderMoonshot Provider = "moonshot"
)

type Gemini struct {
	APIKey     string
	Model      string
	ImageModel string
}

type OpenAI struct {
	APIKey     string
	Model      string
	ImageModel string
	BaseURL    string
}

type Grok struct {
	APIKey string
	Model  string
}

type Moonshot struct {
	APIKey string
	Model  string
}

type Config struct {
	Port string

	Gemini   Gemini
	OpenAI   OpenAI
	Grok     Grok
	Moonshot Moonshot

	ImageDir  string
	PrefsPath string

	ThumbnailsPerMinute int
	ThumbnailCacheTTL   time.Duration
	MaxPromptTokens     int

	LogLevel string
}

const (
	DefaultPort                = "8080"
	DefaultGeminiModel         = "gemini-2.5-flash"
	DefaultImagenModel         = "imagen-4.0-generate-001"
	DefaultOpenAIModel         = "gpt-4o-mini"
	DefaultOpenAIImageModel    = "gpt-image-1"
	DefaultImageDir            = "thumbnails"
	DefaultPrefsPath           = "preferences.json"
	DefaultThumbnailsPerMinute = 10
	DefaultThumbnailCacheTTL   = time.Duration(0)
	DefaultMaxPromptTokens     = 32000
	DefaultLogLevel            = "info"
)

var ErrNoProvider = errors.New("no generation backend configured: set GEMINI_API_KEY, OPENAI_API_KEY, OPENAI_BASE_URL or GROK_API_KEY")

// Load reads the environment. Unset keys take their defaults; malformed
// numbers and durations are errors.
func Load() (Config, error) {
	c := Config{
		Port: cmp.Or(os.Getenv("PORT"), DefaultPort),
		Gemini: Gemini{
			APIKey:     cmp.Or(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY")),
			Model:      cmp.Or(os.Getenv("GEMINI_MODEL"), DefaultGeminiModel),
			ImageModel: cmp.Or(os.Getenv("IMAGEN_MODEL"), DefaultImagenModel),
		},
		OpenAI: OpenAI{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      cmp.Or(os.Getenv("OPENAI_MODEL"), DefaultOpenAIModel),
			ImageModel: cmp.Or(os.Getenv("OPENAI_IMAGE_MODEL"), DefaultOpenAIImageModel),
			BaseURL:    os.Getenv("OPENAI_BASE_URL"),
		},
		Grok: Grok{
			APIKey: os.Getenv("GROK_API_KEY"),
			Model:  os.Getenv("GROK_MODEL"),
		},
		Moonshot: Moonshot{
			APIKey: os.Getenv("MOONSHOT_API_KEY"),
			Model:  os.Getenv("MOONSHOT_MODEL"),
		},
		ImageDir:  cmp.Or(os.Getenv("IMAGE_DIR"), DefaultImageDir),
		PrefsPath: cmp.Or(os.Getenv("PREFS_PATH"), DefaultPrefsPath),
		LogLevel:  cmp.Or(os.Getenv("LOG_LEVEL"), DefaultLogLevel),
	}

	var errs []error
	c.ThumbnailsPerMinute = intVar("THUMBNAILS_PER_MINUTE", DefaultThumbnailsPerMinute, &errs)
	c.MaxPromptTokens = intVar("MAX_PROMPT_TOKENS", DefaultMaxPromptTokens, &errs)
	c.ThumbnailCacheTTL = durationVar("THUMBNAIL_CACHE_TTL", DefaultThumbnailCacheTTL, &errs)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Provider picks the text backend: Gemini first, then any OpenAI-compatible
// endpoint, then Grok, then Moonshot.
func (c Config) Provider() (Provider, error) {
	switch {
	case c.Gemini.APIKey != "":
		return ProviderGemini, nil
	case c.OpenAI.APIKey != "" || c.OpenAI.BaseURL != "":
		return ProviderOpenAI, nil
	case c.Grok.APIKey != "":
		return ProviderGrok, nil
	case c.Moonshot.APIKey != "":
		return ProviderMoonshot, nil
	default:
		return "", ErrNoProvider
	}
}

func (c Config) Addr() string { return ":" + c.Port }

func intVar(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func durationVar(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
