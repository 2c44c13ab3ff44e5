package schema

import (
	"fmt"
	"slices"
	"strings"
)

type VideoLength string

const (
	Length8s  VideoLength = "8s"
	Length16s VideoLength = "16s"
	Length30s VideoLength = "30s"
)

type StylePreset string

const (
	StyleCinematic          StylePreset = "cinematic"
	StyleComedyShort        StylePreset = "comedy-short"
	StyleEdgyEditorial      StylePreset = "edgy-editorial"
	StyleChildrensStory     StylePreset = "childrens-story"
	Style3DAnimation        StylePreset = "3d-animation"
	StyleActionPacked       StylePreset = "action-packed"
	StyleCorporateExplainer StylePreset = "corporate-explainer"
	StyleDocumentary        StylePreset = "documentary"
	StyleEditorial          StylePreset = "editorial"
	StyleRetroFilm          StylePreset = "retro-film"
	StyleTimeLapse          StylePreset = "time-lapse"
)

type AspectRatio string

const (
	Aspect16x9 AspectRatio = "16:9"
	Aspect9x16 AspectRatio = "9:16"
	Aspect1x1  AspectRatio = "1:1"
	Aspect4x3  AspectRatio = "4:3"
)

const (
	DefaultLength = Length16s
	DefaultStyle  = StyleCinematic
	DefaultAspect = Aspect16x9
)

// Option is a selectable value with its display label.
type Option[T ~string] struct {
	Value T      `json:"value"`
	Label string `json:"label"`
}

var VideoLengths = []Option[VideoLength]{
	{Length8s, "8 seconds"},
	{Length16s, "16 seconds"},
	{Length30s, "30 seconds"},
}

var StylePresets = []Option[StylePreset]{
	{StyleCinematic, "Cinematic"},
	{StyleComedyShort, "Comedy"},
	{StyleEdgyEditorial, "Edgy"},
	{StyleChildrensStory, "Children's"},
	{Style3DAnimation, "3D Animation"},
	{StyleActionPacked, "Action"},
	{StyleCorporateExplainer, "Explainer"},
	{StyleDocumentary, "Documentary"},
	{StyleEditorial, "Editorial"},
	{StyleRetroFilm, "Retro Film"},
	{StyleTimeLapse, "Time-lapse"},
}

var AspectRatios = []Option[AspectRatio]{
	{Aspect16x9, "16:9 Landscape"},
	{Aspect9x16, "9:16 Portrait"},
	{Aspect1x1, "1:1 Square"},
	{Aspect4x3, "4:3 Classic"},
}

func ParseVideoLength(s string) (VideoLength, error) {
	return parseOption(s, DefaultLength, VideoLengths, "video length")
}

func ParseStylePreset(s string) (StylePreset, error) {
	return parseOption(s, DefaultStyle, StylePresets, "style preset")
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	return parseOption(s, DefaultAspect, AspectRatios, "aspect ratio")
}

// parseOption returns def for an empty value and an error for an unknown one.
func parseOption[T ~string](s string, def T, opts []Option[T], what string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	if slices.ContainsFunc(opts, func(o Option[T]) bool { return string(o.Value) == s }) {
		return T(s), nil
	}
	return def, fmt.Errorf("unknown %s %q", what, s)
}
