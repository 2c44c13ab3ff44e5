package generator

import (
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

const systemPrompt = `You are "Moodboard Architect", an assistant that transforms short user story text into a structured JSON moodboard for video generation. Output MUST be valid JSON that matches the schema provided. Do not add extra commentary. If uncertain, pick the more cinematic option. Generate a detailed final prompt suitable for a text-to-video generator like Runway or Pika, including aspect ratio, fps, and specific shot timings. For each scene, also create a concise, visually descriptive prompt suitable for an AI image generator to create a thumbnail.`

const userPromptTemplate = `USER_INPUT: "%s"
CONSTRAINTS: %s %s Include a Final Prompt tuned for Runway/Pika: include aspect ratio %s, 24fps, cinematic lens, and specific music/SFX cues. Output JSON only.`

const regeneratePromptTemplate = `Given the following JSON data for a video moodboard, generate a new 'final_prompt' that is a detailed, copy-and-paste ready prompt for a text-to-video AI generator like Runway or Pika. It must consolidate all scene information into a coherent set of instructions, including timings, camera details, style, and audio cues.

JSON DATA:
%s

Respond with only the final prompt text, no extra explanations or markdown.`

// ImagePromptSuffix is appended to every thumbnail prompt.
const ImagePromptSuffix = ", cinematic, high detail, vibrant colors"

const defaultLengthConstraint = "Produce 3 scenes, total ~16s."

var lengthConstraints = map[schema.VideoLength]string{
	schema.Length8s:  "Produce 2 scenes, total ~8s. Scene durations: 3s, 5s.",
	schema.Length16s: "Produce 3 scenes, total ~16s. Scene durations: 4s, 8s, 4s.",
	schema.Length30s: "Produce 4-5 scenes, total ~30s. Use varied durations.",
}

const defaultStyleInstruction = "Visual style: cinematic, balanced composition, professional lighting, filmic colors. Tone: engaging, high-quality."

var styleInstructions = map[schema.StylePreset]string{
	schema.StyleCinematic:          defaultStyleInstruction,
	schema.StyleComedyShort:        "Visual style: bright, saturated, handheld camera, quick cuts. Tone: comedic, upbeat.",
	schema.StyleEdgyEditorial:      "Visual style: high contrast, desaturated colors with a single color pop, dramatic shadows, slow/unconventional camera moves. Tone: edgy, mysterious, fashion-forward.",
	schema.StyleChildrensStory:     "Visual style: soft, pastel colors, whimsical and gentle lighting, smooth camera movements. Tone: innocent, magical, heartwarming.",
	schema.Style3DAnimation:        "Visual style: stylized 3D animation, soft global illumination, rounded character designs, expressive posing. Tone: playful, polished.",
	schema.StyleActionPacked:       "Visual style: fast tracking shots, low angles, motion blur, punchy contrast, whip pans. Tone: intense, kinetic.",
	schema.StyleCorporateExplainer: "Visual style: clean compositions, bright even lighting, brand-friendly palette, steady camera. Tone: clear, confident, friendly.",
	schema.StyleDocumentary:        "Visual style: natural light, observational handheld framing, muted realistic colors. Tone: authentic, informative.",
	schema.StyleEditorial:          "Visual style: curated compositions, magazine-like framing, controlled studio lighting, refined palette. Tone: elegant, stylish.",
	schema.StyleRetroFilm:          "Visual style: 16mm film grain, warm faded colors, soft halation, gentle zooms. Tone: nostalgic, warm.",
	schema.StyleTimeLapse:          "Visual style: locked-off wide shots, accelerated motion, light trails, sweeping sky changes. Tone: contemplative, grand.",
}

// LengthConstraint returns the scene count and duration hint for a target length.
func LengthConstraint(l schema.VideoLength) string {
	if c, ok := lengthConstraints[l]; ok {
		return c
	}
	return defaultLengthConstraint
}

// StyleInstruction returns the visual and tonal brief for a preset.
func StyleInstruction(p schema.StylePreset) string {
	if s, ok := styleInstructions[p]; ok {
		return s
	}
	return defaultStyleInstruction
}
