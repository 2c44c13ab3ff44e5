package generator

import (
	"regexp"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/inference"
)

const (
	MsgEmptyStory       = "Please enter a story idea."
	MsgStructureFailed  = "Failed to generate moodboard"
	MsgInvalidStructure = "Invalid JSON structure received from API."
	MsgImageFailed      = "Failed to generate image"
	MsgPromptFailed     = "Failed to update the final prompt."
	MsgPromptTooLong    = "The moodboard is too long to regenerate the prompt. Try shortening scene details."
)

var (
	tooLargeRX = regexp.MustCompile(`(?i)too large|too long|exceeds (the )?(maximum|max|limit)|token limit|payload size|context length`)
	throttleRX = regexp.MustCompile(`(?i)\b429\b|too many requests|quota|rate.?limit|resource.?exhausted`)
)

// isTooLarge matches backend failures caused by request size, by status first
// and then by the failure text. Throttling is never a size problem.
func isTooLarge(err error) bool {
	if err == nil {
		return false
	}
	if inference.IsTooLarge(err) {
		return true
	}
	if inference.IsRateLimited(err) {
		return false
	}
	msg := err.Error()
	return !throttleRX.MatchString(msg) && tooLargeRX.MatchString(msg)
}
