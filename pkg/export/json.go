package export

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/utils"
)

const (
	ExtJSON = ".json"
	ExtPDF  = ".pdf"
)

// JSON encodes the exportable part of mb with two-space indentation.
func JSON(mb *schema.Moodboard) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entities.FromMoodboard(mb)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Filename derives the download name from the title.
func Filename(title, ext string) string {
	slug := utils.SanitizeFilename(utils.Slug(title))
	if strings.Trim(slug, "_") == "" {
		slug = "moodboard"
	}
	return slug + ext
}
