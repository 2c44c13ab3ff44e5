package diff

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/aryann/difflib"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

type ChangeType int

const (
	Unchanged ChangeType = iota
	Added
	Removed
	Modified
)

func (c ChangeType) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unchanged"
	}
}

func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ChangeType) UnmarshalText(b []byte) error {
	for _, t := range []ChangeType{Unchanged, Added, Removed, Modified} {
		if t.String() == string(b) {
			*c = t
			return nil
		}
	}
	return fmt.Errorf("unknown change type %q", b)
}

type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

func (o Op) MarshalText() ([]byte, error) {
	switch o {
	case Insert:
		return []byte("insert"), nil
	case Delete:
		return []byte("delete"), nil
	default:
		return []byte("equal"), nil
	}
}

func (o *Op) UnmarshalText(b []byte) error {
	switch string(b) {
	case "equal":
		*o = Equal
	case "insert":
		*o = Insert
	case "delete":
		*o = Delete
	default:
		return fmt.Errorf("unknown diff op %q", b)
	}
	return nil
}

type WordDelta struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

type StringDiff struct {
	Old    string      `json:"old"`
	New    string      `json:"new"`
	Deltas []WordDelta `json:"deltas"`
}

func (s StringDiff) Changed() bool { return s.Old != s.New }

type FieldDiff struct {
	Path string     `json:"path"`
	Str  StringDiff `json:"diff"`
}

type SceneDiff struct {
	ID     string      `json:"id"`
	State  ChangeType  `json:"state"`
	Fields []FieldDiff `json:"fields,omitempty"`
}

type MoodboardDiff struct {
	Title  *StringDiff `json:"title,omitempty"`
	Scenes []SceneDiff `json:"scenes,omitempty"`
	Prompt *StringDiff `json:"final_prompt,omitempty"`
}

func (d MoodboardDiff) Empty() bool {
	return d.Title == nil && d.Prompt == nil && len(d.Scenes) == 0
}

// Moodboards compares two boards. Scenes are paired by id and unchanged ones
// are left out.
func Moodboards(oldM, newM *schema.Moodboard) MoodboardDiff {
	var o, n schema.Moodboard
	if oldM != nil {
		o = *oldM
	}
	if newM != nil {
		n = *newM
	}
	var d MoodboardDiff
	if o.Title != n.Title {
		sd := Words(o.Title, n.Title)
		d.Title = &sd
	}
	if o.FinalPrompt != n.FinalPrompt {
		sd := Prompt(o.FinalPrompt, n.FinalPrompt)
		d.Prompt = &sd
	}
	for _, sd := range Scenes(o.Scenes, n.Scenes) {
		if sd.State != Unchanged {
			d.Scenes = append(d.Scenes, sd)
		}
	}
	return d
}

// Prompt diffs two consolidated prompts word by word.
func Prompt(oldP, newP string) StringDiff {
	return Words(oldP, newP)
}

// Scenes pairs scenes by id, keeping the new order and appending removed scenes.
func Scenes(oldS, newS []schema.Scene) []SceneDiff {
	byID := make(map[string]schema.Scene, len(oldS))
	for _, s := range oldS {
		byID[s.ID] = s
	}
	seen := make(map[string]struct{}, len(newS))

	out := make([]SceneDiff, 0, max(len(oldS), len(newS)))
	for _, n := range newS {
		seen[n.ID] = struct{}{}
		o, ok := byID[n.ID]
		if !ok {
			out = append(out, SceneDiff{ID: n.ID, State: Added, Fields: SceneFields(schema.Scene{}, n)})
			continue
		}
		fd := SceneFields(o, n)
		state := Unchanged
		if len(fd) > 0 {
			state = Modified
		}
		out = append(out, SceneDiff{ID: n.ID, State: state, Fields: fd})
	}
	for _, o := range oldS {
		if _, ok := seen[o.ID]; !ok {
			out = append(out, SceneDiff{ID: o.ID, State: Removed})
		}
	}
	return out
}

// SceneFields lists the text fields that differ between two versions of a
// scene. The id and thumbnail are not content and are never compared.
func SceneFields(o, n schema.Scene) []FieldDiff {
	fd := make([]FieldDiff, 0, 8)
	add := func(path, a, b string) {
		if a == b {
			return
		}
		fd = append(fd, FieldDiff{Path: path, Str: Words(a, b)})
	}

	add("summary", o.Summary, n.Summary)
	add("duration_seconds", seconds(o.DurationSeconds), seconds(n.DurationSeconds))
	add("camera.angle", o.Camera.Angle, n.Camera.Angle)
	add("camera.shot_type", o.Camera.ShotType, n.Camera.ShotType)
	add("camera.focal_length", o.Camera.FocalLength, n.Camera.FocalLength)
	add("camera.aperture", o.Camera.Aperture, n.Camera.Aperture)
	add("camera.shutter_speed", o.Camera.ShutterSpeed, n.Camera.ShutterSpeed)
	add("camera.movement", o.Camera.Movement, n.Camera.Movement)

	for i := range max(len(o.Characters), len(n.Characters)) {
		var a, b schema.Character
		if i < len(o.Characters) {
			a = o.Characters[i]
		}
		if i < len(n.Characters) {
			b = n.Characters[i]
		}
		p := "characters." + strconv.Itoa(i) + "."
		add(p+"name", a.Name, b.Name)
		add(p+"age_range", a.AgeRange, b.AgeRange)
		add(p+"looks", a.Looks, b.Looks)
		add(p+"clothing", a.Clothing, b.Clothing)
		add(p+"dominant_emotion", a.DominantEmotion, b.DominantEmotion)
	}

	add("lighting", o.Lighting, n.Lighting)
	if !slices.Equal(o.ColorPalette, n.ColorPalette) {
		add("color_palette", strings.Join(o.ColorPalette, " "), strings.Join(n.ColorPalette, " "))
	}
	add("sound.music", o.Sound.Music, n.Sound.Music)
	add("sound.sfx", o.Sound.SFX, n.Sound.SFX)
	if !slices.Equal(o.ShotInstructions, n.ShotInstructions) {
		add("shot_instructions", strings.Join(o.ShotInstructions, "\n"), strings.Join(n.ShotInstructions, "\n"))
	}
	add("thumbnail_prompt", o.ThumbnailPrompt, n.ThumbnailPrompt)
	return fd
}

func seconds(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Words diffs a and b on word boundaries. Whitespace runs are their own
// tokens so the deltas concatenate back to the inputs.
func Words(a, b string) StringDiff {
	if a == b {
		return StringDiff{Old: a, New: b, Deltas: []WordDelta{{Op: Equal, Text: a}}}
	}
	recs := difflib.Diff(Tokenize(a), Tokenize(b))
	deltas := make([]WordDelta, 0, len(recs))
	for _, r := range recs {
		switch r.Delta {
		case difflib.Common:
			deltas = append(deltas, WordDelta{Op: Equal, Text: r.Payload})
		case difflib.LeftOnly:
			deltas = append(deltas, WordDelta{Op: Delete, Text: r.Payload})
		case difflib.RightOnly:
			deltas = append(deltas, WordDelta{Op: Insert, Text: r.Payload})
		}
	}
	return StringDiff{Old: a, New: b, Deltas: coalesce(deltas)}
}

// Tokenize splits s into alternating word and whitespace tokens.
func Tokenize(s string) []string {
	var out []string
	var buf strings.Builder
	space := false
	for i, r := range s {
		isSpace := unicode.IsSpace(r)
		if i > 0 && isSpace != space {
			out = append(out, buf.String())
			buf.Reset()
		}
		space = isSpace
		buf.WriteRune(r)
	}
	if buf.Len() > 0 {
		out = append(out, buf.String())
	}
	return out
}

// coalesce merges adjacent deltas with the same op.
func coalesce(in []WordDelta) []WordDelta {
	out := make([]WordDelta, 0, len(in))
	for _, d := range in {
		if n := len(out); n > 0 && out[n-1].Op == d.Op {
			out[n-1].Text += d.Text
			continue
		}
		out = append(out, d)
	}
	return out
}

// OldText rebuilds the left side from the deltas.
func (s StringDiff) OldText() string { return s.join(Delete) }

// NewText rebuilds the right side from the deltas.
func (s StringDiff) NewText() string { return s.join(Insert) }

func (s StringDiff) join(keep Op) string {
	var b strings.Builder
	for _, d := range s.Deltas {
		if d.Op == Equal || d.Op == keep {
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

const (
	ansiReset = "\x1b[0m"
	fgGreen   = "\x1b[32m"
	fgRed     = "\x1b[31m"
	fgYellow  = "\x1b[33m"
	fgCyan    = "\x1b[36m"
	uline     = "\x1b[4m"
	strike    = "\x1b[9m"
)

func render(sd StringDiff) string {
	var b strings.Builder
	for _, d := range sd.Deltas {
		switch d.Op {
		case Equal:
			b.WriteString(d.Text)
		case Insert:
			fmt.Fprintf(&b, "%s%s%s%s", fgGreen, uline, d.Text, ansiReset)
		case Delete:
			fmt.Fprintf(&b, "%s%s%s%s", fgRed, strike, d.Text, ansiReset)
		}
	}
	return b.String()
}

var tags = map[ChangeType]string{
	Added:    fgGreen + "[+]" + ansiReset,
	Removed:  fgRed + "[-]" + ansiReset,
	Modified: fgYellow + "[~]" + ansiReset,
}

// Print writes a colored, terminal-friendly rendering of d.
func (d MoodboardDiff) Print(w io.Writer) {
	if d.Title != nil {
		fmt.Fprintf(w, "%sTitle%s: %s\n", fgCyan, ansiReset, render(*d.Title))
	}
	if len(d.Scenes) > 0 {
		fmt.Fprintln(w, fgCyan+"Scenes"+ansiReset)
		for _, s := range d.Scenes {
			fmt.Fprintf(w, "  %s %s\n", tags[s.State], s.ID)
			for _, f := range s.Fields {
				fmt.Fprintf(w, "    %s: %s\n", f.Path, render(f.Str))
			}
		}
	}
	if d.Prompt != nil {
		fmt.Fprintln(w, fgCyan+"Final prompt"+ansiReset)
		fmt.Fprintf(w, "  %s\n", render(*d.Prompt))
	}
}
