package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/prefs"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

const (
	PanelWidth = 800

	pad        = 24
	lineHeight = 18
	titleScale = 2
	swatchSize = 28
)

// ImageOpener resolves thumbnail references. *images.Store satisfies it.
type ImageOpener interface {
	Open(ref string) (image.Image, error)
}

type palette struct {
	bg, card, fg, muted, accent, placeholder color.RGBA
}

var palettes = map[prefs.Theme]palette{
	prefs.ThemeDark: {
		bg:          rgb(0x1a, 0x1a, 0x1f),
		card:        rgb(0x24, 0x24, 0x2b),
		fg:          rgb(0xf3, 0xf4, 0xf6),
		muted:       rgb(0x9c, 0xa3, 0xaf),
		accent:      rgb(0xa7, 0x8b, 0xfa),
		placeholder: rgb(0x37, 0x37, 0x41),
	},
	prefs.ThemeLight: {
		bg:          rgb(0xf9, 0xfa, 0xfb),
		card:        rgb(0xff, 0xff, 0xff),
		fg:          rgb(0x11, 0x18, 0x27),
		muted:       rgb(0x6b, 0x72, 0x80),
		accent:      rgb(0x7c, 0x3a, 0xed),
		placeholder: rgb(0xe5, 0xe7, 0xeb),
	},
}

func rgb(r, g, b uint8) color.RGBA { return color.RGBA{R: r, G: g, B: b, A: 0xff} }

// Render draws the moodboard as one tall panel, the same content the web
// view shows. The layout runs twice: once to measure the height, once to
// paint.
func Render(mb *schema.Moodboard, theme prefs.Theme, opener ImageOpener) (image.Image, error) {
	if mb == nil {
		return nil, errors.New("no moodboard to render")
	}
	pal, ok := palettes[theme]
	if !ok {
		pal = palettes[prefs.DefaultTheme]
	}

	measure := &painter{pal: pal}
	measure.board(mb)

	dst := image.NewRGBA(image.Rect(0, 0, PanelWidth, measure.y+pad))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(pal.bg), image.Point{}, draw.Src)

	paint := &painter{dst: dst, pal: pal, opener: opener, cards: measure.cards}
	paint.board(mb)
	if paint.y != measure.y {
		return nil, fmt.Errorf("layout mismatch: measured %d, painted %d", measure.y, paint.y)
	}
	return dst, nil
}

// painter advances y through the layout and only touches pixels when dst is
// set.
type painter struct {
	dst    *image.RGBA
	pal    palette
	opener ImageOpener
	y      int

	// cards holds each scene card's height, recorded while measuring.
	cards []int
}

var face = basicfont.Face7x13

func (p *painter) board(mb *schema.Moodboard) {
	p.y = pad
	p.title(mb.Title)
	p.text(fmt.Sprintf("Total Length: %ss", formatSeconds(mb.TotalDuration())), p.pal.muted, 0)
	p.gap(lineHeight)

	for i, sc := range mb.Scenes {
		p.scene(i, sc)
		p.gap(lineHeight)
	}

	p.heading("Final Prompt")
	if mb.Dirty {
		p.text("Scenes changed since this prompt was written.", p.pal.accent, 0)
	}
	p.text(mb.FinalPrompt, p.pal.fg, 0)
}

func (p *painter) scene(i int, sc schema.Scene) {
	top := p.y
	if p.dst != nil && i < len(p.cards) {
		r := image.Rect(pad/2, top, PanelWidth-pad/2, top+p.cards[i])
		draw.Draw(p.dst, r, image.NewUniform(p.pal.card), image.Point{}, draw.Src)
	}
	p.y += pad / 2
	p.heading(fmt.Sprintf("Scene %d  (%ss)", i+1, formatSeconds(sc.DurationSeconds)))
	p.text(sc.Summary, p.pal.fg, 0)
	p.gap(lineHeight / 2)
	p.thumbnail(sc.Thumbnail)
	p.gap(lineHeight / 2)
	p.swatches(sc.ColorPalette)

	cam := sc.Camera
	p.field("Camera", strings.Join(nonEmpty(cam.Angle, cam.ShotType, cam.FocalLength, cam.Aperture, cam.ShutterSpeed, cam.Movement), ", "))
	p.field("Lighting", sc.Lighting)
	p.field("Music", sc.Sound.Music)
	p.field("SFX", sc.Sound.SFX)

	if len(sc.Characters) > 0 {
		p.label("Characters")
		for _, c := range sc.Characters {
			line := c.Name
			if c.AgeRange != "" {
				line += " (" + c.AgeRange + ")"
			}
			if rest := strings.Join(nonEmpty(c.Looks, c.Clothing, c.DominantEmotion), "; "); rest != "" {
				line += ": " + rest
			}
			p.text(line, p.pal.fg, 12)
		}
	}
	if len(sc.ShotInstructions) > 0 {
		p.label("Shot Instructions")
		for _, s := range sc.ShotInstructions {
			p.text("- "+s, p.pal.fg, 12)
		}
	}
	p.field("Thumbnail Prompt", sc.ThumbnailPrompt)
	p.y += pad / 2
	if p.dst == nil {
		p.cards = append(p.cards, p.y-top)
	}
}

func (p *painter) gap(n int) { p.y += n }

func (p *painter) heading(s string) { p.text(s, p.pal.accent, 0) }

func (p *painter) label(s string) { p.text(s+":", p.pal.muted, 0) }

func (p *painter) field(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.label(name)
	p.text(value, p.pal.fg, 12)
}

// text wraps s to the panel width and draws it line by line.
func (p *painter) text(s string, col color.RGBA, indent int) {
	x := pad + indent
	for _, line := range wrap(s, PanelWidth-pad-x) {
		if p.dst != nil {
			d := font.Drawer{
				Dst:  p.dst,
				Src:  image.NewUniform(col),
				Face: face,
				Dot:  fixed.P(x, p.y+face.Ascent),
			}
			d.DrawString(line)
		}
		p.y += lineHeight
	}
}

// title draws at titleScale by painting the glyphs small and scaling up.
func (p *painter) title(s string) {
	if strings.TrimSpace(s) == "" {
		s = "Untitled"
	}
	for _, line := range wrap(s, (PanelWidth-2*pad)/titleScale) {
		if p.dst != nil {
			w := font.MeasureString(face, line).Ceil()
			small := image.NewRGBA(image.Rect(0, 0, max(w, 1), face.Height))
			d := font.Drawer{Dst: small, Src: image.NewUniform(p.pal.fg), Face: face, Dot: fixed.P(0, face.Ascent)}
			d.DrawString(line)
			r := image.Rect(pad, p.y, pad+small.Rect.Dx()*titleScale, p.y+face.Height*titleScale)
			draw.NearestNeighbor.Scale(p.dst, r, small, small.Bounds(), draw.Over, nil)
		}
		p.y += face.Height*titleScale + 6
	}
	p.gap(6)
}

// thumbnail fills a 16:9 box with the scene image or a placeholder.
func (p *painter) thumbnail(t schema.Thumbnail) {
	box := image.Rect(pad, p.y, PanelWidth-pad, p.y+(PanelWidth-2*pad)*9/16)
	p.y = box.Max.Y
	if p.dst == nil {
		return
	}

	draw.Draw(p.dst, box, image.NewUniform(p.pal.placeholder), image.Point{}, draw.Src)
	caption := ""
	switch t.State {
	case schema.ThumbnailPending:
		caption = "Loading..."
	case schema.ThumbnailFailed:
		caption = "Image generation failed"
	case schema.ThumbnailAbsent:
		caption = "No image"
	case schema.ThumbnailReady:
		img, err := p.open(t.Ref)
		if err != nil {
			log.Warn("thumbnail unavailable for export", "ref", t.Ref, "error", err)
			caption = "Image unavailable"
			break
		}
		draw.CatmullRom.Scale(p.dst, fit(img.Bounds(), box), img, img.Bounds(), draw.Over, nil)
		return
	}

	w := font.MeasureString(face, caption).Ceil()
	d := font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(p.pal.muted),
		Face: face,
		Dot:  fixed.P(box.Min.X+(box.Dx()-w)/2, box.Min.Y+box.Dy()/2),
	}
	d.DrawString(caption)
}

func (p *painter) open(ref string) (image.Image, error) {
	if p.opener == nil {
		return nil, errors.New("no image source")
	}
	return p.opener.Open(ref)
}

func (p *painter) swatches(colors []string) {
	if len(colors) == 0 {
		return
	}
	x := pad
	for _, hex := range colors {
		c, ok := parseHex(hex)
		if !ok {
			continue
		}
		if p.dst != nil {
			r := image.Rect(x, p.y, x+swatchSize, p.y+swatchSize)
			draw.Draw(p.dst, r, image.NewUniform(c), image.Point{}, draw.Src)
		}
		x += swatchSize + 6
	}
	p.y += swatchSize + lineHeight/2
}

// fit centres src inside box keeping its aspect ratio.
func fit(src, box image.Rectangle) image.Rectangle {
	if src.Dx() == 0 || src.Dy() == 0 {
		return box
	}
	w, h := box.Dx(), src.Dy()*box.Dx()/src.Dx()
	if h > box.Dy() {
		w, h = src.Dx()*box.Dy()/src.Dy(), box.Dy()
	}
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + (box.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// wrap breaks s into lines no wider than width pixels, hard-breaking words
// that do not fit on their own.
func wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, w := range words {
			for font.MeasureString(face, w).Ceil() > width {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				head, tail := breakWord(w, width)
				lines = append(lines, head)
				w = tail
			}
			switch next := line + " " + w; {
			case line == "":
				line = w
			case font.MeasureString(face, next).Ceil() <= width:
				line = next
			default:
				lines = append(lines, line)
				line = w
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func breakWord(w string, width int) (string, string) {
	runes := []rune(w)
	n := 1
	for n < len(runes) && font.MeasureString(face, string(runes[:n+1])).Ceil() <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func parseHex(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return rgb(uint8(v>>16), uint8(v>>8), uint8(v)), true
}

func formatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
