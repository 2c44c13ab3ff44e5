package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const MsgPDFFailed = "Failed to generate PDF. Please try again."

const panelImage = "panel"

// MaxRasterPixels bounds an uploaded capture, checked before any pixel data
// is decoded.
const MaxRasterPixels = 40_000_000

var ErrRasterTooLarge = errors.New("panel image too large")

// PDF lays raster out on A4 portrait pages, fitted to the page width. Every
// page draws the whole image, shifted up by one page height per page, so each
// shows its own slice. It returns the number of pages written.
func PDF(w io.Writer, raster image.Image, title string) (int, error) {
	b := raster.Bounds()
	if b.Empty() {
		return 0, errors.New("empty panel image")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, raster); err != nil {
		return 0, fmt.Errorf("failed to encode panel: %w", err)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("MoodBoard Architect", true)

	pageW, pageH := pdf.GetPageSize()
	imgH := FitHeight(b.Dx(), b.Dy(), pageW)

	opts := fpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	pdf.RegisterImageOptionsReader(panelImage, opts, &buf)
	for _, y := range Offsets(imgH, pageH) {
		pdf.AddPage()
		pdf.ImageOptions(panelImage, 0, y, pageW, imgH, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("failed to build pdf: %w", err)
	}
	pages := pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("failed to write pdf: %w", err)
	}
	return pages, nil
}

// DecodeRaster reads an uploaded panel capture: raw PNG/JPEG bytes or a
// data URL of either.
func DecodeRaster(data []byte) (image.Image, error) {
	if s := string(bytes.TrimSpace(data)); strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URL: %w", err)
		}
		data = raw
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode panel image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxRasterPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrRasterTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode panel image: %w", err)
	}
	return img, nil
}
