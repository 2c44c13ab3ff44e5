package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/webp"
	"github.com/segmentio/ksuid"
)

const DefaultQuality = 90

var ErrUnknownRef = errors.New("unknown image reference")

// Store keeps generated thumbnails on disk as WebP and hands out URL
// references under prefix.
type Store struct {
	dir     string
	prefix  string
	quality int
}

func NewStore(dir, prefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{dir: dir, prefix: prefix, quality: DefaultQuality}, nil
}

func (s *Store) Dir() string    { return s.dir }
func (s *Store) Prefix() string { return s.prefix }

// Put re-encodes data as WebP and stores it under a fresh name.
func (s *Store) Put(data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: s.quality}); err != nil {
		return "", fmt.Errorf("failed to encode webp: %w", err)
	}

	name := ksuid.New().String() + ".webp"
	fullPath := filepath.Join(s.dir, name)
	if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", fullPath, err)
	}

	log.Debug("stored thumbnail", "file", name, "source", format, "in", len(data), "out", buf.Len())
	return s.prefix + name, nil
}

// Open decodes a reference produced by Put, or an inline data URL.
func (s *Store) Open(ref string) (image.Image, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}
	name, ok := strings.CutPrefix(ref, s.prefix)
	if !ok || name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRef, ref)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(name, ".webp") {
		return webp.Decode(f)
	}
	img, _, err := image.Decode(f)
	return img, err
}

func decodeDataURL(ref string) (image.Image, error) {
	meta, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: malformed data url", ErrUnknownRef)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data url: %w", err)
	}
	if strings.HasPrefix(meta, "data:image/webp") {
		return webp.Decode(bytes.NewReader(data))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
