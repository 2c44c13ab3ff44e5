package schema

import (
	"encoding/json"
	"errors"
)

type ThumbnailState int

const (
	ThumbnailAbsent ThumbnailState = iota
	ThumbnailPending
	ThumbnailReady
	ThumbnailFailed
)

const (
	thumbnailLoading = "loading"
	thumbnailError   = "error"
)

func (s ThumbnailState) String() string {
	switch s {
	case ThumbnailPending:
		return "pending"
	case ThumbnailReady:
		return "ready"
	case ThumbnailFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Thumbnail is the per-scene image slot. On the wire it is a single string:
// "loading", "error" or the image reference, and omitted when absent.
type Thumbnail struct {
	State ThumbnailState
	Ref   string

	Error error
}

func PendingThumbnail() Thumbnail { return Thumbnail{State: ThumbnailPending} }

func ReadyThumbnail(ref string) Thumbnail { return Thumbnail{State: ThumbnailReady, Ref: ref} }

func FailedThumbnail(err error) Thumbnail {
	if err == nil {
		err = errors.New("thumbnail generation failed")
	}
	return Thumbnail{State: ThumbnailFailed, Error: err}
}

func (t Thumbnail) IsZero() bool { return t.State == ThumbnailAbsent }

// Settled reports whether the slot holds a terminal outcome.
func (t Thumbnail) Settled() bool {
	return t.State == ThumbnailReady || t.State == ThumbnailFailed
}

// Reason is the failure text, empty unless the slot failed.
func (t Thumbnail) Reason() string {
	if t.State != ThumbnailFailed || t.Error == nil {
		return ""
	}
	return t.Error.Error()
}

func (t Thumbnail) MarshalJSON() ([]byte, error) {
	switch t.State {
	case ThumbnailPending:
		return json.Marshal(thumbnailLoading)
	case ThumbnailFailed:
		return json.Marshal(thumbnailError)
	case ThumbnailReady:
		return json.Marshal(t.Ref)
	default:
		return []byte("null"), nil
	}
}

func (t *Thumbnail) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch {
	case s == nil || *s == "":
		*t = Thumbnail{}
	case *s == thumbnailLoading:
		*t = PendingThumbnail()
	case *s == thumbnailError:
		*t = FailedThumbnail(nil)
	default:
		*t = ReadyThumbnail(*s)
	}
	return nil
}
