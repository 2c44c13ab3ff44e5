package edit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
)

// wire is the JSON form of an op:
//
//	{"op": "set_camera_field", "field": "angle", "value": "low angle"}
//	{"op": "set_character_field", "index": 0, "field": "looks", "value": "..."}
type wire struct {
	Op    string          `json:"op"`
	Field string          `json:"field,omitempty"`
	Index *int            `json:"index,omitempty"`
	Value json.RawMessage `json:"value"`
}

var decoders = map[string]func(wire) (Op, error){
	OpSummary: func(w wire) (Op, error) {
		v, err := text(w)
		return SetSummary{Value: v}, err
	},
	OpDuration: func(w wire) (Op, error) {
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return nil, fmt.Errorf("value must be a number: %w", err)
		}
		return SetDuration{Seconds: f}, nil
	},
	OpLighting: func(w wire) (Op, error) {
		v, err := text(w)
		return SetLighting{Value: v}, err
	},
	OpThumbnailPrompt: func(w wire) (Op, error) {
		v, err := text(w)
		return SetThumbnailPrompt{Value: v}, err
	},
	OpColorPalette: func(w wire) (Op, error) {
		v, err := list(w, ",")
		return SetColorPalette{Colors: v}, err
	},
	OpShotInstructions: func(w wire) (Op, error) {
		v, err := list(w, "\n")
		return SetShotInstructions{Lines: v}, err
	},
	OpCameraField: func(w wire) (Op, error) {
		v, err := text(w)
		return SetCameraField{Field: CameraField(w.Field), Value: v}, err
	},
	OpSoundField: func(w wire) (Op, error) {
		v, err := text(w)
		return SetSoundField{Field: SoundField(w.Field), Value: v}, err
	},
	OpCharacterField: func(w wire) (Op, error) {
		if w.Index == nil {
			return nil, errors.New("index is required")
		}
		v, err := text(w)
		return SetCharacterField{Index: *w.Index, Field: CharacterField(w.Field), Value: v}, err
	},
}

func text(w wire) (string, error) {
	var s string
	if err := json.Unmarshal(w.Value, &s); err != nil {
		return "", fmt.Errorf("value must be a string: %w", err)
	}
	return s, nil
}

// list accepts a JSON array or a single string split on sep.
func list(w wire, sep string) ([]string, error) {
	var items []string
	if err := json.Unmarshal(w.Value, &items); err == nil {
		return items, nil
	}
	s, err := text(w)
	if err != nil {
		return nil, errors.New("value must be a string or an array of strings")
	}
	if strings.TrimSpace(s) == "" {
		return []string{}, nil
	}
	items = strings.Split(s, sep)
	if sep != "\n" {
		for i := range items {
			items[i] = strings.TrimSpace(items[i])
		}
	}
	return items, nil
}

// Decode reads a JSON array of ops, or a single op object.
func Decode(data []byte) ([]Op, error) {
	var ws []wire
	if err := json.Unmarshal(data, &ws); err != nil {
		var w wire
		if err2 := json.Unmarshal(data, &w); err2 != nil {
			return nil, apperr.New(apperr.KindInput, "Invalid edit payload.", err)
		}
		ws = []wire{w}
	}
	if len(ws) == 0 {
		return nil, apperr.Input("No edits given.")
	}

	ops := make([]Op, 0, len(ws))
	for i, w := range ws {
		dec, ok := decoders[w.Op]
		if !ok {
			return nil, apperr.Input(fmt.Sprintf("Unknown edit op %q.", w.Op))
		}
		op, err := dec(w)
		if err != nil {
			return nil, apperr.New(apperr.KindInput, fmt.Sprintf("Invalid %s at %d.", w.Op, i), err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
