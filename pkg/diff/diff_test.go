package diff

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"a", " ", "cat", "  ", "runs"}, Tokenize("a cat  runs"))
	assert.Equal(t, []string{" ", "lead"}, Tokenize(" lead"))
	assert.Empty(t, Tokenize(""))
}

func TestWords(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		want     []WordDelta
	}{
		{
			name: "same",
			old:  "warm lamp",
			new:  "warm lamp",
			want: []WordDelta{{Op: Equal, Text: "warm lamp"}},
		},
		{
			name: "replace word",
			old:  "warm lamp light",
			new:  "cold lamp light",
			want: []WordDelta{
				{Op: Delete, Text: "warm"},
				{Op: Insert, Text: "cold"},
				{Op: Equal, Text: " lamp light"},
			},
		},
		{
			name: "append",
			old:  "slow push",
			new:  "slow push in",
			want: []WordDelta{
				{Op: Equal, Text: "slow push"},
				{Op: Insert, Text: " in"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Words(tt.old, tt.new)
			assert.Equal(t, tt.want, d.Deltas)
			assert.Equal(t, tt.old, d.OldText())
			assert.Equal(t, tt.new, d.NewText())
		})
	}
}

func scene(id, summary string) schema.Scene {
	return schema.Scene{
		ID:              id,
		Summary:         summary,
		DurationSeconds: 3,
		Camera:          schema.Camera{Angle: "low angle", Movement: "static"},
		Characters:      []schema.Character{{Name: "Miso", DominantEmotion: "curious"}},
		ColorPalette:    []string{"#ff0000", "#222222"},
		Thumbnail:       schema.PendingThumbnail(),
	}
}

func TestSceneFields(t *testing.T) {
	o := scene("s1", "A cat spots a red dot.")
	n := o.Clone()
	n.Summary = "A cat spots a green dot."
	n.DurationSeconds = 4.5
	n.Camera.Movement = "whip pan"
	n.Characters[0].DominantEmotion = "startled"
	n.ColorPalette = append(n.ColorPalette, "#00ff00")
	n.Thumbnail = schema.ReadyThumbnail("/thumbnails/x.webp")

	fd := SceneFields(o, n)
	var paths []string
	for _, f := range fd {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"summary",
		"duration_seconds",
		"camera.movement",
		"characters.0.dominant_emotion",
		"color_palette",
	}, paths)
	assert.Equal(t, "3", fd[1].Str.Old)
	assert.Equal(t, "4.5", fd[1].Str.New)

	assert.Empty(t, SceneFields(o, o.Clone()))
}

func TestScenes(t *testing.T) {
	oldS := []schema.Scene{scene("s1", "one"), scene("s2", "two"), scene("s3", "three")}
	newS := []schema.Scene{scene("s1", "one"), scene("s3", "three!"), scene("s4", "four")}

	got := Scenes(oldS, newS)
	require.Len(t, got, 4)
	assert.Equal(t, SceneDiff{ID: "s1", State: Unchanged, Fields: []FieldDiff{}}, got[0])
	assert.Equal(t, "s3", got[1].ID)
	assert.Equal(t, Modified, got[1].State)
	assert.Equal(t, "s4", got[2].ID)
	assert.Equal(t, Added, got[2].State)
	assert.Equal(t, SceneDiff{ID: "s2", State: Removed}, got[3])
}

func TestMoodboards(t *testing.T) {
	o := &schema.Moodboard{Title: "Laser Chase", FinalPrompt: "two shots", Scenes: []schema.Scene{scene("s1", "one")}}
	n := o.Clone()
	n.FinalPrompt = "two quick shots"

	d := Moodboards(o, n)
	assert.Nil(t, d.Title)
	assert.Empty(t, d.Scenes)
	require.NotNil(t, d.Prompt)
	assert.Equal(t, "two quick shots", d.Prompt.NewText())
	assert.False(t, d.Empty())

	assert.True(t, Moodboards(o, o.Clone()).Empty())
	assert.Len(t, Moodboards(nil, o).Scenes, 1)

	var buf bytes.Buffer
	d.Print(&buf)
	assert.Contains(t, buf.String(), "Final prompt")
	assert.Contains(t, buf.String(), "quick")
}

func TestJSONShape(t *testing.T) {
	b, err := json.Marshal(SceneDiff{ID: "s1", State: Modified, Fields: []FieldDiff{{Path: "lighting", Str: Words("a", "b")}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "s1",
		"state": "modified",
		"fields": [{"path": "lighting", "diff": {"old": "a", "new": "b", "deltas": [
			{"op": "delete", "text": "a"},
			{"op": "insert", "text": "b"}
		]}}]
	}`, string(b))
}

func TestDecodeDiff(t *testing.T) {
	var sd SceneDiff
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","state":"modified","fields":[{"path":"lighting","diff":{"old":"a","new":"b","deltas":[{"op":"delete","text":"a"},{"op":"insert","text":"b"}]}}]}`), &sd))
	assert.Equal(t, Modified, sd.State)
	require.Len(t, sd.Fields, 1)
	assert.Equal(t, []WordDelta{{Op: Delete, Text: "a"}, {Op: Insert, Text: "b"}}, sd.Fields[0].Str.Deltas)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"gone"}`), &sd))
	assert.Error(t, json.Unmarshal([]byte(`{"op":"swap"}`), &WordDelta{}))
}
