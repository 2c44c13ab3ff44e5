package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/apperr"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/edit"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/entities"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/generator"
	"github.com/m1r4g3-code/MoodBoard-Architect/pkg/schema"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	structure func(ctx context.Context, req generator.StructureRequest) (*schema.Moodboard, error)
	thumb     func(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error)
	prompt    func(ctx context.Context, mb *schema.Moodboard) (string, error)

	structureCalls atomic.Int32
}

func (f *fakeBackend) RequestMoodboardStructure(ctx context.Context, req generator.StructureRequest) (*schema.Moodboard, error) {
	f.structureCalls.Add(1)
	return f.structure(ctx, req)
}

func (f *fakeBackend) RequestSceneThumbnail(ctx context.Context, prompt string, aspect schema.AspectRatio) (string, error) {
	if f.thumb == nil {
		return "/thumbnails/" + prompt + ".webp", nil
	}
	return f.thumb(ctx, prompt, aspect)
}

func (f *fakeBackend) RequestPromptRegeneration(ctx context.Context, mb *schema.Moodboard) (string, error) {
	return f.prompt(ctx, mb)
}

func testBoard(tag string, n int) *schema.Moodboard {
	mb := &schema.Moodboard{Title: "Board " + tag, FinalPrompt: "original prompt"}
	for i := 1; i <= n; i++ {
		mb.Scenes = append(mb.Scenes, schema.Scene{
			ID:              fmt.Sprintf("s%d", i),
			Summary:         fmt.Sprintf("scene %d", i),
			DurationSeconds: 4,
			ThumbnailPrompt: fmt.Sprintf("%s-p%d", tag, i),
		})
	}
	return mb
}

func returns(mb *schema.Moodboard) func(context.Context, generator.StructureRequest) (*schema.Moodboard, error) {
	return func(context.Context, generator.StructureRequest) (*schema.Moodboard, error) {
		return mb.Clone(), nil
	}
}

func story(s string) Input {
	return Input{Story: s, Length: schema.Length8s, Style: schema.StyleCinematic, Aspect: schema.Aspect16x9}
}

func newController(t *testing.T, fb *fakeBackend) *Controller {
	t.Helper()
	c := New(fb)
	t.Cleanup(c.Close)
	return c
}

func assertConsistent(t *testing.T, s State) {
	t.Helper()
	assert.False(t, s.Generating && s.Error != "", "generating with an error: %+v", s)
}

func TestGenerateBlankStory(t *testing.T) {
	fb := &fakeBackend{}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("  \t"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInput))

	s := c.State()
	assert.Equal(t, "Please enter a story idea.", s.Error)
	assert.Nil(t, s.Moodboard)
	assert.False(t, s.Generating)
	assert.Zero(t, fb.structureCalls.Load())
}

func TestGenerateSequentialThumbnails(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("cat", 3))}
	c := newController(t, fb)

	var inflight atomic.Int32
	var mu sync.Mutex
	var order []string
	fb.thumb = func(_ context.Context, prompt string, aspect schema.AspectRatio) (string, error) {
		assert.EqualValues(t, 1, inflight.Add(1), "one thumbnail at a time")
		defer inflight.Add(-1)
		assert.Equal(t, schema.Aspect16x9, aspect)

		mu.Lock()
		order = append(order, prompt)
		n := len(order)
		mu.Unlock()

		s := c.State()
		for i, sc := range s.Moodboard.Scenes {
			switch {
			case i < n-1:
				assert.True(t, sc.Thumbnail.Settled(), "scene %s settled before %s", sc.ID, prompt)
			case i == n-1:
				assert.Equal(t, schema.ThumbnailPending, sc.Thumbnail.State)
			default:
				assert.Equal(t, schema.ThumbnailAbsent, sc.Thumbnail.State)
			}
		}
		return "/thumbnails/" + prompt + ".webp", nil
	}

	mb, err := c.Generate(context.Background(), story("A cat chases a laser pointer"))
	require.NoError(t, err)
	for _, sc := range mb.Scenes {
		assert.Equal(t, schema.ThumbnailAbsent, sc.Thumbnail.State)
	}
	assert.False(t, mb.Dirty)

	c.Wait()

	assert.Equal(t, []string{"cat-p1", "cat-p2", "cat-p3"}, order)
	s := c.State()
	assertConsistent(t, s)
	assert.True(t, s.Settled())
	for _, sc := range s.Moodboard.Scenes {
		assert.Equal(t, schema.ReadyThumbnail("/thumbnails/"+sc.ThumbnailPrompt+".webp"), sc.Thumbnail)
	}
	assert.NotEmpty(t, s.Token)
}

func TestEverySceneRequestsItsOwnThumbnail(t *testing.T) {
	mb := testBoard("cat", 2)
	for i := range mb.Scenes {
		mb.Scenes[i].ThumbnailPrompt = "a cat at dusk"
	}
	fb := &fakeBackend{structure: returns(mb)}
	var calls atomic.Int32
	fb.thumb = func(context.Context, string, schema.AspectRatio) (string, error) {
		return fmt.Sprintf("/thumbnails/%d.webp", calls.Add(1)), nil
	}
	c := newController(t, fb)

	for range 2 {
		_, err := c.Generate(context.Background(), story("A cat chases a laser pointer"))
		require.NoError(t, err)
		c.Wait()
	}

	assert.EqualValues(t, 4, calls.Load(), "one request per scene per generation")
	s := c.State()
	assert.Equal(t, schema.ReadyThumbnail("/thumbnails/3.webp"), s.Moodboard.Scenes[0].Thumbnail)
	assert.Equal(t, schema.ReadyThumbnail("/thumbnails/4.webp"), s.Moodboard.Scenes[1].Thumbnail)
}

func TestCacheTTLReusesThumbnails(t *testing.T) {
	mb := testBoard("cat", 2)
	for i := range mb.Scenes {
		mb.Scenes[i].ThumbnailPrompt = "a cat at dusk"
	}
	fb := &fakeBackend{structure: returns(mb)}
	var calls atomic.Int32
	fb.thumb = func(context.Context, string, schema.AspectRatio) (string, error) {
		calls.Add(1)
		return "/thumbnails/dusk.webp", nil
	}
	c := New(fb, WithCacheTTL(time.Hour))
	t.Cleanup(c.Close)

	_, err := c.Generate(context.Background(), story("A cat chases a laser pointer"))
	require.NoError(t, err)
	c.Wait()

	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, c.State().Settled())
}

func TestGenerateFailure(t *testing.T) {
	fb := &fakeBackend{
		structure: func(context.Context, generator.StructureRequest) (*schema.Moodboard, error) {
			return nil, apperr.Transport(generator.MsgStructureFailed+": boom", errors.New("boom"))
		},
	}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("A cat chases a laser pointer"))
	require.Error(t, err)

	s := c.State()
	assertConsistent(t, s)
	assert.Equal(t, "Failed to generate moodboard: boom", s.Error)
	assert.False(t, s.Generating)
	assert.Nil(t, s.Moodboard)
}

func TestGenerateClearsPreviousBoardAndError(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{}
	fb.structure = func(context.Context, generator.StructureRequest) (*schema.Moodboard, error) {
		<-release
		return testBoard("b", 1), nil
	}
	c := newController(t, fb)
	_, _ = c.Generate(context.Background(), story(""))
	require.NotEmpty(t, c.State().Error)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Generate(context.Background(), story("x"))
	}()

	require.Eventually(t, func() bool { return c.State().Generating }, time.Second, time.Millisecond)
	s := c.State()
	assertConsistent(t, s)
	assert.Empty(t, s.Error)
	assert.Nil(t, s.Moodboard)

	close(release)
	<-done
	c.Wait()
}

func TestThumbnailFailureIsIsolated(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("f", 2))}
	fb.thumb = func(_ context.Context, prompt string, _ schema.AspectRatio) (string, error) {
		if prompt == "f-p1" {
			return "", apperr.Transport(generator.MsgImageFailed, errors.New("quota"))
		}
		return "/thumbnails/ok.webp", nil
	}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	scenes := c.State().Moodboard.Scenes
	assert.Equal(t, schema.ThumbnailFailed, scenes[0].Thumbnail.State)
	assert.Equal(t, generator.MsgImageFailed, scenes[0].Thumbnail.Reason())
	assert.Equal(t, schema.ReadyThumbnail("/thumbnails/ok.webp"), scenes[1].Thumbnail)
}

func TestStaleStructureIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	fb := &fakeBackend{}
	fb.structure = func(_ context.Context, req generator.StructureRequest) (*schema.Moodboard, error) {
		if req.Story == "first" {
			<-release
			return testBoard("old", 2), nil
		}
		return testBoard("new", 2), nil
	}
	c := newController(t, fb)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Generate(context.Background(), story("first"))
		errCh <- err
	}()
	require.Eventually(t, func() bool { return fb.structureCalls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := c.Generate(context.Background(), story("second"))
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-errCh, ErrSuperseded)
	c.Wait()

	s := c.State()
	assert.Equal(t, "Board new", s.Moodboard.Title)
	assert.False(t, s.Generating)
	for _, sc := range s.Moodboard.Scenes {
		assert.Equal(t, "/thumbnails/"+sc.ThumbnailPrompt+".webp", sc.Thumbnail.Ref)
	}
}

func TestStaleThumbnailsAreDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fb := &fakeBackend{}
	fb.structure = func(_ context.Context, req generator.StructureRequest) (*schema.Moodboard, error) {
		return testBoard(req.Story, 2), nil
	}
	fb.thumb = func(_ context.Context, prompt string, _ schema.AspectRatio) (string, error) {
		if prompt == "old-p1" {
			started <- struct{}{}
			<-release
		}
		return "/thumbnails/" + prompt + ".webp", nil
	}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("old"))
	require.NoError(t, err)
	<-started

	_, err = c.Generate(context.Background(), story("new"))
	require.NoError(t, err)
	close(release)
	c.Wait()

	for _, sc := range c.State().Moodboard.Scenes {
		assert.Equal(t, schema.ReadyThumbnail("/thumbnails/new-p"+sc.ID[1:]+".webp"), sc.Thumbnail)
	}
}

func TestRegenerateSceneImageRace(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	fb := &fakeBackend{structure: returns(testBoard("r", 2))}
	fb.thumb = func(_ context.Context, prompt string, _ schema.AspectRatio) (string, error) {
		n := calls.Add(1)
		if n == 1 {
			started <- struct{}{}
			<-release
		}
		return fmt.Sprintf("/thumbnails/%s-%d.webp", prompt, n), nil
	}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	<-started

	require.NoError(t, c.RegenerateSceneImage("s1"))
	assert.Equal(t, schema.ThumbnailPending, c.State().Moodboard.Scenes[0].Thumbnail.State)

	close(release)
	c.Wait()

	scenes := c.State().Moodboard.Scenes
	assert.Equal(t, schema.ThumbnailReady, scenes[0].Thumbnail.State)
	assert.NotEqual(t, "/thumbnails/r-p1-1.webp", scenes[0].Thumbnail.Ref, "the bulk result was issued first and loses")
	assert.Equal(t, schema.ThumbnailReady, scenes[1].Thumbnail.State)
}

func TestRegenerateSceneImageNotFound(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("n", 1))}
	c := newController(t, fb)

	assert.ErrorIs(t, c.RegenerateSceneImage("s1"), ErrNoBoard)

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	err = c.RegenerateSceneImage("s9")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	c.Wait()
}

func TestUpdateSceneAlwaysDirty(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("u", 2))}
	c := newController(t, fb)
	assert.False(t, c.UpdateScene("s1", schema.Scene{}), "no board yet")

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	before := c.State().Moodboard
	require.False(t, before.Dirty)

	same := before.Scenes[0]
	assert.True(t, c.UpdateScene("s1", same))
	after := c.State().Moodboard
	assert.True(t, after.Dirty)
	assert.Equal(t, before.Scenes[0], after.Scenes[0])

	changed := before.Scenes[1]
	changed.ID = "hijack"
	changed.Summary = "rewritten"
	changed.Thumbnail = schema.Thumbnail{}
	assert.True(t, c.UpdateScene("s2", changed))
	got := c.State().Moodboard.Scenes[1]
	assert.Equal(t, "s2", got.ID, "ids are never reassigned")
	assert.Equal(t, "rewritten", got.Summary)
	assert.Equal(t, before.Scenes[1].Thumbnail, got.Thumbnail)

	rev := c.State().Revision
	assert.False(t, c.UpdateScene("s9", changed))
	assert.Equal(t, rev, c.State().Revision, "unknown id changes nothing")
}

func TestEditScene(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("e", 1))}
	c := newController(t, fb)

	_, err := c.EditScene("s1", edit.SetLighting{Value: "neon"})
	assert.ErrorIs(t, err, ErrNoBoard)

	_, err = c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	fd, err := c.EditScene("s1", edit.SetLighting{Value: "neon"}, edit.SetSummary{Value: "scene one"})
	require.NoError(t, err)
	require.Len(t, fd, 2)
	assert.Equal(t, "summary", fd[0].Path)
	assert.Equal(t, "lighting", fd[1].Path)

	s := c.State()
	assert.True(t, s.Moodboard.Dirty)
	assert.Equal(t, "neon", s.Moodboard.Scenes[0].Lighting)

	_, err = c.EditScene("s1", edit.SetDuration{Seconds: -1})
	assert.True(t, apperr.Is(err, apperr.KindInput))
	_, err = c.EditScene("s7", edit.SetLighting{Value: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegeneratePrompt(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("p", 2))}
	var sent *schema.Moodboard
	fb.prompt = func(_ context.Context, mb *schema.Moodboard) (string, error) {
		sent = mb
		return "original prompt, refreshed", nil
	}
	c := newController(t, fb)

	_, err := c.RegeneratePrompt(context.Background())
	assert.ErrorIs(t, err, ErrNoBoard)

	_, err = c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()
	require.True(t, c.UpdateScene("s1", c.State().Moodboard.Scenes[0]))

	d, err := c.RegeneratePrompt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "original prompt", d.Old)
	assert.Equal(t, "original prompt, refreshed", d.New)

	s := c.State()
	assert.False(t, s.Moodboard.Dirty)
	assert.False(t, s.UpdatingPrompt)
	assert.Equal(t, "original prompt, refreshed", s.Moodboard.FinalPrompt)
	require.NotNil(t, sent)
	assert.Len(t, sent.Scenes, 2)
}

func TestRegeneratePromptTooLong(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("l", 1))}
	fb.prompt = func(context.Context, *schema.Moodboard) (string, error) {
		return "", apperr.PayloadTooLarge(generator.MsgPromptTooLong, errors.New("413"))
	}
	c := newController(t, fb)

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()
	require.True(t, c.UpdateScene("s1", c.State().Moodboard.Scenes[0]))

	_, err = c.RegeneratePrompt(context.Background())
	require.Error(t, err)

	s := c.State()
	assert.Equal(t, "The moodboard is too long to regenerate the prompt. Try shortening scene details.", s.Error)
	assert.True(t, s.Moodboard.Dirty)
	assert.Equal(t, "original prompt", s.Moodboard.FinalPrompt)
	assert.False(t, s.UpdatingPrompt)
}

func TestRegeneratePromptGenericFailure(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("g", 1))}
	fb.prompt = func(context.Context, *schema.Moodboard) (string, error) {
		return "", apperr.Transport(generator.MsgPromptFailed, errors.New("reset"))
	}
	c := newController(t, fb)
	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	_, err = c.RegeneratePrompt(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to update the final prompt.", c.State().Error)
	assert.False(t, c.State().Moodboard.Dirty, "a failure never touches dirty")
}

func TestRegeneratePromptConflict(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fb := &fakeBackend{structure: returns(testBoard("c", 1))}
	fb.prompt = func(context.Context, *schema.Moodboard) (string, error) {
		close(entered)
		<-release
		return "new", nil
	}
	c := newController(t, fb)
	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	done := make(chan error, 1)
	go func() {
		_, err := c.RegeneratePrompt(context.Background())
		done <- err
	}()
	<-entered
	assert.True(t, c.State().UpdatingPrompt)

	_, err = c.RegeneratePrompt(context.Background())
	assert.ErrorIs(t, err, ErrBusyPrompt)

	close(release)
	require.NoError(t, <-done)
}

func TestEditDuringRegenerationKeepsDirty(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	fb := &fakeBackend{structure: returns(testBoard("d", 1))}
	fb.prompt = func(context.Context, *schema.Moodboard) (string, error) {
		close(entered)
		<-release
		return "new", nil
	}
	c := newController(t, fb)
	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	done := make(chan error, 1)
	go func() {
		_, err := c.RegeneratePrompt(context.Background())
		done <- err
	}()
	<-entered
	_, err = c.EditScene("s1", edit.SetSummary{Value: "late edit"})
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	s := c.State()
	assert.Equal(t, "new", s.Moodboard.FinalPrompt)
	assert.True(t, s.Moodboard.Dirty)
}

func TestImport(t *testing.T) {
	fb := &fakeBackend{}
	c := newController(t, fb)

	doc := entities.FromMoodboard(testBoard("i", 2))
	doc.Scenes[0].Thumbnail = schema.PendingThumbnail()
	doc.Scenes[1].Thumbnail = schema.ReadyThumbnail("/thumbnails/x.webp")

	mb, err := c.Import(doc)
	require.NoError(t, err)
	assert.Equal(t, schema.ThumbnailAbsent, mb.Scenes[0].Thumbnail.State)
	assert.Equal(t, "/thumbnails/x.webp", mb.Scenes[1].Thumbnail.Ref)

	s := c.State()
	assert.False(t, s.Moodboard.Dirty)
	assert.NotEmpty(t, s.Token)

	_, err = c.Import(entities.Moodboard{Title: "empty"})
	assert.True(t, apperr.Is(err, apperr.KindInput))
}

func TestSubscribe(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("s", 2))}
	c := newController(t, fb)

	ch, cancel := c.Subscribe()
	first := <-ch
	assert.Nil(t, first.Moodboard)

	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)
	c.Wait()

	var last State
	require.Eventually(t, func() bool {
		select {
		case last = <-ch:
		default:
		}
		return last.Moodboard != nil && last.Settled()
	}, time.Second, time.Millisecond)
	assert.Equal(t, c.State().Revision, last.Revision)

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestCloseStopsBackgroundWork(t *testing.T) {
	fb := &fakeBackend{structure: returns(testBoard("z", 3))}
	fb.thumb = func(ctx context.Context, _ string, _ schema.AspectRatio) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	c := New(fb)

	ch, _ := c.Subscribe()
	_, err := c.Generate(context.Background(), story("x"))
	require.NoError(t, err)

	c.Close()
	for range ch {
	}

	_, err = c.Generate(context.Background(), story("x"))
	assert.ErrorIs(t, err, ErrClosed)
	c.Close()
}

func TestParseInput(t *testing.T) {
	in, err := ParseInput("A cat chases a laser pointer", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, Input{
		Story:  "A cat chases a laser pointer",
		Length: schema.DefaultLength,
		Style:  schema.DefaultStyle,
		Aspect: schema.DefaultAspect,
	}, in)

	in, err = ParseInput("x", "8s", "Retro-Film", "9:16")
	require.NoError(t, err)
	assert.Equal(t, schema.StyleRetroFilm, in.Style)

	for _, bad := range [][3]string{{"12s", "", ""}, {"", "noir", ""}, {"", "", "2:1"}} {
		_, err := ParseInput("x", bad[0], bad[1], bad[2])
		assert.True(t, apperr.Is(err, apperr.KindInput), "%v", bad)
	}
}
