package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/coursebuilder/api/editor"
	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/services"
)

var lesson = []elements.Element{
	{ID: "intro", Type: elements.KindText, Content: "<p>Plants convert sunlight into chemical energy through photosynthesis.</p>"},
	{ID: "quiz", Type: elements.KindQuiz, Metadata: elements.QuizPatch([]elements.Question{
		{ID: "1", Question: "Q1", Options: []string{"a", "b"}, Correct: 1},
	})},
	{ID: "card", Type: elements.KindFlashcard, Metadata: elements.FlashcardPatch(elements.FlashcardData{Front: "F", Back: "B"})},
	{ID: "talk", Type: elements.KindComment, Metadata: elements.CommentPatch(elements.CommentData{Title: "Talk"})},
	{ID: "vid", Type: elements.KindVideo, Content: "https://cdn.example.com/lesson.mp4"},
	{ID: "yt", Type: elements.KindVideo, Content: "https://youtu.be/dQw4w9WgXcQ"},
}

type gateGenerator struct {
	mu    sync.Mutex
	keys  []string
	block chan struct{}
}

func (g *gateGenerator) Generate(ctx context.Context, key, text string) services.Generation {
	if g.block != nil {
		<-g.block
	}
	g.mu.Lock()
	g.keys = append(g.keys, key)
	g.mu.Unlock()
	return services.Generation{Questions: []elements.Question{
		{ID: "g1", Question: "Generated", Options: []string{"yes", "no"}, Correct: 0},
	}}
}

type recordingPoster struct {
	mu    sync.Mutex
	posts []string
}

func (p *recordingPoster) Post(topicID, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, topicID+":"+text)
}

func newViewer(gen QuizGenerator, poster services.CommentPoster) *Viewer {
	v := NewViewer("v1", "course1", lesson, gen, poster)
	v.NewID = func() string { return "c1" }
	v.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return v
}

func TestEditorStore(t *testing.T) {
	store := NewEditorStore(time.Minute)
	es := store.Create("course1", editor.State{Elements: lesson})
	require.NotEmpty(t, es.ID)

	got, err := store.Get(es.ID)
	require.NoError(t, err)
	assert.Same(t, es, got)
	assert.Equal(t, "course1", got.CourseID())
	assert.False(t, got.AttachCourse("other"))
	assert.Len(t, got.State().Elements, len(lesson))
	assert.Equal(t, 1, store.Count())

	store.Delete(es.ID)
	_, err = store.Get(es.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	blank := store.Create("", editor.New())
	assert.True(t, blank.AttachCourse("c2"))
	assert.Equal(t, "c2", blank.CourseID())
}

func TestEditorStoreExpiry(t *testing.T) {
	store := NewEditorStore(20 * time.Millisecond)
	es := store.Create("c", editor.New())
	time.Sleep(40 * time.Millisecond)
	_, err := store.Get(es.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewerStore(t *testing.T) {
	store := NewViewerStore(time.Minute, nil, nil)
	v := store.Create("course1", lesson)
	got, err := store.Get(v.ID)
	require.NoError(t, err)
	assert.Same(t, v, got)

	store.Delete(v.ID)
	_, err = store.Get(v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewerQuiz(t *testing.T) {
	v := newViewer(nil, nil)

	view, err := v.SelectOption("quiz", 0, 1)
	require.NoError(t, err)
	assert.True(t, view.Questions[0].Marks[1].Selected)

	view, err = v.SubmitQuiz("quiz")
	require.NoError(t, err)
	require.NotNil(t, view.Score)
	assert.Equal(t, render.Score{Correct: 1, Total: 1}, *view.Score)

	_, err = v.SelectOption("quiz", 0, 0)
	assert.ErrorIs(t, err, render.ErrQuizLocked)

	view, err = v.RetryQuiz("quiz")
	require.NoError(t, err)
	assert.False(t, view.Submitted)

	_, err = v.SelectOption("card", 0, 0)
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = v.SubmitQuiz("missing")
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestViewerFlipAndComments(t *testing.T) {
	poster := &recordingPoster{}
	v := newViewer(nil, poster)

	on, err := v.Flip("card")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = v.Flip("quiz")
	assert.ErrorIs(t, err, ErrWrongKind)

	c, err := v.PostComment("talk", "Ana", "Great lesson")
	require.NoError(t, err)
	assert.Equal(t, elements.Comment{ID: "c1", User: "Ana", Text: "Great lesson", Date: "Mar 1, 2024 12:00"}, c)
	assert.Equal(t, []string{"talk:Great lesson"}, poster.posts)

	_, err = v.PostComment("talk", "", "  ")
	assert.ErrorIs(t, err, render.ErrEmptyComment)

	snap := v.Snapshot()
	assert.True(t, snap.Flipped["card"])
	assert.Len(t, snap.Comments["talk"], 1)
}

func TestViewerGateFlow(t *testing.T) {
	gen := &gateGenerator{}
	v := newViewer(gen, nil)

	view, err := v.VideoTime(context.Background(), "vid", 120)
	require.NoError(t, err)
	assert.True(t, view.CanPlay)

	view, err = v.VideoTime(context.Background(), "vid", 305)
	require.NoError(t, err)
	assert.Equal(t, render.GateLoading, view.State)
	assert.False(t, view.CanPlay)

	v.Wait()
	view, err = v.GateView("vid")
	require.NoError(t, err)
	require.Equal(t, render.GateQuiz, view.State)
	assert.Equal(t, "Generated", view.Quiz.Questions[0].Question)
	assert.Equal(t, []string{"gate:v1:vid:1"}, gen.keys)

	_, err = v.SubmitGate("vid")
	assert.ErrorIs(t, err, render.ErrUnanswered)

	_, err = v.AnswerGate("vid", 0, 0)
	require.NoError(t, err)
	view, err = v.SubmitGate("vid")
	require.NoError(t, err)
	assert.Equal(t, render.GatePass, view.State)

	view, at, err := v.ContinueGate("vid")
	require.NoError(t, err)
	assert.Equal(t, 305.0, at)
	assert.True(t, view.CanPlay)

	view, err = v.VideoTime(context.Background(), "vid", 310)
	require.NoError(t, err)
	assert.True(t, view.CanPlay, "a passed boundary does not fire again")
}

func TestViewerGateRestart(t *testing.T) {
	v := newViewer(&gateGenerator{}, nil)

	_, err := v.VideoTime(context.Background(), "vid", 300)
	require.NoError(t, err)
	v.Wait()
	_, err = v.AnswerGate("vid", 0, 1)
	require.NoError(t, err)
	view, err := v.SubmitGate("vid")
	require.NoError(t, err)
	require.Equal(t, render.GateFail, view.State)

	_, _, err = v.ContinueGate("vid")
	assert.ErrorIs(t, err, render.ErrGateTransition)

	view, at, err := v.RestartGate("vid")
	require.NoError(t, err)
	assert.Equal(t, 0.0, at)
	assert.Empty(t, view.Triggered)

	view, err = v.VideoTime(context.Background(), "vid", 300)
	require.NoError(t, err)
	assert.Equal(t, render.GateLoading, view.State)
	v.Wait()
}

func TestViewerGateWithoutGenerator(t *testing.T) {
	v := newViewer(nil, nil)
	_, err := v.VideoTime(context.Background(), "vid", 301)
	require.NoError(t, err)
	v.Wait()

	view, err := v.GateView("vid")
	require.NoError(t, err)
	assert.Equal(t, render.GateQuiz, view.State)
	assert.NotEmpty(t, view.Quiz.Questions)
}

func TestViewerGateBlocksWhileLoading(t *testing.T) {
	gen := &gateGenerator{block: make(chan struct{})}
	v := newViewer(gen, nil)

	_, err := v.VideoTime(context.Background(), "vid", 300)
	require.NoError(t, err)

	_, _, err = v.ContinueGate("vid")
	assert.ErrorIs(t, err, render.ErrGateTransition)
	view, err := v.VideoTime(context.Background(), "vid", 650)
	require.NoError(t, err)
	assert.Equal(t, render.GateLoading, view.State)

	close(gen.block)
	v.Wait()
	assert.Len(t, gen.keys, 1)
}

func TestViewerEmbeddedVideoIsNotGated(t *testing.T) {
	v := newViewer(nil, nil)
	_, err := v.VideoTime(context.Background(), "yt", 400)
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = v.GateView("intro")
	assert.ErrorIs(t, err, ErrWrongKind)
}
