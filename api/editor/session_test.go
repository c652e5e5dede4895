package editor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/services"
)

func newSession(list ...elements.Element) *Session {
	s := NewSession(Reduce(New(), LoadState{Elements: list}))
	n := 0
	s.NewID = func() string {
		n++
		return fmt.Sprintf("new%d", n)
	}
	s.Now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	return s
}

func TestDrop(t *testing.T) {
	s := newSession(text("a", 0, 0))
	el, err := s.Drop(elements.KindImage, elements.Point{X: 250, Y: 180}, elements.Point{X: 50, Y: 80}, "")
	require.NoError(t, err)

	assert.Equal(t, "new1", el.ID)
	assert.Equal(t, elements.Point{X: 200, Y: 100}, el.Position)
	assert.Equal(t, 2, el.ZIndex)

	st := s.State()
	assert.Len(t, st.Elements, 2)
	assert.Equal(t, "new1", st.SelectedID)
	assert.Len(t, st.Past, 1)
}

func TestDropScalesAndClamps(t *testing.T) {
	s := newSession()
	s.Dispatch(SetPreviewMode{Mode: "mobile"})

	el, err := s.Drop(elements.KindHero, elements.Point{X: 90, Y: 45}, elements.Point{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, el.Position.X)
	assert.InDelta(t, 100, el.Position.Y, 1e-9)
	assert.Equal(t, 1, el.ZIndex)
}

func TestDropUnknownKind(t *testing.T) {
	_, err := newSession().Drop("banner", elements.Point{}, elements.Point{}, "")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDragAddsOneHistoryEntry(t *testing.T) {
	s := newSession(text("a", 100, 100))
	pastBefore := len(s.State().Past)

	require.NoError(t, s.BeginDrag("a", elements.Point{X: 110, Y: 110}, elements.Point{}))
	for i := 1; i <= 10; i++ {
		_, err := s.DragTo(elements.Point{X: 110 + float64(i*10), Y: 110 + float64(i*5)}, elements.Point{})
		require.NoError(t, err)
	}
	assert.Equal(t, pastBefore, len(s.State().Past))

	st, err := s.EndDrag()
	require.NoError(t, err)
	assert.Equal(t, pastBefore+1, len(st.Past))
	assert.Equal(t, elements.Point{X: 200, Y: 150}, st.Elements[0].Position)

	undone := s.Dispatch(Undo{})
	assert.Equal(t, elements.Point{X: 100, Y: 100}, undone.Elements[0].Position)
}

func TestUndoDuringDragCommitsTheDragFirst(t *testing.T) {
	s := newSession(text("a", 100, 100))
	require.NoError(t, s.BeginDrag("a", elements.Point{X: 110, Y: 110}, elements.Point{}))
	_, err := s.DragTo(elements.Point{X: 160, Y: 110}, elements.Point{})
	require.NoError(t, err)

	st := s.Dispatch(Undo{})
	assert.Equal(t, elements.Point{X: 100, Y: 100}, st.Elements[0].Position)
	require.Len(t, st.Future, 1)

	_, err = s.EndDrag()
	assert.ErrorIs(t, err, ErrNoGesture)
	assert.Len(t, s.State().Future, 1, "redo survives the released pointer")

	st = s.Dispatch(Redo{})
	assert.Equal(t, elements.Point{X: 150, Y: 100}, st.Elements[0].Position)
}

func TestDragWithoutMovementAddsNothing(t *testing.T) {
	s := newSession(text("a", 100, 100))
	require.NoError(t, s.BeginDrag("a", elements.Point{X: 110, Y: 110}, elements.Point{}))
	st, err := s.EndDrag()
	require.NoError(t, err)
	assert.Empty(t, st.Past)
	assert.Equal(t, "a", st.SelectedID)
}

func TestDragClampsToCanvas(t *testing.T) {
	s := newSession(text("a", 0, 0))
	require.NoError(t, s.BeginDrag("a", elements.Point{}, elements.Point{}))
	st, err := s.DragTo(elements.Point{X: 5000, Y: -40}, elements.Point{})
	require.NoError(t, err)
	assert.Equal(t, elements.Point{X: 500, Y: 0}, st.Elements[0].Position)
}

func TestGestureErrors(t *testing.T) {
	s := newSession(text("a", 0, 0))
	_, err := s.DragTo(elements.Point{}, elements.Point{})
	assert.ErrorIs(t, err, ErrNoGesture)
	_, err = s.EndResize()
	assert.ErrorIs(t, err, ErrNoGesture)

	require.NoError(t, s.BeginResize("a"))
	_, err = s.EndDrag()
	assert.ErrorIs(t, err, ErrGestureMismatch)

	assert.ErrorIs(t, s.BeginDrag("missing", elements.Point{}, elements.Point{}), ErrUnknownElement)
}

func TestResizeIsLiveUntilEnd(t *testing.T) {
	s := newSession(text("a", 600, 0))
	require.NoError(t, s.BeginResize("a"))

	view, err := s.ResizeTo(10, 5)
	require.NoError(t, err)
	w, _ := view.Elements[0].Style.Width()
	h, _ := view.Elements[0].Style.Height()
	assert.Equal(t, 40.0, w)
	assert.Equal(t, 20.0, h)

	view, err = s.ResizeTo(400, 250)
	require.NoError(t, err)
	w, _ = view.Elements[0].Style.Width()
	assert.Equal(t, 200.0, w)

	committed, _ := s.State().Elements[0].Style.Width()
	assert.Equal(t, 300.0, committed)
	assert.Empty(t, s.State().Past)

	st, err := s.EndResize()
	require.NoError(t, err)
	assert.Len(t, st.Past, 1)
	w, _ = st.Elements[0].Style.Width()
	h, _ = st.Elements[0].Style.Height()
	assert.Equal(t, 200.0, w)
	assert.Equal(t, 250.0, h)
}

func TestStartingGestureCommitsUnfinishedOne(t *testing.T) {
	s := newSession(text("a", 0, 0), text("b", 0, 200))
	require.NoError(t, s.BeginDrag("a", elements.Point{}, elements.Point{}))
	_, err := s.DragTo(elements.Point{X: 50, Y: 50}, elements.Point{})
	require.NoError(t, err)

	require.NoError(t, s.BeginResize("b"))
	assert.Len(t, s.State().Past, 1)
}

func TestObserveContentHeight(t *testing.T) {
	quiz := elements.Element{ID: "q", Type: elements.KindQuiz, Style: elements.Style{"width": 500.0, "height": 400.0}}
	s := newSession(quiz, text("a", 0, 0))

	st := s.ObserveContentHeight("q", 900)
	h, _ := st.Elements[0].Style.Height()
	assert.Equal(t, 600.0, h)
	assert.Empty(t, st.Past)

	st = s.ObserveContentHeight("a", 900)
	h, _ = st.Elements[1].Style.Height()
	assert.Equal(t, 100.0, h)
}

func TestZOrderAndDuplicate(t *testing.T) {
	a := text("a", 0, 0)
	b := text("b", 0, 0)
	b.ZIndex = 3
	s := newSession(a, b)

	st := s.BringToFront("a")
	assert.Equal(t, 4, st.Elements[0].ZIndex)
	st = s.SendToBack("a")
	assert.Equal(t, 2, st.Elements[0].ZIndex)

	cp, err := s.Duplicate("b")
	require.NoError(t, err)
	assert.Equal(t, "new1", cp.ID)
	assert.Equal(t, elements.Point{X: 20, Y: 20}, cp.Position)
	assert.Equal(t, 4, cp.ZIndex)
	assert.Equal(t, b.Content, cp.Content)
}

func TestSelection(t *testing.T) {
	s := newSession(text("a", 0, 0))
	assert.Equal(t, "a", s.Select("a").SelectedID)
	assert.Empty(t, s.ClickBackground().SelectedID)
}

func TestEditBlockThroughSession(t *testing.T) {
	_, style, meta := elements.Defaults(elements.KindComment)
	s := newSession(elements.Element{ID: "c", Type: elements.KindComment, Style: style, Metadata: meta})

	st, err := s.EditBlock("c", BlockEdit{Op: CommentAppend, Text: "Nice"})
	require.NoError(t, err)

	comments := st.Elements[0].Metadata.Comments().Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "Instructor", comments[0].User)
	assert.Equal(t, "Mar 5, 2024 14:30", comments[0].Date)
	assert.Equal(t, "new1", comments[0].ID)

	_, err = s.EditBlock("missing", BlockEdit{Op: CommentAppend})
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestDirty(t *testing.T) {
	saved := []elements.Element{text("a", 0, 0)}
	s := newSession(saved...)
	assert.False(t, s.Dirty(saved))
	s.Dispatch(MoveElement{ID: "a", X: 1, Y: 1})
	assert.True(t, s.Dirty(saved))
}

type stubGenerator struct {
	result  services.Generation
	release chan struct{}
	text    string
}

func (g *stubGenerator) Generate(ctx context.Context, key, text string) services.Generation {
	g.text = text
	if g.release != nil {
		<-g.release
	}
	return g.result
}

func quizSession() *Session {
	_, style, meta := elements.Defaults(elements.KindQuiz)
	hero := elements.Element{ID: "h", Type: elements.KindHero, Content: "Cells\nThe unit of life"}
	return newSession(hero, elements.Element{ID: "q", Type: elements.KindQuiz, Style: style, Metadata: meta})
}

func TestGenerateQuizReplacesQuestions(t *testing.T) {
	s := quizSession()
	gen := &stubGenerator{result: services.Generation{
		Questions: []elements.Question{{ID: "g1", Question: "What is a cell?", Options: []string{"unit", "organ"}, Correct: 0}},
		Fallback:  true,
	}}

	res, err := s.GenerateQuiz(context.Background(), "q", gen, "pasted notes")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Contains(t, gen.text, "Cells")
	assert.Contains(t, gen.text, "pasted notes")

	st := s.State()
	qs := st.Elements[1].Metadata.Quiz().Questions
	require.Len(t, qs, 1)
	assert.Equal(t, "What is a cell?", qs[0].Question)
	assert.Len(t, st.Past, 1)
	assert.False(t, s.Pending("q"))
}

func TestGenerateQuizRejectsConcurrentRequest(t *testing.T) {
	s := quizSession()
	gen := &stubGenerator{release: make(chan struct{})}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.GenerateQuiz(context.Background(), "q", gen, "")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return s.Pending("q") }, time.Second, 5*time.Millisecond)
	_, err := s.GenerateQuiz(context.Background(), "q", &stubGenerator{}, "")
	assert.ErrorIs(t, err, ErrGenerationPending)

	close(gen.release)
	wg.Wait()
	assert.False(t, s.Pending("q"))
}

func TestGenerateQuizWrongTarget(t *testing.T) {
	s := quizSession()
	_, err := s.GenerateQuiz(context.Background(), "h", &stubGenerator{}, "")
	assert.ErrorIs(t, err, ErrWrongKind)
	_, err = s.GenerateQuiz(context.Background(), "missing", &stubGenerator{}, "")
	assert.ErrorIs(t, err, ErrUnknownElement)
}
