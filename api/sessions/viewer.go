package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/services"
)

var (
	ErrUnknownElement = errors.New("element not found")
	ErrWrongKind      = errors.New("element does not support this action")
)

// QuizGenerator produces checkpoint questions for gated videos.
type QuizGenerator interface {
	Generate(ctx context.Context, key, text string) services.Generation
}

// Viewer is one learner's pass through a course. Interactive state is created
// lazily per element and lives as long as the session.
type Viewer struct {
	ID       string
	CourseID string

	mu        sync.Mutex
	list      []elements.Element
	attempts  map[string]*render.QuizAttempt
	flips     render.Flips
	threads   map[string]*render.CommentThread
	gates     map[string]*render.Gate
	generator QuizGenerator
	poster    services.CommentPoster
	wg        sync.WaitGroup

	NewID func() string
	Now   func() time.Time
}

func NewViewer(id, courseID string, list []elements.Element, generator QuizGenerator, poster services.CommentPoster) *Viewer {
	return &Viewer{
		ID:        id,
		CourseID:  courseID,
		list:      list,
		attempts:  make(map[string]*render.QuizAttempt),
		flips:     render.Flips{},
		threads:   make(map[string]*render.CommentThread),
		gates:     make(map[string]*render.Gate),
		generator: generator,
		poster:    poster,
		NewID:     func() string { return uuid.New().String() },
		Now:       time.Now,
	}
}

func (v *Viewer) Elements() []elements.Element {
	return v.list
}

func (v *Viewer) element(id string, kind elements.Kind) (elements.Element, error) {
	el, ok := elements.Find(v.list, id)
	if !ok {
		return el, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	if el.Type != kind {
		return el, fmt.Errorf("%w: %s is a %s block", ErrWrongKind, id, el.Type)
	}
	return el, nil
}

func (v *Viewer) attempt(id string) (*render.QuizAttempt, error) {
	if a, ok := v.attempts[id]; ok {
		return a, nil
	}
	el, err := v.element(id, elements.KindQuiz)
	if err != nil {
		return nil, err
	}
	a := render.NewQuizAttempt(el.Metadata.Quiz().Questions)
	v.attempts[id] = a
	return a, nil
}

func (v *Viewer) SelectOption(id string, question, option int) (render.QuizView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, err := v.attempt(id)
	if err != nil {
		return render.QuizView{}, err
	}
	if err := a.Select(question, option); err != nil {
		return a.View(), err
	}
	return a.View(), nil
}

func (v *Viewer) SubmitQuiz(id string) (render.QuizView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, err := v.attempt(id)
	if err != nil {
		return render.QuizView{}, err
	}
	a.Submit()
	return a.View(), nil
}

func (v *Viewer) RetryQuiz(id string) (render.QuizView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	a, err := v.attempt(id)
	if err != nil {
		return render.QuizView{}, err
	}
	a.Retry()
	return a.View(), nil
}

// Flip turns a flashcard over and returns whether it now shows its back.
func (v *Viewer) Flip(id string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.element(id, elements.KindFlashcard); err != nil {
		return false, err
	}
	return v.flips.Flip(id), nil
}

func (v *Viewer) PostComment(id, user, text string) (elements.Comment, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	th, ok := v.threads[id]
	if !ok {
		el, err := v.element(id, elements.KindComment)
		if err != nil {
			return elements.Comment{}, err
		}
		th = render.NewCommentThread(el)
		v.threads[id] = th
	}
	return th.Post(v.poster, v.NewID(), user, text, v.Now())
}

func (v *Viewer) gate(id string) (*render.Gate, error) {
	if g, ok := v.gates[id]; ok {
		return g, nil
	}
	el, err := v.element(id, elements.KindVideo)
	if err != nil {
		return nil, err
	}
	if !render.ClassifyVideo(el.Content).Gated() {
		return nil, fmt.Errorf("%w: %s is not a directly played video", ErrWrongKind, id)
	}
	g := render.NewGate(render.GateInterval)
	v.gates[id] = g
	return g, nil
}

// VideoTime reports the playback position of a gated video. Crossing a
// fresh boundary pauses the gate and starts question generation in the
// background; the questions are applied only if the gate is still waiting
// for that same trigger.
func (v *Viewer) VideoTime(ctx context.Context, id string, position float64) (render.GateView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, err := v.gate(id)
	if err != nil {
		return render.GateView{}, err
	}
	trig, fired := g.Tick(position)
	if fired {
		text := elements.PlainText(v.list, id)
		v.wg.Add(1)
		go v.generate(context.WithoutCancel(ctx), id, trig, text)
	}
	return g.View(), nil
}

func (v *Viewer) generate(ctx context.Context, id string, trig render.Trigger, text string) {
	defer v.wg.Done()

	var questions []elements.Question
	if v.generator != nil {
		key := fmt.Sprintf("gate:%s:%s:%d", v.ID, id, trig.Round)
		questions = v.generator.Generate(ctx, key, text).Questions
	} else {
		questions = services.FallbackQuestions(text, services.DefaultQuestionCount, v.NewID)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.gates[id]
	if !ok {
		return
	}
	if err := g.Ready(trig, questions); err != nil {
		log.Debug().Err(err).Str("viewer", v.ID).Str("element", id).Int("round", trig.Round).Msg("Discarded checkpoint questions")
	}
}

// Wait blocks until background question generation has finished.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

func (v *Viewer) withGate(id string, fn func(g *render.Gate) error) (render.GateView, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, err := v.gate(id)
	if err != nil {
		return render.GateView{}, err
	}
	if err := fn(g); err != nil {
		return g.View(), err
	}
	return g.View(), nil
}

func (v *Viewer) GateView(id string) (render.GateView, error) {
	return v.withGate(id, func(*render.Gate) error { return nil })
}

func (v *Viewer) AnswerGate(id string, question, option int) (render.GateView, error) {
	return v.withGate(id, func(g *render.Gate) error { return g.Answer(question, option) })
}

func (v *Viewer) SubmitGate(id string) (render.GateView, error) {
	return v.withGate(id, func(g *render.Gate) error {
		_, err := g.Submit()
		return err
	})
}

// ContinueGate resumes after a passed checkpoint. The returned view says
// where playback picks up.
func (v *Viewer) ContinueGate(id string) (render.GateView, float64, error) {
	var at float64
	view, err := v.withGate(id, func(g *render.Gate) error {
		var err error
		at, err = g.Continue()
		return err
	})
	return view, at, err
}

// RestartGate rewinds to the start after a failed checkpoint.
func (v *Viewer) RestartGate(id string) (render.GateView, float64, error) {
	var at float64
	view, err := v.withGate(id, func(g *render.Gate) error {
		var err error
		at, err = g.Restart()
		return err
	})
	return view, at, err
}

// Snapshot collects the interactive state for rendering.
func (v *Viewer) Snapshot() render.LearnerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	state := render.LearnerState{
		Quizzes:  make(map[string]render.QuizView, len(v.attempts)),
		Flipped:  make(map[string]bool, len(v.flips)),
		Comments: make(map[string][]elements.Comment, len(v.threads)),
		Gates:    make(map[string]render.GateView, len(v.gates)),
	}
	for id, a := range v.attempts {
		state.Quizzes[id] = a.View()
	}
	for id, on := range v.flips {
		state.Flipped[id] = on
	}
	for id, th := range v.threads {
		state.Comments[id] = th.Comments()
	}
	for id, g := range v.gates {
		state.Gates[id] = g.View()
	}
	return state
}
