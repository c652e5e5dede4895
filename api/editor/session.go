package editor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/layout"
	"github.com/local/coursebuilder/api/services"
)

var (
	ErrNoGesture         = errors.New("no gesture in progress")
	ErrUnknownElement    = errors.New("element not found")
	ErrGenerationPending = errors.New("quiz generation already in progress")
	ErrUnknownKind       = errors.New("unknown element type")
	ErrGestureMismatch   = errors.New("a different gesture is in progress")
)

// QuizGenerator turns context text into quiz questions. It always returns
// usable questions; a recovered remote failure is reported in Generation.Err.
type QuizGenerator interface {
	Generate(ctx context.Context, key, text string) services.Generation
}

type gestureKind int

const (
	gestureDrag gestureKind = iota + 1
	gestureResize
)

type gesture struct {
	kind   gestureKind
	id     string
	before []elements.Element
	// drag: pointer offset inside the element; resize: live size
	offset elements.Point
	size   elements.Size
}

// Session is the single writer of one document. Every transition runs under
// the session lock, in dispatch order.
type Session struct {
	mu      sync.Mutex
	state   State
	gesture *gesture
	pending map[string]bool

	NewID func() string
	Now   func() time.Time
}

func NewSession(initial State) *Session {
	return &Session{
		state:   initial,
		pending: make(map[string]bool),
		NewID:   func() string { return uuid.New().String() },
		Now:     time.Now,
	}
}

// State returns the current committed snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the snapshot to draw, including a live resize that has not
// been committed yet.
func (s *Session) View() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() State {
	g := s.gesture
	if g == nil || g.kind != gestureResize {
		return s.state
	}
	i := elements.Index(s.state.Elements, g.id)
	if i < 0 {
		return s.state
	}
	v := s.state
	v.Elements = clone(v.Elements)
	v.Elements[i].Style = v.Elements[i].Style.Merge(elements.Style{"width": g.size.Width, "height": g.size.Height})
	return v
}

// Dispatch applies one intent and returns the new state. An intent that
// records or rewinds history commits an unfinished gesture first.
func (s *Session) Dispatch(in Intent) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(in)
}

func (s *Session) dispatch(in Intent) State {
	if Historic(in) {
		s.finishGesture()
	}
	s.state = Reduce(s.state, in)
	log.Debug().Str("intent", Name(in)).Int("elements", len(s.state.Elements)).Int("past", len(s.state.Past)).Msg("Intent applied")
	return s.state
}

// Drop places a new element of kind where a palette item was released.
// pointer and origin are screen coordinates; content overrides the kind's
// default content when not empty.
func (s *Session) Drop(kind elements.Kind, pointer, origin elements.Point, content string) (elements.Element, error) {
	if !kind.Valid() {
		return elements.Element{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	defContent, style, meta := elements.Defaults(kind)
	if content != "" {
		defContent = content
	}
	at := layout.ToCanvas(pointer, origin, layout.PreviewScale(s.state.PreviewMode))
	el := elements.Element{
		ID:       s.NewID(),
		Type:     kind,
		Content:  defContent,
		Style:    style,
		Metadata: meta,
		Position: layout.Clamp(at, elements.DefaultSize(kind)),
		ZIndex:   elements.MaxZ(s.state.Elements) + 1,
	}
	s.dispatch(AddElement{Element: el})
	return el, nil
}

// BeginDrag starts moving id. An unfinished gesture is committed first.
func (s *Session) BeginDrag(id string, pointer, origin elements.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	s.finishGesture()
	at := layout.ToCanvas(pointer, origin, layout.PreviewScale(s.state.PreviewMode))
	s.gesture = &gesture{
		kind:   gestureDrag,
		id:     id,
		before: s.state.Elements,
		offset: elements.Point{X: at.X - el.Position.X, Y: at.Y - el.Position.Y},
	}
	s.state = Reduce(s.state, SelectElement{ID: id})
	return nil
}

// DragTo moves the dragged element live. Frames never touch history.
func (s *Session) DragTo(pointer, origin elements.Point) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.active(gestureDrag)
	if err != nil {
		return s.state, err
	}
	el, ok := elements.Find(s.state.Elements, g.id)
	if !ok {
		return s.state, nil
	}
	at := layout.ToCanvas(pointer, origin, layout.PreviewScale(s.state.PreviewMode))
	p := layout.Clamp(elements.Point{X: at.X - g.offset.X, Y: at.Y - g.offset.Y}, layout.Size(el))
	s.state = Reduce(s.state, MoveElement{ID: g.id, X: p.X, Y: p.Y})
	return s.state, nil
}

// EndDrag commits the whole drag as at most one history entry.
func (s *Session) EndDrag() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.active(gestureDrag); err != nil {
		return s.state, err
	}
	s.finishGesture()
	return s.state, nil
}

// BeginResize starts resizing id from its current size.
func (s *Session) BeginResize(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	s.finishGesture()
	s.gesture = &gesture{kind: gestureResize, id: id, before: s.state.Elements, size: layout.Size(el)}
	s.state = Reduce(s.state, SelectElement{ID: id})
	return nil
}

// ResizeTo updates the live size. The document itself is untouched until EndResize.
func (s *Session) ResizeTo(width, height float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.active(gestureResize)
	if err != nil {
		return s.state, err
	}
	size := layout.ClampSize(elements.Size{Width: width, Height: height})
	if el, ok := elements.Find(s.state.Elements, g.id); ok && el.Position.X+size.Width > layout.CanvasWidth {
		size.Width = max(layout.CanvasWidth-el.Position.X, layout.MinWidth)
	}
	g.size = size
	return s.view(), nil
}

// EndResize commits the final size through one UpdateElement.
func (s *Session) EndResize() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.active(gestureResize); err != nil {
		return s.state, err
	}
	s.finishGesture()
	return s.state, nil
}

func (s *Session) active(kind gestureKind) (*gesture, error) {
	if s.gesture == nil {
		return nil, ErrNoGesture
	}
	if s.gesture.kind != kind {
		return nil, ErrGestureMismatch
	}
	return s.gesture, nil
}

func (s *Session) finishGesture() {
	g := s.gesture
	if g == nil {
		return
	}
	s.gesture = nil
	switch g.kind {
	case gestureDrag:
		s.dispatch(CommitGesture{Before: g.before})
	case gestureResize:
		el, ok := elements.Find(s.state.Elements, g.id)
		if !ok {
			return
		}
		if layout.Size(el) == g.size {
			return
		}
		s.dispatch(UpdateElement{ID: g.id, Patch: Patch{Style: elements.Style{"width": g.size.Width, "height": g.size.Height}}})
	}
}

// ObserveContentHeight keeps style.height of quiz and comment blocks in step
// with their rendered content, up to layout.MaxAutoHeight.
func (s *Session) ObserveContentHeight(id string, height float64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok || !el.Type.ContentDriven() || height <= 0 {
		return s.state
	}
	if s.gesture != nil && s.gesture.kind == gestureResize && s.gesture.id == id {
		return s.state
	}
	return s.dispatch(SyncHeight{ID: id, Height: min(height, layout.MaxAutoHeight)})
}

// Select makes id the only selected element.
func (s *Session) Select(id string) State {
	return s.Dispatch(SelectElement{ID: id})
}

// ClickBackground clears the selection.
func (s *Session) ClickBackground() State {
	return s.Dispatch(SelectElement{})
}

func (s *Session) BringToFront(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := elements.MaxZ(s.state.Elements) + 1
	return s.dispatch(UpdateElement{ID: id, Patch: Patch{ZIndex: &z}})
}

func (s *Session) SendToBack(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := elements.MinZ(s.state.Elements) - 1
	return s.dispatch(UpdateElement{ID: id, Patch: Patch{ZIndex: &z}})
}

// Duplicate copies id next to the original, on top of everything else.
func (s *Session) Duplicate(id string) (elements.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		return elements.Element{}, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	cp := el
	cp.ID = s.NewID()
	cp.Position = layout.Clamp(elements.Point{X: el.Position.X + 20, Y: el.Position.Y + 20}, layout.Size(el))
	cp.ZIndex = elements.MaxZ(s.state.Elements) + 1
	cp.Style = el.Style.Merge(nil)
	cp.Metadata = el.Metadata.Merge(nil)
	s.dispatch(AddElement{Element: cp})
	return cp, nil
}

// EditQuiz applies a quiz edit to element id.
func (s *Session) EditQuiz(id string, edit QuizEdit) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		return s.state, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	patch, err := EditQuiz(el, edit, s.NewID)
	if err != nil {
		return s.state, err
	}
	return s.dispatch(UpdateElement{ID: id, Patch: patch}), nil
}

// EditBlock applies a list, flashcard, resource, comment or content edit to element id.
func (s *Session) EditBlock(id string, edit BlockEdit) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		return s.state, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	now := func() string { return s.Now().Format("Jan 2, 2006 15:04") }
	patch, err := EditBlock(el, edit, s.NewID, now)
	if err != nil {
		return s.state, err
	}
	return s.dispatch(UpdateElement{ID: id, Patch: patch}), nil
}

// GenerateQuiz replaces the questions of quiz id with generated ones. The
// context is the plain text of the other elements plus extra. Only one
// generation per element may be in flight.
func (s *Session) GenerateQuiz(ctx context.Context, id string, gen QuizGenerator, extra string) (services.Generation, error) {
	s.mu.Lock()
	el, ok := elements.Find(s.state.Elements, id)
	if !ok {
		s.mu.Unlock()
		return services.Generation{}, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	if el.Type != elements.KindQuiz {
		s.mu.Unlock()
		return services.Generation{}, ErrWrongKind
	}
	if s.pending[id] {
		s.mu.Unlock()
		return services.Generation{}, ErrGenerationPending
	}
	s.pending[id] = true
	text := strings.TrimSpace(elements.PlainText(s.state.Elements, id) + "\n" + extra)
	s.mu.Unlock()

	result := gen.Generate(ctx, "editor:"+id+"\x00"+text, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	s.dispatch(UpdateElement{ID: id, Patch: ReplaceQuestions(result.Questions)})
	return result, nil
}

// Pending reports whether a quiz generation for id is in flight.
func (s *Session) Pending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[id]
}

// Dirty reports whether the committed elements differ from saved.
func (s *Session) Dirty(saved []elements.Element) bool {
	return !reflect.DeepEqual(s.State().Elements, saved)
}
