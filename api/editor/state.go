// Package editor implements the undoable document model of the course
// builder and the authoring gestures that drive it.
package editor

import (
	"reflect"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/layout"
)

type View string

const (
	ViewEditor    View = "editor"
	ViewTemplates View = "templates"
)

// State is one immutable snapshot of an editing session. Reduce never
// modifies a State or anything reachable from it.
//
// Past and Future hold full copies of Elements. That is fine for course-sized
// pages; much larger documents would want patches instead.
type State struct {
	Elements    []elements.Element   `json:"elements"`
	SelectedID  string               `json:"selectedElementId"`
	Past        [][]elements.Element `json:"past"`
	Future      [][]elements.Element `json:"future"`
	PreviewMode string               `json:"previewMode"`
	View        View                 `json:"view"`
}

// New returns an empty document.
func New() State {
	return State{
		Elements:    []elements.Element{},
		PreviewMode: layout.Desktop,
		View:        ViewEditor,
	}
}

func (s State) CanUndo() bool { return len(s.Past) > 0 }
func (s State) CanRedo() bool { return len(s.Future) > 0 }

// Selected returns the selected element, if any.
func (s State) Selected() (elements.Element, bool) {
	if s.SelectedID == "" {
		return elements.Element{}, false
	}
	return elements.Find(s.Elements, s.SelectedID)
}

// Reduce applies one intent. Intents that target a missing id, and undo or
// redo with an empty stack, return s unchanged.
func Reduce(s State, in Intent) State {
	switch in := in.(type) {
	case AddElement:
		if in.Element.ID == "" || elements.Index(s.Elements, in.Element.ID) >= 0 {
			return s
		}
		next := s.commit(append(clone(s.Elements), in.Element))
		next.SelectedID = in.Element.ID
		return next

	case UpdateElement:
		i := elements.Index(s.Elements, in.ID)
		if i < 0 {
			return s
		}
		list := clone(s.Elements)
		list[i] = applyPatch(list[i], in.Patch)
		return s.commit(list)

	case MoveElement:
		i := elements.Index(s.Elements, in.ID)
		if i < 0 {
			return s
		}
		list := clone(s.Elements)
		list[i].Position = elements.Point{X: in.X, Y: in.Y}
		s.Elements = list
		return s

	case SelectElement:
		if in.ID != "" && elements.Index(s.Elements, in.ID) < 0 {
			return s
		}
		s.SelectedID = in.ID
		return s

	case ReorderElements:
		return s.commit(clone(in.Elements))

	case DeleteElement:
		i := elements.Index(s.Elements, in.ID)
		if i < 0 {
			return s
		}
		list := make([]elements.Element, 0, len(s.Elements)-1)
		list = append(list, s.Elements[:i]...)
		list = append(list, s.Elements[i+1:]...)
		next := s.commit(list)
		if next.SelectedID == in.ID {
			next.SelectedID = ""
		}
		return next

	case LoadTemplate:
		next := s.commit(clone(in.Elements))
		next.SelectedID = ""
		next.View = ViewEditor
		return next

	case Undo:
		if len(s.Past) == 0 {
			return s
		}
		last := len(s.Past) - 1
		prev := s.Past[last]
		s.Future = pushFront(s.Future, s.Elements)
		s.Past = s.Past[:last:last]
		s.Elements = prev
		return s.dropStaleSelection()

	case Redo:
		if len(s.Future) == 0 {
			return s
		}
		next := s.Future[0]
		s.Past = pushBack(s.Past, s.Elements)
		s.Future = s.Future[1:]
		s.Elements = next
		return s.dropStaleSelection()

	case ClearCanvas:
		next := s.commit([]elements.Element{})
		next.SelectedID = ""
		return next

	case SetPreviewMode:
		s.PreviewMode = in.Mode
		return s

	case SetView:
		s.View = in.View
		return s

	case LoadState:
		next := New()
		next.Elements = clone(in.Elements)
		if next.Elements == nil {
			next.Elements = []elements.Element{}
		}
		return next

	case CommitGesture:
		if reflect.DeepEqual(in.Before, s.Elements) {
			return s
		}
		s.Past = pushBack(s.Past, in.Before)
		s.Future = nil
		return s

	case SyncHeight:
		i := elements.Index(s.Elements, in.ID)
		if i < 0 {
			return s
		}
		if h, ok := s.Elements[i].Style.Height(); ok && h == in.Height {
			return s
		}
		list := clone(s.Elements)
		list[i].Style = list[i].Style.Merge(elements.Style{"height": in.Height})
		s.Elements = list
		return s
	}
	return s
}

// Historic reports whether in changes the undo history. Live moves, selection,
// view switches and auto-height do not.
func Historic(in Intent) bool {
	switch in.(type) {
	case MoveElement, SelectElement, SetPreviewMode, SetView, SyncHeight, CommitGesture:
		return false
	}
	return true
}

// commit makes next the current elements and records the old ones in history.
func (s State) commit(next []elements.Element) State {
	if next == nil {
		next = []elements.Element{}
	}
	s.Past = pushBack(s.Past, s.Elements)
	s.Future = nil
	s.Elements = next
	return s
}

func (s State) dropStaleSelection() State {
	if s.SelectedID != "" && elements.Index(s.Elements, s.SelectedID) < 0 {
		s.SelectedID = ""
	}
	return s
}

func applyPatch(el elements.Element, p Patch) elements.Element {
	if p.Style != nil {
		el.Style = el.Style.Merge(p.Style)
	}
	if p.Metadata != nil {
		el.Metadata = el.Metadata.Merge(p.Metadata)
	}
	if p.Content != nil {
		el.Content = *p.Content
	}
	if p.Position != nil {
		el.Position = *p.Position
	}
	if p.ZIndex != nil {
		el.ZIndex = *p.ZIndex
	}
	return el
}

func clone(list []elements.Element) []elements.Element {
	if list == nil {
		return nil
	}
	out := make([]elements.Element, len(list))
	copy(out, list)
	return out
}

// pushBack and pushFront always allocate: stacks are shared between snapshots.
func pushBack(stack [][]elements.Element, snap []elements.Element) [][]elements.Element {
	out := make([][]elements.Element, len(stack), len(stack)+1)
	copy(out, stack)
	return append(out, snap)
}

func pushFront(stack [][]elements.Element, snap []elements.Element) [][]elements.Element {
	out := make([][]elements.Element, 0, len(stack)+1)
	out = append(out, snap)
	return append(out, stack...)
}
