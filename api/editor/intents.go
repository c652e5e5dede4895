package editor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/local/coursebuilder/api/elements"
)

var ErrUnknownIntent = errors.New("unknown intent")

// Intent is a requested transition of the document state.
type Intent interface {
	intentName() string
}

// Patch carries the fields of a partial element update. Style and Metadata
// merge shallowly; Content, Position and ZIndex replace when set.
type Patch struct {
	Style    elements.Style    `json:"style,omitempty"`
	Content  *string           `json:"content,omitempty"`
	Metadata elements.Metadata `json:"metadata,omitempty"`
	Position *elements.Point   `json:"position,omitempty"`
	ZIndex   *int              `json:"zIndex,omitempty"`
}

type AddElement struct {
	Element elements.Element `json:"element"`
}

type UpdateElement struct {
	ID    string `json:"id"`
	Patch Patch  `json:"patch"`
}

type MoveElement struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// SelectElement selects id; an empty id clears the selection.
type SelectElement struct {
	ID string `json:"id"`
}

type ReorderElements struct {
	Elements []elements.Element `json:"elements"`
}

type DeleteElement struct {
	ID string `json:"id"`
}

// LoadTemplate replaces the document with a preset. Template names a catalog
// entry and is resolved to Elements by the caller.
type LoadTemplate struct {
	Template string             `json:"template,omitempty"`
	Elements []elements.Element `json:"elements"`
}

type Undo struct{}

type Redo struct{}

type ClearCanvas struct{}

type SetPreviewMode struct {
	Mode string `json:"mode"`
}

type SetView struct {
	View View `json:"view"`
}

// LoadState starts a fresh document from persisted elements, without history.
type LoadState struct {
	Elements []elements.Element `json:"elements"`
}

// CommitGesture records the elements as they were before a pointer gesture as
// one history entry, if the gesture changed anything.
type CommitGesture struct {
	Before []elements.Element `json:"-"`
}

// SyncHeight follows the observed content height of a block without touching
// history.
type SyncHeight struct {
	ID     string  `json:"id"`
	Height float64 `json:"height"`
}

func (AddElement) intentName() string      { return "ADD_ELEMENT" }
func (UpdateElement) intentName() string   { return "UPDATE_ELEMENT" }
func (MoveElement) intentName() string     { return "MOVE_ELEMENT" }
func (SelectElement) intentName() string   { return "SELECT_ELEMENT" }
func (ReorderElements) intentName() string { return "REORDER_ELEMENTS" }
func (DeleteElement) intentName() string   { return "DELETE_ELEMENT" }
func (LoadTemplate) intentName() string    { return "LOAD_TEMPLATE" }
func (Undo) intentName() string            { return "UNDO" }
func (Redo) intentName() string            { return "REDO" }
func (ClearCanvas) intentName() string     { return "CLEAR_CANVAS" }
func (SetPreviewMode) intentName() string  { return "SET_PREVIEW_MODE" }
func (SetView) intentName() string         { return "SET_VIEW" }
func (LoadState) intentName() string       { return "LOAD_STATE" }
func (CommitGesture) intentName() string   { return "COMMIT_GESTURE" }
func (SyncHeight) intentName() string      { return "SYNC_HEIGHT" }

// Name returns the wire name of an intent.
func Name(in Intent) string {
	return in.intentName()
}

// DecodeIntent parses a client intent of the form {"type": "MOVE_ELEMENT", ...}.
func DecodeIntent(data []byte) (Intent, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse intent: %w", err)
	}

	var in Intent
	switch envelope.Type {
	case "ADD_ELEMENT":
		in = &AddElement{}
	case "UPDATE_ELEMENT":
		in = &UpdateElement{}
	case "MOVE_ELEMENT":
		in = &MoveElement{}
	case "SELECT_ELEMENT":
		in = &SelectElement{}
	case "REORDER_ELEMENTS":
		in = &ReorderElements{}
	case "DELETE_ELEMENT":
		in = &DeleteElement{}
	case "LOAD_TEMPLATE":
		in = &LoadTemplate{}
	case "UNDO":
		return Undo{}, nil
	case "REDO":
		return Redo{}, nil
	case "CLEAR_CANVAS":
		return ClearCanvas{}, nil
	case "SET_PREVIEW_MODE":
		in = &SetPreviewMode{}
	case "SET_VIEW":
		in = &SetView{}
	case "LOAD_STATE":
		in = &LoadState{}
	case "SYNC_HEIGHT":
		in = &SyncHeight{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, envelope.Type)
	}
	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", envelope.Type, err)
	}
	return deref(in), nil
}

func deref(in Intent) Intent {
	switch v := in.(type) {
	case *AddElement:
		return *v
	case *UpdateElement:
		return *v
	case *MoveElement:
		return *v
	case *SelectElement:
		return *v
	case *ReorderElements:
		return *v
	case *DeleteElement:
		return *v
	case *LoadTemplate:
		return *v
	case *SetPreviewMode:
		return *v
	case *SetView:
		return *v
	case *LoadState:
		return *v
	case *SyncHeight:
		return *v
	}
	return in
}
