package editor

import (
	"errors"
	"fmt"

	"github.com/local/coursebuilder/api/elements"
)

var (
	ErrOutOfRange = errors.New("index out of range")
	ErrLastItem   = errors.New("cannot remove the last item")
	ErrWrongKind  = errors.New("operation does not apply to this element type")
	ErrUnknownOp  = errors.New("unknown block operation")
)

// Quiz operations.
const (
	QuizAddQuestion    = "add_question"
	QuizRemoveQuestion = "remove_question"
	QuizSetQuestion    = "set_question"
	QuizAddOption      = "add_option"
	QuizRemoveOption   = "remove_option"
	QuizSetOption      = "set_option"
	QuizMarkCorrect    = "mark_correct"
)

// QuizEdit is one change to a quiz block's question list.
type QuizEdit struct {
	Op       string `json:"op" binding:"required"`
	Question int    `json:"question"`
	Option   int    `json:"option"`
	Text     string `json:"text"`
}

// EditQuiz applies edit to the questions of el and returns the metadata patch.
// newID supplies ids for added questions.
func EditQuiz(el elements.Element, edit QuizEdit, newID func() string) (Patch, error) {
	if el.Type != elements.KindQuiz {
		return Patch{}, ErrWrongKind
	}
	questions := el.Metadata.Quiz().Questions

	if edit.Op == QuizAddQuestion {
		q := elements.DefaultQuestion(newID())
		q.Question = fmt.Sprintf("Question %d", len(questions)+1)
		return Patch{Metadata: elements.QuizPatch(append(questions, q))}, nil
	}

	if edit.Question < 0 || edit.Question >= len(questions) {
		return Patch{}, fmt.Errorf("question %d: %w", edit.Question, ErrOutOfRange)
	}
	q := questions[edit.Question]
	optionInRange := edit.Option >= 0 && edit.Option < len(q.Options)

	switch edit.Op {
	case QuizRemoveQuestion:
		if len(questions) == 1 {
			return Patch{}, ErrLastItem
		}
		questions = append(questions[:edit.Question], questions[edit.Question+1:]...)
		return Patch{Metadata: elements.QuizPatch(questions)}, nil

	case QuizSetQuestion:
		q.Question = edit.Text

	case QuizAddOption:
		q.Options = append(q.Options, fmt.Sprintf("Option %d", len(q.Options)+1))

	case QuizRemoveOption:
		if !optionInRange {
			return Patch{}, fmt.Errorf("option %d: %w", edit.Option, ErrOutOfRange)
		}
		if len(q.Options) == 1 {
			return Patch{}, ErrLastItem
		}
		q = removeOption(q, edit.Option)

	case QuizSetOption:
		if !optionInRange {
			return Patch{}, fmt.Errorf("option %d: %w", edit.Option, ErrOutOfRange)
		}
		q.Options[edit.Option] = edit.Text

	case QuizMarkCorrect:
		if !optionInRange {
			return Patch{}, fmt.Errorf("option %d: %w", edit.Option, ErrOutOfRange)
		}
		q.Correct = edit.Option

	default:
		return Patch{}, fmt.Errorf("%w: %q", ErrUnknownOp, edit.Op)
	}

	questions[edit.Question] = q
	return Patch{Metadata: elements.QuizPatch(questions)}, nil
}

// removeOption drops option i. The correct index keeps pointing at the same
// option when an earlier one is removed, and resets to 0 when the correct
// option itself is removed.
func removeOption(q elements.Question, i int) elements.Question {
	options := make([]string, 0, len(q.Options)-1)
	options = append(options, q.Options[:i]...)
	options = append(options, q.Options[i+1:]...)
	q.Options = options

	if i == q.Correct {
		q.Correct = 0
	} else if i < q.Correct {
		q.Correct--
	}
	if q.Correct >= len(q.Options) {
		q.Correct = 0
	}
	return q
}

// ReplaceQuestions swaps the whole question list, e.g. with generated questions.
func ReplaceQuestions(questions []elements.Question) Patch {
	out := make([]elements.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Normalize())
	}
	if len(out) == 0 {
		out = append(out, elements.DefaultQuestion("1"))
	}
	return Patch{Metadata: elements.QuizPatch(out)}
}

// Block operations for the simpler interactive kinds.
const (
	ListSetItem     = "set_item"
	ListAddItem     = "add_item"
	ListRemoveItem  = "remove_item"
	FlashcardSet    = "set_flashcard"
	ResourceSet     = "set_resource"
	CommentAppend   = "append_comment"
	CommentSetTitle = "set_title"
	ContentSet      = "set_content"
)

// BlockEdit is a field-level change to a list, flashcard, resource, comment
// or content block.
type BlockEdit struct {
	Op       string                 `json:"op" binding:"required"`
	Index    int                    `json:"index"`
	Text     string                 `json:"text"`
	Front    string                 `json:"front"`
	Back     string                 `json:"back"`
	Resource *elements.ResourceData `json:"resource,omitempty"`
	User     string                 `json:"user"`
}

// EditBlock applies edit to el. Comment ids and dates come from newID and now.
func EditBlock(el elements.Element, edit BlockEdit, newID func() string, now func() string) (Patch, error) {
	switch edit.Op {
	case ContentSet:
		text := edit.Text
		return Patch{Content: &text}, nil

	case ListSetItem, ListAddItem, ListRemoveItem:
		if el.Type != elements.KindList {
			return Patch{}, ErrWrongKind
		}
		return editList(el, edit)

	case FlashcardSet:
		if el.Type != elements.KindFlashcard {
			return Patch{}, ErrWrongKind
		}
		return Patch{Metadata: elements.FlashcardPatch(elements.FlashcardData{Front: edit.Front, Back: edit.Back})}, nil

	case ResourceSet:
		if el.Type != elements.KindResource {
			return Patch{}, ErrWrongKind
		}
		if edit.Resource == nil {
			return Patch{}, fmt.Errorf("%w: resource payload missing", ErrUnknownOp)
		}
		data := *edit.Resource
		switch data.IconType {
		case elements.IconPDF, elements.IconLink, elements.IconVideo:
		default:
			data.IconType = elements.IconLink
		}
		return Patch{Metadata: elements.ResourcePatch(data)}, nil

	case CommentAppend, CommentSetTitle:
		if el.Type != elements.KindComment {
			return Patch{}, ErrWrongKind
		}
		data := el.Metadata.Comments()
		if edit.Op == CommentSetTitle {
			data.Title = edit.Text
			return Patch{Metadata: elements.CommentPatch(data)}, nil
		}
		user := edit.User
		if user == "" {
			user = "Instructor"
		}
		data.Comments = append(data.Comments, elements.Comment{ID: newID(), User: user, Text: edit.Text, Date: now()})
		return Patch{Metadata: elements.CommentPatch(data)}, nil
	}
	return Patch{}, fmt.Errorf("%w: %q", ErrUnknownOp, edit.Op)
}

func editList(el elements.Element, edit BlockEdit) (Patch, error) {
	items := elements.ListItems(el.Content)
	switch edit.Op {
	case ListAddItem:
		items = append(items, edit.Text)
	case ListSetItem:
		if edit.Index < 0 || edit.Index >= len(items) {
			return Patch{}, fmt.Errorf("item %d: %w", edit.Index, ErrOutOfRange)
		}
		items[edit.Index] = edit.Text
	case ListRemoveItem:
		if edit.Index < 0 || edit.Index >= len(items) {
			return Patch{}, fmt.Errorf("item %d: %w", edit.Index, ErrOutOfRange)
		}
		if len(items) == 1 {
			return Patch{}, ErrLastItem
		}
		items = append(items[:edit.Index], items[edit.Index+1:]...)
	}
	content := elements.JoinList(items)
	return Patch{Content: &content}, nil
}
