package render

import (
	"errors"
	"fmt"

	"github.com/local/coursebuilder/api/elements"
)

var (
	ErrQuizLocked = errors.New("quiz already submitted")
	ErrOutOfRange = errors.New("index out of range")
)

// Score counts correctly answered questions.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Ratio is Correct/Total, or 0 for an empty quiz.
func (s Score) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

func (s Score) String() string {
	return fmt.Sprintf("%d/%d", s.Correct, s.Total)
}

// OptionMark is how one option is shown. Correct and Wrong are only set once
// the attempt is submitted.
type OptionMark struct {
	Selected bool `json:"selected"`
	Correct  bool `json:"correct"`
	Wrong    bool `json:"wrong"`
}

// QuizAttempt is a learner's run through a quiz block. Selections are open
// until Submit and are cleared by Retry.
type QuizAttempt struct {
	questions []elements.Question
	selected  map[int]int
	submitted bool
}

func NewQuizAttempt(questions []elements.Question) *QuizAttempt {
	qs := make([]elements.Question, len(questions))
	for i, q := range questions {
		qs[i] = q.Normalize()
	}
	return &QuizAttempt{questions: qs, selected: make(map[int]int)}
}

// Select picks option o for question q, replacing any earlier pick.
func (a *QuizAttempt) Select(q, o int) error {
	if a.submitted {
		return ErrQuizLocked
	}
	if q < 0 || q >= len(a.questions) {
		return fmt.Errorf("question %d: %w", q, ErrOutOfRange)
	}
	if o < 0 || o >= len(a.questions[q].Options) {
		return fmt.Errorf("option %d: %w", o, ErrOutOfRange)
	}
	a.selected[q] = o
	return nil
}

// Submit locks the attempt and scores it. Unanswered questions count as wrong.
func (a *QuizAttempt) Submit() Score {
	a.submitted = true
	return a.Score()
}

func (a *QuizAttempt) Retry() {
	a.submitted = false
	a.selected = make(map[int]int)
}

func (a *QuizAttempt) Submitted() bool { return a.submitted }

// Complete reports whether every question has a selection.
func (a *QuizAttempt) Complete() bool {
	return len(a.selected) == len(a.questions)
}

func (a *QuizAttempt) Score() Score {
	s := Score{Total: len(a.questions)}
	for i, q := range a.questions {
		if o, ok := a.selected[i]; ok && o == q.Correct {
			s.Correct++
		}
	}
	return s
}

// Reveal returns the mark of option o of question q.
func (a *QuizAttempt) Reveal(q, o int) OptionMark {
	if q < 0 || q >= len(a.questions) {
		return OptionMark{}
	}
	sel, ok := a.selected[q]
	m := OptionMark{Selected: ok && sel == o}
	if a.submitted {
		m.Correct = o == a.questions[q].Correct
		m.Wrong = m.Selected && !m.Correct
	}
	return m
}

// QuestionView is a question as sent to learners: the correct index is
// withheld until the attempt is submitted.
type QuestionView struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Options  []string     `json:"options"`
	Marks    []OptionMark `json:"marks"`
}

type QuizView struct {
	Questions []QuestionView `json:"questions"`
	Submitted bool           `json:"submitted"`
	Complete  bool           `json:"complete"`
	Score     *Score         `json:"score,omitempty"`
}

func (a *QuizAttempt) View() QuizView {
	v := QuizView{Submitted: a.submitted, Complete: a.Complete()}
	for i, q := range a.questions {
		qv := QuestionView{ID: q.ID, Question: q.Question, Options: append([]string{}, q.Options...)}
		for o := range q.Options {
			qv.Marks = append(qv.Marks, a.Reveal(i, o))
		}
		v.Questions = append(v.Questions, qv)
	}
	if a.submitted {
		s := a.Score()
		v.Score = &s
	}
	return v
}
