package render

import (
	"errors"
	"strings"
	"time"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/services"
)

var ErrEmptyComment = errors.New("comment text is empty")

// Flips tracks which flashcards show their back side.
type Flips map[string]bool

// Flip turns card id over and returns whether it now shows the back.
func (f Flips) Flip(id string) bool {
	f[id] = !f[id]
	return f[id]
}

// CommentThread is a learner's view of a comment block: the authored comments
// plus whatever was posted during this viewing. Nothing is persisted.
type CommentThread struct {
	TopicID  string
	Title    string
	comments []elements.Comment
}

func NewCommentThread(el elements.Element) *CommentThread {
	data := el.Metadata.Comments()
	return &CommentThread{
		TopicID:  el.ID,
		Title:    data.Title,
		comments: append([]elements.Comment{}, data.Comments...),
	}
}

// Post appends a comment locally right away and forwards it to poster
// without waiting for the result.
func (t *CommentThread) Post(poster services.CommentPoster, id, user, text string, at time.Time) (elements.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return elements.Comment{}, ErrEmptyComment
	}
	if user == "" {
		user = "Learner"
	}
	c := elements.Comment{ID: id, User: user, Text: text, Date: at.Format("Jan 2, 2006 15:04")}
	t.comments = append(t.comments, c)
	if poster != nil {
		poster.Post(t.TopicID, text)
	}
	return c, nil
}

func (t *CommentThread) Comments() []elements.Comment {
	return append([]elements.Comment{}, t.comments...)
}
