package elements

import (
	"encoding/json"
	"fmt"
)

// Metadata is the structured payload of interactive kinds. Readers never fail:
// each typed view applies its default shape when the payload is missing or
// malformed.
type Metadata map[string]any

// Merge returns a new map with patch overlaid on m (shallow).
func (m Metadata) Merge(patch Metadata) Metadata {
	if m == nil && patch == nil {
		return nil
	}
	out := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (m Metadata) decode(v any) bool {
	if len(m) == 0 {
		return false
	}
	b, err := json.Marshal(m)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// plain converts typed values into the map/slice shapes produced by
// encoding/json, so stored metadata looks the same before and after a save.
func plain(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// Question is one multiple-choice quiz question. Correct always indexes Options.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// DefaultQuestion is the placeholder question used for empty quizzes.
func DefaultQuestion(id string) Question {
	return Question{
		ID:       id,
		Question: "New question",
		Options:  []string{"Option 1", "Option 2"},
		Correct:  0,
	}
}

// Normalize restores the correct-index invariant.
func (q Question) Normalize() Question {
	if len(q.Options) == 0 {
		q.Options = []string{"Option 1", "Option 2"}
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		q.Correct = 0
	}
	return q
}

type QuizData struct {
	Questions []Question `json:"questions"`
}

// Quiz reads the quiz payload. An absent or empty question list yields one
// placeholder question.
func (m Metadata) Quiz() QuizData {
	var data QuizData
	if !m.decode(&data) || len(data.Questions) == 0 {
		return QuizData{Questions: []Question{DefaultQuestion("1")}}
	}
	for i, q := range data.Questions {
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		data.Questions[i] = q.Normalize()
	}
	return data
}

// QuizPatch builds the metadata patch that replaces the question list.
func QuizPatch(questions []Question) Metadata {
	return Metadata{"questions": plain(questions)}
}

type FlashcardData struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

func (m Metadata) Flashcard() FlashcardData {
	var data FlashcardData
	m.decode(&data)
	if data.Front == "" {
		data.Front = "Front of card"
	}
	if data.Back == "" {
		data.Back = "Back of card"
	}
	return data
}

func FlashcardPatch(data FlashcardData) Metadata {
	return Metadata{"front": data.Front, "back": data.Back}
}

// Icon types of resource blocks.
const (
	IconPDF   = "pdf"
	IconLink  = "link"
	IconVideo = "video"
)

type ResourceData struct {
	Label    string `json:"label"`
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	IconType string `json:"iconType"`
}

func (m Metadata) Resource() ResourceData {
	var data ResourceData
	m.decode(&data)
	if data.Label == "" {
		data.Label = "Download resource"
	}
	switch data.IconType {
	case IconPDF, IconLink, IconVideo:
	default:
		data.IconType = IconLink
	}
	return data
}

func ResourcePatch(data ResourceData) Metadata {
	return Metadata{
		"label":    data.Label,
		"url":      data.URL,
		"fileName": data.FileName,
		"iconType": data.IconType,
	}
}

type Comment struct {
	ID   string `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Date string `json:"date"`
}

type CommentData struct {
	Title    string    `json:"title"`
	Comments []Comment `json:"comments"`
}

func (m Metadata) Comments() CommentData {
	var data CommentData
	m.decode(&data)
	if data.Title == "" {
		data.Title = "Discussion"
	}
	if data.Comments == nil {
		data.Comments = []Comment{}
	}
	return data
}

func CommentPatch(data CommentData) Metadata {
	return Metadata{"title": data.Title, "comments": plain(data.Comments)}
}

// Marker is a fixed timestamp overlay used by exported videos.
type Marker struct {
	Time  float64 `json:"time"`
	Label string  `json:"label"`
}

type VideoData struct {
	Markers []Marker `json:"markers"`
}

func (m Metadata) Video() VideoData {
	var data VideoData
	m.decode(&data)
	valid := data.Markers[:0]
	for _, mk := range data.Markers {
		if mk.Time > 0 {
			valid = append(valid, mk)
		}
	}
	data.Markers = valid
	return data
}
