package elements

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleMergeKeepsUnknownKeys(t *testing.T) {
	base := Style{"width": 300.0, "x-future": "keep-me"}
	merged := base.Merge(Style{"width": 320.0, "color": "red"})

	assert.Equal(t, 320.0, merged["width"])
	assert.Equal(t, "keep-me", merged["x-future"])
	assert.Equal(t, "red", merged["color"])
	assert.Equal(t, 300.0, base["width"], "receiver must not change")
}

func TestStyleNumber(t *testing.T) {
	s := Style{"a": 12.5, "b": "320px", "c": 7, "d": "auto"}

	v, ok := s.Number("a")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = s.Number("b")
	assert.True(t, ok)
	assert.Equal(t, 320.0, v)

	v, ok = s.Number("c")
	assert.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = s.Number("d")
	assert.False(t, ok)
	_, ok = s.Number("missing")
	assert.False(t, ok)
}

func TestCheckStyleReportsUnknown(t *testing.T) {
	unknown := CheckStyle(KindHero, Style{"width": 1, "backgroundType": "gradient", "zz": 1, "aa": 2})
	assert.Equal(t, []string{"aa", "zz"}, unknown)
}

func TestQuizDefaultsWhenMissing(t *testing.T) {
	var m Metadata
	quiz := m.Quiz()
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, DefaultQuestion("1"), quiz.Questions[0])

	malformed := Metadata{"questions": "not a list"}
	assert.Len(t, malformed.Quiz().Questions, 1)
}

func TestQuizNormalizesCorrectIndex(t *testing.T) {
	m := Metadata{"questions": []any{
		map[string]any{"question": "Q", "options": []any{"a", "b"}, "correct": 5.0},
	}}
	q := m.Quiz().Questions[0]
	assert.Equal(t, 0, q.Correct)
	assert.Equal(t, "q1", q.ID)
}

func TestQuizPatchIsPlainJSON(t *testing.T) {
	patch := QuizPatch([]Question{{ID: "1", Question: "Q1", Options: []string{"a", "b"}, Correct: 1}})
	list, ok := patch["questions"].([]any)
	require.True(t, ok)
	first := list[0].(map[string]any)
	assert.Equal(t, 1.0, first["correct"])

	back := Metadata(patch).Quiz()
	assert.Equal(t, 1, back.Questions[0].Correct)
}

func TestResourceIconFallback(t *testing.T) {
	r := Metadata{"iconType": "zip", "url": "https://x"}.Resource()
	assert.Equal(t, IconLink, r.IconType)
	assert.Equal(t, "Download resource", r.Label)
}

func TestVideoMarkersDropNonPositive(t *testing.T) {
	v := Metadata{"markers": []any{
		map[string]any{"time": 0.0, "label": "start"},
		map[string]any{"time": 30.0, "label": "check"},
	}}.Video()
	require.Len(t, v.Markers, 1)
	assert.Equal(t, "check", v.Markers[0].Label)
}

type kindNamer struct{}

func (kindNamer) Text(Element) string      { return "text" }
func (kindNamer) Image(Element) string     { return "image" }
func (kindNamer) Video(Element) string     { return "video" }
func (kindNamer) Container(Element) string { return "container" }
func (kindNamer) Hero(Element) string      { return "hero" }
func (kindNamer) List(Element) string      { return "list" }
func (kindNamer) Quiz(Element) string      { return "quiz" }
func (kindNamer) Flashcard(Element) string { return "flashcard" }
func (kindNamer) Resource(Element) string  { return "resource" }
func (kindNamer) Comment(Element) string   { return "comment" }

func TestDispatchCoversEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		assert.Equal(t, string(k), Dispatch[string](Element{Type: k}, kindNamer{}))
	}
	assert.Equal(t, "container", Dispatch[string](Element{Type: "mystery"}, kindNamer{}))
}

func TestDefaultsForEveryKind(t *testing.T) {
	for _, k := range Kinds() {
		_, style, _ := Defaults(k)
		w, ok := style.Width()
		assert.True(t, ok, k)
		assert.Equal(t, DefaultSize(k).Width, w, k)
	}
	_, _, meta := Defaults(KindQuiz)
	assert.Len(t, meta.Quiz().Questions, 1)
}

func TestPlainText(t *testing.T) {
	list := []Element{
		{ID: "h", Type: KindHero, Content: "Photosynthesis\nHow plants eat light"},
		{ID: "t", Type: KindText, Content: "<p>Plants use <b>chlorophyll</b>.</p><p>Light&nbsp;matters.</p>"},
		{ID: "l", Type: KindList, Content: "water, , carbon dioxide"},
		{ID: "q", Type: KindQuiz},
	}
	got := PlainText(list, "q")
	assert.Equal(t, "Photosynthesis\nHow plants eat light\nPlants use chlorophyll . Light matters.\nwater. carbon dioxide", got)
}

func TestListItems(t *testing.T) {
	assert.Nil(t, ListItems("   "))
	assert.Equal(t, []string{"a", "", "c"}, ListItems("a, ,c"))
	assert.Equal(t, "a, b", JoinList([]string{"a", "b"}))
}

func TestDecodeRoundTrip(t *testing.T) {
	list := []Element{{
		ID:       "e1",
		Type:     KindQuiz,
		Content:  "c",
		Style:    Style{"width": 500.0, "custom": "x"},
		Position: Point{X: 120, Y: 340},
		ZIndex:   3,
		Metadata: Metadata{"questions": []any{}},
	}}
	data, err := Encode(list)
	require.NoError(t, err)

	back, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, list, back)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode([]byte(`[{"id":"a","type":"banner","position":{"x":0,"y":0},"zIndex":0}]`))
	assert.Error(t, err)

	dup, _ := json.Marshal([]Element{{ID: "a", Type: KindText}, {ID: "a", Type: KindText}})
	_, err = Decode(dup)
	assert.ErrorContains(t, err, "duplicate id")

	empty, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
