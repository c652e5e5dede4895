package elements

// Kind tags which renderer, editor and metadata shape apply to an element.
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindContainer Kind = "container"
	KindHero      Kind = "hero"
	KindList      Kind = "list"
	KindQuiz      Kind = "quiz"
	KindFlashcard Kind = "flashcard"
	KindResource  Kind = "resource"
	KindComment   Kind = "comment"
)

var kinds = []Kind{
	KindText, KindImage, KindVideo, KindContainer, KindHero,
	KindList, KindQuiz, KindFlashcard, KindResource, KindComment,
}

// Kinds returns the closed set of element kinds in palette order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ContentDriven reports whether the block grows with its content and keeps
// style.height in sync with the observed size.
func (k Kind) ContentDriven() bool {
	return k == KindQuiz || k == KindComment
}

// Point is an offset in the 800-unit virtual canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is a single placeable block on the canvas.
type Element struct {
	ID       string   `json:"id" validate:"required"`
	Type     Kind     `json:"type" validate:"required,oneof=text image video container hero list quiz flashcard resource comment"`
	Content  string   `json:"content,omitempty"`
	Style    Style    `json:"style,omitempty"`
	Position Point    `json:"position"`
	ZIndex   int      `json:"zIndex"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Index returns the position of the element with id, or -1.
func Index(list []Element, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the element with id.
func Find(list []Element, id string) (Element, bool) {
	if i := Index(list, id); i >= 0 {
		return list[i], true
	}
	return Element{}, false
}

// MaxZ returns the highest zIndex in list, or 0 for an empty list.
func MaxZ(list []Element) int {
	z := 0
	for i, el := range list {
		if i == 0 || el.ZIndex > z {
			z = el.ZIndex
		}
	}
	return z
}

// MinZ returns the lowest zIndex in list, or 0 for an empty list.
func MinZ(list []Element) int {
	z := 0
	for i, el := range list {
		if i == 0 || el.ZIndex < z {
			z = el.ZIndex
		}
	}
	return z
}
