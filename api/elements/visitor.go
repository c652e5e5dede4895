package elements

// Visitor has one method per kind. Every renderer and serializer implements
// it, so adding a kind fails to compile until each of them handles it.
type Visitor[T any] interface {
	Text(el Element) T
	Image(el Element) T
	Video(el Element) T
	Container(el Element) T
	Hero(el Element) T
	List(el Element) T
	Quiz(el Element) T
	Flashcard(el Element) T
	Resource(el Element) T
	Comment(el Element) T
}

// Dispatch calls the visitor method matching el.Type. Elements with a kind
// outside the closed set are rendered as containers.
func Dispatch[T any](el Element, v Visitor[T]) T {
	switch el.Type {
	case KindText:
		return v.Text(el)
	case KindImage:
		return v.Image(el)
	case KindVideo:
		return v.Video(el)
	case KindHero:
		return v.Hero(el)
	case KindList:
		return v.List(el)
	case KindQuiz:
		return v.Quiz(el)
	case KindFlashcard:
		return v.Flashcard(el)
	case KindResource:
		return v.Resource(el)
	case KindComment:
		return v.Comment(el)
	default:
		return v.Container(el)
	}
}
