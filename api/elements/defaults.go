package elements

// Size is a width/height pair in canvas units.
type Size struct {
	Width  float64
	Height float64
}

var defaultSizes = map[Kind]Size{
	KindText:      {300, 100},
	KindImage:     {300, 200},
	KindVideo:     {480, 270},
	KindContainer: {400, 200},
	KindHero:      {800, 300},
	KindList:      {300, 150},
	KindQuiz:      {500, 400},
	KindFlashcard: {300, 200},
	KindResource:  {300, 80},
	KindComment:   {400, 350},
}

// DefaultSize is the placed size of a freshly dropped element.
func DefaultSize(kind Kind) Size {
	if s, ok := defaultSizes[kind]; ok {
		return s
	}
	return Size{300, 100}
}

// Defaults returns the content, style and metadata a new element of kind
// starts with.
func Defaults(kind Kind) (string, Style, Metadata) {
	size := DefaultSize(kind)
	style := Style{"width": size.Width, "height": size.Height}

	switch kind {
	case KindText:
		return "<p>Double-click to edit text</p>", style.Merge(Style{"fontSize": "16px", "color": "#1f2937"}), nil
	case KindImage:
		return "", style.Merge(Style{"objectFit": "cover", "borderRadius": "8px"}), nil
	case KindVideo:
		return "", style, nil
	case KindContainer:
		return "", style.Merge(Style{"backgroundColor": "#f3f4f6", "borderRadius": "8px", "padding": "16px"}), nil
	case KindHero:
		return "Welcome to the Course\nStart your learning journey today", style.Merge(Style{
			"backgroundType": "gradient",
			"gradientFrom":   "#4f46e5",
			"gradientTo":     "#9333ea",
			"color":          "#ffffff",
			"textAlign":      "center",
		}), nil
	case KindList:
		return "First item, Second item, Third item", style, nil
	case KindQuiz:
		return "", style, QuizPatch([]Question{DefaultQuestion("1")})
	case KindFlashcard:
		return "", style, FlashcardPatch(FlashcardData{Front: "Front of card", Back: "Back of card"})
	case KindResource:
		return "", style, ResourcePatch(ResourceData{Label: "Download resource", IconType: IconPDF})
	case KindComment:
		return "", style, CommentPatch(CommentData{Title: "Discussion"})
	}
	return "", style, nil
}
