package elements

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text of a rich-text fragment with tags removed and
// whitespace collapsed.
func StripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// block boundaries must not glue words together
			b.WriteByte(' ')
		}
	}
}

// ListItems splits the comma-delimited payload of a list block.
func ListItems(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	parts := strings.Split(content, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

// HeroLines splits a hero payload into title and subtitle.
func HeroLines(content string) (string, string) {
	title, subtitle, _ := strings.Cut(content, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(subtitle)
}

// PlainText accumulates the readable text of a page, in array order, for use
// as quiz-generation context. The element with id skip is left out.
func PlainText(list []Element, skip string) string {
	var parts []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	for _, el := range list {
		if el.ID == skip {
			continue
		}
		switch el.Type {
		case KindText:
			add(StripHTML(el.Content))
		case KindHero:
			title, subtitle := HeroLines(el.Content)
			add(title)
			add(subtitle)
		case KindList:
			var items []string
			for _, item := range ListItems(el.Content) {
				if item != "" {
					items = append(items, item)
				}
			}
			add(strings.Join(items, ". "))
		case KindFlashcard:
			card := el.Metadata.Flashcard()
			add(card.Front + " " + card.Back)
		case KindResource:
			add(el.Metadata.Resource().Label)
		}
	}
	return strings.Join(parts, "\n")
}
