package services

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/local/coursebuilder/api/elements"
)

const blank = "_____"

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// FallbackQuestions builds up to count fill-in-the-blank questions from text
// without any remote call. The same text always yields the same questions.
func FallbackQuestions(text string, count int, newID func() string) []elements.Question {
	type candidate struct {
		sentence string
		keyword  string
	}

	var picked []candidate
	seen := map[string]bool{}
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if len(strings.Fields(s)) < 5 {
			continue
		}
		kw := keyword(s)
		if kw == "" || seen[strings.ToLower(kw)] {
			continue
		}
		seen[strings.ToLower(kw)] = true
		picked = append(picked, candidate{sentence: s, keyword: kw})
		if len(picked) == count {
			break
		}
	}

	if len(picked) == 0 {
		return []elements.Question{{
			ID:       newID(),
			Question: "Which statement best describes this lesson?",
			Options:  []string{"It covers the material shown on this page", "It is about an unrelated topic", "It has no content"},
			Correct:  0,
		}}
	}

	pool := make([]string, 0, len(picked))
	for _, c := range picked {
		pool = append(pool, c.keyword)
	}

	out := make([]elements.Question, 0, len(picked))
	for i, c := range picked {
		options, correct := placeAnswer(c.keyword, Distractors(c.keyword, pool, 3), i)
		out = append(out, elements.Question{
			ID:       newID(),
			Question: "Fill in the blank: " + strings.Replace(c.sentence, c.keyword, blank, 1),
			Options:  options,
			Correct:  correct,
		})
	}
	return out
}

// keyword returns the longest word of at least five letters, first one wins
// on ties.
func keyword(sentence string) string {
	best := ""
	for _, w := range strings.Fields(sentence) {
		w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if len([]rune(w)) < 5 || !strings.ContainsFunc(w, unicode.IsLetter) {
			continue
		}
		if len([]rune(w)) > len([]rune(best)) {
			best = w
		}
	}
	return best
}
