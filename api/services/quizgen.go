package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/local/coursebuilder/api/elements"
)

const (
	DefaultQuestionCount = 3
	DefaultAITimeout     = 20 * time.Second

	// contextLimit caps the lesson text sent to the model.
	contextLimit = 6 * ChunkSize
)

var (
	ErrNoProvider    = errors.New("no AI provider configured")
	ErrEmptyResponse = errors.New("AI response contained no usable questions")
)

//go:embed prompts/quiz_gen.md
var quizSystemPrompt string

// stockDistractors pad option lists when the lesson offers too few wrong answers.
var stockDistractors = []string{
	"None of the above",
	"All of the above",
	"It is not covered in this lesson",
}

// Generation is the outcome of one quiz generation. Questions is never empty.
// Fallback is set when the deterministic generator replaced the model output,
// and Err then holds the reason.
type Generation struct {
	Questions []elements.Question `json:"questions"`
	Fallback  bool                `json:"fallback"`
	Err       error               `json:"-"`
}

// Notice is the message shown to authors and learners for a fallback result.
func (g Generation) Notice() string {
	if !g.Fallback {
		return ""
	}
	return "AI generation was unavailable, so questions were built from the lesson text."
}

type QuizGenerator struct {
	provider AIProvider
	timeout  time.Duration
	group    singleflight.Group

	Count int
	NewID func() string
}

// NewQuizGenerator wraps provider with a per-call timeout. A nil provider
// always yields fallback questions.
func NewQuizGenerator(provider AIProvider, timeout time.Duration) *QuizGenerator {
	if timeout <= 0 {
		timeout = DefaultAITimeout
	}
	return &QuizGenerator{
		provider: provider,
		timeout:  timeout,
		Count:    DefaultQuestionCount,
		NewID:    func() string { return uuid.New().String() },
	}
}

// Generate returns questions for text. Concurrent calls with the same key
// share one request.
func (g *QuizGenerator) Generate(ctx context.Context, key, text string) Generation {
	v, _, _ := g.group.Do(key, func() (any, error) {
		return g.generate(ctx, text), nil
	})
	return v.(Generation)
}

func (g *QuizGenerator) generate(ctx context.Context, text string) Generation {
	count := g.Count
	if count <= 0 {
		count = DefaultQuestionCount
	}
	fallback := func(err error) Generation {
		log.Warn().Err(err).Msg("Quiz generation failed, using fallback questions")
		return Generation{Questions: FallbackQuestions(text, count, g.NewID), Fallback: true, Err: err}
	}

	if g.provider == nil {
		return fallback(ErrNoProvider)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	systemPrompt := strings.ReplaceAll(quizSystemPrompt, "{count}", fmt.Sprint(count))
	prompt := fmt.Sprintf("Lesson text:\n\n%s", truncate(text, contextLimit))

	start := time.Now()
	raw, err := g.provider.GenerateJSON(ctx, prompt, systemPrompt)
	if err != nil {
		return fallback(fmt.Errorf("%s: %w", g.provider.GetProviderName(), err))
	}

	questions, err := NormalizeQuestions(raw, g.NewID)
	if err != nil {
		return fallback(err)
	}
	if len(questions) > count {
		questions = questions[:count]
	}

	log.Info().
		Str("provider", g.provider.GetProviderName()).
		Int("questions", len(questions)).
		Dur("took", time.Since(start)).
		Msg("Quiz generated")
	return Generation{Questions: questions}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

type rawQuestion struct {
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	Correct       json.RawMessage `json:"correct"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Answer        string          `json:"answer"`
}

// NormalizeQuestions accepts the shapes models commonly return: a bare list
// of {question, answer} or {question, options, correct}, optionally wrapped
// in {"questions": [...]} and in a markdown code fence.
func NormalizeQuestions(raw string, newID func() string) ([]elements.Question, error) {
	raw = stripFence(raw)

	var items []rawQuestion
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		var wrapped struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err2 := json.Unmarshal([]byte(raw), &wrapped); err2 != nil {
			return nil, fmt.Errorf("failed to parse AI response: %w", err)
		}
		items = wrapped.Questions
	}

	var answers []string
	for _, it := range items {
		if a := strings.TrimSpace(it.Answer); a != "" {
			answers = append(answers, a)
		}
	}

	var out []elements.Question
	for _, it := range items {
		text := strings.TrimSpace(it.Question)
		if text == "" {
			continue
		}
		q := elements.Question{ID: newID(), Question: text}

		options := cleanOptions(it.Options)
		if len(options) >= 2 {
			q.Options = options
			q.Correct = correctIndex(it, options)
		} else {
			answer := strings.TrimSpace(it.Answer)
			if answer == "" {
				continue
			}
			q.Options, q.Correct = placeAnswer(answer, Distractors(answer, answers, 3), len(out))
		}
		out = append(out, q.Normalize())
	}

	if len(out) == 0 {
		return nil, ErrEmptyResponse
	}
	return out, nil
}

func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func cleanOptions(options []string) []string {
	var out []string
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// correctIndex reads the correct option from a number, a numeric string or
// the option text itself.
func correctIndex(it rawQuestion, options []string) int {
	for _, field := range []json.RawMessage{it.Correct, it.CorrectAnswer} {
		if len(field) == 0 {
			continue
		}
		var n int
		if err := json.Unmarshal(field, &n); err == nil {
			return n
		}
		var s string
		if err := json.Unmarshal(field, &s); err == nil {
			if i := indexOf(options, s); i >= 0 {
				return i
			}
			if _, err := fmt.Sscan(s, &n); err == nil {
				return n
			}
		}
	}
	if i := indexOf(options, it.Answer); i >= 0 {
		return i
	}
	return 0
}

func indexOf(options []string, s string) int {
	s = strings.TrimSpace(s)
	for i, o := range options {
		if strings.EqualFold(o, s) {
			return i
		}
	}
	return -1
}

// Distractors picks up to n wrong answers for answer: other answers from pool
// first, then stock phrases.
func Distractors(answer string, pool []string, n int) []string {
	seen := map[string]bool{strings.ToLower(answer): true}
	var out []string
	for _, candidates := range [][]string{pool, stockDistractors} {
		for _, c := range candidates {
			if len(out) == n {
				return out
			}
			key := strings.ToLower(c)
			if c == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// placeAnswer inserts answer among distractors at a position that rotates
// with the question index.
func placeAnswer(answer string, distractors []string, index int) ([]string, int) {
	at := index % (len(distractors) + 1)
	options := make([]string, 0, len(distractors)+1)
	options = append(options, distractors[:at]...)
	options = append(options, answer)
	options = append(options, distractors[at:]...)
	return options, at
}
