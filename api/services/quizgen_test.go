package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqID() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id%d", n)
	}
}

type fakeProvider struct {
	reply string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeProvider) GenerateText(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return f.GenerateJSON(ctx, prompt, systemPrompt)
}

func (f *fakeProvider) GenerateJSON(ctx context.Context, prompt, systemPrompt string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeProvider) GetProviderName() string { return "fake" }

const lesson = "Photosynthesis converts sunlight into chemical energy inside plant leaves. " +
	"Chlorophyll absorbs mostly blue and red light from the spectrum. " +
	"The Calvin cycle builds glucose from carbon dioxide molecules."

func TestNormalizeQuestions(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantCount   int
		wantCorrect []string
	}{
		{
			name:        "options with index",
			raw:         `[{"question":"2+2?","options":["3","4"],"correct":1}]`,
			wantCount:   1,
			wantCorrect: []string{"4"},
		},
		{
			name:        "wrapped and fenced",
			raw:         "```json\n{\"questions\":[{\"question\":\"Sky?\",\"options\":[\"blue\",\"green\"],\"correct\":0}]}\n```",
			wantCount:   1,
			wantCorrect: []string{"blue"},
		},
		{
			name:        "correct given as option text",
			raw:         `[{"question":"Capital of France?","options":["Rome","Paris","Oslo"],"correct_answer":"Paris"}]`,
			wantCount:   1,
			wantCorrect: []string{"Paris"},
		},
		{
			name:        "answers only",
			raw:         `[{"question":"Q1","answer":"alpha"},{"question":"Q2","answer":"beta"}]`,
			wantCount:   2,
			wantCorrect: []string{"alpha", "beta"},
		},
		{
			name:        "out of range index resets",
			raw:         `[{"question":"Q","options":["a","b"],"correct":7}]`,
			wantCount:   1,
			wantCorrect: []string{"a"},
		},
		{
			name:        "skips blank questions",
			raw:         `[{"question":"","answer":"x"},{"question":"Q","answer":"y"}]`,
			wantCount:   1,
			wantCorrect: []string{"y"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := NormalizeQuestions(tt.raw, seqID())
			require.NoError(t, err)
			require.Len(t, qs, tt.wantCount)
			for i, q := range qs {
				assert.NotEmpty(t, q.ID)
				assert.GreaterOrEqual(t, len(q.Options), 2)
				assert.Equal(t, tt.wantCorrect[i], q.Options[q.Correct])
			}
		})
	}
}

func TestNormalizeQuestionsRejects(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"questions":[]}`, `[{"question":"Q"}]`} {
		_, err := NormalizeQuestions(raw, seqID())
		assert.Error(t, err, raw)
	}
}

func TestAnswersOnlyUseOtherAnswersAsDistractors(t *testing.T) {
	qs, err := NormalizeQuestions(`[{"question":"Q1","answer":"alpha"},{"question":"Q2","answer":"beta"}]`, seqID())
	require.NoError(t, err)

	assert.Contains(t, qs[0].Options, "beta")
	assert.Contains(t, qs[1].Options, "alpha")
	assert.Equal(t, 0, qs[0].Correct)
	assert.Equal(t, 1, qs[1].Correct)
}

func TestDistractors(t *testing.T) {
	got := Distractors("a", []string{"a", "b", "B", "c"}, 3)
	assert.Equal(t, []string{"b", "c", "None of the above"}, got)
}

func TestFallbackQuestionsDeterministic(t *testing.T) {
	first := FallbackQuestions(lesson, 3, seqID())
	second := FallbackQuestions(lesson, 3, seqID())
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	for _, q := range first {
		assert.True(t, strings.HasPrefix(q.Question, "Fill in the blank: "))
		assert.Contains(t, q.Question, blank)
		assert.NotContains(t, q.Question, q.Options[q.Correct])
	}
	assert.Equal(t, "Photosynthesis", first[0].Options[first[0].Correct])
}

func TestFallbackQuestionsWithoutText(t *testing.T) {
	qs := FallbackQuestions("", 3, seqID())
	require.Len(t, qs, 1)
	assert.Equal(t, 0, qs[0].Correct)
}

func TestGenerateUsesProvider(t *testing.T) {
	p := &fakeProvider{reply: `{"questions":[{"question":"Q","options":["a","b"],"correct":1}]}`}
	g := NewQuizGenerator(p, time.Second)

	res := g.Generate(context.Background(), "k", lesson)
	assert.False(t, res.Fallback)
	assert.NoError(t, res.Err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "b", res.Questions[0].Options[1])
	assert.Empty(t, res.Notice())
}

func TestGenerateFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		timeout  time.Duration
	}{
		{name: "no provider"},
		{name: "provider error", provider: &fakeProvider{err: errors.New("boom")}},
		{name: "garbage reply", provider: &fakeProvider{reply: "sorry, I can't"}},
		{name: "timeout", provider: &fakeProvider{reply: "[]", delay: time.Second}, timeout: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewQuizGenerator(tt.provider, tt.timeout)
			res := g.Generate(context.Background(), tt.name, lesson)
			assert.True(t, res.Fallback)
			assert.Error(t, res.Err)
			assert.NotEmpty(t, res.Questions)
			assert.NotEmpty(t, res.Notice())
		})
	}
}

func TestGenerateSharesInFlightCalls(t *testing.T) {
	p := &fakeProvider{reply: `[{"question":"Q","answer":"a"}]`, delay: 50 * time.Millisecond}
	g := NewQuizGenerator(p, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Generate(context.Background(), "same", lesson)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestOpenAIProviderOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"[{\"question\":\"Q\",\"answer\":\"A\"}]"}}]}`)
	}))
	defer srv.Close()

	p := &OpenAIProvider{APIKey: "key", Model: "m", BaseURL: srv.URL, Client: srv.Client()}
	res := NewQuizGenerator(p, time.Second).Generate(context.Background(), "k", lesson)
	assert.False(t, res.Fallback)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "A", res.Questions[0].Options[res.Questions[0].Correct])
}

func TestAnthropicProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &AnthropicProvider{APIKey: "key", BaseURL: srv.URL, Client: srv.Client()}
	_, err := p.GenerateText(context.Background(), "p", "s")
	assert.ErrorContains(t, err, "429")
}

func TestProviderWithoutKey(t *testing.T) {
	_, err := NewAIProvider("openai", "", "m").GenerateJSON(context.Background(), "p", "s")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
