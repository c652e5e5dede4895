package services

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// CommentPoster forwards learner comments to an external discussion service.
type CommentPoster interface {
	Post(topicID, text string)
}

// HTTPCommentPoster posts {topicId, text} as JSON. Posting never blocks the
// caller and failures are only logged.
type HTTPCommentPoster struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client

	// done is signalled after each attempt; tests use it to wait.
	done chan<- error
}

func NewHTTPCommentPoster(endpoint string, timeout time.Duration) *HTTPCommentPoster {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPCommentPoster{Endpoint: endpoint, Timeout: timeout, Client: &http.Client{}}
}

func (p *HTTPCommentPoster) Post(topicID, text string) {
	if p.Endpoint == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
		defer cancel()

		body := map[string]string{"topicId": topicID, "text": text}
		err := postJSON(ctx, p.Client, p.Endpoint, nil, body, nil)
		if err != nil {
			log.Warn().Err(err).Str("topic", topicID).Msg("Failed to forward comment")
		} else {
			log.Debug().Str("topic", topicID).Msg("Comment forwarded")
		}
		if p.done != nil {
			p.done <- err
		}
	}()
}
