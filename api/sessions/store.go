// Package sessions keeps live editor and learner sessions in memory. Entries
// expire after a period without access.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/local/coursebuilder/api/editor"
	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/services"
)

var ErrNotFound = errors.New("session not found")

const DefaultTTL = time.Hour

// EditorSession ties an editing session to the course it is saved into.
type EditorSession struct {
	ID string
	*editor.Session

	mu       sync.Mutex
	courseID string
}

func (es *EditorSession) CourseID() string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.courseID
}

// AttachCourse records the course created by the first save of a session
// opened without one. It reports false if a course was already attached.
func (es *EditorSession) AttachCourse(courseID string) bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	if es.courseID != "" {
		return false
	}
	es.courseID = courseID
	return true
}

type EditorStore struct {
	cache *cache.Cache
}

func NewEditorStore(ttl time.Duration) *EditorStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EditorStore{cache: cache.New(ttl, ttl/6)}
}

func (s *EditorStore) Create(courseID string, state editor.State) *EditorSession {
	es := &EditorSession{
		ID:       uuid.New().String(),
		Session:  editor.NewSession(state),
		courseID: courseID,
	}
	s.cache.Set(es.ID, es, cache.DefaultExpiration)
	return es
}

// Get returns the session and renews its expiry.
func (s *EditorStore) Get(id string) (*EditorSession, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	es := x.(*EditorSession)
	s.cache.Set(id, es, cache.DefaultExpiration)
	return es, nil
}

func (s *EditorStore) Delete(id string) {
	s.cache.Delete(id)
}

func (s *EditorStore) Count() int {
	return s.cache.ItemCount()
}

type ViewerStore struct {
	cache     *cache.Cache
	generator QuizGenerator
	poster    services.CommentPoster
}

func NewViewerStore(ttl time.Duration, generator QuizGenerator, poster services.CommentPoster) *ViewerStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ViewerStore{cache: cache.New(ttl, ttl/6), generator: generator, poster: poster}
}

func (s *ViewerStore) Create(courseID string, list []elements.Element) *Viewer {
	v := NewViewer(uuid.New().String(), courseID, list, s.generator, s.poster)
	s.cache.Set(v.ID, v, cache.DefaultExpiration)
	return v
}

// Get returns the viewer and renews its expiry.
func (s *ViewerStore) Get(id string) (*Viewer, error) {
	x, found := s.cache.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	v := x.(*Viewer)
	s.cache.Set(id, v, cache.DefaultExpiration)
	return v, nil
}

func (s *ViewerStore) Delete(id string) {
	s.cache.Delete(id)
}
