// Package store owns the post collection: it loads it from a KV backend,
// applies mutations under one lock and writes the whole collection back after
// each of them.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/storage"
)

// DefaultKey is the single storage key holding the collection.
const DefaultKey = "live_plus_posts_v3"

const (
	defaultPersistTimeout = 5 * time.Second
	idAlphabet            = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength              = 9
)

// Audience selects which statuses a read can see.
type Audience int

const (
	Public Audience = iota
	Admin
)

func (a Audience) sees(p *models.Post) bool {
	return a == Admin || p.Published()
}

// Query filters List results. Zero values match everything visible to the audience.
type Query struct {
	Audience Audience
	Category models.Category
	Search   string
}

// PostInput is the admin create/update intent.
type PostInput struct {
	ID        string
	Title     string
	Content   string
	Category  models.Category
	MediaType models.MediaType
	MediaURL  string
	Author    string
	Status    models.Status
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

type Store struct {
	mu       sync.Mutex
	kv       storage.KV
	key      string
	posts    []models.Post
	degraded bool

	obsMu     sync.RWMutex
	observers []Observer

	now     func() time.Time
	newID   func() string
	log     *zap.Logger
	timeout time.Duration
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		key:     DefaultKey,
		posts:   []models.Post{},
		now:     time.Now,
		newID:   func() string { return gonanoid.MustGenerate(idAlphabet, idLength) },
		log:     zap.NewNop(),
		timeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted collection. When nothing is stored yet the seed
// post is installed and written. A failed read or an undecodable document
// installs the seed in memory only and returns the cause; the store then
// never writes for the rest of its life.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	err := s.loadLocked(ctx)
	s.mu.Unlock()
	s.notify(EventLoaded, "")
	return err
}

func (s *Store) loadLocked(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	data, err := s.kv.Get(rctx, s.key)
	cancel()

	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.degraded = false
		s.posts = []models.Post{Seed(s.millis())}
		s.persistLocked(ctx)
		return nil
	case err != nil:
		s.degrade()
		return fmt.Errorf("read %s: %w", s.key, err)
	}

	posts, err := DecodeCollection(data, s.newID)
	if err != nil {
		s.degrade()
		return fmt.Errorf("decode %s: %w", s.key, err)
	}
	s.degraded = false
	s.posts = posts
	return nil
}

func (s *Store) degrade() {
	s.degraded = true
	s.posts = []models.Post{Seed(s.millis())}
}

// Degraded reports whether writes are suppressed after a failed load.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// List returns copies of the visible posts matching q, newest first.
func (s *Store) List(q Query) []models.Post {
	needle := strings.ToLower(q.Search)

	s.mu.Lock()
	out := make([]models.Post, 0, len(s.posts))
	for i := range s.posts {
		p := &s.posts[i]
		if !q.Audience.sees(p) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		out = append(out, p.Clone())
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}

// Get looks a post up without counting a view.
func (s *Store) Get(id string, aud Audience) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 || !aud.sees(&s.posts[i]) {
		return models.Post{}, false
	}
	return s.posts[i].Clone(), true
}

// Open counts one view and returns the updated post.
func (s *Store) Open(ctx context.Context, id string, aud Audience) (models.Post, bool) {
	p, ok, _ := s.update(ctx, id, aud, EventViewed, func(p *models.Post) error {
		p.Views++
		return nil
	})
	return p, ok
}

// AddComment prepends a comment. Blank text is ignored.
func (s *Store) AddComment(ctx context.Context, id, text string) (models.Post, bool) {
	if strings.TrimSpace(text) == "" {
		return models.Post{}, false
	}
	p, ok, _ := s.update(ctx, id, Admin, EventCommented, func(p *models.Post) error {
		c := models.Comment{ID: s.newID(), Text: text, CreatedAt: s.millis()}
		p.Comments = append([]models.Comment{c}, p.Comments...)
		return nil
	})
	return p, ok
}

// React adds one to the emoji's count. Emoji outside the alphabet are only
// counted when the post already carries them.
func (s *Store) React(ctx context.Context, id, emoji string) (models.Post, bool, error) {
	return s.update(ctx, id, Admin, EventReacted, func(p *models.Post) error {
		if p.Reactions == nil {
			p.Reactions = models.Reactions{}
		}
		if _, present := p.Reactions[emoji]; !present && !models.InAlphabet(emoji) {
			return ErrInvalidReaction
		}
		p.Reactions[emoji]++
		return nil
	})
}

// Publish marks a post published and stamps it as new.
func (s *Store) Publish(ctx context.Context, id string) (models.Post, bool) {
	p, ok, _ := s.update(ctx, id, Admin, EventPublished, func(p *models.Post) error {
		p.Status = models.StatusPublished
		p.CreatedAt = s.millis()
		return nil
	})
	return p, ok
}

// Save creates a post or replaces the editable fields of an existing one.
// Views, comments and reactions survive an update.
func (s *Store) Save(ctx context.Context, in PostInput) (models.Post, error) {
	in = withDefaults(in)
	if err := validate(in); err != nil {
		return models.Post{}, err
	}

	s.mu.Lock()
	now := s.millis()
	var saved models.Post
	if i := s.indexLocked(in.ID); in.ID != "" && i >= 0 {
		p := &s.posts[i]
		p.Title = in.Title
		p.Content = in.Content
		p.Category = in.Category
		p.MediaType = in.MediaType
		p.MediaURL = in.MediaURL
		if in.Author != "" {
			p.Author = in.Author
		}
		p.Status = in.Status
		if p.Published() {
			p.CreatedAt = now
		}
		saved = p.Clone()
	} else {
		id := in.ID
		if id == "" {
			id = s.newID()
		}
		author := in.Author
		if author == "" {
			author = DefaultAuthor
		}
		saved = models.Post{
			ID:        id,
			Title:     in.Title,
			Content:   in.Content,
			Category:  in.Category,
			MediaType: in.MediaType,
			MediaURL:  in.MediaURL,
			CreatedAt: now,
			Author:    author,
			Comments:  []models.Comment{},
			Reactions: models.Reactions{},
			Status:    in.Status,
		}
		s.posts = append(s.posts, saved.Clone())
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(EventSaved, saved.ID)
	return saved, nil
}

// Delete removes a post. Missing ids are ignored.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(EventDeleted, id)
	return true
}

// Snapshot copies the collection in persisted order.
func (s *Store) Snapshot() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Post, len(s.posts))
	for i := range s.posts {
		out[i] = s.posts[i].Clone()
	}
	return out
}

func (s *Store) update(ctx context.Context, id string, aud Audience, kind EventKind, fn func(*models.Post) error) (models.Post, bool, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 || !aud.sees(&s.posts[i]) {
		s.mu.Unlock()
		return models.Post{}, false, nil
	}
	if err := fn(&s.posts[i]); err != nil {
		s.mu.Unlock()
		return models.Post{}, true, err
	}
	out := s.posts[i].Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify(kind, id)
	return out, true, nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole collection. Failures are logged and the
// in-memory state stays authoritative.
func (s *Store) persistLocked(ctx context.Context) {
	if s.degraded {
		s.log.Debug("persist skipped, store degraded", zap.String("key", s.key))
		return
	}
	data, err := EncodeCollection(s.posts)
	if err != nil {
		s.log.Warn("encode collection failed", zap.String("key", s.key), zap.Error(err))
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.kv.Set(wctx, s.key, data); err != nil {
		s.log.Warn("persist collection failed", zap.String("key", s.key), zap.Int("posts", len(s.posts)), zap.Error(err))
	}
}

func (s *Store) millis() int64 {
	return s.now().UnixMilli()
}

func withDefaults(in PostInput) PostInput {
	if in.Category == "" {
		in.Category = models.CategoryTecnologia
	}
	if in.MediaType == "" {
		in.MediaType = models.MediaNone
	}
	if in.Status == "" {
		in.Status = models.StatusDraft
	}
	if in.MediaType == models.MediaNone {
		in.MediaURL = ""
	}
	return in
}

func validate(in PostInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return &ValidationError{Field: "title", Message: "must not be empty"}
	case strings.TrimSpace(in.Content) == "":
		return &ValidationError{Field: "content", Message: "must not be empty"}
	case !in.Category.Valid():
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown category %q", in.Category)}
	case !in.MediaType.Valid():
		return &ValidationError{Field: "mediaType", Message: fmt.Sprintf("unknown media type %q", in.MediaType)}
	case !in.Status.Valid():
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", in.Status)}
	}
	return nil
}
