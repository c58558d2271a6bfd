package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/storage"
	"github.com/cppla/liveplus/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n)
	}
}

// flakyKV fails reads or writes on demand and counts writes.
type flakyKV struct {
	storage.KV
	failGet bool
	failSet bool
	sets    int
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("backend unavailable")
	}
	return f.KV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.sets++
	if f.failSet {
		return errors.New("backend unavailable")
	}
	return f.KV.Set(ctx, key, value)
}

func newStore(t *testing.T, kv storage.KV) *store.Store {
	t.Helper()
	s := store.New(kv, store.WithClock(newClock().Now), store.WithIDGenerator(sequentialIDs()))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func savePost(t *testing.T, s *store.Store, in store.PostInput) models.Post {
	t.Helper()
	p, err := s.Save(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestLoadSeedsEmptyStorage(t *testing.T) {
	kv := storage.NewMemory()
	s := newStore(t, kv)

	posts := s.Snapshot()
	require.Len(t, posts, 1)
	seed := posts[0]
	assert.Equal(t, "1", seed.ID)
	assert.Equal(t, int64(124), seed.Views)
	assert.Equal(t, models.StatusPublished, seed.Status)
	assert.Equal(t, models.Reactions{"🚀": 5, "🔥": 3}, seed.Reactions)
	assert.Empty(t, seed.Comments)

	_, err := kv.Get(context.Background(), store.DefaultKey)
	assert.NoError(t, err, "seed must be persisted immediately")
	assert.False(t, s.Degraded())
}

func TestOpenSeedAcrossSessions(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newStore(t, kv)

	p, ok := s.Open(ctx, "1", store.Public)
	require.True(t, ok)
	assert.Equal(t, int64(125), p.Views)

	second := newStore(t, kv)
	list := second.List(store.Query{})
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, int64(125), list[0].Views)
}

func TestOpenCountsEveryCall(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	const n = 7
	for i := 0; i < n; i++ {
		_, ok := s.Open(ctx, "1", store.Public)
		require.True(t, ok)
	}
	p, ok := s.Get("1", store.Public)
	require.True(t, ok)
	assert.Equal(t, int64(124+n), p.Views)
}

func TestOpenMissingOrHiddenIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	draft := savePost(t, s, store.PostInput{Title: "t", Content: "c"})

	_, ok := s.Open(ctx, "nope", store.Admin)
	assert.False(t, ok)
	_, ok = s.Open(ctx, draft.ID, store.Public)
	assert.False(t, ok)

	p, _ := s.Get(draft.ID, store.Admin)
	assert.Zero(t, p.Views)

	p, ok = s.Open(ctx, draft.ID, store.Admin)
	require.True(t, ok)
	assert.Equal(t, int64(1), p.Views)
}

func TestReactCountsClicks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	for i := 0; i < 4; i++ {
		_, ok, err := s.React(ctx, "1", "🚀")
		require.NoError(t, err)
		require.True(t, ok)
	}
	for i := 0; i < 2; i++ {
		_, _, err := s.React(ctx, "1", "👍")
		require.NoError(t, err)
	}
	p, _ := s.Get("1", store.Public)
	assert.Equal(t, 9, p.Reactions["🚀"])
	assert.Equal(t, 2, p.Reactions["👍"])
	assert.Equal(t, 3, p.Reactions["🔥"])
}

func TestReactRejectsUnknownEmoji(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KV: storage.NewMemory()}
	s := newStore(t, kv)
	before := kv.sets

	_, ok, err := s.React(ctx, "1", "🐍")
	assert.True(t, ok)
	assert.ErrorIs(t, err, store.ErrInvalidReaction)
	assert.ErrorIs(t, err, store.ErrValidation)
	assert.Equal(t, before, kv.sets)

	p, _ := s.Get("1", store.Public)
	assert.NotContains(t, p.Reactions, "🐍")

	_, ok, err = s.React(ctx, "missing", "👍")
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestReactKeepsLegacyEmoji(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	doc := `[{"id":"a","title":"t","content":"c","status":"published","reactions":{"😂":2}}]`
	require.NoError(t, kv.Set(ctx, store.DefaultKey, []byte(doc)))
	s := newStore(t, kv)

	p, ok, err := s.React(ctx, "a", "😂")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, p.Reactions["😂"])
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	_, ok := s.AddComment(ctx, "1", "  ")
	assert.False(t, ok)
	_, ok = s.AddComment(ctx, "1", "")
	assert.False(t, ok)
	p, _ := s.Get("1", store.Public)
	assert.Empty(t, p.Comments)

	_, ok = s.AddComment(ctx, "1", "first")
	require.True(t, ok)
	p, ok = s.AddComment(ctx, "1", "second")
	require.True(t, ok)
	require.Len(t, p.Comments, 2)
	assert.Equal(t, "second", p.Comments[0].Text)
	assert.Equal(t, "first", p.Comments[1].Text)
	assert.NotEqual(t, p.Comments[0].ID, p.Comments[1].ID)
	assert.Greater(t, p.Comments[0].CreatedAt, p.Comments[1].CreatedAt)

	_, ok = s.AddComment(ctx, "missing", "hello")
	assert.False(t, ok)
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	before := s.Snapshot()

	cases := []struct {
		name  string
		in    store.PostInput
		field string
	}{
		{"empty content", store.PostInput{Title: "t", Content: "", Status: models.StatusPublished}, "content"},
		{"blank title", store.PostInput{Title: "   ", Content: "c"}, "title"},
		{"bad category", store.PostInput{Title: "t", Content: "c", Category: "Esportes"}, "category"},
		{"bad media", store.PostInput{Title: "t", Content: "c", MediaType: "gif"}, "mediaType"},
		{"bad status", store.PostInput{Title: "t", Content: "c", Status: "archived"}, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Save(ctx, tc.in)
			require.ErrorIs(t, err, store.ErrValidation)
			var verr *store.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}
	assert.Equal(t, before, s.Snapshot())
}

func TestSaveDraftVisibility(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	draft := savePost(t, s, store.PostInput{Title: "Rascunho", Content: "texto"})
	assert.Equal(t, models.StatusDraft, draft.Status)
	assert.Equal(t, models.CategoryTecnologia, draft.Category)
	assert.Equal(t, models.MediaNone, draft.MediaType)
	assert.Equal(t, store.DefaultAuthor, draft.Author)
	assert.Zero(t, draft.Views)

	assert.Len(t, s.List(store.Query{Audience: store.Admin}), 2)
	public := s.List(store.Query{Audience: store.Public})
	require.Len(t, public, 1)
	assert.Equal(t, "1", public[0].ID)

	_, ok := s.Publish(ctx, draft.ID)
	require.True(t, ok)
	public = s.List(store.Query{Audience: store.Public})
	require.Len(t, public, 2)
	assert.Equal(t, draft.ID, public[0].ID, "publishing restamps createdAt")
}

func TestSaveUpdatePreservesCounters(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	_, _ = s.Open(ctx, "1", store.Public)
	_, _ = s.AddComment(ctx, "1", "oi")
	seed, _ := s.Get("1", store.Public)

	updated := savePost(t, s, store.PostInput{
		ID:        "1",
		Title:     "Novo título",
		Content:   "Novo conteúdo",
		Category:  models.CategoryCiencia,
		MediaType: models.MediaNone,
		MediaURL:  "https://example.com/ignored.png",
		Status:    models.StatusPublished,
	})
	assert.Equal(t, "Novo título", updated.Title)
	assert.Equal(t, seed.Views, updated.Views)
	assert.Equal(t, seed.Comments, updated.Comments)
	assert.Equal(t, seed.Reactions, updated.Reactions)
	assert.Equal(t, seed.Author, updated.Author)
	assert.Empty(t, updated.MediaURL)
	assert.Greater(t, updated.CreatedAt, seed.CreatedAt)
	assert.Len(t, s.Snapshot(), 1)
}

func TestSaveDraftEditKeepsCreatedAt(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	draft := savePost(t, s, store.PostInput{Title: "t", Content: "c"})

	edited := savePost(t, s, store.PostInput{ID: draft.ID, Title: "t2", Content: "c2"})
	assert.Equal(t, draft.CreatedAt, edited.CreatedAt)
	assert.Equal(t, "t2", edited.Title)
}

func TestSaveWithUnknownIDAppends(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	p := savePost(t, s, store.PostInput{ID: "custom", Title: "t", Content: "c"})
	assert.Equal(t, "custom", p.ID)
	assert.Len(t, s.Snapshot(), 2)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newStore(t, kv)
	p := savePost(t, s, store.PostInput{Title: "t", Content: "c"})

	assert.True(t, s.Delete(ctx, p.ID))
	assert.False(t, s.Delete(ctx, p.ID))
	assert.Len(t, s.Snapshot(), 1)

	reloaded := newStore(t, kv)
	_, ok := reloaded.Get(p.ID, store.Admin)
	assert.False(t, ok)
}

func TestListFilters(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	savePost(t, s, store.PostInput{Title: "Foguete lançado", Content: "espaço", Category: models.CategoryCiencia, Status: models.StatusPublished})
	savePost(t, s, store.PostInput{Title: "Estreia", Content: "Um FOGUETE no cinema", Category: models.CategoryFilmes, Status: models.StatusPublished})
	savePost(t, s, store.PostInput{Title: "Foguete secreto", Content: "rascunho", Category: models.CategoryCiencia})
	savePost(t, s, store.PostInput{Title: "Sede nova", Content: "inauguração", Category: models.CategorySedes, Status: models.StatusPublished})

	ids := func(posts []models.Post) map[string]bool {
		out := map[string]bool{}
		for _, p := range posts {
			out[p.ID] = true
		}
		return out
	}

	for _, aud := range []store.Audience{store.Public, store.Admin} {
		byCat := ids(s.List(store.Query{Audience: aud, Category: models.CategoryCiencia}))
		bySearch := ids(s.List(store.Query{Audience: aud, Search: "foguete"}))
		both := ids(s.List(store.Query{Audience: aud, Category: models.CategoryCiencia, Search: "foguete"}))

		want := map[string]bool{}
		for id := range byCat {
			if bySearch[id] {
				want[id] = true
			}
		}
		assert.Equal(t, want, both)
	}

	public := s.List(store.Query{Audience: store.Public, Search: "FOGUETE"})
	assert.Len(t, public, 2)
	for _, p := range s.List(store.Query{Audience: store.Public}) {
		assert.Equal(t, models.StatusPublished, p.Status)
	}
	assert.Len(t, s.List(store.Query{Audience: store.Admin, Search: "foguete"}), 3)
}

func TestListHidesDraftsUnderAnyFilter(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	d := savePost(t, s, store.PostInput{Title: "segredo", Content: "draft", Category: models.CategoryEventos})

	queries := []store.Query{
		{Audience: store.Public},
		{Audience: store.Public, Category: models.CategoryEventos},
		{Audience: store.Public, Search: "segredo"},
		{Audience: store.Public, Category: models.CategoryEventos, Search: "draft"},
	}
	for _, q := range queries {
		for _, p := range s.List(q) {
			assert.NotEqual(t, d.ID, p.ID)
		}
	}
}

func TestListOrderIsStable(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	doc := `[
		{"id":"a","title":"a","content":"x","status":"published","createdAt":100},
		{"id":"b","title":"b","content":"x","status":"published","createdAt":300},
		{"id":"c","title":"c","content":"x","status":"published","createdAt":100},
		{"id":"d","title":"d","content":"x","status":"published","createdAt":200}
	]`
	require.NoError(t, kv.Set(ctx, store.DefaultKey, []byte(doc)))
	s := newStore(t, kv)

	var got []string
	for _, p := range s.List(store.Query{}) {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}

func TestRoundTripAcrossSessions(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := newStore(t, kv)
	p := savePost(t, s, store.PostInput{Title: "t", Content: "c", MediaType: models.MediaImage, MediaURL: "https://picsum.photos/1", Status: models.StatusPublished})
	_, _ = s.AddComment(ctx, p.ID, "comentário")
	_, _, _ = s.React(ctx, p.ID, "💡")

	reloaded := newStore(t, kv)
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := newStore(t, storage.NewMemory())
	snap := s.Snapshot()
	snap[0].Reactions["🚀"] = 1000
	snap[0].Title = "changed"

	p, _ := s.Get("1", store.Public)
	assert.Equal(t, 5, p.Reactions["🚀"])
	assert.NotEqual(t, "changed", p.Title)
}

func TestDegradedSessionNeverWrites(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KV: storage.NewMemory(), failGet: true}
	s := store.New(kv)

	err := s.Load(ctx)
	require.Error(t, err)
	assert.True(t, s.Degraded())
	require.Len(t, s.Snapshot(), 1)

	_, ok := s.Open(ctx, "1", store.Public)
	require.True(t, ok)
	savePost(t, s, store.PostInput{Title: "t", Content: "c"})
	assert.Zero(t, kv.sets)

	p, _ := s.Get("1", store.Public)
	assert.Equal(t, int64(125), p.Views)
}

func TestUndecodableDocumentDegrades(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, store.DefaultKey, []byte(`{"not":"an array"}`)))
	kv := &flakyKV{KV: mem}
	s := store.New(kv)

	err := s.Load(ctx)
	require.ErrorIs(t, err, store.ErrNotCollection)
	assert.True(t, s.Degraded())

	_, _ = s.Open(ctx, "1", store.Public)
	raw, err := mem.Get(ctx, store.DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"not":"an array"}`, string(raw))
	assert.Zero(t, kv.sets)
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := &flakyKV{KV: storage.NewMemory()}
	s := newStore(t, kv)
	kv.failSet = true

	p, ok := s.Open(ctx, "1", store.Public)
	require.True(t, ok)
	assert.Equal(t, int64(125), p.Views)
	assert.False(t, s.Degraded())

	kv.failSet = false
	_, _ = s.Open(ctx, "1", store.Public)
	reloaded := newStore(t, kv)
	p, _ = reloaded.Get("1", store.Public)
	assert.Equal(t, int64(126), p.Views)
}

func TestObserversSeeEvents(t *testing.T) {
	ctx := context.Background()
	s := store.New(storage.NewMemory(), store.WithIDGenerator(sequentialIDs()))

	var kinds []store.EventKind
	s.Subscribe(func(ev store.Event) {
		// the lock is released before observers run
		_ = s.Snapshot()
		kinds = append(kinds, ev.Kind)
	})
	require.NoError(t, s.Load(ctx))

	_, _ = s.Open(ctx, "1", store.Public)
	_, _ = s.Open(ctx, "missing", store.Public)
	_, _ = s.AddComment(ctx, "1", "oi")
	_, _, _ = s.React(ctx, "1", "🔥")
	_, _, _ = s.React(ctx, "1", "🐍")
	p := savePost(t, s, store.PostInput{Title: "t", Content: "c"})
	_, _ = s.Publish(ctx, p.ID)
	s.Delete(ctx, p.ID)

	assert.Equal(t, []store.EventKind{
		store.EventLoaded,
		store.EventViewed,
		store.EventCommented,
		store.EventReacted,
		store.EventSaved,
		store.EventPublished,
		store.EventDeleted,
	}, kinds)
}

func TestConcurrentOpens(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Open(ctx, "1", store.Public)
			_, _, _ = s.React(ctx, "1", "👍")
		}()
	}
	wg.Wait()

	p, _ := s.Get("1", store.Public)
	assert.Equal(t, int64(174), p.Views)
	assert.Equal(t, 50, p.Reactions["👍"])
}
