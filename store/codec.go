package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cppla/liveplus/models"
)

// EncodeCollection serializes the whole collection in persisted order.
func EncodeCollection(posts []models.Post) ([]byte, error) {
	if posts == nil {
		posts = []models.Post{}
	}
	return json.Marshal(posts)
}

// DecodeCollection parses a persisted collection field by field. Missing or
// mistyped fields take their defaults; only a non-array document is an error.
// newID supplies ids for posts and comments whose id is missing or duplicated.
func DecodeCollection(data []byte, newID func() string) ([]models.Post, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCollection, err)
	}
	if raw == nil {
		return nil, ErrNotCollection
	}

	posts := make([]models.Post, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, elem := range raw {
		fields, ok := object(elem)
		if !ok {
			continue
		}
		p := decodePost(fields, newID)
		if _, dup := seen[p.ID]; p.ID == "" || dup {
			p.ID = newID()
		}
		seen[p.ID] = struct{}{}
		posts = append(posts, p)
	}
	return posts, nil
}

func decodePost(f map[string]json.RawMessage, newID func() string) models.Post {
	p := models.Post{
		ID:        idField(f, "id"),
		Title:     stringField(f, "title"),
		Category:  models.Category(stringField(f, "category")),
		Content:   stringField(f, "content"),
		MediaURL:  stringField(f, "mediaUrl"),
		MediaType: models.MediaType(stringField(f, "mediaType")),
		CreatedAt: intField(f, "createdAt"),
		Author:    stringField(f, "author"),
		Views:     intField(f, "views"),
		Status:    models.Status(stringField(f, "status")),
		Comments:  decodeComments(f["comments"], newID),
		Reactions: decodeReactions(f["reactions"]),
	}
	if !p.MediaType.Valid() {
		p.MediaType = models.MediaNone
	}
	if !p.Status.Valid() {
		p.Status = models.StatusDraft
	}
	if p.Views < 0 {
		p.Views = 0
	}
	return p
}

func decodeComments(raw json.RawMessage, newID func() string) []models.Comment {
	out := []models.Comment{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		f, ok := object(item)
		if !ok {
			continue
		}
		c := models.Comment{
			ID:        idField(f, "id"),
			Text:      stringField(f, "text"),
			CreatedAt: intField(f, "createdAt"),
		}
		if c.ID == "" {
			c.ID = newID()
		}
		out = append(out, c)
	}
	return out
}

func decodeReactions(raw json.RawMessage) models.Reactions {
	out := models.Reactions{}
	var counts map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &counts) != nil {
		return out
	}
	for emoji, v := range counts {
		n, ok := number(v)
		if !ok {
			continue
		}
		if n < 0 {
			n = 0
		}
		out[emoji] = int(n)
	}
	return out
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, false
	}
	var f map[string]json.RawMessage
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false
	}
	return f, true
}

func stringField(f map[string]json.RawMessage, name string) string {
	var s string
	if raw, ok := f[name]; ok && json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

// idField accepts numeric ids written by older clients.
func idField(f map[string]json.RawMessage, name string) string {
	if s := stringField(f, name); s != "" {
		return s
	}
	if n, ok := number(f[name]); ok {
		return strconv.FormatInt(n, 10)
	}
	return ""
}

func intField(f map[string]json.RawMessage, name string) int64 {
	n, _ := number(f[name])
	return n
}

func number(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return int64(v), true
}
