package models

// Post is a single content item of the portal feed.
// Field names follow the persisted JSON layout of the collection.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	MediaType MediaType `json:"mediaType"`
	CreatedAt int64     `json:"createdAt"` // epoch milliseconds
	Author    string    `json:"author"`
	Views     int64     `json:"views"`
	Comments  []Comment `json:"comments"`
	Reactions Reactions `json:"reactions"`
	Status    Status    `json:"status"`
}

// Published reports whether the post is visible on the public feed.
func (p Post) Published() bool {
	return p.Status == StatusPublished
}

// Clone returns a deep copy so callers never share comment slices or reaction maps.
func (p Post) Clone() Post {
	out := p
	out.Comments = make([]Comment, len(p.Comments))
	copy(out.Comments, p.Comments)
	out.Reactions = p.Reactions.Clone()
	return out
}

// MediaType selects how MediaURL is rendered.
type MediaType string

const (
	MediaNone  MediaType = "none"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaPDF   MediaType = "pdf"
)

// Valid reports whether m is one of the known media types.
func (m MediaType) Valid() bool {
	switch m {
	case MediaNone, MediaImage, MediaVideo, MediaAudio, MediaPDF:
		return true
	}
	return false
}

// Status controls public visibility.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}
