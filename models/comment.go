package models

// Comment is an immutable reply attached to a post.
type Comment struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"createdAt"` // epoch milliseconds
}
