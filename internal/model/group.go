package model

import "time"

// Group is a community posts can be filed under. Slug is unique and is
// never changed once created, since it appears in URLs.
type Group struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// GroupRef is the group as shown next to a post.
type GroupRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}
