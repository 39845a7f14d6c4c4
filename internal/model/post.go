package model

import "time"

// TitleLength is how many runes of the text make up a post's short title.
const TitleLength = 15

// Post is a single blog entry. CreatedAt is set by the store and never
// changes; GroupID is nil when the post is not filed under a group (or the
// group was deleted).
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	AuthorID  string    `json:"-"`
	GroupID   *string   `json:"-"`
	Image     string    `json:"image,omitempty"`
	// ImageURL is the public path of Image, set by the service layer.
	ImageURL string `json:"imageUrl,omitempty"`

	// Populated by list/detail queries.
	Author UserRef   `json:"author"`
	Group  *GroupRef `json:"group,omitempty"`
}

// Title is the text cut to TitleLength runes.
func (p *Post) Title() string {
	return truncate(p.Text, TitleLength)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
