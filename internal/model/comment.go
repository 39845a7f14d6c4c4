package model

import "time"

// Comment belongs to exactly one post and one author and is removed with
// either of them.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"-"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`

	Author UserRef `json:"author"`
}

// Title is the text cut to TitleLength runes.
func (c *Comment) Title() string {
	return truncate(c.Text, TitleLength)
}
