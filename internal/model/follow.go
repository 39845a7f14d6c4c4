package model

import "time"

// Follow ties one follower (UserID) to one followed author (AuthorID).
// The pair is unique and a user never follows themselves.
type Follow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}
