// Package model defines the entities stored by the blog: users, groups,
// posts, comments and follow relations.
package model

import (
	"strings"
	"time"
)

// User is a registered author/reader.
//
// Password users have a bcrypt PasswordHash; users that signed in through
// GitHub have a GitHubID instead (and may have both).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     *int64    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Ref returns the compact author reference embedded in post payloads.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, FullName: u.FullName()}
}

// UserRef is the author as shown next to a post or comment.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}
