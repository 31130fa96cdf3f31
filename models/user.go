package models

import (
	"regexp"
	"strings"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{2,30}$`)

// User is the public view of an account.
type User struct {
	ID                string `json:"id" bson:"id"`
	Name              string `json:"name" bson:"name"`
	ProfilePictureURL string `json:"profilePictureURL,omitempty" bson:"profilePictureURL,omitempty"`
}

// UserRecord is the document stored at users/{username}.
type UserRecord struct {
	Email             string       `json:"email" bson:"email"`
	ProfilePictureURL string       `json:"profilePictureURL,omitempty" bson:"profilePictureURL,omitempty"`
	Posts             []PostRecord `json:"posts,omitempty" bson:"posts,omitempty"`
	Followers         []string     `json:"followers,omitempty" bson:"followers,omitempty"`
	Following         []string     `json:"following,omitempty" bson:"following,omitempty"`
}

// Account is the credential record kept by the identity provider.
type Account struct {
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"passwordHash" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// ProfileHeader carries what a profile screen shows above the post grid.
type ProfileHeader struct {
	User           User  `json:"user"`
	FollowerCount  int   `json:"followerCount"`
	FollowingCount int   `json:"followingCount"`
	IsFollowing    *bool `json:"isFollowing,omitempty"`
}

// NormalizeUsername lowercases and trims a username.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidUsername reports whether name, once normalized, is usable as a
// document path segment.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(NormalizeUsername(name))
}
