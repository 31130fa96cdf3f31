package models

import (
	"fmt"
	"strings"
	"time"
)

// PostRecord is one entry of the users/{username}/posts list.
type PostRecord struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Caption   string    `json:"caption" bson:"caption"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Post struct {
	ID                   string    `json:"id"`
	Owner                string    `json:"owner"`
	FileName             string    `json:"fileName"`
	Caption              string    `json:"caption"`
	CreatedAt            time.Time `json:"createdAt"`
	IsLikedByCurrentUser bool      `json:"isLikedByCurrentUser"`
}

// VideoChildPath is the blob key of the post's video.
func (p Post) VideoChildPath() string {
	return VideoChildPath(p.Owner, p.FileName)
}

// VideoChildPath builds "videos/{owner}/{fileName}" with the owner lowercased.
func VideoChildPath(owner, fileName string) string {
	return fmt.Sprintf("videos/%s/%s", strings.ToLower(owner), fileName)
}

// PostFromRecord expands a stored entry for the given owner.
func PostFromRecord(owner string, rec PostRecord) Post {
	return Post{
		ID:        rec.ID,
		Owner:     owner,
		FileName:  rec.Name,
		Caption:   rec.Caption,
		CreatedAt: rec.CreatedAt,
	}
}

// Comment is stored under comments/{postId}/items.
type Comment struct {
	ID       string    `json:"id" bson:"id"`
	Username string    `json:"username" bson:"username"`
	Text     string    `json:"text" bson:"text"`
	Date     time.Time `json:"date" bson:"date"`
}
