package social

import (
	"context"
	"fmt"
	"strings"

	"clipshare/db"
	"clipshare/models"
	"clipshare/mq"

	"github.com/google/uuid"
)

// InsertPost appends a post entry to the session user's record. The
// append is a single atomic update, so concurrent posts by the same user
// are all kept.
func (m *Manager) InsertPost(ctx context.Context, fileName, caption string) (models.Post, error) {
	owner, err := m.currentUser(ctx)
	if err != nil {
		return models.Post{}, err
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		return models.Post{}, fmt.Errorf("insert post: %w: file name %q", db.ErrInvalidPath, fileName)
	}

	entry := models.PostRecord{
		ID:        m.newID(),
		Name:      fileName,
		Caption:   caption,
		CreatedAt: m.now(),
	}
	if _, err := m.GetUser(ctx, owner); err != nil {
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}
	if err := m.store.Append(ctx, postsPath(owner), entry, 0); err != nil {
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}

	m.publish(ctx, mq.Event{Type: mq.EventPosted, Actor: owner, Target: owner, PostID: entry.ID})
	return models.PostFromRecord(owner, entry), nil
}

// GetPosts lists username's posts in insertion order. A user with no
// posts, or no record at all, yields an empty list.
func (m *Manager) GetPosts(ctx context.Context, username string) ([]models.Post, error) {
	owner, err := normalizeTarget(username)
	if err != nil {
		return nil, err
	}
	records, err := m.readPostRecords(ctx, owner)
	if err != nil {
		return nil, err
	}

	viewer, _ := m.currentUser(ctx)
	posts := make([]models.Post, 0, len(records))
	for _, rec := range records {
		p := models.PostFromRecord(owner, rec)
		if viewer != "" {
			liked, err := m.likedBy(ctx, p.ID, viewer)
			if err != nil {
				return nil, err
			}
			p.IsLikedByCurrentUser = liked
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// GetPost finds one post by id in the owner's list.
func (m *Manager) GetPost(ctx context.Context, username, postID string) (models.Post, error) {
	owner, err := normalizeTarget(username)
	if err != nil {
		return models.Post{}, err
	}
	records, err := m.readPostRecords(ctx, owner)
	if err != nil {
		return models.Post{}, err
	}
	for _, rec := range records {
		if rec.ID == postID {
			return models.PostFromRecord(owner, rec), nil
		}
	}
	return models.Post{}, fmt.Errorf("post %s/%s: %w", owner, postID, db.ErrNotFound)
}

func (m *Manager) readPostRecords(ctx context.Context, owner string) ([]models.PostRecord, error) {
	var records []models.PostRecord
	if _, err := m.store.Read(ctx, postsPath(owner), &records); err != nil {
		return nil, fmt.Errorf("get posts %s: %w", owner, err)
	}
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = legacyPostID(owner, i, records[i].Name)
		}
	}
	return records, nil
}

// legacyPostID gives entries written without an id a stable identity
// derived from their position and file name.
func legacyPostID(owner string, index int, name string) string {
	key := fmt.Sprintf("%s/%d/%s", owner, index, name)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
