package social

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"clipshare/models"
	"clipshare/mq"
)

const maxCommentLength = 500

func (m *Manager) LikePost(ctx context.Context, owner, postID string) error {
	return m.setLike(ctx, owner, postID, true)
}

func (m *Manager) UnlikePost(ctx context.Context, owner, postID string) error {
	return m.setLike(ctx, owner, postID, false)
}

func (m *Manager) setLike(ctx context.Context, owner, postID string, like bool) error {
	viewer, err := m.currentUser(ctx)
	if err != nil {
		return err
	}
	post, err := m.GetPost(ctx, owner, postID)
	if err != nil {
		return err
	}

	var changed bool
	if like {
		changed, err = m.store.AddToSet(ctx, likesPath(post.ID), viewer)
	} else {
		changed, err = m.store.Pull(ctx, likesPath(post.ID), viewer)
	}
	if err != nil {
		return fmt.Errorf("update like on %s: %w", post.ID, err)
	}
	if changed && like {
		m.publish(ctx, mq.Event{Type: mq.EventLiked, Actor: viewer, Target: post.Owner, PostID: post.ID})
	}
	return nil
}

func (m *Manager) likedBy(ctx context.Context, postID, username string) (bool, error) {
	var users []string
	if _, err := m.store.Read(ctx, likesPath(postID), &users); err != nil {
		return false, fmt.Errorf("read likes %s: %w", postID, err)
	}
	return slices.Contains(users, username), nil
}

// AddComment appends a comment by the session user to a post.
func (m *Manager) AddComment(ctx context.Context, owner, postID, text string) (models.Comment, error) {
	author, err := m.currentUser(ctx)
	if err != nil {
		return models.Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCommentLength {
		return models.Comment{}, ErrInvalidComment
	}
	post, err := m.GetPost(ctx, owner, postID)
	if err != nil {
		return models.Comment{}, err
	}

	c := models.Comment{ID: m.newID(), Username: author, Text: text, Date: m.now()}
	if err := m.store.Append(ctx, commentsPath(post.ID), c, 0); err != nil {
		return models.Comment{}, fmt.Errorf("add comment on %s: %w", post.ID, err)
	}

	m.publish(ctx, mq.Event{Type: mq.EventCommented, Actor: author, Target: post.Owner, PostID: post.ID, Text: text})
	return c, nil
}

// GetComments lists a post's comments oldest first.
func (m *Manager) GetComments(ctx context.Context, owner, postID string) ([]models.Comment, error) {
	post, err := m.GetPost(ctx, owner, postID)
	if err != nil {
		return nil, err
	}
	var items []models.Comment
	if _, err := m.store.Read(ctx, commentsPath(post.ID), &items); err != nil {
		return nil, fmt.Errorf("get comments %s: %w", post.ID, err)
	}
	if items == nil {
		items = []models.Comment{}
	}
	return items, nil
}
