package social

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"clipshare/db"
	"clipshare/models"
)

// InsertUser creates or updates the record at users/{username}. A second
// call for the same name overwrites the email; posts and relationship
// lists already stored for that user are kept.
func (m *Manager) InsertUser(ctx context.Context, email, username string) error {
	name, err := normalizeTarget(username)
	if err != nil {
		return err
	}
	if err := m.store.Write(ctx, userFieldPath(name, "email"), strings.TrimSpace(email)); err != nil {
		return fmt.Errorf("insert user %s: %w", name, err)
	}
	m.log.WithField("user", name).Info("user record written")
	return nil
}

// CreateUser claims username for email. Unlike InsertUser it fails with
// db.ErrExists when the name is already taken.
func (m *Manager) CreateUser(ctx context.Context, email, username string) error {
	name, err := normalizeTarget(username)
	if err != nil {
		return err
	}
	rec := models.UserRecord{Email: strings.TrimSpace(email)}
	if err := m.store.Create(ctx, userPath(name), rec); err != nil {
		return fmt.Errorf("create user %s: %w", name, err)
	}
	m.log.WithField("user", name).Info("user created")
	return nil
}

func (m *Manager) GetUser(ctx context.Context, username string) (models.User, error) {
	name, err := normalizeTarget(username)
	if err != nil {
		return models.User{}, err
	}
	var rec models.UserRecord
	found, err := m.store.Read(ctx, userPath(name), &rec)
	if err != nil {
		return models.User{}, fmt.Errorf("get user %s: %w", name, err)
	}
	if !found {
		return models.User{}, fmt.Errorf("user %s: %w", name, db.ErrNotFound)
	}
	return models.User{ID: name, Name: name, ProfilePictureURL: rec.ProfilePictureURL}, nil
}

// SetProfilePicture records the picture URL on the session user's record.
func (m *Manager) SetProfilePicture(ctx context.Context, url string) error {
	name, err := m.currentUser(ctx)
	if err != nil {
		return err
	}
	if _, err := m.GetUser(ctx, name); err != nil {
		return err
	}
	if err := m.store.Write(ctx, userFieldPath(name, "profilePictureURL"), url); err != nil {
		return fmt.Errorf("set profile picture: %w", err)
	}
	return nil
}

// UsernameForEmail scans the user map for the record bound to email.
// Matching is case-insensitive; ties resolve to the smallest username.
func (m *Manager) UsernameForEmail(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	var users map[string]models.UserRecord
	if _, err := m.store.Read(ctx, "users", &users); err != nil {
		return "", fmt.Errorf("lookup %s: %w", email, err)
	}

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.EqualFold(users[name].Email, email) {
			return name, nil
		}
	}
	return "", fmt.Errorf("no user for %s: %w", email, db.ErrNotFound)
}
