// Package social keeps the follow graph, per-user post lists, likes,
// comments and notification feeds on top of a db.Store.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clipshare/db"
	"clipshare/models"
	"clipshare/mq"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoSession           = errors.New("no signed-in user")
	ErrInvalidUsername     = errors.New("invalid username")
	ErrInvalidRelationship = errors.New("invalid relationship type")
	ErrInvalidComment      = errors.New("invalid comment")
)

// Session resolves the acting user of a call.
type Session interface {
	CurrentUser(ctx context.Context) (string, bool)
}

type SessionFunc func(ctx context.Context) (string, bool)

func (f SessionFunc) CurrentUser(ctx context.Context) (string, bool) { return f(ctx) }

// WriteMode selects how the two sides of a follow edge are written.
type WriteMode string

const (
	// WriteTransaction updates both lists in one store transaction.
	WriteTransaction WriteMode = "transaction"
	// WriteSaga updates each list on its own and restores the first one
	// when the second fails.
	WriteSaga WriteMode = "saga"
)

type Manager struct {
	store   db.Store
	session Session
	events  mq.Publisher
	mode    WriteMode
	log     *logrus.Entry
	now     func() time.Time
	newID   func() string
}

type Option func(*Manager)

func WithWriteMode(mode WriteMode) Option {
	return func(m *Manager) { m.mode = mode }
}

func WithLogger(log *logrus.Entry) Option {
	return func(m *Manager) { m.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store db.Store, session Session, events mq.Publisher, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		session: session,
		events:  events,
		mode:    WriteTransaction,
		log:     logrus.NewEntry(logrus.StandardLogger()),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// currentUser returns the normalised session username.
func (m *Manager) currentUser(ctx context.Context) (string, error) {
	if m.session == nil {
		return "", ErrNoSession
	}
	name, ok := m.session.CurrentUser(ctx)
	name = models.NormalizeUsername(name)
	if !ok || name == "" {
		return "", ErrNoSession
	}
	return name, nil
}

func normalizeTarget(username string) (string, error) {
	name := models.NormalizeUsername(username)
	if !models.ValidUsername(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}
	return name, nil
}

// publish is best effort: the write it reports has already succeeded.
func (m *Manager) publish(ctx context.Context, ev mq.Event) {
	if m.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = m.now()
	}
	if err := m.events.Publish(ctx, ev); err != nil {
		m.log.WithError(err).WithField("type", ev.Type).Warn("failed to publish event")
	}
}

func userPath(username string) string {
	return db.JoinPath("users", username)
}

func userFieldPath(username, field string) string {
	return db.JoinPath("users", username, field)
}

func postsPath(username string) string {
	return db.JoinPath("users", username, "posts")
}

func relationshipPath(username string, t models.RelationshipType) string {
	return db.JoinPath("users", username, string(t))
}

func likesPath(postID string) string {
	return db.JoinPath("likes", postID, "users")
}

func commentsPath(postID string) string {
	return db.JoinPath("comments", postID, "items")
}

func notificationsPath(username string) string {
	return db.JoinPath("notifications", username, "items")
}
