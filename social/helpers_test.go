package social

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"clipshare/db"
	"clipshare/mq"
	"clipshare/utils"

	"github.com/stretchr/testify/require"
)

type userKey struct{}

func as(user string) context.Context {
	return context.WithValue(context.Background(), userKey{}, user)
}

var ctxSession = SessionFunc(func(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(userKey{}).(string)
	return u, ok
})

var errInjected = errors.New("injected write failure")

// flakyStore fails every write whose path starts with failPrefix.
type flakyStore struct {
	inner      db.Store
	mu         sync.Mutex
	failPrefix string
}

func (s *flakyStore) failing(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failPrefix != "" && strings.HasPrefix(path, s.failPrefix)
}

func (s *flakyStore) Read(ctx context.Context, path string, out any) (bool, error) {
	return s.inner.Read(ctx, path, out)
}

func (s *flakyStore) Write(ctx context.Context, path string, value any) error {
	if s.failing(path) {
		return errInjected
	}
	return s.inner.Write(ctx, path, value)
}

func (s *flakyStore) Create(ctx context.Context, path string, value any) error {
	if s.failing(path) {
		return errInjected
	}
	return s.inner.Create(ctx, path, value)
}

func (s *flakyStore) AddToSet(ctx context.Context, path string, value any) (bool, error) {
	if s.failing(path) {
		return false, errInjected
	}
	return s.inner.AddToSet(ctx, path, value)
}

func (s *flakyStore) Pull(ctx context.Context, path string, value any) (bool, error) {
	if s.failing(path) {
		return false, errInjected
	}
	return s.inner.Pull(ctx, path, value)
}

func (s *flakyStore) Append(ctx context.Context, path string, value any, keepLast int) error {
	if s.failing(path) {
		return errInjected
	}
	return s.inner.Append(ctx, path, value, keepLast)
}

func (s *flakyStore) UpdateListItem(ctx context.Context, path string, item db.ListItem, field string, value any) (bool, error) {
	if s.failing(path) {
		return false, errInjected
	}
	return s.inner.UpdateListItem(ctx, path, item, field, value)
}

func (s *flakyStore) RunTransaction(ctx context.Context, fn func(tx db.Txn) error) error {
	return s.inner.RunTransaction(ctx, func(tx db.Txn) error {
		return fn(flakyTxn{Txn: tx, store: s})
	})
}

type flakyTxn struct {
	db.Txn
	store *flakyStore
}

func (t flakyTxn) Write(path string, value any) error {
	if t.store.failing(path) {
		return errInjected
	}
	return t.Txn.Write(path, value)
}

type fixture struct {
	store  *flakyStore
	events *mq.Recorder
	mgr    *Manager
}

func newFixture(t *testing.T, mode WriteMode, users ...string) *fixture {
	t.Helper()
	f := &fixture{
		store:  &flakyStore{inner: db.NewMemoryStore()},
		events: &mq.Recorder{},
	}
	var mu sync.Mutex
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f.mgr = NewManager(f.store, ctxSession, f.events,
		WithWriteMode(mode),
		WithLogger(utils.DiscardLogger()),
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	for _, u := range users {
		require.NoError(t, f.mgr.InsertUser(context.Background(), u+"@x.com", u))
	}
	return f
}
