package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipshare/db"
	"clipshare/middleware"
	"clipshare/models"
	"clipshare/mq"
	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	to, typ, text, ok := Build(mq.Event{Type: mq.EventFollowed, Actor: "bob", Target: "alice"})
	require.True(t, ok)
	assert.Equal(t, "alice", to)
	assert.Equal(t, models.NotificationType{Kind: models.NotifyUserFollow, Ref: "bob"}, typ)
	assert.Equal(t, "@bob started following you", text)

	_, typ, _, ok = Build(mq.Event{Type: mq.EventLiked, Actor: "bob", Target: "alice", PostID: "p1"})
	require.True(t, ok)
	assert.Equal(t, models.NotifyPostLike, typ.Kind)
	assert.Equal(t, "p1", typ.Ref)

	_, typ, text, ok = Build(mq.Event{Type: mq.EventCommented, Actor: "bob", Target: "alice", PostID: "p1", Text: "wow"})
	require.True(t, ok)
	assert.Equal(t, models.NotifyPostComment, typ.Kind)
	assert.Equal(t, "@bob commented: wow", text)

	_, _, _, ok = Build(mq.Event{Type: mq.EventLiked, Actor: "alice", Target: "alice"})
	assert.False(t, ok)
	_, _, _, ok = Build(mq.Event{Type: mq.EventUnfollowed, Actor: "bob", Target: "alice"})
	assert.False(t, ok)
	_, _, _, ok = Build(mq.Event{Type: mq.EventPosted, Actor: "bob", Target: "bob"})
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func asHeader(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if u := r.Header.Get("X-User"); u != "" {
			r = r.WithContext(middleware.WithClaims(r.Context(), &middleware.Claims{Username: u}))
		}
		next(w, r, ps)
	}
}

// TestEndToEnd runs the worker on a local bus: a follow by bob shows up
// in alice's feed, and hiding it sticks.
func TestEndToEnd(t *testing.T) {
	log := utils.DiscardLogger()
	bus := mq.NewLocalBus(16)
	mgr := social.NewManager(db.NewMemoryStore(), social.SessionFunc(middleware.UsernameFromContext), bus, social.WithLogger(log))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for _, u := range []string{"alice", "bob"} {
		require.NoError(t, mgr.InsertUser(ctx, u+"@x.com", u))
	}

	go NewWorker(bus, mgr, log).Run(ctx)

	bobCtx := middleware.WithClaims(ctx, &middleware.Claims{Username: "bob"})
	require.NoError(t, mgr.UpdateRelationship(bobCtx, "alice", true))

	h := NewHandlers(mgr, log)
	router := httprouter.New()
	router.GET("/api/notifications", asHeader(h.GetNotifications))
	router.POST("/api/notifications/:id/hide", asHeader(h.Hide))

	get := func() []models.Notification {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
		req.Header.Set("X-User", "alice")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		var items []models.Notification
		if rr.Code != http.StatusOK || json.Unmarshal(rr.Body.Bytes(), &items) != nil {
			return nil
		}
		return items
	}

	var items []models.Notification
	require.Eventually(t, func() bool {
		items = get()
		return len(items) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.NotifyUserFollow, items[0].Type.Kind)

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/"+items[0].ID+"/hide", nil)
	req.Header.Set("X-User", "alice")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, get())

	req = httptest.NewRequest(http.MethodPost, "/api/notifications/missing/hide", nil)
	req.Header.Set("X-User", "alice")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
