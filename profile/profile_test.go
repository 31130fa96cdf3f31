package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipshare/db"
	"clipshare/filemgr"
	"clipshare/middleware"
	"clipshare/models"
	"clipshare/mq"
	"clipshare/settings"
	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	router   *httprouter.Router
	mgr      *social.Manager
	settings *settings.Service
}

// asHeader authenticates requests by the X-User header.
func asHeader(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if u := r.Header.Get("X-User"); u != "" {
			r = r.WithContext(middleware.WithClaims(r.Context(), &middleware.Claims{Username: u}))
		}
		next(w, r, ps)
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := db.NewMemoryStore()
	log := utils.DiscardLogger()
	mgr := social.NewManager(store, social.SessionFunc(middleware.UsernameFromContext), &mq.Recorder{}, social.WithLogger(log))
	for _, u := range []string{"alice", "bob"} {
		require.NoError(t, mgr.InsertUser(context.Background(), u+"@x.com", u))
	}
	st := settings.NewService(store, log)
	h := NewHandlers(mgr, filemgr.NewUploader(filemgr.NewMemoryStore(), 1<<20, log), st, log)

	router := httprouter.New()
	router.GET("/api/users/:username", asHeader(h.GetUserProfile))
	router.GET("/api/users/:username/posts", asHeader(h.GetUserPosts))
	router.GET("/api/users/:username/picture", h.PictureRedirect)
	router.GET("/api/users/:username/relationships/:type", h.GetRelationships)
	router.GET("/api/users/:username/relationships/:type/contains-me", asHeader(h.ContainsMe))
	router.PUT("/api/users/:username/follow", asHeader(h.Follow))
	router.DELETE("/api/users/:username/follow", asHeader(h.Unfollow))
	router.POST("/api/profile/picture", asHeader(h.UploadProfilePicture))
	return &env{router: router, mgr: mgr, settings: st}
}

func (e *env) do(t *testing.T, method, path, user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestFollowFlow(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodPut, "/api/users/bob/follow", "alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/users/bob/relationships/followers", "", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []string{"alice"}, list)

	rr = e.do(t, http.MethodGet, "/api/users/bob/relationships/followers/contains-me", "alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"contains":true}`, rr.Body.String())

	rr = e.do(t, http.MethodGet, "/api/users/bob", "alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var header models.ProfileHeader
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &header))
	assert.Equal(t, 1, header.FollowerCount)
	require.NotNil(t, header.IsFollowing)
	assert.True(t, *header.IsFollowing)

	rr = e.do(t, http.MethodDelete, "/api/users/bob/follow", "alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = e.do(t, http.MethodGet, "/api/users/bob/relationships/followers", "", nil, "")
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestProfileErrors(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPut, "/api/users/bob/follow", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/users/ghost", "", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/users/bob/relationships/friends", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/users/bob/picture", "", nil, "").Code)

	rr := e.do(t, http.MethodGet, "/api/users/bob/posts", "", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestUploadProfilePicture(t *testing.T) {
	e := newEnv(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 20, 20))))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("picture", "me.png")
	require.NoError(t, err)
	_, err = fw.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr := e.do(t, http.MethodPost, "/api/profile/picture", "alice", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"profilePictureURL":"/api/users/alice/picture"}`, rr.Body.String())

	u, err := e.mgr.GetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "/api/users/alice/picture", u.ProfilePictureURL)

	us, err := e.settings.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "/api/users/alice/picture", us.ProfilePictureURL)

	rr = e.do(t, http.MethodGet, "/api/users/alice/picture", "", nil, "")
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "memory://profile_pictures/alice/picture.png", rr.Header().Get("Location"))
}
