package feed

import (
	"context"
	"errors"
	"io"
	"net/http"

	"clipshare/filemgr"
	"clipshare/middleware"
	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// VideoStore holds uploaded post videos.
type VideoStore interface {
	SaveVideo(ctx context.Context, owner, originalName string, src io.Reader) (string, error)
	VideoURL(ctx context.Context, owner, fileName string) (string, error)
}

type Handlers struct {
	social    *social.Manager
	videos    VideoStore
	maxUpload int64
	log       *logrus.Entry
}

func NewHandlers(mgr *social.Manager, videos VideoStore, maxUpload int64, log *logrus.Entry) *Handlers {
	return &Handlers{social: mgr, videos: videos, maxUpload: maxUpload, log: log}
}

func (h *Handlers) fail(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, filemgr.ErrInvalidExtension), errors.Is(err, filemgr.ErrInvalidMIME):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, filemgr.ErrFileTooLarge):
		utils.RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	code := social.StatusCode(err)
	if code == http.StatusInternalServerError {
		h.log.WithError(err).Error(msg)
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}

// CreatePost takes a multipart "video" file and an optional "caption",
// stores the video and appends the post to the caller's list.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("video")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No video uploaded")
		return
	}
	defer file.Close()

	fileName, err := h.videos.SaveVideo(r.Context(), username, header.Filename, file)
	if err != nil {
		h.fail(w, err, "video upload failed")
		return
	}

	post, err := h.social.InsertPost(r.Context(), fileName, r.FormValue("caption"))
	if err != nil {
		h.fail(w, err, "insert post failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, post)
}

// GetVideoURL resolves a playable URL for one post.
func (h *Handlers) GetVideoURL(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	post, err := h.social.GetPost(r.Context(), ps.ByName("owner"), ps.ByName("postid"))
	if err != nil {
		h.fail(w, err, "get post failed")
		return
	}
	url, err := h.videos.VideoURL(r.Context(), post.Owner, post.FileName)
	if errors.Is(err, filemgr.ErrObjectNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Video not found")
		return
	}
	if err != nil {
		h.fail(w, err, "resolve video failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"url": url, "path": post.VideoChildPath()})
}

func (h *Handlers) Like(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.social.LikePost(r.Context(), ps.ByName("owner"), ps.ByName("postid")); err != nil {
		h.fail(w, err, "like failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"liked": true})
}

func (h *Handlers) Unlike(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.social.UnlikePost(r.Context(), ps.ByName("owner"), ps.ByName("postid")); err != nil {
		h.fail(w, err, "unlike failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"liked": false})
}

func (h *Handlers) GetComments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	comments, err := h.social.GetComments(r.Context(), ps.ByName("owner"), ps.ByName("postid"))
	if err != nil {
		h.fail(w, err, "get comments failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, comments)
}

func (h *Handlers) AddComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &req, 1<<14); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	c, err := h.social.AddComment(r.Context(), ps.ByName("owner"), ps.ByName("postid"), req.Text)
	if err != nil {
		h.fail(w, err, "add comment failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, c)
}
