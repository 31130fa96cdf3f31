package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"clipshare/filemgr"
	"clipshare/middleware"
	"clipshare/models"
	"clipshare/settings"
	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

// PictureStore holds profile pictures.
type PictureStore interface {
	SaveProfilePicture(ctx context.Context, owner string, src io.Reader) (string, error)
	ProfilePictureURL(ctx context.Context, owner string) (string, error)
}

type Handlers struct {
	social   *social.Manager
	pictures PictureStore
	settings *settings.Service
	log      *logrus.Entry
}

func NewHandlers(mgr *social.Manager, pictures PictureStore, st *settings.Service, log *logrus.Entry) *Handlers {
	return &Handlers{social: mgr, pictures: pictures, settings: st, log: log}
}

func (h *Handlers) fail(w http.ResponseWriter, err error, msg string) {
	code := social.StatusCode(err)
	if code == http.StatusInternalServerError {
		h.log.WithError(err).Error(msg)
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}

// GetUserProfile returns the profile header of :username.
func (h *Handlers) GetUserProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	header, err := h.social.ProfileHeader(r.Context(), ps.ByName("username"))
	if err != nil {
		h.fail(w, err, "profile header failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, header)
}

func (h *Handlers) GetUserPosts(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	posts, err := h.social.GetPosts(r.Context(), ps.ByName("username"))
	if err != nil {
		h.fail(w, err, "get posts failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, posts)
}

// PictureRedirect sends the client to a fresh download URL for the
// user's picture. The stored profilePictureURL points here, so it never
// expires.
func (h *Handlers) PictureRedirect(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	name := models.NormalizeUsername(ps.ByName("username"))
	if !models.ValidUsername(name) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid username")
		return
	}
	url, err := h.pictures.ProfilePictureURL(r.Context(), name)
	if errors.Is(err, filemgr.ErrObjectNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "No profile picture")
		return
	}
	if err != nil {
		h.fail(w, err, "resolve picture failed")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// UploadProfilePicture stores the "picture" form file for the caller.
func (h *Handlers) UploadProfilePicture(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	username, ok := middleware.UsernameFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	file, _, err := r.FormFile("picture")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "No picture uploaded")
		return
	}
	defer file.Close()

	if _, err := h.pictures.SaveProfilePicture(r.Context(), username, file); err != nil {
		if errors.Is(err, filemgr.ErrInvalidMIME) || errors.Is(err, filemgr.ErrFileTooLarge) {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.fail(w, err, "picture upload failed")
		return
	}

	url := fmt.Sprintf("/api/users/%s/picture", username)
	if err := h.social.SetProfilePicture(r.Context(), url); err != nil {
		h.fail(w, err, "set profile picture failed")
		return
	}
	if err := h.settings.Set(r.Context(), username, settings.KeyProfilePictureURL, url); err != nil {
		h.log.WithError(err).Warn("failed to store profile_picture_url setting")
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"profilePictureURL": url})
}
