package auth

import (
	"errors"
	"net/http"

	"clipshare/middleware"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
)

const maxBodyBytes = 1 << 16

type Handlers struct {
	provider *Provider
}

func NewHandlers(p *Provider) *Handlers {
	return &Handlers{provider: p}
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req signUpRequest
	if err := utils.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	err := h.provider.SignUp(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, ErrInvalidInput):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		utils.RespondWithError(w, http.StatusConflict, "User already exists")
	case err != nil:
		h.provider.log.WithError(err).Error("sign up failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to register user")
	default:
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true})
	}
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req signInRequest
	if err := utils.DecodeJSON(w, r, &req, maxBodyBytes); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	sess, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrSignInFailed):
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	case err != nil:
		h.provider.log.WithError(err).Error("sign in failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Sign in unavailable")
	default:
		utils.RespondWithJSON(w, http.StatusOK, sess)
	}
}

// SignOut must run behind middleware.Authenticate.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := h.provider.SignOut(r.Context(), claims); err != nil {
		h.provider.log.WithError(err).Error("sign out failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
