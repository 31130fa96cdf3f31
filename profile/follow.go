package profile

import (
	"net/http"

	"clipshare/models"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
)

func (h *Handlers) GetRelationships(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, err := h.social.GetRelationships(r.Context(), ps.ByName("username"), models.RelationshipType(ps.ByName("type")))
	if err != nil {
		h.fail(w, err, "get relationships failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// ContainsMe reports whether the caller is in :username's :type list.
func (h *Handlers) ContainsMe(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ok, err := h.social.IsValidRelationship(r.Context(), ps.ByName("username"), models.RelationshipType(ps.ByName("type")))
	if err != nil {
		h.fail(w, err, "check relationship failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"contains": ok})
}

func (h *Handlers) handleFollowAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params, follow bool) {
	if err := h.social.UpdateRelationship(r.Context(), ps.ByName("username"), follow); err != nil {
		h.fail(w, err, "update relationship failed")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]any{
		"isFollowing": follow,
		"ok":          true,
	})
}

func (h *Handlers) Follow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.handleFollowAction(w, r, ps, true)
}

func (h *Handlers) Unfollow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.handleFollowAction(w, r, ps, false)
}
