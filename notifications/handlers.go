package notifications

import (
	"net/http"

	"clipshare/social"
	"clipshare/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	social *social.Manager
	log    *logrus.Entry
}

func NewHandlers(mgr *social.Manager, log *logrus.Entry) *Handlers {
	return &Handlers{social: mgr, log: log}
}

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items, err := h.social.GetNotifications(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, items)
}

func (h *Handlers) Hide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.social.MarkNotificationAsHidden(r.Context(), ps.ByName("id")); err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

func (h *Handlers) respondErr(w http.ResponseWriter, err error) {
	code := social.StatusCode(err)
	if code == http.StatusInternalServerError {
		h.log.WithError(err).Error("notification request failed")
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
