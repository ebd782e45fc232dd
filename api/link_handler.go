package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/scrapers"
	"github.com/raushankrgupta/eyewear-stylist/utils"
)

// LinkPreviewHandler scrapes a shopping link cited by the consultant.
func (h *Handler) LinkPreviewHandler(w http.ResponseWriter, r *http.Request) {
	reqLog := utils.NewRequestLog("Link Preview API")
	defer reqLog.Flush()

	if r.Method != http.MethodGet {
		utils.RespondError(w, reqLog, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.previewer == nil {
		utils.RespondError(w, reqLog, "Link previews are disabled", http.StatusNotImplemented)
		return
	}

	link := r.URL.Query().Get("url")
	if link == "" {
		utils.RespondError(w, reqLog, "Please provide a 'url' query parameter", http.StatusBadRequest)
		return
	}
	reqLog.Add(fmt.Sprintf("Previewing URL: %s", link))

	ctrl, err := h.controllerFor(r)
	if err != nil {
		respondActionError(w, reqLog, err)
		return
	}
	if !citesLink(ctrl.Snapshot().Session, link) {
		utils.RespondError(w, reqLog, "Only links cited in this conversation can be previewed", http.StatusForbidden)
		return
	}

	preview, err := h.previewer.Preview(r.Context(), link)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, scrapers.ErrUnsupportedURL):
			status = http.StatusBadRequest
		case errors.Is(err, utils.ErrBlockedAddress):
			status = http.StatusForbidden
		}
		utils.RespondError(w, reqLog, fmt.Sprintf("Preview failed: %v", err), status)
		return
	}

	reqLog.Add("Preview successful")
	utils.RespondJSON(w, http.StatusOK, preview)
}

// citesLink reports whether a consultant reply in the session links to url.
func citesLink(session *models.Session, url string) bool {
	for _, m := range session.Messages {
		if m.Role != models.RoleModel {
			continue
		}
		for _, l := range m.Links {
			if l.URL == url {
				return true
			}
		}
	}
	return false
}
