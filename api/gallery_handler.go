package api

import (
	"net/http"
	"strconv"

	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
)

// GalleryHandler lists the session's archived looks
func (h *Handler) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	reqLog := utils.NewRequestLog("Gallery API")
	defer reqLog.Flush()

	if r.Method != http.MethodGet {
		utils.RespondError(w, reqLog, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.gallery == nil {
		utils.RespondError(w, reqLog, "Look archive is disabled", http.StatusNotImplemented)
		return
	}

	sessionID, err := GetSessionIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, reqLog, "Unauthorized", http.StatusUnauthorized)
		return
	}
	reqLog.WithField("session_id", sessionID)

	page := 1
	limit := 10
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		if p > stylist.MaxGalleryPage {
			utils.RespondError(w, reqLog, "page out of range", http.StatusBadRequest)
			return
		}
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= stylist.MaxGalleryLimit {
		limit = l
	}

	result, err := h.gallery.Gallery(r.Context(), sessionID, page, limit)
	if err != nil {
		utils.RespondError(w, reqLog, "Failed to fetch looks", http.StatusInternalServerError)
		return
	}

	reqLog.Add("Fetched gallery page " + strconv.Itoa(page))
	utils.RespondJSON(w, http.StatusOK, result)
}
