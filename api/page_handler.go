package api

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/raushankrgupta/eyewear-stylist/view"
)

// PageHandler serves the stylist page. Without a valid ?token= a new
// session is started and the browser is redirected to it.
func (h *Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reqLog := utils.NewRequestLog("Page")
	defer reqLog.Flush()

	token := r.URL.Query().Get("token")
	var ctrl *stylist.Controller
	if sessionID, err := utils.ValidateSessionToken(h.jwtSecret, token); err == nil {
		ctrl, err = h.sessions.Get(r.Context(), sessionID)
		if err != nil {
			reqLog.Add("session not found, starting a new one")
		}
	}

	if ctrl == nil {
		_, newToken, err := h.newSession(r.Context())
		if err != nil {
			utils.RespondError(w, reqLog, "Failed to create session", http.StatusInternalServerError)
			return
		}
		reqLog.Add("redirecting to new session")
		http.Redirect(w, r, "/?token="+url.QueryEscape(newToken), http.StatusFound)
		return
	}

	var buf bytes.Buffer
	if err := view.RenderPage(&buf, view.NewPageData(token, ctrl.Snapshot())); err != nil {
		utils.RespondError(w, reqLog, "Failed to render page", http.StatusInternalServerError)
		return
	}
	reqLog.WithField("session_id", ctrl.ID()).Add("page rendered")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
