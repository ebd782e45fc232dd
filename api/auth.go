package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// AuthMiddleware accepts a session token from the Authorization header
// (or the token query parameter, for the page and links) and puts the
// session id into the request context.
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			utils.RespondError(w, nil, "Missing session token", http.StatusUnauthorized)
			return
		}

		sessionID, err := utils.ValidateSessionToken(h.jwtSecret, token)
		if err != nil {
			utils.RespondError(w, nil, "Invalid session token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, sessionID)))
	}
}

// GetSessionIDFromContext returns the session id set by AuthMiddleware.
func GetSessionIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(sessionIDKey).(string)
	if !ok || id == "" {
		return "", errors.New("session id not found in context")
	}
	return id, nil
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// controllerFor loads the controller of the authenticated session.
func (h *Handler) controllerFor(r *http.Request) (*stylist.Controller, error) {
	sessionID, err := GetSessionIDFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(r.Context(), sessionID)
}
