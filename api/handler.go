package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
	"google.golang.org/api/googleapi"
)

// SessionManager hands out live session controllers.
type SessionManager interface {
	Create(ctx context.Context) (*stylist.Controller, error)
	Get(ctx context.Context, id string) (*stylist.Controller, error)
}

// LinkPreviewer scrapes shopping links.
type LinkPreviewer interface {
	Preview(ctx context.Context, url string) (*models.ProductPreview, error)
}

// GalleryLister pages through archived looks.
type GalleryLister interface {
	Gallery(ctx context.Context, sessionID string, page, limit int) (stylist.GalleryPage, error)
}

// Options configures a Handler.
type Options struct {
	Sessions          SessionManager
	Previewer         LinkPreviewer // optional
	Gallery           GalleryLister // optional
	JWTSecret         string
	TokenTTL          time.Duration
	GenerationTimeout time.Duration
	MaxUploadBytes    int64
}

// Handler serves the stylist HTTP API.
type Handler struct {
	sessions          SessionManager
	previewer         LinkPreviewer
	gallery           GalleryLister
	jwtSecret         string
	tokenTTL          time.Duration
	generationTimeout time.Duration
	maxUploadBytes    int64
}

func NewHandler(opts Options) *Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 5 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		sessions:          opts.Sessions,
		previewer:         opts.Previewer,
		gallery:           opts.Gallery,
		jwtSecret:         opts.JWTSecret,
		tokenTTL:          opts.TokenTTL,
		generationTimeout: opts.GenerationTimeout,
		maxUploadBytes:    opts.MaxUploadBytes,
	}
}

// RegisterRoutes mounts every endpoint on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", CORSMiddleware(h.PageHandler))
	mux.HandleFunc("/healthz", h.HealthHandler)
	mux.HandleFunc("/sessions", CORSMiddleware(h.CreateSessionHandler))

	mux.HandleFunc("/session", CORSMiddleware(h.AuthMiddleware(h.GetSessionHandler)))
	mux.HandleFunc("/session/mode", CORSMiddleware(h.AuthMiddleware(h.SetModeHandler)))
	mux.HandleFunc("/session/subject", CORSMiddleware(h.AuthMiddleware(h.UploadSubjectHandler)))
	mux.HandleFunc("/session/reference", CORSMiddleware(h.AuthMiddleware(h.UploadReferenceHandler)))
	mux.HandleFunc("/session/generate", CORSMiddleware(h.AuthMiddleware(h.GenerateHandler)))
	mux.HandleFunc("/session/chat", CORSMiddleware(h.AuthMiddleware(h.ChatHandler)))
	mux.HandleFunc("/session/visualize", CORSMiddleware(h.AuthMiddleware(h.VisualizeHandler)))
	mux.HandleFunc("/session/reset", CORSMiddleware(h.AuthMiddleware(h.ResetHandler)))

	mux.HandleFunc("/links/preview", CORSMiddleware(h.AuthMiddleware(h.LinkPreviewHandler)))
	mux.HandleFunc("/gallery", CORSMiddleware(h.AuthMiddleware(h.GalleryHandler)))
}

// CORSMiddleware allows the page to be served from another origin.
func CORSMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errBadRequest = errors.New("invalid request body")

// respondActionError maps controller errors onto status codes.
func respondActionError(w http.ResponseWriter, reqLog *utils.RequestLog, err error) {
	var validation *stylist.ValidationError
	var alert *stylist.AlertError

	switch {
	case errors.As(err, &validation):
		utils.RespondErrorWithBody(w, reqLog, err.Error(), http.StatusUnprocessableEntity,
			map[string]string{"error": err.Error(), "alert": validation.Message})
	case errors.As(err, &alert):
		status := http.StatusBadGateway
		if isQuotaError(alert.Err) {
			status = http.StatusTooManyRequests
		}
		utils.RespondErrorWithBody(w, reqLog, err.Error(), status,
			map[string]string{"error": err.Error(), "alert": alert.Message})
	case errors.Is(err, stylist.ErrBusy):
		utils.RespondError(w, reqLog, err.Error(), http.StatusConflict)
	case errors.Is(err, stylist.ErrSessionNotFound):
		utils.RespondError(w, reqLog, err.Error(), http.StatusNotFound)
	case errors.Is(err, utils.ErrImageTooLarge):
		utils.RespondError(w, reqLog, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, errBadRequest),
		errors.Is(err, stylist.ErrEmptyMessage),
		errors.Is(err, stylist.ErrInvalidMode),
		errors.Is(err, utils.ErrInvalidImage),
		errors.Is(err, utils.ErrNotAnImage):
		utils.RespondError(w, reqLog, err.Error(), http.StatusBadRequest)
	default:
		utils.RespondError(w, reqLog, "Internal server error: "+err.Error(), http.StatusInternalServerError)
	}
}

func isQuotaError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted")
}
