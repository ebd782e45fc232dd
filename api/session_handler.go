package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/raushankrgupta/eyewear-stylist/utils"
)

// CreateSessionResponse carries the token for a new session.
type CreateSessionResponse struct {
	Token   string           `json:"token"`
	Session stylist.Snapshot `json:"session"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type textRequest struct {
	Text string `json:"text"`
}

type imageRequest struct {
	DataURL string `json:"data_url"`
}

// CreateSessionHandler starts an anonymous session and returns its token.
func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	reqLog := utils.NewRequestLog("Create Session API")
	defer reqLog.Flush()

	if r.Method != http.MethodPost {
		utils.RespondError(w, reqLog, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctrl, token, err := h.newSession(r.Context())
	if err != nil {
		utils.RespondError(w, reqLog, fmt.Sprintf("Failed to create session: %v", err), http.StatusInternalServerError)
		return
	}

	reqLog.WithField("session_id", ctrl.ID()).Add("session created")
	utils.RespondJSON(w, http.StatusCreated, CreateSessionResponse{Token: token, Session: ctrl.Snapshot()})
}

func (h *Handler) newSession(ctx context.Context) (*stylist.Controller, string, error) {
	ctrl, err := h.sessions.Create(ctx)
	if err != nil {
		return nil, "", err
	}
	token, err := utils.GenerateSessionToken(h.jwtSecret, ctrl.ID(), h.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return ctrl, token, nil
}

// GetSessionHandler returns the current snapshot.
func (h *Handler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondError(w, nil, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctrl, err := h.controllerFor(r)
	if err != nil {
		respondActionError(w, nil, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) SetModeHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Set Mode API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		var req modeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
		mode, err := models.ParseMode(req.Mode)
		if err != nil {
			return stylist.ErrInvalidMode
		}
		reqLog.Add("mode=" + string(mode))
		return ctrl.SetMode(ctx, mode)
	})
}

func (h *Handler) UploadSubjectHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Upload Subject API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		dataURL, err := h.readImage(w, r)
		if err != nil {
			return err
		}
		reqLog.Add(fmt.Sprintf("subject image %s", utils.SniffMimeType(dataURL)))
		return ctrl.UploadSubjectImage(ctx, dataURL)
	})
}

func (h *Handler) UploadReferenceHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Upload Reference API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		dataURL, err := h.readImage(w, r)
		if err != nil {
			return err
		}
		reqLog.Add(fmt.Sprintf("reference image %s", utils.SniffMimeType(dataURL)))
		return ctrl.UploadReferenceImage(ctx, dataURL)
	})
}

func (h *Handler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Generate API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		ctx, cancel := context.WithTimeout(ctx, h.generationTimeout)
		defer cancel()
		reqLog.Add("generating")
		return ctrl.Generate(ctx)
	})
}

func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Chat API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		text, err := decodeText(r)
		if err != nil {
			return err
		}
		return ctrl.SendChatMessage(ctx, text)
	})
}

func (h *Handler) VisualizeHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Visualize API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		text, err := decodeText(r)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, h.generationTimeout)
		defer cancel()
		return ctrl.RequestVisualization(ctx, text)
	})
}

func (h *Handler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "Reset API", func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error {
		return ctrl.Reset(ctx)
	})
}

// action runs a POST mutation against the caller's controller and replies
// with the new snapshot.
func (h *Handler) action(w http.ResponseWriter, r *http.Request, api string,
	fn func(ctx context.Context, ctrl *stylist.Controller, reqLog *utils.RequestLog) error) {
	reqLog := utils.NewRequestLog(api)
	defer reqLog.Flush()

	if r.Method != http.MethodPost {
		utils.RespondError(w, reqLog, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctrl, err := h.controllerFor(r)
	if err != nil {
		respondActionError(w, reqLog, err)
		return
	}
	reqLog.WithField("session_id", ctrl.ID())

	if err := fn(r.Context(), ctrl, reqLog); err != nil {
		respondActionError(w, reqLog, err)
		return
	}

	snap := ctrl.Snapshot()
	reqLog.Add("state=" + string(snap.State))
	utils.RespondJSON(w, http.StatusOK, snap)
}

// readImage accepts a multipart "image" file or a JSON {"data_url": ...} body.
func (h *Handler) readImage(w http.ResponseWriter, r *http.Request) (string, error) {
	// base64 in JSON needs a third more room than the raw file
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*2)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", utils.ErrImageTooLarge
			}
			return "", fmt.Errorf("%w: %v", errBadRequest, err)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return "", fmt.Errorf("%w: missing image file", utils.ErrInvalidImage)
		}
		defer file.Close()
		return utils.ReadImageDataURL(file, h.maxUploadBytes)
	}

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", utils.ErrImageTooLarge
		}
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := utils.ValidateImageDataURL(req.DataURL); err != nil {
		return "", err
	}
	return req.DataURL, nil
}

func decodeText(r *http.Request) (string, error) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return req.Text, nil
}
