package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already sent, nothing left but to log
		logrus.WithError(err).Error("error encoding JSON response")
	}
}

// RespondError sends a JSON error response and records it on the request log.
// If reqLog is nil the message is logged directly.
func RespondError(w http.ResponseWriter, reqLog *RequestLog, message string, status int) {
	RespondErrorWithBody(w, reqLog, message, status, map[string]string{"error": message})
}

// RespondErrorWithBody is RespondError with a caller-supplied body.
func RespondErrorWithBody(w http.ResponseWriter, reqLog *RequestLog, message string, status int, body interface{}) {
	if reqLog != nil {
		reqLog.WithField("status", status).Fail(message)
	} else {
		logrus.WithField("status", status).Warn(message)
	}
	RespondJSON(w, status, body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("request served")
	})
}
