package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"tutorials_api/internal/domain/tutorial"

	"github.com/sirupsen/logrus"
)

// RequestRecorder counts finished requests.
type RequestRecorder interface {
	ObserveRequest(method string, status int)
}

// messageResponse is the body of every non-record response.
type messageResponse struct {
	Message string `json:"message"`
}

var errMalformedBody = errors.New("invalid request payload")

// failureMessages are the caller-facing texts of one operation.
type failureMessages struct {
	NotFound string
	Backend  string
	// ExposeBackend sends the backend error text, falling back to Backend when empty.
	ExposeBackend bool
}

// translateError maps an operation error to its status code and message:
// validation -> 400, not found -> 404, anything else -> 500.
func translateError(err error, m failureMessages) (int, string) {
	switch {
	case errors.Is(err, tutorial.ErrTitleRequired):
		return http.StatusBadRequest, "Content can not be empty!"
	case errors.Is(err, tutorial.ErrInvalidID), errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, tutorial.ErrNotFound):
		return http.StatusNotFound, m.NotFound
	}
	if m.ExposeBackend && err.Error() != "" {
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusInternalServerError, m.Backend
}

// responder performs the four effects of a finished request together: status,
// JSON body, one log entry and one counter increment, all with the same status.
type responder struct {
	logger   *logrus.Entry
	recorder RequestRecorder
}

func (rs responder) respond(w http.ResponseWriter, r *http.Request, op string, status int, payload interface{}, logMsg string, err error) {
	status = writeJSON(w, status, payload)

	entry := rs.logger.WithFields(logrus.Fields{
		"op":         op,
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     status,
		"request_id": RequestIDFrom(r.Context()),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error(logMsg)
	case status >= http.StatusBadRequest:
		entry.Warn(logMsg)
	default:
		entry.Info(logMsg)
	}

	rs.recorder.ObserveRequest(r.Method, status)
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, op string, err error, m failureMessages) {
	status, msg := translateError(err, m)
	rs.respond(w, r, op, status, messageResponse{Message: msg}, msg, err)
}

// writeJSON formats and sends a JSON response and returns the status actually written.
func writeJSON(w http.ResponseWriter, code int, payload interface{}) int {
	response, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		response = []byte(`{"message":"Failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
	return code
}
