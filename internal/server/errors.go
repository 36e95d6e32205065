package server

import (
	"encoding/json"
	"net/http"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
)

type errorBody struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"request_id,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code qerrors.Code) int {
	switch code {
	case qerrors.ErrCodeInvalidInput,
		qerrors.ErrCodeInvalidGraphOp,
		qerrors.ErrCodeInvalidPattern,
		qerrors.ErrCodeInvalidRuleDocument,
		qerrors.ErrCodeInvalidCircuit,
		qerrors.ErrCodeInvalidFormat,
		qerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case qerrors.ErrCodeNotFound, qerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case qerrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	case qerrors.ErrCodeBudgetExceeded, qerrors.ErrCodeTimeout:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeErr writes err with the status its code maps to. Internal errors
// are logged and reported without detail.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := qerrors.GetCode(err)
	status := statusFor(code)
	msg := qerrors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestIDFrom(r.Context()), "err", err)
		code, msg = qerrors.ErrCodeInternal, "internal error"
	}
	writeError(w, r, status, string(code), msg)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, errorBody{
		Error:     errorDetail{Code: code, Message: msg},
		RequestID: RequestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
