package api

import (
	"encoding/json"
	"net/http"

	"reward-management-api/internal/common/errors"
)

type errorResponse struct {
	Status    string    `json:"status"`
	Error     errorBody `json:"error"`
	RequestID string    `json:"requestId,omitempty"`
}

type errorBody struct {
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

func writeError(w http.ResponseWriter, err error, requestID string) {
	stdErr := errors.AsStandardError(err)
	writeJSON(w, errors.HTTPStatus(err), errorResponse{
		Status: "error",
		Error: errorBody{
			Code:      string(stdErr.Code),
			Kind:      errors.Kind(err),
			Message:   stdErr.Message,
			Details:   stdErr.Details,
			Retryable: stdErr.Retryable,
		},
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
