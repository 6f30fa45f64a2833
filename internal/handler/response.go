package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Paul-Karonji/Juba-Errands/internal/domain"
)

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type apiError struct {
	Code   int          `json:"code"`
	Status string       `json:"status"`
	Kind   string       `json:"kind,omitempty"`
	Fields []fieldError `json:"fields,omitempty"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	writeJSONMessage(w, status, "", payload)
}

func writeJSONMessage(w http.ResponseWriter, status int, message string, payload any) {
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: message,
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeKindError(w, status, kindForStatus(status), message, nil)
}

func writeKindError(w http.ResponseWriter, status int, kind, message string, fields []fieldError) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
			Kind:   kind,
			Fields: fields,
		},
	})
}

// writeDomainError maps a service error onto its HTTP status. Storage failures never
// leak driver messages to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch domain.Kind(err) {
	case domain.KindValidation:
		var verr *domain.ValidationError
		errors.As(err, &verr)
		fields := make([]fieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, fieldError{Field: f.Field, Message: f.Message})
		}
		writeKindError(w, http.StatusBadRequest, domain.KindValidation, "validation failed", fields)
	case domain.KindNotFound:
		writeKindError(w, http.StatusNotFound, domain.KindNotFound, err.Error(), nil)
	case domain.KindConflict:
		writeKindError(w, http.StatusConflict, domain.KindConflict, err.Error(), nil)
	default:
		writeKindError(w, http.StatusInternalServerError, domain.KindStorage, "internal error", nil)
	}
}

func kindForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.KindValidation
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusConflict:
		return domain.KindConflict
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	default:
		return domain.KindStorage
	}
}
