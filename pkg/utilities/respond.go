package utilities

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-staff-records/internal/apperror"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto a status and a {"message": ...} body. Internal
// failures are logged with their cause and answered with fallback only.
func WriteError(w http.ResponseWriter, logger *zap.SugaredLogger, err error, fallback string) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorw(fallback, "err", err)
	} else {
		logger.Debugw(fallback, "err", err)
	}
	WriteJSON(w, status, map[string]string{"message": apperror.PublicMessage(err, fallback)})
}

// DecodeJSON reads a single JSON object into dst. Unknown keys, trailing
// data and oversized bodies are validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Validation("Request body is empty")
		}
		return apperror.Wrap(apperror.CodeValidation, "Invalid request body: "+err.Error(), err)
	}
	if dec.More() {
		return apperror.Validation("Request body must contain a single JSON object")
	}
	return nil
}

// PathID parses the {id} path segment as a positive integer.
func PathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(fmt.Sprintf("Invalid id %q", raw))
	}
	return id, nil
}
