package server

import (
	"encoding/json"
	"errors"
	"net/http"

	perrors "github.com/matzehuels/productlens/pkg/errors"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Code  perrors.Code `json:"code"`
	Error string       `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and writes {code, error}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
			Code:  perrors.ErrCodeInvalidInput,
			Error: "manifest exceeds the upload limit",
		})
		return
	}

	code := perrors.GetCode(err)
	if code == "" {
		code = perrors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: perrors.UserMessage(err)})
}

func statusFor(code perrors.Code) int {
	switch code {
	case perrors.ErrCodeMalformedManifest,
		perrors.ErrCodeReferentialIntegrity,
		perrors.ErrCodeInvalidInput,
		perrors.ErrCodeInvalidFormat,
		perrors.ErrCodeInvalidConfig,
		perrors.ErrCodeInvalidIdentifier,
		perrors.ErrCodeUnclassifiable:
		return http.StatusBadRequest
	case perrors.ErrCodeNotFound, perrors.ErrCodeProductNotFound, perrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case perrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
