package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "haven/pkg/domain-errors"
	httpErrors "haven/pkg/http-errors"
)

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError centralizes domain error translation to HTTP responses so every
// handler renders the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		writeJSON(w, httpErrors.ToHTTPStatus(domainErr.Code), map[string]string{
			"error":             string(domainErr.Code),
			"error_description": domainErr.Message,
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": string(dErrors.CodeInternal),
	})
}

func decode(r *http.Request, into any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "malformed request body")
	}
	return nil
}
