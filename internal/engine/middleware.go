package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"haven/internal/access"
	dErrors "haven/pkg/domain-errors"
	httpErrors "haven/pkg/http-errors"
)

// Resolver extracts the access context and resource descriptor for one
// request. The subject client id must be set on the descriptor's resource;
// the middleware never guesses it from route parameters.
type Resolver func(r *http.Request) (*access.Context, Descriptor, error)

type contextKey struct{ name string }

var decisionKey = &contextKey{"engine-decision"}

// DecisionFromContext returns the decision the Protect middleware recorded
// for this request, if any.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(decisionKey).(Decision)
	return d, ok
}

// Protect wraps a handler touching sensitive fields with a full access
// evaluation. Denied requests never reach the handler; allowed requests carry
// the decision in their context.
func (e *Engine) Protect(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, desc, err := resolve(r)
			if err != nil {
				writeError(w, err)
				return
			}

			decision, err := e.EvaluateAccess(r.Context(), actor, desc)
			if err != nil {
				writeError(w, err)
				return
			}
			if !decision.Allowed {
				writeDenial(w, decision)
				return
			}

			ctx := context.WithValue(r.Context(), decisionKey, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeDenial(w http.ResponseWriter, d Decision) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  "access_denied",
		"gate":   string(d.Gate),
		"rule":   d.Rule,
		"reason": d.Reason,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := string(dErrors.CodeInternal)

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status = httpErrors.ToHTTPStatus(domainErr.Code)
		code = string(domainErr.Code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": err.Error(),
	})
}
