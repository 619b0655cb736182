package httptransport

import (
	"context"
	"net/http"
	"strings"

	"haven/internal/access"
	"haven/pkg/requestcontext"
)

type contextKey struct{ name string }

var actorKey = &contextKey{"actor"}

// Authenticate verifies the bearer token and stashes the resulting access
// context on the request. Requests without a token proceed as anonymous; the
// decision gates downstream treat that as maximally restrictive rather than
// rejecting outright.
func Authenticate(verifier *access.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			actor, err := verifier.Verify(token, access.RequestMeta{
				RemoteAddr: r.RemoteAddr,
				UserAgent:  r.UserAgent(),
				Now:        requestcontext.Now(r.Context()),
			})
			if err != nil {
				writeError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorFrom returns the verified access context, or the anonymous context if
// the authentication middleware did not run.
func actorFrom(ctx context.Context) *access.Context {
	if actor, ok := ctx.Value(actorKey).(*access.Context); ok && actor != nil {
		return actor
	}
	return access.Anonymous()
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
