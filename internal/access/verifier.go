package access

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/useragent"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/internal/platform/privacy"
)

// TokenClaims is the shape of the access tokens the case-management platform
// issues. This engine trusts the token contents once the signature checks out;
// issuing and refreshing tokens is someone else's job.
type TokenClaims struct {
	ActorID       string   `json:"actor_id"`
	SessionID     string   `json:"session_id"`
	Roles         []string `json:"roles"`
	Justification string   `json:"justification,omitempty"`
	ClientScope   string   `json:"client_scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns a signed platform token plus request metadata into an access
// Context. It is the only place authentication output crosses into the
// decision engine.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// RequestMeta carries per-request transport metadata. The remote address is
// anonymized before it reaches the Context so raw origins never land in audit
// events.
type RequestMeta struct {
	RemoteAddr string
	UserAgent  string
	Now        time.Time
}

// Verify parses and validates the token and builds the Context. A missing or
// empty token yields the anonymous context rather than an error so callers
// always have something maximally restrictive to evaluate against.
func (v *Verifier) Verify(tokenString string, meta RequestMeta) (*Context, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Anonymous(), nil
	}

	claims := new(TokenClaims)
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeMissingAccessContext, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeMissingAccessContext, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeMissingAccessContext, "invalid token")
	}

	actorID, err := id.ParseActorID(claims.ActorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeMissingAccessContext, "token carries malformed actor id")
	}

	var sessionID id.SessionID
	if claims.SessionID != "" {
		sessionID, err = id.ParseSessionID(claims.SessionID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeMissingAccessContext, "token carries malformed session id")
		}
	}

	var clientScope id.ClientID
	if claims.ClientScope != "" {
		clientScope, err = id.ParseClientID(claims.ClientScope)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeMissingAccessContext, "token carries malformed client scope")
		}
	}

	roles := make([]Role, 0, len(claims.Roles))
	for _, r := range claims.Roles {
		roles = append(roles, Role(strings.ToUpper(strings.TrimSpace(r))))
	}

	return New(Params{
		ActorID:       actorID,
		Roles:         roles,
		Justification: claims.Justification,
		ClientScope:   clientScope,
		SessionID:     sessionID,
		Origin:        privacy.AnonymizeIP(meta.RemoteAddr),
		UserAgent:     DescribeUserAgent(meta.UserAgent),
		BuiltAt:       meta.Now,
	}), nil
}

// DescribeUserAgent reduces a raw User-Agent header to "Browser on OS" so the
// audit trail records the device class without fingerprint-grade detail.
func DescribeUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(browser + " on " + platform)
		}
	}

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}
