package export

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"haven/internal/access"
	"haven/internal/pseudonym"
	"haven/internal/redaction"
	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
	"haven/pkg/platform/audit"
	"haven/pkg/platform/audit/publisher"
	"haven/pkg/requestcontext"
)

// Masked literals per field kind. A masked field keeps its key with one of
// these values so consumers can tell "withheld" apart from "absent".
const (
	MaskedSSN     = "***-**-####"
	MaskedPhone   = "***-***-####"
	MaskedEmail   = "***@***.***"
	MaskedAddress = "[ADDRESS REDACTED]"
	MaskedName    = "[NAME REDACTED]"
	MaskedGeneric = "[REDACTED]"

	MaskedAgeRange  = "[AGE_RANGE]"
	MaskedZIPPrefix = "[ZIP_PREFIX]"
)

// Record is one exportable entity: the subject it belongs to and its named
// field values. Callers enumerate fields explicitly; nothing is discovered by
// reflection.
type Record struct {
	ClientID id.ClientID
	Fields   map[string]string
}

// Projection is the pruned field mapping for one record and purpose. The
// client id field always carries the pseudonymized form, never the internal
// identifier.
type Projection struct {
	Purpose  Purpose           `json:"purpose"`
	ClientID string            `json:"client_id"`
	Fields   map[string]string `json:"fields"`
}

// Encode renders the projection as canonical JSON. Keys are emitted in
// sorted order so identical inputs produce byte-identical output.
func (p Projection) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// Builder assembles export projections. It is stateless per call and safe
// for concurrent use.
type Builder struct {
	mapper *pseudonym.Mapper
	audit  *publisher.Publisher
	logger *slog.Logger
}

// Option configures the Builder.
type Option func(*Builder)

func WithAudit(p *publisher.Publisher) Option {
	return func(b *Builder) { b.audit = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

func NewBuilder(mapper *pseudonym.Mapper, opts ...Option) (*Builder, error) {
	if mapper == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "export builder requires a pseudonym mapper")
	}
	b := &Builder{mapper: mapper}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Build produces the projection of the record for the actor and purpose.
// Field iteration is sorted, so repeated calls with identical inputs yield
// identical projections byte for byte.
func (b *Builder) Build(ctx context.Context, actor *access.Context, rec Record, purpose Purpose) (Projection, error) {
	if _, err := ParsePurpose(string(purpose)); err != nil {
		return Projection{}, err
	}
	if actor == nil {
		actor = access.Anonymous()
	}

	external, err := b.mapper.Pseudonymize(rec.ClientID)
	if err != nil {
		return Projection{}, dErrors.Wrap(err, dErrors.CodeInvalidIdentifier, "failed to pseudonymize export subject")
	}

	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	level := actor.MaxAccessLevel()
	fields := make(map[string]string, len(names))
	masked, omitted := 0, 0

	for _, name := range names {
		value := rec.Fields[name]
		category := ClassifyField(name)

		if level >= RequiredLevel(purpose, category) {
			fields[name] = value
			continue
		}
		if m, ok := maskedValue(purpose, name); ok {
			fields[name] = m
			masked++
		} else {
			omitted++
		}
	}

	metricProjections.WithLabelValues(string(purpose)).Inc()

	if b.audit != nil {
		var sessionID string
		if !actor.SessionID().IsNil() {
			sessionID = actor.SessionID().String()
		}
		err := b.audit.Emit(ctx, audit.Event{
			ActorID:   actor.ActorID(),
			ClientID:  rec.ClientID,
			Action:    string(audit.ActionProjectionBuilt),
			Rule:      string(purpose),
			Decision:  audit.DecisionAllow,
			Reason:    "projection built",
			SessionID: sessionID,
			Origin:    actor.Origin(),
			RequestID: requestcontext.RequestID(ctx),
		})
		if err != nil && b.logger != nil {
			b.logger.Error("failed to emit export audit event", "error", err, "purpose", purpose)
		}
	}
	if b.logger != nil {
		b.logger.Debug("export projection built",
			"purpose", purpose,
			"fields", len(fields),
			"masked", masked,
			"omitted", omitted,
		)
	}

	return Projection{Purpose: purpose, ClientID: external, Fields: fields}, nil
}

// maskedValue picks the masked literal for a withheld field, or reports that
// the purpose omits the field entirely. VSP sharing never masks: a withheld
// field must not even reveal its presence to a partner system.
func maskedValue(purpose Purpose, name string) (string, bool) {
	if purpose == PurposeVSPSharing {
		return "", false
	}

	n := strings.ToLower(name)
	if purpose == PurposeResearchDataset {
		switch {
		case strings.Contains(n, "age"):
			return MaskedAgeRange, true
		case strings.Contains(n, "zip"):
			return MaskedZIPPrefix, true
		default:
			return "", false
		}
	}

	switch {
	case containsAny(n, "ssn", "social_security", "socialsecurity"):
		return MaskedSSN, true
	case containsAny(n, "phone", "mobile", "telephone"):
		return MaskedPhone, true
	case strings.Contains(n, "email"):
		return MaskedEmail, true
	case strings.Contains(n, "address"):
		return MaskedAddress, true
	case strings.Contains(n, "name"):
		return MaskedName, true
	case containsAny(n, "race", "ethnicity"):
		return string(redaction.RacePrefersNotToAnswer), true
	default:
		return MaskedGeneric, true
	}
}
