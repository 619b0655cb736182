package consent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// PostgresStore persists consent event streams in PostgreSQL. One row per
// event, ordered by insertion; the table is insert-only.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed consent store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, clientID id.ClientID, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal consent event: %w", err)
	}
	query := `
		INSERT INTO consent_events (consent_id, client_id, kind, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		event.ConsentID().String(),
		clientID.String(),
		event.Kind(),
		payload,
		event.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("append consent event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stream(ctx context.Context, consentID id.ConsentID) ([]Event, error) {
	query := `
		SELECT kind, payload
		FROM consent_events
		WHERE consent_id = $1
		ORDER BY id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, consentID.String())
	if err != nil {
		return nil, fmt.Errorf("load consent stream: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var kind string
		var payload []byte
		if err := rows.Scan(&kind, &payload); err != nil {
			return nil, fmt.Errorf("scan consent event: %w", err)
		}
		event, err := decodeEvent(kind, payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent events: %w", err)
	}
	if len(events) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
	}
	return events, nil
}

func (s *PostgresStore) ConsentIDsByClient(ctx context.Context, clientID id.ClientID) ([]id.ConsentID, error) {
	query := `
		SELECT DISTINCT consent_id
		FROM consent_events
		WHERE client_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, clientID.String())
	if err != nil {
		return nil, fmt.Errorf("list client consents: %w", err)
	}
	defer rows.Close()

	var ids []id.ConsentID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan consent id: %w", err)
		}
		consentID, err := id.ParseConsentID(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, consentID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate client consents: %w", err)
	}
	return ids, nil
}

func decodeEvent(kind string, payload []byte) (Event, error) {
	switch kind {
	case KindGranted:
		var e Granted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		return e, nil
	case KindRevoked:
		var e Revoked
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		return e, nil
	case KindUpdated:
		var e Updated
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		return e, nil
	case KindExtended:
		var e Extended
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		return e, nil
	case KindExpired:
		var e Expired
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s event: %w", kind, err)
		}
		return e, nil
	default:
		return nil, dErrors.New(dErrors.CodeInternal, "unknown consent event kind in store: "+kind)
	}
}
