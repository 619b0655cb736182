package boundary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "haven/pkg/domain"
)

// PostgresStore resolves per-client data-system flags from the
// client_restrictions table. A missing row means unrestricted; flags are
// written by the case-management platform, this engine only reads.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed restrictions store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Restrictions(ctx context.Context, clientID id.ClientID) (Restrictions, error) {
	query := `
		SELECT comparable_db_only, vawa_protected
		FROM client_restrictions
		WHERE client_id = $1
	`
	r := Restrictions{ClientID: clientID}
	err := s.db.QueryRowContext(ctx, query, clientID.String()).
		Scan(&r.ComparableDBOnly, &r.VAWAProtected)
	if errors.Is(err, sql.ErrNoRows) {
		return Restrictions{ClientID: clientID}, nil
	}
	if err != nil {
		return Restrictions{}, fmt.Errorf("load client restrictions: %w", err)
	}
	return r, nil
}
