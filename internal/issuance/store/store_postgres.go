package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"vaultflow/internal/issuance/models"
	id "vaultflow/pkg/domain"
)

// PostgresStore persists issuance records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed issuance store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, record models.Record) error {
	query := `
		INSERT INTO issuances (id, issuance_id, credential_type_id, holder_did, credential_offer_uri, expires_in, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (issuance_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		record.IssuanceID,
		record.CredentialTypeID,
		record.HolderDID,
		record.CredentialOfferURI,
		record.ExpiresIn,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save issuance: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holderDID string, limit int) ([]models.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `
		SELECT id, issuance_id, credential_type_id, holder_did, credential_offer_uri, expires_in, created_at
		FROM issuances
		WHERE holder_did = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, holderDID, limit)
	if err != nil {
		return nil, fmt.Errorf("list issuances: %w", err)
	}
	defer rows.Close()

	records := make([]models.Record, 0)
	for rows.Next() {
		var (
			record   models.Record
			recordID uuid.UUID
		)
		if err := rows.Scan(
			&recordID,
			&record.IssuanceID,
			&record.CredentialTypeID,
			&record.HolderDID,
			&record.CredentialOfferURI,
			&record.ExpiresIn,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan issuance: %w", err)
		}
		record.ID = id.IssuanceRecordID(recordID)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuances: %w", err)
	}
	return records, nil
}
