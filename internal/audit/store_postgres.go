package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"givebridge/pkg/domain"
)

// PostgresStore persists audit entries in the audit_entries table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO audit_entries (id, actor_id, action, target, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		uuid.UUID(entry.ActorID),
		entry.Action,
		entry.Target,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID string) ([]Entry, error) {
	query := `
		SELECT id, actor_id, action, target, created_at
		FROM audit_entries
		WHERE actor_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry   Entry
			actorID uuid.UUID
		)
		if err := rows.Scan(&entry.ID, &actorID, &entry.Action, &entry.Target, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ActorID = domain.MemberID(actorID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
