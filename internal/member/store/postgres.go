package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"givebridge/internal/member/models"
	"givebridge/pkg/domain"
	"givebridge/pkg/platform/sentinel"
)

// uniqueViolation is the postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// Postgres implements Store against the members table. The table carries a
// unique index on email; email is written lower-cased so the index enforces
// case-insensitive uniqueness.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO members (id, full_name, email, secret_hash, role, approved, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(member.ID),
		member.FullName,
		models.NormalizeEmail(member.Email),
		member.SecretHash,
		string(member.Role),
		member.Approved,
		member.RegisteredAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create member: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	query := selectMember + ` WHERE email = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, models.NormalizeEmail(email)))
}

func (s *Postgres) FindByID(ctx context.Context, id domain.MemberID) (*models.Member, error) {
	query := selectMember + ` WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id)))
}

// SetApproved updates and reads back in a single statement so the
// check-then-act stays atomic against the store.
func (s *Postgres) SetApproved(ctx context.Context, id domain.MemberID, approved bool) (*models.Member, error) {
	query := `
		UPDATE members SET approved = $2
		WHERE id = $1
		RETURNING id, full_name, email, secret_hash, role, approved, registered_at
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, uuid.UUID(id), approved))
}

func (s *Postgres) ListPendingAdmins(ctx context.Context) ([]*models.Member, error) {
	query := selectMember + ` WHERE role = $1 AND approved = FALSE ORDER BY registered_at, email`
	return s.scanMany(ctx, query, string(domain.RoleAdmin))
}

func (s *Postgres) ListByRole(ctx context.Context, role domain.Role, nameFilter string) ([]*models.Member, error) {
	if nameFilter != "" {
		query := selectMember + ` WHERE role = $1 AND full_name ILIKE '%' || $2 || '%' ORDER BY registered_at, email`
		return s.scanMany(ctx, query, string(role), nameFilter)
	}
	query := selectMember + ` WHERE role = $1 ORDER BY registered_at, email`
	return s.scanMany(ctx, query, string(role))
}

func (s *Postgres) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE role = $1`, string(role)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

const selectMember = `
	SELECT id, full_name, email, secret_hash, role, approved, registered_at
	FROM members`

func (s *Postgres) scanOne(row *sql.Row) (*models.Member, error) {
	var (
		member models.Member
		id     uuid.UUID
		role   string
	)
	err := row.Scan(&id, &member.FullName, &member.Email, &member.SecretHash, &role, &member.Approved, &member.RegisteredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan member: %w", err)
	}
	member.ID = domain.MemberID(id)
	member.Role = domain.Role(role)
	return &member, nil
}

func (s *Postgres) scanMany(ctx context.Context, query string, args ...any) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var out []*models.Member
	for rows.Next() {
		var (
			member models.Member
			id     uuid.UUID
			role   string
		)
		if err := rows.Scan(&id, &member.FullName, &member.Email, &member.SecretHash, &role, &member.Approved, &member.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		member.ID = domain.MemberID(id)
		member.Role = domain.Role(role)
		out = append(out, &member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}
