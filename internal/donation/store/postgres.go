package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"givebridge/internal/donation/models"
	"givebridge/pkg/domain"
	"givebridge/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres implements Store against the donations table. Settlement is a
// single UPDATE ... RETURNING, so concurrent settlements of one reference
// serialize on the row and the last writer wins cleanly.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, donation *models.Donation) error {
	query := `
		INSERT INTO donations (id, member_id, amount, order_ref, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(donation.ID),
		uuid.UUID(donation.MemberID),
		donation.Amount,
		donation.OrderRef,
		string(donation.Status),
		donation.Notes,
		donation.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("create donation: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *Postgres) FindByOrderRef(ctx context.Context, orderRef string) (*models.Donation, error) {
	query := selectDonation + ` WHERE order_ref = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, orderRef))
}

func (s *Postgres) Settle(ctx context.Context, orderRef string, isSuccess bool, notes string) (*models.Donation, error) {
	query := `
		UPDATE donations SET status = $2, notes = $3
		WHERE order_ref = $1
		RETURNING id, member_id, amount, order_ref, status, notes, created_at
	`
	status := models.SettledStatus(isSuccess)
	return s.scanOne(s.db.QueryRowContext(ctx, query, orderRef, string(status), notes))
}

func (s *Postgres) ListByMember(ctx context.Context, memberID domain.MemberID) ([]*models.Donation, error) {
	query := selectDonation + ` WHERE member_id = $1 ORDER BY created_at, id`
	return s.scanMany(ctx, query, uuid.UUID(memberID))
}

func (s *Postgres) ListAll(ctx context.Context) ([]*models.Donation, error) {
	query := selectDonation + ` ORDER BY created_at DESC, id DESC`
	return s.scanMany(ctx, query)
}

func (s *Postgres) SumByStatus(ctx context.Context, status models.Status) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations WHERE status = $1`,
		string(status),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum donations: %w", err)
	}
	return total, nil
}

func (s *Postgres) GroupByDay(ctx context.Context, status models.Status) ([]models.DailyTotal, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       SUM(amount), COUNT(*)
		FROM donations
		WHERE status = $1
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("group donations by day: %w", err)
	}
	defer rows.Close()

	var out []models.DailyTotal
	for rows.Next() {
		var row models.DailyTotal
		if err := rows.Scan(&row.Day, &row.Total, &row.Count); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

func (s *Postgres) GroupByDonor(ctx context.Context, status models.Status) ([]models.DonorTotal, error) {
	query := `
		SELECT member_id, SUM(amount), COUNT(*)
		FROM donations
		WHERE status = $1
		GROUP BY member_id
		ORDER BY SUM(amount) DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("group donations by donor: %w", err)
	}
	defer rows.Close()

	var out []models.DonorTotal
	for rows.Next() {
		var (
			row      models.DonorTotal
			memberID uuid.UUID
		)
		if err := rows.Scan(&memberID, &row.Total, &row.Count); err != nil {
			return nil, fmt.Errorf("scan donor total: %w", err)
		}
		row.MemberID = domain.MemberID(memberID)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor totals: %w", err)
	}
	return out, nil
}

const selectDonation = `
	SELECT id, member_id, amount, order_ref, status, notes, created_at
	FROM donations`

func (s *Postgres) scanOne(row *sql.Row) (*models.Donation, error) {
	var (
		donation models.Donation
		id       uuid.UUID
		memberID uuid.UUID
		status   string
	)
	err := row.Scan(&id, &memberID, &donation.Amount, &donation.OrderRef, &status, &donation.Notes, &donation.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan donation: %w", err)
	}
	donation.ID = domain.DonationID(id)
	donation.MemberID = domain.MemberID(memberID)
	donation.Status = models.Status(status)
	return &donation, nil
}

func (s *Postgres) scanMany(ctx context.Context, query string, args ...any) ([]*models.Donation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query donations: %w", err)
	}
	defer rows.Close()

	var out []*models.Donation
	for rows.Next() {
		var (
			donation models.Donation
			id       uuid.UUID
			memberID uuid.UUID
			status   string
		)
		if err := rows.Scan(&id, &memberID, &donation.Amount, &donation.OrderRef, &status, &donation.Notes, &donation.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		donation.ID = domain.DonationID(id)
		donation.MemberID = domain.MemberID(memberID)
		donation.Status = models.Status(status)
		out = append(out, &donation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donations: %w", err)
	}
	return out, nil
}
