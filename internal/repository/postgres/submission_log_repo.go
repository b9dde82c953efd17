package postgres

import (
	"context"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubmissionLogRepository implements domain.SubmissionLogRepository using the
// submission_log table.
type SubmissionLogRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionLogRepository creates a new SubmissionLogRepository
func NewSubmissionLogRepository(pool *pgxpool.Pool) *SubmissionLogRepository {
	return &SubmissionLogRepository{pool: pool}
}

// Record inserts one submission attempt
func (r *SubmissionLogRepository) Record(ctx context.Context, entry *domain.SubmissionLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO submission_log (id, loan_id, amount, value_date, status, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		entry.LoanID,
		entry.Amount,
		entry.ValueDate,
		entry.Status,
		entry.Detail,
		entry.CreatedAt,
	)
	return err
}

// GetByLoanID retrieves all submission attempts for a loan, newest first
func (r *SubmissionLogRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.SubmissionLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, loan_id, amount, value_date, status, detail, created_at
		FROM submission_log
		WHERE loan_id = $1
		ORDER BY created_at DESC`,
		loanID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.SubmissionLogEntry
	for rows.Next() {
		entry := &domain.SubmissionLogEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.LoanID,
			&entry.Amount,
			&entry.ValueDate,
			&entry.Status,
			&entry.Detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
