package storage

import (
	"context"

	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
)

type BlockedDateRepository struct {
	pool *db.Pool
}

func NewBlockedDateRepository(pool *db.Pool) *BlockedDateRepository {
	return &BlockedDateRepository{pool: pool}
}

// Block is an idempotent upsert keyed by date; re-blocking updates the reason.
func (r *BlockedDateRepository) Block(ctx context.Context, date, reason string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blocked_dates (date, reason)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET reason = EXCLUDED.reason
	`, date, reason)
	return err
}

// Unblock is a no-op when the date was not blocked.
func (r *BlockedDateRepository) Unblock(ctx context.Context, date string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blocked_dates WHERE date = $1`, date)
	return err
}

func (r *BlockedDateRepository) IsBlocked(ctx context.Context, date string) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blocked_dates WHERE date = $1)
	`, date).Scan(&blocked)
	return blocked, err
}

func (r *BlockedDateRepository) List(ctx context.Context) ([]model.BlockedDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, reason, created_at
		FROM blocked_dates
		ORDER BY date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []model.BlockedDate
	for rows.Next() {
		var d model.BlockedDate
		if err := rows.Scan(&d.Date, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return dates, nil
}
