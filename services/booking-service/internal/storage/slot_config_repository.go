package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/libs/db"
)

// SlotConfigRepository stores the coarse configured-slot lists: one default
// list plus optional per-date overrides. This is the admin-facing path; the
// duration-aware availability engine computes its own candidates.
type SlotConfigRepository struct {
	pool *db.Pool
}

func NewSlotConfigRepository(pool *db.Pool) *SlotConfigRepository {
	return &SlotConfigRepository{pool: pool}
}

// Defaults returns the configured default slot list, or nil when none has
// been set (callers fall back to the built-in list).
func (r *SlotConfigRepository) Defaults(ctx context.Context) ([]string, error) {
	var slots []string
	err := r.pool.QueryRow(ctx, `
		SELECT slots FROM slot_defaults WHERE id = 1
	`).Scan(&slots)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *SlotConfigRepository) SetDefaults(ctx context.Context, slots []string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slot_defaults (id, slots)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET slots = EXCLUDED.slots, updated_at = now()
	`, slots)
	return err
}

// OverrideFor returns the per-date override list, or nil when the date has no
// override.
func (r *SlotConfigRepository) OverrideFor(ctx context.Context, date string) ([]string, error) {
	var slots []string
	err := r.pool.QueryRow(ctx, `
		SELECT slots FROM slot_overrides WHERE date = $1
	`, date).Scan(&slots)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *SlotConfigRepository) SetOverride(ctx context.Context, date string, slots []string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO slot_overrides (date, slots)
		VALUES ($1, $2)
		ON CONFLICT (date) DO UPDATE SET slots = EXCLUDED.slots, updated_at = now()
	`, date, slots)
	return err
}

func (r *SlotConfigRepository) ClearOverride(ctx context.Context, date string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM slot_overrides WHERE date = $1`, date)
	return err
}

// SlotsFor resolves the configured list for a date: override, else defaults,
// else nil.
func (r *SlotConfigRepository) SlotsFor(ctx context.Context, date string) ([]string, error) {
	slots, err := r.OverrideFor(ctx, date)
	if err != nil {
		return nil, err
	}
	if slots != nil {
		return slots, nil
	}
	return r.Defaults(ctx)
}
