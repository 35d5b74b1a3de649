package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jmoss-dev/salonbook/libs/db"
	"github.com/jmoss-dev/salonbook/services/booking-service/internal/model"
)

const appointmentColumns = `
	id::text, customer_name, customer_email, customer_phone,
	COALESCE(service_id::text, ''), service_name, duration_label, total_price,
	date, time_slot, status, notes, created_at, updated_at`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts the appointment. The partial unique index on
// (date, time_slot) WHERE status <> 'cancelled' makes this the race-resolution
// point for double bookings: the loser gets a unique violation (IsConflict).
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(customer_name, customer_email, customer_phone, service_id, service_name, duration_label, total_price, date, time_slot, status, notes)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone, appt.ServiceID, appt.ServiceName,
		appt.DurationLabel, appt.TotalPrice, appt.Date, appt.TimeSlot, appt.Status, appt.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id)
	return scanAppointment(row)
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// SetStatus is called after the lifecycle graph has validated the transition.
// Moving back into an active status can itself collide with a newer booking
// on the same slot, so IsConflict applies here too.
func (r *AppointmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, tx pgx.Tx, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListActiveByDate returns the non-cancelled appointments for one calendar
// date in ascending slot order. These are the rows that occupy availability.
func (r *AppointmentRepository) ListActiveByDate(ctx context.Context, date string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE date = $1 AND status <> 'cancelled'
		ORDER BY to_timestamp(time_slot, 'HH12:MI AM')
	`, date)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *AppointmentRepository) ListAll(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY date DESC, to_timestamp(time_slot, 'HH12:MI AM') DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

// ListActive returns every non-cancelled appointment, oldest date first.
// Feeds the iCal export.
func (r *AppointmentRepository) ListActive(ctx context.Context) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
		ORDER BY date, to_timestamp(time_slot, 'HH12:MI AM')
	`)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.ServiceID,
		&appt.ServiceName,
		&appt.DurationLabel,
		&appt.TotalPrice,
		&appt.Date,
		&appt.TimeSlot,
		&appt.Status,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}
