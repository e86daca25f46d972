package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vetchat/internal/db"
	"vetchat/internal/entities"
)

// AppointmentStore persists appointments.
type AppointmentStore interface {
	// Create inserts the appointment and fills ID and CreatedAt. It returns
	// ErrSlotTaken when another live appointment holds the same slot.
	Create(ctx context.Context, apt *db.Appointment) error
	Get(ctx context.Context, id int64) (*db.Appointment, error)
	List(ctx context.Context) ([]db.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]db.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) (*db.Appointment, error)
	// BookedSlots returns the slots held between fromDate and toDate inclusive.
	BookedSlots(ctx context.Context, fromDate, toDate string) ([]entities.SlotKey, error)
}

const appointmentColumns = `id, owner_name, pet_name, phone, date, time, service, notes, status, created_at, updated_at`

type AppointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

// Create relies on the partial unique index over (date, time) so the
// availability check and the insert are a single statement.
func (r *AppointmentRepository) Create(ctx context.Context, apt *db.Appointment) error {
	query := `
		INSERT INTO appointments
		(owner_name, pet_name, phone, date, time, service, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING
		RETURNING id, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		apt.OwnerName,
		apt.PetName,
		apt.Phone,
		apt.Date,
		apt.Time,
		apt.Service,
		apt.Notes,
		apt.Status,
		apt.CreatedAt,
	).Scan(&apt.ID, &apt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("error inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id int64) (*db.Appointment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	apt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying appointment %d: %w", id, err)
	}
	return apt, nil
}

func (r *AppointmentRepository) List(ctx context.Context) ([]db.Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments ORDER BY id`)
}

func (r *AppointmentRepository) ListByDate(ctx context.Context, date string) ([]db.Appointment, error) {
	return r.query(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE date = $1 AND status <> 'cancelled' ORDER BY time, id`, date)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) (*db.Appointment, error) {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + appointmentColumns
	apt, err := scanAppointment(r.DB.QueryRowContext(ctx, query, status, updatedAt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("error updating appointment %d: %w", id, err)
	}
	return apt, nil
}

func (r *AppointmentRepository) BookedSlots(ctx context.Context, fromDate, toDate string) ([]entities.SlotKey, error) {
	query := `
		SELECT date, time FROM appointments
		WHERE status <> 'cancelled' AND date >= $1 AND date <= $2`
	rows, err := r.DB.QueryContext(ctx, query, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("error querying booked slots: %w", err)
	}
	defer rows.Close()

	var keys []entities.SlotKey
	for rows.Next() {
		var k entities.SlotKey
		if err := rows.Scan(&k.Date, &k.Time); err != nil {
			return nil, fmt.Errorf("error scanning booked slot: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booked slots: %w", err)
	}
	return keys, nil
}

func (r *AppointmentRepository) query(ctx context.Context, query string, args ...any) ([]db.Appointment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying appointments: %w", err)
	}
	defer rows.Close()

	appointments := []db.Appointment{}
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning appointment: %w", err)
		}
		appointments = append(appointments, *apt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating appointments: %w", err)
	}
	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*db.Appointment, error) {
	var apt db.Appointment
	var updatedAt sql.NullTime
	err := row.Scan(
		&apt.ID, &apt.OwnerName, &apt.PetName, &apt.Phone, &apt.Date, &apt.Time,
		&apt.Service, &apt.Notes, &apt.Status, &apt.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		apt.UpdatedAt = &t
	}
	return &apt, nil
}
