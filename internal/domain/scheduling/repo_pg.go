package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinio/clinic-api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Availability Repository ===========

type availabilityRepoPG struct{ pool *pgxpool.Pool }

func NewAvailabilityRepoPG(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepoPG{pool: pool}
}

func (r *availabilityRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const availCols = `id, doctor_id, day_of_week, start_time::text, end_time::text, created_at, updated_at`

func (r *availabilityRepoPG) scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	var start, end string
	err := row.Scan(&a.ID, &a.DoctorID, &a.DayOfWeek, &start, &end, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if a.StartTime, err = ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("scan start_time: %w", err)
	}
	if a.EndTime, err = ParseTimeOfDay(end); err != nil {
		return nil, fmt.Errorf("scan end_time: %w", err)
	}
	return &a, nil
}

func (r *availabilityRepoPG) Create(ctx context.Context, a *Availability) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO doctor_availability (id, doctor_id, day_of_week, start_time, end_time)
		VALUES ($1,$2,$3,$4::time,$5::time)
		RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.DayOfWeek, a.StartTime.String(), a.EndTime.String()).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *availabilityRepoPG) GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Availability, error) {
	return r.scanAvailability(r.conn(ctx).QueryRow(ctx,
		`SELECT `+availCols+` FROM doctor_availability WHERE id = $1 AND doctor_id = $2`, id, doctorID))
}

func (r *availabilityRepoPG) Update(ctx context.Context, a *Availability) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_availability
		SET day_of_week=$3, start_time=$4::time, end_time=$5::time, updated_at=NOW()
		WHERE id = $1 AND doctor_id = $2`,
		a.ID, a.DoctorID, a.DayOfWeek, a.StartTime.String(), a.EndTime.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *availabilityRepoPG) Delete(ctx context.Context, doctorID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM doctor_availability WHERE id = $1 AND doctor_id = $2`, id, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *availabilityRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Availability, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+availCols+` FROM doctor_availability
		WHERE doctor_id = $1 ORDER BY day_of_week, start_time`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *availabilityRepoPG) ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek string) ([]*Availability, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+availCols+` FROM doctor_availability
		WHERE doctor_id = $1 AND day_of_week = $2 ORDER BY start_time`, doctorID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *availabilityRepoPG) collect(rows pgx.Rows) ([]*Availability, error) {
	var items []*Availability
	for rows.Next() {
		a, err := r.scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// =========== Appointment Repository ===========

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `a.id, a.patient_id, a.doctor_id, a.start_time, a.duration_minutes, a.created_at, a.updated_at`

const apptJoinCols = apptCols + `,
	du.first_name || ' ' || du.last_name AS doctor_name,
	d.specialty AS doctor_specialty,
	pu.first_name || ' ' || pu.last_name AS patient_name`

const apptJoins = `
	FROM appointment a
	JOIN doctor d ON a.doctor_id = d.id
	JOIN app_user du ON d.user_id = du.id
	JOIN app_user pu ON a.patient_id = pu.id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var minutes int
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &minutes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Duration = time.Duration(minutes) * time.Minute
	return &a, nil
}

func scanAppointmentWithNames(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var minutes int
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &minutes, &a.CreatedAt, &a.UpdatedAt,
		&a.DoctorName, &a.DoctorSpecialty, &a.PatientName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Duration = time.Duration(minutes) * time.Minute
	return &a, nil
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, start_time, duration_minutes)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.StartTime, int(a.Duration/time.Minute)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointmentWithNames(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptJoinCols+apptJoins+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment
		SET patient_id=$2, doctor_id=$3, start_time=$4, duration_minutes=$5, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.PatientID, a.DoctorID, a.StartTime, int(a.Duration/time.Minute))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointment`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptJoinCols+apptJoins+` ORDER BY a.start_time DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointmentsWithNames(rows)
	return items, total, err
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE doctor_id = $1`, doctorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptJoinCols+apptJoins+` WHERE a.doctor_id = $1 ORDER BY a.start_time DESC LIMIT $2 OFFSET $3`,
		doctorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointmentsWithNames(rows)
	return items, total, err
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptJoinCols+apptJoins+` WHERE a.patient_id = $1 ORDER BY a.start_time DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collectAppointmentsWithNames(rows)
	return items, total, err
}

func (r *appointmentRepoPG) ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment a
		WHERE a.doctor_id = $1 AND a.start_time::date = $2::date
		ORDER BY a.start_time`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *appointmentRepoPG) ListOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Appointment, error) {
	// Coarse SQL filter; the engine applies the definitive half-open test.
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointment a
		WHERE a.doctor_id = $1
		  AND ($2::uuid IS NULL OR a.id != $2)
		  AND a.start_time < $4
		  AND a.start_time + make_interval(mins => a.duration_minutes) > $3
		ORDER BY a.start_time`,
		doctorID, nullableUUID(excludeID), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// LockDoctorSchedule takes a transaction-scoped advisory lock keyed on the
// doctor, serializing concurrent check-then-insert sequences for the same
// schedule. Without it two simultaneous bookings could both pass validation.
func (r *appointmentRepoPG) LockDoctorSchedule(ctx context.Context, doctorID uuid.UUID) error {
	if db.TxFromContext(ctx) == nil {
		return fmt.Errorf("LockDoctorSchedule requires a transaction")
	}
	_, err := r.conn(ctx).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, doctorID)
	return err
}

func collectAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func collectAppointmentsWithNames(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointmentWithNames(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func nullableUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
