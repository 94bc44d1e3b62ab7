package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, a *Availability) error
	GetByID(ctx context.Context, doctorID, id uuid.UUID) (*Availability, error)
	Update(ctx context.Context, a *Availability) error
	Delete(ctx context.Context, doctorID, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Availability, error)
	ListByDoctorDay(ctx context.Context, doctorID uuid.UUID, dayOfWeek string) ([]*Availability, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctorOnDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)

	// ListOverlapping returns the doctor's appointments whose intervals could
	// overlap [start, end), excluding excludeID when non-nil. The caller runs
	// the definitive half-open comparison in the engine.
	ListOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Appointment, error)

	// LockDoctorSchedule serializes concurrent booking attempts for one
	// doctor. Must be called inside a transaction; the lock is released at
	// commit or rollback.
	LockDoctorSchedule(ctx context.Context, doctorID uuid.UUID) error
}

// Directory resolves doctor and patient references owned by the identity
// domain. Scheduling only needs existence checks.
type Directory interface {
	DoctorExists(ctx context.Context, doctorID uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)
}

// TxRunner executes fn inside a database transaction; the transaction is
// carried in ctx so repositories pick it up transparently.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
