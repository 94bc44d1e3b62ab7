package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	availability AvailabilityRepository
	appointments AppointmentRepository
	directory    Directory
	tx           TxRunner
}

func NewService(avail AvailabilityRepository, appt AppointmentRepository, dir Directory, tx TxRunner) *Service {
	return &Service{availability: avail, appointments: appt, directory: dir, tx: tx}
}

// -- Appointment --

// BookAppointment validates the requested interval against the doctor's
// availability windows and existing appointments, then inserts. The whole
// sequence runs in one transaction under a per-doctor advisory lock so that
// two concurrent requests for the same doctor cannot both pass validation.
func (s *Service) BookAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validateAppointment(ctx, a); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDoctorSchedule(ctx, a.DoctorID); err != nil {
			return err
		}
		if err := s.checkPlacement(ctx, a, uuid.Nil); err != nil {
			return err
		}
		return s.appointments.Create(ctx, a)
	})
}

// RescheduleAppointment re-validates the new interval, excluding the
// appointment itself from conflict detection so it can keep its own slot.
func (s *Service) RescheduleAppointment(ctx context.Context, a *Appointment) error {
	if err := s.validateAppointment(ctx, a); err != nil {
		return err
	}
	if _, err := s.appointments.GetByID(ctx, a.ID); err != nil {
		return err
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.LockDoctorSchedule(ctx, a.DoctorID); err != nil {
			return err
		}
		if err := s.checkPlacement(ctx, a, a.ID); err != nil {
			return err
		}
		return s.appointments.Update(ctx, a)
	})
}

func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) error {
	return s.appointments.Delete(ctx, id)
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) validateAppointment(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("%w: patient_id is required", ErrInvalidInput)
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if a.StartTime.IsZero() {
		return fmt.Errorf("%w: start_time is required", ErrInvalidInput)
	}
	if a.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	ok, err := s.directory.DoctorExists(ctx, a.DoctorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: doctor %s", ErrNotFound, a.DoctorID)
	}
	ok, err = s.directory.PatientExists(ctx, a.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: patient %s", ErrNotFound, a.PatientID)
	}
	return nil
}

func (s *Service) checkPlacement(ctx context.Context, a *Appointment, excludeID uuid.UUID) error {
	windows, err := s.availability.ListByDoctorDay(ctx, a.DoctorID, DayOfWeekName(a.StartTime))
	if err != nil {
		return err
	}
	others, err := s.appointments.ListOverlapping(ctx, a.DoctorID, a.StartTime, a.End(), excludeID)
	if err != nil {
		return err
	}
	return checkPlacement(windows, others, a.StartTime, a.Duration, excludeID)
}

// -- Availability --

func (s *Service) CreateAvailability(ctx context.Context, a *Availability) error {
	if err := s.validateAvailability(a); err != nil {
		return err
	}
	existing, err := s.availability.ListByDoctorDay(ctx, a.DoctorID, a.DayOfWeek)
	if err != nil {
		return err
	}
	if err := checkWindow(existing, a.StartTime, a.EndTime, uuid.Nil); err != nil {
		return err
	}
	return s.availability.Create(ctx, a)
}

func (s *Service) GetAvailability(ctx context.Context, doctorID, id uuid.UUID) (*Availability, error) {
	return s.availability.GetByID(ctx, doctorID, id)
}

func (s *Service) UpdateAvailability(ctx context.Context, a *Availability) error {
	if err := s.validateAvailability(a); err != nil {
		return err
	}
	if _, err := s.availability.GetByID(ctx, a.DoctorID, a.ID); err != nil {
		return err
	}
	existing, err := s.availability.ListByDoctorDay(ctx, a.DoctorID, a.DayOfWeek)
	if err != nil {
		return err
	}
	if err := checkWindow(existing, a.StartTime, a.EndTime, a.ID); err != nil {
		return err
	}
	return s.availability.Update(ctx, a)
}

func (s *Service) DeleteAvailability(ctx context.Context, doctorID, id uuid.UUID) error {
	return s.availability.Delete(ctx, doctorID, id)
}

func (s *Service) ListAvailabilities(ctx context.Context, doctorID uuid.UUID) ([]*Availability, error) {
	ok, err := s.directory.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorID)
	}
	return s.availability.ListByDoctor(ctx, doctorID)
}

func (s *Service) validateAvailability(a *Availability) error {
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrInvalidInput)
	}
	if !ValidDayOfWeek(a.DayOfWeek) {
		return fmt.Errorf("%w: invalid day_of_week %q", ErrInvalidInput, a.DayOfWeek)
	}
	return nil
}

// -- Day schedule --

// DaySchedule returns the bookable slots for a doctor on a calendar day,
// cut from the availability windows for that weekday and marked against
// the appointments already on the books.
func (s *Service) DaySchedule(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DaySchedule, error) {
	ok, err := s.directory.DoctorExists(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, doctorID)
	}
	windows, err := s.availability.ListByDoctorDay(ctx, doctorID, DayOfWeekName(date))
	if err != nil {
		return nil, err
	}
	sched := &DaySchedule{
		Date:      date.Format("2006-01-02"),
		DoctorID:  doctorID,
		TimeSlots: []TimeSlot{},
	}
	if len(windows) == 0 {
		sched.Message = "Doctor is not available on this day"
		return sched, nil
	}
	booked, err := s.appointments.ListByDoctorOnDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	sched.TimeSlots = generateDaySlots(windows, booked, date, DefaultSlotDuration)
	return sched, nil
}
