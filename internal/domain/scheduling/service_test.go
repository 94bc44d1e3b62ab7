package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockAvailabilityRepo struct {
	avails map[uuid.UUID]*Availability
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{avails: make(map[uuid.UUID]*Availability)}
}

func (m *mockAvailabilityRepo) Create(_ context.Context, a *Availability) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.avails[a.ID] = a
	return nil
}

func (m *mockAvailabilityRepo) GetByID(_ context.Context, doctorID, id uuid.UUID) (*Availability, error) {
	a, ok := m.avails[id]
	if !ok || a.DoctorID != doctorID {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAvailabilityRepo) Update(_ context.Context, a *Availability) error {
	if _, ok := m.avails[a.ID]; !ok {
		return ErrNotFound
	}
	m.avails[a.ID] = a
	return nil
}

func (m *mockAvailabilityRepo) Delete(_ context.Context, doctorID, id uuid.UUID) error {
	a, ok := m.avails[id]
	if !ok || a.DoctorID != doctorID {
		return ErrNotFound
	}
	delete(m.avails, id)
	return nil
}

func (m *mockAvailabilityRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Availability, error) {
	var result []*Availability
	for _, a := range m.avails {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAvailabilityRepo) ListByDoctorDay(_ context.Context, doctorID uuid.UUID, day string) ([]*Availability, error) {
	var result []*Availability
	for _, a := range m.avails {
		if a.DoctorID == doctorID && a.DayOfWeek == day {
			result = append(result, a)
		}
	}
	return result, nil
}

type mockAppointmentRepo struct {
	appts map[uuid.UUID]*Appointment
	locks []uuid.UUID
}

func newMockAppointmentRepo() *mockAppointmentRepo {
	return &mockAppointmentRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockAppointmentRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appts[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockAppointmentRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.appts[a.ID]; !ok {
		return ErrNotFound
	}
	m.appts[a.ID] = a
	return nil
}

func (m *mockAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.appts[id]; !ok {
		return ErrNotFound
	}
	delete(m.appts, id)
	return nil
}

func (m *mockAppointmentRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockAppointmentRepo) ListByDoctorOnDate(_ context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	var result []*Appointment
	y, mo, d := date.Date()
	for _, a := range m.appts {
		ay, amo, ad := a.StartTime.Date()
		if a.DoctorID == doctorID && ay == y && amo == mo && ad == d {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) ListOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Appointment, error) {
	proposed := Interval{Start: start, End: end}
	var result []*Appointment
	for _, a := range m.appts {
		if a.DoctorID != doctorID {
			continue
		}
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		if a.Interval().Overlaps(proposed) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAppointmentRepo) LockDoctorSchedule(_ context.Context, doctorID uuid.UUID) error {
	m.locks = append(m.locks, doctorID)
	return nil
}

type mockDirectory struct {
	doctors  map[uuid.UUID]bool
	patients map[uuid.UUID]bool
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{doctors: make(map[uuid.UUID]bool), patients: make(map[uuid.UUID]bool)}
}

func (m *mockDirectory) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.doctors[id], nil
}

func (m *mockDirectory) PatientExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m.patients[id], nil
}

// mockTxRunner just invokes fn; it counts invocations so tests can assert
// the booking path runs transactionally.
type mockTxRunner struct {
	calls int
}

func (m *mockTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// -- Fixtures --

type fixture struct {
	svc       *Service
	avail     *mockAvailabilityRepo
	appts     *mockAppointmentRepo
	dir       *mockDirectory
	tx        *mockTxRunner
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		avail:     newMockAvailabilityRepo(),
		appts:     newMockAppointmentRepo(),
		dir:       newMockDirectory(),
		tx:        &mockTxRunner{},
		doctorID:  uuid.New(),
		patientID: uuid.New(),
	}
	f.dir.doctors[f.doctorID] = true
	f.dir.patients[f.patientID] = true
	f.svc = NewService(f.avail, f.appts, f.dir, f.tx)
	return f
}

// addWindow installs a friday window for the fixture doctor.
func (f *fixture) addWindow(t *testing.T, start, end string) {
	t.Helper()
	err := f.svc.CreateAvailability(context.Background(), &Availability{
		DoctorID:  f.doctorID,
		DayOfWeek: "friday",
		StartTime: mustTOD(t, start),
		EndTime:   mustTOD(t, end),
	})
	if err != nil {
		t.Fatalf("addWindow: %v", err)
	}
}

func (f *fixture) book(t *testing.T, clock string, d time.Duration) (*Appointment, error) {
	t.Helper()
	a := &Appointment{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		StartTime: fridayAt(t, clock),
		Duration:  d,
	}
	return a, f.svc.BookAppointment(context.Background(), a)
}

// -- Appointment Tests --

func TestBookAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")

	a, err := f.book(t, "10:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if a.ID == uuid.Nil {
		t.Error("appointment not assigned an ID")
	}
	if f.tx.calls != 1 {
		t.Errorf("expected 1 transaction, got %d", f.tx.calls)
	}
	if len(f.appts.locks) != 1 || f.appts.locks[0] != f.doctorID {
		t.Errorf("expected schedule lock for doctor, got %v", f.appts.locks)
	}
}

func TestBookAppointmentOutsideWindow(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "12:00")

	if _, err := f.book(t, "14:00", 30*time.Minute); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
	if len(f.appts.appts) != 0 {
		t.Error("rejected appointment was persisted")
	}
}

func TestBookAppointmentConflict(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")

	if _, err := f.book(t, "10:00", 30*time.Minute); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.book(t, "10:15", 30*time.Minute); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict at 10:15, got %v", err)
	}
	if _, err := f.book(t, "10:30", 30*time.Minute); err != nil {
		t.Fatalf("back-to-back booking at 10:30: %v", err)
	}
}

func TestBookAppointmentUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	a := &Appointment{
		PatientID: f.patientID,
		DoctorID:  uuid.New(),
		StartTime: fridayAt(t, "10:00"),
		Duration:  30 * time.Minute,
	}
	if err := f.svc.BookAppointment(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookAppointmentUnknownPatient(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")
	a := &Appointment{
		PatientID: uuid.New(),
		DoctorID:  f.doctorID,
		StartTime: fridayAt(t, "10:00"),
		Duration:  30 * time.Minute,
	}
	if err := f.svc.BookAppointment(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookAppointmentInvalidInput(t *testing.T) {
	f := newFixture(t)
	a := &Appointment{
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		StartTime: fridayAt(t, "10:00"),
	}
	if err := f.svc.BookAppointment(context.Background(), a); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero duration, got %v", err)
	}
}

func TestRescheduleAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")

	a, err := f.book(t, "10:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("booking: %v", err)
	}

	// Shifting within its own slot must not self-conflict.
	a.StartTime = fridayAt(t, "10:15")
	if err := f.svc.RescheduleAppointment(context.Background(), a); err != nil {
		t.Fatalf("reschedule within own slot: %v", err)
	}

	// Moving onto another booking is still a conflict.
	other, err := f.book(t, "14:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("second booking: %v", err)
	}
	other.StartTime = fridayAt(t, "10:15")
	if err := f.svc.RescheduleAppointment(context.Background(), other); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRescheduleUnknownAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")
	a := &Appointment{
		ID:        uuid.New(),
		PatientID: f.patientID,
		DoctorID:  f.doctorID,
		StartTime: fridayAt(t, "10:00"),
		Duration:  30 * time.Minute,
	}
	if err := f.svc.RescheduleAppointment(context.Background(), a); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")

	a, err := f.book(t, "10:00", 30*time.Minute)
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if err := f.svc.CancelAppointment(context.Background(), a.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.GetAppointment(context.Background(), a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after cancel, got %v", err)
	}

	// Slot is free again.
	if _, err := f.book(t, "10:00", 30*time.Minute); err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
}

// -- Availability Tests --

func TestCreateAvailabilityInvalidRange(t *testing.T) {
	f := newFixture(t)
	err := f.svc.CreateAvailability(context.Background(), &Availability{
		DoctorID:  f.doctorID,
		DayOfWeek: "friday",
		StartTime: mustTOD(t, "17:00"),
		EndTime:   mustTOD(t, "09:00"),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestCreateAvailabilityOverlap(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "12:00")

	err := f.svc.CreateAvailability(context.Background(), &Availability{
		DoctorID:  f.doctorID,
		DayOfWeek: "friday",
		StartTime: mustTOD(t, "11:00"),
		EndTime:   mustTOD(t, "14:00"),
	})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	// Same clock range on a different day is fine.
	err = f.svc.CreateAvailability(context.Background(), &Availability{
		DoctorID:  f.doctorID,
		DayOfWeek: "monday",
		StartTime: mustTOD(t, "11:00"),
		EndTime:   mustTOD(t, "14:00"),
	})
	if err != nil {
		t.Fatalf("different day should not overlap: %v", err)
	}
}

func TestCreateAvailabilityInvalidDay(t *testing.T) {
	f := newFixture(t)
	err := f.svc.CreateAvailability(context.Background(), &Availability{
		DoctorID:  f.doctorID,
		DayOfWeek: "Freitag",
		StartTime: mustTOD(t, "09:00"),
		EndTime:   mustTOD(t, "12:00"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateAvailabilityExcludesSelf(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "12:00")

	var w *Availability
	for _, a := range f.avail.avails {
		w = a
	}
	w.EndTime = mustTOD(t, "11:00")
	if err := f.svc.UpdateAvailability(context.Background(), w); err != nil {
		t.Fatalf("shrinking own window: %v", err)
	}
}

func TestListAvailabilitiesUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ListAvailabilities(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// -- Day Schedule Tests --

func TestDaySchedule(t *testing.T) {
	f := newFixture(t)
	f.addWindow(t, "09:00", "17:00")
	if _, err := f.book(t, "10:00", 30*time.Minute); err != nil {
		t.Fatalf("booking: %v", err)
	}

	sched, err := f.svc.DaySchedule(context.Background(), f.doctorID, friday)
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if sched.Date != "2025-06-06" {
		t.Errorf("date = %q", sched.Date)
	}
	if len(sched.TimeSlots) != 16 {
		t.Fatalf("expected 16 slots for an 8h window, got %d", len(sched.TimeSlots))
	}
	var tenAM *TimeSlot
	for i := range sched.TimeSlots {
		if sched.TimeSlots[i].StartTime.Equal(fridayAt(t, "10:00")) {
			tenAM = &sched.TimeSlots[i]
		}
	}
	if tenAM == nil || tenAM.Available {
		t.Error("10:00 slot should exist and be unavailable")
	}
}

func TestDayScheduleNoWindows(t *testing.T) {
	f := newFixture(t)
	sched, err := f.svc.DaySchedule(context.Background(), f.doctorID, friday)
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	if sched.Message != "Doctor is not available on this day" {
		t.Errorf("message = %q", sched.Message)
	}
	if len(sched.TimeSlots) != 0 {
		t.Errorf("expected no slots, got %d", len(sched.TimeSlots))
	}
}

func TestDayScheduleUnknownDoctor(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.DaySchedule(context.Background(), uuid.New(), friday); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
