package scheduling

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Availability maps to the doctor_availability table: one standing weekly
// window during which a doctor accepts appointments.
type Availability struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DayOfWeek string    `db:"day_of_week" json:"day_of_week"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Range returns the window as a half-open clock range.
func (a *Availability) Range() ClockRange {
	return ClockRange{Start: a.StartTime, End: a.EndTime}
}

// Appointment maps to the appointment table.
type Appointment struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	PatientID uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	StartTime time.Time     `db:"start_time" json:"start_time"`
	Duration  time.Duration `db:"-" json:"-"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`

	// Joined display fields, populated by list queries only.
	DoctorName      string `db:"-" json:"doctor_name,omitempty"`
	DoctorSpecialty string `db:"-" json:"doctor_specialty,omitempty"`
	PatientName     string `db:"-" json:"patient_name,omitempty"`
}

// End returns the exclusive end of the appointment's interval.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(a.Duration)
}

// Interval returns the appointment's half-open interval.
func (a *Appointment) Interval() Interval {
	return Interval{Start: a.StartTime, End: a.End()}
}

// appointmentJSON controls the wire shape: duration goes out as "HH:MM:SS"
// like the column it came from.
type appointmentJSON struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	StartTime       time.Time `json:"start_time"`
	Duration        string    `json:"duration"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	DoctorName      string    `json:"doctor_name,omitempty"`
	DoctorSpecialty string    `json:"doctor_specialty,omitempty"`
	PatientName     string    `json:"patient_name,omitempty"`
}

func (a Appointment) MarshalJSON() ([]byte, error) {
	return json.Marshal(appointmentJSON{
		ID:              a.ID,
		PatientID:       a.PatientID,
		DoctorID:        a.DoctorID,
		StartTime:       a.StartTime,
		Duration:        FormatSpan(a.Duration),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		DoctorName:      a.DoctorName,
		DoctorSpecialty: a.DoctorSpecialty,
		PatientName:     a.PatientName,
	})
}

// TimeSlot is a fixed-length candidate interval within a requested day.
// Slots are computed fresh on every query and never persisted.
type TimeSlot struct {
	StartTime time.Time `json:"start_time"`
	Available bool      `json:"is_available"`
}

// DaySchedule is the result of a day-slot query for one doctor.
type DaySchedule struct {
	Date      string     `json:"date"`
	DoctorID  uuid.UUID  `json:"doctor_id"`
	TimeSlots []TimeSlot `json:"time_slots"`
	Message   string     `json:"message,omitempty"`
}
