package scheduling

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotDuration is the slot length used by day-slot queries unless the
// caller overrides it.
const DefaultSlotDuration = 30 * time.Minute

// The engine is a stateless computation layer over availability windows and
// appointments supplied by the repositories. All interval reasoning lives
// here so that create, update and day-slot queries share one set of
// half-open semantics.

// windowsContain reports whether any window fully contains the proposed
// clock range. A range ending exactly at a window's end is contained.
func windowsContain(windows []*Availability, proposed ClockRange) bool {
	for _, w := range windows {
		if w.Range().Contains(proposed) {
			return true
		}
	}
	return false
}

// findConflict returns the first appointment whose interval overlaps the
// proposed one, skipping the appointment identified by excludeID (the
// appointment being updated, when set).
func findConflict(existing []*Appointment, proposed Interval, excludeID uuid.UUID) *Appointment {
	for _, appt := range existing {
		if excludeID != uuid.Nil && appt.ID == excludeID {
			continue
		}
		if appt.Interval().Overlaps(proposed) {
			return appt
		}
	}
	return nil
}

// checkPlacement validates a proposed appointment against the doctor's
// windows for that weekday and the doctor's other appointments. Windows are
// compared on time-of-day only; appointments on absolute time.
func checkPlacement(windows []*Availability, others []*Appointment, start time.Time, duration time.Duration, excludeID uuid.UUID) error {
	proposed := ClockRange{
		Start: TimeOfDayFrom(start),
		End:   TimeOfDayFrom(start).Add(duration),
	}
	if !windowsContain(windows, proposed) {
		return ErrNotAvailable
	}
	if c := findConflict(others, Interval{Start: start, End: start.Add(duration)}, excludeID); c != nil {
		return ErrConflict
	}
	return nil
}

// checkWindow validates a proposed availability window against the doctor's
// other windows for the same weekday, skipping excludeID on update.
func checkWindow(others []*Availability, start, end TimeOfDay, excludeID uuid.UUID) error {
	if start >= end {
		return ErrInvalidRange
	}
	proposed := ClockRange{Start: start, End: end}
	for _, w := range others {
		if excludeID != uuid.Nil && w.ID == excludeID {
			continue
		}
		if w.Range().Overlaps(proposed) {
			return ErrOverlap
		}
	}
	return nil
}

// generateDaySlots emits one slot per slotDuration increment of each window,
// anchored to date, in chronological order. A slot is unavailable when its
// half-open interval overlaps any booked appointment. Slots that would end
// past the window's end are not emitted.
func generateDaySlots(windows []*Availability, booked []*Appointment, date time.Time, slotDuration time.Duration) []TimeSlot {
	sorted := make([]*Availability, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})

	slots := []TimeSlot{}
	for _, w := range sorted {
		for at := w.StartTime; at.Add(slotDuration) <= w.EndTime; at = at.Add(slotDuration) {
			slotStart := at.At(date)
			slot := Interval{Start: slotStart, End: slotStart.Add(slotDuration)}
			slots = append(slots, TimeSlot{
				StartTime: slotStart,
				Available: findConflict(booked, slot, uuid.Nil) == nil,
			})
		}
	}
	return slots
}
