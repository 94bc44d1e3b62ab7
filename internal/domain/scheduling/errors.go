package scheduling

import "errors"

// Validation outcomes returned by the scheduling engine. Handlers map these
// to HTTP statuses; the engine itself never touches the transport layer.
var (
	// ErrInvalidInput marks malformed date, time or duration payloads.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced appointment or availability
	// window does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotAvailable is returned when a proposed appointment falls outside
	// every availability window for that weekday.
	ErrNotAvailable = errors.New("doctor is not available at this time")

	// ErrConflict is returned when a proposed appointment overlaps an
	// existing appointment for the same doctor.
	ErrConflict = errors.New("appointment time conflicts with an existing appointment")

	// ErrOverlap is returned when a proposed availability window overlaps
	// another window for the same doctor and weekday.
	ErrOverlap = errors.New("availability overlaps an existing availability")

	// ErrInvalidRange is returned when an availability window's end time is
	// not after its start time.
	ErrInvalidRange = errors.New("end time must be after start time")
)
