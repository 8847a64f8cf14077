package activities

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an activity id matches no stored row.
	ErrNotFound = errors.New("activity not found")

	// ErrNotOwner is returned when someone other than the plan owner
	// attempts a mutation.
	ErrNotOwner = errors.New("only the plan owner can modify activities")

	// ErrPlanNotFound is returned when the referenced plan does not exist.
	ErrPlanNotFound = errors.New("plan not found")
)

// ValidationError reports malformed or logically inconsistent input on a
// single activity: blank fields, unparseable dates, malformed times, or a
// start instant after the end instant. It is a caller-fault error; the
// message is surfaced to the end user unchanged.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError reports a valid activity whose derived interval overlaps
// another activity in the same plan. ConflictsWith carries the existing
// activity's title for the user-facing message; Title is set only on batch
// checks, where both sides are new.
type ConflictError struct {
	Title         string
	ConflictsWith string
}

func (e ConflictError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("activity conflicts with %q", e.ConflictsWith)
	}
	return fmt.Sprintf("activity %q conflicts with %q", e.Title, e.ConflictsWith)
}

// IsSchedulingError reports whether err is one of the scheduler's typed,
// non-retryable caller-fault errors.
func IsSchedulingError(err error) bool {
	var ve ValidationError
	var ce ConflictError
	return errors.As(err, &ve) || errors.As(err, &ce)
}
