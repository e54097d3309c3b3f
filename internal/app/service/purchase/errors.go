package purchase

import (
	"errors"
	"strings"
)

var (
	// ErrConflict is returned when a create collides with an existing record:
	// a duplicate transaction id, or a Paid purchase already covering the
	// (user, course) pair.
	ErrConflict = errors.New("purchase conflict")

	// ErrNotFound is returned for an unknown purchase or transaction id.
	ErrNotFound = errors.New("purchase not found")

	// ErrStaleTransition is returned when a compare-and-transition lost a
	// race: the stored status no longer equals the expected one. Callers
	// resolve it against the current record; it is never user-visible.
	ErrStaleTransition = errors.New("stale purchase transition")

	// ErrIllegalTransition is returned for a transition out of a terminal
	// status to a different terminal status. The record is never mutated;
	// the contradiction is surfaced for manual review.
	ErrIllegalTransition = errors.New("illegal purchase transition")
)

// isUniqueViolation detects a unique-constraint failure from the postgres
// driver without depending on driver error types.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
