package validation

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/fieldservice-api/models"
)

// ErrInvalidTransition is returned when a transition skips statuses or
// does not change the status.
var ErrInvalidTransition = errors.New("status may only move one step forward or backward")

// TransitionError is returned when a forward transition is blocked by
// unmet preconditions.
type TransitionError struct {
	From   models.Status
	To     models.Status
	Result Result
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move from %s to %s: %d unmet requirement(s)", e.From, e.To, len(e.Result.Warnings))
}

// CheckTransition decides whether an entity may move from one status to
// another. Backward steps are always allowed. Forward steps into the
// threshold status or beyond run validate and are rejected with a
// *TransitionError when it reports warnings.
func CheckTransition(from, to models.Status, validate func() Result) error {
	fromIdx, toIdx := from.Index(), to.Index()
	if fromIdx < 0 {
		return fmt.Errorf("%w: unknown current status %q", ErrInvalidTransition, from)
	}
	if toIdx < 0 {
		return fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, to)
	}

	switch toIdx - fromIdx {
	case -1:
		return nil
	case 1:
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	if !to.AtOrBeyondThreshold() {
		return nil
	}
	if result := validate(); !result.Valid {
		return &TransitionError{From: from, To: to, Result: result}
	}
	return nil
}

// Live evaluates validate only when status is at or beyond the threshold.
// The second return value reports whether validation ran.
func Live(status models.Status, validate func() Result) (Result, bool) {
	if !status.AtOrBeyondThreshold() {
		return newResult(nil), false
	}
	return validate(), true
}
