package sequence

import "errors"

var (
	// ErrNotFound is returned when an enrollment, campaign, or contact
	// does not exist.
	ErrNotFound = errors.New("sequence: not found")

	// ErrAlreadyEnrolled is returned when the contact already has an
	// active enrollment in the same campaign.
	ErrAlreadyEnrolled = errors.New("sequence: contact already enrolled in campaign")

	// ErrTerminal is returned when a mutation targets a completed or
	// unsubscribed enrollment.
	ErrTerminal = errors.New("sequence: enrollment is terminal")

	// ErrPaused is returned when an advance targets a paused enrollment.
	ErrPaused = errors.New("sequence: enrollment is paused")

	// ErrNotPaused is returned when resuming an enrollment that is not
	// paused.
	ErrNotPaused = errors.New("sequence: enrollment is not paused")

	// ErrStepAlreadySent is returned when the step due for sending has
	// already been sent, usually because a concurrent advance won the
	// compare-and-swap.
	ErrStepAlreadySent = errors.New("sequence: step already sent")

	// ErrInvalidTransition is returned when the cursor compare-and-swap
	// fails: the enrollment moved underneath the caller.
	ErrInvalidTransition = errors.New("sequence: invalid cursor transition")

	// ErrNoSteps is returned when enrolling into a campaign with no
	// sequence steps.
	ErrNoSteps = errors.New("sequence: campaign has no steps")
)

// TransportError wraps a delivery failure from the sender. The enrollment
// is left untouched so the next tick retries the same step.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "sequence: transport failure: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
