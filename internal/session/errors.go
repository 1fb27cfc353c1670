package session

import "errors"

var (
	// ErrSessionBusy is returned by Show when another survey is already
	// active, hidden, or submitting. Exactly one survey may hold the
	// presentation slot at any instant.
	ErrSessionBusy = errors.New("another survey is already active")

	// ErrNotEligible is returned by Show when the eligibility gate declines.
	// This is a normal negative decision, not a failure.
	ErrNotEligible = errors.New("survey is not eligible to be shown")

	// ErrNotActive is returned by operations that require an active survey.
	ErrNotActive = errors.New("no survey is active")

	// ErrSubmitting is returned when answers or navigation are attempted
	// while a delivery is in flight.
	ErrSubmitting = errors.New("delivery in progress")

	// ErrAnswerRequired is returned by Next when the current question is
	// required and unanswered.
	ErrAnswerRequired = errors.New("current question requires an answer")

	// ErrUnknownQuestion is returned by Answer for a question id the active
	// survey does not contain.
	ErrUnknownQuestion = errors.New("question not in active survey")
)
