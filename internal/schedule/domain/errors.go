package schedule

import "errors"

var (
	// ErrInvalidInterval indicates a recurrence interval below 1.
	ErrInvalidInterval = errors.New("schedule: interval must be at least 1")
	// ErrInvalidFrequency indicates an unknown recurrence frequency.
	ErrInvalidFrequency = errors.New("schedule: invalid frequency")
	// ErrConflictingEndConditions indicates more than one end condition was supplied.
	ErrConflictingEndConditions = errors.New("schedule: conflicting end conditions")
	// ErrInvalidEndCount indicates a non-positive occurrence count end condition.
	ErrInvalidEndCount = errors.New("schedule: end count must be at least 1")
	// ErrPastDueDate indicates a reschedule to a date already in the past.
	ErrPastDueDate = errors.New("schedule: due date is in the past")
	// ErrInvalidStateTransition indicates an edit against a terminal occurrence.
	ErrInvalidStateTransition = errors.New("schedule: occurrence is in a terminal state")
	// ErrSeriesNotFound indicates an unknown series id.
	ErrSeriesNotFound = errors.New("schedule: series not found")
	// ErrOccurrenceNotFound indicates an unknown occurrence id.
	ErrOccurrenceNotFound = errors.New("schedule: occurrence not found")
	// ErrInvalidPriority indicates an unknown priority value.
	ErrInvalidPriority = errors.New("schedule: invalid priority")
)
