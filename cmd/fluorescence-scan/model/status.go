package model

import (
	"fmt"
	"time"
)

// Status is the acquisition state of a fluorescence scan.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists every Status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

// ParseStatus parses a Status. Unknown values are rejected with a
// *ValidationError; they are never coerced.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", &ValidationError{
			Reasons: []string{fmt.Sprintf("unknown status %q", s)},
		}
	}
	return status, nil
}

// Valid indicates if the Status is one of the enumerated statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal indicates if no transitions leave the Status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition indicates if the to Status is reachable from s. Statuses only
// move forward: pending -> running -> {completed, failed}.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusRunning || to.Terminal()
	case StatusRunning:
		return to.Terminal()
	}
	return false
}

// DeriveStatus determines the Status of a scan from its recorded timestamps
// and output file. ISPyB does not persist a status for fluorescence spectra.
func DeriveStatus(start, end *time.Time, scanFile *string) Status {
	switch {
	case start == nil:
		return StatusPending
	case end == nil:
		return StatusRunning
	case scanFile == nil || *scanFile == "":
		return StatusFailed
	default:
		return StatusCompleted
	}
}
