package models

import "fmt"

// Status is the lifecycle state of a job or appointment.
// The order of Statuses is significant: transitions only move one step.
type Status string

const (
	StatusOpen       Status = "offen"
	StatusPlanned    Status = "geplant"
	StatusPrepared   Status = "vorbereitet"
	StatusInProgress Status = "in_arbeit"
	StatusCompleted  Status = "erledigt"
	StatusInvoiced   Status = "abgerechnet"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusOpen,
	StatusPlanned,
	StatusPrepared,
	StatusInProgress,
	StatusCompleted,
	StatusInvoiced,
}

// ThresholdStatus is the first status whose preconditions must hold.
const ThresholdStatus = StatusPrepared

// ParseStatus converts s into a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == s {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Index returns the position of s in the lifecycle, or -1 if unknown.
func (s Status) Index() int {
	for i, status := range Statuses {
		if status == s {
			return i
		}
	}
	return -1
}

// Next returns the following status and false at the end of the lifecycle.
func (s Status) Next() (Status, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(Statuses) {
		return "", false
	}
	return Statuses[i+1], true
}

// Previous returns the preceding status and false at the start of the lifecycle.
func (s Status) Previous() (Status, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return Statuses[i-1], true
}

// AtOrBeyondThreshold reports whether s is ThresholdStatus or later.
func (s Status) AtOrBeyondThreshold() bool {
	return s.Index() >= ThresholdStatus.Index()
}
