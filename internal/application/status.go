package application

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusReviewed    Status = "REVIEWED"
	StatusShortlisted Status = "SHORTLISTED"
	StatusRejected    Status = "REJECTED"
)

// ValidStatuses is the wire enumeration in display order
var ValidStatuses = []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusRejected}

// InvalidStatusError is returned for a status outside ValidStatuses
type InvalidStatusError struct {
	Value   string
	Allowed []Status
}

func (e InvalidStatusError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(allowed, ", "))
}

func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts any casing and returns the canonical uppercase status
func ParseStatus(in string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(in)))
	if !s.Valid() {
		return "", InvalidStatusError{Value: in, Allowed: ValidStatuses}
	}
	return s, nil
}

// StatusFromStored reads a persisted value, anything unknown reads as pending
func StatusFromStored(in string) Status {
	s := Status(strings.ToUpper(strings.TrimSpace(in)))
	if !s.Valid() {
		return StatusPending
	}
	return s
}
