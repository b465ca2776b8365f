package domain

import "time"

// FailureReason classifies a negative admission result.
type FailureReason string

const (
	ReasonInvalidFormat    FailureReason = "invalid_format"
	ReasonAttendeeNotFound FailureReason = "attendee_not_found"
	ReasonWrongEvent       FailureReason = "wrong_event"
	ReasonAlreadyCheckedIn FailureReason = "already_checked_in"
	ReasonDirectoryError   FailureReason = "directory_error"
)

// ScanRecord is one audited resolution attempt.
type ScanRecord struct {
	ID         uint          `json:"id"`
	EventID    string        `json:"event_id"`
	AttendeeID string        `json:"attendee_id,omitempty"`
	Kind       string        `json:"kind"`
	Success    bool          `json:"success"`
	Reason     FailureReason `json:"reason,omitempty"`
	MatchCount int           `json:"match_count"`
	CreatedAt  time.Time     `json:"created_at"`
}

// CheckInOutcome is the result of one admission attempt. It is a plain value:
// a failed check-in is an expected outcome, not a fault.
type CheckInOutcome struct {
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	Reason    FailureReason `json:"reason,omitempty"`
	Attendee  *Attendee     `json:"attendee,omitempty"`
	TableInfo string        `json:"table_info,omitempty"`
}
