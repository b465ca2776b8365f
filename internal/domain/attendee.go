package domain

import (
	"fmt"
	"time"
)

// Attendee is one registered person for one event.
type Attendee struct {
	ID                   string     `json:"id"`
	EventID              string     `json:"event_id"`
	Name                 string     `json:"name"`
	IdentificationNumber string     `json:"identification_number"`
	StaffID              string     `json:"staff_id,omitempty"`
	TableNumber          *int       `json:"table_number,omitempty"`
	SeatNumber           *int       `json:"seat_number,omitempty"`
	TableAssignment      string     `json:"table_assignment,omitempty"`
	CheckedIn            bool       `json:"checked_in"`
	CheckInTime          *time.Time `json:"check_in_time,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableInfo renders the seating hint shown to the door operator.
// A structured table/seat pair wins over the freeform assignment string.
func (a Attendee) TableInfo() string {
	if a.TableNumber != nil {
		if a.SeatNumber != nil {
			return fmt.Sprintf("Table %d, Seat %d", *a.TableNumber, *a.SeatNumber)
		}
		return fmt.Sprintf("Table %d", *a.TableNumber)
	}

	return a.TableAssignment
}
