package response

import "github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"

// RegisterAttendeeResponse carries the created record and its QR ticket,
// base64-encoded PNG.
type RegisterAttendeeResponse struct {
	Attendee  domain.Attendee `json:"attendee"`
	TicketPNG string          `json:"ticket_png"`
}
