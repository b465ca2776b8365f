package scan

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the three fields of a structured ticket payload.
const Separator = "|"

var ErrInvalidFormat = errors.New("invalid QR code format")

// PayloadKind tells which resolution path a payload takes.
type PayloadKind string

const (
	// KindStructured is the three-field "<attendeeID>|<eventID>|<displayName>"
	// format printed on tickets at registration.
	KindStructured PayloadKind = "structured"
	// KindFreeform is any other string, matched against an attendee's
	// identification number or staff ID.
	KindFreeform PayloadKind = "freeform"
)

// StructuredPayload is a parsed ticket payload. Only AttendeeID is
// authoritative; EventID and DisplayName are advisory and must be re-derived
// from the directory before being trusted.
type StructuredPayload struct {
	AttendeeID  string
	EventID     string
	DisplayName string
}

// Classify decides the resolution path. Any payload containing the separator
// is treated as structured and must then parse cleanly.
func Classify(payload string) PayloadKind {
	if strings.Contains(payload, Separator) {
		return KindStructured
	}

	return KindFreeform
}

// ParseStructured splits a structured payload. A field count other than three
// is rejected before any directory access happens.
func ParseStructured(payload string) (StructuredPayload, error) {
	fields := strings.Split(payload, Separator)
	if len(fields) != 3 {
		return StructuredPayload{}, ErrInvalidFormat
	}

	return StructuredPayload{
		AttendeeID:  fields[0],
		EventID:     fields[1],
		DisplayName: fields[2],
	}, nil
}

// Encode builds the ticket payload written into a QR code at registration.
// The pipe format has no escaping, so fields containing the separator are
// rejected here rather than corrupting every later scan.
func Encode(attendeeID, eventID, displayName string) (string, error) {
	for _, field := range []string{attendeeID, eventID, displayName} {
		if strings.Contains(field, Separator) {
			return "", fmt.Errorf("payload field %q contains %q", field, Separator)
		}
	}
	if attendeeID == "" || eventID == "" {
		return "", errors.New("attendee ID and event ID are required")
	}

	return attendeeID + Separator + eventID + Separator + displayName, nil
}
