package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/scan"
)

var (
	ErrAttendeeExists = repository.ErrAttendeeExists
	ErrEventNotFound  = repository.ErrEventNotFound
)

const ticketPNGSize = 256

type RegistrationAttendeeRepository interface {
	Create(ctx context.Context, attendee domain.Attendee) (domain.Attendee, error)
	FindByID(ctx context.Context, id string) (domain.Attendee, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Attendee, error)
	ResetCheckIn(ctx context.Context, id string) error
}

type RegistrationEventRepository interface {
	FindByID(ctx context.Context, id string) (domain.Event, error)
}

// RegistrationService creates attendee records and issues their QR tickets.
type RegistrationService struct {
	repo      RegistrationAttendeeRepository
	eventRepo RegistrationEventRepository
}

func NewRegistrationService(repo RegistrationAttendeeRepository, eventRepo RegistrationEventRepository) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		eventRepo: eventRepo,
	}
}

// Register creates the attendee and returns the record plus the QR ticket PNG
// encoding its structured payload.
func (s *RegistrationService) Register(ctx context.Context, attendee domain.Attendee) (domain.Attendee, []byte, error) {
	if _, err := s.eventRepo.FindByID(ctx, attendee.EventID); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return domain.Attendee{}, nil, ErrEventNotFound
		}

		return domain.Attendee{}, nil, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	attendee.ID = uuid.NewString()
	attendee.CheckedIn = false
	attendee.CheckInTime = nil

	// Encode before creating: a display name the pipe format cannot carry
	// must be rejected without leaving a record behind.
	payload, err := scan.Encode(attendee.ID, attendee.EventID, attendee.Name)
	if err != nil {
		return domain.Attendee{}, nil, fmt.Errorf("scan.Encode -> %w", err)
	}

	created, err := s.repo.Create(ctx, attendee)
	if err != nil {
		return domain.Attendee{}, nil, err
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, ticketPNGSize)
	if err != nil {
		return domain.Attendee{}, nil, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return created, png, nil
}

// Ticket re-renders the QR ticket for an existing attendee.
func (s *RegistrationService) Ticket(ctx context.Context, attendeeID string) ([]byte, error) {
	attendee, err := s.repo.FindByID(ctx, attendeeID)
	if err != nil {
		return nil, err
	}

	payload, err := scan.Encode(attendee.ID, attendee.EventID, attendee.Name)
	if err != nil {
		return nil, fmt.Errorf("scan.Encode -> %w", err)
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, ticketPNGSize)
	if err != nil {
		return nil, fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return png, nil
}

func (s *RegistrationService) ListAttendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	attendees, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return attendees, nil
}

// ResetCheckIn is the administrative override that re-admits a ticket; it is
// not part of the normal scan path.
func (s *RegistrationService) ResetCheckIn(ctx context.Context, attendeeID string) error {
	return s.repo.ResetCheckIn(ctx, attendeeID)
}
