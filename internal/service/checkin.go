package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/scan"
)

var (
	ErrAttendeeNotFound = repository.ErrAttendeeNotFound
	ErrCheckInConflict  = repository.ErrCheckInConflict
)

// Stable operator-facing messages. Tests pin these.
const (
	MsgInvalidFormat  = "Invalid QR code format"
	MsgNotFound       = "Attendee not found"
	MsgWrongEvent     = "This ticket is not valid for the selected event"
	MsgDirectoryError = "Check-in failed, please try again"
)

const checkInTimeLayout = "15:04:05 on Jan 2, 2006"

// AttendeeDirectory is the external collaborator the resolver needs: two
// lookups and one atomic commit.
type AttendeeDirectory interface {
	FindByID(ctx context.Context, attendeeID string) (domain.Attendee, error)
	FindByIdentifierOrStaffID(ctx context.Context, value, eventID string) ([]domain.Attendee, error)
	CommitCheckIn(ctx context.Context, attendeeID string, ts time.Time) error
}

// ScanRecorder persists the audit trail. Recording failures are logged, not
// surfaced; they never fail an admission.
type ScanRecorder interface {
	Record(ctx context.Context, eventID, attendeeID, kind string, outcome domain.CheckInOutcome, matchCount int) error
}

// CheckInService executes the admission protocol: classify the payload, look
// the attendee up, enforce event scope and the idempotency guard, then commit
// through a single atomic update. It keeps no state of its own; every failure
// is an outcome value so the scanner can retry immediately.
type CheckInService struct {
	repo     AttendeeDirectory
	recorder ScanRecorder
	now      func() time.Time
}

func NewCheckInService(repo AttendeeDirectory, recorder ScanRecorder) *CheckInService {
	return &CheckInService{
		repo:     repo,
		recorder: recorder,
		now:      time.Now,
	}
}

// Resolve turns a scanned or manually typed payload into an admission
// decision for the selected event.
func (s *CheckInService) Resolve(ctx context.Context, eventID, payload string) domain.CheckInOutcome {
	payload = strings.TrimSpace(payload)
	kind := scan.Classify(payload)

	var (
		attendee   domain.Attendee
		matchCount int
	)

	switch kind {
	case scan.KindStructured:
		parsed, err := scan.ParseStructured(payload)
		if err != nil {
			// Rejected before any directory access.
			return s.record(ctx, eventID, kind, domain.CheckInOutcome{
				Success: false,
				Reason:  domain.ReasonInvalidFormat,
				Message: MsgInvalidFormat,
			}, 0)
		}

		// Only the attendee ID is trusted; the embedded event ID and
		// display name are advisory.
		attendee, err = s.repo.FindByID(ctx, parsed.AttendeeID)
		if err != nil {
			if errors.Is(err, ErrAttendeeNotFound) {
				return s.record(ctx, eventID, kind, domain.CheckInOutcome{
					Success: false,
					Reason:  domain.ReasonAttendeeNotFound,
					Message: MsgNotFound,
				}, 0)
			}

			return s.directoryFailure(ctx, eventID, kind, fmt.Errorf("s.repo.FindByID -> %w", err))
		}
		matchCount = 1

		if attendee.EventID != eventID {
			return s.record(ctx, eventID, kind, domain.CheckInOutcome{
				Success: false,
				Reason:  domain.ReasonWrongEvent,
				Message: MsgWrongEvent,
			}, matchCount)
		}

	case scan.KindFreeform:
		matches, err := s.repo.FindByIdentifierOrStaffID(ctx, payload, eventID)
		if err != nil {
			return s.directoryFailure(ctx, eventID, kind, fmt.Errorf("s.repo.FindByIdentifierOrStaffID -> %w", err))
		}
		if len(matches) == 0 {
			return s.record(ctx, eventID, kind, domain.CheckInOutcome{
				Success: false,
				Reason:  domain.ReasonAttendeeNotFound,
				Message: MsgNotFound,
			}, 0)
		}

		// Identifiers are unique per event, so more than one match is not
		// expected. If it happens anyway the first row wins and the match
		// count lands in the audit record.
		attendee = matches[0]
		matchCount = len(matches)
		// The lookup query is already event-scoped; no separate event check.
	}

	if attendee.CheckedIn {
		return s.record(ctx, eventID, kind, s.alreadyCheckedIn(attendee), matchCount)
	}

	now := s.now()
	if err := s.repo.CommitCheckIn(ctx, attendee.ID, now); err != nil {
		switch {
		case errors.Is(err, ErrCheckInConflict):
			// Lost the race to another scanner between the guard read and
			// the commit. Re-read so the message can carry the real time.
			if refreshed, ferr := s.repo.FindByID(ctx, attendee.ID); ferr == nil {
				attendee = refreshed
			}

			return s.record(ctx, eventID, kind, s.alreadyCheckedIn(attendee), matchCount)
		case errors.Is(err, ErrAttendeeNotFound):
			return s.record(ctx, eventID, kind, domain.CheckInOutcome{
				Success: false,
				Reason:  domain.ReasonAttendeeNotFound,
				Message: MsgNotFound,
			}, matchCount)
		default:
			// The commit may or may not have landed; never guess that it
			// did. Report failure and leave the record as observed.
			return s.directoryFailure(ctx, eventID, kind, fmt.Errorf("s.repo.CommitCheckIn -> %w", err))
		}
	}

	attendee.CheckedIn = true
	attendee.CheckInTime = &now

	tableInfo := attendee.TableInfo()
	message := fmt.Sprintf("Checked in %s", attendee.Name)
	if tableInfo != "" {
		message = fmt.Sprintf("%s (%s)", message, tableInfo)
	}

	outcome := domain.CheckInOutcome{
		Success:   true,
		Message:   message,
		Attendee:  &attendee,
		TableInfo: tableInfo,
	}

	return s.record(ctx, eventID, kind, outcome, matchCount)
}

func (s *CheckInService) alreadyCheckedIn(attendee domain.Attendee) domain.CheckInOutcome {
	message := fmt.Sprintf("%s has already checked in", attendee.Name)
	if attendee.CheckInTime != nil {
		message = fmt.Sprintf("%s at %s", message, attendee.CheckInTime.Format(checkInTimeLayout))
	}

	return domain.CheckInOutcome{
		Success:  false,
		Reason:   domain.ReasonAlreadyCheckedIn,
		Message:  message,
		Attendee: &attendee,
	}
}

func (s *CheckInService) directoryFailure(ctx context.Context, eventID string, kind scan.PayloadKind, err error) domain.CheckInOutcome {
	zap.L().Error("directory call failed during check-in", zap.String("event_id", eventID), zap.Error(err))

	return s.record(ctx, eventID, kind, domain.CheckInOutcome{
		Success: false,
		Reason:  domain.ReasonDirectoryError,
		Message: MsgDirectoryError,
	}, 0)
}

func (s *CheckInService) record(ctx context.Context, eventID string, kind scan.PayloadKind, outcome domain.CheckInOutcome, matchCount int) domain.CheckInOutcome {
	if s.recorder == nil {
		return outcome
	}

	var attendeeID string
	if outcome.Attendee != nil {
		attendeeID = outcome.Attendee.ID
	}

	if err := s.recorder.Record(ctx, eventID, attendeeID, string(kind), outcome, matchCount); err != nil {
		zap.L().Warn("failed to record scan", zap.String("event_id", eventID), zap.Error(err))
	}

	return outcome
}
