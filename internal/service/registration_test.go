package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/scan"
)

type stubAttendeeRepo struct {
	created []domain.Attendee
	stored  map[string]domain.Attendee
}

func (r *stubAttendeeRepo) Create(_ context.Context, attendee domain.Attendee) (domain.Attendee, error) {
	r.created = append(r.created, attendee)

	return attendee, nil
}

func (r *stubAttendeeRepo) FindByID(_ context.Context, id string) (domain.Attendee, error) {
	a, ok := r.stored[id]
	if !ok {
		return domain.Attendee{}, repository.ErrAttendeeNotFound
	}

	return a, nil
}

func (r *stubAttendeeRepo) ListByEvent(_ context.Context, _ string) ([]domain.Attendee, error) {
	return nil, nil
}

func (r *stubAttendeeRepo) ResetCheckIn(_ context.Context, _ string) error {
	return nil
}

type stubEventRepo struct {
	events map[string]domain.Event
}

func (r *stubEventRepo) FindByID(_ context.Context, id string) (domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return domain.Event{}, repository.ErrEventNotFound
	}

	return e, nil
}

func TestRegistrationService_Register(t *testing.T) {
	t.Run("creates the attendee and issues a decodable ticket", func(t *testing.T) {
		repo := &stubAttendeeRepo{}
		events := &stubEventRepo{events: map[string]domain.Event{
			"evt-1": {ID: "evt-1", Name: "Launch Party"},
		}}
		svc := NewRegistrationService(repo, events)

		created, png, err := svc.Register(context.Background(), domain.Attendee{
			EventID: "evt-1",
			Name:    "Jane Doe",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CheckedIn)
		assert.NotEmpty(t, png)
		require.Len(t, repo.created, 1)

		// The ticket payload must resolve straight back through the scan path.
		payload, err := scan.Encode(created.ID, created.EventID, created.Name)
		require.NoError(t, err)
		parsed, err := scan.ParseStructured(payload)
		require.NoError(t, err)
		assert.Equal(t, created.ID, parsed.AttendeeID)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := NewRegistrationService(&stubAttendeeRepo{}, &stubEventRepo{})

		_, _, err := svc.Register(context.Background(), domain.Attendee{
			EventID: "ghost",
			Name:    "Jane Doe",
		})

		assert.ErrorIs(t, err, ErrEventNotFound)
	})

	t.Run("a name the payload format cannot carry leaves no record", func(t *testing.T) {
		repo := &stubAttendeeRepo{}
		events := &stubEventRepo{events: map[string]domain.Event{
			"evt-1": {ID: "evt-1"},
		}}
		svc := NewRegistrationService(repo, events)

		_, _, err := svc.Register(context.Background(), domain.Attendee{
			EventID: "evt-1",
			Name:    "Jane|Doe",
		})

		require.Error(t, err)
		assert.Empty(t, repo.created)
	})
}

func TestRegistrationService_Ticket(t *testing.T) {
	t.Run("re-renders an existing attendee's ticket", func(t *testing.T) {
		repo := &stubAttendeeRepo{stored: map[string]domain.Attendee{
			"att-1": {ID: "att-1", EventID: "evt-1", Name: "Jane Doe"},
		}}
		svc := NewRegistrationService(repo, &stubEventRepo{})

		png, err := svc.Ticket(context.Background(), "att-1")

		require.NoError(t, err)
		assert.NotEmpty(t, png)
	})

	t.Run("unknown attendee", func(t *testing.T) {
		svc := NewRegistrationService(&stubAttendeeRepo{}, &stubEventRepo{})

		_, err := svc.Ticket(context.Background(), "ghost")

		assert.ErrorIs(t, err, ErrAttendeeNotFound)
	})
}
