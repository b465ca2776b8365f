package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository/dao"
)

var (
	ErrAttendeeNotFound = dao.ErrAttendeeNotFound
	ErrAttendeeExists   = dao.ErrAttendeeExists
	ErrCheckInConflict  = dao.ErrCheckInConflict
)

type AttendeeDAO interface {
	Insert(ctx context.Context, attendee dao.Attendee) (dao.Attendee, error)
	FindByID(ctx context.Context, id string) (dao.Attendee, error)
	FindByIdentifierOrStaffID(ctx context.Context, value, eventID string) ([]dao.Attendee, error)
	CommitCheckIn(ctx context.Context, id string, ts time.Time) error
	ResetCheckIn(ctx context.Context, id string) error
	ListByEvent(ctx context.Context, eventID string) ([]dao.Attendee, error)
}

type AttendeeRepository struct {
	dao AttendeeDAO
}

func NewAttendeeRepository(dao AttendeeDAO) *AttendeeRepository {
	return &AttendeeRepository{
		dao: dao,
	}
}

func (r *AttendeeRepository) Create(ctx context.Context, attendee domain.Attendee) (domain.Attendee, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(attendee))
	if err != nil {
		return domain.Attendee{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *AttendeeRepository) FindByID(ctx context.Context, id string) (domain.Attendee, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Attendee{}, err
	}

	return r.daoToDomain(found), nil
}

func (r *AttendeeRepository) FindByIdentifierOrStaffID(ctx context.Context, value, eventID string) ([]domain.Attendee, error) {
	found, err := r.dao.FindByIdentifierOrStaffID(ctx, value, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIdentifierOrStaffID -> %w", err)
	}

	attendees := make([]domain.Attendee, len(found))
	for i, a := range found {
		attendees[i] = r.daoToDomain(a)
	}

	return attendees, nil
}

func (r *AttendeeRepository) CommitCheckIn(ctx context.Context, id string, ts time.Time) error {
	return r.dao.CommitCheckIn(ctx, id, ts)
}

func (r *AttendeeRepository) ResetCheckIn(ctx context.Context, id string) error {
	return r.dao.ResetCheckIn(ctx, id)
}

func (r *AttendeeRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	found, err := r.dao.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	attendees := make([]domain.Attendee, len(found))
	for i, a := range found {
		attendees[i] = r.daoToDomain(a)
	}

	return attendees, nil
}

func (r *AttendeeRepository) domainToDao(a domain.Attendee) dao.Attendee {
	var staffID *string
	if a.StaffID != "" {
		staffID = &a.StaffID
	}

	return dao.Attendee{
		ID:                   a.ID,
		EventID:              a.EventID,
		Name:                 a.Name,
		IdentificationNumber: a.IdentificationNumber,
		StaffID:              staffID,
		TableNumber:          a.TableNumber,
		SeatNumber:           a.SeatNumber,
		TableAssignment:      a.TableAssignment,
		CheckedIn:            a.CheckedIn,
		CheckInTime:          a.CheckInTime,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func (r *AttendeeRepository) daoToDomain(a dao.Attendee) domain.Attendee {
	var staffID string
	if a.StaffID != nil {
		staffID = *a.StaffID
	}

	return domain.Attendee{
		ID:                   a.ID,
		EventID:              a.EventID,
		Name:                 a.Name,
		IdentificationNumber: a.IdentificationNumber,
		StaffID:              staffID,
		TableNumber:          a.TableNumber,
		SeatNumber:           a.SeatNumber,
		TableAssignment:      a.TableAssignment,
		CheckedIn:            a.CheckedIn,
		CheckInTime:          a.CheckInTime,
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}
