package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAttendeeNotFound = errors.New("attendee not found")
	ErrAttendeeExists   = errors.New("attendee with this identification already registered for the event")
	ErrCheckInConflict  = errors.New("attendee is already checked in")
)

type Attendee struct {
	ID      string `gorm:"primaryKey"`
	EventID string `gorm:"not null;index;uniqueIndex:uniq_event_idnum;uniqueIndex:uniq_event_staff"`

	Name                 string  `gorm:"not null"`
	IdentificationNumber string  `gorm:"not null;uniqueIndex:uniq_event_idnum"`
	StaffID              *string `gorm:"uniqueIndex:uniq_event_staff"`

	TableNumber     *int
	SeatNumber      *int
	TableAssignment string

	CheckedIn   bool `gorm:"not null;default:false"`
	CheckInTime *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type AttendeeDAO struct {
	db *gorm.DB
}

func NewAttendeeDAO(db *gorm.DB) *AttendeeDAO {
	return &AttendeeDAO{
		db: db,
	}
}

func (d *AttendeeDAO) Insert(ctx context.Context, attendee Attendee) (Attendee, error) {
	result := d.db.WithContext(ctx).Create(&attendee)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return Attendee{}, ErrAttendeeExists
		}

		return Attendee{}, result.Error
	}

	return attendee, nil
}

func (d *AttendeeDAO) FindByID(ctx context.Context, id string) (Attendee, error) {
	var attendee Attendee

	result := d.db.WithContext(ctx).First(&attendee, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Attendee{}, ErrAttendeeNotFound
		}

		return Attendee{}, result.Error
	}

	return attendee, nil
}

// FindByIdentifierOrStaffID matches a manually entered value against either
// identifier column, scoped to one event. Matching is case-sensitive.
func (d *AttendeeDAO) FindByIdentifierOrStaffID(ctx context.Context, value, eventID string) ([]Attendee, error) {
	var attendees []Attendee

	result := d.db.WithContext(ctx).
		Where("event_id = ? AND (identification_number = ? OR staff_id = ?)", eventID, value, value).
		Order("created_at").
		Find(&attendees)
	if result.Error != nil {
		return nil, result.Error
	}

	return attendees, nil
}

// CommitCheckIn flips checked_in exactly once. The conditional UPDATE is the
// compare-and-set two concurrent scanners race on: whoever loses sees zero
// rows affected and gets ErrCheckInConflict.
func (d *AttendeeDAO) CommitCheckIn(ctx context.Context, id string, ts time.Time) error {
	result := d.db.WithContext(ctx).
		Model(&Attendee{}).
		Where("id = ? AND checked_in = ?", id, false).
		Updates(map[string]interface{}{
			"checked_in":    true,
			"check_in_time": ts,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var attendee Attendee
		if err := d.db.WithContext(ctx).First(&attendee, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAttendeeNotFound
			}

			return err
		}

		return ErrCheckInConflict
	}

	return nil
}

// ResetCheckIn is the administrative override outside the normal pipeline.
func (d *AttendeeDAO) ResetCheckIn(ctx context.Context, id string) error {
	result := d.db.WithContext(ctx).
		Model(&Attendee{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"checked_in":    false,
			"check_in_time": nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAttendeeNotFound
	}

	return nil
}

func (d *AttendeeDAO) ListByEvent(ctx context.Context, eventID string) ([]Attendee, error) {
	var attendees []Attendee

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("name").
		Find(&attendees)
	if result.Error != nil {
		return nil, result.Error
	}

	return attendees, nil
}
