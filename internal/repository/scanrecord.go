package repository

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/repository/dao"
)

type ScanRecordDAO interface {
	Insert(ctx context.Context, record dao.ScanRecord) (dao.ScanRecord, error)
	ListByEvent(ctx context.Context, eventID string, limit int) ([]dao.ScanRecord, error)
}

type ScanRecordRepository struct {
	dao ScanRecordDAO
}

func NewScanRecordRepository(dao ScanRecordDAO) *ScanRecordRepository {
	return &ScanRecordRepository{
		dao: dao,
	}
}

// Record writes the audit row for one resolution attempt.
func (r *ScanRecordRepository) Record(ctx context.Context, eventID, attendeeID, kind string, outcome domain.CheckInOutcome, matchCount int) error {
	_, err := r.dao.Insert(ctx, dao.ScanRecord{
		EventID:    eventID,
		AttendeeID: attendeeID,
		Kind:       kind,
		Success:    outcome.Success,
		Reason:     string(outcome.Reason),
		MatchCount: matchCount,
	})
	if err != nil {
		return fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return nil
}

func (r *ScanRecordRepository) ListByEvent(ctx context.Context, eventID string, limit int) ([]domain.ScanRecord, error) {
	found, err := r.dao.ListByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListByEvent -> %w", err)
	}

	records := make([]domain.ScanRecord, len(found))
	for i, rec := range found {
		records[i] = domain.ScanRecord{
			ID:         rec.ID,
			EventID:    rec.EventID,
			AttendeeID: rec.AttendeeID,
			Kind:       rec.Kind,
			Success:    rec.Success,
			Reason:     domain.FailureReason(rec.Reason),
			MatchCount: rec.MatchCount,
			CreatedAt:  rec.CreatedAt,
		}
	}

	return records, nil
}
