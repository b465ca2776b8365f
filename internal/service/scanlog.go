package service

import (
	"context"
	"fmt"

	"github.com/yizeng/gab/gin/gorm/event-checkin/internal/domain"
)

const (
	defaultScanLogLimit = 50
	maxScanLogLimit     = 200
)

type ScanLogRepository interface {
	ListByEvent(ctx context.Context, eventID string, limit int) ([]domain.ScanRecord, error)
}

// ScanLogService reads the audit trail back for the dashboard.
type ScanLogService struct {
	repo ScanLogRepository
}

func NewScanLogService(repo ScanLogRepository) *ScanLogService {
	return &ScanLogService{
		repo: repo,
	}
}

func (s *ScanLogService) RecentScans(ctx context.Context, eventID string, limit int) ([]domain.ScanRecord, error) {
	if limit <= 0 {
		limit = defaultScanLogLimit
	}
	if limit > maxScanLogLimit {
		limit = maxScanLogLimit
	}

	records, err := s.repo.ListByEvent(ctx, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListByEvent -> %w", err)
	}

	return records, nil
}
