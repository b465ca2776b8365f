package dao

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ScanRecord is the audit row written for every resolution attempt,
// successful or not.
type ScanRecord struct {
	ID         uint   `gorm:"primaryKey"`
	EventID    string `gorm:"not null;index"`
	AttendeeID string
	Kind       string `gorm:"not null"` // "structured" or "freeform"
	Success    bool   `gorm:"not null"`
	Reason     string
	MatchCount int

	CreatedAt time.Time `gorm:"not null"`
}

func (ScanRecord) TableName() string {
	return "scan_records"
}

type ScanRecordDAO struct {
	db *gorm.DB
}

func NewScanRecordDAO(db *gorm.DB) *ScanRecordDAO {
	return &ScanRecordDAO{
		db: db,
	}
}

func (d *ScanRecordDAO) Insert(ctx context.Context, record ScanRecord) (ScanRecord, error) {
	result := d.db.WithContext(ctx).Create(&record)
	if result.Error != nil {
		return ScanRecord{}, result.Error
	}

	return record, nil
}

func (d *ScanRecordDAO) ListByEvent(ctx context.Context, eventID string, limit int) ([]ScanRecord, error) {
	var records []ScanRecord

	result := d.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at desc").
		Limit(limit).
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}

	return records, nil
}
