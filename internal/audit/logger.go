package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/beauty-meet/internal/models"
)

type Writer interface {
	Write(ctx context.Context, entry *models.AuditLog) error
}

type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Write(ctx context.Context, entry *models.AuditLog) error {
	return l.db.WithContext(ctx).Create(entry).Error
}

func entryFor(ev Event) *models.AuditLog {
	var metaJSON string
	if ev.Metadata != nil {
		if b, err := json.Marshal(ev.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	return &models.AuditLog{
		BookingID: ev.BookingID,
		Actor:     ev.Actor,
		Action:    ev.Action,
		Metadata:  metaJSON,
	}
}

type Filter struct {
	BookingID string
	Action    string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

type Reader interface {
	List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error)
}

// List returns matching entries, newest first, and the unpaged total.
func (l *Logger) List(ctx context.Context, f Filter) ([]models.AuditLog, int64, error) {
	q := l.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.BookingID != "" {
		q = q.Where("booking_id = ?", f.BookingID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
