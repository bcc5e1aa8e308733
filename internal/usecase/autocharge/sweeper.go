// Package autocharge charges the remainder of bookings whose customer never
// confirmed before the auto-charge deadline.
package autocharge

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/beauty-meet/internal/domain/booking"
	"github.com/BruksfildServices01/beauty-meet/internal/lock"
	"github.com/BruksfildServices01/beauty-meet/internal/usecase/booking"
)

const (
	DefaultBatchSize = 25
	lockKey          = "autocharge:sweep"
	lockTTL          = 5 * time.Minute
)

// Charger is the part of the booking engine a sweep needs.
type Charger interface {
	ChargeRemainder(ctx context.Context, a booking.Actor, bookingID string) (*booking.Result, error)
}

type ItemResult struct {
	BookingID string `json:"booking_id"`
	Charged   bool   `json:"charged"`
	Error     string `json:"error,omitempty"`
}

type Report struct {
	// Skipped is set when another replica held the sweep lock.
	Skipped bool         `json:"skipped"`
	Scanned int          `json:"scanned"`
	Charged int          `json:"charged"`
	Failed  int          `json:"failed"`
	Items   []ItemResult `json:"items"`
}

type Sweeper struct {
	repo    domain.Repository
	charger Charger
	locker  lock.Locker
	batch   int
	log     *zap.Logger
	now     func() time.Time
}

// NewSweeper builds a sweeper. locker may be nil when a single replica
// runs the job.
func NewSweeper(repo domain.Repository, charger Charger, locker lock.Locker, batch int, log *zap.Logger) *Sweeper {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Sweeper{
		repo:    repo,
		charger: charger,
		locker:  locker,
		batch:   batch,
		log:     log.Named("autocharge"),
		now:     time.Now,
	}
}

// Run charges one batch of due bookings, oldest deadline first. A failed
// booking is reported and the sweep moves on.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, lockKey, lockTTL)
		if errors.Is(err, lock.ErrNotAcquired) {
			s.log.Info("sweep already running elsewhere")
			return &Report{Skipped: true}, nil
		}
		if err != nil {
			return nil, err
		}
		defer release()
	}

	due, err := s.repo.ListDueForAutoCharge(ctx, s.now(), s.batch)
	if err != nil {
		return nil, err
	}

	report := &Report{Scanned: len(due), Items: make([]ItemResult, 0, len(due))}
	for _, b := range due {
		if ctx.Err() != nil {
			break
		}

		item := ItemResult{BookingID: b.ID}
		res, err := s.charger.ChargeRemainder(ctx, booking.System(), b.ID)
		switch {
		case err != nil:
			item.Error = err.Error()
			report.Failed++
			s.log.Warn("auto-charge failed", zap.String("booking_id", b.ID), zap.Error(err))
		case res.Charge != nil && res.Charge.Charged:
			item.Charged = true
			report.Charged++
		}
		report.Items = append(report.Items, item)
	}

	s.log.Info("sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("charged", report.Charged),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
