package jobs

import (
	"context"
	"time"

	"eventify/internal/logger"
)

const DefaultCheckInterval = 30 * time.Second

// Expirer cancels pending bookings older than maxAge.
type Expirer interface {
	ExpirePending(ctx context.Context, maxAge time.Duration) (int, error)
}

// BookingExpirationJob releases the seats of bookings that were never paid
type BookingExpirationJob struct {
	expirer  Expirer
	timeout  time.Duration
	interval time.Duration
}

// NewBookingExpirationJob creates a new booking expiration job
func NewBookingExpirationJob(expirer Expirer, timeout, interval time.Duration) *BookingExpirationJob {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &BookingExpirationJob{
		expirer:  expirer,
		timeout:  timeout,
		interval: interval,
	}
}

// Run checks for expired bookings immediately and then on every tick until
// ctx is done.
func (j *BookingExpirationJob) Run(ctx context.Context) {
	logger.Get().Info("Starting booking expiration job", "check_interval", j.interval, "timeout", j.timeout)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.checkExpiredBookings(ctx)
	for {
		select {
		case <-ticker.C:
			j.checkExpiredBookings(ctx)
		case <-ctx.Done():
			logger.Get().Info("Booking expiration job stopped")
			return
		}
	}
}

func (j *BookingExpirationJob) checkExpiredBookings(ctx context.Context) {
	n, err := j.expirer.ExpirePending(ctx, j.timeout)
	if err != nil {
		logger.Get().Error("Failed to expire bookings", "error", err)
		return
	}
	if n == 0 {
		logger.Get().Debug("No expired bookings found")
		return
	}
	logger.Get().Info("Expired pending bookings", "count", n)
}
