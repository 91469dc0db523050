// Package scheduler implements the lifecycle scheduler: a
// robfig/cron-driven task runner advancing reservation state and running
// periodic maintenance. Each job kind's concurrency is capped
// independently, since cron/v3 itself only guarantees one entry never
// overlaps itself, not a bounded number of concurrent instances.
package scheduler

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/booking"
	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/events"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/store"
)

const maxConcurrentPerJob = 3

type Scheduler struct {
	cron   *cron.Cron
	store  store.Store
	book   *booking.Coordinator
	clock  clock.Clock
	bus    *events.Bus
	tokens auth.TokenStore
	logger *slog.Logger

	autoApproveAfter time.Duration
	archiveAfter     time.Duration
}

func New(st store.Store, book *booking.Coordinator, clk clock.Clock, bus *events.Bus, tokens auth.TokenStore, logger *slog.Logger, autoApproveAfter, archiveAfter time.Duration) *Scheduler {
	return &Scheduler{
		cron:             cron.New(cron.WithSeconds()),
		store:            st,
		book:             book,
		clock:            clk,
		bus:              bus,
		tokens:           tokens,
		logger:           logger,
		autoApproveAfter: autoApproveAfter,
		archiveAfter:     archiveAfter,
	}
}

func (s *Scheduler) Start() {
	s.addJob("advanceStatuses", "0 */5 * * * *", s.advanceStatuses)
	s.addJob("autoApprove", "0 0 * * * *", s.autoApprove)
	s.addJob("detectNoShows", "0 0 23 * * *", s.detectNoShows)
	s.addJob("archiveOld", "0 0 3 * * SUN", s.archiveOld)
	s.addJob("sendReminders", "0 0 * * * *", s.sendReminders)
	s.cron.Start()
	s.logger.Info("lifecycle scheduler started")
}

func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("lifecycle scheduler stopped")
}

// addJob wraps fn with a bounded-concurrency guard: if maxConcurrentPerJob
// instances of this job name are already running, the new tick is
// dropped rather than queued.
func (s *Scheduler) addJob(name, spec string, fn func(ctx context.Context) error) {
	var inFlight int32
	_, err := s.cron.AddFunc(spec, func() {
		if atomic.AddInt32(&inFlight, 1) > maxConcurrentPerJob {
			atomic.AddInt32(&inFlight, -1)
			s.logger.Warn("dropping tick, job already at concurrency cap", "job", name)
			return
		}
		defer atomic.AddInt32(&inFlight, -1)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "job", name, "elapsed", time.Since(start))
	})
	if err != nil {
		s.logger.Error("failed to register job", "job", name, "error", err)
	}
}

// advanceStatuses moves CONFIRMED -> IN_PROGRESS -> FINISHED as their
// windows open and close. Re-running within the same tick is a no-op
// because the WHERE clause only ever matches reservations still in the
// prior state. Each transition takes the reservation's room's critical
// section so it serializes with request-path mutations of the same room
// instead of racing them under repeatable-read alone.
func (s *Scheduler) advanceStatuses(ctx context.Context) error {
	now := s.clock.Now()
	due, err := s.store.ListDueForTransition(ctx, now)
	if err != nil {
		return err
	}
	for _, r := range due {
		r := r
		var next models.ReservationStatus
		switch {
		case r.Status == models.StatusConfirmed && !now.Before(r.StartAt) && now.Before(r.EndAt):
			next = models.StatusInProgress
		case r.Status == models.StatusInProgress && !now.Before(r.EndAt):
			next = models.StatusFinished
		default:
			continue
		}
		var advanced *models.Reservation
		err := s.book.WithRoomLock(ctx, r.RoomID, func() error {
			return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				fresh, err := tx.GetReservationForUpdate(ctx, r.ID)
				if err != nil {
					return err
				}
				if fresh.Status != r.Status {
					return nil // already advanced by a concurrent tick
				}
				fresh.Status = next
				if err := tx.UpdateReservation(ctx, fresh); err != nil {
					return err
				}
				advanced = fresh
				return nil
			})
		})
		if err != nil {
			s.logger.Error("advanceStatuses: failed to transition reservation", "id", r.ID, "error", err)
			continue
		}
		if advanced == nil {
			continue
		}
		if next == models.StatusInProgress {
			s.bus.Publish(events.ReservationStarted, advanced)
		} else {
			s.bus.Publish(events.ReservationFinished, advanced)
		}
	}
	return nil
}

// autoApprove confirms PENDING reservations older than autoApproveAfter.
// No specific approver is recorded: automatic approval leaves approvedBy
// unset. Re-checks for conflicts under the reservation's room lock,
// since a human approval or a competing booking may have landed in the
// interim.
func (s *Scheduler) autoApprove(ctx context.Context) error {
	now := s.clock.Now()
	cutoff := now.Add(-s.autoApproveAfter)
	stale, err := s.store.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, r := range stale {
		r := r
		var confirmed *models.Reservation
		err := s.book.WithRoomLock(ctx, r.RoomID, func() error {
			return s.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				fresh, err := tx.GetReservationForUpdate(ctx, r.ID)
				if err != nil {
					return err
				}
				if fresh.Status != models.StatusPending {
					return nil
				}
				conflicts, err := tx.Overlapping(ctx, fresh.RoomID, fresh.StartAt, fresh.EndAt, &fresh.ID)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					return nil // leave pending; a human must resolve the conflict
				}
				fresh.Status = models.StatusConfirmed
				fresh.ApprovedBy = nil
				approvedAt := now
				fresh.ApprovedAt = &approvedAt
				if err := tx.UpdateReservation(ctx, fresh); err != nil {
					return err
				}
				confirmed = fresh
				return nil
			})
		})
		if err != nil {
			s.logger.Error("autoApprove: failed to confirm reservation", "id", r.ID, "error", err)
			continue
		}
		if confirmed != nil {
			s.bus.Publish(events.ReservationConfirmed, confirmed)
		}
	}
	return nil
}

// detectNoShows only logs; it never changes reservation state.
func (s *Scheduler) detectNoShows(ctx context.Context) error {
	now := s.clock.Now()
	const scanLimit = 1000
	confirmed, err := s.store.ListReservations(ctx, store.ReservationFilter{
		Status: statusPtr(models.StatusConfirmed),
		Limit:  scanLimit,
	})
	if err != nil {
		return err
	}
	if len(confirmed) == scanLimit {
		s.logger.Warn("no-show scan hit the listing cap, results may be incomplete", "limit", scanLimit)
	}
	for _, r := range confirmed {
		if r.StartAt.Add(30*time.Minute).Before(now) || r.StartAt.Add(30*time.Minute).Equal(now) {
			if r.EndAt.After(now) {
				s.logger.Warn("possible no-show detected", "reservationId", r.ID, "roomId", r.RoomID, "startAt", r.StartAt)
			}
		}
	}
	return nil
}

func (s *Scheduler) archiveOld(ctx context.Context) error {
	now := s.clock.Now()
	cutoff := now.Add(-s.archiveAfter)
	n, err := s.store.ArchiveOlderThan(ctx, cutoff, now)
	if err != nil {
		return err
	}
	s.logger.Info("archived old reservations", "count", n)
	return nil
}

// sendReminders emits ReminderDue once per reservation, guarded by a
// TokenStore marker so repeated hourly ticks never double-send. The
// marker check-and-set runs inside the reservation's room critical
// section.
func (s *Scheduler) sendReminders(ctx context.Context) error {
	now := s.clock.Now()
	horizon := now.Add(24 * time.Hour)
	upcoming, err := s.store.ListUpcomingForReminder(ctx, now, horizon)
	if err != nil {
		return err
	}
	for _, r := range upcoming {
		key := "reminder:" + strconv.FormatInt(r.ID, 10)
		var sent bool
		err := s.book.WithRoomLock(ctx, r.RoomID, func() error {
			var err error
			sent, err = s.tokens.SetIfAbsent(ctx, key, int((25 * time.Hour).Seconds()))
			return err
		})
		if err != nil {
			s.logger.Error("sendReminders: marker check failed", "id", r.ID, "error", err)
			continue
		}
		if !sent {
			continue // already reminded
		}
		s.bus.Publish(events.ReminderDue, r)
	}
	return nil
}

func statusPtr(s models.ReservationStatus) *models.ReservationStatus { return &s }
