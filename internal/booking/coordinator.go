// Package booking implements the Booking Coordinator: the reservation
// state machine plus the per-room critical section that makes
// create/update/approve/cancel serializable with respect to a single
// room.
package booking

import (
	"context"
	"sync"
	"time"

	"room-reservation-api/internal/apperr"
	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/events"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/policy"
	"room-reservation-api/internal/store"
)

const maxTransactionRetries = 2

// Coordinator owns the room-mutex map and orchestrates every mutation to
// reservation state.
type Coordinator struct {
	store   store.Store
	policy  *policy.Engine
	clock   clock.Clock
	bus     *events.Bus
	mapMu   sync.Mutex
	roomMus map[int64]*sync.Mutex
}

func NewCoordinator(st store.Store, eng *policy.Engine, clk clock.Clock, bus *events.Bus) *Coordinator {
	return &Coordinator{
		store:   st,
		policy:  eng,
		clock:   clk,
		bus:     bus,
		roomMus: make(map[int64]*sync.Mutex),
	}
}

// roomLock returns the mutex for roomID, creating it if this is the
// first time the room has been touched. Mutexes are never removed for
// the lifetime of the process: bounded by room count, simpler than
// reference counting.
func (c *Coordinator) roomLock(roomID int64) *sync.Mutex {
	c.mapMu.Lock()
	defer c.mapMu.Unlock()
	m, ok := c.roomMus[roomID]
	if !ok {
		m = &sync.Mutex{}
		c.roomMus[roomID] = m
	}
	return m
}

// WithRoomLock acquires roomID's critical section, honoring ctx's
// deadline while waiting, and releases it once fn returns. Exported so
// the Lifecycle Scheduler's bulk jobs serialize their mutations of a
// room's reservations with this same mutex, not just request-path
// Create/Update/Approve/Reject/Cancel. Without it, a scheduler tick and
// a concurrent request could both pass their own conflict check against
// disjoint repeatable-read snapshots and both commit.
func (c *Coordinator) WithRoomLock(ctx context.Context, roomID int64, fn func() error) error {
	return c.withRoomLock(ctx, roomID, fn)
}

// withRoomLock acquires the room's critical section, honoring ctx's
// deadline while waiting, and releases it once fn returns. If the
// deadline fires first, the helper goroutine releases the mutex itself
// once its pending Lock finally succeeds.
func (c *Coordinator) withRoomLock(ctx context.Context, roomID int64, fn func() error) error {
	mu := c.roomLock(roomID)
	acquired := make(chan struct{})
	abandoned := make(chan struct{})
	go func() {
		mu.Lock()
		select {
		case acquired <- struct{}{}:
		case <-abandoned:
			mu.Unlock()
		}
	}()
	select {
	case <-acquired:
	case <-ctx.Done():
		close(abandoned)
		return apperr.New(apperr.DeadlineExceeded, "timed out waiting for room lock")
	}
	defer mu.Unlock()
	return fn()
}

// CreateInput is the validated command for a new reservation.
type CreateInput struct {
	RequesterID int64
	RoomID      int64
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
}

// Create runs the booking algorithm: policy check outside the lock,
// then conflict check, status decision, and persistence inside the
// room's critical section and a repeatable-read transaction.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (*models.Reservation, error) {
	requester, err := c.store.GetUser(ctx, in.RequesterID)
	if err != nil {
		return nil, err
	}
	room, err := c.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if v := c.policy.Evaluate(requester, room, in.StartAt, in.EndAt, now); v.Failed() {
		return nil, violationError(v)
	}

	var created *models.Reservation
	err = c.withRoomLock(ctx, in.RoomID, func() error {
		return c.retryStorage(ctx, func() error {
			return c.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				freshRoom, err := tx.GetRoom(ctx, in.RoomID)
				if err != nil {
					return err
				}
				if !freshRoom.IsActive() {
					return apperr.New(apperr.PolicyViolation, "room is no longer active").
						WithDetails(map[string]any{"reason": string(policy.ReasonRoomInactive)})
				}

				conflicts, err := tx.Overlapping(ctx, in.RoomID, in.StartAt, in.EndAt, nil)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					return apperr.New(apperr.Conflict, "interval overlaps an existing reservation").
						WithDetails(map[string]any{"conflictingIds": conflictIDs(conflicts)})
				}

				status := policy.InitialStatus(requester.Role, in.EndAt.Sub(in.StartAt))
				res := &models.Reservation{
					RoomID:      in.RoomID,
					UserID:      in.RequesterID,
					Title:       in.Title,
					Description: in.Description,
					StartAt:     in.StartAt,
					EndAt:       in.EndAt,
					Status:      status,
				}
				if status == models.StatusConfirmed {
					res.ApprovedBy = &in.RequesterID
					approvedAt := now
					res.ApprovedAt = &approvedAt
				}
				if err := tx.CreateReservation(ctx, res); err != nil {
					return err
				}
				created = res
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}

	c.bus.Publish(events.ReservationCreated, created)
	if created.Status == models.StatusConfirmed {
		c.bus.Publish(events.ReservationConfirmed, created)
	}
	return created, nil
}

// UpdateInput describes a partial edit to startAt/endAt/title/description.
type UpdateInput struct {
	ReservationID int64
	ActorID       int64
	ActorRole     models.UserRole
	Title         *string
	Description   *string
	StartAt       *time.Time
	EndAt         *time.Time
}

// Update applies a partial edit: a non-admin changing the
// interval resets the reservation to PENDING and clears approval,
// re-validating the new interval against policy.
func (c *Coordinator) Update(ctx context.Context, in UpdateInput) (*models.Reservation, error) {
	existing, err := c.store.GetReservation(ctx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, apperr.New(apperr.TerminalState, "reservation is in a terminal state")
	}
	if !canActOnReservation(in.ActorID, in.ActorRole, existing) {
		return nil, apperr.New(apperr.Forbidden, "not permitted to modify this reservation")
	}

	newStart, newEnd := existing.StartAt, existing.EndAt
	if in.StartAt != nil {
		newStart = *in.StartAt
	}
	if in.EndAt != nil {
		newEnd = *in.EndAt
	}
	intervalChanged := !newStart.Equal(existing.StartAt) || !newEnd.Equal(existing.EndAt)

	requester, err := c.store.GetUser(ctx, existing.UserID)
	if err != nil {
		return nil, err
	}
	room, err := c.store.GetRoom(ctx, existing.RoomID)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if intervalChanged {
		if v := c.policy.Evaluate(requester, room, newStart, newEnd, now); v.Failed() {
			return nil, violationError(v)
		}
	}

	var updated *models.Reservation
	err = c.withRoomLock(ctx, existing.RoomID, func() error {
		return c.retryStorage(ctx, func() error {
			return c.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				res, err := tx.GetReservationForUpdate(ctx, in.ReservationID)
				if err != nil {
					return err
				}
				if res.Status.IsTerminal() {
					return apperr.New(apperr.TerminalState, "reservation is in a terminal state")
				}
				if intervalChanged {
					freshRoom, err := tx.GetRoom(ctx, res.RoomID)
					if err != nil {
						return err
					}
					if !freshRoom.IsActive() {
						return apperr.New(apperr.PolicyViolation, "room is no longer active").
							WithDetails(map[string]any{"reason": string(policy.ReasonRoomInactive)})
					}
					conflicts, err := tx.Overlapping(ctx, res.RoomID, newStart, newEnd, &res.ID)
					if err != nil {
						return err
					}
					if len(conflicts) > 0 {
						return apperr.New(apperr.Conflict, "interval overlaps an existing reservation").
							WithDetails(map[string]any{"conflictingIds": conflictIDs(conflicts)})
					}
					res.StartAt = newStart
					res.EndAt = newEnd
					if in.ActorRole != models.RoleAdmin {
						res.Status = models.StatusPending
						res.ApprovedBy = nil
						res.ApprovedAt = nil
					}
				}
				if in.Title != nil {
					res.Title = *in.Title
				}
				if in.Description != nil {
					res.Description = *in.Description
				}
				if err := tx.UpdateReservation(ctx, res); err != nil {
					return err
				}
				updated = res
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Approve transitions a PENDING reservation to CONFIRMED, re-checking
// for conflicts that may have appeared since creation.
func (c *Coordinator) Approve(ctx context.Context, reservationID, approverID int64, approverRole models.UserRole) (*models.Reservation, error) {
	if !approverRole.CanApprove() {
		return nil, apperr.New(apperr.Forbidden, "role may not approve reservations")
	}
	existing, err := c.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if existing.Status == models.StatusConfirmed {
		// Approving an already-confirmed reservation is a no-op, not
		// an error: idempotent on repeat calls.
		return existing, nil
	}
	if existing.Status != models.StatusPending {
		return nil, apperr.New(apperr.TerminalState, "only pending reservations can be approved")
	}

	now := c.clock.Now()
	var approved *models.Reservation
	err = c.withRoomLock(ctx, existing.RoomID, func() error {
		return c.retryStorage(ctx, func() error {
			return c.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				res, err := tx.GetReservationForUpdate(ctx, reservationID)
				if err != nil {
					return err
				}
				if res.Status == models.StatusConfirmed {
					approved = res
					return nil
				}
				if res.Status != models.StatusPending {
					return apperr.New(apperr.TerminalState, "only pending reservations can be approved")
				}
				conflicts, err := tx.Overlapping(ctx, res.RoomID, res.StartAt, res.EndAt, &res.ID)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					return apperr.New(apperr.Conflict, "interval overlaps an existing reservation").
						WithDetails(map[string]any{"conflictingIds": conflictIDs(conflicts)})
				}
				res.Status = models.StatusConfirmed
				res.ApprovedBy = &approverID
				approvedAt := now
				res.ApprovedAt = &approvedAt
				if err := tx.UpdateReservation(ctx, res); err != nil {
					return err
				}
				approved = res
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	c.bus.Publish(events.ReservationConfirmed, approved)
	return approved, nil
}

// Reject transitions a PENDING reservation to CANCELLED with a mandatory
// reason.
func (c *Coordinator) Reject(ctx context.Context, reservationID, approverID int64, approverRole models.UserRole, reason string) (*models.Reservation, error) {
	if !approverRole.CanApprove() {
		return nil, apperr.New(apperr.Forbidden, "role may not reject reservations")
	}
	if reason == "" {
		return nil, apperr.New(apperr.Validation, "rejection reason is required")
	}
	existing, err := c.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.StatusPending {
		return nil, apperr.New(apperr.TerminalState, "only pending reservations can be rejected")
	}

	var rejected *models.Reservation
	err = c.withRoomLock(ctx, existing.RoomID, func() error {
		return c.retryStorage(ctx, func() error {
			return c.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				res, err := tx.GetReservationForUpdate(ctx, reservationID)
				if err != nil {
					return err
				}
				if res.Status != models.StatusPending {
					return apperr.New(apperr.TerminalState, "only pending reservations can be rejected")
				}
				res.Status = models.StatusCancelled
				res.CancellationReason = reason
				if err := tx.UpdateReservation(ctx, res); err != nil {
					return err
				}
				rejected = res
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	c.bus.Publish(events.ReservationRejected, rejected)
	return rejected, nil
}

// Cancel transitions a PENDING or CONFIRMED reservation to CANCELLED,
// enforcing the cancellation timing rule: a non-privileged actor must
// cancel at least two hours before the start, and must give a reason
// once the reservation is already underway.
func (c *Coordinator) Cancel(ctx context.Context, reservationID, actorID int64, actorRole models.UserRole, reason string) (*models.Reservation, error) {
	existing, err := c.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if existing.Status.IsTerminal() {
		return nil, apperr.New(apperr.TerminalState, "reservation is in a terminal state")
	}
	if !canActOnReservation(actorID, actorRole, existing) {
		return nil, apperr.New(apperr.Forbidden, "not permitted to cancel this reservation")
	}

	now := c.clock.Now()
	isPrivileged := actorRole == models.RoleAdmin || actorRole == models.RoleManager
	if !isPrivileged {
		if existing.StartAt.Sub(now) < 2*time.Hour && now.Before(existing.StartAt) {
			return nil, apperr.New(apperr.PolicyViolation, "reservation starts too soon to cancel").
				WithDetails(map[string]any{"reason": "CANCELLATION_TOO_LATE"})
		}
		if !now.Before(existing.StartAt) && reason == "" {
			return nil, apperr.New(apperr.Validation, "a reason is required to cancel a reservation already underway")
		}
	}

	var cancelled *models.Reservation
	err = c.withRoomLock(ctx, existing.RoomID, func() error {
		return c.retryStorage(ctx, func() error {
			return c.store.WithinTx(ctx, func(ctx context.Context, tx store.Store) error {
				res, err := tx.GetReservationForUpdate(ctx, reservationID)
				if err != nil {
					return err
				}
				if res.Status.IsTerminal() {
					return apperr.New(apperr.TerminalState, "reservation is in a terminal state")
				}
				res.Status = models.StatusCancelled
				res.CancellationReason = reason
				if err := tx.UpdateReservation(ctx, res); err != nil {
					return err
				}
				cancelled = res
				return nil
			})
		})
	})
	if err != nil {
		return nil, err
	}
	c.bus.Publish(events.ReservationCancelled, cancelled)
	return cancelled, nil
}

// canActOnReservation reports whether actor may modify/cancel res: the
// requester themself, or an admin/manager.
func canActOnReservation(actorID int64, role models.UserRole, res *models.Reservation) bool {
	return actorID == res.UserID || role == models.RoleAdmin || role == models.RoleManager
}

// violationError maps a policy violation to its error kind. A
// department-scope failure is a FORBIDDEN authorization error; every
// other rule failure is a POLICY_VIOLATION.
func violationError(v policy.Violation) *apperr.Error {
	kind := apperr.PolicyViolation
	if v.Reason == policy.ReasonCrossDepartment {
		kind = apperr.Forbidden
	}
	return apperr.New(kind, "reservation violates policy").
		WithDetails(map[string]any{"reason": string(v.Reason)})
}

func conflictIDs(reservations []models.Reservation) []int64 {
	ids := make([]int64, len(reservations))
	for i, r := range reservations {
		ids[i] = r.ID
	}
	return ids
}

// retryStorage retries a transient storage failure up to
// maxTransactionRetries times before surfacing STORAGE_UNAVAILABLE.
// Non-storage errors (policy, conflict, validation) are never retried.
func (c *Coordinator) retryStorage(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxTransactionRetries; attempt++ {
		if ctx.Err() != nil {
			return apperr.New(apperr.DeadlineExceeded, "deadline exceeded before transaction completed")
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if apperr.KindOf(err) != apperr.StorageUnavailable {
			return err
		}
	}
	return lastErr
}
