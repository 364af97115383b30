package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/carlogapp/carlog-api/models"
)

const maxWriteAttempts = 5

type opKind int

const (
	opWriteVehicle opKind = iota
	opDeleteVehicle
	opWriteMaintenance
	opDeleteMaintenance
	opDeleteMaintenanceByVehicle
)

// pendingOp is a write-through that failed and is waiting for a retry.
type pendingOp struct {
	kind     opKind
	vehicle  models.Vehicle
	entry    models.MaintenanceEntry
	id       string
	cascade  bool
	attempts int
	queuedAt time.Time
}

type pendingQueue struct {
	mu  sync.Mutex
	ops []pendingOp
	max int
}

func newPendingQueue(max int) *pendingQueue {
	return &pendingQueue{max: max}
}

func (q *pendingQueue) push(op pendingOp) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ops) >= q.max {
		// Oldest entry gives way; the snapshot subscription is the
		// backstop for anything lost here.
		q.ops = q.ops[1:]
	}
	if op.queuedAt.IsZero() {
		op.queuedAt = time.Now()
	}
	q.ops = append(q.ops, op)
}

func (q *pendingQueue) drain() []pendingOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	ops := q.ops
	q.ops = nil
	return ops
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// PendingWrites reports how many failed write-throughs are waiting for a
// retry.
func (s *RecordStore) PendingWrites() int { return s.pending.len() }

// RetryPending re-issues every queued write-through once. Writes that fail
// again are re-queued until maxWriteAttempts, then dropped with an
// EventWriteDropped notification. The snapshot subscription re-delivers
// whatever the retries eventually land.
func (s *RecordStore) RetryPending(ctx context.Context) (retried, failed int) {
	ops := s.pending.drain()
	for _, op := range ops {
		err := s.retryOp(ctx, op)
		if err == nil {
			retried++
			continue
		}
		failed++
		op.attempts++
		if op.attempts >= maxWriteAttempts {
			zap.S().Errorw("dropping write after repeated failures",
				"kind", op.kind,
				"attempts", op.attempts,
				"error", err,
			)
			s.publish(Event{Kind: EventWriteDropped, Error: err.Error()})
			continue
		}
		s.pending.push(op)
	}
	return retried, failed
}

func (s *RecordStore) retryOp(ctx context.Context, op pendingOp) error {
	switch op.kind {
	case opWriteVehicle:
		_, err := s.perst.WriteVehicle(ctx, s.identity, op.vehicle)
		return err
	case opDeleteVehicle:
		if err := s.perst.DeleteVehicle(ctx, s.identity, op.id); err != nil {
			return err
		}
		// The cascade travels with the op: a vehicle delete that only
		// lands on a retry must still remove the owned entries, or the
		// snapshot re-delivers them with a dangling vehicleId.
		if op.cascade {
			return s.perst.DeleteMaintenanceByVehicle(ctx, s.identity, op.id)
		}
		return nil
	case opWriteMaintenance:
		_, err := s.perst.WriteMaintenance(ctx, s.identity, op.entry)
		return err
	case opDeleteMaintenance:
		return s.perst.DeleteMaintenance(ctx, s.identity, op.id)
	case opDeleteMaintenanceByVehicle:
		return s.perst.DeleteMaintenanceByVehicle(ctx, s.identity, op.id)
	}
	return nil
}
