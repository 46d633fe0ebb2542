package services

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
	"github.com/taskhub/backend/internal/infrastructure/logger"
)

type reminderKey struct {
	taskID uint
	userID uint
}

type reminderEntry struct {
	key     reminderKey
	fireAt  time.Time
	payload string
	gen     uint64
	seq     uint64
}

// reminderQueue orders entries by fire time, ties broken by schedule order.
type reminderQueue []*reminderEntry

func (q reminderQueue) Len() int { return len(q) }
func (q reminderQueue) Less(i, j int) bool {
	if q[i].fireAt.Equal(q[j].fireAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].fireAt.Before(q[j].fireAt)
}
func (q reminderQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *reminderQueue) Push(x interface{}) { *q = append(*q, x.(*reminderEntry)) }
func (q *reminderQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// ReminderScheduler keeps at most one live reminder per (task, user) key.
// Every key carries a generation counter: Schedule and Cancel bump it, and a
// fire is delivered only if its generation is still current at fire time, so
// a cancel racing a fire can never produce a stale notification.
type ReminderScheduler struct {
	mu      sync.Mutex
	entries map[reminderKey]*reminderEntry
	gens    map[reminderKey]uint64
	queue   reminderQueue
	seq     uint64

	wake chan struct{}
	done chan struct{}

	sink   ports.NotificationSink
	repo   ports.ReminderRepository
	locks  *KeyedMutex
	logger *logger.Logger
	nowFn  func() time.Time
}

type ReminderSchedulerConfig struct {
	Sink   ports.NotificationSink
	Repo   ports.ReminderRepository
	Locks  *KeyedMutex
	Logger *logger.Logger
	Now    func() time.Time
}

func NewReminderScheduler(cfg ReminderSchedulerConfig) *ReminderScheduler {
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	locks := cfg.Locks
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ReminderScheduler{
		entries: make(map[reminderKey]*reminderEntry),
		gens:    make(map[reminderKey]uint64),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		sink:    cfg.Sink,
		repo:    cfg.Repo,
		locks:   locks,
		logger:  cfg.Logger,
		nowFn:   nowFn,
	}
}

// Schedule replaces any existing reminder under the same key. The superseded
// entry stays in the queue and is discarded at pop time by the generation
// check. A fireAt in the past fires on the next dispatcher pass.
func (s *ReminderScheduler) Schedule(taskID, userID uint, fireAt time.Time, payload string) ports.ReminderHandle {
	key := reminderKey{taskID: taskID, userID: userID}

	s.mu.Lock()
	gen := s.gens[key] + 1
	s.gens[key] = gen
	s.seq++
	e := &reminderEntry{key: key, fireAt: fireAt, payload: payload, gen: gen, seq: s.seq}
	s.entries[key] = e
	heap.Push(&s.queue, e)
	s.mu.Unlock()

	s.persist(e)
	s.kick()

	s.logger.Infow("reminder_scheduled", "task_id", taskID, "user_id", userID, "fire_at", fireAt, "generation", gen)
	return ports.ReminderHandle{TaskID: taskID, UserID: userID, FireAt: fireAt, Generation: gen}
}

// Cancel removes the live reminder for the key, if any. Idempotent: a second
// call, or a call after the reminder already fired, returns false.
func (s *ReminderScheduler) Cancel(taskID, userID uint) bool {
	key := reminderKey{taskID: taskID, userID: userID}

	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
		s.gens[key]++
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.unpersist(key, e.gen)
	s.logger.Infow("reminder_cancelled", "task_id", taskID, "user_id", userID)
	return true
}

// FireAt reports the live reminder for the key, if any.
func (s *ReminderScheduler) FireAt(taskID, userID uint) (time.Time, string, bool) {
	key := reminderKey{taskID: taskID, userID: userID}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, "", false
	}
	return e.fireAt, e.payload, true
}

// Reload re-schedules reminders persisted by a previous run.
func (s *ReminderScheduler) Reload(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		s.Schedule(row.TaskID, row.UserID, row.FireAt, row.Payload)
	}
	s.logger.Infow("reminder_reload_ok", "count", len(rows))
	return nil
}

// Run drains the queue until ctx is cancelled. Entries are popped in
// non-decreasing fireAt order; stale generations are dropped silently.
func (s *ReminderScheduler) Run(ctx context.Context) {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		s.mu.Lock()
		wait := time.Duration(-1)
		if s.queue.Len() > 0 {
			next := s.queue[0]
			now := s.nowFn()
			if !next.fireAt.After(now) {
				e := heap.Pop(&s.queue).(*reminderEntry)
				if cur, ok := s.entries[e.key]; !ok || cur != e || s.gens[e.key] != e.gen {
					s.mu.Unlock()
					s.logger.Debugw("reminder_fire_stale", "task_id", e.key.taskID, "user_id", e.key.userID, "generation", e.gen)
					continue
				}
				s.mu.Unlock()
				s.fire(ctx, e)
				continue
			}
			wait = next.fireAt.Sub(now)
		}
		s.mu.Unlock()

		if wait < 0 {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			stopTimer(timer)
			return
		case <-s.wake:
			stopTimer(timer)
		case <-timer.C:
		}
	}
}

// Stop blocks until the dispatcher has exited. Call after cancelling the
// context passed to Run.
func (s *ReminderScheduler) Stop() {
	<-s.done
}

// fire delivers a due reminder. It takes the task's critical section first so
// it cannot interleave with a transition, then re-checks the generation: a
// complete() or cancel() that won the lock has already bumped it.
func (s *ReminderScheduler) fire(ctx context.Context, e *reminderEntry) {
	unlock := s.locks.Lock(taskLockKey(e.key.taskID))
	defer unlock()

	s.mu.Lock()
	if cur, ok := s.entries[e.key]; !ok || cur != e || s.gens[e.key] != e.gen {
		s.mu.Unlock()
		s.logger.Debugw("reminder_fire_stale", "task_id", e.key.taskID, "user_id", e.key.userID, "generation", e.gen)
		return
	}
	delete(s.entries, e.key)
	s.mu.Unlock()

	// One delivery attempt, no retry. A later transition may schedule afresh.
	err := s.sink.Deliver(ctx, e.key.userID, "Task reminder", e.payload,
		domain.NotificationTypeReminder, domain.JSONB{"task_id": e.key.taskID})
	if err != nil {
		s.logger.Errorw("reminder_deliver_failed", "task_id", e.key.taskID, "user_id", e.key.userID, "error", err)
	} else {
		s.logger.Infow("reminder_fired", "task_id", e.key.taskID, "user_id", e.key.userID, "generation", e.gen)
	}
	s.unpersist(e.key, e.gen)
}

func (s *ReminderScheduler) persist(e *reminderEntry) {
	if s.repo == nil {
		return
	}
	row := &domain.Reminder{
		TaskID:     e.key.taskID,
		UserID:     e.key.userID,
		FireAt:     e.fireAt,
		Payload:    e.payload,
		Generation: e.gen,
	}
	if err := s.repo.Upsert(context.Background(), row); err != nil {
		s.logger.Errorw("reminder_persist_failed", "task_id", e.key.taskID, "user_id", e.key.userID, "error", err)
	}
}

// unpersist runs outside s.mu, so a Schedule for the same key may already have
// upserted a newer row. The generation bound keeps the delete from eating it.
func (s *ReminderScheduler) unpersist(key reminderKey, gen uint64) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Delete(context.Background(), key.taskID, key.userID, gen); err != nil {
		s.logger.Errorw("reminder_unpersist_failed", "task_id", key.taskID, "user_id", key.userID, "error", err)
	}
}

func (s *ReminderScheduler) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
