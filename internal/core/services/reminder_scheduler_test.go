package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/taskhub/backend/internal/core/ports"
	"github.com/taskhub/backend/internal/domain"
)

func newRunningScheduler(t *testing.T, sink *recordingSink, repo ports.ReminderRepository) *ReminderScheduler {
	t.Helper()
	s := NewReminderScheduler(ReminderSchedulerConfig{Sink: sink, Repo: repo, Logger: testLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
	})
	return s
}

func TestScheduleFiresOnce(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	s.Schedule(1, 10, time.Now().Add(20*time.Millisecond), "standup in five")

	waitFor(t, 2*time.Second, func() bool { return sink.count() == 1 })
	note := sink.all()[0]
	if note.userID != 10 || note.body != "standup in five" || note.typ != domain.NotificationTypeReminder {
		t.Fatalf("unexpected delivery %+v", note)
	}

	// Fired reminders leave no live entry behind.
	if _, _, ok := s.FireAt(1, 10); ok {
		t.Fatal("entry still live after firing")
	}
	if s.Cancel(1, 10) {
		t.Fatal("cancel after fire should report nothing to cancel")
	}
}

func TestRescheduleReplacesPendingReminder(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	s.Schedule(2, 20, time.Now().Add(time.Hour), "old text")
	s.Schedule(2, 20, time.Now().Add(20*time.Millisecond), "new text")

	waitFor(t, 2*time.Second, func() bool { return sink.count() >= 1 })
	time.Sleep(100 * time.Millisecond)

	notes := sink.all()
	if len(notes) != 1 {
		t.Fatalf("deliveries = %d, want exactly 1", len(notes))
	}
	if notes[0].body != "new text" {
		t.Fatalf("payload = %q, want the rescheduled text", notes[0].body)
	}
}

func TestCancelSuppressesFire(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	s.Schedule(3, 30, time.Now().Add(50*time.Millisecond), "never seen")
	if !s.Cancel(3, 30) {
		t.Fatal("cancel of a live reminder should report true")
	}
	if s.Cancel(3, 30) {
		t.Fatal("second cancel should report false")
	}

	time.Sleep(150 * time.Millisecond)
	if sink.count() != 0 {
		t.Fatalf("deliveries = %d after cancel, want 0", sink.count())
	}
}

func TestIndependentKeysDoNotInterfere(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	fireAt := time.Now().Add(20 * time.Millisecond)
	s.Schedule(4, 40, fireAt, "first key")
	s.Schedule(4, 41, fireAt, "second key")
	s.Cancel(4, 40)

	waitFor(t, 2*time.Second, func() bool { return sink.count() == 1 })
	if got := sink.all()[0].body; got != "second key" {
		t.Fatalf("payload = %q, want the surviving key's", got)
	}
}

func TestDueRemindersFireInScheduleOrder(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	// Same fire time on distinct keys: delivery follows schedule order.
	fireAt := time.Now().Add(30 * time.Millisecond)
	s.Schedule(5, 50, fireAt, "alpha")
	s.Schedule(6, 50, fireAt, "beta")
	s.Schedule(7, 50, fireAt, "gamma")

	waitFor(t, 2*time.Second, func() bool { return sink.count() == 3 })
	notes := sink.all()
	want := []string{"alpha", "beta", "gamma"}
	for i, w := range want {
		if notes[i].body != w {
			t.Fatalf("delivery %d = %q, want %q", i, notes[i].body, w)
		}
	}
}

func TestPastFireTimeFiresImmediately(t *testing.T) {
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, nil)

	s.Schedule(8, 80, time.Now().Add(-time.Minute), "already due")
	waitFor(t, 2*time.Second, func() bool { return sink.count() == 1 })
}

func TestReloadRestoresPersistedReminders(t *testing.T) {
	repo := newMemReminderRepo()
	fireAt := time.Now().Add(time.Hour)
	if err := repo.Upsert(context.Background(), &domain.Reminder{
		TaskID: 9, UserID: 90, FireAt: fireAt, Payload: "survives restart",
	}); err != nil {
		t.Fatalf("seed reminder: %v", err)
	}

	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, repo)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	got, payload, ok := s.FireAt(9, 90)
	if !ok || payload != "survives restart" {
		t.Fatalf("FireAt = (%v, %q, %v), want the reloaded entry", got, payload, ok)
	}
	if !got.Equal(fireAt) {
		t.Fatalf("fireAt = %v, want %v", got, fireAt)
	}
}

func TestSchedulerPersistsAndUnpersists(t *testing.T) {
	repo := newMemReminderRepo()
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, repo)

	s.Schedule(11, 110, time.Now().Add(time.Hour), "durable")
	if _, err := repo.GetAll(context.Background()); err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	rows, _ := repo.GetAll(context.Background())
	if len(rows) != 1 {
		t.Fatalf("persisted rows = %d, want 1", len(rows))
	}

	s.Cancel(11, 110)
	rows, _ = repo.GetAll(context.Background())
	if len(rows) != 0 {
		t.Fatalf("persisted rows after cancel = %d, want 0", len(rows))
	}
}

// slowDeleteReminderRepo stalls the first Delete so a replacement Schedule can
// land between the in-memory removal of a fired entry and its row cleanup.
type slowDeleteReminderRepo struct {
	*memReminderRepo
	once     sync.Once
	deleting chan struct{}
	proceed  chan struct{}
	deleted  chan struct{}
}

func (r *slowDeleteReminderRepo) Delete(ctx context.Context, taskID, userID uint, generation uint64) error {
	first := false
	r.once.Do(func() {
		first = true
		close(r.deleting)
		<-r.proceed
	})
	err := r.memReminderRepo.Delete(ctx, taskID, userID, generation)
	if first {
		close(r.deleted)
	}
	return err
}

func TestFireCleanupKeepsReplacementRow(t *testing.T) {
	repo := &slowDeleteReminderRepo{
		memReminderRepo: newMemReminderRepo(),
		deleting:        make(chan struct{}),
		proceed:         make(chan struct{}),
		deleted:         make(chan struct{}),
	}
	sink := &recordingSink{}
	s := newRunningScheduler(t, sink, repo)

	s.Schedule(1, 1, time.Now().Add(-time.Minute), "fires now")
	<-repo.deleting

	// The fired entry is gone from memory but its row cleanup has not run yet.
	// A replacement scheduled in this window must survive the cleanup.
	s.Schedule(1, 1, time.Now().Add(time.Hour), "replacement")
	close(repo.proceed)
	<-repo.deleted

	rows, _ := repo.memReminderRepo.GetAll(context.Background())
	if len(rows) != 1 {
		t.Fatalf("persisted rows = %d, want 1", len(rows))
	}
	if rows[0].Payload != "replacement" {
		t.Fatalf("persisted payload = %q, want the replacement's", rows[0].Payload)
	}
	if _, payload, ok := s.FireAt(1, 1); !ok || payload != "replacement" {
		t.Fatalf("live entry = (%q, %v), want the replacement", payload, ok)
	}
	if sink.count() != 1 {
		t.Fatalf("deliveries = %d, want 1", sink.count())
	}
}
