package reminder

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"

	"yoyaku/config"
	notificationRepo "yoyaku/database/repository/notification"
	reservationRepo "yoyaku/database/repository/reservation"
	userRepo "yoyaku/database/repository/user"
	"yoyaku/models"
	"yoyaku/utils"
)

func init() {
	config.AppConfig = config.Config{
		Env:              "development",
		BusinessTimezone: "Asia/Tokyo",
		OpenHour:         11,
		CloseHour:        22,
		ClosedWeekday:    2,
		ReminderHour:     10,
		SessionTTLMin:    30,
	}
}

type fakeNotifier struct {
	mu     sync.Mutex
	pushes []string
	fail   bool
}

func (f *fakeNotifier) PushText(ctx context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.pushes = append(f.pushes, to+"|"+text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type fixture struct {
	scheduler *Scheduler
	users     *userRepo.MemoryUserRepo
	resRepo   *reservationRepo.MemoryReservationRepo
	logs      *notificationRepo.MemoryNotificationRepo
	notifier  *fakeNotifier
	enqueuer  *fakeEnqueuer
}

func newFixture() *fixture {
	f := &fixture{
		users:    userRepo.NewMemoryUserRepo(),
		resRepo:  reservationRepo.NewMemoryReservationRepo(),
		logs:     notificationRepo.NewMemoryNotificationRepo(),
		notifier: &fakeNotifier{},
		enqueuer: &fakeEnqueuer{},
	}
	f.scheduler = &Scheduler{
		Reservations: f.resRepo,
		Users:        f.users,
		Logs:         f.logs,
		Notifier:     f.notifier,
		Enqueuer:     f.enqueuer,
	}
	return f
}

func (f *fixture) seedReservation(t *testing.T, date, status string) *models.Reservation {
	t.Helper()
	ctx := context.Background()
	user, err := f.users.FindOrCreate(ctx, "Uline1", "田中")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	res := &models.Reservation{
		ID:         "res-1",
		UserID:     user.ID,
		Date:       date,
		StartTime:  "18:00",
		EndTime:    "19:00",
		GuestCount: 2,
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := f.resRepo.Create(ctx, res); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return res
}

func futureDate(days int) string {
	return utils.FormatDate(utils.BusinessNow().AddDate(0, 0, days))
}

func TestScheduleEnqueuesFutureReminder(t *testing.T) {
	f := newFixture()
	res := f.seedReservation(t, futureDate(5), models.StatusConfirmed)

	if err := f.scheduler.Schedule(context.Background(), res); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(f.enqueuer.tasks) != 1 {
		t.Fatalf("expected one task enqueued, got %d", len(f.enqueuer.tasks))
	}
	if f.enqueuer.tasks[0].Type() != TypeSendReminder {
		t.Fatalf("unexpected task type %q", f.enqueuer.tasks[0].Type())
	}
}

func TestSchedulePastFireTimeIsNoop(t *testing.T) {
	f := newFixture()
	// A reservation for tomorrow may already be past its day-before fire
	// time; the sweep covers it instead.
	res := f.seedReservation(t, futureDate(0), models.StatusConfirmed)

	if err := f.scheduler.Schedule(context.Background(), res); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(f.enqueuer.tasks) != 0 {
		t.Fatalf("expected no task for past fire time, got %d", len(f.enqueuer.tasks))
	}
}

func TestDeliverSendsOnceAndLogs(t *testing.T) {
	f := newFixture()
	res := f.seedReservation(t, futureDate(1), models.StatusConfirmed)
	ctx := context.Background()

	if err := f.scheduler.Deliver(ctx, res.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one push, got %d", f.notifier.count())
	}
	if !strings.Contains(f.notifier.pushes[0], "予約のリマインド") {
		t.Fatalf("unexpected reminder text: %s", f.notifier.pushes[0])
	}
	sent, err := f.logs.HasSent(ctx, res.ID, models.NotificationTypeReminder)
	if err != nil || !sent {
		t.Fatalf("expected sent log, sent=%v err=%v", sent, err)
	}

	// Second delivery attempt must be a no-op.
	if err := f.scheduler.Deliver(ctx, res.ID); err != nil {
		t.Fatalf("second Deliver: %v", err)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("reminder sent twice")
	}
}

func TestDeliverSkipsCancelledReservation(t *testing.T) {
	f := newFixture()
	res := f.seedReservation(t, futureDate(1), models.StatusCancelled)

	if err := f.scheduler.Deliver(context.Background(), res.ID); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if f.notifier.count() != 0 {
		t.Fatal("cancelled reservation must not be reminded")
	}
}

func TestDeliverRecordsFailure(t *testing.T) {
	f := newFixture()
	f.notifier.fail = true
	res := f.seedReservation(t, futureDate(1), models.StatusConfirmed)
	ctx := context.Background()

	if err := f.scheduler.Deliver(ctx, res.ID); err == nil {
		t.Fatal("expected delivery error")
	}
	sent, _ := f.logs.HasSent(ctx, res.ID, models.NotificationTypeReminder)
	if sent {
		t.Fatal("failed delivery must not be marked sent")
	}

	// A failed attempt can be retried.
	f.notifier.fail = false
	if err := f.scheduler.Deliver(ctx, res.ID); err != nil {
		t.Fatalf("retry Deliver: %v", err)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected retry to send, got %d pushes", f.notifier.count())
	}
}

func TestConcurrentTimerAndSweepSendOnce(t *testing.T) {
	f := newFixture()
	res := f.seedReservation(t, futureDate(1), models.StatusConfirmed)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.scheduler.Deliver(ctx, res.ID)
		}()
	}
	wg.Wait()

	if f.notifier.count() != 1 {
		t.Fatalf("expected exactly one push under contention, got %d", f.notifier.count())
	}
}

func TestSweepTomorrowDeliversMissed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	tomorrow := utils.Tomorrow()

	user, _ := f.users.FindOrCreate(ctx, "Uline1", "田中")
	for _, id := range []string{"res-a", "res-b"} {
		res := &models.Reservation{
			ID:         id,
			UserID:     user.ID,
			Date:       tomorrow,
			StartTime:  "18:00",
			EndTime:    "19:00",
			GuestCount: 2,
			Status:     models.StatusConfirmed,
		}
		if err := f.resRepo.Create(ctx, res); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}
	// res-a was already reminded by the timer path.
	if ok, _ := f.logs.Claim(ctx, "res-a", models.NotificationTypeReminder); !ok {
		t.Fatal("claim res-a")
	}
	if err := f.logs.MarkSent(ctx, "res-a", models.NotificationTypeReminder); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	f.scheduler.SweepTomorrow(ctx)

	if f.notifier.count() != 1 {
		t.Fatalf("expected sweep to deliver only the missed reminder, got %d", f.notifier.count())
	}
	if !strings.Contains(f.notifier.pushes[0], "田中") {
		t.Fatalf("unexpected recipient text: %s", f.notifier.pushes[0])
	}
}
