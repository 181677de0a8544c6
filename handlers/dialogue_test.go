package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"

	"yoyaku/config"
	"yoyaku/database"
	notificationRepo "yoyaku/database/repository/notification"
	reservationRepo "yoyaku/database/repository/reservation"
	slotRepo "yoyaku/database/repository/slot"
	userRepo "yoyaku/database/repository/user"
	"yoyaku/models"
	"yoyaku/services/line"
	"yoyaku/services/reminder"
	"yoyaku/services/reservation"
	"yoyaku/services/session"
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
		SlotCapacity:     4,
		SessionTTLMin:    30,
	}
}

// fakeGateway records outbound messages and serves canned profiles.
type fakeGateway struct {
	mu      sync.Mutex
	replies []line.Message
	pushes  []string
}

func (g *fakeGateway) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies = append(g.replies, messages...)
	return nil
}

func (g *fakeGateway) Push(ctx context.Context, to string, messages ...line.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for range messages {
		g.pushes = append(g.pushes, to)
	}
	return nil
}

func (g *fakeGateway) PushText(ctx context.Context, to, text string) error {
	return g.Push(ctx, to, line.NewTextMessage(text))
}

func (g *fakeGateway) GetProfile(ctx context.Context, userID string) (*line.Profile, error) {
	return &line.Profile{UserID: userID, DisplayName: "テスト太郎"}, nil
}

// lastText returns the text of the most recent reply.
func (g *fakeGateway) lastText(t *testing.T) string {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.replies) == 0 {
		t.Fatal("no replies sent")
	}
	msg, ok := g.replies[len(g.replies)-1].(line.TextMessage)
	if !ok {
		t.Fatalf("last reply is not a text message: %T", g.replies[len(g.replies)-1])
	}
	return msg.Text
}

type nopEnqueuer struct{}

func (nopEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{ID: "t"}, nil
}

type dialogueEnv struct {
	h        *DialogueHandler
	gateway  *fakeGateway
	sessions *session.MemoryStore
	slots    *slotRepo.MemorySlotRepo
	resRepo  *reservationRepo.MemoryReservationRepo
}

func newDialogueEnv(t *testing.T) *dialogueEnv {
	t.Helper()
	slots := slotRepo.NewMemorySlotRepo()
	resRepo := reservationRepo.NewMemoryReservationRepo()
	users := userRepo.NewMemoryUserRepo()
	logs := notificationRepo.NewMemoryNotificationRepo()
	gateway := &fakeGateway{}
	sessions := session.NewMemoryStore()
	t.Cleanup(sessions.Close)

	svc := &reservation.DefaultReservationService{
		Users:        users,
		Slots:        slots,
		Reservations: resRepo,
		Tx:           database.PassthroughTxRunner{},
	}
	sched := &reminder.Scheduler{
		Reservations: resRepo,
		Users:        users,
		Logs:         logs,
		Notifier:     gateway,
		Enqueuer:     nopEnqueuer{},
	}
	return &dialogueEnv{
		h: &DialogueHandler{
			Sessions:     sessions,
			Reservations: svc,
			Reminders:    sched,
			Gateway:      gateway,
		},
		gateway:  gateway,
		sessions: sessions,
		slots:    slots,
		resRepo:  resRepo,
	}
}

func (e *dialogueEnv) seedSlot(t *testing.T, date, startTime string) {
	t.Helper()
	err := e.slots.CreateMany(context.Background(), []models.TimeSlot{{
		ID: "slot-" + startTime, Date: date, StartTime: startTime, EndTime: startTime,
		Capacity: 4, Available: 4,
	}})
	if err != nil {
		t.Fatalf("seed slot: %v", err)
	}
}

func textEvent(userID, text string) *line.Event {
	return &line.Event{
		Type:       line.EventTypeMessage,
		ReplyToken: "rt",
		Source:     line.EventSource{Type: "user", UserID: userID},
		Message:    &line.EventMessage{ID: "m", Type: "text", Text: text},
	}
}

func postbackEvent(userID, data string) *line.Event {
	return &line.Event{
		Type:       line.EventTypePostback,
		ReplyToken: "rt",
		Source:     line.EventSource{Type: "user", UserID: userID},
		Postback:   &line.EventPostback{Data: data},
	}
}

func futureOpenDate(t *testing.T) string {
	t.Helper()
	for i := 3; i < 10; i++ {
		date := utils.FormatDate(utils.BusinessNow().AddDate(0, 0, i))
		if !utils.IsClosedDay(date) {
			return date
		}
	}
	t.Fatal("no open date")
	return ""
}

func TestFullBookingConversation(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()
	date := futureOpenDate(t)
	e.seedSlot(t, date, "18:00")

	steps := []*line.Event{
		textEvent("U1", "予約したい"),
		postbackEvent("U1", "action=select_date&date="+date),
		postbackEvent("U1", fmt.Sprintf("action=select_time&date=%s&time=18:00", date)),
		postbackEvent("U1", fmt.Sprintf("action=set_guest_count&date=%s&time=18:00&count=2", date)),
		textEvent("U1", "アレルギーがあります"),
		postbackEvent("U1", "action=confirm"),
	}
	for i, ev := range steps {
		if err := e.h.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if !strings.Contains(e.gateway.lastText(t), "予約完了") {
		t.Fatalf("expected completion message, got %q", e.gateway.lastText(t))
	}

	// The reservation is stored with the typed special request and the
	// seats are taken.
	list, _ := e.resRepo.FindConfirmedByDate(ctx, date)
	if len(list) != 1 {
		t.Fatalf("expected one reservation, got %d", len(list))
	}
	if list[0].SpecialRequests != "アレルギーがあります" {
		t.Fatalf("special requests = %q", list[0].SpecialRequests)
	}
	slot, _ := e.slots.GetByDateTime(ctx, date, "18:00")
	if slot.Available != 2 {
		t.Fatalf("available = %d, want 2", slot.Available)
	}

	// The session is cleared after confirmation.
	if sess, _ := e.sessions.Get(ctx, "U1"); sess != nil {
		t.Fatalf("session not cleared: %+v", sess)
	}
}

func TestConfirmWithoutSessionAsksToRestart(t *testing.T) {
	e := newDialogueEnv(t)
	if err := e.h.HandleEvent(context.Background(), postbackEvent("U1", "action=confirm")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "有効期限") {
		t.Fatalf("expected expiry message, got %q", e.gateway.lastText(t))
	}
}

func TestAbortClearsSession(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()
	date := futureOpenDate(t)
	e.seedSlot(t, date, "18:00")

	if err := e.h.HandleEvent(ctx, textEvent("U1", "予約")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.h.HandleEvent(ctx, postbackEvent("U1", "action=cancel")); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sess, _ := e.sessions.Get(ctx, "U1"); sess != nil {
		t.Fatal("session should be cleared on cancel")
	}
	if !strings.Contains(e.gateway.lastText(t), "キャンセルしました") {
		t.Fatalf("unexpected reply: %q", e.gateway.lastText(t))
	}
}

func TestCancelReservationFlow(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()
	date := futureOpenDate(t)
	e.seedSlot(t, date, "18:00")

	res, err := e.h.Reservations.Create(ctx, reservation.CreateRequest{
		LineUserID: "U1", DisplayName: "テスト太郎",
		Date: date, StartTime: "18:00", GuestCount: 3,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The list shows the reservation with a cancel button.
	if err := e.h.HandleEvent(ctx, textEvent("U1", "予約キャンセル")); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "ご予約の一覧") {
		t.Fatalf("expected reservation list, got %q", e.gateway.lastText(t))
	}

	if err := e.h.HandleEvent(ctx, postbackEvent("U1", "action=cancel_reservation&reservation_id="+res.ID)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "キャンセルしました") {
		t.Fatalf("unexpected reply: %q", e.gateway.lastText(t))
	}

	slot, _ := e.slots.GetByDateTime(ctx, date, "18:00")
	if slot.Available != 4 {
		t.Fatalf("available = %d after cancel, want 4", slot.Available)
	}
}

func TestEditReservationFlow(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()
	date := futureOpenDate(t)
	e.seedSlot(t, date, "18:00")
	e.seedSlot(t, date, "19:00")

	res, err := e.h.Reservations.Create(ctx, reservation.CreateRequest{
		LineUserID: "U1", DisplayName: "テスト太郎",
		Date: date, StartTime: "18:00", GuestCount: 2,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	steps := []*line.Event{
		textEvent("U1", "予約変更"),
		postbackEvent("U1", "action=edit_reservation&reservation_id="+res.ID),
		postbackEvent("U1", "action=select_date&date="+date),
		postbackEvent("U1", fmt.Sprintf("action=select_time&date=%s&time=19:00", date)),
		postbackEvent("U1", fmt.Sprintf("action=set_guest_count&date=%s&time=19:00&count=3", date)),
		postbackEvent("U1", "action=confirm"),
	}
	for i, ev := range steps {
		if err := e.h.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	moved, _ := e.resRepo.GetByID(ctx, res.ID)
	if moved.StartTime != "19:00" || moved.GuestCount != 3 {
		t.Fatalf("reservation not moved: %+v", moved)
	}
	oldSlot, _ := e.slots.GetByDateTime(ctx, date, "18:00")
	newSlot, _ := e.slots.GetByDateTime(ctx, date, "19:00")
	if oldSlot.Available != 4 || newSlot.Available != 1 {
		t.Fatalf("slot accounting wrong: old=%d new=%d", oldSlot.Available, newSlot.Available)
	}
}

func TestFullSlotOffersNoTime(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()
	date := futureOpenDate(t)
	e.seedSlot(t, date, "18:00")
	if ok, _ := e.slots.Reserve(ctx, "slot-18:00", 4); !ok {
		t.Fatal("failed to fill slot")
	}

	if err := e.h.HandleEvent(ctx, textEvent("U1", "予約")); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.h.HandleEvent(ctx, postbackEvent("U1", "action=select_date&date="+date)); err != nil {
		t.Fatalf("select date: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "満席") {
		t.Fatalf("expected full-date message, got %q", e.gateway.lastText(t))
	}
}

func TestFAQAndGreetingFallback(t *testing.T) {
	e := newDialogueEnv(t)
	ctx := context.Background()

	if err := e.h.HandleEvent(ctx, textEvent("U1", "営業時間は？")); err != nil {
		t.Fatalf("faq: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "営業時間は11:00-22:00") {
		t.Fatalf("expected hours answer, got %q", e.gateway.lastText(t))
	}

	if err := e.h.HandleEvent(ctx, textEvent("U1", "こんにちは")); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "ご用件") {
		t.Fatalf("expected greeting, got %q", e.gateway.lastText(t))
	}
}

func TestFollowSendsWelcome(t *testing.T) {
	e := newDialogueEnv(t)
	ev := &line.Event{
		Type:       line.EventTypeFollow,
		ReplyToken: "rt",
		Source:     line.EventSource{Type: "user", UserID: "U1"},
	}
	if err := e.h.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if !strings.Contains(e.gateway.lastText(t), "テスト太郎さん、友だち追加ありがとうございます") {
		t.Fatalf("unexpected welcome: %q", e.gateway.lastText(t))
	}
}

func TestPostbackWithoutPayloadIsDropped(t *testing.T) {
	e := newDialogueEnv(t)
	// A postback event may arrive without its payload object; it must be
	// dropped without panicking and without a reply.
	ev := &line.Event{
		Type:       line.EventTypePostback,
		ReplyToken: "rt",
		Source:     line.EventSource{Type: "user", UserID: "U1"},
	}
	if err := e.h.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if n := len(e.gateway.replies); n != 0 {
		t.Fatalf("expected no reply, got %d", n)
	}
}
