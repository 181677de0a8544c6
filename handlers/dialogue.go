package handlers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"yoyaku/models"
	"yoyaku/services/faq"
	"yoyaku/services/line"
	"yoyaku/services/reminder"
	"yoyaku/services/reservation"
	"yoyaku/services/session"
	"yoyaku/utils"
)

// Text commands that enter a reservation flow. Checked before the FAQ
// fallback so "予約キャンセル" reaches the cancel flow, not the
// cancellation-policy FAQ.
const (
	cmdListReservations   = "予約確認"
	cmdEditReservations   = "予約変更"
	cmdCancelReservations = "予約キャンセル"
)

var bookingKeywords = []string{
	"予約", "よやく", "reservation", "book", "booking",
	"席を予約", "テーブル予約",
}

// DialogueHandler drives the reservation conversation. All state between
// webhook events lives in the session store; each event reads it, advances
// the machine, and replies.
type DialogueHandler struct {
	Sessions     session.Store
	Reservations reservation.ReservationService
	Reminders    *reminder.Scheduler
	Gateway      line.Gateway
}

// HandleEvent processes a single webhook event. Errors are replied to the
// user where possible and returned for logging; they never fail the webhook.
func (h *DialogueHandler) HandleEvent(ctx context.Context, event *line.Event) error {
	if event.Source.UserID == "" {
		return nil
	}

	switch event.Type {
	case line.EventTypeMessage:
		if !event.IsTextMessage() {
			return nil
		}
		return h.handleText(ctx, event)
	case line.EventTypeFollow:
		return h.handleFollow(ctx, event)
	case line.EventTypePostback:
		return h.handlePostback(ctx, event)
	default:
		utils.GetLogger().Sugar().Debugw("unhandled event type", "type", event.Type)
		return nil
	}
}

func (h *DialogueHandler) handleText(ctx context.Context, event *line.Event) error {
	userID := event.Source.UserID
	text := strings.TrimSpace(event.Message.Text)

	// Free text while confirming becomes the special request.
	sess, err := h.Sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	if sess != nil && sess.State == models.StateConfirming && text != "" && !isCommand(text) {
		updated, err := h.Sessions.Update(ctx, userID, func(s *models.Session) {
			s.SpecialRequests = text
		})
		if err != nil || updated == nil {
			return h.Gateway.Reply(ctx, event.ReplyToken,
				line.NewErrorMessage("セッションの有効期限が切れました。もう一度「予約」とお送りください"))
		}
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewConfirmMessage(updated))
	}

	// Free text while picking a date or time keeps the session alive but
	// does not advance it; FAQ questions are still answered in place.
	if sess != nil && !isCommand(text) &&
		(sess.State == models.StateSelectingDate || sess.State == models.StateSelectingTime) {
		if _, err := h.Sessions.Extend(ctx, userID); err != nil {
			return err
		}
		if answer := faq.Answer(text); answer != "" {
			return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(answer))
		}
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
			"ボタンからお選びください。\n最初からやり直す場合は「予約」とお送りください。"))
	}

	switch text {
	case cmdListReservations:
		return h.replyReservationList(ctx, event, "")
	case cmdEditReservations:
		return h.replyReservationList(ctx, event, "edit_reservation")
	case cmdCancelReservations:
		return h.replyReservationList(ctx, event, "cancel_reservation")
	}

	if isBookingKeyword(text) {
		return h.startBooking(ctx, event, "")
	}

	if answer := faq.Answer(text); answer != "" {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(answer))
	}

	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
		"こんにちは！ご用件をお聞かせください。\n\n"+
			"• 予約をご希望の場合は「予約」とお送りください\n"+
			"• 営業時間やアクセスなどのお問い合わせも承ります"))
}

func (h *DialogueHandler) handleFollow(ctx context.Context, event *line.Event) error {
	profile, err := h.Gateway.GetProfile(ctx, event.Source.UserID)
	if err != nil {
		utils.GetLogger().Sugar().Warnw("failed to fetch profile on follow",
			"userID", event.Source.UserID, "error", err)
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
			"友だち追加ありがとうございます！\nご予約をご希望の場合は「予約」とお送りください。"))
	}

	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
		profile.DisplayName+"さん、友だち追加ありがとうございます！🎉\n\n"+
			"こちらは予約管理ボットです。\n以下のようなことができます：\n\n"+
			"📅 予約の作成・変更・キャンセル\n⏰ 営業時間のご案内\n"+
			"📍 アクセス情報のご案内\n🍽️ メニューのご案内\n\n"+
			"ご予約をご希望の場合は「予約」とお送りください！"))
}

func (h *DialogueHandler) handlePostback(ctx context.Context, event *line.Event) error {
	if event.Postback == nil {
		return nil
	}
	data, err := url.ParseQuery(event.Postback.Data)
	if err != nil {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("処理中にエラーが発生しました"))
	}

	switch data.Get("action") {
	case "select_date":
		return h.handleDateSelection(ctx, event, data)
	case "select_time":
		return h.handleTimeSelection(ctx, event, data)
	case "set_guest_count":
		return h.handleGuestCount(ctx, event, data)
	case "confirm":
		return h.handleConfirm(ctx, event)
	case "cancel", "restart":
		return h.handleAbort(ctx, event)
	case "back_to_date":
		return h.handleBackToDate(ctx, event)
	case "edit_reservation":
		return h.startBooking(ctx, event, data.Get("reservation_id"))
	case "cancel_reservation":
		return h.handleCancelReservation(ctx, event, data.Get("reservation_id"))
	default:
		utils.GetLogger().Sugar().Debugw("unknown postback action", "data", event.Postback.Data)
		return nil
	}
}

// startBooking opens the date picker. A non-empty reservationID marks the
// session as an edit of that reservation instead of a new booking.
func (h *DialogueHandler) startBooking(ctx context.Context, event *line.Event, reservationID string) error {
	sess := &models.Session{State: models.StateSelectingDate, ReservationID: reservationID}
	if err := h.Sessions.Set(ctx, event.Source.UserID, sess); err != nil {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("予約の開始に失敗しました"))
	}
	return h.Gateway.Reply(ctx, event.ReplyToken,
		line.NewDatePickerMessage(utils.AvailableDates(14)))
}

func (h *DialogueHandler) handleDateSelection(ctx context.Context, event *line.Event, data url.Values) error {
	userID := event.Source.UserID
	date := data.Get("date")
	if date == "" {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("日付の選択に失敗しました"))
	}

	slots, err := h.Reservations.GetAvailableSlots(ctx, date)
	if err != nil {
		return h.replyServiceError(ctx, event, err, "空席の確認に失敗しました")
	}
	if len(slots) == 0 {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewDateFullMessage(date))
	}

	sess, err := h.Sessions.Update(ctx, userID, func(s *models.Session) {
		s.SelectedDate = date
		s.State = models.StateSelectingTime
	})
	if err != nil {
		return err
	}
	if sess == nil {
		return h.replyExpired(ctx, event)
	}
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTimePickerMessage(date, slots))
}

func (h *DialogueHandler) handleTimeSelection(ctx context.Context, event *line.Event, data url.Values) error {
	userID := event.Source.UserID
	date, tm := data.Get("date"), data.Get("time")
	if date == "" || tm == "" {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("時間の選択に失敗しました"))
	}

	slots, err := h.Reservations.GetAvailableSlots(ctx, date)
	if err != nil {
		return h.replyServiceError(ctx, event, err, "空席の確認に失敗しました")
	}
	maxGuests := 0
	for _, slot := range slots {
		if slot.StartTime == tm {
			maxGuests = slot.Available
			break
		}
	}
	if maxGuests == 0 {
		return h.Gateway.Reply(ctx, event.ReplyToken,
			line.NewErrorMessage("その時間は満席になりました。別の時間をお選びください"))
	}

	sess, err := h.Sessions.Update(ctx, userID, func(s *models.Session) {
		s.SelectedDate = date
		s.SelectedTime = tm
		s.State = models.StateConfirming
	})
	if err != nil {
		return err
	}
	if sess == nil {
		return h.replyExpired(ctx, event)
	}
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewGuestCountMessage(date, tm, maxGuests))
}

func (h *DialogueHandler) handleGuestCount(ctx context.Context, event *line.Event, data url.Values) error {
	count, err := strconv.Atoi(data.Get("count"))
	if err != nil || count < 1 {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("人数の選択に失敗しました"))
	}

	sess, err := h.Sessions.Update(ctx, event.Source.UserID, func(s *models.Session) {
		s.GuestCount = count
		s.State = models.StateConfirming
	})
	if err != nil {
		return err
	}
	if sess == nil {
		return h.replyExpired(ctx, event)
	}
	return h.Gateway.Reply(ctx, event.ReplyToken,
		line.NewConfirmMessage(sess),
		line.NewTextMessage("特別なご要望がございましたら、このままメッセージをお送りください。\nない場合は「予約を確定する」ボタンを押してください。"))
}

func (h *DialogueHandler) handleConfirm(ctx context.Context, event *line.Event) error {
	userID := event.Source.UserID
	sess, err := h.Sessions.Get(ctx, userID)
	if err != nil {
		return err
	}
	if sess == nil {
		return h.replyExpired(ctx, event)
	}
	if sess.SelectedDate == "" || sess.SelectedTime == "" || sess.GuestCount < 1 {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("予約情報が不完全です"))
	}

	var res *models.Reservation
	if sess.ReservationID != "" {
		res, err = h.Reservations.Update(ctx, reservation.UpdateRequest{
			ReservationID: sess.ReservationID,
			NewDate:       &sess.SelectedDate,
			NewTime:       &sess.SelectedTime,
			NewGuestCount: &sess.GuestCount,
		})
	} else {
		var displayName string
		if profile, perr := h.Gateway.GetProfile(ctx, userID); perr == nil {
			displayName = profile.DisplayName
		}
		res, err = h.Reservations.Create(ctx, reservation.CreateRequest{
			LineUserID:      userID,
			DisplayName:     displayName,
			Date:            sess.SelectedDate,
			StartTime:       sess.SelectedTime,
			GuestCount:      sess.GuestCount,
			SpecialRequests: sess.SpecialRequests,
		})
	}
	if err != nil {
		return h.replyServiceError(ctx, event, err, "予約の作成中にエラーが発生しました")
	}

	if serr := h.Reminders.Schedule(ctx, res); serr != nil {
		utils.GetLogger().Sugar().Errorw("failed to schedule reminder",
			"reservationID", res.ID, "error", serr)
	}
	if derr := h.Sessions.Delete(ctx, userID); derr != nil {
		utils.GetLogger().Sugar().Warnw("failed to clear session", "userID", userID, "error", derr)
	}
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewCompletionMessage(res))
}

func (h *DialogueHandler) handleAbort(ctx context.Context, event *line.Event) error {
	if err := h.Sessions.Delete(ctx, event.Source.UserID); err != nil {
		return err
	}
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
		"予約をキャンセルしました。\n\n再度予約をご希望の場合は「予約」とお送りください。"))
}

func (h *DialogueHandler) handleBackToDate(ctx context.Context, event *line.Event) error {
	sess, err := h.Sessions.Update(ctx, event.Source.UserID, func(s *models.Session) {
		s.SelectedDate = ""
		s.SelectedTime = ""
		s.GuestCount = 0
		s.SpecialRequests = ""
		s.State = models.StateSelectingDate
	})
	if err != nil {
		return err
	}
	if sess == nil {
		return h.replyExpired(ctx, event)
	}
	return h.Gateway.Reply(ctx, event.ReplyToken,
		line.NewDatePickerMessage(utils.AvailableDates(14)))
}

func (h *DialogueHandler) handleCancelReservation(ctx context.Context, event *line.Event, reservationID string) error {
	if reservationID == "" {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage("予約の指定に失敗しました"))
	}
	res, err := h.Reservations.Cancel(ctx, reservationID)
	if err != nil {
		return h.replyServiceError(ctx, event, err, "キャンセルの処理に失敗しました")
	}
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewCancelledMessage(res))
}

// replyReservationList shows the user's upcoming reservations. With an
// action set, each entry carries a postback button for that flow.
func (h *DialogueHandler) replyReservationList(ctx context.Context, event *line.Event, action string) error {
	reservations, err := h.Reservations.GetUserReservations(ctx, event.Source.UserID)
	if err != nil {
		return h.replyServiceError(ctx, event, err, "予約の取得に失敗しました")
	}
	if len(reservations) == 0 {
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(
			"現在、ご予約はありません。\n\nご予約をご希望の場合は「予約」とお送りください。"))
	}
	if action == "" {
		text := "📋 ご予約の一覧\n"
		for i := range reservations {
			res := &reservations[i]
			text += "\n" + strconv.Itoa(i+1) + ". " +
				utils.FormatDateTimeJP(res.Date, res.StartTime) + " " +
				strconv.Itoa(res.GuestCount) + "名"
		}
		return h.Gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(text))
	}
	return h.Gateway.Reply(ctx, event.ReplyToken,
		line.NewReservationListMessage(reservations, action))
}

func (h *DialogueHandler) replyExpired(ctx context.Context, event *line.Event) error {
	return h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage(
		"セッションの有効期限が切れました。もう一度「予約」とお送りください"))
}

// replyServiceError sends the typed user-facing message for reservation
// errors and a generic fallback for everything else.
func (h *DialogueHandler) replyServiceError(ctx context.Context, event *line.Event, err error, fallback string) error {
	var msg string
	if reservation.CodeOf(err) != "" {
		msg = reservation.UserMessage(err)
	} else {
		utils.GetLogger().Sugar().Errorw("dialogue action failed", "error", err)
		msg = fallback
	}
	if rerr := h.Gateway.Reply(ctx, event.ReplyToken, line.NewErrorMessage(msg)); rerr != nil {
		return rerr
	}
	return err
}

func isBookingKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range bookingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isCommand(text string) bool {
	switch text {
	case cmdListReservations, cmdEditReservations, cmdCancelReservations:
		return true
	}
	return isBookingKeyword(text)
}
