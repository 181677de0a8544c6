package line

import (
	"fmt"

	"yoyaku/models"
	"yoyaku/utils"
)

// Message is any outbound LINE message payload.
type Message interface {
	messageType() string
}

// TextMessage is a plain text message with optional quick reply buttons.
type TextMessage struct {
	Type       string      `json:"type"`
	Text       string      `json:"text"`
	QuickReply *QuickReply `json:"quickReply,omitempty"`
}

func (TextMessage) messageType() string { return "text" }

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

type QuickReplyItem struct {
	Type   string         `json:"type"`
	Action PostbackAction `json:"action"`
}

// PostbackAction carries an action=... query string back through the
// webhook when the user taps a button.
type PostbackAction struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Data        string `json:"data"`
	DisplayText string `json:"displayText,omitempty"`
}

func NewTextMessage(text string) TextMessage {
	return TextMessage{Type: "text", Text: text}
}

func postbackItem(label, data string) QuickReplyItem {
	return QuickReplyItem{
		Type: "action",
		Action: PostbackAction{
			Type:  "postback",
			Label: label,
			Data:  data,
		},
	}
}

// NewDatePickerMessage offers the bookable dates as quick reply buttons.
// LINE caps quick replies at 13 items, so only the nearest dates fit.
func NewDatePickerMessage(dates []string) TextMessage {
	const maxItems = 12
	items := make([]QuickReplyItem, 0, maxItems+1)
	for _, date := range dates {
		if len(items) >= maxItems {
			break
		}
		items = append(items, postbackItem(
			utils.FormatDateJP(date),
			"action=select_date&date="+date,
		))
	}
	items = append(items, postbackItem("キャンセル", "action=cancel"))

	msg := NewTextMessage("📅 予約日を選択\n\nご希望の予約日をお選びください")
	msg.QuickReply = &QuickReply{Items: items}
	return msg
}

// NewDateFullMessage is the reply when the chosen date has no open slots.
func NewDateFullMessage(date string) TextMessage {
	msg := NewTextMessage(fmt.Sprintf(
		"😔 申し訳ございません\n\n%sは満席のため、ご予約をお受けできません。", utils.FormatDateJP(date)))
	msg.QuickReply = &QuickReply{Items: []QuickReplyItem{
		postbackItem("別の日程で探す", "action=restart"),
	}}
	return msg
}

// NewTimePickerMessage offers the open slots of a date, with remaining
// seats in the label.
func NewTimePickerMessage(date string, slots []models.TimeSlot) TextMessage {
	items := make([]QuickReplyItem, 0, len(slots)+1)
	for _, slot := range slots {
		items = append(items, postbackItem(
			fmt.Sprintf("%s (%d席)", slot.StartTime, slot.Available),
			fmt.Sprintf("action=select_time&date=%s&time=%s", date, slot.StartTime),
		))
	}
	items = append(items, postbackItem("日程を選び直す", "action=back_to_date"))

	msg := NewTextMessage(fmt.Sprintf(
		"⏰ 予約時間を選択\n\n%s\nご希望の時間をお選びください", utils.FormatDateJP(date)))
	msg.QuickReply = &QuickReply{Items: items}
	return msg
}

// NewGuestCountMessage asks for the party size, bounded by the remaining
// capacity of the chosen slot.
func NewGuestCountMessage(date, tm string, maxGuests int) TextMessage {
	items := make([]QuickReplyItem, 0, maxGuests)
	for i := 1; i <= maxGuests; i++ {
		items = append(items, postbackItem(
			fmt.Sprintf("%d名", i),
			fmt.Sprintf("action=set_guest_count&date=%s&time=%s&count=%d", date, tm, i),
		))
	}

	msg := NewTextMessage(fmt.Sprintf(
		"👥 ご利用人数をお選びください\n\n📅 %s", utils.FormatDateTimeJP(date, tm)))
	msg.QuickReply = &QuickReply{Items: items}
	return msg
}

// NewConfirmMessage shows the booking draft and asks for final
// confirmation. Special requests may be typed before confirming.
func NewConfirmMessage(sess *models.Session) TextMessage {
	text := "✅ 予約内容の確認\n\n" +
		fmt.Sprintf("📅 予約日時: %s\n", utils.FormatDateTimeJP(sess.SelectedDate, sess.SelectedTime)) +
		fmt.Sprintf("👥 ご利用人数: %d名\n", sess.GuestCount)
	if sess.SpecialRequests != "" {
		text += fmt.Sprintf("📝 特別なご要望: %s\n", sess.SpecialRequests)
	}
	text += "\nご要望がございましたらメッセージでお送りください。\nよろしければ「予約を確定する」を押してください。"

	msg := NewTextMessage(text)
	msg.QuickReply = &QuickReply{Items: []QuickReplyItem{
		postbackItem("予約を確定する", "action=confirm"),
		postbackItem("内容を変更する", "action=back_to_date"),
		postbackItem("キャンセル", "action=cancel"),
	}}
	return msg
}

// NewCompletionMessage announces the confirmed reservation.
func NewCompletionMessage(res *models.Reservation) TextMessage {
	shortID := res.ID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	return NewTextMessage("🎉 予約完了\n\nご予約ありがとうございます！\n\n" +
		fmt.Sprintf("📅 予約日時: %s\n", utils.FormatDateTimeJP(res.Date, res.StartTime)) +
		fmt.Sprintf("👥 ご利用人数: %d名\n", res.GuestCount) +
		fmt.Sprintf("予約ID: %s\n\n", shortID) +
		"前日にリマインドをお送りします。\nご不明な点がございましたらお気軽にお声がけください。")
}

// NewReservationListMessage lists the user's upcoming reservations with
// per-reservation action buttons.
func NewReservationListMessage(reservations []models.Reservation, action string) TextMessage {
	text := "📋 ご予約の一覧\n"
	items := make([]QuickReplyItem, 0, len(reservations))
	for i := range reservations {
		res := &reservations[i]
		text += fmt.Sprintf("\n%d. %s %d名",
			i+1, utils.FormatDateTimeJP(res.Date, res.StartTime), res.GuestCount)
		items = append(items, postbackItem(
			utils.FormatDateTimeJP(res.Date, res.StartTime),
			fmt.Sprintf("action=%s&reservation_id=%s", action, res.ID),
		))
	}

	switch action {
	case "edit_reservation":
		text += "\n\n変更するご予約をお選びください。"
	case "cancel_reservation":
		text += "\n\nキャンセルするご予約をお選びください。"
	}

	msg := NewTextMessage(text)
	msg.QuickReply = &QuickReply{Items: items}
	return msg
}

// NewCancelledMessage confirms a completed cancellation.
func NewCancelledMessage(res *models.Reservation) TextMessage {
	return NewTextMessage(fmt.Sprintf(
		"ご予約をキャンセルしました。\n\n📅 %s\n\nまたのご利用をお待ちしております。",
		utils.FormatDateTimeJP(res.Date, res.StartTime)))
}

// NewErrorMessage wraps a user-facing error text.
func NewErrorMessage(message string) TextMessage {
	return NewTextMessage(fmt.Sprintf("❌ %s\n\nもう一度お試しください。", message))
}
