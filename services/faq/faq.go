// Package faq answers common free-text questions with canned replies so
// they never enter the booking dialogue.
package faq

import (
	"fmt"
	"strings"

	"yoyaku/config"
)

type entry struct {
	keywords []string
	answer   func() string
}

var entries = []entry{
	{
		keywords: []string{"営業時間", "何時"},
		answer: func() string {
			return fmt.Sprintf("営業時間は%d:00-%d:00です（ラストオーダー%d:00）\n定休日：毎週火曜日",
				config.AppConfig.OpenHour, config.AppConfig.CloseHour, config.AppConfig.CloseHour-1)
		},
	},
	{
		keywords: []string{"場所", "アクセス", "どこ"},
		answer: func() string {
			return "📍 住所：[実際の住所を入力]\n🚃 アクセス：[実際のアクセス方法]\n詳しいアクセス情報：[実際のURL]"
		},
	},
	{
		keywords: []string{"メニュー", "料理"},
		answer: func() string {
			return "🍽️ メニューはこちらからご確認いただけます：\n[実際のメニューURL]\n\n人気メニュー：\n• [実際のメニュー1]\n• [実際のメニュー2]\n• [実際のメニュー3]"
		},
	},
	{
		keywords: []string{"キャンセル", "取消"},
		answer: func() string {
			return "📋 キャンセルポリシー：\n• 当日キャンセル：料金の50%\n• 無断キャンセル：料金の100%\n\nキャンセルをご希望の場合は、予約変更メニューからお手続きください。"
		},
	},
	{
		keywords: []string{"電話", "連絡"},
		answer: func() string {
			return "📞 お電話でのお問い合わせ：\n[実際の電話番号]\n受付時間：[実際の受付時間]"
		},
	},
}

// Answer returns the canned reply for a recognized question, or "" when the
// message matches no FAQ topic.
func Answer(message string) string {
	lower := strings.ToLower(message)
	for _, e := range entries {
		for _, kw := range e.keywords {
			if strings.Contains(lower, kw) {
				return e.answer()
			}
		}
	}
	return ""
}
