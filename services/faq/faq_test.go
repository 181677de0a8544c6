package faq

import (
	"strings"
	"testing"

	"yoyaku/config"
)

func init() {
	config.AppConfig = config.Config{OpenHour: 11, CloseHour: 22}
}

func TestAnswer(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"営業時間を教えてください", "営業時間は11:00-22:00"},
		{"何時までやってますか", "定休日：毎週火曜日"},
		{"お店はどこですか", "住所"},
		{"メニューを見たい", "メニュー"},
		{"キャンセル料はかかりますか", "キャンセルポリシー"},
		{"電話番号を教えて", "お電話"},
	}
	for _, tt := range tests {
		got := Answer(tt.message)
		if got == "" {
			t.Errorf("Answer(%q) returned no match", tt.message)
			continue
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Answer(%q) = %q, want substring %q", tt.message, got, tt.want)
		}
	}
}

func TestAnswerNoMatch(t *testing.T) {
	for _, msg := range []string{"こんにちは", "予約", "ありがとう"} {
		if got := Answer(msg); got != "" {
			t.Errorf("Answer(%q) = %q, want no match", msg, got)
		}
	}
}
