// File: utils/datetime.go
package utils

import (
	"fmt"
	"time"

	"yoyaku/config"
)

// Layouts for the wire representation of dates and times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var jpWeekdays = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Location returns the business timezone. All "today", "past" and
// business-hours decisions are made in this zone.
func Location() *time.Location {
	loc, err := time.LoadLocation(config.AppConfig.BusinessTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BusinessNow returns the current time in the business timezone.
func BusinessNow() time.Time {
	return time.Now().In(Location())
}

// FormatDate renders t as a wire date in the business timezone.
func FormatDate(t time.Time) string {
	return t.In(Location()).Format(DateLayout)
}

// ParseDate parses a wire date at midnight in the business timezone.
func ParseDate(date string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, Location())
}

// ParseDateTime parses a wire date plus start time in the business timezone.
func ParseDateTime(date, tm string) (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+tm, Location())
}

// IsClosedDay reports whether date falls on the weekly closed day.
func IsClosedDay(date string) bool {
	d, err := ParseDate(date)
	if err != nil {
		return false
	}
	return int(d.Weekday()) == config.AppConfig.ClosedWeekday
}

// IsFuture reports whether the given date (and optional time) is still ahead
// of now. A date without a time is compared at midnight, so "today" does not
// count as future.
func IsFuture(date, tm string) bool {
	var target time.Time
	var err error
	if tm != "" {
		target, err = ParseDateTime(date, tm)
	} else {
		target, err = ParseDate(date)
	}
	if err != nil {
		return false
	}
	return target.After(BusinessNow())
}

// IsWithinBusinessHours reports whether tm falls inside [open, close).
func IsWithinBusinessHours(tm string) bool {
	t, err := time.Parse(TimeLayout, tm)
	if err != nil {
		return false
	}
	return t.Hour() >= config.AppConfig.OpenHour && t.Hour() < config.AppConfig.CloseHour
}

// EndTime returns the slot end for a start time. Slots are fixed at one hour.
func EndTime(startTime string) (string, error) {
	t, err := time.Parse(TimeLayout, startTime)
	if err != nil {
		return "", fmt.Errorf("invalid start time %q: %w", startTime, err)
	}
	return t.Add(time.Hour).Format(TimeLayout), nil
}

// AddDays returns the wire date n days after date.
func AddDays(date string, n int) (string, error) {
	d, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DateLayout), nil
}

// Tomorrow returns tomorrow's wire date in the business timezone.
func Tomorrow() string {
	return BusinessNow().AddDate(0, 0, 1).Format(DateLayout)
}

// AvailableDates lists the next daysAhead bookable dates, starting tomorrow
// and skipping the weekly closed day.
func AvailableDates(daysAhead int) []string {
	dates := make([]string, 0, daysAhead)
	now := BusinessNow()
	for i := 1; i <= daysAhead; i++ {
		date := now.AddDate(0, 0, i).Format(DateLayout)
		if IsClosedDay(date) {
			continue
		}
		dates = append(dates, date)
	}
	return dates
}

// ReminderFireTime computes when the pre-visit reminder for a reservation
// date should fire: the day before, at the configured reminder hour.
func ReminderFireTime(date string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	fireDay := d.AddDate(0, 0, -1)
	return time.Date(fireDay.Year(), fireDay.Month(), fireDay.Day(),
		config.AppConfig.ReminderHour, 0, 0, 0, Location()), nil
}

// FormatDateTimeJP renders a date and time for user-facing messages,
// e.g. "6月10日(月) 18:00".
func FormatDateTimeJP(date, tm string) string {
	d, err := ParseDate(date)
	if err != nil {
		return date + " " + tm
	}
	return fmt.Sprintf("%d月%d日(%s) %s", int(d.Month()), d.Day(), jpWeekdays[d.Weekday()], tm)
}

// WeekdayJP returns the Japanese single-character weekday name for a
// time.Weekday ordinal (0 = Sunday).
func WeekdayJP(weekday int) string {
	if weekday < 0 || weekday >= len(jpWeekdays) {
		return ""
	}
	return jpWeekdays[weekday]
}

// FormatDateJP renders a date for user-facing messages, e.g. "6月10日(月)".
func FormatDateJP(date string) string {
	d, err := ParseDate(date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d月%d日(%s)", int(d.Month()), d.Day(), jpWeekdays[d.Weekday()])
}
