package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sensitivity ranks how important an activity is.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "1"
	SensitivityMedium Sensitivity = "2"
	SensitivityHigh   Sensitivity = "3"
)

// Valid reports whether s is a known level.
func (s Sensitivity) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return true
	}
	return false
}

// Label returns the Persian display name of the level.
func (s Sensitivity) Label() string {
	switch s {
	case SensitivityLow:
		return "کم"
	case SensitivityMedium:
		return "متوسط"
	case SensitivityHigh:
		return "زیاد"
	}
	return ""
}

// ClockTime is a wall-clock time of day without a date.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseClockTime accepts HH:MM or HH:MM:SS.
func ParseClockTime(value string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q", value)
	}

	var nums [3]int
	for i, part := range parts {
		// Postgres may append fractional seconds.
		if i == 2 {
			part, _, _ = strings.Cut(part, ".")
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return ClockTime{}, fmt.Errorf("invalid time of day %q", value)
		}
		nums[i] = n
	}

	ct := ClockTime{Hour: nums[0], Minute: nums[1], Second: nums[2]}
	if ct.Hour < 0 || ct.Hour > 23 || ct.Minute < 0 || ct.Minute > 59 || ct.Second < 0 || ct.Second > 59 {
		return ClockTime{}, fmt.Errorf("invalid time of day %q", value)
	}
	return ct, nil
}

// String renders HH:MM:SS.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// On places the clock time on the given calendar day in loc.
func (c ClockTime) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, c.Second, 0, loc)
}

// Activity is a time-boxed task assigned to one user.
type Activity struct {
	ID        string
	UserID    string
	CreatorID string
	Title     string
	Body      string
	// StartDate and EndDate are Persian YYYY/MM/DD strings.
	StartDate   string
	StartTime   ClockTime
	EndDate     string
	EndTime     ClockTime
	Sensitivity Sensitivity
	IsCompleted bool
	// Visibility is true for activities created by a super-admin and false
	// for manager-private ones.
	Visibility  bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityWithUsers decorates an activity with its assignee and creator for listings.
type ActivityWithUsers struct {
	Activity
	Assignee User
	Creator  User
}
