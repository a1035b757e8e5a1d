package access

import (
	"fmt"
	"time"

	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/jalali"
)

// DateError wraps a calendar conversion failure on a named activity field.
type DateError struct {
	Field string
	Err   error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *DateError) Unwrap() error {
	return e.Err
}

// ActivityWindow returns the instants an activity opens and closes, reading
// its Persian dates as calendar days in loc.
func ActivityWindow(a *domain.Activity, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	startDay, err := jalali.ParseToGregorian(a.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, &DateError{Field: "start_date", Err: err}
	}
	endDay, err := jalali.ParseToGregorian(a.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, &DateError{Field: "end_date", Err: err}
	}
	return a.StartTime.On(startDay, loc), a.EndTime.On(endDay, loc), nil
}

// InWindow reports whether now lies in [start, end].
func InWindow(start, end, now time.Time) bool {
	return !now.Before(start) && !now.After(end)
}

// ActivityActive reports whether now falls inside the activity's window.
func ActivityActive(a *domain.Activity, now time.Time, loc *time.Location) (bool, error) {
	start, end, err := ActivityWindow(a, loc)
	if err != nil {
		return false, err
	}
	return InWindow(start, end, now), nil
}
