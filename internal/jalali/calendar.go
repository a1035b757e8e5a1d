// Package jalali converts between the Persian (Jalali) and Gregorian calendars.
//
// Conversion follows the arithmetic 33-year cycle anchored at 1 Farvardin 979
// (20 March 1600), which is what existing stored dates were produced with.
package jalali

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinYear and MaxYear bound the supported Persian years.
	MinYear = 979
	MaxYear = 3000

	epochPersianYear   = 979
	epochGregorianYear = 1600
	cycleDays          = 12053 // 33*365 + 8
	epochOffsetDays    = 79
)

// ErrConversion marks every calendar conversion or parsing failure.
var ErrConversion = errors.New("jalali: conversion error")

var (
	gregorianMonthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	persianMonthDays   = [12]int{31, 31, 31, 31, 31, 31, 30, 30, 30, 30, 30, 29}

	monthNames = [12]string{
		"فروردین", "اردیبهشت", "خرداد",
		"تیر", "مرداد", "شهریور",
		"مهر", "آبان", "آذر",
		"دی", "بهمن", "اسفند",
	}
)

// ConversionError describes an input the converter rejected.
type ConversionError struct {
	Input  string
	Reason string
}

func (e *ConversionError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("jalali: %s", e.Reason)
	}
	return fmt.Sprintf("jalali: %s (%q)", e.Reason, e.Input)
}

// Is lets errors.Is match ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// Date is a calendar date in the Persian calendar.
type Date struct {
	Year  int
	Month int
	Day   int
}

// String renders the canonical stored form YYYY/MM/DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d/%02d/%02d", d.Year, d.Month, d.Day)
}

// Label renders the date for humans, e.g. "7 مهر 1403".
func (d Date) Label() string {
	return fmt.Sprintf("%d %s %d", d.Day, MonthName(d.Month), d.Year)
}

// Validate reports whether the date exists in the supported range.
func (d Date) Validate() error {
	if d.Year < MinYear || d.Year > MaxYear {
		return &ConversionError{Input: d.String(), Reason: "year out of supported range"}
	}
	if d.Month < 1 || d.Month > 12 {
		return &ConversionError{Input: d.String(), Reason: "month out of range"}
	}
	if d.Day < 1 || d.Day > DaysInMonth(d.Year, d.Month) {
		return &ConversionError{Input: d.String(), Reason: "day out of range"}
	}
	return nil
}

// MonthName returns the Persian name of month m (1-12), or "" when out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthNames[m-1]
}

// IsLeap reports whether the Persian year has 366 days.
func IsLeap(year int) bool {
	k := floorMod(year-epochPersianYear, 33)
	return k%4 == 0 && k != 32
}

// DaysInMonth returns the length of month m in the given Persian year.
func DaysInMonth(year, month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	if month == 12 && IsLeap(year) {
		return 30
	}
	return persianMonthDays[month-1]
}

// Parse reads YYYY/MM/DD (or YYYY-MM-DD). Persian and Arabic-Indic digits are accepted.
func Parse(value string) (Date, error) {
	raw := strings.TrimSpace(normalizeDigits(value))
	if raw == "" {
		return Date{}, &ConversionError{Input: value, Reason: "empty date"}
	}
	raw = strings.ReplaceAll(raw, "-", "/")
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return Date{}, &ConversionError{Input: value, Reason: "expected YYYY/MM/DD"}
	}

	var nums [3]int
	for i, part := range parts {
		if !asciiDigits(part) {
			return Date{}, &ConversionError{Input: value, Reason: "non-numeric date component"}
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Date{}, &ConversionError{Input: value, Reason: "non-numeric date component"}
		}
		nums[i] = n
	}

	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, &ConversionError{Input: value, Reason: err.(*ConversionError).Reason}
	}
	return d, nil
}

// asciiDigits reports whether s is a non-empty run of 0-9. strconv.Atoi alone
// would let a sign through.
func asciiDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ToGregorian converts a Persian date to midnight UTC of the same Gregorian day.
func ToGregorian(d Date) (time.Time, error) {
	if err := d.Validate(); err != nil {
		return time.Time{}, err
	}

	jy := d.Year - epochPersianYear
	dayNo := 365*jy + floorDiv(jy, 33)*8 + floorDiv(floorMod(jy, 33)+3, 4)
	for i := 0; i < d.Month-1; i++ {
		dayNo += persianMonthDays[i]
	}
	dayNo += d.Day - 1

	gDayNo := dayNo + epochOffsetDays
	gy := epochGregorianYear + 400*floorDiv(gDayNo, 146097)
	gDayNo = floorMod(gDayNo, 146097)

	leap := true
	if gDayNo >= 36525 {
		gDayNo--
		gy += 100 * (gDayNo / 36524)
		gDayNo %= 36524
		if gDayNo >= 365 {
			gDayNo++
		} else {
			leap = false
		}
	}

	gy += 4 * (gDayNo / 1461)
	gDayNo %= 1461
	if gDayNo >= 366 {
		leap = false
		gDayNo--
		gy += gDayNo / 365
		gDayNo %= 365
	}

	gm := 0
	for ; gm < 12; gm++ {
		length := gregorianMonthDays[gm]
		if gm == 1 && leap {
			length++
		}
		if gDayNo < length {
			break
		}
		gDayNo -= length
	}

	return time.Date(gy, time.Month(gm+1), gDayNo+1, 0, 0, 0, 0, time.UTC), nil
}

// ToPersian converts the calendar day of t (in t's own location) to a Persian date.
func ToPersian(t time.Time) (Date, error) {
	gy := t.Year() - epochGregorianYear
	gm := int(t.Month()) - 1
	gd := t.Day() - 1

	gDayNo := 365*gy + floorDiv(gy+3, 4) - floorDiv(gy+99, 100) + floorDiv(gy+399, 400)
	for i := 0; i < gm; i++ {
		gDayNo += gregorianMonthDays[i]
	}
	if gm > 1 && isGregorianLeap(t.Year()) {
		gDayNo++
	}
	gDayNo += gd

	jDayNo := gDayNo - epochOffsetDays
	cycles := floorDiv(jDayNo, cycleDays)
	jDayNo = floorMod(jDayNo, cycleDays)

	jy := epochPersianYear + 33*cycles + 4*(jDayNo/1461)
	jDayNo %= 1461
	if jDayNo >= 366 {
		jy += (jDayNo - 1) / 365
		jDayNo = (jDayNo - 1) % 365
	}

	jm := 0
	for ; jm < 11 && jDayNo >= persianMonthDays[jm]; jm++ {
		jDayNo -= persianMonthDays[jm]
	}

	d := Date{Year: jy, Month: jm + 1, Day: jDayNo + 1}
	if d.Year < MinYear || d.Year > MaxYear {
		return Date{}, &ConversionError{Input: t.Format("2006-01-02"), Reason: "year out of supported range"}
	}
	return d, nil
}

// ParseToGregorian parses a stored Persian date and converts it in one step.
func ParseToGregorian(value string) (time.Time, error) {
	d, err := Parse(value)
	if err != nil {
		return time.Time{}, err
	}
	return ToGregorian(d)
}

func isGregorianLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		}
		return r
	}, s)
}
