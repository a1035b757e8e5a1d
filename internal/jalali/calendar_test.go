package jalali

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGregorianKnownDates(t *testing.T) {
	cases := []struct {
		persian   Date
		gregorian string
	}{
		{Date{979, 1, 1}, "1600-03-20"},
		{Date{1399, 12, 30}, "2021-03-20"},
		{Date{1400, 1, 1}, "2021-03-21"},
		{Date{1402, 1, 1}, "2023-03-21"},
		{Date{1402, 12, 29}, "2024-03-19"},
		{Date{1403, 1, 1}, "2024-03-20"},
		{Date{1404, 1, 1}, "2025-03-21"},
	}

	for _, tc := range cases {
		got, err := ToGregorian(tc.persian)
		require.NoError(t, err, tc.persian.String())
		assert.Equal(t, tc.gregorian, got.Format("2006-01-02"), tc.persian.String())
	}
}

func TestRoundTripGregorian(t *testing.T) {
	start := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2100, 12, 31, 0, 0, 0, 0, time.UTC)

	prev := Date{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		p, err := ToPersian(day)
		require.NoError(t, err, day.Format("2006-01-02"))

		back, err := ToGregorian(p)
		require.NoError(t, err, p.String())
		require.True(t, day.Equal(back), "%s -> %s -> %s", day.Format("2006-01-02"), p, back.Format("2006-01-02"))

		if prev != (Date{}) {
			require.True(t, after(p, prev), "%s should follow %s", p, prev)
		}
		prev = p
	}
}

func TestRoundTripPersian(t *testing.T) {
	for year := 1300; year <= 1500; year++ {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= DaysInMonth(year, month); day++ {
				d := Date{Year: year, Month: month, Day: day}
				g, err := ToGregorian(d)
				require.NoError(t, err)
				back, err := ToPersian(g)
				require.NoError(t, err)
				require.Equal(t, d, back)
			}
		}
	}
}

func TestIsLeap(t *testing.T) {
	for _, y := range []int{1391, 1395, 1399, 1403, 1408} {
		assert.True(t, IsLeap(y), "%d", y)
	}
	for _, y := range []int{1400, 1401, 1402, 1404, 1405} {
		assert.False(t, IsLeap(y), "%d", y)
	}

	leaps := 0
	for y := 1400; y < 1400+33; y++ {
		if IsLeap(y) {
			leaps++
		}
	}
	assert.Equal(t, 8, leaps)
}

func TestParse(t *testing.T) {
	d, err := Parse("1403/07/15")
	require.NoError(t, err)
	assert.Equal(t, Date{1403, 7, 15}, d)

	d, err = Parse("۱۴۰۳-۰۷-۱۵")
	require.NoError(t, err)
	assert.Equal(t, Date{1403, 7, 15}, d)
	assert.Equal(t, "1403/07/15", d.String())

	d, err = Parse("1403/12/30")
	require.NoError(t, err)
	assert.Equal(t, 30, d.Day)
}

func TestParseRejectsMalformed(t *testing.T) {
	inputs := []string{
		"",
		"1403/07",
		"1403/7/x",
		"1403/13/01",
		"1403/00/10",
		"1403/07/31",
		"1402/12/30",
		"0978/01/01",
		"not a date",
		"+1403/+1/+1",
		"1403/+7/10",
		"-1403/01/01",
		"1403/ 7/10",
	}
	for _, in := range inputs {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrConversion), in)

		var convErr *ConversionError
		assert.True(t, errors.As(err, &convErr), in)
	}
}

func TestToPersianOutOfRange(t *testing.T) {
	_, err := ToPersian(time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrConversion)
}

func TestMonthNamesAndLabel(t *testing.T) {
	assert.Equal(t, "فروردین", MonthName(1))
	assert.Equal(t, "مهر", MonthName(7))
	assert.Equal(t, "اسفند", MonthName(12))
	assert.Empty(t, MonthName(0))
	assert.Empty(t, MonthName(13))

	assert.Equal(t, "7 مهر 1403", Date{1403, 7, 7}.Label())
}

func after(a, b Date) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	return a.Day > b.Day
}
