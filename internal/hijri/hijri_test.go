package hijri

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestFromTime(t *testing.T) {
	tests := []struct {
		in               time.Time
		day, month, year int
	}{
		{date(2024, 3, 10), 29, 8, 1445},
		{date(2024, 3, 11), 1, 9, 1445},
		{date(2024, 4, 10), 1, 10, 1445},
		{date(2024, 6, 16), 9, 12, 1445},
		{date(2024, 6, 17), 10, 12, 1445},
		{date(2024, 7, 7), 30, 12, 1445},
		{date(2024, 7, 8), 1, 1, 1446},
		{date(2023, 7, 19), 1, 1, 1445},
		{date(2025, 3, 1), 1, 9, 1446},
		{date(2025, 3, 30), 30, 9, 1446},
		{date(2000, 1, 1), 24, 9, 1420},
	}

	for _, tt := range tests {
		t.Run(tt.in.Format(time.DateOnly), func(t *testing.T) {
			got := FromTime(tt.in, 0)
			if got.Day != tt.day || got.Month != tt.month || got.Year != tt.year {
				t.Errorf("FromTime(%s) = %d/%d/%d, want %d/%d/%d",
					tt.in.Format(time.DateOnly), got.Day, got.Month, got.Year, tt.day, tt.month, tt.year)
			}
		})
	}
}

func TestFromTime_Names(t *testing.T) {
	got := FromTime(date(2024, 3, 11), 0)

	if got.MonthName != "Ramadhan" {
		t.Errorf("MonthName = %q, want Ramadhan", got.MonthName)
	}
	if got.MonthNameAr != "رَمَضَان" {
		t.Errorf("MonthNameAr = %q", got.MonthNameAr)
	}
	// 2024-03-11 was a Monday.
	if got.Weekday != time.Monday || got.DayName != "Senin" {
		t.Errorf("weekday = %v/%q, want Monday/Senin", got.Weekday, got.DayName)
	}
	if got.Format() != "1 Ramadhan 1445 H" {
		t.Errorf("Format() = %q", got.Format())
	}
}

func TestFromTime_WeekdayMatchesGregorian(t *testing.T) {
	start := date(2024, 1, 1)
	for i := 0; i < 14; i++ {
		d := start.AddDate(0, 0, i)
		if got := FromTime(d, 0).Weekday; got != d.Weekday() {
			t.Errorf("%s weekday = %v, want %v", d.Format(time.DateOnly), got, d.Weekday())
		}
	}
}

func TestFromTime_Adjust(t *testing.T) {
	got := FromTime(date(2024, 3, 10), 1)
	if got.Day != 1 || got.Month != 9 {
		t.Errorf("FromTime(+1) = %d/%d, want 1/9", got.Day, got.Month)
	}
	got = FromTime(date(2024, 3, 11), -1)
	if got.Day != 29 || got.Month != 8 {
		t.Errorf("FromTime(-1) = %d/%d, want 29/8", got.Day, got.Month)
	}
}

func TestFromTime_ConsecutiveDays(t *testing.T) {
	d := date(2020, 1, 1)
	prev := FromTime(d, 0)
	for i := 1; i < 3*365; i++ {
		cur := FromTime(d.AddDate(0, 0, i), 0)
		switch {
		case cur.Day == prev.Day+1 && cur.Month == prev.Month && cur.Year == prev.Year:
		case cur.Day == 1 && (prev.Day == 29 || prev.Day == 30):
			if prev.Month == 12 {
				if cur.Month != 1 || cur.Year != prev.Year+1 {
					t.Fatalf("bad year rollover %v -> %v", prev, cur)
				}
			} else if cur.Month != prev.Month+1 || cur.Year != prev.Year {
				t.Fatalf("bad month rollover %v -> %v", prev, cur)
			}
		default:
			t.Fatalf("non-consecutive %v -> %v", prev, cur)
		}
		prev = cur
	}
}

func TestIsRamadan(t *testing.T) {
	if !IsRamadan(date(2025, 3, 15)) {
		t.Error("2025-03-15 should be in Ramadhan")
	}
	if IsRamadan(date(2025, 3, 31)) {
		t.Error("2025-03-31 is 1 Syawal")
	}
}

func TestSpecialDay(t *testing.T) {
	label, ok := SpecialDay(FromTime(date(2024, 4, 10), 0))
	if !ok || label != "Idul Fitri" {
		t.Errorf("SpecialDay(1 Syawal) = %q, %v", label, ok)
	}
	label, ok = SpecialDay(FromTime(date(2024, 6, 16), 0))
	if !ok || label != "Hari Arafah" {
		t.Errorf("SpecialDay(9 Dzulhijjah) = %q, %v", label, ok)
	}
	label, ok = SpecialDay(FromTime(date(2024, 6, 17), 0))
	if !ok || label != "Idul Adha" {
		t.Errorf("SpecialDay(10 Dzulhijjah) = %q, %v", label, ok)
	}
	if _, ok := SpecialDay(FromTime(date(2024, 3, 12), 0)); ok {
		t.Error("2 Ramadhan should not be a special day")
	}
}

// The arithmetic calendar may sit a day off the sighted Umm al-Qura one.
func TestFromTime_WithinADayOfUmmAlQura(t *testing.T) {
	tests := []struct {
		in               time.Time
		day, month, year int
	}{
		{date(2024, 3, 11), 1, 9, 1445},
		{date(2024, 4, 10), 1, 10, 1445},
		{date(2024, 6, 16), 10, 12, 1445},
		{date(2025, 3, 1), 1, 9, 1446},
		{date(2025, 6, 6), 10, 12, 1446},
	}

	for _, tt := range tests {
		matched := false
		for _, adjust := range []int{0, -1, 1} {
			got := FromTime(tt.in, adjust)
			if got.Day == tt.day && got.Month == tt.month && got.Year == tt.year {
				matched = true
				break
			}
		}
		if !matched {
			t.Errorf("FromTime(%s) = %v, more than a day from %d/%d/%d",
				tt.in.Format(time.DateOnly), FromTime(tt.in, 0), tt.day, tt.month, tt.year)
		}
	}
}
