// Package hijri converts Gregorian dates to the tabular Islamic calendar.
package hijri

import (
	"fmt"
	"time"
)

// Ramadhan is the fasting month.
const Ramadhan = 9

// MonthNames are the Indonesian month names, indexed by month-1.
var MonthNames = [12]string{
	"Muharram", "Safar", "Rabiul Awal", "Rabiul Akhir",
	"Jumadil Awal", "Jumadil Akhir", "Rajab", "Sya'ban",
	"Ramadhan", "Syawal", "Dzulqa'dah", "Dzulhijjah",
}

// MonthNamesAr are the Arabic month names, indexed by month-1.
var MonthNamesAr = [12]string{
	"مُحَرَّم", "صَفَر", "رَبِيع الأَوَّل", "رَبِيع الثَّانِي",
	"جُمَادَى الأُولَى", "جُمَادَى الآخِرَة", "رَجَب", "شَعْبَان",
	"رَمَضَان", "شَوَّال", "ذُو القَعْدَة", "ذُو الحِجَّة",
}

// DayNames are the Indonesian weekday names, indexed by time.Weekday.
var DayNames = [7]string{"Ahad", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// DayNamesAr are the Arabic weekday names, indexed by time.Weekday.
var DayNamesAr = [7]string{
	"الأحد", "الإثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت",
}

// Date is a day of the Hijri calendar.
type Date struct {
	Day         int          `json:"day"`
	Month       int          `json:"month"`
	Year        int          `json:"year"`
	Weekday     time.Weekday `json:"-"`
	MonthName   string       `json:"monthName"`
	MonthNameAr string       `json:"monthNameAr"`
	DayName     string       `json:"dayName"`
	DayNameAr   string       `json:"dayNameAr"`
}

// Format returns the display label, e.g. "1 Ramadhan 1445 H".
func (d Date) Format() string {
	return fmt.Sprintf("%d %s %d H", d.Day, d.MonthName, d.Year)
}

func (d Date) String() string {
	return d.Format()
}

// FromTime converts the civil date of t. adjust shifts the result by whole
// days to follow a local moon sighting.
func FromTime(t time.Time, adjust int) Date {
	y, m, dd := t.Date()
	jdn := julianDayNumber(y, int(m), dd) + adjust
	return fromJDN(jdn)
}

// IsRamadan reports whether the civil date of t falls in Ramadhan.
func IsRamadan(t time.Time) bool {
	return FromTime(t, 0).Month == Ramadhan
}

// julianDayNumber returns the Julian day number of a proleptic Gregorian date.
func julianDayNumber(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

// fromJDN applies the 30-year arithmetic cycle with the civil epoch of
// 16 July 622.
func fromJDN(jdn int) Date {
	l := jdn - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month := (24 * l) / 709
	day := l - (709*month)/24
	year := 30*n + j - 30

	wd := time.Weekday((jdn + 1) % 7)
	return Date{
		Day:         day,
		Month:       month,
		Year:        year,
		Weekday:     wd,
		MonthName:   MonthNames[month-1],
		MonthNameAr: MonthNamesAr[month-1],
		DayName:     DayNames[wd],
		DayNameAr:   DayNamesAr[wd],
	}
}

type dayMonth struct{ day, month int }

var specialDays = map[dayMonth]string{
	{1, 1}:   "Tahun Baru Hijriah",
	{10, 1}:  "Hari Asyura",
	{12, 3}:  "Maulid Nabi Muhammad SAW",
	{27, 7}:  "Isra Mi'raj",
	{15, 8}:  "Nisfu Sya'ban",
	{1, 9}:   "Awal Ramadhan",
	{17, 9}:  "Nuzulul Qur'an",
	{1, 10}:  "Idul Fitri",
	{9, 12}:  "Hari Arafah",
	{10, 12}: "Idul Adha",
}

// SpecialDay returns the observance that falls on d, if any.
func SpecialDay(d Date) (string, bool) {
	label, ok := specialDays[dayMonth{d.Day, d.Month}]
	return label, ok
}
