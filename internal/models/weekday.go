package models

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Weekday is an uppercase day name used across configurations and entries.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

var weekdayIndex = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

var weekdayByIndex = map[int]Weekday{
	1: Monday,
	2: Tuesday,
	3: Wednesday,
	4: Thursday,
	5: Friday,
	6: Saturday,
	7: Sunday,
}

// Index returns the ISO weekday number (Monday=1) or 0 for unknown values.
func (w Weekday) Index() int {
	return weekdayIndex[w]
}

// Valid reports whether the value is one of the seven day names.
func (w Weekday) Valid() bool {
	_, ok := weekdayIndex[w]
	return ok
}

// WeekdayFromIndex maps an ISO weekday number back to its name.
func WeekdayFromIndex(idx int) (Weekday, bool) {
	w, ok := weekdayByIndex[idx]
	return w, ok
}

// NormalizeWeekday uppercases and trims free-form day input.
func NormalizeWeekday(raw string) (Weekday, bool) {
	w := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	return w, w.Valid()
}

// WeekdayList is an ordered set of working days stored as a Postgres TEXT[].
type WeekdayList []Weekday

// Value serialises the list for persistence.
func (w WeekdayList) Value() (driver.Value, error) {
	arr := make(pq.StringArray, len(w))
	for i, d := range w {
		arr[i] = string(d)
	}
	return arr.Value()
}

// Scan loads the list from a Postgres array column.
func (w *WeekdayList) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan weekday list: %w", err)
	}
	out := make(WeekdayList, len(arr))
	for i, s := range arr {
		out[i] = Weekday(s)
	}
	*w = out
	return nil
}

// Contains reports membership.
func (w WeekdayList) Contains(day Weekday) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// IntList is a set of period numbers stored as a Postgres INTEGER[].
type IntList []int

// Value serialises the list for persistence.
func (l IntList) Value() (driver.Value, error) {
	arr := make(pq.Int64Array, len(l))
	for i, n := range l {
		arr[i] = int64(n)
	}
	return arr.Value()
}

// Scan loads the list from a Postgres array column.
func (l *IntList) Scan(src interface{}) error {
	var arr pq.Int64Array
	if err := arr.Scan(src); err != nil {
		return fmt.Errorf("scan int list: %w", err)
	}
	out := make(IntList, len(arr))
	for i, n := range arr {
		out[i] = int(n)
	}
	*l = out
	return nil
}

// Contains reports membership.
func (l IntList) Contains(n int) bool {
	for _, v := range l {
		if v == n {
			return true
		}
	}
	return false
}
