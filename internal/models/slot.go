package models

// Slot is one teachable position in the weekly grid. Slots are derived from a
// ScheduleConfig, never persisted on their own.
type Slot struct {
	Day       Weekday `json:"day"`
	Period    int     `json:"period"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	IsBreak   bool    `json:"is_break"`
}

// Key identifies the slot position within a week.
func (s Slot) Key() SlotKey {
	return SlotKey{Day: s.Day, Period: s.Period}
}

// SlotKey is the (day, period) coordinate used for occupancy maps.
type SlotKey struct {
	Day    Weekday
	Period int
}
