package models

// DayHours is one weekday's opening window, "HH:MM" strings as the platform
// stores them. A day absent from the schedule means the restaurant is closed.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// WeekSchedule maps lowercase English weekday keys (the platform's keys) to
// hours. Days not present are closed.
type WeekSchedule map[string]DayHours

// Weekday display order and Portuguese labels for the hours view.
var Weekdays = []struct {
	Key   string
	Label string
}{
	{"monday", "Segunda"},
	{"tuesday", "Terça"},
	{"wednesday", "Quarta"},
	{"thursday", "Quinta"},
	{"friday", "Sexta"},
	{"saturday", "Sábado"},
	{"sunday", "Domingo"},
}
