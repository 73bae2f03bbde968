package services

import (
	"strings"
	"testing"

	"assistant-telegram/models"
)

func TestFormatWeekSchedule(t *testing.T) {
	week := models.WeekSchedule{
		"monday": {Open: "09:00", Close: "18:00"},
		"friday": {Open: "09:00", Close: "22:00"},
	}
	got := FormatWeekSchedule(week)

	if !strings.Contains(got, "Segunda: 09:00 às 18:00") {
		t.Errorf("missing monday hours: %s", got)
	}
	if !strings.Contains(got, "Sexta: 09:00 às 22:00") {
		t.Errorf("missing friday hours: %s", got)
	}
	if !strings.Contains(got, "Domingo: Fechado") {
		t.Errorf("absent day must render as closed: %s", got)
	}
	if strings.Count(got, "\n") != 7 { // header + 7 days, no trailing newline
		t.Errorf("expected one line per weekday: %q", got)
	}
}

func TestFormatWeekScheduleAllClosed(t *testing.T) {
	got := FormatWeekSchedule(models.WeekSchedule{})
	if strings.Count(got, "Fechado") != 7 {
		t.Errorf("all seven days should be closed: %s", got)
	}
}
