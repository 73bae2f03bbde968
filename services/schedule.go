package services

import (
	"fmt"
	"strings"

	"assistant-telegram/models"
)

// FormatWeekSchedule renders the hours view: one line per weekday in display
// order, closed days marked explicitly.
func FormatWeekSchedule(week models.WeekSchedule) string {
	var b strings.Builder
	b.WriteString("Horário de funcionamento:\n")
	for _, day := range models.Weekdays {
		hours, open := week[day.Key]
		if !open || hours.Open == "" || hours.Close == "" {
			fmt.Fprintf(&b, "%s: Fechado\n", day.Label)
			continue
		}
		fmt.Fprintf(&b, "%s: %s às %s\n", day.Label, hours.Open, hours.Close)
	}
	return strings.TrimRight(b.String(), "\n")
}
