package classroom

import (
	"fmt"
	"time"
)

// NoDueDate is shown when a course-work item has no (complete) due date.
const NoDueDate = "Sin fecha límite"

// DisplayLocation is the time zone timestamps are rendered in.
var DisplayLocation = time.Local

// FormatDueDate renders a due date the Spanish way without padding (e.g. "5/3/2024"),
// or NoDueDate when the date or any of its fields is missing.
func FormatDueDate(d *Date) string {
	if !d.IsSet() {
		return NoDueDate
	}
	t := d.Time(DisplayLocation)
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

// FormatDeadline renders a due date as "dd/mm/yyyy", or NoDueDate.
func FormatDeadline(d *Date) string {
	if !d.IsSet() {
		return NoDueDate
	}
	return d.Time(DisplayLocation).Format("02/01/2006")
}

// FormatTimestamp renders an instant as "dd/mm/yyyy, hh:mm" in DisplayLocation, or "-" when absent.
func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(DisplayLocation).Format("02/01/2006, 15:04")
}
