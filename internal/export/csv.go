package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roamplan/server/internal/domain/activities"
)

var csvHeader = []string{"Title", "Destination", "Start Date", "Start Time", "End Date", "End Time", "Notes"}

// WriteActivitiesCSV writes a plan's itinerary as CSV in sibling order.
// Optional fields render as empty cells.
func WriteActivitiesCSV(w io.Writer, items []activities.Activity) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, a := range items {
		record := []string{
			a.Title,
			a.Destination,
			a.StartDate,
			deref(a.StartTime),
			a.EndDate,
			deref(a.EndTime),
			deref(a.Notes),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
