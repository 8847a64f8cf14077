package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamplan/server/internal/domain/activities"
)

func strPtr(s string) *string { return &s }

func TestWriteActivitiesCSV(t *testing.T) {
	items := []activities.Activity{
		{
			Title:       "Louvre",
			Destination: "Paris, France",
			StartDate:   "2026-09-10",
			EndDate:     "2026-09-10",
			StartTime:   strPtr("09:00"),
			EndTime:     strPtr("12:00"),
			Notes:       strPtr("Buy tickets, skip the \"long\" line"),
		},
		{
			Title:       "Day trip",
			Destination: "Versailles",
			StartDate:   "2026-09-11",
			EndDate:     "2026-09-11",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteActivitiesCSV(&buf, items))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Title", "Destination", "Start Date", "Start Time", "End Date", "End Time", "Notes"}, rows[0])
	assert.Equal(t, []string{"Louvre", "Paris, France", "2026-09-10", "09:00", "2026-09-10", "12:00", "Buy tickets, skip the \"long\" line"}, rows[1])
	assert.Equal(t, []string{"Day trip", "Versailles", "2026-09-11", "", "2026-09-11", "", ""}, rows[2])
}

func TestWriteActivitiesCSVEmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteActivitiesCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestWriteActivitiesCSVWriterFailure(t *testing.T) {
	err := WriteActivitiesCSV(failingWriter{}, nil)
	assert.Error(t, err)
}
