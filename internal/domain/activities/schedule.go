package activities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// ValidateAndDeriveInterval validates a proposed activity and computes its
// absolute interval. It returns a normalized copy of the input: title and
// destination trimmed, times coerced to 24-hour HH:MM.
//
// Checks run in a fixed order so error messages are deterministic: title,
// destination, dates, times, then start/end ordering. The first failure is
// returned.
func ValidateAndDeriveInterval(in Input) (Input, Interval, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, Interval{}, ValidationError{Field: "title", Message: "required"}
	}

	in.Destination = strings.TrimSpace(in.Destination)
	if in.Destination == "" {
		return in, Interval{}, ValidationError{Field: "destination", Message: "required"}
	}

	startDate, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.StartDate), time.UTC)
	if err != nil {
		return in, Interval{}, ValidationError{Field: "startDate", Message: "invalid date"}
	}
	in.StartDate = startDate.Format(dateLayout)

	endDate, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.EndDate), time.UTC)
	if err != nil {
		return in, Interval{}, ValidationError{Field: "endDate", Message: "invalid date"}
	}
	in.EndDate = endDate.Format(dateLayout)

	in.StartTime = NormalizeTime(in.StartTime)
	if in.StartTime != nil && !ValidTime(*in.StartTime) {
		return in, Interval{}, ValidationError{Field: "startTime", Message: "invalid time format, expected HH:MM"}
	}

	in.EndTime = NormalizeTime(in.EndTime)
	if in.EndTime != nil && !ValidTime(*in.EndTime) {
		return in, Interval{}, ValidationError{Field: "endTime", Message: "invalid time format, expected HH:MM"}
	}

	interval := Interval{
		Start: combine(startDate, in.StartTime, 0, 0, 0),
		End:   combine(endDate, in.EndTime, 23, 59, 59),
	}
	if interval.Start.After(interval.End) {
		return in, Interval{}, ValidationError{Message: "start must be on or before end"}
	}

	return in, interval, nil
}

// combine attaches a clock time to a calendar date. When t is nil the given
// day-boundary default applies: midnight for starts, 23:59:59 for ends.
func combine(date time.Time, t *string, defHour, defMin, defSec int) time.Time {
	hour, minute, sec := defHour, defMin, defSec
	if t != nil {
		parsed, err := time.Parse("15:04", *t)
		if err == nil {
			hour, minute, sec = parsed.Hour(), parsed.Minute(), 0
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, sec, 0, time.UTC)
}

// DeriveInterval computes the absolute interval of a stored activity.
func DeriveInterval(a Activity) (Interval, error) {
	startDate, err := time.ParseInLocation(dateLayout, a.StartDate, time.UTC)
	if err != nil {
		return Interval{}, ValidationError{Field: "startDate", Message: "invalid date"}
	}
	endDate, err := time.ParseInLocation(dateLayout, a.EndDate, time.UTC)
	if err != nil {
		return Interval{}, ValidationError{Field: "endDate", Message: "invalid date"}
	}
	return Interval{
		Start: combine(startDate, a.StartTime, 0, 0, 0),
		End:   combine(endDate, a.EndTime, 23, 59, 59),
	}, nil
}

// CheckConflicts tests the candidate interval against every sibling activity
// in the same plan, skipping excludeID (the activity being edited). The first
// overlapping sibling, in the order supplied, is reported; callers provide
// siblings ordered by start date/time so the reported conflict is stable.
//
// Siblings whose stored dates no longer parse are skipped rather than
// reported: a corrupt row should not block edits to its neighbours.
func CheckConflicts(candidate Interval, siblings []Activity, excludeID string) error {
	for _, other := range siblings {
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		interval, err := DeriveInterval(other)
		if err != nil {
			continue
		}
		if candidate.Overlaps(interval) {
			return ConflictError{ConflictsWith: other.Title}
		}
	}
	return nil
}

// PrepareCreate validates a new activity against its plan's existing
// activities and, on success, returns the record ready for persistence with
// a fresh identifier assigned.
func PrepareCreate(in Input, siblings []Activity, ownerID, planID string) (Activity, error) {
	normalized, interval, err := ValidateAndDeriveInterval(in)
	if err != nil {
		return Activity{}, err
	}
	if err := CheckConflicts(interval, siblings, ""); err != nil {
		return Activity{}, err
	}
	return Activity{
		ID:          uuid.NewString(),
		Title:       normalized.Title,
		Destination: normalized.Destination,
		StartDate:   normalized.StartDate,
		EndDate:     normalized.EndDate,
		StartTime:   normalized.StartTime,
		EndTime:     normalized.EndTime,
		Notes:       normalized.Notes,
		OwnerID:     ownerID,
		PlanID:      planID,
	}, nil
}

// PrepareUpdate merges a partial update onto an existing activity,
// re-validates the merged record, and re-checks conflicts against all other
// activities in the plan. The activity never conflicts with itself: its own
// id is excluded from the sibling scan.
func PrepareUpdate(existing Activity, patch Patch, siblings []Activity) (Activity, error) {
	merged := existing
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Destination != nil {
		merged.Destination = *patch.Destination
	}
	if patch.StartDate != nil {
		merged.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		merged.EndDate = *patch.EndDate
	}
	if patch.StartTime.Set {
		merged.StartTime = patch.StartTime.Value
	}
	if patch.EndTime.Set {
		merged.EndTime = patch.EndTime.Value
	}
	if patch.Notes.Set {
		merged.Notes = patch.Notes.Value
	}

	normalized, interval, err := ValidateAndDeriveInterval(Input{
		Title:       merged.Title,
		Destination: merged.Destination,
		StartDate:   merged.StartDate,
		EndDate:     merged.EndDate,
		StartTime:   merged.StartTime,
		EndTime:     merged.EndTime,
		Notes:       merged.Notes,
	})
	if err != nil {
		return Activity{}, err
	}
	if err := CheckConflicts(interval, siblings, existing.ID); err != nil {
		return Activity{}, err
	}

	merged.Title = normalized.Title
	merged.Destination = normalized.Destination
	merged.StartDate = normalized.StartDate
	merged.EndDate = normalized.EndDate
	merged.StartTime = normalized.StartTime
	merged.EndTime = normalized.EndTime
	merged.Notes = normalized.Notes
	return merged, nil
}

// PrepareBulkCreate validates a batch of new activities (as when a plan is
// created with its itinerary in one request) and cross-checks every ordered
// pair for overlap, so a conflict between the third and first entries is
// caught even though the first validated cleanly. Any failure aborts the
// whole batch.
//
// The pairwise scan is O(k²) in the batch size. A travel plan rarely exceeds
// tens of activities, and the symmetric first-conflict-reported semantics
// depend on this exact iteration order, so it stays as written.
func PrepareBulkCreate(inputs []Input, ownerID, planID string) ([]Activity, error) {
	normalized := make([]Input, len(inputs))
	intervals := make([]Interval, len(inputs))
	for i, in := range inputs {
		var err error
		normalized[i], intervals[i], err = ValidateAndDeriveInterval(in)
		if err != nil {
			return nil, err
		}
	}

	for i := range intervals {
		for j := range intervals {
			if i == j {
				continue
			}
			if intervals[i].Overlaps(intervals[j]) {
				return nil, ConflictError{Title: normalized[i].Title, ConflictsWith: normalized[j].Title}
			}
		}
	}

	batch := make([]Activity, len(normalized))
	for i, in := range normalized {
		batch[i] = Activity{
			ID:          uuid.NewString(),
			Title:       in.Title,
			Destination: in.Destination,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Notes:       in.Notes,
			OwnerID:     ownerID,
			PlanID:      planID,
		}
	}
	return batch, nil
}
