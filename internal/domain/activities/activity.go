package activities

import (
	"encoding/json"
	"time"
)

// Activity is a titled, dated (optionally timed) event belonging to exactly
// one plan. Dates are calendar dates in YYYY-MM-DD form; times, when present,
// are 24-hour HH:MM strings. Interpretation of the date/time fields into an
// absolute interval is owned by this package, not the storage layer.
type Activity struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Notes       *string `json:"notes"`
	OwnerID     string  `json:"ownerId"`
	PlanID      string  `json:"planId"`
}

// Input is a proposed activity before validation. It carries everything a
// client may set; identifiers are assigned on the accept path.
type Input struct {
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	Notes       *string `json:"notes"`
}

// Patch is a partial update. Nil pointer fields are left untouched.
// StartTime, EndTime, and Notes distinguish "absent" from "set to null" so a
// timed activity can be reverted to a day-boundary one.
type Patch struct {
	Title       *string        `json:"title"`
	Destination *string        `json:"destination"`
	StartDate   *string        `json:"startDate"`
	EndDate     *string        `json:"endDate"`
	StartTime   OptionalString `json:"startTime"`
	EndTime     OptionalString `json:"endTime"`
	Notes       OptionalString `json:"notes"`
}

// OptionalString is a tri-state JSON string: absent, null, or a value.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Interval is the absolute start/end instant pair derived from an activity's
// date and optional time fields.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two closed intervals intersect. Touching
// endpoints count as overlap.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !i.End.Before(other.Start)
}
