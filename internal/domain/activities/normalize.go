package activities

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// strictTimeRe matches 24-hour HH:MM with zero-padded hours.
	strictTimeRe = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

	// lenientTimeRe accepts 1-2 digit hours with an optional AM/PM or
	// Chinese period marker, as produced by localized time pickers.
	lenientTimeRe = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(?:\s*(上午|下午|AM|PM))?$`)
)

// NormalizeTime coerces a free-form time string into 24-hour HH:MM.
//
// Nil, empty, or whitespace-only input returns nil (no time specified; the
// day-boundary default applies). Strict HH:MM input is returned unchanged.
// Inputs matching d{1,2}:dd with an optional period marker (上午/AM, 下午/PM)
// are converted: PM adds 12 to hours below 12, AM maps hour 12 to 0.
// Anything else is returned as-is, deferring rejection to strict-format
// validation downstream.
func NormalizeTime(raw *string) *string {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	if strictTimeRe.MatchString(value) {
		return &value
	}

	match := lenientTimeRe.FindStringSubmatch(value)
	if match == nil {
		return &value
	}

	hour, err := strconv.Atoi(match[1])
	if err != nil {
		return &value
	}
	minutes := match[2]

	switch strings.ToLower(match[3]) {
	case "下午", "pm":
		if hour < 12 {
			hour += 12
		}
	case "上午", "am":
		if hour == 12 {
			hour = 0
		}
	}

	normalized := fmt.Sprintf("%02d:%s", hour, minutes)
	return &normalized
}

// ValidTime reports whether value is a strict 24-hour HH:MM string.
func ValidTime(value string) bool {
	return strictTimeRe.MatchString(value)
}
