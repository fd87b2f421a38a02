package validator

import (
	"strings"
	"time"
)

// EventName rejects empty names and names that would break the composed
// folder name.
func EventName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.ContainsAny(name, "/\\")
}

// EventDate parses a user-entered date in DD/MM/YYYY.
func EventDate(text string) (time.Time, bool) {
	date, err := time.Parse("02/01/2006", strings.TrimSpace(text))
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
