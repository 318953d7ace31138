package normalize

import (
	"strings"
	"time"
)

// DefaultDateFormats is the prioritized list of accepted date layouts.
// ISO first, then the day-first layouts statements in the wild use.
var DefaultDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"02/01/06",
	"2006/01/02",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"Jan 2, 2006",
}

// ParseDate parses raw against the layouts in order. Formats may be nil, in
// which case DefaultDateFormats applies.
func ParseDate(raw string, formats []string) (time.Time, error) {
	if len(formats) == 0 {
		formats = DefaultDateFormats
	}
	s := strings.TrimSpace(raw)
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &DateError{Raw: raw}
}
