package core

import (
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// DisplayDateLayout is the layout used by list views.
const DisplayDateLayout = "02 Jan 2006"

// isoLayouts are tried in order when normalizing string dates.
var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type (
	// asTimer is implemented by protobuf timestamps and similar driver types.
	asTimer interface {
		AsTime() time.Time
	}

	// toDater is implemented by document-store timestamps that convert to a date.
	toDater interface {
		ToDate() time.Time
	}
)

// NormalizeDate coerces a driver timestamp, an ISO-8601 string or a native
// time value into a calendar date. The boolean is false when the input is
// nil, empty, unparseable or the zero time; callers omit such records.
func NormalizeDate(input any) (time.Time, bool) {
	var t time.Time
	switch v := input.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		t = *v
	case string:
		parsed, ok := parseISODate(v)
		if !ok {
			return time.Time{}, false
		}
		t = parsed
	case *timestamppb.Timestamp:
		if v == nil || v.CheckValid() != nil {
			return time.Time{}, false
		}
		t = v.AsTime()
	case asTimer:
		t = v.AsTime()
	case toDater:
		t = v.ToDate()
	default:
		return time.Time{}, false
	}
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func parseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date for list views, or "" when it failed to normalize.
func FormatDate(input any) string {
	t, ok := NormalizeDate(input)
	if !ok {
		return ""
	}
	return t.Format(DisplayDateLayout)
}
