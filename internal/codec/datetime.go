package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ferrors "github.com/arkilian/formstore/internal/errors"
)

const (
	// TimestampLayout is the serialized date and dateTime form: UTC with nine
	// fractional digits and no offset suffix.
	TimestampLayout = "2006-01-02T15:04:05.000000000"

	// parseLayout accepts any number of fractional digits, including none.
	parseLayout = "2006-01-02T15:04:05.999999999"
)

// FormatTimestamp renders t in the serialized timestamp form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a serialized timestamp. Precision below one
// millisecond is discarded.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(parseLayout, s)
	if err != nil {
		var rfcErr error
		t, rfcErr = time.Parse(time.RFC3339Nano, s)
		if rfcErr != nil {
			return time.Time{}, ferrors.Wrap(ferrors.ErrCategoryValue, ferrors.CodeBadDateTime,
				fmt.Sprintf("unparseable timestamp %q", s), err)
		}
	}
	return t.UTC().Truncate(time.Millisecond), nil
}

// FormatTimeOfDay renders the UTC clock of t as HH:MM:SS.mmm000000. Only
// milliseconds are carried; the trailing six digits are always zero.
func FormatTimeOfDay(t time.Time) string {
	t = t.UTC()
	ms := t.Nanosecond() / int(time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d.%03d000000", t.Hour(), t.Minute(), t.Second(), ms)
}

// ParseTimeOfDay reads HH:MM:SS.fffffffff into a time on 0000-01-01 UTC.
// Fractional digits past the third are ignored.
func ParseTimeOfDay(s string) (time.Time, error) {
	bad := func() (time.Time, error) {
		return time.Time{}, ferrors.NewValueError(ferrors.CodeBadDateTime,
			fmt.Sprintf("unparseable time of day %q", s))
	}

	idx := strings.IndexByte(s, ':')
	if idx < 1 || len(s) < idx+6 || s[idx+3] != ':' {
		return bad()
	}
	hh, err1 := strconv.Atoi(s[:idx])
	mm, err2 := strconv.Atoi(s[idx+1 : idx+3])
	ss, err3 := strconv.Atoi(s[idx+4 : idx+6])
	if err1 != nil || err2 != nil || err3 != nil {
		return bad()
	}

	msec := 0
	if rest := s[idx+6:]; rest != "" {
		if rest[0] != '.' || len(rest) < 2 {
			return bad()
		}
		frac := rest[1:]
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		v, err := strconv.Atoi(frac)
		if err != nil {
			return bad()
		}
		msec = v
	}

	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return bad()
	}
	return time.Date(0, time.January, 1, hh, mm, ss, msec*int(time.Millisecond), time.UTC), nil
}
