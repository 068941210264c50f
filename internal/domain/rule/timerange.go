package rule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// TimeRange is a time-of-day window in minutes after midnight.
// When Start > End the window wraps past midnight.
type TimeRange struct {
	Start int
	End   int
}

// ParseTimeRange parses the HH:MM-HH:MM format
func ParseTimeRange(pattern string) (TimeRange, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(pattern), "-")
	if !ok {
		return TimeRange{}, errors.NewValidationError(fmt.Sprintf("time pattern %q must be HH:MM-HH:MM", pattern))
	}

	start, err := parseClock(startStr)
	if err != nil {
		return TimeRange{}, err
	}
	end, err := parseClock(endStr)
	if err != nil {
		return TimeRange{}, err
	}

	return TimeRange{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid clock time %q", s))
	}

	hours, err := strconv.Atoi(hh)
	if err != nil || hours < 0 || hours > 23 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid hour in %q", s))
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil || minutes < 0 || minutes > 59 || len(mm) != 2 {
		return 0, errors.NewValidationError(fmt.Sprintf("invalid minute in %q", s))
	}

	return hours*60 + minutes, nil
}

// Contains reports whether the time of day of t falls in the window.
// The date part of t is ignored.
func (tr TimeRange) Contains(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	if tr.Start > tr.End {
		return minute >= tr.Start || minute <= tr.End
	}
	return minute >= tr.Start && minute <= tr.End
}
