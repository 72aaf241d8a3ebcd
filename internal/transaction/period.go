package transaction

import (
	"fmt"
	"time"
)

// DayRange turns inclusive calendar days (YYYY-MM-DD) into the half-open
// range [from, before) in loc. An empty string leaves that side open.
func DayRange(start, end string, loc *time.Location) (from, before *time.Time, err error) {
	if start != "" {
		day, err := time.ParseInLocation(time.DateOnly, start, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid start_date %q", start)
		}

		from = &day
	}

	if end != "" {
		day, err := time.ParseInLocation(time.DateOnly, end, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid end_date %q", end)
		}

		before = new(day.AddDate(0, 0, 1))
	}

	if from != nil && before != nil && !from.Before(*before) {
		return nil, nil, fmt.Errorf("start_date %s is after end_date %s", start, end)
	}

	return from, before, nil
}
