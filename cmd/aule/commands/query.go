package commands

import (
	"fmt"
	"strconv"
	"time"

	"classeviva-tools/internal/components/chrono"
	"classeviva-tools/internal/timetable"
)

// parseQuery reads the optional [day] [hh:mm] arguments, day 1 is Monday.
// Whatever is left out is taken from the clock.
func parseQuery(clock chrono.API, args []string) (timetable.Query, error) {
	if len(args) > 1 {
		hhmm, err := time.Parse("15:04", args[1])
		if err != nil {
			return timetable.Query{}, fmt.Errorf("invalid time %q, expected hh:mm", args[1])
		}
		now := clock.Now()
		clock = chrono.FixedImpl{
			At: time.Date(now.Year(), now.Month(), now.Day(), hhmm.Hour(), hhmm.Minute(), 0, 0, clock.Location()),
		}
	}

	query := timetable.QueryAt(clock.Now())
	if len(args) > 0 {
		day, err := strconv.Atoi(args[0])
		if err != nil || day < 1 || day > 7 {
			return timetable.Query{}, fmt.Errorf("invalid day %q, expected 1 (Monday) to 7", args[0])
		}
		query.Day = day - 1
	}
	return query, nil
}

func describe(q timetable.Query) string {
	day := time.Weekday((q.Day + 1) % 7).String()
	if q.Hour < 0 {
		return day + ", outside lessons"
	}
	return fmt.Sprintf("%s, hour %d", day, q.Hour+1)
}
