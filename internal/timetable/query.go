package timetable

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoPeriod = errors.New("no lesson at this time")
	ErrBadDay   = errors.New("day not in timetable")
)

// Query is a point in the week, both fields are 0-based.
type Query struct {
	Day  int
	Hour int
}

// QueryAt returns the day and lesson hour of t. Hour is -1 outside lessons,
// which Free rejects with ErrNoPeriod.
func QueryAt(t time.Time) Query {
	return Query{Day: DayIndex(t), Hour: HourBucket(t)}
}

func (q Query) validate(grid Grid) error {
	if q.Day < 0 || q.Day >= grid.Days() {
		return fmt.Errorf("%w: %d", ErrBadDay, q.Day+1)
	}
	if q.Hour < 0 {
		return ErrNoPeriod
	}
	return nil
}

// Free is FreeRooms for a query that must name an existing day and a
// lesson hour.
func Free(grid Grid, q Query) ([]string, error) {
	err := q.validate(grid)
	if err != nil {
		return nil, err
	}
	return FreeRooms(grid, q.Day, q.Hour), nil
}

// Matches is FindMatches for a query that must name an existing day. The
// whole day is searched, so a query outside lessons still finds matches but
// none is marked current.
func Matches(grid Grid, q Query, text string) ([]Match, error) {
	if q.Day < 0 || q.Day >= grid.Days() {
		return nil, fmt.Errorf("%w: %d", ErrBadDay, q.Day+1)
	}
	return FindMatches(grid, q.Day, q.Hour, text), nil
}
