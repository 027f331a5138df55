package timetable

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Grid maps a room name to its [day][hour] cells, an empty cell is a free
// slot.
type Grid map[string][][]string

// Days returns the largest number of days any room has.
func (g Grid) Days() int {
	days := 0
	for _, d := range g {
		days = max(days, len(d))
	}
	return days
}

// Rooms returns the room names in sorted order.
func (g Grid) Rooms() []string {
	rooms := make([]string, 0, len(g))
	for room := range g {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms
}

func (g Grid) cell(room string, day, hour int) (string, bool) {
	days := g[room]
	if day < 0 || day >= len(days) {
		return "", false
	}
	if hour < 0 || hour >= len(days[day]) {
		return "", false
	}
	return days[day][hour], true
}

// Period is a lesson slot in minutes after midnight, End is exclusive.
type Period struct {
	Start int
	End   int
}

// Periods is the school bell schedule, index i is lesson hour i.
var Periods = []Period{
	{Start: 8 * 60, End: 9 * 60},
	{Start: 9 * 60, End: 10 * 60},
	{Start: 10 * 60, End: 11 * 60},
	{Start: 11 * 60, End: 12 * 60},
	{Start: 12 * 60, End: 13 * 60},
	{Start: 13 * 60, End: 13*60 + 50},
}

// HourBucket returns the lesson hour t falls in, or -1 outside lessons.
func HourBucket(t time.Time) int {
	minute := t.Hour()*60 + t.Minute()
	for i, p := range Periods {
		if minute >= p.Start && minute < p.End {
			return i
		}
	}
	return -1
}

// DayIndex returns the grid day of t, Monday is 0.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// FreeRooms returns the sorted rooms whose cell at day and hour is exactly
// empty. Rooms without that slot are never free.
func FreeRooms(grid Grid, day, hour int) []string {
	free := []string{}
	for _, room := range grid.Rooms() {
		cell, ok := grid.cell(room, day, hour)
		if ok && cell == "" {
			free = append(free, room)
		}
	}
	return free
}

type Match struct {
	Room string
	Day  int
	Hour int
	// Class is the first line of the matching cell.
	Class string
	// Current is set when the match is at the queried day and hour.
	Current bool
}

func (m Match) String() string {
	s := fmt.Sprintf("%d %s %s", m.Hour+1, m.Room, m.Class)
	if m.Current {
		s += " <---"
	}
	return s
}

// FindMatches searches every hour of day for cells containing text, case
// insensitive. Matches are ordered by hour and then room. An empty text
// matches nothing.
func FindMatches(grid Grid, day, hour int, text string) []Match {
	matches := []Match{}
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return matches
	}

	for _, room := range grid.Rooms() {
		days := grid[room]
		if day < 0 || day >= len(days) {
			continue
		}
		for h, cell := range days[day] {
			if !strings.Contains(strings.ToLower(cell), needle) {
				continue
			}
			class, _, _ := strings.Cut(cell, "\n")
			matches = append(matches, Match{
				Room:    room,
				Day:     day,
				Hour:    h,
				Class:   strings.TrimSpace(class),
				Current: h == hour,
			})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return a.Hour - b.Hour
	})
	return matches
}
