package chrono

import "time"

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in the school's timezone.
	Now() time.Time
	Location() *time.Location
}

// StandardImpl is the standard implementation of API using the system clock.
type StandardImpl struct {
	location *time.Location
}

// NewStandardImpl loads the timezone the school (and its timetable) lives in.
func NewStandardImpl() (StandardImpl, error) {
	location, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		return StandardImpl{}, err
	}
	return StandardImpl{location: location}, nil
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl always returns the same instant, for tests and for
// "what if it were hh:mm" queries.
type FixedImpl struct {
	At time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.At
}

func (f FixedImpl) Location() *time.Location {
	return f.At.Location()
}
