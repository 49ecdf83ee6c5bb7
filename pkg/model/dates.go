package model

import "time"

const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// OverlapRule decides whether two stays collide.
type OverlapRule int

const (
	// InclusiveBounds treats both check-in and check-out days as occupied, so a
	// checkout on day D blocks a new check-in on day D.
	InclusiveBounds OverlapRule = iota
	// SameDayTurnover treats the checkout day as free: stays are [in, out).
	SameDayTurnover
)

func (r OverlapRule) String() string {
	if r == SameDayTurnover {
		return "same_day_turnover"
	}
	return "inclusive_bounds"
}

// Overlaps reports whether [aIn, aOut] and [bIn, bOut] collide under r.
func (r OverlapRule) Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	if r == SameDayTurnover {
		return aIn.Before(bOut) && bIn.Before(aOut)
	}
	return !(aOut.Before(bIn) || aIn.After(bOut))
}

// ValidStay reports whether checkOut is an acceptable end for checkIn under r.
func (r OverlapRule) ValidStay(checkIn, checkOut time.Time) bool {
	if r == SameDayTurnover {
		return checkOut.After(checkIn)
	}
	return !checkOut.Before(checkIn)
}
