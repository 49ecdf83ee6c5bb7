package model

import (
	"testing"
	"time"
)

func date(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusBooked, StatusCheckedIn, true},
		{StatusBooked, StatusCancelled, true},
		{StatusBooked, StatusCheckedOut, true},
		{StatusCheckedIn, StatusCheckedOut, true},
		{StatusCheckedIn, StatusCancelled, true},
		{StatusCheckedIn, StatusBooked, false},
		{StatusCheckedOut, StatusCancelled, false},
		{StatusCancelled, StatusBooked, false},
		{StatusCancelled, StatusCheckedIn, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusClassification(t *testing.T) {
	for _, s := range ActiveStatuses {
		if !s.IsActive() || s.IsTerminal() {
			t.Errorf("%s should be active", s)
		}
	}
	for _, s := range []BookingStatus{StatusCheckedOut, StatusCancelled} {
		if s.IsActive() || !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if BookingStatus("PENDING").Valid() {
		t.Error("unknown status must be invalid")
	}
}

func TestOverlapRules(t *testing.T) {
	tests := []struct {
		name      string
		aIn, aOut string
		bIn, bOut string
		inclusive bool
		halfOpen  bool
	}{
		{"disjoint", "2025-01-01", "2025-01-03", "2025-01-05", "2025-01-07", false, false},
		{"contained", "2025-01-01", "2025-01-10", "2025-01-03", "2025-01-04", true, true},
		{"partial", "2025-01-01", "2025-01-05", "2025-01-04", "2025-01-08", true, true},
		{"checkout equals checkin", "2025-01-01", "2025-01-05", "2025-01-05", "2025-01-08", true, false},
		{"day after checkout", "2025-01-01", "2025-01-05", "2025-01-06", "2025-01-08", false, false},
		{"same single day", "2025-01-05", "2025-01-05", "2025-01-05", "2025-01-05", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aIn, aOut, bIn, bOut := date(tt.aIn), date(tt.aOut), date(tt.bIn), date(tt.bOut)
			if got := InclusiveBounds.Overlaps(aIn, aOut, bIn, bOut); got != tt.inclusive {
				t.Errorf("inclusive overlap = %v, want %v", got, tt.inclusive)
			}
			if got := InclusiveBounds.Overlaps(bIn, bOut, aIn, aOut); got != tt.inclusive {
				t.Errorf("inclusive overlap not symmetric")
			}
			if got := SameDayTurnover.Overlaps(aIn, aOut, bIn, bOut); got != tt.halfOpen {
				t.Errorf("half-open overlap = %v, want %v", got, tt.halfOpen)
			}
		})
	}
}

func TestValidStay(t *testing.T) {
	d := date("2025-02-01")
	if !InclusiveBounds.ValidStay(d, d) {
		t.Error("inclusive bounds accepts a same-day stay")
	}
	if SameDayTurnover.ValidStay(d, d) {
		t.Error("half-open intervals need at least one night")
	}
	if InclusiveBounds.ValidStay(d, d.AddDate(0, 0, -1)) {
		t.Error("check-out before check-in is never valid")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-12-31")
	if err != nil {
		t.Fatal(err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Errorf("ParseDate should return UTC midnight, got %v", d)
	}
	for _, bad := range []string{"", "2025-13-01", "31-12-2025", "2025-12-31T00:00:00Z"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestSortRoomsByNumber(t *testing.T) {
	rooms := []*Room{{RoomNumber: "101"}, {RoomNumber: "99"}, {RoomNumber: "B2"}, {RoomNumber: "A1"}, {RoomNumber: "100"}}
	SortRoomsByNumber(rooms)

	want := []string{"99", "100", "101", "A1", "B2"}
	for i, r := range rooms {
		if r.RoomNumber != want[i] {
			t.Fatalf("position %d = %s, want %s (all: %v)", i, r.RoomNumber, want[i], numbers(rooms))
		}
	}
}

func TestBookingCloneIsDeep(t *testing.T) {
	now := time.Now()
	b := &Booking{ServiceIDs: []string{"spa"}, CancelledAt: &now}
	c := b.Clone()
	c.ServiceIDs[0] = "gym"
	*c.CancelledAt = now.Add(time.Hour)
	if b.ServiceIDs[0] != "spa" || !b.CancelledAt.Equal(now) {
		t.Error("clone shares memory with the original")
	}
}

func numbers(rooms []*Room) []string {
	out := make([]string, len(rooms))
	for i, r := range rooms {
		out[i] = r.RoomNumber
	}
	return out
}
