package booking

// Booking represents a reservation of a location for a group on a single
// calendar date.
type Booking struct {
	ID        string
	Requester string
	Group     string
	Location  string
	EventType string
	Date      Date
	Start     MinuteOfDay
	End       MinuteOfDay
}

// Overlap details a conflicting booking relation that callers can present to
// users before asking whether to proceed.
type Overlap struct {
	WithBookingID string
	Requester     string
	Location      string
	Window        Window
}

// DetectOverlaps identifies every existing booking whose interval intersects
// the candidate's. Callers supply existing bookings already scoped to the
// candidate's calendar date; the detector itself is date-agnostic and compares
// minute-of-day intervals only.
//
// Two half-open intervals [a.Start,a.End) and [b.Start,b.End) overlap iff
// max(a.Start,b.Start) < min(a.End,b.End), so touching boundaries are not
// conflicts. Matches are returned in the input's original order.
func DetectOverlaps(existing []Booking, candidate Booking) []Overlap {
	var overlaps []Overlap
	for _, other := range existing {
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if intervalsOverlap(other.Start, other.End, candidate.Start, candidate.End) {
			overlaps = append(overlaps, Overlap{
				WithBookingID: other.ID,
				Requester:     other.Requester,
				Location:      other.Location,
				Window:        Window{Start: other.Start, End: other.End},
			})
		}
	}
	return overlaps
}

func intervalsOverlap(aStart, aEnd, bStart, bEnd MinuteOfDay) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}
