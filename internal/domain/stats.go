package domain

// GuestStats summarizes the guests of an event. It is derived on every read and never stored.
type GuestStats struct {
	Total               int `json:"total"`
	Confirmed           int `json:"confirmed"`
	Declined            int `json:"declined"`
	Pending             int `json:"pending"`
	Maybe               int `json:"maybe"`
	WithPlusOne         int `json:"with_plus_one"`
	TotalAttending      int `json:"total_attending"`
	DietaryRestrictions int `json:"dietary_restrictions"`
}

// AggregateStats computes GuestStats in a single pass.
//
// A confirmed guest counts once towards TotalAttending, twice when bringing a
// confirmed plus-one. Only the primary respondent's dietary and allergy fields
// count towards DietaryRestrictions. Guests with an unknown status count as pending
// so that Total always equals the sum of the status buckets.
func AggregateStats(guests []*Guest) GuestStats {
	var s GuestStats
	for _, g := range guests {
		if g == nil {
			continue
		}
		s.Total++

		switch g.RSVPStatus {
		case RSVPConfirmed:
			s.Confirmed++
			s.TotalAttending++
			if g.HasPlusOne() {
				s.TotalAttending++
			}
		case RSVPDeclined:
			s.Declined++
		case RSVPMaybe:
			s.Maybe++
		default:
			s.Pending++
		}

		if g.HasPlusOne() {
			s.WithPlusOne++
		}
		if g.HasDietaryRestriction() {
			s.DietaryRestrictions++
		}
	}
	return s
}
