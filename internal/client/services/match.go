package services

import "github.com/smolnikov/tripsync/internal/client/models"

// matchRule is one strategy for pairing a locally created record with its
// server-confirmed counterpart. Record ids cannot be used here: the id the
// server stores for a record created offline may be assigned server-side,
// so matching falls back to content fields.
type matchRule struct {
	name string
	fn   func(confirmed, local models.ItineraryItem) bool
}

// Rules are ordered strictest first; the first rule satisfied wins.
var itineraryMatchRules = []matchRule{
	{
		name: "date+start+title+location",
		fn: func(c, l models.ItineraryItem) bool {
			return c.Date == l.Date && c.StartTime == l.StartTime &&
				c.Title == l.Title && c.Location == l.Location
		},
	},
	{
		name: "title+start",
		fn: func(c, l models.ItineraryItem) bool {
			return c.Title == l.Title && c.StartTime == l.StartTime
		},
	},
}

// matchItinerary returns the first confirmed record satisfying the
// highest-ranked rule, along with the rule name for diagnostics.
func matchItinerary(confirmed []models.ItineraryItem, local models.ItineraryItem) (models.ItineraryItem, string, bool) {
	for _, rule := range itineraryMatchRules {
		for _, c := range confirmed {
			if rule.fn(c, local) {
				return c, rule.name, true
			}
		}
	}
	return models.ItineraryItem{}, "", false
}
