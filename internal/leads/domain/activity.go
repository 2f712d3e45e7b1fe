// Package domain holds the pure lead-scoring rules: the behavioral activity
// catalog, the point weight per activity, and the score-to-grade thresholds.
package domain

// Behavioral activity types recorded against a lead.
const (
	ActivityPropertyView       = "PROPERTY_VIEW"
	ActivityPropertyInquiry    = "PROPERTY_INQUIRY"
	ActivityContactForm        = "CONTACT_FORM"
	ActivityFavoriteAdded      = "FAVORITE_ADDED"
	ActivitySearchPerformed    = "SEARCH_PERFORMED"
	ActivityReturnVisit        = "RETURN_VISIT"
	ActivityPhoneCallMade      = "PHONE_CALL_MADE"
	ActivityEmailOpened        = "EMAIL_OPENED"
	ActivityBrochureDownloaded = "BROCHURE_DOWNLOADED"
)

// WeightTable maps activity types to the points each occurrence contributes
// to a lead's score.
type WeightTable map[string]int

// DefaultWeights is the scoring policy applied when no override file is
// configured. High-intent actions (calls, forms, inquiries) dominate passive
// browsing signals.
func DefaultWeights() WeightTable {
	return WeightTable{
		ActivityPropertyView:       2,
		ActivityPropertyInquiry:    15,
		ActivityContactForm:        20,
		ActivityFavoriteAdded:      5,
		ActivitySearchPerformed:    1,
		ActivityReturnVisit:        3,
		ActivityPhoneCallMade:      25,
		ActivityEmailOpened:        3,
		ActivityBrochureDownloaded: 8,
	}
}

// IsKnownActivityType reports whether the given type is part of the catalog.
func IsKnownActivityType(activityType string) bool {
	_, ok := DefaultWeights()[activityType]
	return ok
}

// Score sums the table weights over per-type occurrence counts. Unknown
// activity types contribute nothing.
func (w WeightTable) Score(counts map[string]int) int {
	total := 0
	for activityType, count := range counts {
		if count <= 0 {
			continue
		}
		total += w[activityType] * count
	}
	return total
}
