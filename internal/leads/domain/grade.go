package domain

// Grade is the coarse qualification bucket derived from a lead's score.
type Grade string

const (
	GradeCold      Grade = "COLD"
	GradeWarm      Grade = "WARM"
	GradeHot       Grade = "HOT"
	GradeQualified Grade = "QUALIFIED"
)

// Grade thresholds. A score at or above a threshold earns the bucket.
const (
	warmThreshold      = 31
	hotThreshold       = 61
	qualifiedThreshold = 81
)

// GradeForScore maps a score to its grade. Total over all non-negative
// integers and monotonic non-decreasing in score.
func GradeForScore(score int) Grade {
	switch {
	case score >= qualifiedThreshold:
		return GradeQualified
	case score >= hotThreshold:
		return GradeHot
	case score >= warmThreshold:
		return GradeWarm
	default:
		return GradeCold
	}
}

// IsKnownGrade reports whether the given string is a valid grade.
func IsKnownGrade(grade string) bool {
	switch Grade(grade) {
	case GradeCold, GradeWarm, GradeHot, GradeQualified:
		return true
	default:
		return false
	}
}
