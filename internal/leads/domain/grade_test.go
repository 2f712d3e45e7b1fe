package domain

import "testing"

func TestGradeForScoreThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  Grade
	}{
		{0, GradeCold},
		{30, GradeCold},
		{31, GradeWarm},
		{60, GradeWarm},
		{61, GradeHot},
		{80, GradeHot},
		{81, GradeQualified},
		{100, GradeQualified},
		{250, GradeQualified},
	}

	for _, tc := range cases {
		if got := GradeForScore(tc.score); got != tc.want {
			t.Errorf("GradeForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

// Grading must be total over non-negative scores and never move down as the
// score rises.
func TestGradeForScoreMonotonic(t *testing.T) {
	rank := map[Grade]int{GradeCold: 0, GradeWarm: 1, GradeHot: 2, GradeQualified: 3}

	prev := GradeForScore(0)
	for score := 1; score <= 300; score++ {
		current := GradeForScore(score)
		if !IsKnownGrade(string(current)) {
			t.Fatalf("GradeForScore(%d) returned unknown grade %q", score, current)
		}
		if rank[current] < rank[prev] {
			t.Fatalf("grade decreased at score %d: %s -> %s", score, prev, current)
		}
		prev = current
	}
}

func TestWeightTableScore(t *testing.T) {
	weights := DefaultWeights()

	// Two property views and a contact form.
	counts := map[string]int{
		ActivityPropertyView: 2,
		ActivityContactForm:  1,
	}
	if got := weights.Score(counts); got != 24 {
		t.Fatalf("Score = %d, want 24", got)
	}
	if grade := GradeForScore(weights.Score(counts)); grade != GradeCold {
		t.Fatalf("grade = %s, want %s", grade, GradeCold)
	}
}

func TestWeightTableScoreIgnoresUnknownTypes(t *testing.T) {
	weights := DefaultWeights()
	counts := map[string]int{
		ActivityPhoneCallMade: 1,
		"SOMETHING_NEW":       50,
	}
	if got := weights.Score(counts); got != 25 {
		t.Fatalf("Score = %d, want 25", got)
	}
}

func TestDefaultWeights(t *testing.T) {
	weights := DefaultWeights()
	cases := map[string]int{
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
	for activityType, want := range cases {
		if got := weights[activityType]; got != want {
			t.Errorf("weight for %s = %d, want %d", activityType, got, want)
		}
		if !IsKnownActivityType(activityType) {
			t.Errorf("IsKnownActivityType(%s) = false", activityType)
		}
	}
	if IsKnownActivityType("PAGE_SCROLLED") {
		t.Error("IsKnownActivityType accepted an unknown type")
	}
}
