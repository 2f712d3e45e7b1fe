package domain

import (
	"testing"
	"time"

	assignmentrepo "estate_crm_backend/internal/assignments/repository"
)

func TestAssignmentStatusFor(t *testing.T) {
	cases := []struct {
		stage string
		want  string
	}{
		{StageWon, assignmentrepo.StatusCompleted},
		{StageLost, assignmentrepo.StatusCancelled},
		{StageOnHold, assignmentrepo.StatusOnHold},
		{StageNew, assignmentrepo.StatusActive},
		{StageContacted, assignmentrepo.StatusActive},
		{StageQualified, assignmentrepo.StatusActive},
		{StageProposal, assignmentrepo.StatusActive},
		{StageNegotiation, assignmentrepo.StatusActive},
	}

	for _, tc := range cases {
		if got := AssignmentStatusFor(tc.stage); got != tc.want {
			t.Errorf("AssignmentStatusFor(%s) = %s, want %s", tc.stage, got, tc.want)
		}
	}
}

func TestIsTerminalStage(t *testing.T) {
	if !IsTerminalStage(StageWon) || !IsTerminalStage(StageLost) {
		t.Fatal("WON and LOST must be terminal")
	}
	for _, stage := range []string{StageNew, StageContacted, StageQualified, StageProposal, StageNegotiation, StageOnHold} {
		if IsTerminalStage(stage) {
			t.Errorf("%s must not be terminal", stage)
		}
	}
}

func TestIsKnownStage(t *testing.T) {
	if IsKnownStage("ARCHIVED") {
		t.Fatal("unknown stage accepted")
	}
	if !IsKnownStage(StageNegotiation) {
		t.Fatal("known stage rejected")
	}
}

func TestDurationHoursRoundsUp(t *testing.T) {
	entered := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{time.Minute, 1},
		{time.Hour, 1},
		{time.Hour + time.Second, 2},
		{90 * time.Minute, 2},
		{48 * time.Hour, 48},
	}

	for _, tc := range cases {
		if got := DurationHours(entered, entered.Add(tc.elapsed)); got != tc.want {
			t.Errorf("DurationHours(+%s) = %d, want %d", tc.elapsed, got, tc.want)
		}
	}

	// Clock skew must not yield negative durations.
	if got := DurationHours(entered, entered.Add(-time.Minute)); got != 0 {
		t.Errorf("DurationHours(negative) = %d, want 0", got)
	}
}
