package transport

import (
	"testing"

	"github.com/google/uuid"

	"estate_crm_backend/internal/assignments/repository"
)

func TestNormalizePriority(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"MEDIUM", repository.PriorityNormal},
		{"NORMAL", repository.PriorityNormal},
		{"LOW", repository.PriorityLow},
		{"HIGH", repository.PriorityHigh},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizePriority(tc.in); got != tc.want {
			t.Errorf("NormalizePriority(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateAssignmentRequestToParams(t *testing.T) {
	notes := "walk-in client"
	req := CreateAssignmentRequest{
		LeadID:   uuid.New(),
		AgentID:  uuid.New(),
		Priority: "MEDIUM",
		Notes:    &notes,
	}

	params := req.ToParams()
	if params.LeadID != req.LeadID || params.AgentID != req.AgentID {
		t.Fatal("lead and agent ids must carry over")
	}
	if params.Priority != repository.PriorityNormal {
		t.Errorf("priority = %q, want %q", params.Priority, repository.PriorityNormal)
	}
	if params.Notes != &notes {
		t.Error("notes must carry over")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{repository.StatusCompleted, true},
		{repository.StatusCancelled, true},
		{repository.StatusActive, false},
		{repository.StatusOnHold, false},
	}

	for _, tc := range cases {
		if got := repository.IsTerminalStatus(tc.status); got != tc.want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}
