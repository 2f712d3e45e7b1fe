// Package domain holds the pipeline stage model: the stage enumeration, its
// terminal set, the assignment-status mapping driven by stage transitions,
// and stage duration math.
package domain

import (
	"time"

	assignmentrepo "estate_crm_backend/internal/assignments/repository"
)

// Pipeline stages in their usual progression order. ON_HOLD can be entered
// from any non-terminal stage; WON and LOST are terminal.
const (
	StageNew         = "NEW"
	StageContacted   = "CONTACTED"
	StageQualified   = "QUALIFIED"
	StageProposal    = "PROPOSAL"
	StageNegotiation = "NEGOTIATION"
	StageOnHold      = "ON_HOLD"
	StageWon         = "WON"
	StageLost        = "LOST"
)

// IsKnownStage reports whether stage is a member of the enumeration.
func IsKnownStage(stage string) bool {
	switch stage {
	case StageNew, StageContacted, StageQualified, StageProposal,
		StageNegotiation, StageOnHold, StageWon, StageLost:
		return true
	default:
		return false
	}
}

// IsTerminalStage reports whether the stage ends the pipeline.
func IsTerminalStage(stage string) bool {
	return stage == StageWon || stage == StageLost
}

// AssignmentStatusFor maps a stage entry onto the owning assignment's
// status. Re-entering any non-terminal working stage reactivates an
// on-hold assignment.
func AssignmentStatusFor(stage string) string {
	switch stage {
	case StageWon:
		return assignmentrepo.StatusCompleted
	case StageLost:
		return assignmentrepo.StatusCancelled
	case StageOnHold:
		return assignmentrepo.StatusOnHold
	default:
		return assignmentrepo.StatusActive
	}
}

// DurationHours is the stage duration rounded up to whole hours. Any
// nonzero dwell time counts as at least one hour.
func DurationHours(enteredAt, exitedAt time.Time) int {
	elapsed := exitedAt.Sub(enteredAt)
	if elapsed <= 0 {
		return 0
	}
	hours := int(elapsed / time.Hour)
	if elapsed%time.Hour != 0 {
		hours++
	}
	return hours
}
