package transport

import (
	"testing"
	"time"

	"estate_crm_backend/internal/pipeline/repository"
)

func TestToStageResponseComputesOpenDurationAtRenderTime(t *testing.T) {
	entered := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	stage := repository.Stage{Stage: "NEGOTIATION", EnteredAt: entered}

	resp := ToStageResponse(stage, entered.Add(150*time.Minute))
	if !resp.Open {
		t.Fatal("expected open stage")
	}
	if resp.DurationHours != 3 {
		t.Fatalf("durationHours = %d, want 3", resp.DurationHours)
	}
}

func TestToStageResponseUsesPersistedDurationWhenClosed(t *testing.T) {
	entered := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	exited := entered.Add(5 * time.Hour)
	persisted := 5
	stage := repository.Stage{
		Stage:         "NEGOTIATION",
		EnteredAt:     entered,
		ExitedAt:      &exited,
		DurationHours: &persisted,
	}

	resp := ToStageResponse(stage, exited.Add(100*time.Hour))
	if resp.Open {
		t.Fatal("expected closed stage")
	}
	if resp.DurationHours != 5 {
		t.Fatalf("durationHours = %d, want 5", resp.DurationHours)
	}
}
