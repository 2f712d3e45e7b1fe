package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"estate_crm_backend/internal/leads/domain"
)

func writeWeightsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write weights file: %v", err)
	}
	return path
}

func TestLoadWeightsDefaultsWithoutPath(t *testing.T) {
	weights, err := LoadWeights("")
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if weights[domain.ActivityContactForm] != 20 {
		t.Fatalf("expected default contact form weight 20, got %d", weights[domain.ActivityContactForm])
	}
}

func TestLoadWeightsOverride(t *testing.T) {
	path := writeWeightsFile(t, "weights:\n  PROPERTY_VIEW: 4\n  PHONE_CALL_MADE: 30\n")

	weights, err := LoadWeights(path)
	if err != nil {
		t.Fatalf("LoadWeights: %v", err)
	}
	if weights[domain.ActivityPropertyView] != 4 {
		t.Errorf("property view weight = %d, want 4", weights[domain.ActivityPropertyView])
	}
	if weights[domain.ActivityPhoneCallMade] != 30 {
		t.Errorf("phone call weight = %d, want 30", weights[domain.ActivityPhoneCallMade])
	}
	// Unlisted types keep their defaults.
	if weights[domain.ActivityContactForm] != 20 {
		t.Errorf("contact form weight = %d, want 20", weights[domain.ActivityContactForm])
	}
}

func TestLoadWeightsRejectsUnknownType(t *testing.T) {
	path := writeWeightsFile(t, "weights:\n  PAGE_SCROLLED: 5\n")
	if _, err := LoadWeights(path); err == nil {
		t.Fatal("expected error for unknown activity type")
	}
}

func TestLoadWeightsRejectsNegative(t *testing.T) {
	path := writeWeightsFile(t, "weights:\n  PROPERTY_VIEW: -1\n")
	if _, err := LoadWeights(path); err == nil {
		t.Fatal("expected error for negative weight")
	}
}
