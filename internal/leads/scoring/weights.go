package scoring

import (
	"fmt"
	"os"

	"estate_crm_backend/internal/leads/domain"

	"gopkg.in/yaml.v3"
)

// weightsFile is the on-disk shape of a scoring policy override.
// Unlisted activity types keep their default weight.
type weightsFile struct {
	Weights map[string]int `yaml:"weights"`
}

// LoadWeights returns the scoring weight table, applying overrides from the
// YAML file at path when one is configured. An empty path yields the default
// policy.
func LoadWeights(path string) (domain.WeightTable, error) {
	weights := domain.DefaultWeights()
	if path == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring weights: %w", err)
	}

	var file weightsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse scoring weights: %w", err)
	}

	for activityType, weight := range file.Weights {
		if !domain.IsKnownActivityType(activityType) {
			return nil, fmt.Errorf("unknown activity type in weights file: %s", activityType)
		}
		if weight < 0 {
			return nil, fmt.Errorf("negative weight for %s", activityType)
		}
		weights[activityType] = weight
	}

	return weights, nil
}
