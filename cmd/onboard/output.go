package main

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"

	"github.com/riskibarqy/armory-onboarding/internal/domain/onboarding"
)

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// profileDocument renders the profile with its wire field names plus the derived step.
func profileDocument(p onboarding.Profile) (map[string]any, error) {
	raw, err := sonic.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	// JSON is a subset of YAML.
	doc := map[string]any{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	switch {
	case !p.StepKnown:
		doc["onboarding_step"] = "unknown"
	case p.OnboardingStep == nil:
		doc["onboarding_step"] = nil
	default:
		doc["onboarding_step"] = *p.OnboardingStep
	}
	doc["complete"] = p.Complete()
	return doc, nil
}
