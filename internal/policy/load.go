package policy

import (
	"errors"
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// ErrNoRules is returned when a policy document declares no rules.
var ErrNoRules = errors.New("policy declares no rules")

type document struct {
	Rules []Rule `json:"rules"`
}

// Parse builds a Policy from a YAML document of the form
//
//	rules:
//	  - method: GET
//	    pattern: /api/polls/**
//	    require: public
func Parse(data []byte) (*Policy, error) {
	var doc document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding policy: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, ErrNoRules
	}
	return New(doc.Rules)
}

// Load reads and parses the policy file at path.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}
