package plan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source defines how the plan catalog is loaded into a Registry.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

type memorySource struct {
	plans []Plan
}

// NewMemorySource returns a Source backed by a copy of the given plans.
func NewMemorySource(plans ...Plan) Source {
	cp := make([]Plan, 0, len(plans))
	for _, p := range plans {
		cp = append(cp, clone(p))
	}
	return &memorySource{plans: cp}
}

func (s *memorySource) Load(_ context.Context) ([]Plan, error) {
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, clone(p))
	}
	return out, nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source that reads the catalog from a YAML file.
// The file allows deployments to override prices and quotas without a
// rebuild; its plan ids must still belong to the closed set.
//
//	plans:
//	  - id: basic
//	    display_name: Basic
//	    monthly_ai_limit: 3
//	    interval: none
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(_ context.Context) ([]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog %s: %w", s.path, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog %s: %w", s.path, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrNoPlans, fmt.Errorf("catalog %s", s.path))
	}

	return doc.Plans, nil
}
