package service

import (
	"errors"

	"factsheet/internal/domain"
)

// Validate loads the document at path and checks every node against the
// required property names: tenants against Tenant, shared components
// against Component and tenant components against Deploy.
func (s *FactsService) Validate(path string) *ValidationReport {
	report := &ValidationReport{Sheet: path}

	facts, info, err := s.sheets.Load(path)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Digest = info.Digest

	for _, n := range facts.ComponentTree().PreOrder() {
		report.Components++
		required := s.required.Component
		if n.Origin() != "" {
			required = s.required.Deploy
		}
		report.check(domain.TreeComponents, n, required)
	}
	for _, t := range facts.Tenants() {
		report.Tenants++
		report.check(domain.TreeTenants, t.Node, s.required.Tenant)
	}
	return report
}

// ValidateAll validates every configured document
func (s *FactsService) ValidateAll() []*ValidationReport {
	var out []*ValidationReport
	for _, path := range s.sheets.Paths() {
		out = append(out, s.Validate(path))
	}
	return out
}

func (r *ValidationReport) check(tree string, n *domain.Node, required []string) {
	_, err := n.AccumulatedProperties(required...)
	var missing *domain.MissingPropertiesError
	if errors.As(err, &missing) {
		r.Problems = append(r.Problems, Problem{Tree: tree, ID: n.ID(), Missing: missing.Missing})
	}
}
