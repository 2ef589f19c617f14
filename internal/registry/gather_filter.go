package registry

import (
	"slices"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// NameFilter wraps a Gatherer and restricts its output to the families
// named in names, implementing the exposition endpoint's repeatable
// "name[]" query parameter. A nil or empty names list passes everything
// through unchanged.
type NameFilter struct {
	next  prometheus.Gatherer
	names []string
}

// NewNameFilter wraps next, filtering to names when non-empty.
func NewNameFilter(next prometheus.Gatherer, names []string) *NameFilter {
	return &NameFilter{next: next, names: names}
}

// Gather implements prometheus.Gatherer.
func (f *NameFilter) Gather() ([]*dto.MetricFamily, error) {
	families, err := f.next.Gather()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if len(f.names) == 0 {
		return families, nil
	}

	filtered := make([]*dto.MetricFamily, 0, len(families))

	for _, fam := range families {
		if fam.Name != nil && slices.Contains(f.names, *fam.Name) {
			filtered = append(filtered, fam)
		}
	}

	return filtered, nil
}
