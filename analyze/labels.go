package analyze

import (
	"sort"
	"strings"

	"github.com/dhcgn/mbox-stats/config"
)

// labelPolicy is a compiled config.LabelPolicy.
type labelPolicy struct {
	header   string
	boring   map[string]struct{}
	prefixes []string
}

func compileLabelPolicy(policy config.LabelPolicy) labelPolicy {
	boring := make(map[string]struct{}, len(policy.BoringLabels))
	for _, label := range policy.BoringLabels {
		boring[label] = struct{}{}
	}
	return labelPolicy{
		header:   policy.LabelHeader,
		boring:   boring,
		prefixes: policy.BoringPrefixes,
	}
}

// filterLabels drops boring labels from a comma-separated list and returns
// the survivors. Tokens are matched verbatim, without trimming.
func (p labelPolicy) filterLabels(commaSeparated string) []string {
	labels := strings.Split(commaSeparated, ",")
	good := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := p.boring[label]; ok {
			continue
		}
		if p.hasBoringPrefix(label) {
			continue
		}
		good = append(good, label)
	}
	return good
}

func (p labelPolicy) hasBoringPrefix(label string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(label, prefix) {
			return true
		}
	}
	return false
}

// canonicalLabels produces the canonical label string: interesting labels
// sorted lexicographically and joined with commas. Duplicates survive, they
// are sorted, not collapsed.
func (p labelPolicy) canonicalLabels(commaSeparated string) string {
	labels := p.filterLabels(commaSeparated)
	sort.Strings(labels)
	return strings.Join(labels, ",")
}
