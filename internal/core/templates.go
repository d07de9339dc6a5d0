package core

import (
	"sort"
	"strings"
)

// DetectThreshold is the minimum share of an adapter's labels a header must
// contain to be reported as a match.
const DetectThreshold = 0.7

// AdapterMatch is one candidate returned by DetectAdapter.
type AdapterMatch struct {
	Key        string   `json:"key"`
	Label      string   `json:"label"`
	MatchScore float64  `json:"matchScore"`
	Missing    []string `json:"missing,omitempty"`
}

// HeaderTemplate returns the CSV header row def expects.
func HeaderTemplate(def *AdapterDefinition) []string {
	return def.Labels()
}

// DetectAdapter scores every registered adapter against csvHeaders and
// returns those at or above DetectThreshold, best first.
func DetectAdapter(csvHeaders []string) []AdapterMatch {
	var matches []AdapterMatch
	for _, def := range All() {
		labels := HeaderTemplate(def)
		score := matchTemplateHeaders(csvHeaders, labels)
		if score < DetectThreshold {
			continue
		}
		matches = append(matches, AdapterMatch{
			Key:        def.Info.Key,
			Label:      def.Info.Label,
			MatchScore: score,
			Missing:    missingHeaders(csvHeaders, labels),
		})
	}

	// Sort by score descending, key ascending on ties
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].Key < matches[j].Key
	})

	return matches
}

func headerSet(headers []string) map[string]bool {
	set := make(map[string]bool, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = StripBOM(h)
		}
		set[strings.ToLower(strings.TrimSpace(h))] = true
	}
	return set
}

// matchTemplateHeaders calculates how well CSV headers match template headers.
func matchTemplateHeaders(csvHeaders, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	csvSet := headerSet(csvHeaders)

	matched := 0
	for _, h := range templateHeaders {
		if csvSet[strings.ToLower(strings.TrimSpace(h))] {
			matched++
		}
	}

	return float64(matched) / float64(len(templateHeaders))
}

func missingHeaders(csvHeaders, templateHeaders []string) []string {
	csvSet := headerSet(csvHeaders)
	var missing []string
	for _, h := range templateHeaders {
		if !csvSet[strings.ToLower(strings.TrimSpace(h))] {
			missing = append(missing, h)
		}
	}
	return missing
}
