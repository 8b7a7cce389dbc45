package rag

import "strings"

// Vector-store preference values accepted on the wire and in question configs.
const (
	PreferenceAuto             = "auto"
	PreferenceEnsemble         = "ensemble"
	PreferenceBySpecialization = "by_specialization"
)

// specializationKeywords maps substrings of the user's declared specialization
// to domain tags. Order matters: the first matching keyword wins.
var specializationKeywords = []struct {
	keyword string
	domain  string
}{
	{"аналитик", "bsa"},
	{"тестировщик", "test"},
	{"web", "web"},
	{"фронтенд", "web"},
	{"java", "java"},
	{"python", "python"},
}

// Select resolves the retriever for a request. It is a pure function of its two
// arguments over an immutable index set, so identical inputs always yield the
// identical retriever.
//
// Resolution order: a preference naming an existing domain index wins; then the
// explicit ensemble preference; then a case-insensitive keyword match of the
// specialization (only when the matched domain actually has an index); the
// ensemble view is the fallback for everything else.
func (s *IndexSet) Select(specialization, preference string) Retriever {
	preference = strings.ToLower(strings.TrimSpace(preference))

	switch preference {
	case "", PreferenceAuto, PreferenceBySpecialization:
		if idx, ok := s.matchSpecialization(specialization); ok {
			return idx
		}
		return s.ensemble
	case PreferenceEnsemble:
		return s.ensemble
	default:
		if idx, ok := s.indices[preference]; ok {
			return idx
		}
		return s.ensemble
	}
}

func (s *IndexSet) matchSpecialization(specialization string) (*CorpusIndex, bool) {
	lowered := strings.ToLower(specialization)
	for _, entry := range specializationKeywords {
		if strings.Contains(lowered, entry.keyword) {
			if idx, ok := s.indices[entry.domain]; ok {
				return idx, true
			}
			return nil, false
		}
	}
	return nil, false
}
