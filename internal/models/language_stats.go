package models

import "sort"

// LanguageStats maps a language label to its accumulated counters
type LanguageStats map[string]AuthorStats

// Clone returns an independent copy
func (l LanguageStats) Clone() LanguageStats {
	clone := make(LanguageStats, len(l))
	for lang, stats := range l {
		clone[lang] = stats
	}
	return clone
}

// MergeFrom adds every entry of other into l, inserting new keys
func (l LanguageStats) MergeFrom(other LanguageStats) {
	for lang, stats := range other {
		l[lang] = l[lang].Add(stats)
	}
}

// Total sums all languages
func (l LanguageStats) Total() AuthorStats {
	var total AuthorStats
	for _, stats := range l {
		total = total.Add(stats)
	}
	return total
}

// Languages returns the labels ordered by LOC descending, then name
func (l LanguageStats) Languages() []string {
	langs := make([]string, 0, len(l))
	for lang := range l {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool {
		if l[langs[i]].LOC != l[langs[j]].LOC {
			return l[langs[i]].LOC > l[langs[j]].LOC
		}
		return langs[i] < langs[j]
	})
	return langs
}

// LineCount is the line counter tool result for one category
type LineCount struct {
	Code  int `json:"code"`
	Files int `json:"files"`
}
