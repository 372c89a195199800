package search

import (
	"github.com/nikbrunner/bmpop/internal/model"
	"github.com/sahilm/fuzzy"
)

// SearchResult represents a fuzzy search match.
type SearchResult struct {
	Record         model.Record
	MatchedIndexes []int // rune positions in Record.Title
	Score          int
}

// recordTitles implements fuzzy.Source for a record slice.
type recordTitles []model.Record

func (rt recordTitles) String(i int) string {
	return rt[i].Title
}

func (rt recordTitles) Len() int {
	return len(rt)
}

// FuzzySearch searches records by title using fuzzy matching.
// Returns results sorted by match score (best first).
func FuzzySearch(records []model.Record, query string) []SearchResult {
	if query == "" {
		return nil
	}

	matches := fuzzy.FindFrom(query, recordTitles(records))

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Record:         records[m.Index],
			MatchedIndexes: runeIndexes(m.Str, m.MatchedIndexes),
			Score:          m.Score,
		}
	}

	return results
}

// runeIndexes converts the ascending byte offsets fuzzy reports into rune
// positions in s.
func runeIndexes(s string, offsets []int) []int {
	if len(offsets) == 0 {
		return nil
	}
	out := make([]int, 0, len(offsets))
	pos, next := 0, 0
	for i := range s {
		if next == len(offsets) {
			break
		}
		if offsets[next] == i {
			out = append(out, pos)
			next++
		}
		pos++
	}
	return out
}

// Filter returns the records whose title fuzzy-matches query, in their
// original order. An empty query returns records unchanged.
func Filter(records []model.Record, query string) []model.Record {
	if query == "" {
		return records
	}

	matches := fuzzy.FindFrom(query, recordTitles(records))
	keep := make([]bool, len(records))
	for _, m := range matches {
		keep[m.Index] = true
	}

	out := make([]model.Record, 0, len(matches))
	for i, r := range records {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
