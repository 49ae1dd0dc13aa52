// Package catalog holds the pure listing logic over a teacher collection:
// filtering, search, pagination, incremental page merging, and aggregates.
package catalog

import (
	"strings"

	"github.com/noah-isme/learnlingo-api/internal/models"
)

// All is the sentinel a client sends to disable a language or level filter.
const All = "all"

// Filter narrows a teacher listing. Zero values disable a predicate.
type Filter struct {
	Language string
	Level    string
	MaxPrice float64
	Search   string
	Offset   int
	Limit    int
}

// Page is one slice of a filtered listing. TotalCount counts the whole
// filtered set, not just the page.
type Page struct {
	Teachers   []models.Teacher `json:"teachers"`
	TotalCount int              `json:"totalCount"`
}

// FilterAndPaginate applies every active predicate conjunctively, counts the
// matches, then slices [Offset, Offset+Limit). A Limit <= 0 returns every
// match. The input order is preserved and the input slice is not modified.
func FilterAndPaginate(teachers []models.Teacher, f Filter) Page {
	candidates := Search(teachers, f.Search)
	filtered := candidates[:0]
	for _, t := range candidates {
		if matchesFacets(t, f) {
			filtered = append(filtered, t)
		}
	}

	total := len(filtered)
	if f.Limit <= 0 {
		return Page{Teachers: filtered, TotalCount: total}
	}

	start := f.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return Page{Teachers: filtered[start:end:end], TotalCount: total}
}

// matchesFacets checks the language, level, and price predicates.
func matchesFacets(t models.Teacher, f Filter) bool {
	if active(f.Language) && !contains(t.Languages, f.Language) {
		return false
	}
	if active(f.Level) && !contains(t.Levels, f.Level) {
		return false
	}
	return f.MaxPrice <= 0 || t.PricePerHour <= f.MaxPrice
}

// Search returns the teachers whose name, surname, languages, levels,
// experience, or lesson info contain term, case-insensitively.
func Search(teachers []models.Teacher, term string) []models.Teacher {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if term == "" || matchesTerm(t, term) {
			out = append(out, t)
		}
	}
	return out
}

// MergePages appends next to existing for "load more" listings. Records are
// keyed by ID: anything already shown keeps its position and first-seen copy.
func MergePages(existing, next []models.Teacher) []models.Teacher {
	seen := make(map[string]struct{}, len(existing)+len(next))
	merged := make([]models.Teacher, 0, len(existing)+len(next))
	for _, batch := range [][]models.Teacher{existing, next} {
		for _, t := range batch {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged
}

// ByIDs returns the teachers whose IDs appear in ids, in the order of ids.
// Unknown IDs are skipped.
func ByIDs(teachers []models.Teacher, ids []string) []models.Teacher {
	index := make(map[string]int, len(teachers))
	for i, t := range teachers {
		index[t.ID] = i
	}
	out := make([]models.Teacher, 0, len(ids))
	for _, id := range ids {
		if i, ok := index[id]; ok {
			out = append(out, teachers[i])
		}
	}
	return out
}

func active(v string) bool {
	return v != "" && v != All
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func matchesTerm(t models.Teacher, term string) bool {
	if strings.Contains(strings.ToLower(t.Name), term) ||
		strings.Contains(strings.ToLower(t.Surname), term) ||
		strings.Contains(strings.ToLower(t.Experience), term) ||
		strings.Contains(strings.ToLower(t.LessonInfo), term) {
		return true
	}
	for _, group := range [][]string{t.Languages, t.Levels} {
		for _, v := range group {
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
	}
	return false
}
