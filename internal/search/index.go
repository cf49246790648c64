package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/pulsefeed/pulse/internal/models"
)

var folder = cases.Fold()

// Index is an inverted index over feed item titles, descriptions, and
// tags. It is built once per pipeline pass and read concurrently; it is
// never mutated after Build returns.
type Index struct {
	postings map[string]map[string]bool
}

// Build indexes the given items. Thread children are indexed under the
// parent id so a match inside a collapsed thread surfaces the thread.
func Build(items []models.ActivityItem) *Index {
	idx := &Index{postings: make(map[string]map[string]bool)}
	for _, item := range items {
		idx.add(item.ID, item)
		for _, child := range item.Thread {
			idx.add(item.ID, child)
		}
	}
	return idx
}

func (idx *Index) add(id string, item models.ActivityItem) {
	for _, token := range Tokenize(item.Title) {
		idx.post(token, id)
	}
	for _, token := range Tokenize(item.Description) {
		idx.post(token, id)
	}
	for _, tag := range item.Tags {
		for _, token := range Tokenize(tag) {
			idx.post(token, id)
		}
	}
}

func (idx *Index) post(token, id string) {
	ids, ok := idx.postings[token]
	if !ok {
		ids = make(map[string]bool)
		idx.postings[token] = ids
	}
	ids[id] = true
}

// Query returns the ids of items matching every token in the query.
// A query token matches an indexed token exactly or as a prefix. The
// result is sorted so identical queries return identical slices.
func (idx *Index) Query(query string) []string {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var result map[string]bool
	for _, token := range tokens {
		matched := idx.matchToken(token)
		if len(matched) == 0 {
			return nil
		}
		if result == nil {
			result = matched
			continue
		}
		for id := range result {
			if !matched[id] {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}

	ids := make([]string, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (idx *Index) matchToken(token string) map[string]bool {
	matched := make(map[string]bool)
	for indexed, ids := range idx.postings {
		if indexed == token || strings.HasPrefix(indexed, token) {
			for id := range ids {
				matched[id] = true
			}
		}
	}
	return matched
}

// Tokenize splits text on non-alphanumeric runes and case-folds each
// token, so "Go-Redis" and "go redis" index identically.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		tokens = append(tokens, folder.String(field))
	}
	return tokens
}
