package index

import (
	"sort"
	"strings"

	"github.com/latticedb/lattice/pkg/types"
)

// fulltextIndex is a minimal inverted index: token -> set of entity
// ids containing it, plus a per-(id,token) frequency used to rank
// results. No external stemmer or stopword list (spec §4.D marks
// stemming/stopwords optional); tokenization is lowercase,
// non-alphanumeric-run-delimited.
type fulltextIndex struct {
	spec   Spec
	postings map[string]map[string]int // token -> id -> frequency
	docs     map[string][]string       // id -> its tokens, for removal
	hits, misses int
}

func newFulltextIndex(spec Spec) *fulltextIndex {
	return &fulltextIndex{spec: spec, postings: map[string]map[string]int{}, docs: map[string][]string{}}
}

func tokenize(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return out
}

func (f *fulltextIndex) index(id, text string) {
	f.remove(id)
	tokens := tokenize(text)
	f.docs[id] = tokens
	for _, tok := range tokens {
		if f.postings[tok] == nil {
			f.postings[tok] = map[string]int{}
		}
		f.postings[tok][id]++
	}
}

func (f *fulltextIndex) remove(id string) {
	for _, tok := range f.docs[id] {
		if m := f.postings[tok]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(f.postings, tok)
			}
		}
	}
	delete(f.docs, id)
}

func (f *fulltextIndex) entryCount() int {
	total := 0
	for _, m := range f.postings {
		total += len(m)
	}
	return total
}

// searchResult pairs a matched id with its aggregate score across
// query tokens.
type searchResult struct {
	ID    string
	Score int
}

// Search ranks ids by the sum of per-token frequency across every
// query token present in the index.
func (f *fulltextIndex) search(query string, limit int) []searchResult {
	scores := map[string]int{}
	for _, tok := range tokenize(query) {
		for id, freq := range f.postings[tok] {
			scores[id] += freq
		}
	}
	if len(scores) > 0 {
		f.hits++
	} else {
		f.misses++
	}

	out := make([]searchResult, 0, len(scores))
	for id, score := range scores {
		out = append(out, searchResult{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Search exposes full-text ranked lookup on a declared index by name.
func (m *Manager) Search(indexName, query string, limit int) ([]searchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ft, ok := m.fulltext[indexName]
	if !ok {
		return nil, types.NewNotFoundError("index.search", indexName)
	}
	return ft.search(query, limit), nil
}
