package ata

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the minimum token Jaccard similarity for a fuzzy match
const MatchThreshold = 0.5

// minContainedLen keeps very short labels from matching by containment
const minContainedLen = 4

// MatchKind says how a finding was paired with a checklist item
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchContains MatchKind = "contains"
	MatchFuzzy    MatchKind = "fuzzy"
)

// Candidate is a checklist item that findings may be matched to
type Candidate struct {
	ID   uuid.UUID
	Text string
}

// Match pairs a finding (by index) with a checklist item
type Match struct {
	FindingIndex int
	ItemID       uuid.UUID
	Kind         MatchKind
	Score        float64
}

var stopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "e": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "no": {}, "na": {}, "nos": {}, "nas": {}, "um": {}, "uma": {}, "para": {}, "com": {},
	"por": {}, "ao": {}, "se": {},
}

// Normalize lower-cases s, strips accents and collapses punctuation to single spaces
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Join(strings.FieldsFunc(out, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

func tokens(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if _, skip := stopwords[w]; skip {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b| over the content tokens of two strings
func Jaccard(a, b string) float64 {
	return jaccard(tokens(Normalize(a)), tokens(Normalize(b)))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

type scoredPair struct {
	finding   int
	candidate int
	score     float64
}

func sortPairs(pairs []scoredPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.finding != b.finding {
			return a.finding < b.finding
		}
		return a.candidate < b.candidate
	})
}

type preparedCandidate struct {
	id     uuid.UUID
	norm   string
	tokens map[string]struct{}
	used   bool
}

// MatchFindings pairs findings with checklist items.
// Exact matches are resolved first across all findings, then containment,
// then token similarity at or above MatchThreshold. Within a pass the
// highest-scoring pair is assigned first, so a finding listed earlier never
// takes an item that a later finding matches better. Ties go to the earlier
// finding, then to the earlier item. Each item is used at most once.
func MatchFindings(findings []Finding, candidates []Candidate) []Match {
	prepared := make([]*preparedCandidate, 0, len(candidates))
	for _, c := range candidates {
		n := Normalize(c.Text)
		if n == "" {
			continue
		}
		prepared = append(prepared, &preparedCandidate{id: c.ID, norm: n, tokens: tokens(n)})
	}

	type pending struct {
		idx    int
		norm   string
		tokens map[string]struct{}
	}
	var open []pending
	for i, f := range findings {
		n := Normalize(f.Item)
		if n == "" {
			continue
		}
		open = append(open, pending{idx: i, norm: n, tokens: tokens(n)})
	}

	var matches []Match
	passes := []struct {
		kind   MatchKind
		accept func(p pending, c *preparedCandidate) (float64, bool)
	}{
		{MatchExact, func(p pending, c *preparedCandidate) (float64, bool) {
			return 1, p.norm == c.norm
		}},
		{MatchContains, func(p pending, c *preparedCandidate) (float64, bool) {
			short, long := p.norm, c.norm
			if len(short) > len(long) {
				short, long = long, short
			}
			if len(short) < minContainedLen || !strings.Contains(long, short) {
				return 0, false
			}
			return jaccard(p.tokens, c.tokens), true
		}},
		{MatchFuzzy, func(p pending, c *preparedCandidate) (float64, bool) {
			s := jaccard(p.tokens, c.tokens)
			return s, s >= MatchThreshold
		}},
	}

	for _, pass := range passes {
		var pairs []scoredPair
		for pi, p := range open {
			for ci, c := range prepared {
				if c.used {
					continue
				}
				if score, ok := pass.accept(p, c); ok {
					pairs = append(pairs, scoredPair{finding: pi, candidate: ci, score: score})
				}
			}
		}
		sortPairs(pairs)

		taken := make([]bool, len(open))
		for _, pair := range pairs {
			c := prepared[pair.candidate]
			if taken[pair.finding] || c.used {
				continue
			}
			taken[pair.finding], c.used = true, true
			matches = append(matches, Match{FindingIndex: open[pair.finding].idx, ItemID: c.id, Kind: pass.kind, Score: pair.score})
		}

		var rest []pending
		for pi, p := range open {
			if !taken[pi] {
				rest = append(rest, p)
			}
		}
		open = rest
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].FindingIndex < matches[j].FindingIndex })
	return matches
}
