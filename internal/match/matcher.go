package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lcc/internal/core"
)

// Score weights. A prefix match always outranks a non-prefix match; inside each group
// word-boundary coverage dominates, then match compactness, then length and similarity.
const (
	exactBonus          = 4000.0
	prefixBonus         = 2000.0
	firstCharBonus      = 400.0
	boundaryPrefixBonus = 300.0
	boundaryMatchWeight = 100.0
	spreadPenalty       = 2.0
	lengthPenalty       = 1.0
	similarityScale     = 10.0
	caseMatchBonus      = 0.5
)

// Algorithm names accepted by NewMatcher
const (
	AlgorithmJaroWinkler = "jaro-winkler"
	AlgorithmLevenshtein = "levenshtein"
	AlgorithmNone        = "none"
)

// Matcher scores completion queries against identifiers.
//
// An identifier matches when the query is a subsequence of its text. Matching is
// smart-case: a query with no uppercase letters is compared case-insensitively, any
// uppercase letter makes the whole comparison case-sensitive.
//
// Matcher holds no mutable state and is safe for concurrent use.
type Matcher struct {
	algorithm string
}

var _ core.Scorer = (*Matcher)(nil)

// NewMatcher creates a matcher refining ties with the named similarity algorithm
func NewMatcher(algorithm string) *Matcher {
	switch algorithm {
	case AlgorithmJaroWinkler, AlgorithmLevenshtein, AlgorithmNone:
	default:
		algorithm = AlgorithmJaroWinkler
	}
	return &Matcher{algorithm: algorithm}
}

// Algorithm returns the configured similarity algorithm name
func (m *Matcher) Algorithm() string {
	return m.algorithm
}

// Score implements core.Scorer. An empty query matches everything with score 0.
func (m *Matcher) Score(query string, id *core.Identifier) (float64, bool) {
	if id == nil {
		return 0, false
	}
	if query == "" {
		return 0, true
	}

	caseSensitive := hasUpper(query)
	target := id.Lower()
	q := query
	if caseSensitive {
		target = id.Text()
	} else {
		q = strings.ToLower(query)
	}

	positions, ok := subsequencePositions(q, target)
	if !ok {
		return 0, false
	}

	lowerQuery := strings.ToLower(query)
	score := 0.0

	switch {
	case target == q:
		score += exactBonus
	case strings.HasPrefix(target, q):
		score += prefixBonus
	case positions[0] == 0:
		score += firstCharBonus
	}

	boundary := id.WordBoundaryChars()
	if boundary != "" {
		if strings.HasPrefix(boundary, lowerQuery) {
			score += boundaryPrefixBonus
		}
		score += boundaryMatchWeight * float64(longestCommonSubsequence(lowerQuery, boundary))
	}

	// Penalise scattered matches: distance between first and last matched rune beyond the
	// minimum the query needs
	spread := positions[len(positions)-1] - positions[0] + 1 - len(positions)
	score -= spreadPenalty * float64(spread)

	score -= lengthPenalty * float64(utf8.RuneCountInString(id.Text()))
	score += similarityScale * m.Similarity(lowerQuery, id.Lower())

	// Case-sensitive hits on mixed-case identifiers rank slightly higher
	if caseSensitive && !id.IsLower() {
		score += caseMatchBonus
	}

	return score, true
}

// Similarity returns the similarity of a and b in [0,1] using the configured algorithm
func (m *Matcher) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	var algo edlib.Algorithm
	switch m.algorithm {
	case AlgorithmNone:
		return 0.0
	case AlgorithmLevenshtein:
		algo = edlib.Levenshtein
	default:
		algo = edlib.JaroWinkler
	}

	// go-edlib normalises every algorithm to 0-1, higher is more similar
	sim, err := edlib.StringsSimilarity(a, b, algo)
	if err != nil {
		return 0.0
	}
	return float64(sim)
}

// subsequencePositions returns the rune index in target of each rune of query, matching
// greedily left to right. ok is false when query is not a subsequence of target.
func subsequencePositions(query, target string) ([]int, bool) {
	positions := make([]int, 0, len(query))
	ti := 0
	targetRunes := []rune(target)
	for _, qr := range query {
		found := false
		for ti < len(targetRunes) {
			tr := targetRunes[ti]
			ti++
			if tr == qr {
				positions = append(positions, ti-1)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return positions, len(positions) > 0
}

func longestCommonSubsequence(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for i := 1; i <= len(ar); i++ {
		for j := 1; j <= len(br); j++ {
			switch {
			case ar[i-1] == br[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
