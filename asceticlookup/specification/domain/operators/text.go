package operators

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pg_trgm defaults
const (
	SimilarityThreshold           = 0.3
	WordSimilarityThreshold       = 0.6
	StrictWordSimilarityThreshold = 0.5
)

// Like matches s against a SQL LIKE pattern using backslash as the escape character.
func Like(s, pattern string, insensitive bool) (bool, error) {
	var b strings.Builder
	b.WriteString("(?s")
	if insensitive {
		b.WriteString("i")
	}
	b.WriteString(")^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// Unaccent strips combining marks, like the PostgreSQL unaccent extension
// does for Latin text.
func Unaccent(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Similarity is the pg_trgm similarity of two strings.
func Similarity(a, b string) float64 {
	return jaccard(trigrams(a), trigrams(b))
}

// WordSimilarity approximates pg_trgm word_similarity as the share of
// trigrams of a found in b.
func WordSimilarity(a, b string) float64 {
	ta := trigrams(a)
	if len(ta) == 0 {
		return 0
	}
	tb := trigrams(b)
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta))
}

// StrictWordSimilarity compares a against whole words of b only.
func StrictWordSimilarity(a, b string) float64 {
	best := 0.0
	ta := trigrams(a)
	for _, word := range words(b) {
		if sim := jaccard(ta, trigrams(word)); sim > best {
			best = sim
		}
	}
	return best
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func trigrams(s string) map[string]struct{} {
	result := make(map[string]struct{})
	for _, w := range words(s) {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			result[string(padded[i:i+3])] = struct{}{}
		}
	}
	return result
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if _, ok := b[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(a)+len(b)-shared)
}

func toSlice(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar, not a list
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
