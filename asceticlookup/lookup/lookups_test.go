package lookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"
)

func TestLookupTable(t *testing.T) {
	names := make(map[string]Family)
	for _, l := range Lookups() {
		_, dup := names[l.Name]
		assert.False(t, dup, l.Name)
		assert.NotContains(t, l.Name, "__", l.Name)
		names[l.Name] = l.Family
	}
	for _, name := range []string{
		"eq", "exact", "gt", "lt", "gte", "lte", "in", "range",
		"iexact", "contains", "icontains", "startswith", "istartswith", "endswith", "iendswith",
		"unaccent_exact", "unaccent_iexact", "unaccent_contains", "unaccent_icontains",
		"unaccent_startswith", "unaccent_istartswith", "unaccent_endswith", "unaccent_iendswith",
		"json_contains", "json_contained_by", "json_has_key", "json_has_any", "json_has_all",
		"year", "month", "day", "isnull",
		"similarity", "word_similar_left", "word_similar_right",
		"strict_word_similar_left", "strict_word_similar_right",
	} {
		assert.Contains(t, names, name)
	}
	assert.Equal(t, FamilyJSON, names["json_has_all"])
	assert.Equal(t, FamilyTemporal, names["month"])
}

func build(t *testing.T, name string, value any) s.Visitable {
	t.Helper()
	for _, l := range Lookups() {
		if l.Name == name {
			predicate, err := l.Build(s.Field(s.GlobalScope(), "col"), value)
			require.NoError(t, err)
			return predicate
		}
	}
	t.Fatalf("lookup %s not found", name)
	return nil
}

func TestLookupPredicates(t *testing.T) {
	col := s.Field(s.GlobalScope(), "col")

	tests := []struct {
		name     string
		value    any
		expected s.Visitable
	}{
		{"exact", 1, s.Equal(col, s.Value(1))},
		{"exact", nil, s.IsNull(col)},
		{"eq", "a", s.Equal(col, s.Value("a"))},
		{"lte", 3, s.LessThanEqual(col, s.Value(3))},
		{"in", []int{1, 2}, s.In(col, s.Value([]any{1, 2}))},
		{"range", []any{1, 5}, s.Between(col, s.Value(1), s.Value(5))},
		{"iexact", "a_b", s.ILike(col, s.Value(`a\_b`))},
		{"contains", "50%", s.Like(col, s.Value(`%50\%%`))},
		{"istartswith", `c:\`, s.ILike(col, s.Value(`c:\\%`))},
		{"endswith", "x", s.Like(col, s.Value("%x"))},
		{"unaccent_exact", "Café", s.Equal(s.Unaccent(col), s.Unaccent(s.Value("Café")))},
		{"unaccent_icontains", "Café", s.ILike(s.Unaccent(col), s.Unaccent(s.Value("%Café%")))},
		{"json_has_key", "unit", s.NewInfixNode(col, operators.OperatorJSONHasKey, s.Value("unit"), s.NonAssociative)},
		{"json_has_all", []any{"a", "b"}, s.NewInfixNode(col, operators.OperatorJSONHasAll, s.Value([]string{"a", "b"}), s.NonAssociative)},
		{"json_contained_by", map[string]any{"a": 1}, s.NewInfixNode(col, operators.OperatorJSONContainedBy, s.Value(map[string]any{"a": 1}), s.NonAssociative)},
		{"year", 2021, s.Equal(s.DatePart("year", col), s.Value(2021))},
		{"isnull", true, s.IsNull(col)},
		{"isnull", false, s.IsNotNull(col)},
		{"similarity", "temp", s.NewInfixNode(col, operators.OperatorSimilar, s.Value("temp"), s.NonAssociative)},
		{"strict_word_similar_right", "temp", s.NewInfixNode(col, operators.OperatorStrictWordSimilarRight, s.Value("temp"), s.NonAssociative)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, build(t, tt.name, tt.value))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
