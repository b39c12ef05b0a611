package lookup

import (
	"fmt"
	"reflect"
	"strings"

	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"
)

type Family string

const (
	FamilyComparison Family = "comparison"
	FamilyText       Family = "text"
	FamilyJSON       Family = "json"
	FamilyTemporal   Family = "temporal"
	FamilyNull       Family = "null"
	FamilySimilarity Family = "similarity"
)

// BuildFunc turns an operand and a caller supplied value into a predicate
type BuildFunc func(operand s.Visitable, value any) (s.Visitable, error)

type Lookup struct {
	Name   string
	Family Family
	Build  BuildFunc
}

// DefaultLookup is applied to keys without an explicit lookup token
const DefaultLookup = "exact"

// Lookups returns the lookup table in its canonical order
func Lookups() []Lookup {
	table := []Lookup{
		{"eq", FamilyComparison, exact},
		{"exact", FamilyComparison, exact},
		{"gt", FamilyComparison, comparison(s.GreaterThan)},
		{"lt", FamilyComparison, comparison(s.LessThan)},
		{"gte", FamilyComparison, comparison(s.GreaterThanEqual)},
		{"lte", FamilyComparison, comparison(s.LessThanEqual)},
		{"in", FamilyComparison, in},
		{"range", FamilyComparison, between},
	}
	text := []struct {
		name string
		fn   func(operand, pattern s.Visitable) s.InfixNode
		wrap func(string) string
	}{
		{"iexact", s.ILike, func(v string) string { return escapeLike(v) }},
		{"contains", s.Like, func(v string) string { return "%" + escapeLike(v) + "%" }},
		{"icontains", s.ILike, func(v string) string { return "%" + escapeLike(v) + "%" }},
		{"startswith", s.Like, func(v string) string { return escapeLike(v) + "%" }},
		{"istartswith", s.ILike, func(v string) string { return escapeLike(v) + "%" }},
		{"endswith", s.Like, func(v string) string { return "%" + escapeLike(v) }},
		{"iendswith", s.ILike, func(v string) string { return "%" + escapeLike(v) }},
	}
	for _, t := range text {
		table = append(table, Lookup{t.name, FamilyText, pattern(t.fn, t.wrap, false)})
	}
	table = append(table, Lookup{"unaccent_exact", FamilyText, unaccentExact})
	for _, t := range text {
		table = append(table, Lookup{"unaccent_" + t.name, FamilyText, pattern(t.fn, t.wrap, true)})
	}
	return append(table,
		Lookup{"json_contains", FamilyJSON, document(operators.OperatorJSONContains)},
		Lookup{"json_contained_by", FamilyJSON, document(operators.OperatorJSONContainedBy)},
		Lookup{"json_has_key", FamilyJSON, hasKey},
		Lookup{"json_has_any", FamilyJSON, hasKeys(operators.OperatorJSONHasAny)},
		Lookup{"json_has_all", FamilyJSON, hasKeys(operators.OperatorJSONHasAll)},
		Lookup{"year", FamilyTemporal, datePart("year")},
		Lookup{"month", FamilyTemporal, datePart("month")},
		Lookup{"day", FamilyTemporal, datePart("day")},
		Lookup{"isnull", FamilyNull, isNull},
		Lookup{"similarity", FamilySimilarity, similarity(operators.OperatorSimilar)},
		Lookup{"word_similar_left", FamilySimilarity, similarity(operators.OperatorWordSimilarLeft)},
		Lookup{"word_similar_right", FamilySimilarity, similarity(operators.OperatorWordSimilarRight)},
		Lookup{"strict_word_similar_left", FamilySimilarity, similarity(operators.OperatorStrictWordSimilarLeft)},
		Lookup{"strict_word_similar_right", FamilySimilarity, similarity(operators.OperatorStrictWordSimilarRight)},
	)
}

func exact(operand s.Visitable, value any) (s.Visitable, error) {
	if value == nil {
		return s.IsNull(operand), nil
	}
	return s.Equal(operand, s.Value(value)), nil
}

func comparison(fn func(left, right s.Visitable) s.InfixNode) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		if value == nil {
			return nil, fmt.Errorf("cannot compare with null")
		}
		return fn(operand, s.Value(value)), nil
	}
}

func in(operand s.Visitable, value any) (s.Visitable, error) {
	items, ok := asList(value)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", value)
	}
	return s.In(operand, s.Value(items)), nil
}

func between(operand s.Visitable, value any) (s.Visitable, error) {
	items, ok := asList(value)
	if !ok || len(items) != 2 {
		return nil, fmt.Errorf("expected a [low, high] pair, got %v", value)
	}
	if items[0] == nil || items[1] == nil {
		return nil, fmt.Errorf("range bounds cannot be null")
	}
	return s.Between(operand, s.Value(items[0]), s.Value(items[1])), nil
}

// escapeLike quotes the LIKE wildcards of a literal with backslashes
func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func pattern(fn func(operand, pattern s.Visitable) s.InfixNode, wrap func(string) string, unaccent bool) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", value)
		}
		var right s.Visitable = s.Value(wrap(text))
		if unaccent {
			operand = s.Unaccent(operand)
			right = s.Unaccent(right)
		}
		return fn(operand, right), nil
	}
}

func unaccentExact(operand s.Visitable, value any) (s.Visitable, error) {
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected text, got %T", value)
	}
	return s.Equal(s.Unaccent(operand), s.Unaccent(s.Value(text))), nil
}

func document(op operators.Operator) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		if value == nil {
			return nil, fmt.Errorf("expected a json document, got null")
		}
		return s.NewInfixNode(operand, op, s.Value(value), s.NonAssociative), nil
	}
}

func hasKey(operand s.Visitable, value any) (s.Visitable, error) {
	key, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected a text key, got %T", value)
	}
	return s.NewInfixNode(operand, operators.OperatorJSONHasKey, s.Value(key), s.NonAssociative), nil
}

func hasKeys(op operators.Operator) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		items, ok := asList(value)
		if !ok {
			return nil, fmt.Errorf("expected a list of keys, got %T", value)
		}
		keys := make([]string, len(items))
		for i, item := range items {
			key, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a text key, got %T", item)
			}
			keys[i] = key
		}
		return s.NewInfixNode(operand, op, s.Value(keys), s.NonAssociative), nil
	}
}

func datePart(field string) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		switch reflect.ValueOf(value).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return s.Equal(s.DatePart(field, operand), s.Value(value)), nil
		}
		return nil, fmt.Errorf("expected a number, got %T", value)
	}
}

func isNull(operand s.Visitable, value any) (s.Visitable, error) {
	flag, ok := value.(bool)
	if !ok {
		return nil, fmt.Errorf("expected a bool, got %T", value)
	}
	if flag {
		return s.IsNull(operand), nil
	}
	return s.IsNotNull(operand), nil
}

func similarity(op operators.Operator) BuildFunc {
	return func(operand s.Visitable, value any) (s.Visitable, error) {
		text, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", value)
		}
		return s.NewInfixNode(operand, op, s.Value(text), s.NonAssociative), nil
	}
}

// asList accepts any slice or array except text and bytes
func asList(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
