package operators

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

func registerComparison[T cmp.Ordered](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorEq, func(a, b T) (any, error) { return a == b, nil })
	RegisterBinary[T, T](reg, OperatorNe, func(a, b T) (any, error) { return a != b, nil })
	RegisterBinary[T, T](reg, OperatorGt, func(a, b T) (any, error) { return a > b, nil })
	RegisterBinary[T, T](reg, OperatorGte, func(a, b T) (any, error) { return a >= b, nil })
	RegisterBinary[T, T](reg, OperatorLt, func(a, b T) (any, error) { return a < b, nil })
	RegisterBinary[T, T](reg, OperatorLte, func(a, b T) (any, error) { return a <= b, nil })
}

// NewDefaultRegistry creates a registry with PostgreSQL-compatible operators
// for standard Go types.
func NewDefaultRegistry() *OperatorRegistry {
	reg := NewOperatorRegistry()

	// bool
	RegisterBinary[bool, bool](reg, OperatorEq, func(a, b bool) (any, error) { return a == b, nil })
	RegisterBinary[bool, bool](reg, OperatorNe, func(a, b bool) (any, error) { return a != b, nil })
	RegisterBinary[bool, bool](reg, OperatorIs, func(a, b bool) (any, error) { return a == b, nil })
	RegisterUnary[bool](reg, OperatorNot, func(a bool) (any, error) { return !a, nil })

	registerComparison[int64](reg)
	registerComparison[float64](reg)
	registerComparison[string](reg)

	// time.Time (timestamp)
	RegisterBinary[time.Time, time.Time](reg, OperatorEq, func(a, b time.Time) (any, error) { return a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorNe, func(a, b time.Time) (any, error) { return !a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorGt, func(a, b time.Time) (any, error) { return a.After(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorGte, func(a, b time.Time) (any, error) { return !a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLt, func(a, b time.Time) (any, error) { return a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLte, func(a, b time.Time) (any, error) { return !a.After(b), nil })

	// text patterns
	RegisterBinary[string, string](reg, OperatorLike, func(a, b string) (any, error) { return Like(a, b, false) })
	RegisterBinary[string, string](reg, OperatorILike, func(a, b string) (any, error) { return Like(a, b, true) })

	// pg_trgm
	RegisterBinary[string, string](reg, OperatorSimilar, func(a, b string) (any, error) {
		return Similarity(a, b) >= SimilarityThreshold, nil
	})
	RegisterBinary[string, string](reg, OperatorWordSimilarLeft, func(a, b string) (any, error) {
		return WordSimilarity(a, b) >= WordSimilarityThreshold, nil
	})
	RegisterBinary[string, string](reg, OperatorWordSimilarRight, func(a, b string) (any, error) {
		return WordSimilarity(b, a) >= WordSimilarityThreshold, nil
	})
	RegisterBinary[string, string](reg, OperatorStrictWordSimilarLeft, func(a, b string) (any, error) {
		return StrictWordSimilarity(a, b) >= StrictWordSimilarityThreshold, nil
	})
	RegisterBinary[string, string](reg, OperatorStrictWordSimilarRight, func(a, b string) (any, error) {
		return StrictWordSimilarity(b, a) >= StrictWordSimilarityThreshold, nil
	})

	// membership: x IN (a, b, ...), NULL when no match and a NULL member exists
	RegisterGeneric(reg, OperatorIn, func(left, right any) (any, error) {
		items, ok := toSlice(right)
		if !ok {
			return nil, fmt.Errorf("operator \"IN\" requires a list, got %T", right)
		}
		var sawNull bool
		for _, item := range items {
			if item == nil {
				sawNull = true
				continue
			}
			res, err := reg.ExecBinary(left, OperatorEq, item)
			if err != nil {
				return nil, err
			}
			if res == true {
				return true, nil
			}
		}
		if sawNull {
			return nil, nil
		}
		return false, nil
	})

	// jsonb
	RegisterGeneric(reg, OperatorJSONText, jsonText)
	RegisterGeneric(reg, OperatorJSONContains, func(left, right any) (any, error) {
		return jsonContains(left, right), nil
	})
	RegisterGeneric(reg, OperatorJSONContainedBy, func(left, right any) (any, error) {
		return jsonContains(right, left), nil
	})
	RegisterGeneric(reg, OperatorJSONHasKey, func(left, right any) (any, error) {
		key, ok := right.(string)
		if !ok {
			return nil, fmt.Errorf("operator \"?\" requires a text key, got %T", right)
		}
		return jsonHasKey(left, key), nil
	})
	RegisterGeneric(reg, OperatorJSONHasAny, func(left, right any) (any, error) {
		keys, err := textArray(OperatorJSONHasAny, right)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if jsonHasKey(left, key) {
				return true, nil
			}
		}
		return false, nil
	})
	RegisterGeneric(reg, OperatorJSONHasAll, func(left, right any) (any, error) {
		keys, err := textArray(OperatorJSONHasAll, right)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if !jsonHasKey(left, key) {
				return false, nil
			}
		}
		return true, nil
	})

	RegisterFunction(reg, "lower", func(args ...any) (any, error) {
		s, err := textArg("lower", args)
		if err != nil {
			return nil, err
		}
		return strings.ToLower(s), nil
	})
	RegisterFunction(reg, "unaccent", func(args ...any) (any, error) {
		s, err := textArg("unaccent", args)
		if err != nil {
			return nil, err
		}
		return Unaccent(s)
	})
	RegisterFunction(reg, "date_part", datePart)

	return reg
}

func textArg(name string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("function \"%s\" takes 1 argument, got %d", name, len(args))
	}
	s, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("function \"%s\" requires text, got %T", name, args[0])
	}
	return s, nil
}

func textArray(op Operator, v any) ([]string, error) {
	items, ok := toSlice(v)
	if !ok {
		return nil, fmt.Errorf("operator \"%s\" requires a text array, got %T", op, v)
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		key, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("operator \"%s\" requires a text array, got element %T", op, item)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func datePart(args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("function \"date_part\" takes 2 arguments, got %d", len(args))
	}
	field, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("function \"date_part\" requires a text field, got %T", args[0])
	}
	t, ok := args[1].(time.Time)
	if !ok {
		return nil, fmt.Errorf("function \"date_part\" requires a timestamp, got %T", args[1])
	}
	switch field {
	case "year":
		return float64(t.Year()), nil
	case "month":
		return float64(t.Month()), nil
	case "day":
		return float64(t.Day()), nil
	case "hour":
		return float64(t.Hour()), nil
	}
	return nil, fmt.Errorf("date_part field \"%s\" is not supported", field)
}

func jsonText(left, right any) (any, error) {
	obj, ok := left.(map[string]any)
	if !ok {
		return nil, nil
	}
	key, ok := right.(string)
	if !ok {
		return nil, fmt.Errorf("operator \"->>\" requires a text key, got %T", right)
	}
	value, ok := obj[key]
	if !ok || value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonHasKey(doc any, key string) bool {
	switch d := doc.(type) {
	case map[string]any:
		_, ok := d[key]
		return ok
	default:
		items, ok := toSlice(doc)
		if !ok {
			return false
		}
		for _, item := range items {
			if s, ok := item.(string); ok && s == key {
				return true
			}
		}
	}
	return false
}

// jsonContains follows jsonb @> semantics.
func jsonContains(container, contained any) bool {
	switch c := contained.(type) {
	case map[string]any:
		obj, ok := container.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range c {
			inner, ok := obj[k]
			if !ok || !jsonContains(inner, v) {
				return false
			}
		}
		return true
	}
	if items, ok := toSlice(contained); ok {
		outer, ok := toSlice(container)
		if !ok {
			return false
		}
		for _, item := range items {
			found := false
			for _, candidate := range outer {
				if jsonContains(candidate, item) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	l, r := widen(coerce(container), coerce(contained))
	return l == r
}
