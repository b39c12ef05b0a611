package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Money struct {
	amount   int
	currency string
}

func (m Money) Equal(other EqualOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount == o.amount && m.currency == o.currency
}

func (m Money) GreaterThan(other GreaterThanOperand) bool {
	o, ok := other.(Money)
	return ok && m.amount > o.amount
}

func TestInterfaceFallback(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecBinary(Money{100, "USD"}, OperatorEq, Money{100, "USD"})
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = reg.ExecBinary(Money{100, "USD"}, OperatorNe, Money{100, "EUR"})
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = reg.ExecBinary(Money{50, "USD"}, OperatorGt, Money{100, "USD"})
	require.NoError(t, err)
	assert.Equal(t, false, result)

	_, err = reg.ExecBinary(Money{50, "USD"}, OperatorLt, Money{100, "USD"})
	assert.Error(t, err)
}

func TestNullPropagation(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecBinary(nil, OperatorEq, 1)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = reg.ExecBinary("a", OperatorLike, nil)
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = reg.ExecUnary(OperatorIsNull, nil)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = reg.ExecFunction("lower", nil)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestNumericCoercion(t *testing.T) {
	reg := NewDefaultRegistry()

	tests := []struct {
		name     string
		left     any
		op       Operator
		right    any
		expected bool
	}{
		{"int = int64", 2, OperatorEq, int64(2), true},
		{"int32 > int", int32(3), OperatorGt, 2, true},
		{"float64 >= int", 2.0, OperatorGte, 2, true},
		{"int < float32", 1, OperatorLt, float32(1.5), true},
		{"uint8 <= int", uint8(7), OperatorLte, 6, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ExecBinary(tt.left, tt.op, tt.right)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestLike(t *testing.T) {
	tests := []struct {
		value       string
		pattern     string
		insensitive bool
		expected    bool
	}{
		{"Foobar", "%oba%", false, true},
		{"Foobar", "foo%", false, false},
		{"Foobar", "foo%", true, true},
		{"Foobar", "F_obar", false, true},
		{"100%", "100\\%", false, true},
		{"1000", "100\\%", false, false},
		{"a.b", "a.b", false, true},
		{"axb", "a.b", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value+" "+tt.pattern, func(t *testing.T) {
			result, err := Like(tt.value, tt.pattern, tt.insensitive)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIn(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecBinary(2, OperatorIn, []any{int64(1), int64(2)})
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = reg.ExecBinary("c", OperatorIn, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, false, result)

	result, err = reg.ExecBinary("c", OperatorIn, []any{"a", nil})
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = reg.ExecBinary("c", OperatorIn, "abc")
	assert.Error(t, err)
}

func TestJSONOperators(t *testing.T) {
	reg := NewDefaultRegistry()
	doc := map[string]any{
		"unit":  "kg",
		"tags":  []any{"a", "b"},
		"scale": 2,
		"meta":  map[string]any{"source": "sensor"},
	}

	tests := []struct {
		name     string
		op       Operator
		right    any
		expected any
	}{
		{"text of string", OperatorJSONText, "unit", "kg"},
		{"text of number", OperatorJSONText, "scale", "2"},
		{"text of missing", OperatorJSONText, "missing", nil},
		{"contains", OperatorJSONContains, map[string]any{"meta": map[string]any{"source": "sensor"}}, true},
		{"contains array subset", OperatorJSONContains, map[string]any{"tags": []any{"b"}}, true},
		{"does not contain", OperatorJSONContains, map[string]any{"unit": "g"}, false},
		{"has key", OperatorJSONHasKey, "tags", true},
		{"has any", OperatorJSONHasAny, []string{"x", "unit"}, true},
		{"has all", OperatorJSONHasAll, []any{"unit", "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := reg.ExecBinary(doc, tt.op, tt.right)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}

	result, err := reg.ExecBinary(map[string]any{"unit": "kg"}, OperatorJSONContainedBy, doc)
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestFunctions(t *testing.T) {
	reg := NewDefaultRegistry()

	result, err := reg.ExecFunction("unaccent", "Ação Café")
	require.NoError(t, err)
	assert.Equal(t, "Acao Cafe", result)

	result, err = reg.ExecFunction("lower", "MiXeD")
	require.NoError(t, err)
	assert.Equal(t, "mixed", result)

	ts := time.Date(2023, time.March, 14, 10, 0, 0, 0, time.UTC)
	result, err = reg.ExecFunction("date_part", "month", ts)
	require.NoError(t, err)
	assert.Equal(t, 3.0, result)

	result, err = reg.ExecBinary(result, OperatorEq, 3)
	require.NoError(t, err)
	assert.Equal(t, true, result)

	_, err = reg.ExecFunction("md5", "x")
	assert.Error(t, err)
}

func TestTrigramSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("word", "word"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.Greater(t, Similarity("temperature", "temperatura"), SimilarityThreshold)
	assert.Greater(t, WordSimilarity("word", "two words"), WordSimilarityThreshold)
	assert.InDelta(t, 1.0, StrictWordSimilarity("word", "a word here"), 1e-9)

	reg := NewDefaultRegistry()
	result, err := reg.ExecBinary("temperature", OperatorSimilar, "temperatura")
	require.NoError(t, err)
	assert.Equal(t, true, result)
}
