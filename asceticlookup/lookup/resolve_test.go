package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
)

func TestResolveBindsColumnAndLookup(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	tests := []struct {
		key    string
		entity string
		column string
		lookup string
		path   []string
	}{
		{"value__gt", "Variable", "value", "gt", nil},
		{"value", "Variable", "value", "exact", nil},
		{"attribute__description__icontains", "Attribute", "description", "icontains", []string{"attribute"}},
		{"attribute__description", "Attribute", "description", "exact", []string{"attribute"}},
		{"attribute__database__name__startswith", "Database", "name", "startswith", []string{"attribute", "database"}},
		{"attribute__database__name", "Database", "name", "exact", []string{"attribute", "database"}},
		{"pk", "Variable", "id", "exact", nil},
		{"attribute__pk__gte", "Attribute", "id", "gte", []string{"attribute"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			res, err := compiler.Resolve("Variable", Query{tt.key: "x"})
			require.NoError(t, err)
			require.Len(t, res.Entries, 1)
			entry := res.Entries[0]
			assert.Equal(t, tt.entity, entry.Entity)
			assert.Equal(t, tt.column, entry.Column.Name)
			assert.Equal(t, tt.lookup, entry.Lookup)
			assert.Equal(t, tt.path, entry.Path)
			assert.Len(t, res.Joins, len(tt.path))
		})
	}
}

func TestResolveJoins(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	res, err := compiler.Resolve("Variable", Query{"attribute__database__name": "main"})
	require.NoError(t, err)
	require.Len(t, res.Joins, 2)

	assert.Equal(t, "attribute", res.Joins[0].Alias())
	assert.Equal(t, "", res.Joins[0].ParentAlias())
	assert.Equal(t, "Variable", res.Joins[0].Source)
	assert.Equal(t, "Attribute", res.Joins[0].Relation.Target)

	assert.Equal(t, "attribute__database", res.Joins[1].Alias())
	assert.Equal(t, "attribute", res.Joins[1].ParentAlias())
	assert.Equal(t, "Attribute", res.Joins[1].Source)
	assert.Equal(t, "Database", res.Joins[1].Relation.Target)
}

func TestResolveKeepsDuplicateJoins(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	res, err := compiler.Resolve("Variable", Query{
		"attribute__description": "Foo",
		"attribute__id__in":      []int{1, 2},
	})
	require.NoError(t, err)
	assert.Len(t, res.Joins, 2)
	assert.Len(t, res.Entries, 2)
	// keys are resolved in lexical order
	assert.Equal(t, "attribute__description", res.Entries[0].Key)
	assert.Equal(t, "attribute__id__in", res.Entries[1].Key)
}

func TestResolveJSONSubkey(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	res, err := compiler.Resolve("Variable", Query{"extra->unit__icontains": "kg"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	entry := res.Entries[0]
	assert.Equal(t, "extra", entry.Column.Name)
	assert.Equal(t, "unit", entry.JSONKey)
	assert.Equal(t, s.JSONText(s.Field(s.GlobalScope(), "extra"), "unit"), entry.Operand())
	assert.Equal(t, s.ILike(entry.Operand(), s.Value("%kg%")), entry.Predicate)
}

func TestResolveRepeatedJSONSubkeyOverwrites(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	compiler := NewCompiler(newTestSchema(), WithLogger(zap.New(core)))

	res, err := compiler.Resolve("Variable", Query{"extra->unit__exact->scale": "2"})
	require.NoError(t, err)
	assert.Equal(t, "scale", res.Entries[0].JSONKey)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "json subkey overwritten", entry.Message)
	assert.Equal(t, "unit", entry.ContextMap()["previous"])
}

func TestResolveMalformedPath(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	tests := []struct {
		name string
		key  string
	}{
		{"token after lookup", "attribute__in__description"},
		{"lookup after lookup", "value__gt__lt"},
		{"relation after column", "attribute_id__attribute"},
		{"column after column", "value__id"},
		{"pk after column", "value__pk"},
		{"no column", "attribute"},
		{"only lookup", "gt"},
		{"subkey on a plain column", "value->unit"},
		{"nested subkey", "extra->a->b"},
		{"empty subkey", "extra->"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.Resolve("Variable", Query{tt.key: 1})
			assert.ErrorIs(t, err, ErrMalformedPath)

			var lookupErr *LookupError
			require.True(t, errors.As(err, &lookupErr))
			assert.Equal(t, tt.key, lookupErr.Key)
		})
	}
}

func TestResolveUnknownToken(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	_, err := compiler.Resolve("Variable", Query{"nonexistent_field": 1})
	require.ErrorIs(t, err, ErrUnknownToken)

	var lookupErr *LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "nonexistent_field", lookupErr.Token)
	assert.Equal(t, "Variable", lookupErr.Entity)
	assert.Equal(t, []string{"id", "value", "created_at", "extra", "attribute_id", "modeling_unit_id"}, lookupErr.Columns)
	assert.Equal(t, []string{"attribute", "modeling_unit"}, lookupErr.Relations)
	assert.Contains(t, lookupErr.Lookups, "exact")
	assert.Contains(t, lookupErr.Lookups, "unaccent_icontains")
	assert.Contains(t, err.Error(), "nonexistent_field")
	assert.Contains(t, err.Error(), "modeling_unit")

	_, err = compiler.Resolve("Variable", Query{"attribute__name": 1})
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, "Attribute", lookupErr.Entity)
	assert.Equal(t, []string{"database"}, lookupErr.Relations)
}

func TestResolveInvalidLookupValue(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	tests := []struct {
		key   string
		value any
	}{
		{"value__range", []int{1, 2, 3}},
		{"value__range", 5},
		{"value__in", 5},
		{"value__in", "abc"},
		{"value__gt", nil},
		{"created_at__isnull", "yes"},
		{"created_at__year", "2021"},
		{"attribute__description__contains", 5},
		{"extra__json_has_any", []any{"a", 1}},
		{"extra__json_has_key", 1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := compiler.Resolve("Variable", Query{tt.key: tt.value})
			assert.ErrorIs(t, err, ErrInvalidLookupValue)
		})
	}
}

func TestResolveOrder(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	res, err := compiler.ResolveOrder("Variable", []OrderTerm{
		{Key: "value", Direction: "desc"},
		{Key: "attribute__description", Direction: "asc"},
		{Key: "extra->unit", Direction: "asc"},
	})
	require.NoError(t, err)
	require.Len(t, res.Order, 3)
	assert.Len(t, res.Joins, 1)

	assert.Equal(t, Desc, res.Order[0].Direction)
	assert.Equal(t, s.Desc(s.Field(s.GlobalScope(), "value")), res.Order[0].Expression())
	assert.Equal(t, s.Field(s.Path("attribute"), "description"), res.Order[1].Expression())
	assert.Equal(t, s.JSONText(s.Field(s.GlobalScope(), "extra"), "unit"), res.Order[2].Expression())
}

func TestResolveOrderInvalidDirection(t *testing.T) {
	compiler := NewCompiler(newTestSchema())

	for _, direction := range []string{"", "ASC", "descending", "up"} {
		_, err := compiler.ResolveOrder("Variable", []OrderTerm{{Key: "value", Direction: direction}})
		assert.ErrorIs(t, err, ErrInvalidOrderDirection, direction)
	}

	_, err := compiler.ResolveOrder("Variable", []OrderTerm{{Key: "value__gt", Direction: "asc"}})
	assert.ErrorIs(t, err, ErrMalformedPath)
}

func TestParseOrderBy(t *testing.T) {
	terms, err := ParseOrderBy([]string{"-value", "attribute__description", "value"})
	require.NoError(t, err)
	assert.Equal(t, []OrderTerm{
		{Key: "value", Direction: "asc"},
		{Key: "attribute__description", Direction: "asc"},
	}, terms)

	_, err = ParseOrderBy([]string{"-"})
	assert.ErrorIs(t, err, ErrMalformedPath)
}

func TestWithLookups(t *testing.T) {
	positive := Lookup{
		Name:   "positive",
		Family: FamilyComparison,
		Build: func(operand s.Visitable, value any) (s.Visitable, error) {
			return s.GreaterThan(operand, s.Value(0)), nil
		},
	}
	compiler := NewCompiler(newTestSchema(), WithLookups(positive))

	res, err := compiler.Resolve("Variable", Query{"value__positive": true})
	require.NoError(t, err)
	assert.Equal(t, s.GreaterThan(s.Field(s.GlobalScope(), "value"), s.Value(0)), res.Entries[0].Predicate)
	assert.Equal(t, "positive", compiler.LookupNames()[len(compiler.LookupNames())-1])
}
