package lookup

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup/pkcodec"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
)

type Mode int

const (
	ModeFilter Mode = iota
	ModeExclude
)

const (
	primaryKeyInKey = primaryKeyToken + tokenSeparator + "in"
	identityColumn  = "id"
)

// ExpandCompositeKey rewrites the "pk" and "pk__in" keys of a query into
// lookups on the real primary key columns. Other uses of "pk" are rejected,
// as is more than one such key. Excludes only constrain the identity
// component: the "id" column, or the first key column when there is none.
// Queries on entities with a simple primary key are returned unchanged.
func ExpandCompositeKey(query Query, mode Mode, primaryKey []schema.Column, codec pkcodec.Codec) (Query, error) {
	if len(primaryKey) < 2 {
		return query, nil
	}

	var familyKey string
	for _, key := range sortedKeys(query) {
		if !hasPrimaryKeyToken(key) {
			continue
		}
		if key != primaryKeyToken && key != primaryKeyInKey {
			return nil, newError(
				ErrUnsupportedCompositeKeyUsage, "", key, primaryKeyToken,
				"composite primary keys support only \"pk\" and \"pk__in\"",
			)
		}
		if familyKey != "" {
			return nil, newError(
				ErrAmbiguousCompositeKeyFilter, "", key, primaryKeyToken,
				fmt.Sprintf("already filtered by \"%s\"", familyKey),
			)
		}
		familyKey = key
	}
	if familyKey == "" {
		return query, nil
	}

	columns := make([]string, len(primaryKey))
	for i, col := range primaryKey {
		columns[i] = col.Name
	}
	components := columns
	if mode == ModeExclude {
		components = []string{identityComponent(columns)}
	}

	expanded := make(Query, len(query)+len(components))
	for key, value := range query {
		if key != familyKey {
			expanded[key] = value
		}
	}

	emit := func(key string, value any) error {
		if _, ok := expanded[key]; ok {
			return newError(
				ErrAmbiguousCompositeKeyFilter, "", familyKey, "",
				fmt.Sprintf("expands to \"%s\" which is also given explicitly", key),
			)
		}
		expanded[key] = value
		return nil
	}

	if familyKey == primaryKeyToken {
		values, err := decodeToken(codec, familyKey, columns, query[familyKey])
		if err != nil {
			return nil, err
		}
		for i, col := range columns {
			if !slices.Contains(components, col) {
				continue
			}
			if err := emit(col, values[i]); err != nil {
				return nil, err
			}
		}
		return expanded, nil
	}

	tokens, ok := asList(query[familyKey])
	if !ok {
		return nil, newError(
			ErrInvalidLookupValue, "", familyKey, "",
			fmt.Sprintf("expected a list of composite key tokens, got %T", query[familyKey]),
		)
	}
	distinct := make([][]any, len(columns))
	seen := make([]map[any]struct{}, len(columns))
	for i := range columns {
		distinct[i] = []any{}
		seen[i] = make(map[any]struct{})
	}
	for _, token := range tokens {
		values, err := decodeToken(codec, familyKey, columns, token)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			if _, ok := seen[i][v]; ok {
				continue
			}
			seen[i][v] = struct{}{}
			distinct[i] = append(distinct[i], v)
		}
	}
	for i, col := range columns {
		if !slices.Contains(components, col) {
			continue
		}
		if err := emit(col+tokenSeparator+"in", distinct[i]); err != nil {
			return nil, err
		}
	}
	return expanded, nil
}

func decodeToken(codec pkcodec.Codec, key string, columns []string, value any) ([]any, error) {
	token, ok := value.(string)
	if !ok {
		return nil, newError(
			ErrInvalidLookupValue, "", key, "",
			fmt.Sprintf("expected a composite key token, got %T", value),
		)
	}
	values, err := codec.Decode(columns, token)
	if err != nil {
		return nil, newError(ErrInvalidLookupValue, "", key, "", err.Error())
	}
	for i, v := range values {
		if v != nil && !reflect.TypeOf(v).Comparable() {
			return nil, newError(
				ErrInvalidLookupValue, "", key, "",
				fmt.Sprintf("component \"%s\" is not a scalar", columns[i]),
			)
		}
	}
	return values, nil
}

func hasPrimaryKeyToken(key string) bool {
	for _, token := range strings.Split(key, tokenSeparator) {
		if strings.Split(token, subkeySeparator)[0] == primaryKeyToken {
			return true
		}
	}
	return false
}

func identityComponent(columns []string) string {
	if slices.Contains(columns, identityColumn) {
		return identityColumn
	}
	return columns[0]
}
