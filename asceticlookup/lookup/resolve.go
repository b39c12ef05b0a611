package lookup

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
)

const (
	tokenSeparator   = "__"
	subkeySeparator  = "->"
	primaryKeyToken  = "pk"
	descendingPrefix = "-"
)

// Query maps path expressions such as "attribute__description__contains"
// to lookup values.
type Query map[string]any

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// OrderTerm is one ordering key with its requested direction, still
// unvalidated.
type OrderTerm struct {
	Key       string
	Direction string
}

// Join is a relation hop required by a path. Path holds the relation names
// leading from the root entity, this relation included.
type Join struct {
	Path     []string
	Source   string
	Relation schema.Relation
}

// Alias names the joined entity within a query
func (j Join) Alias() string {
	return strings.Join(j.Path, tokenSeparator)
}

// ParentAlias is the alias of the joined entity the hop starts from, empty
// for the root.
func (j Join) ParentAlias() string {
	return strings.Join(j.Path[:len(j.Path)-1], tokenSeparator)
}

// Target is the resolved column a key points to, possibly through a JSON
// subkey.
type Target struct {
	Key     string
	Entity  string
	Path    []string
	Column  schema.Column
	JSONKey string
}

// Operand is the expression the target evaluates to: the column itself, or
// the text of its JSON subkey.
func (t Target) Operand() s.Visitable {
	field := s.Field(s.Path(t.Path...), t.Column.Name)
	if t.JSONKey != "" {
		return s.JSONText(field, t.JSONKey)
	}
	return field
}

type Entry struct {
	Target
	Lookup    string
	Value     any
	Predicate s.Visitable
}

type OrderEntry struct {
	Target
	Direction Direction
}

// Expression is the operand with the direction applied. Ascending is the
// operand itself.
func (o OrderEntry) Expression() s.Visitable {
	if o.Direction == Desc {
		return s.Desc(o.Operand())
	}
	return o.Operand()
}

// Resolution holds the joins every key required, in key order and with
// duplicates, and one entry per key.
type Resolution struct {
	Joins   []Join
	Entries []Entry
	Order   []OrderEntry
}

// cursor is the state of the walk over the tokens of one key
type cursor struct {
	entity  string
	path    []string
	column  *schema.Column
	lookup  string
	jsonKey string
	joins   []Join
}

// Resolve compiles a filter or exclude dictionary. Keys are processed in
// lexical order.
func (c *Compiler) Resolve(entity string, query Query) (Resolution, error) {
	var result Resolution
	for _, key := range sortedKeys(query) {
		value := query[key]
		cur, err := c.walk(entity, key)
		if err != nil {
			return Resolution{}, err
		}
		lookupName := cur.lookup
		if lookupName == "" {
			lookupName = DefaultLookup
		}
		target := cur.target(key)
		predicate, err := c.lookups[lookupName].Build(target.Operand(), value)
		if err != nil {
			return Resolution{}, newError(ErrInvalidLookupValue, cur.entity, key, lookupName, err.Error())
		}
		result.Joins = append(result.Joins, cur.joins...)
		result.Entries = append(result.Entries, Entry{
			Target:    target,
			Lookup:    lookupName,
			Value:     value,
			Predicate: predicate,
		})
	}
	return result, nil
}

// ResolveOrder compiles ordering terms. A key must not carry a lookup and
// its direction must be "asc" or "desc".
func (c *Compiler) ResolveOrder(entity string, terms []OrderTerm) (Resolution, error) {
	var result Resolution
	for _, term := range terms {
		cur, err := c.walk(entity, term.Key)
		if err != nil {
			return Resolution{}, err
		}
		direction := Direction(term.Direction)
		if direction != Asc && direction != Desc {
			return Resolution{}, newError(
				ErrInvalidOrderDirection, cur.entity, term.Key, "",
				fmt.Sprintf("\"%s\" is not one of \"asc\", \"desc\" for column \"%s\"", term.Direction, cur.column.Name),
			)
		}
		if cur.lookup != "" {
			return Resolution{}, newError(
				ErrMalformedPath, cur.entity, term.Key, cur.lookup,
				"lookup tokens are not permitted in an ordering key",
			)
		}
		result.Joins = append(result.Joins, cur.joins...)
		result.Order = append(result.Order, OrderEntry{
			Target:    cur.target(term.Key),
			Direction: direction,
		})
	}
	return result, nil
}

// ParseOrderBy turns "-"-prefixed keys into ordering terms. A repeated key
// keeps its first position and takes the last direction.
func ParseOrderBy(orderBy []string) ([]OrderTerm, error) {
	terms := make([]OrderTerm, 0, len(orderBy))
	index := make(map[string]int, len(orderBy))
	for _, item := range orderBy {
		term := OrderTerm{Key: item, Direction: string(Asc)}
		if strings.HasPrefix(item, descendingPrefix) {
			term = OrderTerm{Key: strings.TrimPrefix(item, descendingPrefix), Direction: string(Desc)}
		}
		if term.Key == "" {
			return nil, newError(ErrMalformedPath, "", item, "", "empty ordering key")
		}
		if i, ok := index[term.Key]; ok {
			terms[i].Direction = term.Direction
			continue
		}
		index[term.Key] = len(terms)
		terms = append(terms, term)
	}
	return terms, nil
}

func (c *Compiler) walk(entity, key string) (cursor, error) {
	cur := cursor{entity: entity}
	var err error
	for _, token := range strings.Split(key, tokenSeparator) {
		cur, err = c.step(cur, key, token)
		if err != nil {
			return cursor{}, err
		}
	}
	if cur.column == nil {
		return cursor{}, newError(ErrMalformedPath, cur.entity, key, "", "path does not reference a column")
	}
	if cur.jsonKey != "" && !cur.column.IsJSON() {
		return cursor{}, newError(
			ErrMalformedPath, cur.entity, key, "",
			fmt.Sprintf("column \"%s\" is not json and has no subkeys", cur.column.Name),
		)
	}
	return cur, nil
}

func (c *Compiler) step(cur cursor, key, token string) (cursor, error) {
	if parts := strings.Split(token, subkeySeparator); len(parts) > 1 {
		if len(parts) > 2 || parts[1] == "" {
			return cur, newError(ErrMalformedPath, cur.entity, key, token, "expected a single json subkey")
		}
		if cur.jsonKey != "" {
			c.logger.Warn(
				"json subkey overwritten",
				zap.String("key", key),
				zap.String("previous", cur.jsonKey),
				zap.String("subkey", parts[1]),
			)
		}
		token, cur.jsonKey = parts[0], parts[1]
	}

	if cur.lookup != "" {
		return cur, newError(
			ErrMalformedPath, cur.entity, key, token,
			fmt.Sprintf("no tokens permitted after the lookup token \"%s\"", cur.lookup),
		)
	}

	relations, err := c.schema.Relations(cur.entity)
	if err != nil {
		return cur, err
	}
	if rel, ok := findRelation(relations, token); ok {
		if cur.column != nil {
			return cur, newError(
				ErrMalformedPath, cur.entity, key, token,
				fmt.Sprintf("no relation tokens permitted after the column token \"%s\"", cur.column.Name),
			)
		}
		path := append(append([]string(nil), cur.path...), rel.Name)
		cur.joins = append(append([]Join(nil), cur.joins...), Join{
			Path:     path,
			Source:   cur.entity,
			Relation: rel,
		})
		cur.path = path
		cur.entity = rel.Target
		return cur, nil
	}

	if token == primaryKeyToken {
		if cur.column != nil {
			return cur, newError(
				ErrMalformedPath, cur.entity, key, token,
				fmt.Sprintf("no column tokens permitted after the column token \"%s\"", cur.column.Name),
			)
		}
		pk, err := c.schema.PrimaryKey(cur.entity)
		if err != nil {
			return cur, err
		}
		if len(pk) == 0 {
			return cur, newError(ErrMalformedPath, cur.entity, key, token, "entity has no primary key")
		}
		cur.column = &pk[0]
		return cur, nil
	}

	columns, err := c.schema.Columns(cur.entity)
	if err != nil {
		return cur, err
	}
	if col, ok := findColumn(columns, token); ok {
		if cur.column != nil {
			return cur, newError(
				ErrMalformedPath, cur.entity, key, token,
				fmt.Sprintf("no column tokens permitted after the column token \"%s\"", cur.column.Name),
			)
		}
		cur.column = &col
		return cur, nil
	}

	if _, ok := c.lookups[token]; ok {
		cur.lookup = token
		return cur, nil
	}

	unknown := newError(ErrUnknownToken, cur.entity, key, token, "not a column, relation or lookup")
	unknown.Columns = columnNames(columns)
	unknown.Relations = relationNames(relations)
	unknown.Lookups = c.LookupNames()
	return cur, unknown
}

func (cur cursor) target(key string) Target {
	return Target{
		Key:     key,
		Entity:  cur.entity,
		Path:    cur.path,
		Column:  *cur.column,
		JSONKey: cur.jsonKey,
	}
}

func findRelation(relations []schema.Relation, name string) (schema.Relation, bool) {
	for _, r := range relations {
		if r.Name == name {
			return r, true
		}
	}
	return schema.Relation{}, false
}

func findColumn(columns []schema.Column, name string) (schema.Column, bool) {
	for _, c := range columns {
		if c.Name == name {
			return c, true
		}
	}
	return schema.Column{}, false
}

func columnNames(columns []schema.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

func relationNames(relations []schema.Relation) []string {
	names := make([]string, len(relations))
	for i, r := range relations {
		names[i] = r.Name
	}
	return names
}

func sortedKeys(query Query) []string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
