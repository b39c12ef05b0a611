package schema

import (
	"errors"
	"fmt"
)

var ErrUnknownEntity = errors.New("unknown entity")

type ColumnType string

const (
	TypeText      ColumnType = "text"
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
	TypeJSON      ColumnType = "json"
	TypeUUID      ColumnType = "uuid"
)

type Column struct {
	Name string
	Type ColumnType
}

// IsJSON reports whether the column supports ->subkey extraction.
func (c Column) IsJSON() bool {
	return c.Type == TypeJSON
}

// KeyPair maps a column of the owning entity to a column of the related one
type KeyPair struct {
	Local  string
	Remote string
}

// JoinCondition is the equality of every key pair, supporting composite keys:
//
//	JoinCondition{Pairs: []KeyPair{
//	    {Local: "tenant_id", Remote: "tenant_id"},
//	    {Local: "attribute_id", Remote: "id"},
//	}}
type JoinCondition struct {
	Pairs []KeyPair
}

type Relation struct {
	Name      string
	Target    string
	Condition JoinCondition
}

// Introspector exposes the relational model of entities. Results are ordered
// in declaration order.
type Introspector interface {
	Columns(entity string) ([]Column, error)
	Relations(entity string) ([]Relation, error)
	PrimaryKey(entity string) ([]Column, error)
}

// Catalog is an Introspector that also knows where entities are stored
type Catalog interface {
	Introspector
	Table(entity string) (string, error)
}

type entity struct {
	table      string
	columns    []Column
	relations  []Relation
	primaryKey []string
}

// Registry is a static Introspector. It must not be changed after it is
// shared between goroutines.
type Registry struct {
	entities map[string]*entity
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*entity),
	}
}

// Entity registers an entity stored in table and returns its builder
func (r *Registry) Entity(name, table string) *EntityBuilder {
	e, ok := r.entities[name]
	if !ok {
		e = &entity{}
		r.entities[name] = e
		r.order = append(r.order, name)
	}
	e.table = table
	return &EntityBuilder{registry: r, entity: e}
}

// Entities returns registered entity names in registration order
func (r *Registry) Entities() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) get(name string) (*entity, error) {
	e, ok := r.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: \"%s\"", ErrUnknownEntity, name)
	}
	return e, nil
}

// Table returns the table the entity is stored in
func (r *Registry) Table(name string) (string, error) {
	e, err := r.get(name)
	if err != nil {
		return "", err
	}
	return e.table, nil
}

func (r *Registry) Columns(name string) ([]Column, error) {
	e, err := r.get(name)
	if err != nil {
		return nil, err
	}
	return append([]Column(nil), e.columns...), nil
}

func (r *Registry) Relations(name string) ([]Relation, error) {
	e, err := r.get(name)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), e.relations...), nil
}

func (r *Registry) PrimaryKey(name string) ([]Column, error) {
	e, err := r.get(name)
	if err != nil {
		return nil, err
	}
	result := make([]Column, 0, len(e.primaryKey))
	for _, pk := range e.primaryKey {
		col, ok := findColumn(e.columns, pk)
		if !ok {
			return nil, fmt.Errorf("primary key column \"%s\" of \"%s\" is not declared", pk, name)
		}
		result = append(result, col)
	}
	return result, nil
}

// Validate checks that every primary key column is declared and every
// relation targets a registered entity.
func (r *Registry) Validate() error {
	for _, name := range r.order {
		if _, err := r.PrimaryKey(name); err != nil {
			return err
		}
		for _, rel := range r.entities[name].relations {
			if _, ok := r.entities[rel.Target]; !ok {
				return fmt.Errorf("relation \"%s\" of \"%s\": %w: \"%s\"", rel.Name, name, ErrUnknownEntity, rel.Target)
			}
		}
	}
	return nil
}

func findColumn(columns []Column, name string) (Column, bool) {
	for _, c := range columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

type EntityBuilder struct {
	registry *Registry
	entity   *entity
}

func (b *EntityBuilder) Column(name string, columnType ColumnType) *EntityBuilder {
	b.entity.columns = append(b.entity.columns, Column{Name: name, Type: columnType})
	return b
}

// PrimaryKey declares the primary key columns, in key order
func (b *EntityBuilder) PrimaryKey(columns ...string) *EntityBuilder {
	b.entity.primaryKey = append([]string(nil), columns...)
	return b
}

// Relation registers a relation joined on a simple key
func (b *EntityBuilder) Relation(name, target, localColumn, remoteColumn string) *EntityBuilder {
	return b.RelationComposite(name, target, []KeyPair{
		{Local: localColumn, Remote: remoteColumn},
	})
}

// RelationComposite registers a relation joined on a composite key
func (b *EntityBuilder) RelationComposite(name, target string, pairs []KeyPair) *EntityBuilder {
	b.entity.relations = append(b.entity.relations, Relation{
		Name:      name,
		Target:    target,
		Condition: JoinCondition{Pairs: append([]KeyPair(nil), pairs...)},
	})
	return b
}

// Entity finishes the current entity and starts the next one
func (b *EntityBuilder) Entity(name, table string) *EntityBuilder {
	return b.registry.Entity(name, table)
}

func (b *EntityBuilder) Registry() *Registry {
	return b.registry
}
