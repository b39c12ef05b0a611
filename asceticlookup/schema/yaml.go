package schema

import (
	"fmt"
	"io"
	"strings"

	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"
)

type yamlKeyPair struct {
	Local  string `yaml:"local"`
	Remote string `yaml:"remote"`
}

type yamlRelation struct {
	Name   string        `yaml:"name"`
	Target string        `yaml:"target"`
	On     []yamlKeyPair `yaml:"on"`
}

type yamlColumn struct {
	Name string     `yaml:"name"`
	Type ColumnType `yaml:"type"`
}

type yamlEntity struct {
	Name       string         `yaml:"name"`
	Table      string         `yaml:"table"`
	PrimaryKey []string       `yaml:"primary_key"`
	Columns    []yamlColumn   `yaml:"columns"`
	Relations  []yamlRelation `yaml:"relations"`
}

type yamlDocument struct {
	Entities []yamlEntity `yaml:"entities"`
}

var columnTypes = map[ColumnType]struct{}{
	TypeText:      {},
	TypeInteger:   {},
	TypeFloat:     {},
	TypeBoolean:   {},
	TypeTimestamp: {},
	TypeJSON:      {},
	TypeUUID:      {},
}

// LoadYAML builds a Registry from a schema document:
//
//	entities:
//	  - name: Variable
//	    primary_key: [id]
//	    columns:
//	      - {name: id, type: integer}
//	      - {name: attribute_id, type: integer}
//	    relations:
//	      - name: attribute
//	        target: Attribute
//	        on: [{local: attribute_id, remote: id}]
//
// An omitted table defaults to the plural of the lowercased entity name.
func LoadYAML(r io.Reader) (*Registry, error) {
	var doc yamlDocument
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	registry := NewRegistry()
	for _, e := range doc.Entities {
		if e.Name == "" {
			return nil, fmt.Errorf("entity without a name")
		}
		table := e.Table
		if table == "" {
			table = inflection.Plural(strings.ToLower(e.Name))
		}
		builder := registry.Entity(e.Name, table)
		for _, c := range e.Columns {
			if _, ok := columnTypes[c.Type]; !ok {
				return nil, fmt.Errorf("column \"%s\" of \"%s\": unknown type \"%s\"", c.Name, e.Name, c.Type)
			}
			builder.Column(c.Name, c.Type)
		}
		builder.PrimaryKey(e.PrimaryKey...)
		for _, rel := range e.Relations {
			if len(rel.On) == 0 {
				return nil, fmt.Errorf("relation \"%s\" of \"%s\" has no join keys", rel.Name, e.Name)
			}
			pairs := make([]KeyPair, len(rel.On))
			for i, p := range rel.On {
				pairs[i] = KeyPair(p)
			}
			builder.RelationComposite(rel.Name, rel.Target, pairs)
		}
	}
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	return registry, nil
}
