package specification

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
)

// Statement is a compiled SELECT with the columns it returns, in order
type Statement struct {
	SQL     string
	Params  []any
	Columns []schema.Column
}

// CompileSelect renders a plan as a SELECT of the root entity columns. The
// root entity is aliased by its name and every join by its relation path.
func CompileSelect(catalog schema.Catalog, plan *lookup.Plan) (*Statement, error) {
	table, err := catalog.Table(plan.Entity)
	if err != nil {
		return nil, errors.Wrapf(err, "table of \"%s\"", plan.Entity)
	}
	columns, err := catalog.Columns(plan.Entity)
	if err != nil {
		return nil, errors.Wrapf(err, "columns of \"%s\"", plan.Entity)
	}

	root := plan.Entity
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{root, col.Name}.Sanitize())
	}
	b.WriteString(" FROM ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	b.WriteString(" AS ")
	b.WriteString(pgx.Identifier{root}.Sanitize())

	for _, join := range plan.Joins {
		target, err := catalog.Table(join.Relation.Target)
		if err != nil {
			return nil, errors.Wrapf(err, "table of \"%s\"", join.Relation.Target)
		}
		parent := join.ParentAlias()
		if parent == "" {
			parent = root
		}
		alias := join.Alias()
		b.WriteString(" JOIN ")
		b.WriteString(pgx.Identifier{target}.Sanitize())
		b.WriteString(" AS ")
		b.WriteString(pgx.Identifier{alias}.Sanitize())
		b.WriteString(" ON ")
		for i, pair := range join.Relation.Condition.Pairs {
			if i > 0 {
				b.WriteString(" AND ")
			}
			b.WriteString(pgx.Identifier{alias, pair.Remote}.Sanitize())
			b.WriteString(" = ")
			b.WriteString(pgx.Identifier{parent, pair.Local}.Sanitize())
		}
	}

	v := NewPostgresqlVisitor(WithRootAlias(root))
	if where := plan.Where(); where != nil {
		sql, err := v.Render(where)
		if err != nil {
			return nil, errors.Wrap(err, "render where")
		}
		b.WriteString(" WHERE ")
		b.WriteString(sql)
	}

	for i, entry := range plan.Order {
		sql, err := v.Render(entry.Expression())
		if err != nil {
			return nil, errors.Wrap(err, "render order by")
		}
		if i == 0 {
			b.WriteString(" ORDER BY ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(sql)
	}

	_, params, _ := v.Result()
	return &Statement{
		SQL:     b.String(),
		Params:  params,
		Columns: columns,
	}, nil
}
