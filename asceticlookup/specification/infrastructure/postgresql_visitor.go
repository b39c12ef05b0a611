package specification

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"
)

// CompileToSQL renders a predicate against the root alias
func CompileToSQL(exp s.Visitable, opts ...PostgresqlVisitorOption) (sql string, params []any, err error) {
	v := NewPostgresqlVisitor(opts...)
	err = exp.Accept(v)
	if err != nil {
		return "", nil, err
	}
	return v.Result()
}

type PostgresqlVisitorOption func(*PostgresqlVisitor)

// PlaceholderIndex sets the number of parameters bound before the first one
// this visitor renders.
func PlaceholderIndex(index int) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.placeholderIndex = index
	}
}

// WithRootAlias qualifies fields of the root entity. Fields reached through
// relations are qualified by their relation path, e.g. "attribute__database".
func WithRootAlias(alias string) PostgresqlVisitorOption {
	return func(v *PostgresqlVisitor) {
		v.rootAlias = alias
	}
}

func NewPostgresqlVisitor(opts ...PostgresqlVisitorOption) *PostgresqlVisitor {
	v := &PostgresqlVisitor{
		precedenceMapping: make(map[string]int),
	}
	// https://www.postgresql.org/docs/14/sql-syntax-lexical.html#SQL-PRECEDENCE-TABLE
	v.setPrecedence(160, ". LEFT")
	v.setPrecedence(160, ":: LEFT")
	v.setPrecedence(150, "[ LEFT")
	v.setPrecedence(140, "+ RIGHT", "- RIGHT")
	v.setPrecedence(130, "^ LEFT")
	v.setPrecedence(120, "* LEFT", "/ LEFT", "% LEFT")
	v.setPrecedence(110, "+ LEFT", "- LEFT")
	// all other native and user-defined operators 👇️
	v.setPrecedence(100, "(any other operator) LEFT")
	v.setPrecedence(90, "BETWEEN NON", "IN NON", "LIKE NON", "ILIKE NON", "SIMILAR NON")
	v.setPrecedence(80, "< NON", "> NON", "= NON", "<= NON", ">= NON", "!= NON")
	v.setPrecedence(70, "IS NON", "IS NULL NON", "IS NOT NULL NON")
	v.setPrecedence(60, "NOT RIGHT")
	v.setPrecedence(50, "AND LEFT")
	v.setPrecedence(40, "OR LEFT")
	for i := range opts {
		opts[i](v)
	}
	return v
}

type PostgresqlVisitor struct {
	sql               string
	placeholderIndex  int
	parameters        []any
	precedence        int
	precedenceMapping map[string]int
	rootAlias         string
}

func (v PostgresqlVisitor) getNodePrecedenceKey(n s.Operable) string {
	operator := n.Operator()
	return fmt.Sprintf("%s %s", operator, n.Associativity())
}

func (v PostgresqlVisitor) setPrecedence(precedence int, operators ...string) {
	for _, op := range operators {
		v.precedenceMapping[op] = precedence
	}
}

func (v *PostgresqlVisitor) visit(precedenceKey string, callable func() error) error {
	outerPrecedence := v.precedence
	innerPrecedence, ok := v.precedenceMapping[precedenceKey]
	if !ok {
		innerPrecedence, ok = v.precedenceMapping["(any other operator) LEFT"]
		if !ok {
			innerPrecedence = outerPrecedence
		}
	}
	v.precedence = innerPrecedence
	if innerPrecedence < outerPrecedence {
		v.sql += "("
	}
	err := callable()
	if err != nil {
		return err
	}
	if innerPrecedence < outerPrecedence {
		v.sql += ")"
	}
	v.precedence = outerPrecedence
	return nil
}

// Render renders exp on its own, sharing the parameter list with everything
// rendered before.
func (v *PostgresqlVisitor) Render(exp s.Visitable) (string, error) {
	outer := v.sql
	v.sql = ""
	err := exp.Accept(v)
	fragment := v.sql
	v.sql = outer
	if err != nil {
		return "", err
	}
	return fragment, nil
}

func (v *PostgresqlVisitor) VisitGlobalScope(_ s.GlobalScopeNode) error {
	return nil
}

func (v *PostgresqlVisitor) VisitObject(_ s.ObjectNode) error {
	return nil
}

func (v *PostgresqlVisitor) VisitField(n s.FieldNode) error {
	alias := v.rootAlias
	if path := s.ExtractObjectPath(n.Object()); len(path) > 0 {
		alias = strings.Join(path, "__")
	}
	if alias == "" {
		v.sql += pgx.Identifier{n.Name()}.Sanitize()
	} else {
		v.sql += pgx.Identifier{alias, n.Name()}.Sanitize()
	}
	return nil
}

func (v *PostgresqlVisitor) VisitValue(n s.ValueNode) error {
	value := n.Value()
	v.parameters = append(v.parameters, value)
	v.sql += fmt.Sprintf("$%d", v.placeholderIndex+len(v.parameters))
	return nil
}

func (v *PostgresqlVisitor) VisitPrefix(node s.PrefixNode) error {
	precedenceKey := v.getNodePrecedenceKey(node)
	return v.visit(precedenceKey, func() error {
		v.sql += fmt.Sprintf("%s ", node.Operator())
		return node.Operand().Accept(v)
	})
}

func (v *PostgresqlVisitor) VisitInfix(n s.InfixNode) error {
	if n.Operator() == operators.OperatorIn {
		// x = ANY($1) binds the whole list as one array parameter
		return v.visit("= NON", func() error {
			err := n.Left().Accept(v)
			if err != nil {
				return err
			}
			v.sql += " = ANY("
			err = v.inner(n.Right())
			if err != nil {
				return err
			}
			v.sql += ")"
			return nil
		})
	}
	precedenceKey := v.getNodePrecedenceKey(n)
	return v.visit(precedenceKey, func() error {
		err := n.Left().Accept(v)
		if err != nil {
			return err
		}
		v.sql += fmt.Sprintf(" %s ", n.Operator())
		err = n.Right().Accept(v)
		if err != nil {
			return err
		}
		return nil
	})
}

func (v *PostgresqlVisitor) VisitPostfix(node s.PostfixNode) error {
	precedenceKey := v.getNodePrecedenceKey(node)
	return v.visit(precedenceKey, func() error {
		err := node.Operand().Accept(v)
		if err != nil {
			return err
		}
		operator := node.Operator()
		v.sql += fmt.Sprintf(" %s", operator)
		return nil
	})
}

func (v *PostgresqlVisitor) VisitFunction(n s.FunctionNode) error {
	v.sql += n.Name() + "("
	for i, arg := range n.Args() {
		if i > 0 {
			v.sql += ", "
		}
		if err := v.inner(arg); err != nil {
			return err
		}
	}
	v.sql += ")"
	return nil
}

// inner renders an expression enclosed by parentheses of the surrounding
// syntax, so that it needs none of its own.
func (v *PostgresqlVisitor) inner(exp s.Visitable) error {
	outerPrecedence := v.precedence
	v.precedence = 0
	err := exp.Accept(v)
	v.precedence = outerPrecedence
	return err
}

func (v PostgresqlVisitor) Result() (sql string, params []any, err error) {
	return v.sql, v.parameters, nil
}
