package memory

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"
)

// Record is a row keyed by column name. Related records are nested under
// the relation name; a nil relation is a missing related row.
type Record = map[string]any

func NewEvaluator(registry *operators.OperatorRegistry) *Evaluator {
	if registry == nil {
		registry = operators.NewDefaultRegistry()
	}
	return &Evaluator{
		registry: registry,
	}
}

// Evaluator applies plans to records held in memory
type Evaluator struct {
	registry *operators.OperatorRegistry
}

// Filter applies plan with the default operators
func Filter(records []Record, plan *lookup.Plan) ([]Record, error) {
	return NewEvaluator(nil).Filter(records, plan)
}

// Filter keeps the records the WHERE clause of plan holds for, in the order
// of the plan. A NULL condition drops the record.
func (e *Evaluator) Filter(records []Record, plan *lookup.Plan) ([]Record, error) {
	where := plan.Where()
	type row struct {
		record Record
		keys   []any
	}
	rows := make([]row, 0, len(records))
	for i, record := range records {
		if where != nil {
			ok, err := e.Match(record, where)
			if err != nil {
				return nil, errors.Wrapf(err, "record %d", i)
			}
			if !ok {
				continue
			}
		}
		keys := make([]any, len(plan.Order))
		for j, entry := range plan.Order {
			key, err := e.Value(record, entry.Operand())
			if err != nil {
				return nil, errors.Wrapf(err, "record %d: order by \"%s\"", i, entry.Key)
			}
			keys[j] = key
		}
		rows = append(rows, row{record, keys})
	}

	var sortErr error
	slices.SortStableFunc(rows, func(a, b row) int {
		for j, entry := range plan.Order {
			c, err := e.compare(a.keys[j], b.keys[j])
			if err != nil {
				if sortErr == nil {
					sortErr = errors.Wrapf(err, "order by \"%s\"", entry.Key)
				}
				return 0
			}
			if entry.Direction == lookup.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	result := make([]Record, len(rows))
	for i, r := range rows {
		result[i] = r.record
	}
	return result, nil
}

// Match evaluates predicate against record
func (e *Evaluator) Match(record Record, predicate s.Visitable) (bool, error) {
	v := s.NewEvaluateVisitor(s.MapContext(record), e.registry)
	if err := predicate.Accept(v); err != nil {
		return false, err
	}
	return v.Result()
}

// Value evaluates an operand against record
func (e *Evaluator) Value(record Record, operand s.Visitable) (any, error) {
	v := s.NewEvaluateVisitor(s.MapContext(record), e.registry)
	if err := operand.Accept(v); err != nil {
		return nil, err
	}
	return v.CurrentValue(), nil
}

// compare orders NULL after every value, as PostgreSQL does
func (e *Evaluator) compare(a, b any) (int, error) {
	switch {
	case a == nil && b == nil:
		return 0, nil
	case a == nil:
		return 1, nil
	case b == nil:
		return -1, nil
	}
	less, err := e.registry.ExecBinary(a, operators.OperatorLt, b)
	if err != nil {
		return 0, err
	}
	if less == true {
		return -1, nil
	}
	greater, err := e.registry.ExecBinary(a, operators.OperatorGt, b)
	if err != nil {
		return 0, err
	}
	if greater == true {
		return 1, nil
	}
	return 0, nil
}
