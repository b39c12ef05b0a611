package specification

import (
	"errors"
	"fmt"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"
)

var ErrKeyNotFound = errors.New("key not found")

func NewEvaluateVisitor(context Context, registry *operators.OperatorRegistry) *EvaluateVisitor {
	return &EvaluateVisitor{
		Context:  context,
		registry: registry,
	}
}

// EvaluateVisitor computes the value of an expression against a record,
// with SQL three-valued logic: NULL is represented by nil.
type EvaluateVisitor struct {
	currentValue any
	stack        []Context
	registry     *operators.OperatorRegistry
	Context
}

func (v *EvaluateVisitor) push(ctx Context) {
	v.stack = append(v.stack, v.Context)
	v.Context = ctx
}

func (v *EvaluateVisitor) pop() {
	v.Context = v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]
}

func (v EvaluateVisitor) CurrentValue() any {
	return v.currentValue
}

func (v *EvaluateVisitor) SetCurrentValue(val any) {
	v.currentValue = val
}

func (v *EvaluateVisitor) VisitGlobalScope(n GlobalScopeNode) error {
	v.push(v.Context)
	return nil
}

func (v *EvaluateVisitor) VisitObject(n ObjectNode) error {
	err := n.Parent().Accept(v)
	if err != nil {
		return err
	}
	obj, err := v.Context.Get(n.Name())
	v.pop()
	if err != nil {
		return err
	}
	ctx, err := AsContext(obj)
	if err != nil {
		return fmt.Errorf("relation \"%s\": %w", n.Name(), err)
	}
	v.push(ctx)
	return nil
}

func (v *EvaluateVisitor) VisitField(n FieldNode) error {
	err := n.Object().Accept(v)
	if err != nil {
		return err
	}
	value, err := v.Context.Get(n.Name())
	v.pop()
	if err != nil {
		return err
	}
	v.SetCurrentValue(value)
	return nil
}

func (v *EvaluateVisitor) VisitValue(n ValueNode) error {
	v.SetCurrentValue(n.Value())
	return nil
}

func (v *EvaluateVisitor) VisitPrefix(n PrefixNode) error {
	err := n.Operand().Accept(v)
	if err != nil {
		return err
	}
	result, err := v.registry.ExecUnary(n.Operator(), v.CurrentValue())
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

func (v *EvaluateVisitor) VisitPostfix(n PostfixNode) error {
	err := n.Operand().Accept(v)
	if err != nil {
		return err
	}
	if n.Operator() == operators.OperatorDesc {
		return nil
	}
	result, err := v.registry.ExecUnary(n.Operator(), v.CurrentValue())
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

func (v *EvaluateVisitor) VisitInfix(n InfixNode) error {
	err := n.Left().Accept(v)
	if err != nil {
		return err
	}
	left := v.CurrentValue()
	err = n.Right().Accept(v)
	if err != nil {
		return err
	}
	right := v.CurrentValue()
	result, err := v.registry.ExecBinary(left, n.Operator(), right)
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

func (v *EvaluateVisitor) VisitFunction(n FunctionNode) error {
	args := make([]any, len(n.Args()))
	for i, arg := range n.Args() {
		if err := arg.Accept(v); err != nil {
			return err
		}
		args[i] = v.CurrentValue()
	}
	result, err := v.registry.ExecFunction(n.Name(), args...)
	if err != nil {
		return err
	}
	v.SetCurrentValue(result)
	return nil
}

// Result reports whether the evaluated predicate holds. NULL does not hold.
func (v EvaluateVisitor) Result() (bool, error) {
	result := v.CurrentValue()
	if result == nil {
		return false, nil
	}
	resultTyped, ok := result.(bool)
	if !ok {
		return false, errors.New("the result is not a bool")
	}
	return resultTyped, nil
}

type Context interface {
	Get(string) (any, error)
}

// MapContext exposes a record held in a map. Nested maps are related records.
type MapContext map[string]any

func (c MapContext) Get(key string) (any, error) {
	value, ok := c[key]
	if !ok {
		return nil, fmt.Errorf("%w: \"%s\"", ErrKeyNotFound, key)
	}
	return value, nil
}

// nullContext stands for a missing related record: every field is NULL.
type nullContext struct{}

func (nullContext) Get(string) (any, error) {
	return nil, nil
}

func AsContext(obj any) (Context, error) {
	switch o := obj.(type) {
	case nil:
		return nullContext{}, nil
	case Context:
		return o, nil
	case map[string]any:
		return MapContext(o), nil
	}
	return nil, fmt.Errorf("%T is not a record", obj)
}
