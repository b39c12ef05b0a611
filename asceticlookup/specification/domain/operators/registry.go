package operators

import (
	"fmt"
	"reflect"
)

type BinaryOp func(left, right any) (any, error)
type UnaryOp func(operand any) (any, error)
type FunctionOp func(args ...any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

type unaryKey struct {
	op      Operator
	operand reflect.Type
}

type OperatorRegistry struct {
	binary    map[binaryKey]BinaryOp
	unary     map[unaryKey]UnaryOp
	anyLeft   map[Operator]BinaryOp
	functions map[string]FunctionOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary:    make(map[binaryKey]BinaryOp),
		unary:     make(map[unaryKey]UnaryOp),
		anyLeft:   make(map[Operator]BinaryOp),
		functions: make(map[string]FunctionOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

func RegisterUnary[T any](reg *OperatorRegistry, op Operator, fn func(T) (any, error)) {
	var zero T
	key := unaryKey{
		op:      op,
		operand: reflect.TypeOf(zero),
	}
	reg.unary[key] = func(operand any) (any, error) {
		return fn(operand.(T))
	}
}

// RegisterGeneric registers an operator that accepts operands of any type,
// consulted when no typed implementation matches.
func RegisterGeneric(reg *OperatorRegistry, op Operator, fn BinaryOp) {
	reg.anyLeft[op] = fn
}

func RegisterFunction(reg *OperatorRegistry, name string, fn FunctionOp) {
	reg.functions[name] = fn
}

// ExecBinary executes a binary operator with PostgreSQL NULL semantics.
func (r *OperatorRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	// Three-valued logic for AND/OR
	if op == OperatorAnd {
		return execAnd(left, right)
	}
	if op == OperatorOr {
		return execOr(left, right)
	}

	// NULL propagation for all other binary operators
	if left == nil || right == nil {
		return nil, nil
	}

	left, right = coerce(left), coerce(right)
	left, right = widen(left, right)

	fn, err := r.lookupBinary(left, op, right)
	if err != nil {
		return nil, err
	}
	return fn(left, right)
}

// ExecUnary executes a unary operator with PostgreSQL NULL semantics.
func (r *OperatorRegistry) ExecUnary(op Operator, operand any) (any, error) {
	// IS NULL and IS NOT NULL are defined for any value including NULL
	if op == OperatorIsNull {
		return operand == nil, nil
	}
	if op == OperatorIsNotNull {
		return operand != nil, nil
	}

	// NULL propagation
	if operand == nil {
		return nil, nil
	}

	operand = coerce(operand)
	fn, err := r.lookupUnary(op, operand)
	if err != nil {
		return nil, err
	}
	return fn(operand)
}

// ExecFunction calls a registered SQL function. Functions are strict:
// any NULL argument yields NULL.
func (r *OperatorRegistry) ExecFunction(name string, args ...any) (any, error) {
	fn, ok := r.functions[name]
	if !ok {
		return nil, fmt.Errorf("function \"%s\" is not supported", name)
	}
	for i := range args {
		if args[i] == nil {
			return nil, nil
		}
		args[i] = coerce(args[i])
	}
	return fn(args...)
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, error) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if ok {
		return fn, nil
	}

	if fn, ok := r.anyLeft[op]; ok {
		return fn, nil
	}

	// Fallback: check if operands implement Value Object interfaces
	if fallback := interfaceFallback(left, op, right); fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
}

func interfaceFallback(left any, op Operator, right any) BinaryOp {
	switch op {
	case OperatorEq:
		if _, ok := left.(EqualOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(EqualOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement EqualOperand", right)
				}
				return left.(EqualOperand).Equal(r), nil
			}
		}
	case OperatorNe:
		if _, ok := left.(EqualOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(EqualOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement EqualOperand", right)
				}
				return !left.(EqualOperand).Equal(r), nil
			}
		}
	case OperatorGt:
		if _, ok := left.(GreaterThanOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(GreaterThanOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement GreaterThanOperand", right)
				}
				return left.(GreaterThanOperand).GreaterThan(r), nil
			}
		}
	case OperatorGte:
		if _, ok := left.(GreaterThanEqualOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(GreaterThanEqualOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement GreaterThanEqualOperand", right)
				}
				return left.(GreaterThanEqualOperand).GreaterThanEqual(r), nil
			}
		}
	case OperatorLt:
		if _, ok := left.(LessThanOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(LessThanOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement LessThanOperand", right)
				}
				return left.(LessThanOperand).LessThan(r), nil
			}
		}
	case OperatorLte:
		if _, ok := left.(LessThanEqualOperand); ok {
			return func(left, right any) (any, error) {
				r, ok := right.(LessThanEqualOperand)
				if !ok {
					return nil, fmt.Errorf("right operand %T does not implement LessThanEqualOperand", right)
				}
				return left.(LessThanEqualOperand).LessThanEqual(r), nil
			}
		}
	}
	return nil
}

func (r *OperatorRegistry) lookupUnary(op Operator, operand any) (UnaryOp, error) {
	key := unaryKey{
		op:      op,
		operand: reflect.TypeOf(operand),
	}
	fn, ok := r.unary[key]
	if !ok {
		return nil, fmt.Errorf("operator \"%s\" is not supported for %T", op, operand)
	}
	return fn, nil
}

// coerce folds Go's sized numeric kinds onto int64 and float64 so that
// record values and query values of different widths compare.
func coerce(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// widen promotes int64 to float64 when the other operand is a float.
func widen(left, right any) (any, any) {
	switch l := left.(type) {
	case int64:
		if _, ok := right.(float64); ok {
			return float64(l), right
		}
	case float64:
		if r, ok := right.(int64); ok {
			return left, float64(r)
		}
	}
	return left, right
}

// Three-valued logic: NULL AND FALSE = FALSE, NULL AND TRUE = NULL
func execAnd(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"AND\" requires bool, got %T", left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"AND\" requires bool, got %T", right)
	}
	return l && r, nil
}

// Three-valued logic: NULL OR TRUE = TRUE, NULL OR FALSE = NULL
func execOr(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"OR\" requires bool, got %T", left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator \"OR\" requires bool, got %T", right)
	}
	return l || r, nil
}
