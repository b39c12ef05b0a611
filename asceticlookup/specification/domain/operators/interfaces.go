package operators

// Value objects may implement these to take part in comparisons
// when no registered implementation matches their concrete type.

type EqualOperand interface {
	Equal(EqualOperand) bool
}

type GreaterThanOperand interface {
	GreaterThan(GreaterThanOperand) bool
}

type GreaterThanEqualOperand interface {
	GreaterThanEqual(GreaterThanEqualOperand) bool
}

type LessThanOperand interface {
	LessThan(LessThanOperand) bool
}

type LessThanEqualOperand interface {
	LessThanEqual(LessThanEqualOperand) bool
}
