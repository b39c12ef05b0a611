package specification

import "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain/operators"

type Associativity string

const (
	LeftAssociative  Associativity = "LEFT"
	RightAssociative Associativity = "RIGHT"
	NonAssociative   Associativity = "NON"
)

type Operable interface {
	Associativity() Associativity
	Operator() operators.Operator
}

type Visitable interface {
	Accept(Visitor) error
}

type Visitor interface {
	VisitGlobalScope(GlobalScopeNode) error
	VisitObject(ObjectNode) error
	VisitField(FieldNode) error
	VisitValue(ValueNode) error
	VisitPrefix(PrefixNode) error
	VisitInfix(InfixNode) error
	VisitPostfix(PostfixNode) error
	VisitFunction(FunctionNode) error
}

func Value(value any) ValueNode {
	return ValueNode{
		value: value,
	}
}

type ValueNode struct {
	value any
}

func (n ValueNode) Value() any {
	return n.value
}

func (n ValueNode) Accept(v Visitor) error {
	return v.VisitValue(n)
}

func Not(operand Visitable) PrefixNode {
	return PrefixNode{
		operator:      operators.OperatorNot,
		operand:       operand,
		associativity: RightAssociative,
	}
}

type PrefixNode struct {
	operator      operators.Operator
	operand       Visitable
	associativity Associativity
}

func (n PrefixNode) Operand() Visitable {
	return n.operand
}
func (n PrefixNode) Operator() operators.Operator {
	return n.operator
}
func (n PrefixNode) Associativity() Associativity {
	return n.associativity
}
func (n PrefixNode) Accept(v Visitor) error {
	return v.VisitPrefix(n)
}

func Equal(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorEq, right, NonAssociative)
}

func NotEqual(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorNe, right, NonAssociative)
}

func GreaterThan(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorGt, right, NonAssociative)
}

func GreaterThanEqual(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorGte, right, NonAssociative)
}

func LessThan(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorLt, right, NonAssociative)
}

func LessThanEqual(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorLte, right, NonAssociative)
}

func Is(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorIs, right, NonAssociative)
}

func Like(left, pattern Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorLike, pattern, NonAssociative)
}

func ILike(left, pattern Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorILike, pattern, NonAssociative)
}

// In tests membership of left in the list held by right.
func In(left, right Visitable) InfixNode {
	return NewInfixNode(left, operators.OperatorIn, right, NonAssociative)
}

// Between is sugar for low <= left AND left <= high.
func Between(left, low, high Visitable) InfixNode {
	return And(GreaterThanEqual(left, low), LessThanEqual(left, high))
}

// JSONText extracts key of a jsonb operand as text (->>).
func JSONText(left Visitable, key string) InfixNode {
	return NewInfixNode(left, operators.OperatorJSONText, Value(key), LeftAssociative)
}

func And(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(And, left, rights...)
	return InfixNode{
		left:          left,
		operator:      operators.OperatorAnd,
		right:         right,
		associativity: LeftAssociative,
	}
}

func Or(left Visitable, rights ...Visitable) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return InfixNode{
		left:          left,
		operator:      operators.OperatorOr,
		right:         right,
		associativity: LeftAssociative,
	}
}

func foldRights(
	aCallable func(Visitable, ...Visitable) InfixNode,
	aLeft Visitable,
	aRights ...Visitable,
) (left, right Visitable) {
	for len(aRights) > 1 {
		aLeft = aCallable(aLeft, aRights[0])
		aRights = aRights[1:]
	}
	return aLeft, aRights[0]
}

func NewInfixNode(left Visitable, operator operators.Operator, right Visitable, associativity Associativity) InfixNode {
	return InfixNode{
		left:          left,
		operator:      operator,
		right:         right,
		associativity: associativity,
	}
}

type InfixNode struct {
	left          Visitable
	operator      operators.Operator
	right         Visitable
	associativity Associativity
}

func (n InfixNode) Left() Visitable {
	return n.left
}

func (n InfixNode) Operator() operators.Operator {
	return n.operator
}

func (n InfixNode) Right() Visitable {
	return n.right
}

func (n InfixNode) Associativity() Associativity {
	return n.associativity
}

func (n InfixNode) Accept(v Visitor) error {
	return v.VisitInfix(n)
}

func IsNull(operand Visitable) PostfixNode {
	return NewPostfixNode(operand, operators.OperatorIsNull, NonAssociative)
}

func IsNotNull(operand Visitable) PostfixNode {
	return NewPostfixNode(operand, operators.OperatorIsNotNull, NonAssociative)
}

// Desc marks an ordering expression as descending. It is not a predicate.
func Desc(operand Visitable) PostfixNode {
	return NewPostfixNode(operand, operators.OperatorDesc, NonAssociative)
}

func NewPostfixNode(operand Visitable, operator operators.Operator, associativity Associativity) PostfixNode {
	return PostfixNode{
		operand:       operand,
		operator:      operator,
		associativity: associativity,
	}
}

type PostfixNode struct {
	operand       Visitable
	operator      operators.Operator
	associativity Associativity
}

func (n PostfixNode) Operand() Visitable {
	return n.operand
}

func (n PostfixNode) Operator() operators.Operator {
	return n.operator
}

func (n PostfixNode) Associativity() Associativity {
	return n.associativity
}

func (n PostfixNode) Accept(v Visitor) error {
	return v.VisitPostfix(n)
}

func Function(name string, args ...Visitable) FunctionNode {
	return FunctionNode{
		name: name,
		args: args,
	}
}

func Lower(operand Visitable) FunctionNode {
	return Function("lower", operand)
}

func Unaccent(operand Visitable) FunctionNode {
	return Function("unaccent", operand)
}

// DatePart extracts a calendar field ("year", "month", "day") of a timestamp.
func DatePart(field string, operand Visitable) FunctionNode {
	return Function("date_part", Value(field), operand)
}

type FunctionNode struct {
	name string
	args []Visitable
}

func (n FunctionNode) Name() string {
	return n.name
}

func (n FunctionNode) Args() []Visitable {
	return n.args
}

func (n FunctionNode) Accept(v Visitor) error {
	return v.VisitFunction(n)
}

// EmptiableObject is a scope a field can be read from: the root record
// or a record reached through a chain of relations.
type EmptiableObject interface {
	Visitable
	Parent() EmptiableObject
	Name() string
	IsRoot() bool
}

func GlobalScope() GlobalScopeNode {
	return GlobalScopeNode{}
}

type GlobalScopeNode struct{}

func (n GlobalScopeNode) Parent() EmptiableObject {
	return n
}

func (n GlobalScopeNode) Name() string {
	return "Empty"
}

func (n GlobalScopeNode) IsRoot() bool {
	return true
}
func (n GlobalScopeNode) Accept(v Visitor) error {
	return v.VisitGlobalScope(n)
}

func Object(parent EmptiableObject, name string) ObjectNode {
	return ObjectNode{
		parent: parent,
		name:   name,
	}
}

// Path builds the object reached from the root through the given relations.
func Path(relations ...string) EmptiableObject {
	var obj EmptiableObject = GlobalScope()
	for _, name := range relations {
		obj = Object(obj, name)
	}
	return obj
}

type ObjectNode struct {
	parent EmptiableObject
	name   string
}

func (n ObjectNode) Parent() EmptiableObject {
	return n.parent
}

func (n ObjectNode) Name() string {
	return n.name
}

func (n ObjectNode) IsRoot() bool {
	return false
}

func (n ObjectNode) Accept(v Visitor) error {
	return v.VisitObject(n)
}

func Field(object EmptiableObject, name string) FieldNode {
	return FieldNode{
		object: object,
		name:   name,
	}
}

type FieldNode struct {
	object EmptiableObject
	name   string
}

func (n FieldNode) Name() string {
	return n.name
}

func (n FieldNode) Object() EmptiableObject {
	return n.object
}

func (n FieldNode) Accept(v Visitor) error {
	return v.VisitField(n)
}

// ExtractObjectPath returns the relation names leading from the root to obj.
func ExtractObjectPath(obj EmptiableObject) []string {
	var path []string
	for !obj.IsRoot() {
		path = append([]string{obj.Name()}, path...)
		obj = obj.Parent()
	}
	return path
}

func ExtractFieldPath(n FieldNode) []string {
	return append(ExtractObjectPath(n.Object()), n.Name())
}
