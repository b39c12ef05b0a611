package operators

type Operator string

const (
	// Comparison

	OperatorEq  Operator = "="
	OperatorGt  Operator = ">"
	OperatorLt  Operator = "<"
	OperatorGte Operator = ">="
	OperatorLte Operator = "<="
	OperatorNe  Operator = "!="
	OperatorIs  Operator = "IS"

	// Pattern matching and membership

	OperatorLike  Operator = "LIKE"
	OperatorILike Operator = "ILIKE"
	OperatorIn    Operator = "IN"

	// Logical operators

	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"

	// JSON (PostgreSQL jsonb)

	OperatorJSONText        Operator = "->>"
	OperatorJSONContains    Operator = "@>"
	OperatorJSONContainedBy Operator = "<@"
	OperatorJSONHasKey      Operator = "?"
	OperatorJSONHasAny      Operator = "?|"
	OperatorJSONHasAll      Operator = "?&"

	// Trigram similarity (pg_trgm)

	OperatorSimilar                Operator = "%"
	OperatorWordSimilarLeft        Operator = "<%"
	OperatorWordSimilarRight       Operator = "%>"
	OperatorStrictWordSimilarLeft  Operator = "<<%"
	OperatorStrictWordSimilarRight Operator = "%>>"

	// Postfix

	OperatorIsNull    Operator = "IS NULL"
	OperatorIsNotNull Operator = "IS NOT NULL"
	OperatorDesc      Operator = "DESC"
)
