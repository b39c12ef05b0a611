package lookup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedPath                = errors.New("malformed path")
	ErrUnknownToken                 = errors.New("unknown token")
	ErrInvalidOrderDirection        = errors.New("invalid order direction")
	ErrUnsupportedCompositeKeyUsage = errors.New("unsupported composite key usage")
	ErrAmbiguousCompositeKeyFilter  = errors.New("ambiguous composite key filter")
	ErrInvalidLookupValue           = errors.New("invalid lookup value")
)

// LookupError describes why a query key could not be compiled. It matches
// its Kind with errors.Is.
type LookupError struct {
	Kind   error
	Entity string
	Key    string
	Token  string
	Reason string

	// Available names of the entity the failing token was resolved against,
	// set for ErrUnknownToken.
	Columns   []string
	Relations []string
	Lookups   []string
}

func (e *LookupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, " (token \"%s\")", e.Token)
	}
	fmt.Fprintf(&b, "; key \"%s\" on entity \"%s\"", e.Key, e.Entity)
	if e.Columns != nil || e.Relations != nil || e.Lookups != nil {
		fmt.Fprintf(&b, "\ncolumns: [%s]", strings.Join(e.Columns, ", "))
		fmt.Fprintf(&b, "\nrelations: [%s]", strings.Join(e.Relations, ", "))
		fmt.Fprintf(&b, "\nlookups: [%s]", strings.Join(e.Lookups, ", "))
	}
	return b.String()
}

func (e *LookupError) Unwrap() error {
	return e.Kind
}

func newError(kind error, entity, key, token, reason string) *LookupError {
	return &LookupError{
		Kind:   kind,
		Entity: entity,
		Key:    key,
		Token:  token,
		Reason: reason,
	}
}
