package lookup

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
	s "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/domain"
)

// Plan is everything an execution layer needs to run a compiled query.
// Excludes hold the predicates to be negated.
type Plan struct {
	Entity   string
	Joins    []Join
	Filters  []Entry
	Excludes []Entry
	Order    []OrderEntry
}

// Where folds the filters and the negated excludes into one predicate,
// nil when there are none.
func (p *Plan) Where() s.Visitable {
	var predicates []s.Visitable
	for _, f := range p.Filters {
		predicates = append(predicates, f.Predicate)
	}
	for _, e := range p.Excludes {
		predicates = append(predicates, s.Not(e.Predicate))
	}
	switch len(predicates) {
	case 0:
		return nil
	case 1:
		return predicates[0]
	}
	return s.And(predicates[0], predicates[1:]...)
}

// Build compiles filter and exclude dictionaries and an order_by list into a
// plan. Either the whole plan is returned or an error.
func (c *Compiler) Build(entity string, filter, exclude Query, orderBy []string) (*Plan, error) {
	primaryKey, err := c.schema.PrimaryKey(entity)
	if err != nil {
		return nil, errors.Wrapf(err, "introspect \"%s\"", entity)
	}

	filter, err = c.expand(entity, filter, ModeFilter, primaryKey)
	if err != nil {
		return nil, errors.Wrap(err, "expand filter")
	}
	exclude, err = c.expand(entity, exclude, ModeExclude, primaryKey)
	if err != nil {
		return nil, errors.Wrap(err, "expand exclude")
	}
	terms, err := ParseOrderBy(orderBy)
	if err != nil {
		return nil, errors.Wrap(setEntity(err, entity), "parse order_by")
	}

	filters, err := c.Resolve(entity, filter)
	if err != nil {
		return nil, errors.Wrap(err, "resolve filter")
	}
	excludes, err := c.Resolve(entity, exclude)
	if err != nil {
		return nil, errors.Wrap(err, "resolve exclude")
	}
	order, err := c.ResolveOrder(entity, terms)
	if err != nil {
		return nil, errors.Wrap(err, "resolve order_by")
	}

	plan := &Plan{
		Entity:   entity,
		Joins:    dedupeJoins(filters.Joins, excludes.Joins, order.Joins),
		Filters:  filters.Entries,
		Excludes: excludes.Entries,
		Order:    order.Order,
	}
	c.logger.Debug(
		"plan built",
		zap.String("entity", entity),
		zap.Int("joins", len(plan.Joins)),
		zap.Int("filters", len(plan.Filters)),
		zap.Int("excludes", len(plan.Excludes)),
		zap.Int("order", len(plan.Order)),
	)
	return plan, nil
}

func (c *Compiler) expand(entity string, query Query, mode Mode, primaryKey []schema.Column) (Query, error) {
	expanded, err := ExpandCompositeKey(query, mode, primaryKey, c.codec)
	if err != nil {
		return nil, setEntity(err, entity)
	}
	return expanded, nil
}

func setEntity(err error, entity string) error {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) && lookupErr.Entity == "" {
		lookupErr.Entity = entity
	}
	return err
}

// dedupeJoins unions join lists in encounter order. Joins are the same when
// they follow the same relation path to the same entity.
func dedupeJoins(lists ...[]Join) []Join {
	type joinKey struct {
		alias  string
		target string
	}
	var result []Join
	seen := make(map[joinKey]struct{})
	for _, list := range lists {
		for _, j := range list {
			key := joinKey{j.Alias(), j.Relation.Target}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			result = append(result, j)
		}
	}
	return result
}
