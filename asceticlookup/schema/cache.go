package schema

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 256

type cacheEntry struct {
	columns    []Column
	relations  []Relation
	primaryKey []Column
}

// CachedIntrospector memoizes introspection results per entity. It is safe
// for concurrent use as long as the wrapped schema does not change.
type CachedIntrospector struct {
	delegate Introspector
	cache    *lru.Cache[string, cacheEntry]
}

func NewCachedIntrospector(delegate Introspector, size int) (*CachedIntrospector, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedIntrospector{
		delegate: delegate,
		cache:    cache,
	}, nil
}

func (c *CachedIntrospector) load(entity string) (cacheEntry, error) {
	if entry, ok := c.cache.Get(entity); ok {
		return entry, nil
	}
	columns, err := c.delegate.Columns(entity)
	if err != nil {
		return cacheEntry{}, err
	}
	relations, err := c.delegate.Relations(entity)
	if err != nil {
		return cacheEntry{}, err
	}
	primaryKey, err := c.delegate.PrimaryKey(entity)
	if err != nil {
		return cacheEntry{}, err
	}
	entry := cacheEntry{
		columns:    columns,
		relations:  relations,
		primaryKey: primaryKey,
	}
	c.cache.Add(entity, entry)
	return entry, nil
}

func (c *CachedIntrospector) Columns(entity string) ([]Column, error) {
	entry, err := c.load(entity)
	if err != nil {
		return nil, err
	}
	return append([]Column(nil), entry.columns...), nil
}

func (c *CachedIntrospector) Relations(entity string) ([]Relation, error) {
	entry, err := c.load(entity)
	if err != nil {
		return nil, err
	}
	return append([]Relation(nil), entry.relations...), nil
}

func (c *CachedIntrospector) PrimaryKey(entity string) ([]Column, error) {
	entry, err := c.load(entity)
	if err != nil {
		return nil, err
	}
	return append([]Column(nil), entry.primaryKey...), nil
}

// Table forwards to the wrapped introspector when it is a Catalog
func (c *CachedIntrospector) Table(entity string) (string, error) {
	catalog, ok := c.delegate.(Catalog)
	if !ok {
		return "", fmt.Errorf("%w: \"%s\" has no table mapping", ErrUnknownEntity, entity)
	}
	return catalog.Table(entity)
}

// Purge drops every memoized entity
func (c *CachedIntrospector) Purge() {
	c.cache.Purge()
}
