package lookup

import (
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup/pkcodec"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
)

// Compiler compiles lookup dictionaries against a schema. It holds no
// per-call state and may be shared between goroutines.
type Compiler struct {
	schema  schema.Introspector
	lookups map[string]Lookup
	names   []string
	codec   pkcodec.Codec
	logger  *zap.Logger
}

type Option func(*Compiler)

// WithCodec sets the composite primary key codec, JSONCodec by default
func WithCodec(codec pkcodec.Codec) Option {
	return func(c *Compiler) {
		c.codec = codec
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithLookups adds lookups to the table or replaces ones with the same name
func WithLookups(lookups ...Lookup) Option {
	return func(c *Compiler) {
		for _, l := range lookups {
			if _, ok := c.lookups[l.Name]; !ok {
				c.names = append(c.names, l.Name)
			}
			c.lookups[l.Name] = l
		}
	}
}

func NewCompiler(introspector schema.Introspector, opts ...Option) *Compiler {
	c := &Compiler{
		schema:  introspector,
		lookups: make(map[string]Lookup),
		codec:   pkcodec.JSONCodec{},
		logger:  zap.NewNop(),
	}
	WithLookups(Lookups()...)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Compiler) Schema() schema.Introspector {
	return c.schema
}

// LookupNames returns the names of known lookups in table order
func (c *Compiler) LookupNames() []string {
	return append([]string(nil), c.names...)
}
