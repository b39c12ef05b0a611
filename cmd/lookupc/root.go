package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/config"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup/pkcodec"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
)

type rootOptions struct {
	ConfigPath string
	SchemaPath string
	Entity     string
	Filter     string
	Exclude    string
	Order      []string
	Codec      string
	JSONLog    bool
}

// app is what every command runs against, set up before the command runs
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	catalog  schema.Catalog
	compiler *lookup.Compiler
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "lookupc",
		Short:         "Compile filter, exclude and order_by lookups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setUp(opts)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (LOOKUP_* variables override it)")
	flags.StringVar(&opts.SchemaPath, "schema", "", "schema YAML file, the configured schema by default")
	flags.StringVar(&opts.Entity, "entity", "", "root entity")
	flags.StringVar(&opts.Filter, "filter", "", "filter lookups as a JSON object")
	flags.StringVar(&opts.Exclude, "exclude", "", "exclude lookups as a JSON object")
	flags.StringSliceVar(&opts.Order, "order", nil, "order_by keys, \"-\" prefix for descending")
	flags.StringVar(&opts.Codec, "pk-codec", "json", "composite primary key codec (json|msgpack)")
	flags.BoolVar(&opts.JSONLog, "json-log", false, "log in JSON")
	_ = cmd.MarkPersistentFlagRequired("entity")

	cmd.AddCommand(newPlanCommand(opts, a))
	cmd.AddCommand(newSQLCommand(opts, a))
	cmd.AddCommand(newQueryCommand(opts, a))

	return cmd
}

func (a *app) setUp(opts *rootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Log.Level, opts.JSONLog || cfg.Log.JSON)
	if err != nil {
		return err
	}

	path := opts.SchemaPath
	if path == "" {
		path = cfg.Schema
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open schema")
	}
	defer f.Close()
	registry, err := schema.LoadYAML(f)
	if err != nil {
		return errors.Wrapf(err, "load schema \"%s\"", path)
	}
	cached, err := schema.NewCachedIntrospector(registry, schema.DefaultCacheSize)
	if err != nil {
		return err
	}
	a.catalog = cached

	var codec pkcodec.Codec
	switch opts.Codec {
	case "json":
		codec = pkcodec.JSONCodec{}
	case "msgpack":
		codec = pkcodec.MsgpackCodec{}
	default:
		return errors.Errorf("unknown pk codec \"%s\": must be one of json, msgpack", opts.Codec)
	}
	a.compiler = lookup.NewCompiler(cached, lookup.WithCodec(codec), lookup.WithLogger(a.logger))
	return nil
}

func (a *app) build(opts *rootOptions) (*lookup.Plan, error) {
	filter, err := parseQuery("filter", opts.Filter)
	if err != nil {
		return nil, err
	}
	exclude, err := parseQuery("exclude", opts.Exclude)
	if err != nil {
		return nil, err
	}
	return a.compiler.Build(opts.Entity, filter, exclude, opts.Order)
}

func newLogger(level string, jsonEncoding bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewDevelopmentConfig()
	if jsonEncoding {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
