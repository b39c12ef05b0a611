package main

import (
	"bytes"
	"context"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup/pkcodec"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
	pgsession "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session/pg"
	specification "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/specification/infrastructure"
)

func newPlanCommand(opts *rootOptions, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the query plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.build(opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), describePlan(plan))
		},
	}
}

func newSQLCommand(opts *rootOptions, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sql",
		Short: "Print the PostgreSQL statement and its parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.build(opts)
			if err != nil {
				return err
			}
			stmt, err := specification.CompileSelect(a.catalog, plan)
			if err != nil {
				return err
			}
			params := stmt.Params
			if params == nil {
				params = []any{}
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"sql":    stmt.SQL,
				"params": params,
			})
		},
	}
}

func newQueryCommand(opts *rootOptions, a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Run the statement against the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.build(opts)
			if err != nil {
				return err
			}
			connString, err := a.cfg.Database.ConnString()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			pool, err := pgxpool.New(ctx, connString)
			if err != nil {
				return errors.Wrap(err, "connect")
			}
			defer pool.Close()

			finder := specification.NewFinder(a.catalog, a.logger)
			var records []specification.Record
			err = pgsession.NewSessionPool(pool).Session(ctx, func(s session.Session) error {
				return s.Atomic(func(tx session.Session) error {
					var err error
					records, err = finder.Find(tx.(session.DbSession), plan)
					return err
				})
			})
			if err != nil {
				return err
			}
			if records == nil {
				records = []specification.Record{}
			}
			return writeJSON(cmd.OutOrStdout(), records)
		},
	}
}

// parseQuery decodes a JSON object of lookups. Numbers become int64 when
// integral and float64 otherwise.
func parseQuery(name, raw string) (lookup.Query, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var query map[string]any
	if err := dec.Decode(&query); err != nil {
		return nil, errors.Wrapf(err, "decode --%s", name)
	}
	for key, value := range query {
		query[key] = normalize(value)
	}
	return query, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
		return x
	}
	return pkcodec.Normalize(v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type joinView struct {
	Alias  string     `json:"alias"`
	Target string     `json:"target"`
	On     [][]string `json:"on"`
}

type entryView struct {
	Key     string `json:"key"`
	Entity  string `json:"entity"`
	Column  string `json:"column"`
	JSONKey string `json:"json_key,omitempty"`
	Lookup  string `json:"lookup"`
	Value   any    `json:"value"`
}

type orderView struct {
	Key       string `json:"key"`
	Entity    string `json:"entity"`
	Column    string `json:"column"`
	JSONKey   string `json:"json_key,omitempty"`
	Direction string `json:"direction"`
}

type planView struct {
	Entity   string      `json:"entity"`
	Joins    []joinView  `json:"joins"`
	Filters  []entryView `json:"filters"`
	Excludes []entryView `json:"excludes"`
	Order    []orderView `json:"order"`
}

func describePlan(plan *lookup.Plan) planView {
	view := planView{
		Entity:   plan.Entity,
		Joins:    []joinView{},
		Filters:  describeEntries(plan.Filters),
		Excludes: describeEntries(plan.Excludes),
		Order:    []orderView{},
	}
	for _, j := range plan.Joins {
		on := make([][]string, len(j.Relation.Condition.Pairs))
		for i, pair := range j.Relation.Condition.Pairs {
			on[i] = []string{pair.Local, pair.Remote}
		}
		view.Joins = append(view.Joins, joinView{Alias: j.Alias(), Target: j.Relation.Target, On: on})
	}
	for _, o := range plan.Order {
		view.Order = append(view.Order, orderView{
			Key:       o.Key,
			Entity:    o.Entity,
			Column:    o.Column.Name,
			JSONKey:   o.JSONKey,
			Direction: string(o.Direction),
		})
	}
	return view
}

func describeEntries(entries []lookup.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			Key:     e.Key,
			Entity:  e.Entity,
			Column:  e.Column.Name,
			JSONKey: e.JSONKey,
			Lookup:  e.Lookup,
			Value:   e.Value,
		})
	}
	return views
}
