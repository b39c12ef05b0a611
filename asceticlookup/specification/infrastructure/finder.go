package specification

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
)

// Record is a row of the root entity keyed by column name
type Record map[string]any

// Finder runs compiled plans against PostgreSQL
type Finder struct {
	catalog schema.Catalog
	logger  *zap.Logger
}

func NewFinder(catalog schema.Catalog, logger *zap.Logger) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finder{
		catalog: catalog,
		logger:  logger,
	}
}

func (f *Finder) Find(s session.DbSession, plan *lookup.Plan) ([]Record, error) {
	stmt, err := CompileSelect(f.catalog, plan)
	if err != nil {
		return nil, err
	}
	if err := s.Context().Err(); err != nil {
		return nil, err
	}

	queryID := ulid.Make()
	logger := f.logger.With(zap.Stringer("query_id", queryID), zap.String("entity", plan.Entity))
	logger.Debug("query started", zap.String("sql", stmt.SQL), zap.Int("params", len(stmt.Params)))
	started := time.Now()

	rows, err := s.Connection().Query(stmt.SQL, stmt.Params...)
	if err != nil {
		logger.Error("query failed", zap.Error(err))
		return nil, errors.Wrapf(err, "query %s", queryID)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		values := make([]any, len(stmt.Columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scan %s", queryID)
		}
		record := make(Record, len(values))
		for i, col := range stmt.Columns {
			record[col.Name] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "query %s", queryID)
	}

	logger.Debug("query ended", zap.Int("rows", len(records)), zap.Duration("response_time", time.Since(started)))
	return records, nil
}
