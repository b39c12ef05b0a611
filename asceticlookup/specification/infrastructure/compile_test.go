package specification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/lookup"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/schema"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/utils/testutils"
)

func newTestSchema() *schema.Registry {
	return schema.NewRegistry().
		Entity("Variable", "variables").
		Column("id", schema.TypeInteger).
		Column("value", schema.TypeFloat).
		Column("attribute_id", schema.TypeInteger).
		PrimaryKey("id").
		Relation("attribute", "Attribute", "attribute_id", "id").
		Entity("Attribute", "attributes").
		Column("tenant_id", schema.TypeUUID).
		Column("id", schema.TypeInteger).
		Column("description", schema.TypeText).
		Column("database_id", schema.TypeInteger).
		PrimaryKey("id").
		RelationComposite("database", "Database", []schema.KeyPair{
			{Local: "tenant_id", Remote: "tenant_id"},
			{Local: "database_id", Remote: "id"},
		}).
		Entity("Database", "databases").
		Column("tenant_id", schema.TypeUUID).
		Column("id", schema.TypeInteger).
		Column("name", schema.TypeText).
		PrimaryKey("tenant_id", "id").
		Registry()
}

func compile(t *testing.T, filter, exclude lookup.Query, orderBy []string) *Statement {
	t.Helper()
	reg := newTestSchema()
	plan, err := lookup.NewCompiler(reg).Build("Variable", filter, exclude, orderBy)
	require.NoError(t, err)
	stmt, err := CompileSelect(reg, plan)
	require.NoError(t, err)
	return stmt
}

const selectVariables = `SELECT "Variable"."id", "Variable"."value", "Variable"."attribute_id" FROM "variables" AS "Variable"`

func TestCompileSelectRelatedFilter(t *testing.T) {
	stmt := compile(t, lookup.Query{"attribute__description__contains": "Foo"}, nil, nil)

	expected := selectVariables +
		` JOIN "attributes" AS "attribute" ON "attribute"."id" = "Variable"."attribute_id"` +
		` WHERE "attribute"."description" LIKE $1`
	assert.Equal(t, expected, stmt.SQL)
	assert.Equal(t, []any{"%Foo%"}, stmt.Params)
	assert.Len(t, stmt.Columns, 3)
}

func TestCompileSelectLocalFilter(t *testing.T) {
	stmt := compile(t, lookup.Query{"value__gt": 2}, nil, nil)

	assert.Equal(t, selectVariables+` WHERE "Variable"."value" > $1`, stmt.SQL)
	assert.Equal(t, []any{2}, stmt.Params)
}

func TestCompileSelectOrder(t *testing.T) {
	stmt := compile(t, nil, nil, []string{"-value", "attribute__description"})

	expected := selectVariables +
		` JOIN "attributes" AS "attribute" ON "attribute"."id" = "Variable"."attribute_id"` +
		` ORDER BY "Variable"."value" DESC, "attribute"."description"`
	assert.Equal(t, expected, stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestCompileSelectCompositeJoinAndExclude(t *testing.T) {
	stmt := compile(
		t,
		lookup.Query{"attribute__database__name__in": []string{"a", "b"}},
		lookup.Query{"value__range": []int{1, 5}},
		[]string{"attribute__database__name"},
	)

	expected := selectVariables +
		` JOIN "attributes" AS "attribute" ON "attribute"."id" = "Variable"."attribute_id"` +
		` JOIN "databases" AS "attribute__database"` +
		` ON "attribute__database"."tenant_id" = "attribute"."tenant_id"` +
		` AND "attribute__database"."id" = "attribute"."database_id"` +
		` WHERE "attribute__database"."name" = ANY($1)` +
		` AND NOT ("Variable"."value" >= $2 AND "Variable"."value" <= $3)` +
		` ORDER BY "attribute__database"."name"`
	assert.Equal(t, expected, stmt.SQL)
	assert.Equal(t, []any{[]any{"a", "b"}, 1, 5}, stmt.Params)
}

func TestCompileSelectUnknownTable(t *testing.T) {
	_, err := CompileSelect(newTestSchema(), &lookup.Plan{Entity: "Missing"})
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
}

func TestFinderFind(t *testing.T) {
	rows := testutils.NewRowsStub(
		[]any{int64(1), 2.5, int64(10)},
		[]any{int64(2), 3.5, nil},
	)
	stub := testutils.NewDbSessionStub(rows)
	core, logs := observer.New(zapcore.DebugLevel)
	reg := newTestSchema()

	plan, err := lookup.NewCompiler(reg).Build("Variable", lookup.Query{"value__gte": 2}, nil, []string{"id"})
	require.NoError(t, err)

	records, err := NewFinder(reg, zap.New(core)).Find(stub, plan)
	require.NoError(t, err)

	assert.Equal(t, selectVariables+` WHERE "Variable"."value" >= $1 ORDER BY "Variable"."id"`, stub.ActualQuery)
	assert.Equal(t, []any{2}, stub.ActualParams)
	assert.Equal(t, []Record{
		{"id": int64(1), "value": 2.5, "attribute_id": int64(10)},
		{"id": int64(2), "value": 3.5, "attribute_id": nil},
	}, records)
	assert.True(t, rows.Closed)

	require.Equal(t, 2, logs.Len())
	started, ended := logs.All()[0], logs.All()[1]
	assert.Equal(t, "query started", started.Message)
	assert.Equal(t, "query ended", ended.Message)
	assert.Equal(t, started.ContextMap()["query_id"], ended.ContextMap()["query_id"])
	assert.Equal(t, int64(2), ended.ContextMap()["rows"])
}

func TestFinderQueryError(t *testing.T) {
	stub := testutils.NewDbSessionStub(testutils.NewRowsStub())
	stub.QueryErr = errors.New("connection reset")
	reg := newTestSchema()

	plan, err := lookup.NewCompiler(reg).Build("Variable", nil, nil, nil)
	require.NoError(t, err)

	_, err = NewFinder(reg, nil).Find(stub, plan)
	assert.ErrorIs(t, err, stub.QueryErr)
}

func TestFinderIntegration(t *testing.T) {
	pool := testutils.NewPgSessionPool(t)
	reg := schema.NewRegistry().
		Entity("Namespace", "pg_namespace").
		Column("nspname", schema.TypeText).
		PrimaryKey("nspname").
		Registry()
	plan, err := lookup.NewCompiler(reg).Build("Namespace", lookup.Query{"nspname__startswith": "pg_cat"}, nil, nil)
	require.NoError(t, err)

	var records []Record
	err = pool.Session(context.Background(), func(sess session.Session) error {
		return sess.Atomic(func(tx session.Session) error {
			var err error
			records, err = NewFinder(reg, nil).Find(tx.(session.DbSession), plan)
			return err
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []Record{{"nspname": "pg_catalog"}}, records)
}
