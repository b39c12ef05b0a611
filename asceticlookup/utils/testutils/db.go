package testutils

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/config"
	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
	pgsession "github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session/pg"
)

// NewPgSessionPool connects to the database described by LOOKUP_DATABASE_*
// variables. The test is skipped unless LOOKUP_DATABASE_HOST is set.
func NewPgSessionPool(t *testing.T) session.SessionPool {
	t.Helper()
	if _, ok := os.LookupEnv(config.EnvPrefix + "_DATABASE_HOST"); !ok {
		t.Skip(config.EnvPrefix + "_DATABASE_HOST is not set")
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	connString, err := cfg.Database.ConnString()
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	return pgsession.NewSessionPool(pool)
}
