package pg

import (
	"github.com/jackc/pgx/v5"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
)

var (
	_ session.Rows         = (*rowsAdapter)(nil)
	_ session.Row          = (*rowAdapter)(nil)
	_ session.DbConnection = (*connection)(nil)
	_ session.DbSession    = (*Session)(nil)
	_ session.DbSession    = (*AtomicSession)(nil)
)

// rowsAdapter adapts pgx.Rows to session.Rows. pgx releases the
// connection on Close, which never fails; the error surfaces from Err.
type rowsAdapter struct {
	rows pgx.Rows
}

func (r *rowsAdapter) Close() error {
	r.rows.Close()
	return nil
}

func (r *rowsAdapter) Err() error {
	return r.rows.Err()
}

func (r *rowsAdapter) Next() bool {
	return r.rows.Next()
}

func (r *rowsAdapter) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

// rowAdapter adapts pgx.Row to session.Row and keeps the first Scan error,
// as pgx.Row reports it only once.
type rowAdapter struct {
	row pgx.Row
	err error
}

func (r *rowAdapter) Err() error {
	return r.err
}

func (r *rowAdapter) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.err == nil {
		r.err = err
	}
	return err
}
