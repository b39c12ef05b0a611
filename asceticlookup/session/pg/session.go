package pg

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-lookup-go/asceticlookup/session"
)

// Session runs queries on a pooled connection outside of a transaction
type Session struct {
	ctx  context.Context
	conn *pgxpool.Conn
}

func NewSession(ctx context.Context, conn *pgxpool.Conn) *Session {
	return &Session{
		ctx:  ctx,
		conn: conn,
	}
}

func (s *Session) Context() context.Context {
	return s.ctx
}

func (s *Session) Connection() session.DbConnection {
	return &connection{ctx: s.ctx, querier: s.conn}
}

// Atomic runs callback in a read-only transaction, so that every query it
// makes sees the same snapshot.
func (s *Session) Atomic(callback session.SessionCallback) error {
	tx, err := s.conn.BeginTx(s.ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return errors.Wrap(err, "unable to start transaction")
	}
	return finish(s.ctx, tx, callback(NewAtomicSession(s.ctx, tx)))
}

// AtomicSession represents a session inside transaction
type AtomicSession struct {
	ctx context.Context
	tx  pgx.Tx
}

func NewAtomicSession(ctx context.Context, tx pgx.Tx) *AtomicSession {
	return &AtomicSession{
		ctx: ctx,
		tx:  tx,
	}
}

func (s *AtomicSession) Context() context.Context {
	return s.ctx
}

func (s *AtomicSession) Connection() session.DbConnection {
	return &connection{ctx: s.ctx, querier: s.tx}
}

func (s *AtomicSession) Atomic(callback session.SessionCallback) error {
	nestedTx, err := s.tx.Begin(s.ctx)
	if err != nil {
		return errors.Wrap(err, "unable to start savepoint")
	}
	return finish(s.ctx, nestedTx, callback(NewAtomicSession(s.ctx, nestedTx)))
}

func finish(ctx context.Context, tx pgx.Tx, err error) error {
	if err != nil {
		if txErr := tx.Rollback(ctx); txErr != nil {
			return multierror.Append(err, txErr)
		}
		return err
	}
	if txErr := tx.Commit(ctx); txErr != nil {
		return errors.Wrap(txErr, "failed to commit transaction")
	}
	return nil
}

// querier is satisfied by both *pgxpool.Conn and pgx.Tx
type querier interface {
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

type connection struct {
	ctx     context.Context
	querier querier
}

func (c *connection) Query(query string, args ...any) (session.Rows, error) {
	rows, err := c.querier.Query(c.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &rowsAdapter{rows: rows}, nil
}

func (c *connection) QueryRow(query string, args ...any) session.Row {
	row := c.querier.QueryRow(c.ctx, query, args...)
	return &rowAdapter{row: row}
}
