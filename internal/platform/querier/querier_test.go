package querier

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack int
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack++
	return nil
}

type fakeDB struct {
	Querier
	tx *fakeTx
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

func TestInTxCommits(t *testing.T) {
	db := &fakeDB{}
	var inner Querier
	err := InTx(context.Background(), db, func(ctx context.Context) error {
		inner = From(ctx, db)
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, db.tx, inner)
	assert.True(t, db.tx.committed)
	assert.Zero(t, db.tx.rolledBack)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := &fakeDB{}
	boom := errors.New("boom")
	err := InTx(context.Background(), db, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, db.tx.committed)
	assert.Equal(t, 1, db.tx.rolledBack)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	db := &fakeDB{}
	assert.Panics(t, func() {
		_ = InTx(context.Background(), db, func(context.Context) error { panic("mid-transaction") })
	})
	assert.False(t, db.tx.committed)
	assert.Equal(t, 1, db.tx.rolledBack)
}

func TestInTxReusesOuterTransaction(t *testing.T) {
	db := &fakeDB{}
	err := InTx(context.Background(), db, func(ctx context.Context) error {
		outer := db.tx
		return InTx(ctx, db, func(ctx context.Context) error {
			assert.Same(t, outer, db.tx)
			assert.Same(t, outer, From(ctx, db))
			return nil
		})
	})
	require.NoError(t, err)
	assert.True(t, db.tx.committed)
}
