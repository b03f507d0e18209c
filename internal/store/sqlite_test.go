package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	at := time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)
	return newStore(sqlx.NewDb(db, "sqlite"), WithClock(func() time.Time { return at })), mock
}

func TestReorderTasks_CommitFailure(t *testing.T) {
	s, mock := newMockStore(t)
	changes, cancel := s.Subscribe()
	defer cancel()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, is_deleted FROM tasks WHERE id IN").
		WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_deleted"}).
			AddRow(int64(1), 0).
			AddRow(int64(2), 0))
	mock.ExpectExec("UPDATE tasks SET sort_order").
		WithArgs(int64(0), sqlmock.AnyArg(), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE tasks SET sort_order").
		WithArgs(int64(1000), sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := s.ReorderTasks(context.Background(), []int64{2, 1})

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
	select {
	case c := <-changes:
		t.Fatalf("change published for a failed commit: %+v", c)
	default:
	}
}

func TestDeleteList_ExecFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM lists WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectQuery("SELECT id FROM tasks WHERE list_id = ?").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("UPDATE tasks SET list_id = ?").
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err := s.DeleteList(context.Background(), 5)

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginFailure(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("cannot open"))

	err := s.HardDeleteTask(context.Background(), 1)

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHub_CoalescesWhenFull(t *testing.T) {
	h := newHub()
	ch, cancel := h.subscribe([]Collection{CollectionTasks})
	defer cancel()

	for i := range subscriberBuffer + 5 {
		h.publish([]Change{{Collection: CollectionTasks, IDs: []int64{int64(i)}}})
	}
	h.publish([]Change{{Collection: CollectionLists, IDs: []int64{1}}})

	assert.Len(t, ch, subscriberBuffer)
	for range subscriberBuffer {
		c := <-ch
		assert.Equal(t, CollectionTasks, c.Collection)
	}

	h.closeAll()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}
