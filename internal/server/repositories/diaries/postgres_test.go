package diaries

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, func() { _ = db.Close() }
}

func diaryRows(version int64, content string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "title", "content", "visibility", "version",
		"published_at", "is_deleted", "created_at", "updated_at",
	}).AddRow(7, 1, "T", content, "PRIVATE", version, nil, false, now, now)
}

func TestSaveContent_VersionChecked_Success(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(`UPDATE diaries SET content = \$2, version = version \+ 1.*version = \$3`).
		WithArgs(int64(7), "new", int64(3)).
		WillReturnRows(diaryRows(4, "new"))

	d, err := repo.SaveContent(context.Background(), 7, "new", 3)
	require.NoError(t, err)
	require.Equal(t, int64(4), d.Version)
	require.Equal(t, "new", d.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContent_StaleWrite_DisclosesCurrentVersion(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(`UPDATE diaries SET content = \$2.*version = \$3`).
		WithArgs(int64(7), "new", int64(3)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM diaries WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(diaryRows(5, "other"))

	_, err := repo.SaveContent(context.Background(), 7, "new", 3)

	var conflict *common.VersionConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, int64(5), conflict.CurrentVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContent_Lww_NoVersionPredicate(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(`UPDATE diaries SET content = \$2, version = version \+ 1, updated_at = now\(\)\s+WHERE id = \$1 AND NOT is_deleted\s+RETURNING`).
		WithArgs(int64(7), "lww").
		WillReturnRows(diaryRows(9, "lww"))

	d, err := repo.SaveContent(context.Background(), 7, "lww", AnyVersion)
	require.NoError(t, err)
	require.Equal(t, int64(9), d.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContent_DiaryGone(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(`UPDATE diaries SET content`).
		WithArgs(int64(8), "x", int64(1)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM diaries WHERE id = \$1`).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SaveContent(context.Background(), 8, "x", 1)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery(`SELECT .* FROM diaries WHERE id = \$1 AND NOT is_deleted`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMarkDeleted(t *testing.T) {
	repo, mock, done := newMock(t)
	defer done()

	mock.ExpectExec(`UPDATE diaries SET is_deleted = TRUE`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkDeleted(context.Background(), 7))

	mock.ExpectExec(`UPDATE diaries SET is_deleted = TRUE`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.MarkDeleted(context.Background(), 7), common.ErrorNotFound)
}
