package diaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/dbx"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

const diaryColumns = `id, user_id, title, content, visibility, version, published_at, is_deleted, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Diary, error) {
	query := `SELECT ` + diaryColumns + ` FROM diaries WHERE id = $1 AND NOT is_deleted`

	return scanDiary(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, diary *models.Diary) (*models.Diary, error) {
	query := `
		INSERT INTO diaries (user_id, title, content, visibility, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		diary.UserID, diary.Title, diary.Content, diary.Visibility, diary.PublishedAt).
		Scan(&diary.ID, &diary.Version, &diary.CreatedAt, &diary.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	return diary, nil
}

// SaveContent relies on the row-level atomicity of a conditional UPDATE as
// the serialization point for concurrent writers. The stale-writer path
// re-reads the row so the conflict error can disclose the current version.
func (r *PostgresRepository) SaveContent(ctx context.Context, id int64, content string, expectedVersion int64) (*models.Diary, error) {
	var row *sql.Row
	if expectedVersion == AnyVersion {
		query := `
			UPDATE diaries SET content = $2, version = version + 1, updated_at = now()
			WHERE id = $1 AND NOT is_deleted
			RETURNING ` + diaryColumns
		row = r.db.QueryRowContext(ctx, query, id, content)
	} else {
		query := `
			UPDATE diaries SET content = $2, version = version + 1, updated_at = now()
			WHERE id = $1 AND version = $3 AND NOT is_deleted
			RETURNING ` + diaryColumns
		row = r.db.QueryRowContext(ctx, query, id, content, expectedVersion)
	}

	diary, err := scanDiary(row)
	if err == nil {
		return diary, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	// No row updated: either the diary is gone or the expectation was stale.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &common.VersionConflictError{CurrentVersion: current.Version}
}

func (r *PostgresRepository) MarkDeleted(ctx context.Context, id int64) error {
	query := `UPDATE diaries SET is_deleted = TRUE, updated_at = now() WHERE id = $1 AND NOT is_deleted`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SelectByOwner(ctx context.Context, userID int64, limit, offset int) ([]*models.Diary, error) {
	query := `
		SELECT ` + diaryColumns + ` FROM diaries
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.selectDiaries(ctx, query, userID, limit, offset)
}

func (r *PostgresRepository) SelectFeed(ctx context.Context, limit, offset int) ([]*models.Diary, error) {
	query := `
		SELECT ` + diaryColumns + ` FROM diaries
		WHERE visibility = $1 AND NOT is_deleted
		ORDER BY published_at DESC
		LIMIT $2 OFFSET $3`

	return r.selectDiaries(ctx, query, models.VisibilityAnonymous, limit, offset)
}

func (r *PostgresRepository) selectDiaries(ctx context.Context, query string, args ...any) ([]*models.Diary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	defer rows.Close()

	var result []*models.Diary
	for rows.Next() {
		d := &models.Diary{}
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.Visibility, &d.Version,
			&d.PublishedAt, &d.Deleted, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func scanDiary(row *sql.Row) (*models.Diary, error) {
	d := &models.Diary{}
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.Content, &d.Visibility, &d.Version,
		&d.PublishedAt, &d.Deleted, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}
	return d, nil
}
