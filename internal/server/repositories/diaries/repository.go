// Package diaries implements the diary store gateway. SaveContent is the
// single persistence primitive for content mutations: called with a concrete
// expected version it is a compare-and-swap, called with AnyVersion it is an
// unconditional last-write-wins overwrite. Either way the stored version
// advances by exactly 1 per committed write.
package diaries

import (
	"context"

	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// AnyVersion makes SaveContent skip the version comparison.
const AnyVersion int64 = -1

type Repository interface {
	// GetByID returns the diary or common.ErrorNotFound. Soft-deleted
	// diaries are reported as not found.
	GetByID(ctx context.Context, id int64) (*models.Diary, error)

	// Create inserts a new diary and returns it with id, version and
	// timestamps populated.
	Create(ctx context.Context, diary *models.Diary) (*models.Diary, error)

	// SaveContent overwrites the content of an existing diary and bumps its
	// version. When expectedVersion != AnyVersion and the stored version
	// differs, nothing is written and a *common.VersionConflictError
	// carrying the stored version is returned.
	SaveContent(ctx context.Context, id int64, content string, expectedVersion int64) (*models.Diary, error)

	// MarkDeleted soft-deletes the diary.
	MarkDeleted(ctx context.Context, id int64) error

	// SelectByOwner lists the owner's non-deleted diaries, newest first.
	SelectByOwner(ctx context.Context, userID int64, limit, offset int) ([]*models.Diary, error)

	// SelectFeed lists ANONYMOUS non-deleted diaries by publish time, newest first.
	SelectFeed(ctx context.Context, limit, offset int) ([]*models.Diary, error)
}
