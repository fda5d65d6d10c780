package services

import (
	"context"
	"time"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
	"github.com/Junhyukkkk/anondocs-server/internal/server/repositories/diaries"
)

// DiaryService is the sole mutator of diary state. It owns the two edit
// policies: EditLww overwrites unconditionally, EditWithVersion accepts a
// write only when the writer's expected version matches the stored one.
// Not-found and ownership checks run before any version comparison in both
// policies.
type DiaryService struct {
	repo diaries.Repository
}

func NewDiaryService(repo diaries.Repository) *DiaryService {
	return &DiaryService{repo: repo}
}

// Create builds a diary owned by the principal. ANONYMOUS diaries get their
// publish timestamp stamped at creation.
func (s *DiaryService) Create(ctx context.Context, p *models.Principal, title, content string, visibility models.Visibility) (*models.Diary, error) {
	diary := &models.Diary{
		UserID:     p.ID,
		Title:      title,
		Content:    content,
		Visibility: visibility,
	}
	diary.PublishIfAnonymous(time.Now())

	return s.repo.Create(ctx, diary)
}

// EditLww overwrites the content without inspecting any version token.
// Whichever update reaches the store last wins; a losing concurrent writer
// gets no error and no indication its content was displaced.
func (s *DiaryService) EditLww(ctx context.Context, p *models.Principal, diaryID int64, content string) (*models.Diary, error) {
	if _, err := s.loadOwned(ctx, p, diaryID); err != nil {
		return nil, err
	}

	return s.repo.SaveContent(ctx, diaryID, content, diaries.AnyVersion)
}

// EditWithVersion accepts the write only when expectedVersion equals the
// stored version exactly. On mismatch nothing is mutated and the returned
// conflict discloses the current stored version so the client can reload
// and retry.
func (s *DiaryService) EditWithVersion(ctx context.Context, p *models.Principal, diaryID int64, content string, expectedVersion int64) (*models.Diary, error) {
	diary, err := s.loadOwned(ctx, p, diaryID)
	if err != nil {
		return nil, err
	}

	if diary.Version != expectedVersion {
		return nil, &common.VersionConflictError{CurrentVersion: diary.Version}
	}

	// The conditional save still carries the expectation: a writer that
	// commits between our load and this save turns into a conflict, not a
	// lost update.
	return s.repo.SaveContent(ctx, diaryID, content, expectedVersion)
}

// GetOwned returns the diary if the principal owns it.
func (s *DiaryService) GetOwned(ctx context.Context, p *models.Principal, diaryID int64) (*models.Diary, error) {
	return s.loadOwned(ctx, p, diaryID)
}

func (s *DiaryService) ListOwned(ctx context.Context, p *models.Principal, limit, offset int) ([]*models.Diary, error) {
	return s.repo.SelectByOwner(ctx, p.ID, limit, offset)
}

// Feed lists published ANONYMOUS diaries, newest first.
func (s *DiaryService) Feed(ctx context.Context, limit, offset int) ([]*models.Diary, error) {
	return s.repo.SelectFeed(ctx, limit, offset)
}

// Delete soft-deletes an owned diary. The row is retained.
func (s *DiaryService) Delete(ctx context.Context, p *models.Principal, diaryID int64) error {
	if _, err := s.loadOwned(ctx, p, diaryID); err != nil {
		return err
	}
	return s.repo.MarkDeleted(ctx, diaryID)
}

func (s *DiaryService) loadOwned(ctx context.Context, p *models.Principal, diaryID int64) (*models.Diary, error) {
	diary, err := s.repo.GetByID(ctx, diaryID)
	if err != nil {
		return nil, err
	}
	if diary.UserID != p.ID {
		return nil, common.ErrorForbidden
	}
	return diary, nil
}
