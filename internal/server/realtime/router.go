package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/logging"
	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
	"github.com/Junhyukkkk/anondocs-server/internal/server/services"
)

const appPrefix = "/app/diaries/"

// Router dispatches inbound command frames to the diary service and maps
// every outcome, success or failure, to a broadcast. No failure escapes to
// the session: an error on one command leaves the connection usable.
type Router struct {
	diaries *services.DiaryService
	broker  *Broker
	logger  logging.Logger
}

func NewRouter(diaries *services.DiaryService, broker *Broker, logger logging.Logger) *Router {
	return &Router{
		diaries: diaries,
		broker:  broker,
		logger:  logger.With("module", "realtime_router"),
	}
}

// Handle routes one command frame. Destinations:
//
//	/app/diaries/create            create a diary
//	/app/diaries/{id}/edit         version-checked edit
//	/app/diaries/{id}/edit-lww     last-write-wins edit
//
// Frames for unknown destinations are logged and dropped.
func (r *Router) Handle(ctx context.Context, p *models.Principal, destination string, body json.RawMessage) {
	rest, ok := strings.CutPrefix(destination, appPrefix)
	if !ok {
		r.logger.Warn(ctx, "unknown destination", "destination", destination)
		return
	}

	if rest == "create" {
		r.handleCreate(ctx, p, body)
		return
	}

	idStr, op, ok := strings.Cut(rest, "/")
	if !ok {
		r.logger.Warn(ctx, "unknown destination", "destination", destination)
		return
	}
	diaryID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		r.logger.Warn(ctx, "non-numeric diary id", "destination", destination)
		return
	}

	switch op {
	case "edit":
		r.handleEdit(ctx, p, diaryID, body)
	case "edit-lww":
		r.handleEditLww(ctx, p, diaryID, body)
	default:
		r.logger.Warn(ctx, "unknown destination", "destination", destination)
	}
}

func (r *Router) handleCreate(ctx context.Context, p *models.Principal, body json.RawMessage) {
	var msg CreateMessage
	if err := decode(body, &msg); err != nil {
		r.publishCreateError(ctx, p, err)
		return
	}

	diary, err := r.diaries.Create(ctx, p, msg.Title, msg.Content, msg.Visibility)
	if err != nil {
		r.publishCreateError(ctx, p, err)
		return
	}

	broadcast := newCreateBroadcast(diary, p, time.Now().UnixMilli())
	r.broker.Publish(ctx, DiaryTopic(diary.ID), DiaryTopic(diary.ID), broadcast)
	r.broker.PublishToUser(ctx, p.Email, QueueDiaryCreated, broadcast)

	r.logger.Debug(ctx, "diary created", "diary_id", diary.ID, "version", diary.Version, "user_id", p.ID)
}

func (r *Router) handleEdit(ctx context.Context, p *models.Principal, diaryID int64, body json.RawMessage) {
	var msg EditMessage
	if err := decode(body, &msg); err != nil {
		r.publishEditError(ctx, diaryID, err)
		return
	}

	diary, err := r.diaries.EditWithVersion(ctx, p, diaryID, msg.Content, *msg.Version)
	if err != nil {
		r.publishEditError(ctx, diaryID, err)
		return
	}

	r.broker.Publish(ctx, DiaryTopic(diaryID), DiaryTopic(diaryID), newEditBroadcast(diary, p, time.Now().UnixMilli()))
	r.logger.Debug(ctx, "diary edited", "diary_id", diaryID, "version", diary.Version, "user_id", p.ID)
}

func (r *Router) handleEditLww(ctx context.Context, p *models.Principal, diaryID int64, body json.RawMessage) {
	var msg EditLwwMessage
	if err := decode(body, &msg); err != nil {
		r.publishEditError(ctx, diaryID, err)
		return
	}

	diary, err := r.diaries.EditLww(ctx, p, diaryID, msg.Content)
	if err != nil {
		r.publishEditError(ctx, diaryID, err)
		return
	}

	r.broker.Publish(ctx, DiaryTopic(diaryID), DiaryTopic(diaryID), newEditBroadcast(diary, p, time.Now().UnixMilli()))
	r.logger.Debug(ctx, "diary edited (lww)", "diary_id", diaryID, "version", diary.Version, "user_id", p.ID)
}

// publishCreateError goes to the creator's private errors queue only.
func (r *Router) publishCreateError(ctx context.Context, p *models.Principal, err error) {
	r.logger.Error(ctx, "create failed", "user_id", p.ID, "error", err)
	r.broker.PublishToUser(ctx, p.Email, QueueErrors, ErrorMessage{
		Code:    CodeCreateFailed,
		Message: "diary create failed: " + err.Error(),
	})
}

// publishEditError goes to the diary's public error topic: every subscriber
// of the diary observes the failure, not only the failing actor. Create
// failures stay private; this asymmetry matches the observed behavior of
// the system and is pinned by tests.
func (r *Router) publishEditError(ctx context.Context, diaryID int64, err error) {
	payload := editError(diaryID, CodeEditFailed, err)

	var conflict *common.VersionConflictError
	switch {
	case errors.As(err, &conflict):
		payload.Code = CodeVersionConflict
		payload.Message = "diary was modified by someone else; reload the latest version and retry"
		payload.CurrentVersion = &conflict.CurrentVersion
		r.logger.Warn(ctx, "version conflict", "diary_id", diaryID, "current_version", conflict.CurrentVersion)
	case errors.Is(err, common.ErrorNotFound):
		payload.Code = CodeNotFound
		r.logger.Warn(ctx, "edit of missing diary", "diary_id", diaryID)
	case errors.Is(err, common.ErrorForbidden):
		payload.Code = CodeForbidden
		r.logger.Warn(ctx, "edit by non-owner", "diary_id", diaryID)
	default:
		r.logger.Error(ctx, "edit failed", "diary_id", diaryID, "error", err)
	}

	r.broker.Publish(ctx, DiaryErrorTopic(diaryID), DiaryErrorTopic(diaryID), payload)
}

type validatable interface {
	Validate() error
}

func decode(body json.RawMessage, msg validatable) error {
	if err := json.Unmarshal(body, msg); err != nil {
		return err
	}
	return msg.Validate()
}
