package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// Client frame types.
const (
	FrameSend        = "send"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
)

// Error codes carried by ErrorMessage.
const (
	CodeCreateFailed    = "CREATE_FAILED"
	CodeEditFailed      = "EDIT_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeVersionConflict = "VERSION_CONFLICT"
)

// ClientFrame is one inbound application message: a command (send) or a
// subscription change.
type ClientFrame struct {
	Type        string          `json:"type"`
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// ServerFrame is one outbound message delivered to a subscriber.
type ServerFrame struct {
	Destination string `json:"destination"`
	Body        any    `json:"body"`
}

// DiaryTopic is the public topic every subscriber of a diary listens on.
func DiaryTopic(diaryID int64) string {
	return "/topic/diaries/" + strconv.FormatInt(diaryID, 10)
}

// DiaryErrorTopic is the document-scoped public error topic. Edit failures
// go here, visible to every subscriber of the diary.
func DiaryErrorTopic(diaryID int64) string {
	return DiaryTopic(diaryID) + "/errors"
}

const (
	// QueueDiaryCreated and QueueErrors are the per-user private
	// destinations, addressed by the principal's email.
	QueueDiaryCreated = "/user/queue/diary-created"
	QueueErrors       = "/user/queue/errors"
)

// userQueueKey builds the broker key for a private destination. The email
// makes the key unique per principal while the client-visible destination
// stays "/user/queue/...".
func userQueueKey(email, destination string) string {
	return "/user/" + email + destination[len("/user"):]
}

// CreateMessage is the payload of /app/diaries/create.
type CreateMessage struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Visibility models.Visibility `json:"visibility"`
}

func (m CreateMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Content, validation.Required),
		validation.Field(&m.Visibility, validation.Required, validation.In(models.VisibilityPrivate, models.VisibilityAnonymous)),
	)
}

// EditMessage is the payload of /app/diaries/{id}/edit. Version is a
// pointer so a missing field is distinguishable from an explicit 0.
type EditMessage struct {
	Content string `json:"content"`
	Version *int64 `json:"version"`
}

func (m EditMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Content, validation.Required),
		validation.Field(&m.Version, validation.NotNil),
	)
}

// EditLwwMessage is the payload of /app/diaries/{id}/edit-lww. No version:
// the last write wins unconditionally.
type EditLwwMessage struct {
	Content string `json:"content"`
}

func (m EditLwwMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Content, validation.Required),
	)
}

// CreateBroadcast announces a successful create to the diary topic and to
// the creator's private diary-created queue.
type CreateBroadcast struct {
	DiaryID         int64  `json:"diaryId"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	Version         int64  `json:"version"`
	CreatorUserID   int64  `json:"creatorUserId"`
	CreatorNickname string `json:"creatorNickname"`
	Timestamp       int64  `json:"timestamp"`
}

// EditBroadcast announces a successful edit (either policy) to the diary
// topic. LWW edits report the post-update version like any other edit.
type EditBroadcast struct {
	DiaryID        int64  `json:"diaryId"`
	Content        string `json:"content"`
	Version        int64  `json:"version"`
	EditorUserID   int64  `json:"editorUserId"`
	EditorNickname string `json:"editorNickname"`
	Timestamp      int64  `json:"timestamp"`
}

// ErrorMessage is the failure payload. CurrentVersion is set only for
// version conflicts.
type ErrorMessage struct {
	DiaryID        *int64 `json:"diaryId"`
	Code           string `json:"code"`
	Message        string `json:"message"`
	CurrentVersion *int64 `json:"currentVersion,omitempty"`
}

func newCreateBroadcast(d *models.Diary, p *models.Principal, ts int64) CreateBroadcast {
	return CreateBroadcast{
		DiaryID:         d.ID,
		Title:           d.Title,
		Content:         d.Content,
		Version:         d.Version,
		CreatorUserID:   p.ID,
		CreatorNickname: p.Nickname,
		Timestamp:       ts,
	}
}

func newEditBroadcast(d *models.Diary, p *models.Principal, ts int64) EditBroadcast {
	return EditBroadcast{
		DiaryID:        d.ID,
		Content:        d.Content,
		Version:        d.Version,
		EditorUserID:   p.ID,
		EditorNickname: p.Nickname,
		Timestamp:      ts,
	}
}

func editError(diaryID int64, code string, err error) ErrorMessage {
	return ErrorMessage{
		DiaryID: &diaryID,
		Code:    code,
		Message: fmt.Sprintf("edit failed: %v", err),
	}
}
