package rest

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/Junhyukkkk/anondocs-server/internal/server/models"
)

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.Nickname, validation.Required, validation.Length(1, 50)),
	)
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type SignupResponse struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      int64  `json:"userId"`
	Nickname    string `json:"nickname"`
}

// DiaryResponse is the full diary view returned to its owner.
type DiaryResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Visibility  string     `json:"visibility"`
	Version     int64      `json:"version"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// FeedItemResponse is the anonymous feed view: no owner attribution.
type FeedItemResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
}

type DiaryListResponse struct {
	Diaries []DiaryResponse `json:"diaries"`
}

type FeedResponse struct {
	Feed []FeedItemResponse `json:"feed"`
}

func toDiaryResponse(d *models.Diary) DiaryResponse {
	return DiaryResponse{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Visibility:  string(d.Visibility),
		Version:     d.Version,
		PublishedAt: d.PublishedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toFeedItem(d *models.Diary) FeedItemResponse {
	item := FeedItemResponse{
		ID:      d.ID,
		Title:   d.Title,
		Content: d.Content,
	}
	if d.PublishedAt != nil {
		item.PublishedAt = *d.PublishedAt
	}
	return item
}
