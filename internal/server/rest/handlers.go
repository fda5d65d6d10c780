package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Junhyukkkk/anondocs-server/internal/common"
	"github.com/Junhyukkkk/anondocs-server/internal/logging"
	"github.com/Junhyukkkk/anondocs-server/internal/server/services"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Handlers carries the HTTP endpoints for accounts and diary reads. Diary
// mutations happen over the realtime channel; only delete is exposed here.
type Handlers struct {
	users   *services.UserService
	diaries *services.DiaryService
	logger  logging.Logger
}

func NewHandlers(users *services.UserService, diaries *services.DiaryService, logger logging.Logger) *Handlers {
	return &Handlers{users: users, diaries: diaries, logger: logger}
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password, req.Nickname)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("email already registered"))
			return
		}
		h.logger.Error(r.Context(), "signup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusCreated, SignupResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorNotFound) {
			writeJSON(w, http.StatusUnauthorized, errorBody("invalid credentials"))
			return
		}
		h.logger.Error(r.Context(), "login failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		UserID:      user.ID,
		Nickname:    user.Nickname,
	})
}

func (h *Handlers) ListDiaries(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}

	limit, offset := pagination(r)
	items, err := h.diaries.ListOwned(r.Context(), p, limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "listing diaries failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := DiaryListResponse{Diaries: make([]DiaryResponse, 0, len(items))}
	for _, d := range items {
		resp.Diaries = append(resp.Diaries, toDiaryResponse(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetDiary(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "diaryID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid diary id"))
		return
	}

	d, err := h.diaries.GetOwned(r.Context(), p, id)
	if err != nil {
		h.writeDiaryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiaryResponse(d))
}

func (h *Handlers) DeleteDiary(w http.ResponseWriter, r *http.Request) {
	p, ok := principalFrom(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "diaryID"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid diary id"))
		return
	}

	if err := h.diaries.Delete(r.Context(), p, id); err != nil {
		h.writeDiaryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Feed(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, err := h.diaries.Feed(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error(r.Context(), "loading feed failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := FeedResponse{Feed: make([]FeedItemResponse, 0, len(items))}
	for _, d := range items {
		resp.Feed = append(resp.Feed, toFeedItem(d))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeDiaryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("diary not found"))
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("not the owner of this diary"))
	default:
		h.logger.Error(r.Context(), "diary request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxPageLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
