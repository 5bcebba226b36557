package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"novabook/internal/member"
	"novabook/internal/platform/middleware"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/httputil"
)

// Service defines the interface for membership operations.
type Service interface {
	Create(ctx context.Context, m *member.Member) (*member.Member, error)
	Update(ctx context.Context, m *member.Member) (*member.Member, error)
	SoftDelete(ctx context.Context, id int64) error
	HardDelete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*member.Member, error)
	List(ctx context.Context) ([]member.Member, error)
	FindByName(ctx context.Context, name string) ([]member.Member, error)
}

// Handler handles membership endpoints.
type Handler struct {
	logger       *slog.Logger
	members      Service
	jwtValidator middleware.JWTValidator
}

func New(members Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		members:      members,
		jwtValidator: jwtValidator,
	}
}

// Register registers the membership routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(memberRouter chi.Router) {
		memberRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		memberRouter.Get("/members", h.handleList)
		memberRouter.Get("/members/{id}", h.handleGet)
		memberRouter.Post("/members", h.handleCreate)
		memberRouter.Put("/members/{id}", h.handleUpdate)
		memberRouter.Delete("/members/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("name"); name != "" {
		members, err := h.members.FindByName(r.Context(), name)
		if err != nil {
			h.writeError(r, w, err, "failed to search members")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, members)
		return
	}
	members, err := h.members.List(r.Context())
	if err != nil {
		h.writeError(r, w, err, "failed to list members")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	m, err := h.members.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err, "failed to load member")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var m member.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.members.Create(r.Context(), &m)
	if err != nil {
		h.writeError(r, w, err, "failed to create member")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var m member.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	m.ID = id
	updated, err := h.members.Update(r.Context(), &m)
	if err != nil {
		h.writeError(r, w, err, "failed to update member")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if r.URL.Query().Get("purge") == "true" {
		if err := h.members.HardDelete(r.Context(), id); err != nil {
			h.writeError(r, w, err, "failed to delete member")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.members.SoftDelete(r.Context(), id); err != nil {
		h.writeError(r, w, err, "failed to delete member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(r *http.Request, w http.ResponseWriter, err error, msg string) {
	ctx := r.Context()
	switch dErrors.CodeOf(err) {
	case dErrors.CodeDataAccess, dErrors.CodeTransaction, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	default:
		httputil.WriteError(w, err)
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid id")
	}
	return id, nil
}
