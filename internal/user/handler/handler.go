package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"novabook/internal/platform/middleware"
	"novabook/internal/user"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/httputil"
)

const accessTokenTTL = time.Hour

// Service defines the interface for account operations.
type Service interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
	Create(ctx context.Context, u *user.User, password string) (*user.User, error)
	ChangePassword(ctx context.Context, id int64, password string) error
	FindByID(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	SoftDelete(ctx context.Context, id int64) error
}

// TokenIssuer mints signed access tokens for authenticated accounts.
type TokenIssuer interface {
	GenerateAccessToken(userID int64, email, role string, expiresIn time.Duration) (string, error)
}

// Handler handles authentication and account endpoints.
type Handler struct {
	logger       *slog.Logger
	users        Service
	tokens       TokenIssuer
	jwtValidator middleware.JWTValidator
}

func New(
	users Service,
	tokens TokenIssuer,
	logger *slog.Logger,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		users:        users,
		tokens:       tokens,
		jwtValidator: jwtValidator,
	}
}

// Register registers authentication and account routes. Login is the only
// unauthenticated endpoint; account management requires the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(userRouter chi.Router) {
		userRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		userRouter.Use(h.requireAdmin)
		userRouter.Get("/users", h.handleList)
		userRouter.Get("/users/{id}", h.handleGet)
		userRouter.Post("/users", h.handleCreate)
		userRouter.Put("/users/{id}/password", h.handleChangePassword)
		userRouter.Delete("/users/{id}", h.handleDelete)
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetUserRole(r.Context()) != string(user.RoleAdmin) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	User        *user.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	u, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))
		return
	}

	token, err := h.tokens.GenerateAccessToken(u.ID, u.Email, string(u.Role), accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue token",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		User:        u,
	})
}

type createUserRequest struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Role     user.Role `json:"role"`
	Password string    `json:"password"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.users.Create(r.Context(), &user.User{Email: req.Email, Name: req.Name, Role: req.Role}, req.Password)
	if err != nil {
		h.writeError(r, w, err, "failed to create user")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.users.ChangePassword(r.Context(), id, req.Password); err != nil {
		h.writeError(r, w, err, "failed to change password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	u, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err, "failed to load user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(r, w, err, "failed to list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.users.SoftDelete(r.Context(), id); err != nil {
		h.writeError(r, w, err, "failed to delete user")
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
