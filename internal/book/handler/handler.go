package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"novabook/internal/book"
	"novabook/internal/platform/middleware"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/httputil"
)

// Service defines the interface for catalog operations.
type Service interface {
	Create(ctx context.Context, b *book.Book) (*book.Book, error)
	Update(ctx context.Context, b *book.Book) (*book.Book, error)
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*book.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*book.Book, error)
	List(ctx context.Context) ([]book.Book, error)
	Search(ctx context.Context, term string) ([]book.Book, error)
}

// Handler handles catalog endpoints.
type Handler struct {
	logger       *slog.Logger
	books        Service
	jwtValidator middleware.JWTValidator
}

func New(books Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		books:        books,
		jwtValidator: jwtValidator,
	}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(bookRouter chi.Router) {
		bookRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		bookRouter.Get("/books", h.handleList)
		bookRouter.Get("/books/{id}", h.handleGet)
		bookRouter.Post("/books", h.handleCreate)
		bookRouter.Put("/books/{id}", h.handleUpdate)
		bookRouter.Delete("/books/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if term := r.URL.Query().Get("q"); term != "" {
		books, err := h.books.Search(r.Context(), term)
		if err != nil {
			h.writeError(r, w, err, "failed to search books")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, books)
		return
	}
	if isbn := r.URL.Query().Get("isbn"); isbn != "" {
		b, err := h.books.FindByISBN(r.Context(), isbn)
		if err != nil {
			h.writeError(r, w, err, "failed to load book")
			return
		}
		httputil.WriteJSON(w, http.StatusOK, []book.Book{*b})
		return
	}
	books, err := h.books.List(r.Context())
	if err != nil {
		h.writeError(r, w, err, "failed to list books")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, books)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.books.FindByID(r.Context(), id)
	if err != nil {
		h.writeError(r, w, err, "failed to load book")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var b book.Book
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	created, err := h.books.Create(r.Context(), &b)
	if err != nil {
		h.writeError(r, w, err, "failed to create book")
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
	var b book.Book
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	b.ID = id
	updated, err := h.books.Update(r.Context(), &b)
	if err != nil {
		h.writeError(r, w, err, "failed to update book")
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
	if err := h.books.Delete(r.Context(), id); err != nil {
		h.writeError(r, w, err, "failed to delete book")
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
