package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"novabook/internal/loan"
	"novabook/internal/loan/service"
	"novabook/internal/platform/metrics"
	"novabook/internal/platform/middleware"
	dErrors "novabook/pkg/domain-errors"
	"novabook/pkg/platform/httputil"
)

// Service defines the interface for loan operations.
type Service interface {
	Borrow(ctx context.Context, memberID, bookID int64, dueDate time.Time) (*loan.Loan, error)
	Return(ctx context.Context, loanID int64) (*service.ReturnResult, error)
	FindByID(ctx context.Context, id int64) (*loan.Loan, error)
	List(ctx context.Context) ([]loan.Loan, error)
	FindByMemberID(ctx context.Context, memberID int64) ([]loan.Loan, error)
	FindOverdue(ctx context.Context) ([]loan.Loan, error)
}

// Handler handles loan lifecycle endpoints.
type Handler struct {
	logger       *slog.Logger
	loans        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(
	loans Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		loans:        loans,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the loan routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(loanRouter chi.Router) {
		loanRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		loanRouter.Post("/loans", h.handleBorrow)
		loanRouter.Post("/loans/{id}/return", h.handleReturn)
		loanRouter.Get("/loans", h.handleList)
		loanRouter.Get("/loans/overdue", h.handleOverdue)
		loanRouter.Get("/loans/{id}", h.handleGet)
		loanRouter.Get("/members/{id}/loans", h.handleListByMember)
	})
}

type borrowRequest struct {
	MemberID int64  `json:"member_id"`
	BookID   int64  `json:"book_id"`
	DateDue  string `json:"date_due,omitempty"`
}

func (h *Handler) handleBorrow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req borrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.MemberID == 0 || req.BookID == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "member_id and book_id are required"))
		return
	}

	var dueDate time.Time
	if req.DateDue != "" {
		parsed, err := time.Parse("2006-01-02", req.DateDue)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "date_due must be YYYY-MM-DD"))
			return
		}
		dueDate = parsed
	}

	created, err := h.loans.Borrow(ctx, req.MemberID, req.BookID, dueDate)
	if err != nil {
		for _, code := range []dErrors.Code{dErrors.CodeMemberIneligible, dErrors.CodeOutOfStock, dErrors.CodeDuplicateLoan} {
			if dErrors.Is(err, code) {
				h.metrics.IncrementBorrowRejected(string(code))
				break
			}
		}
		h.writeWorkflowError(ctx, w, err, "failed to borrow", requestID)
		return
	}

	h.metrics.IncrementBorrowed()
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.loans.Return(ctx, id)
	if err != nil {
		h.writeWorkflowError(ctx, w, err, "failed to return", requestID)
		return
	}

	if !result.AlreadyReturned {
		h.metrics.IncrementReturned()
		h.metrics.AddFineAssessed(result.Fine)
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	l, err := h.loans.FindByID(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(r.Context(), w, err, "failed to load loan", middleware.GetRequestID(r.Context()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.List(r.Context())
	if err != nil {
		h.writeWorkflowError(r.Context(), w, err, "failed to list loans", middleware.GetRequestID(r.Context()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.FindOverdue(r.Context())
	if err != nil {
		h.writeWorkflowError(r.Context(), w, err, "failed to list overdue loans", middleware.GetRequestID(r.Context()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

func (h *Handler) handleListByMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	loans, err := h.loans.FindByMemberID(r.Context(), id)
	if err != nil {
		h.writeWorkflowError(r.Context(), w, err, "failed to list member loans", middleware.GetRequestID(r.Context()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loans)
}

// writeWorkflowError logs severe failures and hides their detail; expected
// workflow rejections pass through with their code and message.
func (h *Handler) writeWorkflowError(ctx context.Context, w http.ResponseWriter, err error, msg, requestID string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeDataAccess, dErrors.CodeTransaction, dErrors.CodeInternal:
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", requestID,
			"error", err.Error(),
		)
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
