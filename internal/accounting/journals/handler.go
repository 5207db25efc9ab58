package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/accounting/accounts"
	"github.com/umoja-sacco/umoja-core/internal/accounting/shared"
	"github.com/umoja-sacco/umoja-core/internal/platform/httpx"
)

// Handler exposes journal posting and reversal over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/journals", h.List)
	r.Get("/journals/{id}", h.Get)
	r.Post("/journals", h.Post)
	r.Post("/journals/{id}/reverse", h.Reverse)
}

type postLineRequest struct {
	AccountID   int64  `json:"account_id"`
	AccountCode string `json:"account_code"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	MemberID    *int64 `json:"member_id"`
	LoanID      *int64 `json:"loan_id"`
	Memo        string `json:"memo"`
}

type postRequest struct {
	Date        string            `json:"date" validate:"required"`
	Description string            `json:"description" validate:"required,max=500"`
	Reference   string            `json:"reference" validate:"max=100"`
	SourceType  string            `json:"source_type" validate:"max=50"`
	PostedBy    int64             `json:"posted_by" validate:"required"`
	Lines       []postLineRequest `json:"lines" validate:"required,min=2"`
}

type reverseRequest struct {
	ActorID int64  `json:"actor_id" validate:"required"`
	Memo    string `json:"memo" validate:"max=500"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journal_entries": entries})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Entry ID", "entry id must be numeric")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	entry, err := h.service.PostEntry(r.Context(), input)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Entry ID", "entry id must be numeric")
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.ReverseEntry(r.Context(), ReverseInput{EntryID: id, ActorID: req.ActorID, Memo: req.Memo})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (req postRequest) toInput() (PostingInput, error) {
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return PostingInput{}, err
	}
	lines := make([]PostingLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		debit, credit := decimal.Zero, decimal.Zero
		if line.Debit != "" {
			if debit, err = decimal.NewFromString(line.Debit); err != nil {
				return PostingInput{}, err
			}
		}
		if line.Credit != "" {
			if credit, err = decimal.NewFromString(line.Credit); err != nil {
				return PostingInput{}, err
			}
		}
		ref := accounts.ByID(line.AccountID)
		if line.AccountID == 0 {
			ref = accounts.ByCode(line.AccountCode)
		}
		lines = append(lines, PostingLineInput{
			Account:  ref,
			Debit:    debit,
			Credit:   credit,
			MemberID: line.MemberID,
			LoanID:   line.LoanID,
			Memo:     line.Memo,
		})
	}
	return PostingInput{
		Date:        date,
		Description: req.Description,
		Reference:   req.Reference,
		SourceType:  req.SourceType,
		SourceID:    uuid.New(),
		PostedBy:    req.PostedBy,
		Lines:       lines,
	}, nil
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrJournalNotFound), errors.Is(err, shared.ErrAccountNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAlreadyReversed):
		httpx.Problem(w, http.StatusConflict, "Already Reversed", err.Error())
	case errors.Is(err, shared.ErrUnbalanced),
		errors.Is(err, shared.ErrZeroAmount),
		errors.Is(err, shared.ErrTooFewLines),
		errors.Is(err, shared.ErrNegativeAmount),
		errors.Is(err, shared.ErrAccountInactive),
		errors.Is(err, shared.ErrHeaderAccount):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Posting Rejected", err.Error())
	default:
		h.logger.Error("journal operation", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
