package loans

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/umoja-sacco/umoja-core/internal/lending/amortization"
	"github.com/umoja-sacco/umoja-core/internal/platform/httpx"
)

// Handler exposes the loan lifecycle over HTTP.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers loan endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/loans", h.List)
	r.Post("/loans", h.Create)
	r.Get("/loans/{id}", h.Get)
	r.Get("/loans/{id}/instalments", h.Instalments)
	r.Post("/loans/{id}/approve", h.Approve)
	r.Post("/loans/{id}/disburse", h.Disburse)
	r.Post("/loans/{id}/repayments", h.Repay)
	r.Post("/loans/{id}/penalties", h.Penalty)
	r.Post("/loans/{id}/restructure", h.Restructure)
}

type createLoanRequest struct {
	MemberID                int64  `json:"member_id" validate:"required"`
	Principal               string `json:"principal" validate:"required"`
	TermMonths              int    `json:"term_months" validate:"required,min=1"`
	Rate                    string `json:"rate" validate:"required"`
	RatePeriod              string `json:"rate_period" validate:"required,oneof=annual monthly weekly daily"`
	Frequency               string `json:"frequency" validate:"required,oneof=daily weekly bi_weekly monthly"`
	Interest                string `json:"interest" validate:"required,oneof=flat reducing_balance"`
	ProcessingFeePct        string `json:"processing_fee_pct"`
	InsuranceFeePct         string `json:"insurance_fee_pct"`
	AppraisalFeePct         string `json:"appraisal_fee_pct"`
	ExciseOnFeesPct         string `json:"excise_on_fees_pct"`
	UpfrontInterestDeducted bool   `json:"upfront_interest_deducted"`
}

type actorRequest struct {
	ActorID int64 `json:"actor_id" validate:"required"`
}

type repayRequest struct {
	Amount  string `json:"amount" validate:"required"`
	ActorID int64  `json:"actor_id" validate:"required"`
}

type penaltyRequest struct {
	Instalment int    `json:"instalment" validate:"required,min=1"`
	Amount     string `json:"amount" validate:"required"`
	ActorID    int64  `json:"actor_id" validate:"required"`
}

type restructureRequest struct {
	Type          string `json:"type" validate:"required,oneof=extend_term adjust_rate waive_penalty grace_period"`
	ActorID       int64  `json:"actor_id" validate:"required"`
	NewTermMonths int    `json:"new_term_months"`
	NewRate       string `json:"new_rate"`
	WaiveAmount   string `json:"waive_amount"`
	GraceDays     int    `json:"grace_days"`
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list loans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"loans": list})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	loan, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *Handler) Instalments(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	instalments, err := h.service.Instalments(r.Context(), id)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"instalments": instalments})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
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
	loan, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loan)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) Disburse(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Disburse)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, loanID, actorID int64) (Loan, error)) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req actorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	loan, err := op(r.Context(), id, req.ActorID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *Handler) Repay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req repayRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	result, err := h.service.AllocatePayment(r.Context(), id, amount, req.ActorID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Penalty(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req penaltyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	if err := h.service.AssessPenalty(r.Context(), id, req.Instalment, amount, req.ActorID); err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assessed": amount})
}

func (h *Handler) Restructure(w http.ResponseWriter, r *http.Request) {
	id, ok := h.loanID(w, r)
	if !ok {
		return
	}
	var req restructureRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	newRate, err := parseAmount(req.NewRate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Rate", err.Error())
		return
	}
	waiveAmount, err := parseAmount(req.WaiveAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
		return
	}
	input := RestructureInput{
		LoanID:        id,
		ActorID:       req.ActorID,
		NewTermMonths: req.NewTermMonths,
		NewRate:       newRate,
		WaiveAmount:   waiveAmount,
		GraceDays:     req.GraceDays,
	}
	var loan Loan
	switch RestructureType(req.Type) {
	case RestructureExtendTerm:
		loan, err = h.service.ExtendTerm(r.Context(), input)
	case RestructureAdjustRate:
		loan, err = h.service.AdjustInterestRate(r.Context(), input)
	case RestructureWaive:
		loan, err = h.service.WaivePenalty(r.Context(), input)
	case RestructureGracePeriod:
		loan, err = h.service.GrantGracePeriod(r.Context(), input)
	}
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loan)
}

func (h *Handler) loanID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Loan ID", "loan id must be numeric")
		return 0, false
	}
	return id, true
}

func (req createLoanRequest) toInput() (CreateLoanInput, error) {
	principal, err := decimal.NewFromString(req.Principal)
	if err != nil {
		return CreateLoanInput{}, err
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return CreateLoanInput{}, err
	}
	processing, err := parseAmount(req.ProcessingFeePct)
	if err != nil {
		return CreateLoanInput{}, err
	}
	insurance, err := parseAmount(req.InsuranceFeePct)
	if err != nil {
		return CreateLoanInput{}, err
	}
	appraisal, err := parseAmount(req.AppraisalFeePct)
	if err != nil {
		return CreateLoanInput{}, err
	}
	excise, err := parseAmount(req.ExciseOnFeesPct)
	if err != nil {
		return CreateLoanInput{}, err
	}
	return CreateLoanInput{
		MemberID:                req.MemberID,
		Principal:               principal,
		TermMonths:              req.TermMonths,
		Rate:                    rate,
		RatePeriod:              amortization.RatePeriod(req.RatePeriod),
		Frequency:               amortization.Frequency(req.Frequency),
		Interest:                amortization.InterestType(req.Interest),
		ProcessingFeePct:        processing,
		InsuranceFeePct:         insurance,
		AppraisalFeePct:         appraisal,
		ExciseOnFeesPct:         excise,
		UpfrontInterestDeducted: req.UpfrontInterestDeducted,
	}, nil
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrLoanNotFound):
		httpx.Problem(w, http.StatusNotFound, "Loan Not Found", err.Error())
	case errors.Is(err, ErrInvalidLoanState):
		httpx.Problem(w, http.StatusConflict, "Invalid Loan State", err.Error())
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidParameter),
		errors.Is(err, amortization.ErrInvalidTerm),
		errors.Is(err, amortization.ErrInvalidRate),
		errors.Is(err, amortization.ErrUnknownFrequency),
		errors.Is(err, amortization.ErrUnknownRatePeriod):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Loan Parameters", err.Error())
	default:
		h.logger.Error("loan operation", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
