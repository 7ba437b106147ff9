package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eventflow/efm-sync-backend/internal/adapters/efm"
	"github.com/eventflow/efm-sync-backend/internal/api/dto"
	"github.com/eventflow/efm-sync-backend/internal/infrastructure/storage"
)

// DiscountCodeWriter is the write side of the EFM discount code API.
type DiscountCodeWriter interface {
	CreateDiscountCode(ctx context.Context, code efm.DiscountCode) (efm.DiscountCode, error)
	UpdateDiscountCode(ctx context.Context, code efm.DiscountCode) (efm.DiscountCode, error)
}

// DiscountsHandler proxies discount code writes to EFM. EFM stays the
// system of record: the write goes upstream first and the local mirror is
// refreshed from the confirmed response.
type DiscountsHandler struct {
	*Base
	efm DiscountCodeWriter
}

// NewDiscountsHandler creates a new discounts handler.
func NewDiscountsHandler(repo storage.Repository, efmClient DiscountCodeWriter) *DiscountsHandler {
	return &DiscountsHandler{
		Base: NewBase(repo),
		efm:  efmClient,
	}
}

// Create handles POST /api/discount-codes.
func (h *DiscountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.DiscountCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.CompanyID <= 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("company_id is required"))
		return
	}
	if req.Code == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("code is required"))
		return
	}

	created, err := h.efm.CreateDiscountCode(r.Context(), toDiscountCode(req, 0))
	if err != nil {
		h.WriteError(w, http.StatusBadGateway, dto.UpstreamError(err.Error()))
		return
	}

	h.refreshMirror(created)
	h.WriteJSON(w, http.StatusCreated, toDiscountCodeResponse(created))
}

// Update handles PUT /api/discount-codes/{id}.
func (h *DiscountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid discount code ID"))
		return
	}

	var req dto.DiscountCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid request body"))
		return
	}
	if req.CompanyID <= 0 {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("company_id is required"))
		return
	}

	updated, err := h.efm.UpdateDiscountCode(r.Context(), toDiscountCode(req, id))
	if err != nil {
		h.WriteError(w, http.StatusBadGateway, dto.UpstreamError(err.Error()))
		return
	}

	h.refreshMirror(updated)
	h.WriteJSON(w, http.StatusOK, toDiscountCodeResponse(updated))
}

// refreshMirror upserts the confirmed record locally. Failures are not
// fatal: the next scheduled sync reconciles the mirror.
func (h *DiscountsHandler) refreshMirror(code efm.DiscountCode) {
	if h.repo == nil {
		return
	}
	_ = h.repo.UpsertDiscountCode(code)
}

func toDiscountCode(req dto.DiscountCodeRequest, id int) efm.DiscountCode {
	return efm.DiscountCode{
		DiscountCodeID: id,
		CompanyID:      req.CompanyID,
		Code:           req.Code,
		Percentage:     req.Percentage,
		ValidFrom:      req.ValidFrom,
		ValidTo:        req.ValidTo,
		Active:         req.Active,
	}
}

func toDiscountCodeResponse(code efm.DiscountCode) dto.DiscountCodeResponse {
	return dto.DiscountCodeResponse{
		DiscountCodeID: code.DiscountCodeID,
		CompanyID:      code.CompanyID,
		Code:           code.Code,
		Percentage:     code.Percentage,
		ValidFrom:      code.ValidFrom,
		ValidTo:        code.ValidTo,
		Active:         code.Active,
	}
}
