package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
)

type CartManager interface {
	AddItem(ctx context.Context, shopkeeperID, productID int64, quantity int) (*domain.CartLine, error)
	UpdateItem(ctx context.Context, shopkeeperID, productID int64, quantity int) (*domain.CartLine, error)
	AdjustItem(ctx context.Context, shopkeeperID, productID int64, delta int) (*domain.CartLine, error)
	RemoveItem(ctx context.Context, shopkeeperID, productID int64) error
	GetCart(ctx context.Context, shopkeeperID int64) (*domain.Cart, error)
}

type CartHandler struct {
	carts CartManager
}

func NewCartHandler(carts CartManager) *CartHandler {
	return &CartHandler{carts: carts}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// UpdateQuantityRequestDTO sets an explicit quantity, or steps it by one
// with action "increment" or "decrement".
type UpdateQuantityRequestDTO struct {
	Quantity *int   `json:"quantity,omitempty"`
	Action   string `json:"action,omitempty"`
}

type CartLineDTO struct {
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
	Stock       int         `json:"stock"`
	LineTotal   json.Number `json:"line_total"`
}

type CartDTO struct {
	Success       bool          `json:"success"`
	Items         []CartLineDTO `json:"items"`
	TotalQuantity int           `json:"total_quantity"`
	Subtotal      json.Number   `json:"subtotal"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok || !who.IsShopkeeper() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.respondCart(w, r, who.UserID, http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok || !who.IsShopkeeper() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req AddItemRequestDTO
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID <= 0 || req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if _, err := h.carts.AddItem(r.Context(), who.UserID, req.ProductID, req.Quantity); err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}
	h.respondCart(w, r, who.UserID, http.StatusCreated)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok || !who.IsShopkeeper() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok := productIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	var req UpdateQuantityRequestDTO
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	switch {
	case req.Action == "increment":
		_, err = h.carts.AdjustItem(r.Context(), who.UserID, productID, 1)
	case req.Action == "decrement":
		_, err = h.carts.AdjustItem(r.Context(), who.UserID, productID, -1)
	case req.Action == "" && req.Quantity != nil:
		_, err = h.carts.UpdateItem(r.Context(), who.UserID, productID, *req.Quantity)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}
	h.respondCart(w, r, who.UserID, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok || !who.IsShopkeeper() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, ok := productIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	if err := h.carts.RemoveItem(r.Context(), who.UserID, productID); err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}
	h.respondCart(w, r, who.UserID, http.StatusOK)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, r *http.Request, shopkeeperID int64, status int) {
	cart, err := h.carts.GetCart(r.Context(), shopkeeperID)
	if err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}

	dto := CartDTO{
		Success:       true,
		Items:         make([]CartLineDTO, 0, len(cart.Lines)),
		TotalQuantity: cart.TotalQuantity,
		Subtotal:      money(cart.Subtotal),
	}
	for _, line := range cart.Lines {
		dto.Items = append(dto.Items, CartLineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       money(line.Price),
			Stock:       line.Stock,
			LineTotal:   money(line.LineTotal),
		})
	}
	writeJSON(w, status, dto)
}

func productIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
