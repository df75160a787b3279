package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/IsratTanny/DistribuTrack/internal/core/domain"
	"github.com/IsratTanny/DistribuTrack/internal/core/service"
)

const maxRequestBodySize = 1 << 20 // 1MB

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (*domain.Placement, error)
	ListOrders(ctx context.Context, who domain.Identity) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, who domain.Identity, orderID int64, status string, restock bool) (*domain.Order, error)
}

type HTTPHandler struct {
	orders OrderPlacer
}

func NewHTTPHandler(orders OrderPlacer) *HTTPHandler {
	return &HTTPHandler{orders: orders}
}

type PlaceOrderItemDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"`
}

type PlaceOrderHTTPRequest struct {
	Items []PlaceOrderItemDTO `json:"items"`
}

type PlacedOrderDTO struct {
	OrderID       int64       `json:"order_id"`
	DistributorID int64       `json:"distributor_id"`
	TotalAmount   json.Number `json:"total_amount"`
	ItemsCount    int         `json:"items_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

// SkippedDTO only carries the counters that are meaningful for its reason.
type SkippedDTO struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
	Requested *int   `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
	Fulfilled *int   `json:"fulfilled,omitempty"`
}

// PlaceOrderHTTPResponse always carries both lists, empty or not.
type PlaceOrderHTTPResponse struct {
	Success bool             `json:"success"`
	Orders  []PlacedOrderDTO `json:"orders"`
	Skipped []SkippedDTO     `json:"skipped"`
}

type PlaceOrderFailureResponse struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Skipped []SkippedDTO `json:"skipped,omitempty"`
}

type OrderItemDTO struct {
	ProductID int64       `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Price     json.Number `json:"price"`
	LineTotal json.Number `json:"line_total"`
}

type OrderDTO struct {
	OrderID       int64          `json:"order_id"`
	ShopkeeperID  int64          `json:"shopkeeper_id"`
	DistributorID int64          `json:"distributor_id"`
	TotalAmount   json.Number    `json:"total_amount"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Items         []OrderItemDTO `json:"items,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type UpdateStatusHTTPRequest struct {
	Status  string `json:"status"`
	Restock bool   `json:"restock"`
}

// PlaceOrder turns the caller's cart into orders. The body is optional; an
// items list restricts the placement to those products, and an item quantity
// that is omitted or <= 0 means the cart quantity.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok || !who.IsShopkeeper() {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PlaceOrderHTTPRequest
	if err := decodeOptionalBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items := make([]domain.ItemOverride, 0, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		items = append(items, domain.ItemOverride{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	placement, err := h.orders.PlaceOrder(r.Context(), domain.PlaceOrderRequest{
		ShopkeeperID:   who.UserID,
		Items:          items,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		resp := PlaceOrderFailureResponse{Success: false, Error: errorCode(err)}
		if errors.Is(err, service.ErrNoItemsToOrder) && placement != nil {
			resp.Skipped = toSkippedDTOs(placement.Skipped)
		}
		writeJSON(w, errorStatus(err), resp)
		return
	}

	resp := PlaceOrderHTTPResponse{
		Success: true,
		Orders:  make([]PlacedOrderDTO, 0, len(placement.Orders)),
		Skipped: toSkippedDTOs(placement.Skipped),
	}
	for _, o := range placement.Orders {
		resp.Orders = append(resp.Orders, PlacedOrderDTO{
			OrderID:       o.OrderID,
			DistributorID: o.DistributorID,
			TotalAmount:   money(o.TotalAmount),
			ItemsCount:    o.ItemsCount,
			CreatedAt:     o.CreatedAt,
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), who)
	if err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}

	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "orders": out})
}

func (h *HTTPHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	var req UpdateStatusHTTPRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), who, orderID, req.Status, req.Restock)
	if err != nil {
		writeError(w, errorStatus(err), errorCode(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": toOrderDTO(*order)})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toSkippedDTOs(skipped []domain.SkipEntry) []SkippedDTO {
	out := make([]SkippedDTO, 0, len(skipped))
	for _, s := range skipped {
		dto := SkippedDTO{ProductID: s.ProductID, Reason: string(s.Reason)}
		switch s.Reason {
		case domain.SkipPartialFill:
			dto.Requested, dto.Available, dto.Fulfilled = intPtr(s.Requested), intPtr(s.Available), intPtr(s.Fulfilled)
		case domain.SkipOutOfStock, domain.SkipRaceCondition:
			dto.Requested, dto.Available = intPtr(s.Requested), intPtr(s.Available)
		}
		out = append(out, dto)
	}
	return out
}

func toOrderDTO(o domain.Order) OrderDTO {
	dto := OrderDTO{
		OrderID:       o.ID,
		ShopkeeperID:  o.ShopkeeperID,
		DistributorID: o.DistributorID,
		TotalAmount:   money(o.TotalAmount),
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     money(item.Price),
			LineTotal: money(item.LineTotal()),
		})
	}
	return dto
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrNoItemsToOrder),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrProductUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrOrderTerminal),
		errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCartLineNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the client-facing message. Unexpected errors never leak their text.
func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, service.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, service.ErrEmptyCart):
		return "cart_empty"
	case errors.Is(err, service.ErrNoItemsToOrder):
		return "no_items_to_order"
	case errors.Is(err, service.ErrDuplicateRequest):
		return "duplicate_request"
	case errors.Is(err, service.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, service.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, service.ErrProductUnavailable):
		return "product_unavailable"
	case errors.Is(err, service.ErrCartLineNotFound):
		return "cart_item_not_found"
	case errors.Is(err, service.ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, service.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, service.ErrForbidden):
		return "forbidden"
	case errors.Is(err, service.ErrOrderTerminal):
		return "order_terminal"
	case errors.Is(err, service.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "server_error"
	}
}

// decodeOptionalBody treats an empty body as the zero value.
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func intPtr(v int) *int {
	return &v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: message})
}
