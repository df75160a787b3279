package service

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNoItemsToOrder    = errors.New("no items to order")
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrCartLineNotFound   = errors.New("cart item not found")

	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrForbidden         = errors.New("forbidden")
	ErrOrderTerminal     = errors.New("order in terminal state")
	ErrInvalidTransition = errors.New("invalid status transition")
)
