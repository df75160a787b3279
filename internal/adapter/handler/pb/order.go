package pb

type PlaceOrderItem struct {
	ProductId int64 `json:"product_id"`
	Quantity  int32 `json:"quantity,omitempty"`
}

func (x *PlaceOrderItem) GetProductId() int64 {
	if x != nil {
		return x.ProductId
	}
	return 0
}

func (x *PlaceOrderItem) GetQuantity() int32 {
	if x != nil {
		return x.Quantity
	}
	return 0
}

type PlaceOrderRequest struct {
	Items          []*PlaceOrderItem `json:"items,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
}

func (x *PlaceOrderRequest) GetItems() []*PlaceOrderItem {
	if x != nil {
		return x.Items
	}
	return nil
}

func (x *PlaceOrderRequest) GetIdempotencyKey() string {
	if x != nil {
		return x.IdempotencyKey
	}
	return ""
}

type PlacedOrder struct {
	OrderId       int64  `json:"order_id"`
	DistributorId int64  `json:"distributor_id"`
	TotalAmount   string `json:"total_amount"`
	ItemsCount    int32  `json:"items_count"`
	CreatedAt     string `json:"created_at"`
}

type SkippedItem struct {
	ProductId int64  `json:"product_id"`
	Reason    string `json:"reason"`
	Requested int32  `json:"requested,omitempty"`
	Available int32  `json:"available,omitempty"`
	Fulfilled int32  `json:"fulfilled,omitempty"`
}

type PlaceOrderResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Orders  []*PlacedOrder `json:"orders,omitempty"`
	Skipped []*SkippedItem `json:"skipped,omitempty"`
}

func (x *PlaceOrderResponse) GetSuccess() bool {
	if x != nil {
		return x.Success
	}
	return false
}

func (x *PlaceOrderResponse) GetError() string {
	if x != nil {
		return x.Error
	}
	return ""
}

func (x *PlaceOrderResponse) GetOrders() []*PlacedOrder {
	if x != nil {
		return x.Orders
	}
	return nil
}

func (x *PlaceOrderResponse) GetSkipped() []*SkippedItem {
	if x != nil {
		return x.Skipped
	}
	return nil
}
