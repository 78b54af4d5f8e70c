package models

// Order statuses relevant to inventory processing. The full order state
// machine lives in the order pipeline; the resolver only needs to know
// which states are paid/consumable.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

// Line item types.
const (
	LineItemTypeDish   = "dish"
	LineItemTypeBundle = "bundle"
)

// DeliveryPlatformMeta carries the third-party platform identity of an order.
type DeliveryPlatformMeta struct {
	Platform        string `json:"platform" binding:"required"`
	PlatformOrderID string `json:"platform_order_id" binding:"required"`
}

// OrderLineItem is one line of an incoming order. DishInstanceRef is the
// raw reference string from the platform payload; it is parsed (and, on
// failure, skipped) by the resolver rather than trusted.
type OrderLineItem struct {
	ItemType        string `json:"item_type"`
	DishInstanceRef string `json:"dish_instance_ref"`
	Quantity        int    `json:"quantity"`
}

// DeliveryOrder is the resolver's read-only view of an order. The order
// lifecycle itself is owned by the order pipeline.
type DeliveryOrder struct {
	ID        int64                 `json:"id" binding:"required"`
	StoreID   int64                 `json:"store_id" binding:"required"`
	Status    string                `json:"status"`
	Platform  *DeliveryPlatformMeta `json:"platform,omitempty"`
	LineItems []OrderLineItem       `json:"line_items"`
}
