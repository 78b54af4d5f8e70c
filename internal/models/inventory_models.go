package models

import "time"

// Inventory type tags: what kind of item an Inventory Record tracks.
const (
	InventoryTypeDishTemplate = "dish_template"
	InventoryTypeBundle       = "bundle"
)

// Stock type tags: which counter a ledger entry touched.
const (
	StockTypeTotal     = "total_stock"
	StockTypeAvailable = "available_stock"
)

// Change type tags for Stock Ledger entries.
const (
	ChangeTypeOrder               = "order"
	ChangeTypeRestock             = "restock"
	ChangeTypeDamage              = "damage"
	ChangeTypeSystemAdjustment    = "system_adjustment"
	ChangeTypeCancellationRestore = "cancellation_restore"
	ChangeTypeInitialization      = "initialization"
)

// InventoryKey identifies one Inventory Record: one per store x item x type.
type InventoryKey struct {
	StoreID       int64  `json:"store_id"`
	ItemRef       int64  `json:"item_ref"`
	InventoryType string `json:"inventory_type"`
}

// InventoryRecord holds the per-store-per-item stock counters and control flags.
// Stock fields are mutated exclusively through the stock mutation service.
type InventoryRecord struct {
	ID                   int64     `json:"id" db:"id"`
	StoreID              int64     `json:"store_id" db:"store_id" binding:"required"`
	InventoryType        string    `json:"inventory_type" db:"inventory_type"`
	ItemRef              int64     `json:"item_ref" db:"item_ref" binding:"required"`
	ItemName             string    `json:"item_name,omitempty"` // joined from dish_templates
	TotalStock           int       `json:"total_stock" db:"total_stock"`
	AvailableStock       int       `json:"available_stock" db:"available_stock"`
	MinStockAlert        int       `json:"min_stock_alert" db:"min_stock_alert"`
	MaxThreshold         *int      `json:"max_threshold,omitempty" db:"max_threshold"`
	IsInventoryTracked   bool      `json:"is_inventory_tracked" db:"is_inventory_tracked"`
	EnableAvailableStock bool      `json:"enable_available_stock" db:"enable_available_stock"`
	IsSoldOut            bool      `json:"is_sold_out" db:"is_sold_out"`
	AutoReplenish        bool      `json:"auto_replenish" db:"auto_replenish"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Key returns the identity tuple of the record.
func (r *InventoryRecord) Key() InventoryKey {
	return InventoryKey{StoreID: r.StoreID, ItemRef: r.ItemRef, InventoryType: r.InventoryType}
}

// GatingStock returns the counter that gates availability for this record:
// the available counter when the available sub-count is enabled, otherwise
// the total counter.
func (r *InventoryRecord) GatingStock() int {
	if r.EnableAvailableStock {
		return r.AvailableStock
	}
	return r.TotalStock
}

// GatingStockType names the counter returned by GatingStock.
func (r *InventoryRecord) GatingStockType() string {
	if r.EnableAvailableStock {
		return StockTypeAvailable
	}
	return StockTypeTotal
}

// StockLedgerEntry is one immutable row of the append-only stock audit trail.
// Corrections are new entries; rows are never updated or deleted.
type StockLedgerEntry struct {
	ID            int64     `json:"id" db:"id"`
	Ref           string    `json:"ref" db:"ref"` // opaque uuid
	StoreID       int64     `json:"store_id" db:"store_id"`
	InventoryType string    `json:"inventory_type" db:"inventory_type"`
	ItemRef       int64     `json:"item_ref" db:"item_ref"`
	ItemName      string    `json:"item_name,omitempty"` // joined from dish_templates
	StockType     string    `json:"stock_type" db:"stock_type"`
	ChangeType    string    `json:"change_type" db:"change_type"`
	PreviousStock int       `json:"previous_stock" db:"previous_stock"`
	NewStock      int       `json:"new_stock" db:"new_stock"`
	ChangeAmount  int       `json:"change_amount" db:"change_amount"` // signed; equals NewStock - PreviousStock
	Reason        string    `json:"reason" db:"reason"`
	OrderID       *int64    `json:"order_id,omitempty" db:"order_id"`
	AdminID       *int64    `json:"admin_id,omitempty" db:"admin_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// InventorySettingsUpdate carries the optional non-counter fields of a bulk
// update; nil fields are left untouched.
type InventorySettingsUpdate struct {
	MinStockAlert        *int  `json:"min_stock_alert,omitempty"`
	MaxThreshold         *int  `json:"max_threshold,omitempty"`
	IsInventoryTracked   *bool `json:"is_inventory_tracked,omitempty"`
	EnableAvailableStock *bool `json:"enable_available_stock,omitempty"`
	IsSoldOut            *bool `json:"is_sold_out,omitempty"`
	AutoReplenish        *bool `json:"auto_replenish,omitempty"`
}

// InventoryFilters defines the available filters for listing inventory records.
type InventoryFilters struct {
	InventoryType *string `form:"inventory_type"`
	OnlyAvailable bool    `form:"only_available"`
	Search        *string `form:"search"` // free-text match over the item name
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

// LedgerFilters defines the available filters for ledger queries.
type LedgerFilters struct {
	ItemRef       *int64  `form:"item_ref"`
	InventoryType *string `form:"inventory_type"`
	StockType     *string `form:"stock_type"`
	ChangeType    *string `form:"change_type"`
	DateFrom      *string `form:"date_from"` // YYYY-MM-DD or RFC3339
	DateTo        *string `form:"date_to"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
