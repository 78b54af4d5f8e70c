package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"resto_ops_backend/internal/models"

	"github.com/google/uuid"
)

// ChangeTypeSummary is one aggregation row of the change summary query.
// Decreases are reported as positive magnitudes.
type ChangeTypeSummary struct {
	ChangeType string `json:"change_type"`
	Entries    int    `json:"entries"`
	Net        int    `json:"net"`
	Increases  int    `json:"increases"`
	Decreases  int    `json:"decreases"`
}

// StockLedgerRepository defines the interface for the append-only stock ledger.
// Entries are created solely by the stock mutation service; there are no
// update or delete operations.
type StockLedgerRepository interface {
	AppendEntry(executor SQLExecutor, entry *models.StockLedgerEntry) (int64, error)
	GetEntries(storeID int64, filters models.LedgerFilters, from, to *time.Time) ([]models.StockLedgerEntry, int, error)
	// GetOrderConsumption returns the entries that reduced stock under an
	// order, used to compute the compensating restore on cancellation.
	GetOrderConsumption(storeID, orderID int64) ([]models.StockLedgerEntry, error)
	// HasOrderEntries reports whether any entry of the given change type
	// exists for the order, used as an idempotency check before restores.
	HasOrderEntries(storeID, orderID int64, changeType string) (bool, error)
	// SumConsumedSince returns the magnitude of order-driven reductions for
	// one item since the given time.
	SumConsumedSince(storeID, itemRef int64, inventoryType string, since time.Time) (int, error)
	SummarizeByChangeType(storeID int64, from, to time.Time, filters models.LedgerFilters) ([]ChangeTypeSummary, error)
}

type stockLedgerRepository struct {
	db *sql.DB
}

// NewStockLedgerRepository creates a new instance of StockLedgerRepository.
func NewStockLedgerRepository(db *sql.DB) StockLedgerRepository {
	return &stockLedgerRepository{db: db}
}

func (r *stockLedgerRepository) AppendEntry(executor SQLExecutor, entry *models.StockLedgerEntry) (int64, error) {
	if entry.Ref == "" {
		entry.Ref = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var orderID, adminID sql.NullInt64
	if entry.OrderID != nil {
		orderID = sql.NullInt64{Int64: *entry.OrderID, Valid: true}
	}
	if entry.AdminID != nil {
		adminID = sql.NullInt64{Int64: *entry.AdminID, Valid: true}
	}

	query := `INSERT INTO stock_ledger
	          (ref, store_id, inventory_type, item_ref, stock_type, change_type,
	           previous_stock, new_stock, change_amount, reason, order_id, admin_id, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	err := executor.QueryRow(query,
		entry.Ref, entry.StoreID, entry.InventoryType, entry.ItemRef, entry.StockType, entry.ChangeType,
		entry.PreviousStock, entry.NewStock, entry.ChangeAmount, entry.Reason, orderID, adminID, entry.CreatedAt,
	).Scan(&entry.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: appending stock ledger entry: %v", ErrDatabaseError, err)
	}
	return entry.ID, nil
}

func (r *stockLedgerRepository) GetEntries(storeID int64, filters models.LedgerFilters, from, to *time.Time) ([]models.StockLedgerEntry, int, error) {
	entries := []models.StockLedgerEntry{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sl.id, sl.ref, sl.store_id, sl.inventory_type, sl.item_ref, sl.stock_type, sl.change_type,
	    sl.previous_stock, sl.new_stock, sl.change_amount, sl.reason, sl.order_id, sl.admin_id, sl.created_at,
	    COALESCE(dt.name, '') AS item_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_ledger sl
	  LEFT JOIN dish_templates dt ON sl.item_ref = dt.id`)

	conditions := []string{"sl.store_id = $1"}
	args := []interface{}{storeID}
	argCount := 2

	if filters.ItemRef != nil {
		conditions = append(conditions, fmt.Sprintf("sl.item_ref = $%d", argCount))
		args = append(args, *filters.ItemRef)
		argCount++
	}
	if filters.InventoryType != nil && *filters.InventoryType != "" {
		conditions = append(conditions, fmt.Sprintf("sl.inventory_type = $%d", argCount))
		args = append(args, *filters.InventoryType)
		argCount++
	}
	if filters.StockType != nil && *filters.StockType != "" {
		conditions = append(conditions, fmt.Sprintf("sl.stock_type = $%d", argCount))
		args = append(args, *filters.StockType)
		argCount++
	}
	if filters.ChangeType != nil && *filters.ChangeType != "" {
		conditions = append(conditions, fmt.Sprintf("sl.change_type = $%d", argCount))
		args = append(args, *filters.ChangeType)
		argCount++
	}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("sl.created_at >= $%d", argCount))
		args = append(args, *from)
		argCount++
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("sl.created_at <= $%d", argCount))
		args = append(args, *to)
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY sl.created_at DESC, sl.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock ledger entries: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, count, err := scanLedgerRow(rows)
		if err != nil {
			return nil, 0, err
		}
		totalCount = count
		entries = append(entries, *entry)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock ledger entries: %v", ErrDatabaseError, err)
	}
	return entries, totalCount, nil
}

func scanLedgerRow(rows *sql.Rows) (*models.StockLedgerEntry, int, error) {
	entry := &models.StockLedgerEntry{}
	var orderID, adminID sql.NullInt64
	var totalCount int

	if err := rows.Scan(
		&entry.ID, &entry.Ref, &entry.StoreID, &entry.InventoryType, &entry.ItemRef, &entry.StockType, &entry.ChangeType,
		&entry.PreviousStock, &entry.NewStock, &entry.ChangeAmount, &entry.Reason, &orderID, &adminID, &entry.CreatedAt,
		&entry.ItemName,
		&totalCount,
	); err != nil {
		return nil, 0, fmt.Errorf("%w: scanning stock ledger entry: %v", ErrDatabaseError, err)
	}
	if orderID.Valid {
		entry.OrderID = &orderID.Int64
	}
	if adminID.Valid {
		entry.AdminID = &adminID.Int64
	}
	return entry, totalCount, nil
}

func (r *stockLedgerRepository) GetOrderConsumption(storeID, orderID int64) ([]models.StockLedgerEntry, error) {
	query := `SELECT
	    sl.id, sl.ref, sl.store_id, sl.inventory_type, sl.item_ref, sl.stock_type, sl.change_type,
	    sl.previous_stock, sl.new_stock, sl.change_amount, sl.reason, sl.order_id, sl.admin_id, sl.created_at,
	    COALESCE(dt.name, '') AS item_name,
	    0 AS total_count
	  FROM stock_ledger sl
	  LEFT JOIN dish_templates dt ON sl.item_ref = dt.id
	  WHERE sl.store_id = $1 AND sl.order_id = $2 AND sl.change_type = $3
	  ORDER BY sl.created_at ASC, sl.id ASC`

	rows, err := r.db.Query(query, storeID, orderID, models.ChangeTypeOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: getting order consumption entries for order %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	entries := []models.StockLedgerEntry{}
	for rows.Next() {
		entry, _, err := scanLedgerRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order consumption entries: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

func (r *stockLedgerRepository) HasOrderEntries(storeID, orderID int64, changeType string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM stock_ledger
	            WHERE store_id = $1 AND order_id = $2 AND change_type = $3)`
	err := r.db.QueryRow(query, storeID, orderID, changeType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: checking ledger entries for order %d: %v", ErrDatabaseError, orderID, err)
	}
	return exists, nil
}

func (r *stockLedgerRepository) SumConsumedSince(storeID, itemRef int64, inventoryType string, since time.Time) (int, error) {
	var consumed int
	query := `SELECT COALESCE(SUM(-change_amount), 0)
	          FROM stock_ledger
	          WHERE store_id = $1 AND item_ref = $2 AND inventory_type = $3
	            AND change_type = $4 AND change_amount < 0 AND created_at >= $5`
	err := r.db.QueryRow(query, storeID, itemRef, inventoryType, models.ChangeTypeOrder, since).Scan(&consumed)
	if err != nil {
		return 0, fmt.Errorf("%w: summing consumption for item %d: %v", ErrDatabaseError, itemRef, err)
	}
	return consumed, nil
}

func (r *stockLedgerRepository) SummarizeByChangeType(storeID int64, from, to time.Time, filters models.LedgerFilters) ([]ChangeTypeSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    change_type,
	    COUNT(*) AS entries,
	    COALESCE(SUM(change_amount), 0) AS net,
	    COALESCE(SUM(CASE WHEN change_amount > 0 THEN change_amount ELSE 0 END), 0) AS increases,
	    COALESCE(SUM(CASE WHEN change_amount < 0 THEN -change_amount ELSE 0 END), 0) AS decreases
	  FROM stock_ledger`)

	conditions := []string{"store_id = $1", "created_at >= $2", "created_at <= $3"}
	args := []interface{}{storeID, from, to}
	argCount := 4

	if filters.ItemRef != nil {
		conditions = append(conditions, fmt.Sprintf("item_ref = $%d", argCount))
		args = append(args, *filters.ItemRef)
		argCount++
	}
	if filters.InventoryType != nil && *filters.InventoryType != "" {
		conditions = append(conditions, fmt.Sprintf("inventory_type = $%d", argCount))
		args = append(args, *filters.InventoryType)
		argCount++
	}
	if filters.StockType != nil && *filters.StockType != "" {
		conditions = append(conditions, fmt.Sprintf("stock_type = $%d", argCount))
		args = append(args, *filters.StockType)
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" GROUP BY change_type ORDER BY change_type")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: summarizing stock changes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	summaries := []ChangeTypeSummary{}
	for rows.Next() {
		var s ChangeTypeSummary
		if err := rows.Scan(&s.ChangeType, &s.Entries, &s.Net, &s.Increases, &s.Decreases); err != nil {
			return nil, fmt.Errorf("%w: scanning stock change summary: %v", ErrDatabaseError, err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stock change summaries: %v", ErrDatabaseError, err)
	}
	return summaries, nil
}
