package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto_ops_backend/internal/models"

	"github.com/lib/pq"
)

// InventoryRepository defines the interface for inventory record database operations.
// Counter-changing methods take an SQLExecutor so the mutation service can pair
// the record update with its ledger entry in one transaction. Decrements are
// guarded inside the UPDATE so two concurrent reducers against the same record
// can never both succeed past zero.
type InventoryRepository interface {
	CreateRecord(executor SQLExecutor, rec *models.InventoryRecord) (int64, error)
	GetRecordByID(storeID, id int64) (*models.InventoryRecord, error)
	GetRecordByItem(key models.InventoryKey) (*models.InventoryRecord, error)
	GetRecordByDishTemplate(storeID, templateID int64) (*models.InventoryRecord, error)
	GetRecordForUpdate(executor SQLExecutor, storeID, id int64) (*models.InventoryRecord, error)
	ListRecords(storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error)

	// ReduceCounter atomically decrements the named counter, failing with
	// ErrInsufficientStock if the decrement would go below zero.
	// Returns the previous and new counter values.
	ReduceCounter(executor SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error)
	// IncreaseCounter atomically increments the named counter.
	IncreaseCounter(executor SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error)
	// SetCounter sets the named counter to an absolute value. Callers must
	// hold the row (GetRecordForUpdate) to report the previous value safely.
	SetCounter(executor SQLExecutor, storeID, recordID int64, stockType string, value int) (int, error)
	SetSoldOut(executor SQLExecutor, storeID, recordID int64, soldOut bool) error
	// UpdateSettings applies the non-counter fields of a bulk update; nil
	// fields are left untouched.
	UpdateSettings(executor SQLExecutor, storeID, recordID int64, upd models.InventorySettingsUpdate) error
}

type inventoryRepository struct {
	db *sql.DB
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *sql.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

const inventoryRecordColumns = `ir.id, ir.store_id, ir.inventory_type, ir.item_ref,
	    ir.total_stock, ir.available_stock, ir.min_stock_alert, ir.max_threshold,
	    ir.is_inventory_tracked, ir.enable_available_stock, ir.is_sold_out, ir.auto_replenish,
	    ir.created_at, ir.updated_at, COALESCE(dt.name, '') AS item_name`

func scanInventoryRecord(row interface{ Scan(...interface{}) error }) (*models.InventoryRecord, error) {
	rec := &models.InventoryRecord{}
	var maxThreshold sql.NullInt64
	err := row.Scan(
		&rec.ID, &rec.StoreID, &rec.InventoryType, &rec.ItemRef,
		&rec.TotalStock, &rec.AvailableStock, &rec.MinStockAlert, &maxThreshold,
		&rec.IsInventoryTracked, &rec.EnableAvailableStock, &rec.IsSoldOut, &rec.AutoReplenish,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.ItemName,
	)
	if err != nil {
		return nil, err
	}
	if maxThreshold.Valid {
		val := int(maxThreshold.Int64)
		rec.MaxThreshold = &val
	}
	return rec, nil
}

func (r *inventoryRepository) CreateRecord(executor SQLExecutor, rec *models.InventoryRecord) (int64, error) {
	query := `INSERT INTO inventory_records
	          (store_id, inventory_type, item_ref, total_stock, available_stock, min_stock_alert,
	           max_threshold, is_inventory_tracked, enable_available_stock, is_sold_out, auto_replenish,
	           created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	currentTime := time.Now()

	var maxThreshold sql.NullInt64
	if rec.MaxThreshold != nil {
		maxThreshold = sql.NullInt64{Int64: int64(*rec.MaxThreshold), Valid: true}
	}

	err := executor.QueryRow(query,
		rec.StoreID, rec.InventoryType, rec.ItemRef, rec.TotalStock, rec.AvailableStock, rec.MinStockAlert,
		maxThreshold, rec.IsInventoryTracked, rec.EnableAvailableStock, rec.IsSoldOut, rec.AutoReplenish,
		currentTime, currentTime,
	).Scan(&rec.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: inventory record for store %d item %d already exists (constraint: %s)",
					ErrDuplicateKey, rec.StoreID, rec.ItemRef, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return 0, fmt.Errorf("%w: invalid item_ref %d (constraint: %s): %v",
					ErrDatabaseError, rec.ItemRef, pqErr.Constraint, err)
			}
		}
		return 0, fmt.Errorf("%w: creating inventory record: %v", ErrDatabaseError, err)
	}
	return rec.ID, nil
}

func (r *inventoryRepository) GetRecordByID(storeID, id int64) (*models.InventoryRecord, error) {
	query := `SELECT ` + inventoryRecordColumns + `
	          FROM inventory_records ir
	          LEFT JOIN dish_templates dt ON ir.item_ref = dt.id
	          WHERE ir.store_id = $1 AND ir.id = $2`
	rec, err := scanInventoryRecord(r.db.QueryRow(query, storeID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory record by ID %d: %v", ErrDatabaseError, id, err)
	}
	return rec, nil
}

func (r *inventoryRepository) GetRecordByItem(key models.InventoryKey) (*models.InventoryRecord, error) {
	query := `SELECT ` + inventoryRecordColumns + `
	          FROM inventory_records ir
	          LEFT JOIN dish_templates dt ON ir.item_ref = dt.id
	          WHERE ir.store_id = $1 AND ir.item_ref = $2 AND ir.inventory_type = $3`
	rec, err := scanInventoryRecord(r.db.QueryRow(query, key.StoreID, key.ItemRef, key.InventoryType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting inventory record for store %d item %d: %v",
			ErrDatabaseError, key.StoreID, key.ItemRef, err)
	}
	return rec, nil
}

func (r *inventoryRepository) GetRecordByDishTemplate(storeID, templateID int64) (*models.InventoryRecord, error) {
	return r.GetRecordByItem(models.InventoryKey{
		StoreID:       storeID,
		ItemRef:       templateID,
		InventoryType: models.InventoryTypeDishTemplate,
	})
}

func (r *inventoryRepository) GetRecordForUpdate(executor SQLExecutor, storeID, id int64) (*models.InventoryRecord, error) {
	// FOR UPDATE OF ir keeps the row locked for the rest of the transaction,
	// so absolute sets can report the previous value without a race.
	query := `SELECT ` + inventoryRecordColumns + `
	          FROM inventory_records ir
	          LEFT JOIN dish_templates dt ON ir.item_ref = dt.id
	          WHERE ir.store_id = $1 AND ir.id = $2
	          FOR UPDATE OF ir`
	rec, err := scanInventoryRecord(executor.QueryRow(query, storeID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking inventory record ID %d: %v", ErrDatabaseError, id, err)
	}
	return rec, nil
}

func (r *inventoryRepository) ListRecords(storeID int64, filters models.InventoryFilters) ([]models.InventoryRecord, int, error) {
	records := []models.InventoryRecord{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + inventoryRecordColumns + `, COUNT(*) OVER() AS total_count
	  FROM inventory_records ir
	  LEFT JOIN dish_templates dt ON ir.item_ref = dt.id`)

	conditions := []string{"ir.store_id = $1"}
	args := []interface{}{storeID}
	argCount := 2

	if filters.InventoryType != nil && *filters.InventoryType != "" {
		conditions = append(conditions, fmt.Sprintf("ir.inventory_type = $%d", argCount))
		args = append(args, *filters.InventoryType)
		argCount++
	}
	if filters.OnlyAvailable {
		conditions = append(conditions, `ir.is_sold_out = FALSE AND (ir.is_inventory_tracked = FALSE
		    OR (ir.enable_available_stock AND ir.available_stock > 0)
		    OR (NOT ir.enable_available_stock AND ir.total_stock > 0))`)
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("dt.name ILIKE $%d", argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY item_name, ir.id")
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
		return nil, 0, fmt.Errorf("%w: listing inventory records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := models.InventoryRecord{}
		var maxThreshold sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.StoreID, &rec.InventoryType, &rec.ItemRef,
			&rec.TotalStock, &rec.AvailableStock, &rec.MinStockAlert, &maxThreshold,
			&rec.IsInventoryTracked, &rec.EnableAvailableStock, &rec.IsSoldOut, &rec.AutoReplenish,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.ItemName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning inventory record: %v", ErrDatabaseError, err)
		}
		if maxThreshold.Valid {
			val := int(maxThreshold.Int64)
			rec.MaxThreshold = &val
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating inventory records: %v", ErrDatabaseError, err)
	}
	return records, totalCount, nil
}

func counterColumn(stockType string) (string, error) {
	switch stockType {
	case models.StockTypeTotal:
		return "total_stock", nil
	case models.StockTypeAvailable:
		return "available_stock", nil
	default:
		return "", fmt.Errorf("%w: unknown stock type %q", ErrDatabaseError, stockType)
	}
}

func (r *inventoryRepository) ReduceCounter(executor SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error) {
	column, err := counterColumn(stockType)
	if err != nil {
		return 0, 0, err
	}

	// The guard is part of the UPDATE: the decrement only happens if the
	// counter still covers the quantity at commit time.
	query := fmt.Sprintf(`UPDATE inventory_records
	          SET %[1]s = %[1]s - $1, updated_at = $2
	          WHERE store_id = $3 AND id = $4 AND %[1]s >= $1
	          RETURNING %[1]s`, column)

	var newStock int
	err = executor.QueryRow(query, quantity, time.Now(), storeID, recordID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the record is gone or the guard rejected the decrement.
			var exists bool
			checkErr := executor.QueryRow(
				"SELECT EXISTS (SELECT 1 FROM inventory_records WHERE store_id = $1 AND id = $2)",
				storeID, recordID,
			).Scan(&exists)
			if checkErr != nil {
				return 0, 0, fmt.Errorf("%w: checking inventory record %d: %v", ErrDatabaseError, recordID, checkErr)
			}
			if !exists {
				return 0, 0, ErrNotFound
			}
			return 0, 0, fmt.Errorf("%w: record %d %s cannot cover quantity %d", ErrInsufficientStock, recordID, stockType, quantity)
		}
		return 0, 0, fmt.Errorf("%w: reducing %s for record %d: %v", ErrDatabaseError, stockType, recordID, err)
	}
	return newStock + quantity, newStock, nil
}

func (r *inventoryRepository) IncreaseCounter(executor SQLExecutor, storeID, recordID int64, stockType string, quantity int) (int, int, error) {
	column, err := counterColumn(stockType)
	if err != nil {
		return 0, 0, err
	}

	query := fmt.Sprintf(`UPDATE inventory_records
	          SET %[1]s = %[1]s + $1, updated_at = $2
	          WHERE store_id = $3 AND id = $4
	          RETURNING %[1]s`, column)

	var newStock int
	err = executor.QueryRow(query, quantity, time.Now(), storeID, recordID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, ErrNotFound
		}
		return 0, 0, fmt.Errorf("%w: increasing %s for record %d: %v", ErrDatabaseError, stockType, recordID, err)
	}
	return newStock - quantity, newStock, nil
}

func (r *inventoryRepository) SetCounter(executor SQLExecutor, storeID, recordID int64, stockType string, value int) (int, error) {
	column, err := counterColumn(stockType)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`UPDATE inventory_records
	          SET %[1]s = $1, updated_at = $2
	          WHERE store_id = $3 AND id = $4
	          RETURNING %[1]s`, column)

	var newStock int
	err = executor.QueryRow(query, value, time.Now(), storeID, recordID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: setting %s for record %d: %v", ErrDatabaseError, stockType, recordID, err)
	}
	return newStock, nil
}

func (r *inventoryRepository) UpdateSettings(executor SQLExecutor, storeID, recordID int64, upd models.InventorySettingsUpdate) error {
	setClauses := []string{}
	args := []interface{}{}
	argCount := 1

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argCount))
		args = append(args, value)
		argCount++
	}

	if upd.MinStockAlert != nil {
		addClause("min_stock_alert", *upd.MinStockAlert)
	}
	if upd.MaxThreshold != nil {
		addClause("max_threshold", *upd.MaxThreshold)
	}
	if upd.IsInventoryTracked != nil {
		addClause("is_inventory_tracked", *upd.IsInventoryTracked)
	}
	if upd.EnableAvailableStock != nil {
		addClause("enable_available_stock", *upd.EnableAvailableStock)
	}
	if upd.IsSoldOut != nil {
		addClause("is_sold_out", *upd.IsSoldOut)
	}
	if upd.AutoReplenish != nil {
		addClause("auto_replenish", *upd.AutoReplenish)
	}
	if len(setClauses) == 0 {
		return nil
	}
	addClause("updated_at", time.Now())

	query := fmt.Sprintf("UPDATE inventory_records SET %s WHERE store_id = $%d AND id = $%d",
		strings.Join(setClauses, ", "), argCount, argCount+1)
	args = append(args, storeID, recordID)

	result, err := executor.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%w: updating settings for record %d: %v", ErrDatabaseError, recordID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) SetSoldOut(executor SQLExecutor, storeID, recordID int64, soldOut bool) error {
	result, err := executor.Exec(
		"UPDATE inventory_records SET is_sold_out = $1, updated_at = $2 WHERE store_id = $3 AND id = $4",
		soldOut, time.Now(), storeID, recordID,
	)
	if err != nil {
		return fmt.Errorf("%w: toggling sold-out for record %d: %v", ErrDatabaseError, recordID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
