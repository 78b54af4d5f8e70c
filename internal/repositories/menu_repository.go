package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"resto_ops_backend/internal/models"
)

// MenuRepository is the resolver's read-only view of the menu collaborator:
// dish instances (an order line's concrete configuration), options, and the
// template listing used to seed inventory records. This core never writes
// menu data.
type MenuRepository interface {
	GetDishInstance(storeID, instanceID int64) (*models.DishInstance, error)
	GetOption(optionID int64) (*models.Option, error)
	// ListTemplatesWithoutInventory returns active dish templates in the
	// store that have no inventory record yet.
	ListTemplatesWithoutInventory(storeID int64) ([]models.DishTemplate, error)
	CountActiveTemplates(storeID int64) (int, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) GetDishInstance(storeID, instanceID int64) (*models.DishInstance, error) {
	instance := &models.DishInstance{}
	query := `SELECT id, store_id, template_id FROM dish_instances WHERE store_id = $1 AND id = $2`
	err := r.db.QueryRow(query, storeID, instanceID).Scan(&instance.ID, &instance.StoreID, &instance.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting dish instance %d: %v", ErrDatabaseError, instanceID, err)
	}

	selQuery := `SELECT option_category_id, option_id, name, price
	             FROM dish_instance_options
	             WHERE dish_instance_id = $1
	             ORDER BY option_category_id, option_id`
	rows, err := r.db.Query(selQuery, instanceID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting selections for dish instance %d: %v", ErrDatabaseError, instanceID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sel models.OptionSelection
		if err := rows.Scan(&sel.OptionCategoryID, &sel.OptionID, &sel.Name, &sel.Price); err != nil {
			return nil, fmt.Errorf("%w: scanning dish instance selection: %v", ErrDatabaseError, err)
		}
		instance.Selections = append(instance.Selections, sel)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating dish instance selections: %v", ErrDatabaseError, err)
	}
	return instance, nil
}

func (r *menuRepository) GetOption(optionID int64) (*models.Option, error) {
	option := &models.Option{}
	var refTemplate sql.NullInt64
	query := `SELECT id, name, ref_dish_template_id FROM options WHERE id = $1`
	err := r.db.QueryRow(query, optionID).Scan(&option.ID, &option.Name, &refTemplate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting option %d: %v", ErrDatabaseError, optionID, err)
	}
	if refTemplate.Valid {
		option.RefDishTemplateID = &refTemplate.Int64
	}
	return option, nil
}

func (r *menuRepository) CountActiveTemplates(storeID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM dish_templates WHERE store_id = $1 AND is_active = TRUE", storeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting dish templates for store %d: %v", ErrDatabaseError, storeID, err)
	}
	return count, nil
}

func (r *menuRepository) ListTemplatesWithoutInventory(storeID int64) ([]models.DishTemplate, error) {
	query := `SELECT dt.id, dt.store_id, dt.name, dt.price, dt.is_active, dt.created_at, dt.updated_at
	          FROM dish_templates dt
	          LEFT JOIN inventory_records ir
	            ON ir.item_ref = dt.id AND ir.store_id = dt.store_id AND ir.inventory_type = $1
	          WHERE dt.store_id = $2 AND dt.is_active = TRUE AND ir.id IS NULL
	          ORDER BY dt.id`

	rows, err := r.db.Query(query, models.InventoryTypeDishTemplate, storeID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing templates without inventory: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	templates := []models.DishTemplate{}
	for rows.Next() {
		var t models.DishTemplate
		if err := rows.Scan(&t.ID, &t.StoreID, &t.Name, &t.Price, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning dish template: %v", ErrDatabaseError, err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating dish templates: %v", ErrDatabaseError, err)
	}
	return templates, nil
}
