package models

import "time"

// DishTemplate is the menu-side definition of a dish. Menu CRUD is owned
// elsewhere; this core reads templates to seed and label inventory records.
type DishTemplate struct {
	ID        int64     `json:"id" db:"id"`
	StoreID   int64     `json:"store_id" db:"store_id"`
	Name      string    `json:"name" db:"name"`
	Price     float64   `json:"price" db:"price"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OptionSelection is one chosen option on a dish instance.
type OptionSelection struct {
	OptionCategoryID int64   `json:"option_category_id" db:"option_category_id"`
	OptionID         int64   `json:"option_id" db:"option_id"`
	Name             string  `json:"name" db:"name"`
	Price            float64 `json:"price" db:"price"`
}

// DishInstance is a concrete, priced configuration of a dish template
// chosen for one order line, including its option selections.
type DishInstance struct {
	ID         int64             `json:"id" db:"id"`
	StoreID    int64             `json:"store_id" db:"store_id"`
	TemplateID int64             `json:"template_id" db:"template_id"`
	Selections []OptionSelection `json:"selections"`
}

// Option is a selectable modifier on a dish. When RefDishTemplateID is set,
// selecting this option additionally consumes stock of that template.
type Option struct {
	ID                int64  `json:"id" db:"id"`
	Name              string `json:"name" db:"name"`
	RefDishTemplateID *int64 `json:"ref_dish_template_id,omitempty" db:"ref_dish_template_id"`
}
