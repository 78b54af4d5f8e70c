package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"resto_ops_backend/internal/models"
)

// AdminRepository defines the interface for admin account lookups used by auth.
type AdminRepository interface {
	GetAdminByUsername(username string) (*models.Admin, error)
}

type adminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new instance of AdminRepository.
func NewAdminRepository(db *sql.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) GetAdminByUsername(username string) (*models.Admin, error) {
	admin := &models.Admin{}
	query := `SELECT id, store_id, username, password_hash, role, created_at FROM admins WHERE username = $1`
	err := r.db.QueryRow(query, username).Scan(
		&admin.ID, &admin.StoreID, &admin.Username, &admin.PasswordHash, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting admin %q: %v", ErrDatabaseError, username, err)
	}
	return admin, nil
}
