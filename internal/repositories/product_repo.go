package repositories

import (
	"pasar/internal/models"
)

// ProductFilter narrows and pages a product listing. An empty
// Category means no filter.
type ProductFilter struct {
	Page     int
	Limit    int
	Category string
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, int64, error)
	GetNewest(limit int) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
