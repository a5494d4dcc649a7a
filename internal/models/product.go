package models

import "time"

// Product categories form a fixed set; anything else is rejected and
// an absent category defaults to "other".
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryBooks       = "books"
	CategoryHome        = "home"
	CategoryOther       = "other"
)

// IsValidCategory reports whether c is one of the known categories.
func IsValidCategory(c string) bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryBooks, CategoryHome, CategoryOther:
		return true
	}
	return false
}

// Product represents a catalog item. Image holds the public path of
// the stored asset (e.g. "/uploads/<name>"); UserID references the
// admin who created the product and may be null.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name        string    `json:"name" gorm:"type:varchar(100)" validate:"required,max=100"`
	Price       float64   `json:"price" validate:"gte=0"`
	Description string    `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Category    string    `json:"category" gorm:"type:varchar(20);index;default:other"`
	Image       string    `json:"image" validate:"required"`
	UserID      *string   `json:"user" gorm:"type:varchar(36)"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductUpdate lists the fields an admin may patch on a product.
// Nil fields are left unchanged. A replacement image is handled
// separately because of its asset lifecycle.
type ProductUpdate struct {
	Name        *string
	Price       *float64
	Description *string
	Category    *string
}

// ProductPage is one page of a filtered product listing.
type ProductPage struct {
	Items       []Product
	Total       int64
	TotalPages  int
	CurrentPage int
}
