package services

import (
	"fmt"
	"log"
	"mime/multipart"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/google/uuid"
)

const (
	// DefaultPageSize applies when the client omits or mangles the
	// limit parameter; MaxPageSize caps whatever the client asks for.
	DefaultPageSize = 10
	MaxPageSize     = 100

	// FeaturedCount is the size of the landing-page subset.
	FeaturedCount = 6
)

// AssetStore is the slice of the image asset manager the product
// service needs. The store has no transactional awareness of product
// records; this service owns the coupling between an asset and the
// record referencing it.
type AssetStore interface {
	Save(file *multipart.FileHeader) (string, error)
	Delete(ref string) error
}

// CreateProductRequest carries the fields of a product creation.
// Price is a pointer so a missing price is distinguishable from a
// free product.
type CreateProductRequest struct {
	Name        string
	Price       *float64
	Description string
	Category    string
}

// ProductService handles business logic related to products,
// including the lifecycle of their image assets.
type ProductService struct {
	repo   repositories.ProductRepository
	assets AssetStore
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, assets AssetStore) *ProductService {
	return &ProductService{
		repo:   repo,
		assets: assets,
	}
}

// ListProducts returns one page of the catalog, newest first. Page
// and limit fall back to 1/10 when absent or non-positive, and the
// limit is capped to keep a single request from dragging the whole
// catalog. Category "" and "all" mean no filter.
func (s *ProductService) ListProducts(page, limit int, category string) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if category == "all" {
		category = ""
	}

	items, total, err := s.repo.List(repositories.ProductFilter{
		Page:     page,
		Limit:    limit,
		Category: category,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.ProductPage{
		Items:       items,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
	}, nil
}

// FeaturedProducts returns the newest products for the landing page.
func (s *ProductService) FeaturedProducts() ([]models.Product, error) {
	return s.repo.GetNewest(FeaturedCount)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	return s.repo.GetByID(id)
}

// CreateProduct validates the request, stores the image asset, then
// persists the record. If the record save fails the just-stored asset
// is deleted before the error is returned, so no orphaned upload
// survives a failed create.
func (s *ProductService) CreateProduct(ownerID string, req CreateProductRequest, image *multipart.FileHeader) (*models.Product, error) {
	if req.Name == "" || req.Price == nil || image == nil {
		return nil, fmt.Errorf("%w: product name, price, and image are required", models.ErrValidation)
	}
	if err := validateProductFields(req.Name, req.Price, req.Description); err != nil {
		return nil, err
	}

	category := req.Category
	if category == "" {
		category = models.CategoryOther
	}
	if !models.IsValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrValidation, category)
	}

	imageRef, err := s.assets.Save(image)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        req.Name,
		Price:       *req.Price,
		Description: req.Description,
		Category:    category,
		Image:       imageRef,
	}
	if ownerID != "" {
		product.UserID = &ownerID
	}

	if err := s.repo.Create(product); err != nil {
		if cleanupErr := s.assets.Delete(imageRef); cleanupErr != nil {
			log.Printf("Failed to clean up uploaded asset %s: %v", imageRef, cleanupErr)
		}
		return nil, err
	}
	return product, nil
}

// UpdateProduct patches an existing product. When a new image is
// supplied the old asset is deleted only after the record update
// succeeds; when the update fails the newly stored asset is deleted
// and the product keeps its prior image.
func (s *ProductService) UpdateProduct(id string, patch models.ProductUpdate, image *multipart.FileHeader) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrInvalidID
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && (*patch.Name == "" || len(*patch.Name) > 100) {
		return nil, fmt.Errorf("%w: product name must be 1-100 characters", models.ErrValidation)
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, fmt.Errorf("%w: price must be a valid positive number", models.ErrValidation)
	}
	if patch.Description != nil && len(*patch.Description) > 500 {
		return nil, fmt.Errorf("%w: description cannot exceed 500 characters", models.ErrValidation)
	}
	if patch.Category != nil && !models.IsValidCategory(*patch.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrValidation, *patch.Category)
	}

	oldImage := product.Image
	newImage := ""
	if image != nil {
		newImage, err = s.assets.Save(image)
		if err != nil {
			return nil, err
		}
	}

	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if newImage != "" {
		product.Image = newImage
	}

	if err := s.repo.Update(product); err != nil {
		if newImage != "" {
			if cleanupErr := s.assets.Delete(newImage); cleanupErr != nil {
				log.Printf("Failed to clean up uploaded asset %s: %v", newImage, cleanupErr)
			}
		}
		return nil, err
	}

	if newImage != "" && oldImage != "" {
		if err := s.assets.Delete(oldImage); err != nil {
			log.Printf("Failed to delete replaced asset %s: %v", oldImage, err)
		}
	}
	return product, nil
}

// DeleteProduct removes the record, then best-effort deletes its
// asset. A missing or stubborn asset file is logged and never blocks
// the deletion.
func (s *ProductService) DeleteProduct(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrInvalidID
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	if product.Image != "" {
		if err := s.assets.Delete(product.Image); err != nil {
			log.Printf("Failed to delete asset %s for product %s: %v", product.Image, id, err)
		}
	}
	return nil
}

func validateProductFields(name string, price *float64, description string) error {
	if len(name) > 100 {
		return fmt.Errorf("%w: product name cannot exceed 100 characters", models.ErrValidation)
	}
	if price != nil && *price < 0 {
		return fmt.Errorf("%w: price must be a valid positive number", models.ErrValidation)
	}
	if len(description) > 500 {
		return fmt.Errorf("%w: description cannot exceed 500 characters", models.ErrValidation)
	}
	return nil
}
