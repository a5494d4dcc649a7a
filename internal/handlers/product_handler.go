package handlers

import (
	"errors"
	"log"
	"mime/multipart"
	"strconv"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// The literal /featured route must be registered before /:id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, requireAuth, requireAdmin fiber.Handler) {
	productRoutes := router.Group("/products")

	// Public routes
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/featured", h.HandleGetFeatured)
	productRoutes.Get("/:id", h.HandleGetProductByID)

	// Admin protected routes
	productRoutes.Post("/", requireAuth, requireAdmin, h.HandleCreateProduct)
	productRoutes.Put("/:id", requireAuth, requireAdmin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", requireAuth, requireAdmin, h.HandleDeleteProduct)
}

// HandleGetProducts returns one page of the catalog with pagination
// metadata. Non-numeric page/limit fall back to their defaults.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", services.DefaultPageSize)
	category := c.Query("category")

	result, err := h.service.ListProducts(page, limit, category)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Server error retrieving products")
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"count":       len(result.Items),
		"total":       result.Total,
		"totalPages":  result.TotalPages,
		"currentPage": result.CurrentPage,
		"data":        result.Items,
	})
}

// HandleGetFeatured returns the newest products for the landing page.
func (h *ProductHandler) HandleGetFeatured(c *fiber.Ctx) error {
	products, err := h.service.FeaturedProducts()
	if err != nil {
		log.Printf("Error getting featured products: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Server error retrieving featured products")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(products),
		"data":    products,
	})
}

// HandleGetProductByID returns a single product.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")

	product, err := h.service.GetProductByID(id)
	if err != nil {
		if errors.Is(err, models.ErrInvalidID) {
			return fail(c, fiber.StatusBadRequest, "Invalid product ID format")
		}
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		log.Printf("Error getting product %s: %v", id, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
	})
}

// HandleCreateProduct creates a product from a multipart form with an
// "image" file field. Admin only.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	price, err := parsePriceField(c.FormValue("price"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Price must be a valid positive number")
	}

	req := services.CreateProductRequest{
		Name:        c.FormValue("name"),
		Price:       price,
		Description: c.FormValue("description"),
		Category:    c.FormValue("category"),
	}

	image, err := c.FormFile("image")
	if err != nil {
		image = nil
	}

	admin := middleware.CurrentUser(c)
	product, err := h.service.CreateProduct(admin.ID, req, image)
	if err != nil {
		log.Printf("Error creating product: %v", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Product created successfully",
		"data":    product,
	})
}

// HandleUpdateProduct patches a product from a multipart form. Only
// the fields present in the form are changed; a new "image" file
// replaces the stored asset.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("Error parsing product update form: %v", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var patch models.ProductUpdate
	if name, ok := formField(form, "name"); ok {
		patch.Name = &name
	}
	if description, ok := formField(form, "description"); ok {
		patch.Description = &description
	}
	if category, ok := formField(form, "category"); ok {
		patch.Category = &category
	}
	if priceStr, ok := formField(form, "price"); ok {
		price, err := parsePriceField(priceStr)
		if err != nil || price == nil {
			return fail(c, fiber.StatusBadRequest, "Price must be a valid positive number")
		}
		patch.Price = price
	}

	image, err := c.FormFile("image")
	if err != nil {
		image = nil
	}

	product, err := h.service.UpdateProduct(id, patch, image)
	if err != nil {
		if errors.Is(err, models.ErrInvalidID) {
			return fail(c, fiber.StatusBadRequest, "Invalid product ID")
		}
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		log.Printf("Error updating product %s: %v", id, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product updated successfully",
		"data":    product,
	})
}

// HandleDeleteProduct removes a product and its image asset. Admin
// only.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.service.DeleteProduct(id); err != nil {
		if errors.Is(err, models.ErrInvalidID) {
			return fail(c, fiber.StatusBadRequest, "Invalid product ID")
		}
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "Product not found")
		}
		log.Printf("Error deleting product %s: %v", id, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// parsePriceField parses the form's price value. Empty means absent;
// a non-numeric value is an error.
func parsePriceField(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &price, nil
}

// formField distinguishes an absent form field from an empty one.
func formField(form *multipart.Form, key string) (string, bool) {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
