package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pasar/internal/handlers"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/pkg/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles everything a test needs to drive the full HTTP
// surface against an in-memory SQLite database and a temp upload dir.
type testEnv struct {
	app       *fiber.App
	db        *gorm.DB
	uploadDir string
}

// setupApp wires the app the same way main does, with in-memory
// SQLite, a temp upload directory, and no contact publisher.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}))

	uploadDir := t.TempDir()
	assetManager, err := uploads.NewManager(uploadDir, 5*1024*1024)
	assert.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)

	authService := services.NewAuthService(userRepo, "test_jwt_secret")
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo, assetManager)
	contactService := services.NewContactService(nil)

	userHandler := handlers.NewUserHandler(authService, userService)
	productHandler := handlers.NewProductHandler(productService)
	contactHandler := handlers.NewContactHandler(contactService)

	app := fiber.New()
	requireAuth := middleware.AuthRequired(authService)
	requireAdmin := middleware.AdminRequired()

	api := app.Group("/api")
	productHandler.RegisterRoutes(api, requireAuth, requireAdmin)
	userHandler.RegisterRoutes(api, requireAuth, requireAdmin)
	contactHandler.RegisterRoutes(api)

	return &testEnv{app: app, db: db, uploadDir: uploadDir}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// --- request helpers ---

func jsonRequest(t *testing.T, method, path string, payload interface{}, token string) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, imageName string, image []byte, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	if imageName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, imageName))
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		assert.NoError(t, err)
		_, err = part.Write(image)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// createUser inserts a user directly, bypassing the HTTP surface, so
// tests can mint admin accounts.
func createUser(t *testing.T, env *testEnv, username, email, password string, isAdmin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	assert.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		IsAdmin:  isAdmin,
		IsActive: true,
	}
	assert.NoError(t, repositories.NewGORMUserRepository(env.db).Create(user))
	return user
}

// signin authenticates through the API and returns the bearer token.
func signin(t *testing.T, env *testEnv, email, password string) string {
	t.Helper()
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signin", map[string]string{
		"email":    email,
		"password": password,
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	assert.NotEmpty(t, token)
	return token
}

// seedProduct inserts a product record directly with a fixed creation
// time so listing order is deterministic.
func seedProduct(t *testing.T, env *testEnv, name, category string, price float64, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Price:     price,
		Category:  category,
		Image:     "/uploads/seed-" + name + ".png",
		CreatedAt: createdAt,
	}
	assert.NoError(t, repositories.NewGORMProductRepository(env.db).Create(product))
	return product
}

// --- users ---

func TestSignupAndSigninFlow(t *testing.T) {
	env := setupApp(t)

	// Register user1
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"username": "user1",
		"email":    "user1@x.com",
		"password": "secret1",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "user1", user["username"])
	_, hasPassword := user["password"]
	assert.False(t, hasPassword, "password must never be serialized")

	// Correct credentials sign in
	token := signin(t, env, "user1@x.com", "secret1")
	assert.NotEmpty(t, token)

	// Wrong password is rejected
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signin", map[string]string{
		"email":    "user1@x.com",
		"password": "wrong",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPassBody := decodeBody(t, resp)

	// Unknown email yields the exact same response shape
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signin", map[string]string{
		"email":    "nobody@x.com",
		"password": "secret1",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	unknownEmailBody := decodeBody(t, resp)
	assert.Equal(t, wrongPassBody, unknownEmailBody)

	// Registering the same username with a different email collides
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"username": "user1",
		"email":    "other@x.com",
		"password": "secret2",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Username already taken", body["message"])

	// Same email, different username, also collides — case-insensitively
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"username": "user2",
		"email":    "USER1@X.COM",
		"password": "secret2",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Email already registered", body["message"])
}

func TestSignupValidation(t *testing.T) {
	env := setupApp(t)

	// Username too short, bad email, short password
	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signup", map[string]string{
		"username": "ab",
		"email":    "not-an-email",
		"password": "123",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "Username")
	assert.Contains(t, errs, "Email")
	assert.Contains(t, errs, "Password")
}

func TestProfileEndpoints(t *testing.T) {
	env := setupApp(t)
	createUser(t, env, "budi", "budi@x.com", "secret1", false)
	token := signin(t, env, "budi@x.com", "secret1")

	// No token
	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/users/profile", nil, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Malformed header
	req := jsonRequest(t, http.MethodGet, "/api/users/profile", nil, "")
	req.Header.Set("Authorization", "Token abc")
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With token
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/users/profile", nil, token), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "budi", user["username"])

	// Update username
	resp, err = env.app.Test(jsonRequest(t, http.MethodPut, "/api/users/profile", map[string]string{
		"username": "budi2",
	}, token), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "budi2", body["user"].(map[string]interface{})["username"])

	// Colliding with another user's username fails
	createUser(t, env, "siti", "siti@x.com", "secret1", false)
	resp, err = env.app.Test(jsonRequest(t, http.MethodPut, "/api/users/profile", map[string]string{
		"username": "siti",
	}, token), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Username already taken", body["message"])
}

func TestAdminUserManagement(t *testing.T) {
	env := setupApp(t)
	admin := createUser(t, env, "admin", "admin@x.com", "adminpass", true)
	member := createUser(t, env, "member", "member@x.com", "memberpass", false)
	adminToken := signin(t, env, "admin@x.com", "adminpass")
	memberToken := signin(t, env, "member@x.com", "memberpass")

	// Listing users is admin only
	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/users/", nil, memberToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/users/", nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])

	// Admin cannot disable themselves
	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/users/"+admin.ID, nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown target
	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/users/3e0a1c2d-4b5f-4678-9a0b-1c2d3e4f5a6b", nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Disable the member
	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/users/"+member.ID, nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.Equal(t, "Account disabled", body["message"])

	// The disabled member can no longer sign in…
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/users/signin", map[string]string{
		"email":    "member@x.com",
		"password": "memberpass",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// …and their previously issued token is dead too
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/users/profile", nil, memberToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// --- products ---

func TestProductLifecycle(t *testing.T) {
	env := setupApp(t)
	createUser(t, env, "admin", "admin@x.com", "adminpass", true)
	adminToken := signin(t, env, "admin@x.com", "adminpass")

	// Create
	resp, err := env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":     "Lamp",
		"price":    "19.99",
		"category": "home",
	}, "lamp.png", []byte("png-bytes"), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	data := body["data"].(map[string]interface{})
	productID := data["id"].(string)
	imageRef := data["image"].(string)
	assert.True(t, strings.HasPrefix(imageRef, "/uploads/"))

	// The asset exists on disk
	_, err = os.Stat(filepath.Join(env.uploadDir, filepath.Base(imageRef)))
	assert.NoError(t, err)

	// Fetch it back: price is exactly 19.99, category home
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/"+productID, nil, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, 19.99, data["price"])
	assert.Equal(t, "home", data["category"])

	// Update with a new image: the old asset is replaced on disk
	resp, err = env.app.Test(multipartRequest(t, http.MethodPut, "/api/products/"+productID, map[string]string{
		"price": "24.99",
	}, "lamp2.png", []byte("new-png-bytes"), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	newImageRef := body["data"].(map[string]interface{})["image"].(string)
	assert.NotEqual(t, imageRef, newImageRef)
	_, err = os.Stat(filepath.Join(env.uploadDir, filepath.Base(imageRef)))
	assert.True(t, os.IsNotExist(err), "old asset should be deleted after a successful replace")
	_, err = os.Stat(filepath.Join(env.uploadDir, filepath.Base(newImageRef)))
	assert.NoError(t, err)

	// Delete: record and asset both gone
	resp, err = env.app.Test(jsonRequest(t, http.MethodDelete, "/api/products/"+productID, nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/"+productID, nil, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_, err = os.Stat(filepath.Join(env.uploadDir, filepath.Base(newImageRef)))
	assert.True(t, os.IsNotExist(err))
}

func TestProductCreateValidation(t *testing.T) {
	env := setupApp(t)
	createUser(t, env, "admin", "admin@x.com", "adminpass", true)
	adminToken := signin(t, env, "admin@x.com", "adminpass")

	// Missing image: rejected and nothing written to storage
	resp, err := env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Lamp",
		"price": "19.99",
	}, "", nil, adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	entries, err := os.ReadDir(env.uploadDir)
	assert.NoError(t, err)
	assert.Empty(t, entries)

	// Negative price
	resp, err = env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Lamp",
		"price": "-1",
	}, "lamp.png", []byte("png"), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Non-numeric price
	resp, err = env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Lamp",
		"price": "cheap",
	}, "lamp.png", []byte("png"), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Price zero is fine
	resp, err = env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Freebie",
		"price": "0",
	}, "free.png", []byte("png"), adminToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestProductAuthz(t *testing.T) {
	env := setupApp(t)
	createUser(t, env, "member", "member@x.com", "memberpass", false)
	memberToken := signin(t, env, "member@x.com", "memberpass")

	// Anonymous create is unauthorized
	resp, err := env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Lamp",
		"price": "10",
	}, "lamp.png", []byte("png"), ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Authenticated non-admin is forbidden
	resp, err = env.app.Test(multipartRequest(t, http.MethodPost, "/api/products/", map[string]string{
		"name":  "Lamp",
		"price": "10",
	}, "lamp.png", []byte("png"), memberToken), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProductListing(t *testing.T) {
	env := setupApp(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		seedProduct(t, env, fmt.Sprintf("shirt-%d", i), models.CategoryClothing, 10+float64(i), base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 3; i++ {
		seedProduct(t, env, fmt.Sprintf("book-%d", i), models.CategoryBooks, 5, base.Add(time.Duration(10+i)*time.Minute))
	}

	// Category filter returns only matching items, with paging math
	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/?category=clothing&limit=3", nil, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, float64(4), body["total"])
	assert.Equal(t, float64(2), body["totalPages"]) // ceil(4/3)
	assert.Equal(t, float64(1), body["currentPage"])
	items := body["data"].([]interface{})
	assert.Len(t, items, 3)
	for _, item := range items {
		assert.Equal(t, "clothing", item.(map[string]interface{})["category"])
	}

	// "all" disables the filter; newest first
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/?category=all", nil, ""), -1)
	assert.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(7), body["total"])
	items = body["data"].([]interface{})
	assert.Equal(t, "book-2", items[0].(map[string]interface{})["name"])

	// Non-numeric paging parameters fall back to defaults
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/?page=abc&limit=xyz", nil, ""), -1)
	assert.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(1), body["currentPage"])
	assert.Equal(t, float64(7), body["count"])

	// Featured returns the newest six, unfiltered
	resp, err = env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/featured", nil, ""), -1)
	assert.NoError(t, err)
	body = decodeBody(t, resp)
	assert.Equal(t, float64(6), body["count"])
	featured := body["data"].([]interface{})
	assert.Equal(t, "book-2", featured[0].(map[string]interface{})["name"])
}

func TestProductInvalidID(t *testing.T) {
	env := setupApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodGet, "/api/products/not-a-uuid", nil, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid product ID format", body["message"])
}

// --- contact ---

func TestContactSend(t *testing.T) {
	env := setupApp(t)

	resp, err := env.app.Test(jsonRequest(t, http.MethodPost, "/api/contact/send", map[string]string{
		"name":    "Budi",
		"email":   "budi@x.com",
		"subject": "Hello",
		"message": "Is the lamp still available?",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])

	// Missing message
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/contact/send", map[string]string{
		"name":  "Budi",
		"email": "budi@x.com",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Bad email syntax
	resp, err = env.app.Test(jsonRequest(t, http.MethodPost, "/api/contact/send", map[string]string{
		"name":    "Budi",
		"email":   "not-an-email",
		"message": "hello",
	}, ""), -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
