// Package product 商品管理与公开搜索
package product

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"

	"github.com/go-playground/validator/v10"
)

// Store 商品领域存储接口
type Store interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, namePattern string) ([]*model.ProductSummary, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
}

// ImageStore 商品图片上传接口
type ImageStore interface {
	UploadMultipart(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Handler 商品 HTTP 处理器
type Handler struct {
	store  Store
	images ImageStore
}

// NewHandler 创建商品处理器
func NewHandler(store Store, images ImageStore) *Handler {
	return &Handler{store: store, images: images}
}

// RegisterRoutes 注册商品相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/product", h.CreateProduct)
	mux.HandleFunc("GET /api/v1/product", h.SearchProducts)
	mux.HandleFunc("GET /api/v1/product/single", h.GetProduct)
	mux.HandleFunc("PUT /api/v1/product", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/v1/product", h.DeleteProduct)
}

type productRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=255"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Inventory   int     `json:"inventory" validate:"gte=0"`
	Brand       string  `json:"brand" validate:"omitempty,max=255"`
	Category    string  `json:"category" validate:"required"`
}

var validate = validator.New()

// ============================================================================
// Handlers
// ============================================================================

// CreateProduct 创建商品（管理员）
//
// multipart 表单：字段 + images 文件（1..15 张）。分类按名称解析，
// 不存在则拒绝。卖家记录为调用方。
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	req, files, err := decodeProduct(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid product payload: "+err.Error())
		return
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "at least one product image is required")
		return
	}
	if len(files) > model.MaxProductImages {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d product images are allowed", model.MaxProductImages))
		return
	}

	category, err := h.store.GetCategoryByName(r.Context(), strings.ToUpper(req.Category))
	if err != nil {
		log.Printf("[product] GetCategoryByName error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve category")
		return
	}
	if category == nil {
		writeError(w, http.StatusBadRequest, "category does not exist")
		return
	}

	urls, err := h.uploadImages(r.Context(), files)
	if err != nil {
		log.Printf("[product] upload images error: %v", err)
		writeError(w, http.StatusBadRequest, "failed to upload product images")
		return
	}

	now := time.Now()
	product := &model.Product{
		ID:          generateID("prd"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Inventory:   req.Inventory,
		Brand:       req.Brand,
		Images:      urls,
		CategoryID:  category.ID,
		SellerID:    authUser.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateProduct(r.Context(), product); err != nil {
		log.Printf("[product] CreateProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	log.Printf("[product] Product created: %s (%s) by %s", product.Name, product.ID, authUser.ID)
	writeJSON(w, http.StatusCreated, product)
}

// SearchProducts 按名称模糊搜索商品（公开，至多 5 条摘要）
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	products, err := h.store.SearchProducts(r.Context(), name)
	if err != nil {
		log.Printf("[product] SearchProducts error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to search products")
		return
	}
	if products == nil {
		products = []*model.ProductSummary{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// GetProduct 查看单个商品（公开），附带解析后的分类名
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		log.Printf("[product] GetProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	// 分类可能已被删除，留空即可
	categoryName := ""
	if category, err := h.store.GetCategory(r.Context(), product.CategoryID); err == nil && category != nil {
		categoryName = category.Name
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":  product,
		"category": categoryName,
	})
}

// UpdateProduct 更新商品（管理员）
//
// 新上传的图片追加到已有列表，总数不得超过上限。
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		log.Printf("[product] GetProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	req, files, err := decodeProductUpdate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(product.Images)+len(files) > model.MaxProductImages {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("at most %d product images are allowed", model.MaxProductImages))
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			writeError(w, http.StatusBadRequest, "price must be positive")
			return
		}
		product.Price = *req.Price
	}
	if req.Inventory != nil {
		if *req.Inventory < 0 {
			writeError(w, http.StatusBadRequest, "inventory must not be negative")
			return
		}
		product.Inventory = *req.Inventory
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Category != nil {
		category, err := h.store.GetCategoryByName(r.Context(), strings.ToUpper(*req.Category))
		if err != nil {
			log.Printf("[product] GetCategoryByName error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to resolve category")
			return
		}
		if category == nil {
			writeError(w, http.StatusBadRequest, "category does not exist")
			return
		}
		product.CategoryID = category.ID
	}

	if len(files) > 0 {
		urls, err := h.uploadImages(r.Context(), files)
		if err != nil {
			log.Printf("[product] upload images error: %v", err)
			writeError(w, http.StatusBadRequest, "failed to upload product images")
			return
		}
		product.Images = append(product.Images, urls...)
	}
	product.UpdatedAt = time.Now()

	if err := h.store.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("[product] UpdateProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct 删除商品（管理员）
//
// 不级联：购物车与历史订单中的引用保持原样。
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		log.Printf("[product] DeleteProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	log.Printf("[product] Product deleted: %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ============================================================================
// 请求解析与上传
// ============================================================================

// uploadImages 逐张上传，任一失败整体中止
func (h *Handler) uploadImages(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if h.images == nil {
		return nil, errors.New("image store is not configured")
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.images.UploadMultipart(ctx, fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func decodeProduct(r *http.Request) (*productRequest, []*multipart.FileHeader, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		req := &productRequest{
			Name:        r.FormValue("name"),
			Description: r.FormValue("description"),
			Brand:       r.FormValue("brand"),
			Category:    r.FormValue("category"),
		}
		if v := r.FormValue("price"); v != "" {
			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, errors.New("invalid price")
			}
			req.Price = price
		}
		if v := r.FormValue("inventory"); v != "" {
			inv, err := strconv.Atoi(v)
			if err != nil {
				return nil, nil, errors.New("invalid inventory")
			}
			req.Inventory = inv
		}
		return req, r.MultipartForm.File["images"], nil
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return &req, nil, nil
}

type productUpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Inventory   *int     `json:"inventory,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Category    *string  `json:"category,omitempty"`
}

func decodeProductUpdate(r *http.Request) (*productUpdateRequest, []*multipart.FileHeader, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/") {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		req := &productUpdateRequest{}
		if v := r.FormValue("name"); v != "" {
			req.Name = &v
		}
		if v := r.FormValue("description"); v != "" {
			req.Description = &v
		}
		if v := r.FormValue("brand"); v != "" {
			req.Brand = &v
		}
		if v := r.FormValue("category"); v != "" {
			req.Category = &v
		}
		if v := r.FormValue("price"); v != "" {
			price, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, errors.New("invalid price")
			}
			req.Price = &price
		}
		if v := r.FormValue("inventory"); v != "" {
			inv, err := strconv.Atoi(v)
			if err != nil {
				return nil, nil, errors.New("invalid inventory")
			}
			req.Inventory = &inv
		}
		return req, r.MultipartForm.File["images"], nil
	}

	var req productUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return &req, nil, nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func generateID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
