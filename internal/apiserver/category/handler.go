// Package category 商品分类管理
//
// 分类名全大写存储且唯一；所有写操作要求管理员角色。
package category

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"

	"github.com/go-playground/validator/v10"
)

// Store 分类领域存储接口
type Store interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	SearchCategories(ctx context.Context, namePattern string) ([]*model.Category, error)
}

// Handler 分类 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建分类处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册分类相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/category", h.CreateCategory)
	mux.HandleFunc("GET /api/v1/category", h.SearchCategories)
	mux.HandleFunc("PUT /api/v1/category", h.UpdateCategory)
	mux.HandleFunc("DELETE /api/v1/category", h.DeleteCategory)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"omitempty,max=1024"`
}

var validate = validator.New()

// CreateCategory 创建分类（管理员）
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid category payload: "+err.Error())
		return
	}

	now := time.Now()
	category := &model.Category{
		ID:          generateID("cat"),
		Name:        strings.ToUpper(req.Name),
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		log.Printf("[category] CreateCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	log.Printf("[category] Category created: %s (%s)", category.Name, category.ID)
	writeJSON(w, http.StatusCreated, category)
}

// SearchCategories 按名称模糊查询分类，空查询返回全部
func (h *Handler) SearchCategories(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	categories, err := h.store.SearchCategories(r.Context(), name)
	if err != nil {
		log.Printf("[category] SearchCategories error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to search categories")
		return
	}
	if categories == nil {
		categories = []*model.Category{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// UpdateCategory 更新分类（管理员），名称仍统一为大写
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
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

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid category payload: "+err.Error())
		return
	}

	category, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		log.Printf("[category] GetCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	if category == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	category.Name = strings.ToUpper(req.Name)
	category.Description = req.Description
	category.UpdatedAt = time.Now()

	if err := h.store.UpdateCategory(r.Context(), category); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("[category] UpdateCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory 删除分类（管理员）
//
// 不级联：引用该分类的商品保留悬空 category_id。
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
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

	if err := h.store.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		log.Printf("[category] DeleteCategory error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}

	log.Printf("[category] Category deleted: %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
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
