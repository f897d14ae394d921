// Package cart 购物车：加购、移除、查看
//
// 所有操作作用域限定为调用方自己的购物车。加购/移除依赖存储层的
// 原子更新（$inc/$push/$pull），并发请求不会丢失数量。
package cart

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
)

// Store 购物车领域存储接口
type Store interface {
	GetCartByUser(ctx context.Context, userID string) (*model.Cart, error)
	IncrementCartItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error)
	PushCartItem(ctx context.Context, userID string, item model.CartItem) (*model.Cart, error)
	PullCartItem(ctx context.Context, userID, productID string) (*model.Cart, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*model.Product, error)
}

// Handler 购物车 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建购物车处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册购物车相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/cart", h.GetCart)
	mux.HandleFunc("PUT /api/v1/cart", h.AddItem)
	mux.HandleFunc("PUT /api/v1/cart/remove", h.RemoveItem)
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem 加购
//
// 商品已在购物车中则累加数量，否则追加新条目。quantity 缺省为 1。
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}

	product, err := h.store.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		log.Printf("[cart] GetProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	// 先尝试累加已有条目，未命中再追加
	cart, err := h.store.IncrementCartItem(r.Context(), authUser.ID, req.ProductID, req.Quantity)
	if err != nil {
		log.Printf("[cart] IncrementCartItem error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}
	if cart == nil {
		item := model.CartItem{ProductID: req.ProductID, Quantity: req.Quantity, AddedAt: time.Now()}
		cart, err = h.store.PushCartItem(r.Context(), authUser.ID, item)
		if err != nil {
			log.Printf("[cart] PushCartItem error: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to update cart")
			return
		}
		if cart == nil {
			writeError(w, http.StatusNotFound, "cart not found")
			return
		}
	}

	writeJSON(w, http.StatusOK, cart)
}

// RemoveItem 从购物车整行移除商品
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	product, err := h.store.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		log.Printf("[cart] GetProduct error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	cart, err := h.store.GetCartByUser(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[cart] GetCartByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}
	if cart == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}
	if !hasItem(cart, req.ProductID) {
		writeError(w, http.StatusNotFound, "product not in cart")
		return
	}

	cart, err = h.store.PullCartItem(r.Context(), authUser.ID, req.ProductID)
	if err != nil {
		log.Printf("[cart] PullCartItem error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	writeJSON(w, http.StatusOK, cart)
}

// GetCart 查看购物车，条目附带商品详情
//
// 商品已被删除的条目从视图中剔除，但仍留在购物车文档里。
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	cart, err := h.store.GetCartByUser(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[cart] GetCartByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}
	if cart == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}

	resolved, err := h.resolveItems(r.Context(), cart.Items)
	if err != nil {
		log.Printf("[cart] resolve items error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve cart items")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":    cart.ID,
		"items": resolved,
	})
}

// resolveItems 批量解析条目对应的商品
func (h *Handler) resolveItems(ctx context.Context, items []model.CartItem) ([]model.ResolvedCartItem, error) {
	resolved := []model.ResolvedCartItem{}
	if len(items) == 0 {
		return resolved, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue // 商品已下架
		}
		resolved = append(resolved, model.ResolvedCartItem{
			Product: model.CartProduct{
				ID:     p.ID,
				Name:   p.Name,
				Price:  p.Price,
				Images: p.Images,
			},
			Quantity: it.Quantity,
			AddedAt:  it.AddedAt,
		})
	}
	return resolved, nil
}

func hasItem(cart *model.Cart, productID string) bool {
	for _, it := range cart.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
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
