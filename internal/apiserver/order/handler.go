// Package order 订单：下单、查看、取消、状态更新
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Store 订单领域存储接口
type Store interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByUser(ctx context.Context, userID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
	GetCartByUser(ctx context.Context, userID string) (*model.Cart, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*model.Product, error)
}

// Handler 订单 HTTP 处理器
type Handler struct {
	store Store
}

// NewHandler 创建订单处理器
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册订单相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/order", h.CreateOrder)
	mux.HandleFunc("GET /api/v1/order", h.GetOrder)
	mux.HandleFunc("PUT /api/v1/order", h.UpdateOrderStatus)
	mux.HandleFunc("DELETE /api/v1/order", h.CancelOrder)
}

type createOrderRequest struct {
	Payment string `json:"payment"`
}

type updateOrderRequest struct {
	Status string `json:"status"`
}

// orderView 面向用户的订单视图，隐去内部簿记字段
type orderView struct {
	ID          string            `json:"id"`
	Items       []model.OrderItem `json:"items"`
	Payment     string            `json:"payment"`
	Status      string            `json:"status"`
	TotalAmount float64           `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
}

func toView(o *model.Order) orderView {
	return orderView{
		ID:          o.ID,
		Items:       o.Items,
		Payment:     string(o.Payment),
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
}

// ============================================================================
// Handlers
// ============================================================================

// CreateOrder 基于当前购物车下单
//
// 条目单价在此刻冻结为商品当前价格；任一商品已不存在则整体失败。
// 下单不清空购物车。
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	var req createOrderRequest
	if r.Body != nil {
		// 请求体可为空，支付方式缺省 Cash
		json.NewDecoder(r.Body).Decode(&req)
	}
	payment := model.PaymentCash
	if req.Payment != "" {
		payment = model.PaymentMethod(req.Payment)
		if !model.ValidPaymentMethod(payment) {
			writeError(w, http.StatusBadRequest, "invalid payment method")
			return
		}
	}

	cart, err := h.store.GetCartByUser(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[order] GetCartByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get cart")
		return
	}
	if cart == nil {
		writeError(w, http.StatusNotFound, "cart not found")
		return
	}
	if len(cart.Items) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	ids := make([]string, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.store.GetProductsByIDs(r.Context(), ids)
	if err != nil {
		log.Printf("[order] GetProductsByIDs error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to resolve products")
		return
	}
	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := byID[it.ProductID]
		if !ok {
			writeError(w, http.StatusNotFound, "product no longer available: "+it.ProductID)
			return
		}
		items = append(items, model.OrderItem{
			ProductID:  p.ID,
			Quantity:   it.Quantity,
			OrderPrice: p.Price, // 冻结下单时刻的单价
		})
	}

	now := time.Now()
	order := &model.Order{
		ID:        generateID("ord"),
		UserID:    authUser.ID,
		Items:     items,
		Payment:   payment,
		Status:    model.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.TotalAmount = order.Total()

	if err := h.store.CreateOrder(r.Context(), order); err != nil {
		log.Printf("[order] CreateOrder error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	log.Printf("[order] Order created: %s user=%s total=%.2f", order.ID, authUser.ID, order.TotalAmount)
	writeJSON(w, http.StatusCreated, toView(order))
}

// GetOrder 查看本人订单
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	order, err := h.store.GetOrderByUser(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[order] GetOrderByUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, toView(order))
}

// UpdateOrderStatus 更新订单状态（管理员）
//
// 仅校验取值合法性，不校验流转方向，提交值原样落库。
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	var req updateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := model.OrderStatus(req.Status)
	if !model.ValidOrderStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	if err := h.store.UpdateOrderStatus(r.Context(), orderID, status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("[order] UpdateOrderStatus error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	log.Printf("[order] Order %s status set to %s by %s", orderID, status, authUser.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "updated"})
}

// CancelOrder 取消订单
//
// 取消即物理删除，订单不保留取消记录。仅本人或管理员可取消。
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("[order] GetOrder error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if order.UserID != authUser.ID && !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	if err := h.store.DeleteOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Printf("[order] DeleteOrder error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}

	log.Printf("[order] Order cancelled: %s by %s", orderID, authUser.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "cancelled"})
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
