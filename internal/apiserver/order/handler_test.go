// Package order 订单 Handler 单元测试
package order

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
)

// ============================================================================
// Mock Storage
// ============================================================================

type mockStore struct {
	orders   map[string]*model.Order
	carts    map[string]*model.Cart // key: userID
	products map[string]*model.Product
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:   make(map[string]*model.Order),
		carts:    make(map[string]*model.Cart),
		products: make(map[string]*model.Product),
	}
}

func (m *mockStore) CreateOrder(ctx context.Context, o *model.Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockStore) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return m.orders[id], nil
}

func (m *mockStore) GetOrderByUser(ctx context.Context, userID string) (*model.Order, error) {
	for _, o := range m.orders {
		if o.UserID == userID {
			return o, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return nil
	}
	o.Status = status
	return nil
}

func (m *mockStore) DeleteOrder(ctx context.Context, id string) error {
	delete(m.orders, id)
	return nil
}

func (m *mockStore) GetCartByUser(ctx context.Context, userID string) (*model.Cart, error) {
	return m.carts[userID], nil
}

func (m *mockStore) GetProductsByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	var out []*model.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var (
	asAdmin = &auth.AuthUser{ID: "admin-1", Role: model.UserRoleAdmin}
	asUser  = &auth.AuthUser{ID: "usr-1", Role: model.UserRoleUser}
	asOther = &auth.AuthUser{ID: "usr-2", Role: model.UserRoleUser}
)

func newTestMux(store Store) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux)
	return mux
}

func doAs(mux *http.ServeMux, user *auth.AuthUser, method, target string, payload interface{}) *httptest.ResponseRecorder {
	var body []byte
	if payload != nil {
		body, _ = json.Marshal(payload)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(auth.WithAuthUser(req.Context(), user))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func seed(store *mockStore) {
	store.products["prd-1"] = &model.Product{ID: "prd-1", Name: "AirMax", Price: 100}
	store.products["prd-2"] = &model.Product{ID: "prd-2", Name: "Boot", Price: 50}
	store.carts["usr-1"] = &model.Cart{
		ID: "crt-1", UserID: "usr-1",
		Items: []model.CartItem{
			{ProductID: "prd-1", Quantity: 2},
			{ProductID: "prd-2", Quantity: 1},
		},
	}
}

// ============================================================================
// 下单
// ============================================================================

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	w := doAs(mux, asUser, "POST", "/api/v1/order", map[string]string{"payment": "Card"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp orderView
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "pending" {
		t.Errorf("new order should be pending, got %q", resp.Status)
	}
	if resp.Payment != "Card" {
		t.Errorf("expected payment Card, got %q", resp.Payment)
	}
	if resp.TotalAmount != 250 { // 2*100 + 1*50
		t.Errorf("expected total 250, got %v", resp.TotalAmount)
	}

	// 之后调价不影响已生成订单
	store.products["prd-1"].Price = 999
	stored := store.orders[resp.ID]
	if stored.Items[0].OrderPrice != 100 {
		t.Errorf("order price must be frozen at order time, got %v", stored.Items[0].OrderPrice)
	}
}

func TestCreateOrderDefaultPayment(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	w := doAs(mux, asUser, "POST", "/api/v1/order", map[string]string{})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var resp orderView
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Payment != "Cash" {
		t.Errorf("payment should default to Cash, got %q", resp.Payment)
	}
}

func TestCreateOrderInvalidPayment(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	if w := doAs(mux, asUser, "POST", "/api/v1/order", map[string]string{"payment": "Bitcoin"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid payment should be 400, got %d", w.Code)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	store := newMockStore()
	store.carts["usr-1"] = &model.Cart{ID: "crt-1", UserID: "usr-1", Items: []model.CartItem{}}
	mux := newTestMux(store)

	if w := doAs(mux, asUser, "POST", "/api/v1/order", nil); w.Code != http.StatusBadRequest {
		t.Errorf("empty cart should be 400, got %d", w.Code)
	}
}

func TestCreateOrderMissingProductFails(t *testing.T) {
	store := newMockStore()
	seed(store)
	delete(store.products, "prd-2")
	mux := newTestMux(store)

	if w := doAs(mux, asUser, "POST", "/api/v1/order", nil); w.Code != http.StatusNotFound {
		t.Errorf("order with a vanished product should fail entirely, got %d", w.Code)
	}
	if len(store.orders) != 0 {
		t.Error("no order must be created when a product is missing")
	}
}

func TestCreateOrderKeepsCart(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	doAs(mux, asUser, "POST", "/api/v1/order", nil)
	if len(store.carts["usr-1"].Items) != 2 {
		t.Error("placing an order must not clear the cart")
	}
}

// ============================================================================
// 查看 / 更新 / 取消
// ============================================================================

func TestGetOrderOwnOnly(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)
	doAs(mux, asUser, "POST", "/api/v1/order", nil)

	w := doAs(mux, asUser, "GET", "/api/v1/order", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	// 响应不暴露归属用户和内部更新时间，但保留 id 供取消接口使用
	if bytes.Contains(w.Body.Bytes(), []byte("user_id")) {
		t.Errorf("order view should not expose user_id: %s", w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("updated_at")) {
		t.Errorf("order view should not expose updated_at: %s", w.Body.String())
	}
	var view orderView
	json.Unmarshal(w.Body.Bytes(), &view)
	if view.ID == "" {
		t.Errorf("order view should keep id: %s", w.Body.String())
	}

	if w := doAs(mux, asOther, "GET", "/api/v1/order", nil); w.Code != http.StatusNotFound {
		t.Errorf("user with no order should get 404, got %d", w.Code)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)
	w := doAs(mux, asUser, "POST", "/api/v1/order", nil)
	var created orderView
	json.Unmarshal(w.Body.Bytes(), &created)

	if w := doAs(mux, asUser, "PUT", "/api/v1/order?orderId="+created.ID, map[string]string{"status": "paid"}); w.Code != http.StatusUnauthorized {
		t.Errorf("non-admin status update should be rejected, got %d", w.Code)
	}
	if w := doAs(mux, asAdmin, "PUT", "/api/v1/order?orderId="+created.ID, map[string]string{"status": "teleported"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown status should be 400, got %d", w.Code)
	}

	w = doAs(mux, asAdmin, "PUT", "/api/v1/order?orderId="+created.ID, map[string]string{"status": "shipped"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.orders[created.ID].Status != model.OrderStatusShipped {
		t.Errorf("status not persisted, got %s", store.orders[created.ID].Status)
	}
}

func TestCancelOrderHardDeletes(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)
	w := doAs(mux, asUser, "POST", "/api/v1/order", nil)
	var created orderView
	json.Unmarshal(w.Body.Bytes(), &created)

	// 其他用户不能取消别人的订单
	if w := doAs(mux, asOther, "DELETE", "/api/v1/order?orderId="+created.ID, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("cancel by another user should be rejected, got %d", w.Code)
	}

	if w := doAs(mux, asUser, "DELETE", "/api/v1/order?orderId="+created.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if _, ok := store.orders[created.ID]; ok {
		t.Error("cancel must remove the order document entirely")
	}
	if w := doAs(mux, asUser, "DELETE", "/api/v1/order?orderId="+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("cancelling a cancelled order should be 404, got %d", w.Code)
	}
}
