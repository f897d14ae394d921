// Package cart 购物车 Handler 单元测试
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
)

// ============================================================================
// Mock Storage - 复刻存储层的原子加购语义
// ============================================================================

type mockStore struct {
	carts    map[string]*model.Cart // key: userID
	products map[string]*model.Product
}

func newMockStore() *mockStore {
	return &mockStore{
		carts:    make(map[string]*model.Cart),
		products: make(map[string]*model.Product),
	}
}

func (m *mockStore) GetCartByUser(ctx context.Context, userID string) (*model.Cart, error) {
	return m.carts[userID], nil
}

// IncrementCartItem 条目存在时累加并返回购物车，否则返回 (nil, nil)
func (m *mockStore) IncrementCartItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	cart := m.carts[userID]
	if cart == nil {
		return nil, nil
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			return cart, nil
		}
	}
	return nil, nil
}

func (m *mockStore) PushCartItem(ctx context.Context, userID string, item model.CartItem) (*model.Cart, error) {
	cart := m.carts[userID]
	if cart == nil {
		return nil, nil
	}
	cart.Items = append(cart.Items, item)
	return cart, nil
}

func (m *mockStore) PullCartItem(ctx context.Context, userID, productID string) (*model.Cart, error) {
	cart := m.carts[userID]
	if cart == nil {
		return nil, nil
	}
	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	cart.Items = kept
	return cart, nil
}

func (m *mockStore) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return m.products[id], nil
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

var asUser = &auth.AuthUser{ID: "usr-1", Role: model.UserRoleUser}

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
	store.carts["usr-1"] = &model.Cart{ID: "crt-1", UserID: "usr-1", Items: []model.CartItem{}}
	store.products["prd-1"] = &model.Product{ID: "prd-1", Name: "AirMax", Price: 129.99}
	store.products["prd-2"] = &model.Product{ID: "prd-2", Name: "Boot", Price: 89.99}
}

// ============================================================================
// 加购
// ============================================================================

func TestAddItemNewProduct(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	w := doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1", "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	cart := store.carts["usr-1"]
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Errorf("expected one item with quantity 2, got %+v", cart.Items)
	}
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1", "quantity": 2})
	doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1", "quantity": 3})

	cart := store.carts["usr-1"]
	if len(cart.Items) != 1 {
		t.Fatalf("duplicate add must not create a second line, got %d items", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("expected accumulated quantity 5, got %d", cart.Items[0].Quantity)
	}
}

func TestAddItemDefaultQuantity(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1"})
	if q := store.carts["usr-1"].Items[0].Quantity; q != 1 {
		t.Errorf("quantity should default to 1, got %d", q)
	}
}

func TestAddItemValidation(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	if w := doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"quantity": 1}); w.Code != http.StatusBadRequest {
		t.Errorf("missing product_id should be 400, got %d", w.Code)
	}
	if w := doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1", "quantity": -2}); w.Code != http.StatusBadRequest {
		t.Errorf("negative quantity should be 400, got %d", w.Code)
	}
	if w := doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "ghost"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown product should be 404, got %d", w.Code)
	}
}

// ============================================================================
// 移除
// ============================================================================

func TestRemoveItem(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)
	doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-1", "quantity": 2})
	doAs(mux, asUser, "PUT", "/api/v1/cart", map[string]interface{}{"product_id": "prd-2"})

	w := doAs(mux, asUser, "PUT", "/api/v1/cart/remove", map[string]interface{}{"product_id": "prd-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	cart := store.carts["usr-1"]
	if len(cart.Items) != 1 || cart.Items[0].ProductID != "prd-2" {
		t.Errorf("expected only prd-2 remaining, got %+v", cart.Items)
	}
}

func TestRemoveItemNotInCart(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	w := doAs(mux, asUser, "PUT", "/api/v1/cart/remove", map[string]interface{}{"product_id": "prd-1"})
	if w.Code != http.StatusNotFound {
		t.Errorf("removing a product not in cart should be 404, got %d", w.Code)
	}
}

func TestRemoveItemUnknownProduct(t *testing.T) {
	store := newMockStore()
	seed(store)
	// 条目指向已下架商品
	store.carts["usr-1"].Items = []model.CartItem{
		{ProductID: "prd-gone", Quantity: 1, AddedAt: time.Now()},
	}
	mux := newTestMux(store)

	w := doAs(mux, asUser, "PUT", "/api/v1/cart/remove", map[string]interface{}{"product_id": "prd-gone"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("removing an unknown product should be 404, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.carts["usr-1"].Items) != 1 {
		t.Errorf("stale line should remain in stored cart, got %+v", store.carts["usr-1"].Items)
	}
}

// ============================================================================
// 查看
// ============================================================================

func TestGetCartResolvesProducts(t *testing.T) {
	store := newMockStore()
	seed(store)
	store.carts["usr-1"].Items = []model.CartItem{
		{ProductID: "prd-1", Quantity: 2, AddedAt: time.Now()},
	}
	mux := newTestMux(store)

	w := doAs(mux, asUser, "GET", "/api/v1/cart", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		ID    string                   `json:"id"`
		Items []model.ResolvedCartItem `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Items) != 1 {
		t.Fatalf("expected 1 resolved item, got %d", len(resp.Items))
	}
	it := resp.Items[0]
	if it.Product.Name != "AirMax" || it.Product.Price != 129.99 || it.Quantity != 2 {
		t.Errorf("item not resolved with product details: %+v", it)
	}
}

// 商品被删除后其条目从视图中剔除，购物车文档本身不变
func TestGetCartSkipsDeletedProducts(t *testing.T) {
	store := newMockStore()
	seed(store)
	store.carts["usr-1"].Items = []model.CartItem{
		{ProductID: "prd-1", Quantity: 1},
		{ProductID: "prd-gone", Quantity: 3},
	}
	mux := newTestMux(store)

	w := doAs(mux, asUser, "GET", "/api/v1/cart", nil)
	var resp struct {
		Items []model.ResolvedCartItem `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Items) != 1 {
		t.Errorf("deleted product should be skipped in the view, got %d items", len(resp.Items))
	}
	if len(store.carts["usr-1"].Items) != 2 {
		t.Error("the stored cart document must keep the stale line")
	}
}

func TestGetCartEmpty(t *testing.T) {
	store := newMockStore()
	seed(store)
	mux := newTestMux(store)

	w := doAs(mux, asUser, "GET", "/api/v1/cart", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Items []model.ResolvedCartItem `json:"items"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Items == nil || len(resp.Items) != 0 {
		t.Errorf("empty cart should render as empty array, got %+v", resp.Items)
	}
}
