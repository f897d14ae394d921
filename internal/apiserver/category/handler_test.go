// Package category 分类 Handler 单元测试
package category

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// ============================================================================
// Mock Storage - 名称唯一约束在内存中复刻
// ============================================================================

type mockStore struct {
	categories map[string]*model.Category
}

func newMockStore() *mockStore {
	return &mockStore{categories: make(map[string]*model.Category)}
}

func (m *mockStore) CreateCategory(ctx context.Context, c *model.Category) error {
	for _, existing := range m.categories {
		if existing.Name == c.Name {
			return storage.ErrDuplicate
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return m.categories[id], nil
}

func (m *mockStore) UpdateCategory(ctx context.Context, c *model.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return storage.ErrNotFound
	}
	for id, existing := range m.categories {
		if id != c.ID && existing.Name == c.Name {
			return storage.ErrDuplicate
		}
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockStore) DeleteCategory(ctx context.Context, id string) error {
	if _, ok := m.categories[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockStore) SearchCategories(ctx context.Context, pattern string) ([]*model.Category, error) {
	var out []*model.Category
	for _, c := range m.categories {
		if pattern == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(pattern)) {
			out = append(out, c)
		}
	}
	return out, nil
}

var (
	asAdmin = &auth.AuthUser{ID: "admin-1", Role: model.UserRoleAdmin}
	asUser  = &auth.AuthUser{ID: "usr-1", Role: model.UserRoleUser}
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

// ============================================================================
// 测试
// ============================================================================

func TestCreateCategoryUppercasesName(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store)

	w := doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "electronics"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created model.Category
	json.Unmarshal(w.Body.Bytes(), &created)
	if created.Name != "ELECTRONICS" {
		t.Errorf("category name should be uppercased, got %q", created.Name)
	}
}

func TestCreateCategoryAdminOnly(t *testing.T) {
	mux := newTestMux(newMockStore())

	w := doAs(mux, asUser, "POST", "/api/v1/category", map[string]string{"name": "toys"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("non-admin create should be rejected, got %d", w.Code)
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store)

	doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "books"})
	// 大小写不同仍撞同一个大写名
	w := doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "BOOKS"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate category should be 409, got %d", w.Code)
	}
}

func TestSearchCategories(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store)
	doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "electronics"})
	doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "electric tools"})
	doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "books"})

	w := doAs(mux, asUser, "GET", "/api/v1/category?name=electr", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Categories []*model.Category `json:"categories"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Categories) != 2 {
		t.Errorf("expected 2 matches, got %d", len(resp.Categories))
	}

	// 空查询返回全部
	w = doAs(mux, asUser, "GET", "/api/v1/category", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Categories) != 3 {
		t.Errorf("empty query should return all, got %d", len(resp.Categories))
	}
}

func TestUpdateCategory(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store)
	w := doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "books"})
	var created model.Category
	json.Unmarshal(w.Body.Bytes(), &created)

	w = doAs(mux, asAdmin, "PUT", "/api/v1/category?id="+created.ID,
		map[string]string{"name": "used books", "description": "second hand"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if store.categories[created.ID].Name != "USED BOOKS" {
		t.Errorf("updated name should be uppercased, got %q", store.categories[created.ID].Name)
	}

	if w := doAs(mux, asAdmin, "PUT", "/api/v1/category?id=ghost", map[string]string{"name": "x y"}); w.Code != http.StatusNotFound {
		t.Errorf("updating missing category should be 404, got %d", w.Code)
	}
	if w := doAs(mux, asAdmin, "PUT", "/api/v1/category", map[string]string{"name": "x y"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing id should be 400, got %d", w.Code)
	}
}

func TestDeleteCategory(t *testing.T) {
	store := newMockStore()
	mux := newTestMux(store)
	w := doAs(mux, asAdmin, "POST", "/api/v1/category", map[string]string{"name": "books"})
	var created model.Category
	json.Unmarshal(w.Body.Bytes(), &created)

	if w := doAs(mux, asUser, "DELETE", "/api/v1/category?id="+created.ID, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("non-admin delete should be rejected, got %d", w.Code)
	}

	if w := doAs(mux, asAdmin, "DELETE", "/api/v1/category?id="+created.ID, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if len(store.categories) != 0 {
		t.Error("category not deleted")
	}
	if w := doAs(mux, asAdmin, "DELETE", "/api/v1/category?id="+created.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("deleting missing category should be 404, got %d", w.Code)
	}
}
