// Package user 用户领域 - 个人资料与管理端用户管理
package user

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"
)

// Store 用户领域存储接口
type Store interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]*model.UserSummary, error)
	DeleteCartByUser(ctx context.Context, userID string) error
}

// ImageStore 头像上传接口
type ImageStore interface {
	UploadMultipart(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Handler 用户领域 HTTP 处理器
type Handler struct {
	store  Store
	images ImageStore
}

// NewHandler 创建用户处理器
func NewHandler(store Store, images ImageStore) *Handler {
	return &Handler{store: store, images: images}
}

// RegisterRoutes 注册用户相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/user", h.ListCustomers)
	mux.HandleFunc("GET /api/v1/user/single", h.GetUser)
	mux.HandleFunc("DELETE /api/v1/user", h.DeleteUser)
	mux.HandleFunc("GET /api/v1/user/profile", h.GetProfile)
	mux.HandleFunc("PUT /api/v1/user/profile", h.UpdateProfile)
	mux.HandleFunc("DELETE /api/v1/user/profile", h.DeleteProfile)
}

// ============================================================================
// 管理端
// ============================================================================

// ListCustomers 管理员查看用户列表（仅 role=user，摘要投影，至多 20 条）
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	users, err := h.store.ListCustomers(r.Context())
	if err != nil {
		log.Printf("[user] ListCustomers error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// GetUser 管理员按 ID 查看单个用户
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), userID)
	if err != nil {
		log.Printf("[user] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// DeleteUser 管理员删除用户，购物车随用户一并删除
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())
	if !authUser.IsAdmin() {
		writeError(w, http.StatusUnauthorized, "not authorized for this request")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.deleteUserAndCart(r.Context(), userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] DeleteUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	log.Printf("[user] User deleted by admin: %s", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ============================================================================
// 个人资料（作用域限定为调用方自身，无需管理员角色）
// ============================================================================

// GetProfile 查看本人资料
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[user] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile 更新本人资料
//
// email/password/role 不在此处变更；头像为可选 multipart 文件。
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	user, err := h.store.GetUserByID(r.Context(), authUser.ID)
	if err != nil {
		log.Printf("[user] GetUserByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	req, picture, err := decodeProfileUpdate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.Contact != nil {
		user.Contact = *req.Contact
	}
	if req.Gender != nil {
		user.Gender = model.Gender(*req.Gender)
	}
	if picture != nil && h.images != nil {
		url, err := h.images.UploadMultipart(r.Context(), picture)
		if err != nil {
			log.Printf("[user] upload profile picture error: %v", err)
			writeError(w, http.StatusBadRequest, "failed to upload profile picture")
			return
		}
		user.ProfilePics = url
	}

	if err := h.store.UpdateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] UpdateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// DeleteProfile 注销本人账号，购物车一并删除
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	authUser := auth.GetAuthUser(r.Context())

	if err := h.deleteUserAndCart(r.Context(), authUser.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Printf("[user] DeleteProfile error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}

	log.Printf("[user] User deleted own account: %s", authUser.ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// deleteUserAndCart 删除用户及其购物车
// 购物车不独立于用户存在，用户删除后留下的购物车只是垃圾数据
func (h *Handler) deleteUserAndCart(ctx context.Context, userID string) error {
	if err := h.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := h.store.DeleteCartByUser(ctx, userID); err != nil {
		log.Printf("[user] DeleteCartByUser error (user %s already deleted): %v", userID, err)
	}
	return nil
}

// ============================================================================
// 请求解析与工具函数
// ============================================================================

type profileUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Contact *string `json:"contact,omitempty"`
	Gender  *string `json:"gender,omitempty"`
}

func decodeProfileUpdate(r *http.Request) (*profileUpdateRequest, *multipart.FileHeader, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		req := &profileUpdateRequest{}
		if v := r.FormValue("name"); v != "" {
			req.Name = &v
		}
		if v := r.FormValue("address"); v != "" {
			req.Address = &v
		}
		if v := r.FormValue("contact"); v != "" {
			req.Contact = &v
		}
		if v := r.FormValue("gender"); v != "" {
			req.Gender = &v
		}
		var picture *multipart.FileHeader
		if files := r.MultipartForm.File["profilePics"]; len(files) > 0 {
			picture = files[0]
		}
		return req, picture, nil
	}

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, errors.New("invalid request body")
	}
	return &req, nil, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
