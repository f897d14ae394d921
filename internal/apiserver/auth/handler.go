package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"shop-api/internal/shared/model"
	"shop-api/internal/shared/storage"

	"github.com/go-playground/validator/v10"
)

// Store 认证所需的存储接口
type Store interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateCart(ctx context.Context, cart *model.Cart) error
}

// ImageStore 头像上传接口
type ImageStore interface {
	UploadMultipart(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store  Store
	images ImageStore
	cfg    Config
}

// NewHandler 创建认证处理器，images 可为 nil（禁用头像上传）
func NewHandler(store Store, images ImageStore, cfg Config) *Handler {
	return &Handler{store: store, images: images, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/user/register", h.Register)
	mux.HandleFunc("POST /api/v1/user/login", h.Login)
	mux.HandleFunc("GET /api/v1/user/logout", h.Logout)
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Address  string `json:"address" validate:"omitempty,min=3,max=255"`
	Contact  string `json:"contact" validate:"required"`
	Gender   string `json:"gender" validate:"required,oneof=male female"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

var validate = validator.New()

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
//
// 系统中第一个注册的用户获得 admin 角色。注册成功会同时创建空购物车
// 并签发 24h 会话令牌（httpOnly Cookie + 响应体）。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, picture, err := decodeRegister(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration payload: "+err.Error())
		return
	}

	email := strings.ToLower(req.Email)

	existing, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	// 可选头像：同步上传，临时文件由上传器负责清理
	var profileURL string
	if picture != nil && h.images != nil {
		profileURL, err = h.images.UploadMultipart(r.Context(), picture)
		if err != nil {
			log.Printf("[auth.register] upload profile picture error: %v", err)
			writeError(w, http.StatusBadRequest, "failed to upload profile picture")
			return
		}
	}

	// 首个注册用户成为管理员
	count, err := h.store.CountUsers(r.Context())
	if err != nil {
		log.Printf("[auth.register] CountUsers error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	role := model.UserRoleUser
	if count == 0 {
		role = model.UserRoleAdmin
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateID("usr"),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Address:      req.Address,
		Contact:      req.Contact,
		Gender:       model.Gender(req.Gender),
		Role:         role,
		ProfilePics:  profileURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	// 每个用户从创建起必须有购物车
	cart := &model.Cart{ID: generateID("crt"), UserID: user.ID, Items: []model.CartItem{}}
	if err := h.store.CreateCart(r.Context(), cart); err != nil {
		log.Printf("[auth.register] CreateCart error: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create cart")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID, user.Email, user.Role)
	if err != nil {
		log.Printf("[auth.register] GenerateToken error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User registered: %s (%s) role=%s", user.Email, user.ID, user.Role)
	SetSessionCookie(w, token, h.cfg.TokenTTL)
	writeJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login 用户登录
//
// 未知邮箱与密码错误返回同一提示，避免账号探测。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(req.Email))
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusNotFound, "incorrect email or password")
		return
	}

	token, err := GenerateToken(h.cfg, user.ID, user.Email, user.Role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	log.Printf("[auth] User logged in: %s", user.Email)
	SetSessionCookie(w, token, h.cfg.TokenTTL)
	writeJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Logout 登出：仅让客户端 Cookie 过期，无服务端吊销
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// decodeRegister 解析注册请求
// multipart 表单携带可选头像文件，JSON 仅携带字段
func decodeRegister(r *http.Request) (*registerRequest, *multipart.FileHeader, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, errors.New("invalid multipart form")
		}
		req := &registerRequest{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			Address:  r.FormValue("address"),
			Contact:  r.FormValue("contact"),
			Gender:   r.FormValue("gender"),
		}
		var picture *multipart.FileHeader
		if files := r.MultipartForm.File["profilePics"]; len(files) > 0 {
			picture = files[0]
		}
		return req, picture, nil
	}

	var req registerRequest
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
