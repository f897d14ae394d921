// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
// 仍保留在本包的模块：
//   - metrics.go: Prometheus 指标
package server

import (
	"net/http"
	"time"

	"shop-api/internal/apiserver/auth"
	"shop-api/internal/apiserver/cart"
	"shop-api/internal/apiserver/category"
	"shop-api/internal/apiserver/order"
	"shop-api/internal/apiserver/product"
	"shop-api/internal/apiserver/user"
	"shop-api/internal/shared/objstore"
	"shop-api/internal/shared/storage"
	"shop-api/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到各领域包的处理函数
//   - 管理存储层与对象存储连接
type Handler struct {
	store   storage.Store   // MongoDB 存储层
	images  *objstore.Client // MinIO 对象存储（商品图/头像），可为 nil
	authCfg auth.Config
	metrics *Metrics
	logger  *logging.Logger
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.Store, images *objstore.Client, authCfg auth.Config) *Handler {
	return &Handler{
		store:   store,
		images:  images,
		authCfg: authCfg,
		metrics: NewMetrics("shop"),
		logger:  logging.Default("http"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health  - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 认证 (Auth，公开):
//   - POST /api/v1/user/register - 注册（首个用户成为管理员）
//   - POST /api/v1/user/login    - 登录
//   - GET  /api/v1/user/logout   - 登出
//
// 用户 (User):
//   - GET    /api/v1/user          - 顾客列表（管理员）
//   - GET    /api/v1/user/single   - 按 ID 查看用户（管理员）
//   - DELETE /api/v1/user          - 删除用户（管理员）
//   - GET    /api/v1/user/profile  - 查看本人资料
//   - PUT    /api/v1/user/profile  - 更新本人资料
//   - DELETE /api/v1/user/profile  - 注销本人账号
//
// 分类 (Category):
//   - POST   /api/v1/category - 创建（管理员）
//   - GET    /api/v1/category - 名称搜索
//   - PUT    /api/v1/category - 更新（管理员）
//   - DELETE /api/v1/category - 删除（管理员）
//
// 商品 (Product):
//   - POST   /api/v1/product        - 创建（管理员）
//   - GET    /api/v1/product        - 名称搜索（公开）
//   - GET    /api/v1/product/single - 查看单品（公开）
//   - PUT    /api/v1/product        - 更新（管理员）
//   - DELETE /api/v1/product        - 删除（管理员）
//
// 购物车 (Cart):
//   - GET /api/v1/cart        - 查看
//   - PUT /api/v1/cart        - 加购
//   - PUT /api/v1/cart/remove - 移除
//
// 订单 (Order):
//   - POST   /api/v1/order - 下单
//   - GET    /api/v1/order - 查看本人订单
//   - PUT    /api/v1/order - 状态更新（管理员）
//   - DELETE /api/v1/order - 取消
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// 认证接口（注册/登录/登出）
	var images auth.ImageStore
	if h.images != nil {
		images = h.images
	}
	authHandler := auth.NewHandler(h.store, images, h.authCfg)
	authHandler.RegisterRoutes(mux)

	// 用户接口
	var userImages user.ImageStore
	if h.images != nil {
		userImages = h.images
	}
	userHandler := user.NewHandler(h.store, userImages)
	userHandler.RegisterRoutes(mux)

	// 分类接口
	categoryHandler := category.NewHandler(h.store)
	categoryHandler.RegisterRoutes(mux)

	// 商品接口
	var productImages product.ImageStore
	if h.images != nil {
		productImages = h.images
	}
	productHandler := product.NewHandler(h.store, productImages)
	productHandler.RegisterRoutes(mux)

	// 购物车接口
	cartHandler := cart.NewHandler(h.store)
	cartHandler.RegisterRoutes(mux)

	// 订单接口
	orderHandler := order.NewHandler(h.store)
	orderHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用认证中间件
	authedHandler := auth.Middleware(h.authCfg)(apiHandler)

	// 请求日志
	loggedHandler := h.loggingMiddleware(authedHandler)

	// 应用 CORS 中间件
	return corsMiddleware(loggedHandler)
}

// Health 服务健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware 记录每个请求的方法、路径、状态码和耗时
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		h.logger.HTTPRequestLog(r, wrapped.statusCode, time.Since(start))
	})
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
