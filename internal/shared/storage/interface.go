package storage

import (
	"context"

	"shop-api/internal/shared/model"
)

// Store 持久化存储接口
//
// 单文档读写由存储引擎保证原子性；跨文档操作（如购物车读取 → 订单落库）
// 不提供事务包装。查询类方法在实体不存在时返回 (nil, nil)，
// 删除/更新类方法在目标不存在时返回 ErrNotFound。
type Store interface {
	// 用户
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CountUsers(ctx context.Context) (int64, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]*model.UserSummary, error)

	// 分类
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id string) error
	SearchCategories(ctx context.Context, namePattern string) ([]*model.Category, error)

	// 商品
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*model.Product, error)
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id string) error
	SearchProducts(ctx context.Context, namePattern string) ([]*model.ProductSummary, error)

	// 购物车
	CreateCart(ctx context.Context, cart *model.Cart) error
	GetCartByUser(ctx context.Context, userID string) (*model.Cart, error)
	IncrementCartItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error)
	PushCartItem(ctx context.Context, userID string, item model.CartItem) (*model.Cart, error)
	PullCartItem(ctx context.Context, userID, productID string) (*model.Cart, error)
	DeleteCartByUser(ctx context.Context, userID string) error

	// 订单
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrderByUser(ctx context.Context, userID string) (*model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	DeleteOrder(ctx context.Context, id string) error
}
