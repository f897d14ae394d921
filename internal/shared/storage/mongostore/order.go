package mongostore

import (
	"context"
	"time"

	"shop-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// 订单
// ============================================================================

func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	return insertOne(ctx, s.col(ColOrders), order)
}

func (s *Store) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return findOne[model.Order](ctx, s.col(ColOrders), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetOrderByUser(ctx context.Context, userID string) (*model.Order, error) {
	return findOne[model.Order](ctx, s.col(ColOrders), bson.D{{Key: "user_id", Value: userID}})
}

// UpdateOrderStatus 按提交值原样更新状态，不校验流转方向
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return updateFields(ctx, s.col(ColOrders), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

// DeleteOrder 硬删除订单（取消即删除，不翻转状态）
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColOrders), id)
}
