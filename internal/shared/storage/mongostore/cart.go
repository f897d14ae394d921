package mongostore

import (
	"context"

	"shop-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ============================================================================
// 购物车
// ============================================================================

func (s *Store) CreateCart(ctx context.Context, cart *model.Cart) error {
	return insertOne(ctx, s.col(ColCarts), cart)
}

func (s *Store) GetCartByUser(ctx context.Context, userID string) (*model.Cart, error) {
	return findOne[model.Cart](ctx, s.col(ColCarts), bson.D{{Key: "user_id", Value: userID}})
}

// IncrementCartItem 对已存在的条目原子累加数量
// 购物车中没有该商品条目时返回 (nil, nil)
func (s *Store) IncrementCartItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "items.product_id", Value: productID},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{{Key: "items.$.quantity", Value: quantity}}},
	}
	return findOneAndUpdate[model.Cart](ctx, s.col(ColCarts), filter, update)
}

// PushCartItem 原子追加新条目
// 用户没有购物车时返回 (nil, nil)
func (s *Store) PushCartItem(ctx context.Context, userID string, item model.CartItem) (*model.Cart, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "items", Value: item}}},
	}
	return findOneAndUpdate[model.Cart](ctx, s.col(ColCarts), filter, update)
}

// PullCartItem 原子移除指定商品的整个条目（不做数量递减）
// 用户没有购物车时返回 (nil, nil)
func (s *Store) PullCartItem(ctx context.Context, userID, productID string) (*model.Cart, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}
	update := bson.D{
		{Key: "$pull", Value: bson.D{
			{Key: "items", Value: bson.D{{Key: "product_id", Value: productID}}},
		}},
	}
	return findOneAndUpdate[model.Cart](ctx, s.col(ColCarts), filter, update)
}

// DeleteCartByUser 删除用户的购物车（仅随用户注销一起调用）
func (s *Store) DeleteCartByUser(ctx context.Context, userID string) error {
	res, err := s.col(ColCarts).DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return nil // 购物车缺失不视为错误
	}
	return nil
}
