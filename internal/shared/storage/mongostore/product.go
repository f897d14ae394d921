package mongostore

import (
	"context"
	"time"

	"shop-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// 商品
// ============================================================================

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	return insertOne(ctx, s.col(ColProducts), product)
}

func (s *Store) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return findOne[model.Product](ctx, s.col(ColProducts), bson.D{{Key: "_id", Value: id}})
}

// GetProductsByIDs 批量取商品（购物车/订单解析用），缺失的 ID 静默跳过
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]*model.Product, error) {
	if len(ids) == 0 {
		return []*model.Product{}, nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}
	return findMany[model.Product](ctx, s.col(ColProducts), filter)
}

func (s *Store) UpdateProduct(ctx context.Context, product *model.Product) error {
	return updateFields(ctx, s.col(ColProducts), product.ID, bson.D{
		{Key: "name", Value: product.Name},
		{Key: "description", Value: product.Description},
		{Key: "price", Value: product.Price},
		{Key: "inventory", Value: product.Inventory},
		{Key: "brand", Value: product.Brand},
		{Key: "images", Value: product.Images},
		{Key: "category_id", Value: product.CategoryID},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColProducts), id)
}

// SearchProducts 名称模糊搜索（大小写不敏感）
// 投影摘要字段，按 (name, price) 升序，至多 5 条
func (s *Store) SearchProducts(ctx context.Context, namePattern string) ([]*model.ProductSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "name", Value: bson.D{
				{Key: "$regex", Value: namePattern},
				{Key: "$options", Value: "i"},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "name", Value: 1},
			{Key: "brand", Value: 1},
			{Key: "images", Value: 1},
			{Key: "price", Value: 1},
			{Key: "inventory", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}}}},
		{{Key: "$limit", Value: 5}},
	}
	return aggregate[model.ProductSummary](ctx, s.col(ColProducts), pipeline)
}
