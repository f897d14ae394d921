package mongostore

import (
	"context"
	"time"

	"shop-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// 分类
// ============================================================================

func (s *Store) CreateCategory(ctx context.Context, category *model.Category) error {
	return insertOne(ctx, s.col(ColCategories), category)
}

func (s *Store) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	return findOne[model.Category](ctx, s.col(ColCategories), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	return findOne[model.Category](ctx, s.col(ColCategories), bson.D{{Key: "name", Value: name}})
}

func (s *Store) UpdateCategory(ctx context.Context, category *model.Category) error {
	return updateFields(ctx, s.col(ColCategories), category.ID, bson.D{
		{Key: "name", Value: category.Name},
		{Key: "description", Value: category.Description},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColCategories), id)
}

// SearchCategories 名称模糊搜索（大小写不敏感），描述不返回
func (s *Store) SearchCategories(ctx context.Context, namePattern string) ([]*model.Category, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "name", Value: bson.D{
				{Key: "$regex", Value: namePattern},
				{Key: "$options", Value: "i"},
			}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "description", Value: 0}}}},
	}
	return aggregate[model.Category](ctx, s.col(ColCategories), pipeline)
}
