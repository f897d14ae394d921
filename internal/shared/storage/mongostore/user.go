package mongostore

import (
	"context"
	"time"

	"shop-api/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// 用户
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// CountUsers 估算用户总数（注册时判定首个用户）
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.col(ColUsers).EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, wrapError(err)
	}
	return n, nil
}

// UpdateUser 更新用户可变字段，email/password/role 不在此处变更
func (s *Store) UpdateUser(ctx context.Context, user *model.User) error {
	return updateFields(ctx, s.col(ColUsers), user.ID, bson.D{
		{Key: "name", Value: user.Name},
		{Key: "address", Value: user.Address},
		{Key: "contact", Value: user.Contact},
		{Key: "gender", Value: user.Gender},
		{Key: "profile_pics", Value: user.ProfilePics},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

// ListCustomers 管理端用户列表：role=user，投影摘要字段，
// 按 (address, name) 升序，至多 20 条
func (s *Store) ListCustomers(ctx context.Context) ([]*model.UserSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "role", Value: model.UserRoleUser}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "email", Value: 1},
			{Key: "address", Value: 1},
			{Key: "profile_pics", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "address", Value: 1}, {Key: "name", Value: 1}}}},
		{{Key: "$limit", Value: 20}},
	}
	return aggregate[model.UserSummary](ctx, s.col(ColUsers), pipeline)
}
