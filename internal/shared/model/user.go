package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin UserRole = "admin"
	UserRoleUser  UserRole = "user"
)

// Gender 用户性别
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// User 用户
//
// Email 全小写存储并做唯一索引；PasswordHash 只保存 bcrypt 摘要。
// 系统中第一个注册的用户获得 admin 角色，之后注册的一律为 user。
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"` // never expose in JSON
	Address      string    `json:"address,omitempty" bson:"address,omitempty"`
	Contact      string    `json:"contact" bson:"contact"`
	Gender       Gender    `json:"gender" bson:"gender"`
	Role         UserRole  `json:"role" bson:"role"`
	ProfilePics  string    `json:"profile_pics,omitempty" bson:"profile_pics,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserSummary 管理端用户列表投影
type UserSummary struct {
	ID          string `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Email       string `json:"email" bson:"email"`
	Address     string `json:"address,omitempty" bson:"address,omitempty"`
	ProfilePics string `json:"profile_pics,omitempty" bson:"profile_pics,omitempty"`
}
