package model

import "time"

// CartItem 购物车条目
//
// 同一商品在购物车中至多一条，重复添加时累加 Quantity。
type CartItem struct {
	ProductID string    `json:"product_id" bson:"product_id"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"added_at" bson:"added_at"`
}

// Cart 购物车
//
// 每个用户恰好一个，注册时创建，随用户删除，不单独删除。
type Cart struct {
	ID     string     `json:"id" bson:"_id"`
	UserID string     `json:"user_id" bson:"user_id"`
	Items  []CartItem `json:"items" bson:"items"`
}

// ResolvedCartItem 解析后的购物车条目（附带商品详情）
type ResolvedCartItem struct {
	Product  CartProduct `json:"product"`
	Quantity int         `json:"quantity"`
	AddedAt  time.Time   `json:"added_at"`
}

// CartProduct 购物车视图中的商品摘要
type CartProduct struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Images []string `json:"images"`
}
