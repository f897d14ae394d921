package model

import "time"

// MaxProductImages 单个商品允许的图片数量上限
const MaxProductImages = 15

// Product 商品
//
// Images 保存对象存储的公开 URL，追加不替换，总数不超过 MaxProductImages。
// Category/Seller 为引用 ID，不做级联删除。
type Product struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Inventory   int       `json:"inventory" bson:"inventory"`
	Brand       string    `json:"brand" bson:"brand"`
	Images      []string  `json:"images" bson:"images"`
	CategoryID  string    `json:"category_id" bson:"category_id"`
	SellerID    string    `json:"seller_id" bson:"seller_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// ProductSummary 商品搜索投影（名称模糊搜索接口使用）
type ProductSummary struct {
	Name      string   `json:"name" bson:"name"`
	Brand     string   `json:"brand" bson:"brand"`
	Price     float64  `json:"price" bson:"price"`
	Inventory int      `json:"inventory" bson:"inventory"`
	Images    []string `json:"images" bson:"images"`
}
