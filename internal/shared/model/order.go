package model

import "time"

// OrderStatus 订单状态
//
// 正向流转 pending → paid → shipped → delivered，cancelled 仅应从 pending
// 进入。更新接口按管理员提交的值原样落库，不校验流转方向。
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus 是否为合法的订单状态值
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentTransfer PaymentMethod = "Transfer"
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
)

// ValidPaymentMethod 是否为合法的支付方式
func ValidPaymentMethod(p PaymentMethod) bool {
	switch p {
	case PaymentTransfer, PaymentCash, PaymentCard:
		return true
	}
	return false
}

// OrderItem 订单条目
//
// OrderPrice 冻结下单时刻的商品单价，商品之后的调价不影响已生成的订单。
type OrderItem struct {
	ProductID  string  `json:"product_id" bson:"product_id"`
	Quantity   int     `json:"quantity" bson:"quantity"`
	OrderPrice float64 `json:"order_price" bson:"order_price"`
}

// Order 订单
type Order struct {
	ID          string        `json:"id" bson:"_id"`
	UserID      string        `json:"user_id" bson:"user_id"`
	Items       []OrderItem   `json:"items" bson:"items"`
	Payment     PaymentMethod `json:"payment" bson:"payment"`
	Status      OrderStatus   `json:"status" bson:"status"`
	TotalAmount float64       `json:"total_amount" bson:"total_amount"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

// Total 按条目重新计算订单总额
func (o *Order) Total() float64 {
	var sum float64
	for _, it := range o.Items {
		sum += it.OrderPrice * float64(it.Quantity)
	}
	return sum
}
