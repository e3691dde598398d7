package model

import "time"

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusExpired        OrderStatus = "EXPIRED"
)

// 注文ステータスの遷移表。ここに無い遷移は全部拒否する。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusPaid:           {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
	OrderStatusExpired:        {},
}

func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// キャンセル可能なのは未発送のうちだけ。
func (s OrderStatus) CanCancel() bool {
	return s == OrderStatusPendingPayment || s == OrderStatusPaid
}

// CANCELLED / EXPIRED に入るときは在庫を戻す。
// 両方とも終端なので戻しは1回しか起こらない。
func RestocksOnEnter(next OrderStatus) bool {
	return next == OrderStatusCancelled || next == OrderStatusExpired
}

// 注文。作成後は明細・金額とも不変で、statusだけが遷移表に従って動く。
type Order struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64       `gorm:"not null;index" json:"user_id"`
	ShippingAddress string      `gorm:"type:varchar(500);not null" json:"shipping_address"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice      int64       `gorm:"not null" json:"total_price"`
	IdempotencyKey  string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt       time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
