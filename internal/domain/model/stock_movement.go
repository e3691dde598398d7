package model

import "time"

// 在庫がなぜ動いたかの種別。
type StockMovementKind string

const (
	//注文確定による減算。
	StockMovementOrder StockMovementKind = "ORDER"

	//キャンセル・期限切れによる戻し。
	StockMovementRestock StockMovementKind = "RESTOCK"

	//管理者による在庫調整。
	StockMovementAdjust StockMovementKind = "ADJUST"
)

// 在庫変動の履歴。「どの商品が」「どれだけ」「なぜ」動いたかを残す。
type StockMovement struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64             `gorm:"not null;index" json:"product_id"`
	OrderID   *int64            `gorm:"index" json:"order_id,omitempty"`
	Delta     int64             `gorm:"not null" json:"delta"`
	Kind      StockMovementKind `gorm:"type:varchar(20);not null;index" json:"kind"`
	Reason    string            `gorm:"type:varchar(255)" json:"reason"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
}
