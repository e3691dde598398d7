package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// 決済ステータスの遷移表。
// FAILED -> COMPLETED は支払いリトライ（失敗しても注文はPENDING_PAYMENTのまま残る）。
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed},
	PaymentStatusCompleted: {PaymentStatusRefunded},
	PaymentStatusFailed:    {PaymentStatusCompleted},
	PaymentStatusRefunded:  {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// 決済。注文と1:1。金額は注文合計と同額で作られ以後変わらない。
// ExternalRefは外部決済プロセッサ側の取引ID。
type Payment struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64         `gorm:"not null;uniqueIndex" json:"order_id"`
	Status      PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount      int64         `gorm:"not null" json:"amount"`
	ExternalRef string        `gorm:"type:varchar(255);index" json:"external_ref"`
	CreatedAt   time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
