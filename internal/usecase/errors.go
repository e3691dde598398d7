package usecase

import (
	"errors"
	"fmt"
)

// 業務エラー。HTTPへの変換はhandler側で行う（usecaseはログも整形もしない）。
var (
	ErrUnauthorized          = errors.New("unauthorized")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrProductUnavailable    = errors.New("product unavailable")
	ErrInvalidAddress        = errors.New("invalid shipping address")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrInvalidInput          = errors.New("invalid input")
)

// 在庫不足。どの商品で落ちたかを持ち回る。
type InsufficientStockError struct {
	ProductID int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

// 状態遷移表に無い遷移。常に呼び出し側の誤りでありリトライ対象ではない。
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}
