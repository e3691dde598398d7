package repository

import (
	"context"
	"time"

	"laptophub/internal/domain/model"
)

type OrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)

	// 行の排他ロック付きで取得。状態遷移はこのロック越しに行う。
	LockByID(ctx context.Context, orderID int64) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	ListByStatus(ctx context.Context, status model.OrderStatus, page int, limit int) ([]model.Order, int64, error)
	ListAll(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)

	// 期限切れ掃除の候補。cutoffより古いPENDING_PAYMENTのIDだけ返す。
	ListExpiredPendingIDs(ctx context.Context, cutoff time.Time, limit int) ([]int64, error)
}
