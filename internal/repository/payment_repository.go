package repository

import (
	"context"

	"laptophub/internal/domain/model"
)

type PaymentRepository interface {
	FindByID(ctx context.Context, paymentID int64) (model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	FindByExternalRef(ctx context.Context, ref string) (model.Payment, error)

	// 行の排他ロック付きで取得。ステータス更新はこのロック越しに行う。
	LockByID(ctx context.Context, paymentID int64) (model.Payment, error)

	Create(ctx context.Context, p model.Payment) (int64, error)
	UpdateStatus(ctx context.Context, paymentID int64, status model.PaymentStatus) error
	SetExternalRef(ctx context.Context, paymentID int64, ref string) error
}
