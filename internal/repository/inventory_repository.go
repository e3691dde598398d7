package repository

import (
	"context"

	"laptophub/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算（UPDATE ... WHERE stock >= qty）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセル・期限切れ）。上限チェックは不要。
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 変動履歴作成
	CreateMovement(ctx context.Context, m model.StockMovement) error
}
