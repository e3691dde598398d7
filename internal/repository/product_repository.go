package repository

import (
	"context"
	"errors"

	"laptophub/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// ロック待ちタイムアウトや直列化失敗。部分的な書き込みは残っていないので
// 呼び出し側はそのままリトライしてよい。
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	// 行の排他ロック付きで取得（SELECT ... FOR UPDATE）。
	// 呼び出し元トランザクションのcommit/rollbackまで他のロック取得をブロックする。
	// 複数商品をロックするときは必ず商品ID昇順で呼ぶこと（デッドロック回避）。
	LockByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
