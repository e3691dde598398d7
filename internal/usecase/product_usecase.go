package usecase

import (
	"context"
	"strings"
	"time"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, tx: tx}
}

type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// 公開商品の一覧。
func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, err
	}

	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, ErrInvalidInput
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	if !p.IsActive {
		//非公開商品は一般には見せない
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	IsActive    bool
}

// 商品作成（管理者）。初期在庫はADJUSTとして履歴に残す。
func (u *ProductUsecase) Create(ctx context.Context, in CreateProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.Product{}, ErrInvalidInput
	}
	if in.Price < 0 || in.Stock < 0 {
		return model.Product{}, ErrInvalidInput
	}

	var created model.Product

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()
		p, err := r.Products().Create(ctx, model.Product{
			Name:        name,
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			IsActive:    in.IsActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}

		if in.Stock > 0 {
			if err := r.Inventory().CreateMovement(ctx, model.StockMovement{
				ProductID: p.ID,
				Delta:     in.Stock,
				Kind:      model.StockMovementAdjust,
				Reason:    "initial stock",
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}

		created = p
		return nil
	})

	if err != nil {
		return model.Product{}, err
	}
	return created, nil
}

type UpdateProductInput struct {
	Name        string
	Description string
	Price       int64
	IsActive    bool
}

// 商品更新（管理者）。在庫はここでは触らない（SetStockを使う）。
func (u *ProductUsecase) Update(ctx context.Context, id int64, in UpdateProductInput) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return ErrInvalidInput
	}
	if in.Price < 0 {
		return ErrInvalidInput
	}

	return u.productRepo.Update(ctx, model.Product{
		ID:          id,
		Name:        name,
		Description: in.Description,
		Price:       in.Price,
		IsActive:    in.IsActive,
	})
}

func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return u.productRepo.SoftDelete(ctx, id)
}

// SetStock は在庫の現在値を設定し、差分をADJUSTとして履歴に残す（管理者）。
// 注文確定と競合しないよう商品行をロックしてから読む。
func (u *ProductUsecase) SetStock(ctx context.Context, productID int64, newStock int64, reason string) error {
	if productID <= 0 {
		return ErrInvalidInput
	}
	if newStock < 0 {
		return ErrInvalidInput
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrInvalidInput
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().LockByID(ctx, productID)
		if err != nil {
			return err
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return err
		}

		return r.Inventory().CreateMovement(ctx, model.StockMovement{
			ProductID: productID,
			Delta:     newStock - p.Stock,
			Kind:      model.StockMovementAdjust,
			Reason:    reason,
			CreatedAt: time.Now(),
		})
	})
}
