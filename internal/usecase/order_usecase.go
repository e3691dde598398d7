package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"
)

// 注文の確定・状態遷移・期限切れ掃除。
// 在庫を触る処理は必ず1トランザクション内で、商品ID昇順のロック順で行う。
type OrderUsecase struct {
	tx          repo.TransactionManager
	expireAfter time.Duration
}

func NewOrderUsecase(tx repo.TransactionManager, expireAfter time.Duration) *OrderUsecase {
	return &OrderUsecase{tx: tx, expireAfter: expireAfter}
}

type PlaceOrderInput struct {
	ShippingAddress string
	IdempotencyKey  string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"user_id"`
	ShippingAddress string            `json:"shipping_address"`
	Status          string            `json:"status"`
	TotalPrice      int64             `json:"total_price"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

// PlaceOrder はカートを注文に変換する。
// 全明細の在庫確認→減算→注文・明細・決済作成→カートクリアまでが1つの
// トランザクション。どこかで失敗したら在庫もカートも元のまま。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	addr := strings.TrimSpace(in.ShippingAddress)
	if addr == "" || len(addr) > 500 {
		return OrderOutput{}, ErrInvalidAddress
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, ErrInvalidIdempotencyKey
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return err
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		//ACTIVEカート取得
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}

		//カート明細取得
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		// 商品ID昇順でロックする（カート追加順でロックするとデッドロックする）
		sort.Slice(cartItems, func(i, j int) bool {
			return cartItems[i].ProductID < cartItems[j].ProductID
		})

		// 先に全明細をロックして在庫を検証する。1つでも足りなければ
		// 何も書かずに抜ける（トランザクションごとロールバック）。
		products := make([]model.Product, 0, len(cartItems))
		var total int64 = 0

		for _, ci := range cartItems {
			p, err := r.Products().LockByID(ctx, ci.ProductID)
			if err == repo.ErrNotFound {
				return repo.ErrNotFound
			}
			if err != nil {
				return err
			}
			if !p.IsActive {
				return ErrProductUnavailable
			}
			if p.Stock < ci.Quantity {
				return &InsufficientStockError{ProductID: p.ID}
			}

			products = append(products, p)
			total += p.Price * ci.Quantity
		}

		// 注文作成（確定時点の価格で合計済み）
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			ShippingAddress: addr,
			Status:          model.OrderStatusPendingPayment,
			TotalPrice:      total,
			IdempotencyKey:  key,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		if err != nil {
			// 一意制約で落ちたトランザクションはもう使えない（PostgreSQLは
			// abort済み）。先行した注文の引き直しはWithinTxを抜けてから行う。
			return ErrIdempotencyConflict
		}

		// 在庫減算＋履歴。ロック済みなのでここからは失敗しない前提だが、
		// 万一ガードに落ちたらロールバックされる。
		orderItems := make([]model.OrderItem, 0, len(cartItems))
		for i, ci := range cartItems {
			p := products[i]

			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, ci.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &InsufficientStockError{ProductID: p.ID}
			}

			if err := r.Inventory().CreateMovement(ctx, model.StockMovement{
				ProductID: p.ID,
				OrderID:   &orderID,
				Delta:     -ci.Quantity,
				Kind:      model.StockMovementOrder,
				CreatedAt: now,
			}); err != nil {
				return err
			}

			//スナップショット
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            ci.Quantity,
				CreatedAt:           now,
			})
		}

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		//決済レコード作成（金額は注文合計と同額）
		if _, err := r.Payments().Create(ctx, model.Payment{
			OrderID:   orderID,
			Status:    model.PaymentStatusPending,
			Amount:    total,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		//カートをCHECKED_OUTにして明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return err
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return err
		}

		created := model.Order{
			ID:              orderID,
			UserID:          userID,
			ShippingAddress: addr,
			Status:          model.OrderStatusPendingPayment,
			TotalPrice:      total,
			CreatedAt:       now,
		}
		out = toOrderOutput(created, orderItems)
		return nil
	})

	if errors.Is(err, ErrIdempotencyConflict) {
		// 同じキーが同時に入った場合：先行した注文を新しいトランザクションで
		// 引き直して同じ結果を返す
		if lookupErr := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return err
			}
			if !found {
				return ErrIdempotencyConflict
			}
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return err
			}
			out = toOrderOutput(existing, items)
			return nil
		}); lookupErr != nil {
			return OrderOutput{}, lookupErr
		}
		return out, nil
	}
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// UpdateStatus は遷移表に従ってstatusを進める（管理者操作）。
// CANCELLED / EXPIRED に入るときは在庫を戻し、決済も解決する。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, newStatus model.OrderStatus) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, ErrInvalidInput
	}
	if !newStatus.IsValid() {
		return OrderOutput{}, ErrInvalidInput
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}

		if !o.Status.CanTransitionTo(newStatus) {
			return &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(newStatus)}
		}

		if model.RestocksOnEnter(newStatus) {
			if err := restoreOrderStock(ctx, r, o.ID); err != nil {
				return err
			}
			if err := resolvePaymentOnTerminate(ctx, r, o.ID); err != nil {
				return err
			}
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return err
		}

		o.Status = newStatus
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// Cancel は本人による注文キャンセル。PENDING_PAYMENT / PAID からのみ成功し、
// 在庫を戻して決済をREFUNDEDまたはFAILEDにする。
func (u *OrderUsecase) Cancel(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrInvalidInput
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return repo.ErrNotFound
		}

		if !o.Status.CanCancel() {
			return &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(model.OrderStatusCancelled)}
		}

		if err := restoreOrderStock(ctx, r, o.ID); err != nil {
			return err
		}
		if err := resolvePaymentOnTerminate(ctx, r, o.ID); err != nil {
			return err
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return err
		}

		o.Status = model.OrderStatusCancelled
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ExpirePendingPayment は支払い期限を過ぎたPENDING_PAYMENTの注文をEXPIREDにし、
// 在庫を戻す。注文ごとに小さなトランザクションで処理するので、稼働中の
// チェックアウトと並走しても全体ロックにはならない。戻り値は期限切れにした件数。
func (u *OrderUsecase) ExpirePendingPayment(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-u.expireAfter)

	var ids []int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		ids, err = r.Orders().ListExpiredPendingIDs(ctx, cutoff, 100)
		return err
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		expired := false

		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			o, err := r.Orders().LockByID(ctx, id)
			if err == repo.ErrNotFound {
				return nil
			}
			if err != nil {
				return err
			}

			// 候補を拾ってからここまでの間に支払い・キャンセル・別の掃除が
			// 先行していたら何もしない（再実行しても安全）
			if o.Status != model.OrderStatusPendingPayment {
				return nil
			}

			if err := restoreOrderStock(ctx, r, o.ID); err != nil {
				return err
			}
			if err := resolvePaymentOnTerminate(ctx, r, o.ID); err != nil {
				return err
			}
			if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusExpired); err != nil {
				return err
			}

			expired = true
			return nil
		})
		if err != nil {
			return count, err
		}
		if expired {
			count++
		}
	}

	return count, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderOutput{}, ErrInvalidInput
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return repo.ErrNotFound
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, ErrUnauthorized
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return err
		}
		outs, err = buildOrderOutputs(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ListByStatus は管理者用のステータス別一覧。
func (u *OrderUsecase) ListByStatus(ctx context.Context, status model.OrderStatus, page int, limit int) ([]OrderOutput, error) {
	if !status.IsValid() {
		return []OrderOutput{}, ErrInvalidInput
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByStatus(ctx, status, page, limit)
		if err != nil {
			return err
		}
		outs, err = buildOrderOutputs(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// ListAll は管理者用の全注文一覧（フィルタ付き）。
func (u *OrderUsecase) ListAll(ctx context.Context, f repo.OrderListFilter) ([]OrderOutput, error) {
	if f.Status != "" && !model.OrderStatus(f.Status).IsValid() {
		return []OrderOutput{}, ErrInvalidInput
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAll(ctx, f)
		if err != nil {
			return err
		}
		outs, err = buildOrderOutputs(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

// 注文全明細の在庫戻し。チェックアウトと同じく商品ID昇順で触る。
func restoreOrderStock(ctx context.Context, r repo.TxRepos, orderID int64) error {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})

	now := time.Now()
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			return err
		}
		if err := r.Inventory().CreateMovement(ctx, model.StockMovement{
			ProductID: it.ProductID,
			OrderID:   &orderID,
			Delta:     it.Quantity,
			Kind:      model.StockMovementRestock,
			CreatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

// 注文がCANCELLED/EXPIREDに入るときの決済の後始末。
// COMPLETEDなら返金、未完了ならFAILEDにする。既に終端なら何もしない。
func resolvePaymentOnTerminate(ctx context.Context, r repo.TxRepos, orderID int64) error {
	p, err := r.Payments().FindByOrderID(ctx, orderID)
	if err == repo.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	switch p.Status {
	case model.PaymentStatusCompleted:
		return r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusRefunded)
	case model.PaymentStatusPending:
		return r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusFailed)
	default:
		return nil
	}
}

func buildOrderOutputs(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
