package usecase

import (
	"context"
	"strings"
	"time"

	"laptophub/internal/domain/model"
	repo "laptophub/internal/repository"

	"github.com/google/uuid"
)

// 決済の参照と状態遷移。実際の決済プロセッサは外部にあり、
// ここはその結果としてのステータス遷移だけをモデル化する。
type PaymentUsecase struct {
	tx       repo.TransactionManager
	payments repo.PaymentRepository
	orders   repo.OrderRepository
}

func NewPaymentUsecase(tx repo.TransactionManager, payments repo.PaymentRepository, orders repo.OrderRepository) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, payments: payments, orders: orders}
}

type PaymentOutput struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	ExternalRef string    `json:"external_ref"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *PaymentUsecase) Get(ctx context.Context, userID int64, paymentID int64, isAdmin bool) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, ErrUnauthorized
	}
	if paymentID <= 0 {
		return PaymentOutput{}, ErrInvalidInput
	}

	p, err := u.payments.FindByID(ctx, paymentID)
	if err != nil {
		return PaymentOutput{}, err
	}

	if !isAdmin {
		o, err := u.orders.FindByID(ctx, p.OrderID)
		if err != nil {
			return PaymentOutput{}, err
		}
		if o.UserID != userID {
			//他人の決済は「存在しない扱い」にする
			return PaymentOutput{}, repo.ErrNotFound
		}
	}

	return toPaymentOutput(p), nil
}

// GetByExternalRef は外部決済プロセッサの取引IDから決済を引く（管理者用）。
func (u *PaymentUsecase) GetByExternalRef(ctx context.Context, ref string) (PaymentOutput, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return PaymentOutput{}, ErrInvalidInput
	}

	p, err := u.payments.FindByExternalRef(ctx, ref)
	if err != nil {
		return PaymentOutput{}, err
	}
	return toPaymentOutput(p), nil
}

// UpdateStatus は遷移表に従ってstatusだけを進める。注文側は同期しない
// （注文まで同期するのはProcessSimulated）。
func (u *PaymentUsecase) UpdateStatus(ctx context.Context, paymentID int64, newStatus model.PaymentStatus) (PaymentOutput, error) {
	if paymentID <= 0 {
		return PaymentOutput{}, ErrInvalidInput
	}
	if !newStatus.IsValid() {
		return PaymentOutput{}, ErrInvalidInput
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().LockByID(ctx, paymentID)
		if err != nil {
			return err
		}

		if !p.Status.CanTransitionTo(newStatus) {
			return &InvalidTransitionError{Entity: "payment", From: string(p.Status), To: string(newStatus)}
		}

		if err := r.Payments().UpdateStatus(ctx, paymentID, newStatus); err != nil {
			return err
		}

		p.Status = newStatus
		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

func (u *PaymentUsecase) SetExternalRef(ctx context.Context, paymentID int64, ref string) (PaymentOutput, error) {
	if paymentID <= 0 {
		return PaymentOutput{}, ErrInvalidInput
	}
	ref = strings.TrimSpace(ref)
	if ref == "" || len(ref) > 255 {
		return PaymentOutput{}, ErrInvalidInput
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().LockByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := r.Payments().SetExternalRef(ctx, paymentID, ref); err != nil {
			return err
		}
		p.ExternalRef = ref
		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

// ProcessSimulated は外部決済プロセッサの代役。
// success=true: 決済COMPLETED＋注文PAID（同一トランザクション）。
// success=false: 決済FAILEDのみ。注文はPENDING_PAYMENTのまま残り、
// 期限切れまでは支払いをやり直せる。
func (u *PaymentUsecase) ProcessSimulated(ctx context.Context, userID int64, paymentID int64, success bool, isAdmin bool) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, ErrUnauthorized
	}
	if paymentID <= 0 {
		return PaymentOutput{}, ErrInvalidInput
	}

	var out PaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// ロック順は常に注文→決済（キャンセル側と同じ順に揃える）
		pre, err := r.Payments().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}

		o, err := r.Orders().LockByID(ctx, pre.OrderID)
		if err != nil {
			return err
		}
		if !isAdmin && o.UserID != userID {
			return repo.ErrNotFound
		}

		p, err := r.Payments().LockByID(ctx, paymentID)
		if err != nil {
			return err
		}

		if success {
			if !p.Status.CanTransitionTo(model.PaymentStatusCompleted) {
				return &InvalidTransitionError{Entity: "payment", From: string(p.Status), To: string(model.PaymentStatusCompleted)}
			}
			if !o.Status.CanTransitionTo(model.OrderStatusPaid) {
				return &InvalidTransitionError{Entity: "order", From: string(o.Status), To: string(model.OrderStatusPaid)}
			}

			if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusCompleted); err != nil {
				return err
			}
			if p.ExternalRef == "" {
				p.ExternalRef = "sim_" + uuid.NewString()
				if err := r.Payments().SetExternalRef(ctx, p.ID, p.ExternalRef); err != nil {
					return err
				}
			}
			if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusPaid); err != nil {
				return err
			}

			p.Status = model.PaymentStatusCompleted
			out = toPaymentOutput(p)
			return nil
		}

		// 失敗の再通知はそのまま受ける
		if p.Status == model.PaymentStatusFailed {
			out = toPaymentOutput(p)
			return nil
		}
		if !p.Status.CanTransitionTo(model.PaymentStatusFailed) {
			return &InvalidTransitionError{Entity: "payment", From: string(p.Status), To: string(model.PaymentStatusFailed)}
		}
		if err := r.Payments().UpdateStatus(ctx, p.ID, model.PaymentStatusFailed); err != nil {
			return err
		}

		p.Status = model.PaymentStatusFailed
		out = toPaymentOutput(p)
		return nil
	})

	if err != nil {
		return PaymentOutput{}, err
	}
	return out, nil
}

func toPaymentOutput(p model.Payment) PaymentOutput {
	return PaymentOutput{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Status:      string(p.Status),
		Amount:      p.Amount,
		ExternalRef: p.ExternalRef,
		CreatedAt:   p.CreatedAt,
	}
}
