package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/payment"
	repo "github.com/alittlebroken/ecommerce/internal/repository"

	"go.uber.org/zap"
)

var (
	//決済は確認されたのにカートが見つからない
	ErrFulfillCartNotFound = errors.New("fulfillment: cart not found")

	//決済は確認されたのにカートが空（データ不整合。黙って成功させない）
	ErrFulfillEmptyCart = errors.New("fulfillment: cart has no items")

	ErrFulfillBadReference = errors.New("fulfillment: bad cart reference")
)

// 現在時刻の注入口（テストで固定する）
type Clock interface {
	Now() time.Time
}

// FulfillmentUsecase は決済確認イベントを注文に変換する。
// 注文ヘッダ作成・明細作成・カート明細削除は1トランザクションで
// 全部成功か全部失敗のどちらかにする。
type FulfillmentUsecase struct {
	tx     repo.TransactionManager
	clock  Clock
	logger *zap.Logger
}

func NewFulfillmentUsecase(tx repo.TransactionManager, clock Clock, logger *zap.Logger) *FulfillmentUsecase {
	return &FulfillmentUsecase{tx: tx, clock: clock, logger: logger}
}

type FulfillResult struct {
	//無関係なイベントや二重配送で何もしなかった場合true
	Skipped bool
	OrderID int64
}

// HandleEvent は署名検証済みのイベントを処理する。
//   - 対象外のイベントtypeは成功扱いで何もしない（ゲートウェイに再送させない）
//   - 同じevent_idの二重配送は成功扱いのno-op（注文は1つのまま）
//   - カート参照が壊れたイベントは記録だけ残して成功扱い（再送で直らないため）
//   - 途中で失敗したら注文もカート削除も全て巻き戻す
func (u *FulfillmentUsecase) HandleEvent(ctx context.Context, ev payment.Event) (FulfillResult, error) {
	if ev.Type != payment.EventTypeCheckoutCompleted {
		return FulfillResult{Skipped: true}, nil
	}

	cartID, err := parseCartReference(ev.Data.Object.ClientReferenceID)
	if err != nil {
		//参照が壊れたイベントは再送されても直らない。
		//記録だけ残して成功応答で受け流す（ゲートウェイに再送させない）
		u.logger.Error("fulfillment: unparseable cart reference",
			zap.String("event_id", ev.ID),
			zap.String("client_reference_id", ev.Data.Object.ClientReferenceID))
		return u.acknowledgeBroken(ctx, ev)
	}

	var result FulfillResult
	duplicate := false

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//重複排除：まず受信記録を引く。既にあれば二重配送のno-op。
		//INSERT失敗でtxを壊さないよう、unique制約は最後の砦にする
		_, err := r.WebhookEvents().FindByEventID(ctx, ev.ID)
		if err == nil {
			duplicate = true
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		record := &model.WebhookEvent{
			EventID:    ev.ID,
			CartID:     cartID,
			ReceivedAt: u.clock.Now(),
		}
		if err := r.WebhookEvents().Create(ctx, record); err != nil {
			//同時配送で先を越された側
			if errors.Is(err, repo.ErrDuplicateEvent) {
				duplicate = true
				return nil
			}
			return err
		}

		cart, err := r.Carts().FindByID(ctx, cartID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrFulfillCartNotFound
			}
			return err
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			//支払われた中身が消えている。握り潰さずエラーで返す
			return ErrFulfillEmptyCart
		}

		//注文ヘッダ。total_costはゲートウェイが請求した額（最小通貨単位）
		now := u.clock.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:    cart.UserID,
			OrderDate: now,
			Paid:      true,
			TotalCost: ev.Data.Object.AmountTotal,
		})
		if err != nil {
			return err
		}

		//明細は注文時点の単価×数量をスナップショット
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, ci := range items {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if err != nil {
				return err
			}

			orderItems = append(orderItems, model.OrderItem{
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
				LineTotal: p.Price * ci.Quantity,
			})
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return err
		}

		//カートは空にするが、cartsの行は次回の購入用に残す
		if err := r.CartItems().Clear(ctx, cart.ID); err != nil {
			return err
		}

		if err := r.WebhookEvents().SetOrderID(ctx, ev.ID, orderID); err != nil {
			return err
		}

		result.OrderID = orderID
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrFulfillCartNotFound):
			u.logger.Error("fulfillment: confirmed payment for missing cart",
				zap.String("event_id", ev.ID),
				zap.Int64("cart_id", cartID))
		case errors.Is(err, ErrFulfillEmptyCart):
			u.logger.Error("fulfillment: confirmed payment for empty cart",
				zap.String("event_id", ev.ID),
				zap.Int64("cart_id", cartID),
				zap.Int64("amount_total", ev.Data.Object.AmountTotal))
		default:
			u.logger.Error("fulfillment: rolled back",
				zap.String("event_id", ev.ID),
				zap.Int64("cart_id", cartID),
				zap.Error(err))
		}
		return FulfillResult{}, err
	}

	if duplicate {
		u.logger.Info("fulfillment: duplicate delivery ignored",
			zap.String("event_id", ev.ID),
			zap.Int64("cart_id", cartID))
		return FulfillResult{Skipped: true}, nil
	}

	u.logger.Info("fulfillment: order created",
		zap.String("event_id", ev.ID),
		zap.Int64("cart_id", cartID),
		zap.Int64("order_id", result.OrderID))

	return result, nil
}

// acknowledgeBroken は処理不能なイベントの受信記録だけを残す。
// 注文は作れないが、200で応答しないと同じイベントが永遠に再送される。
func (u *FulfillmentUsecase) acknowledgeBroken(ctx context.Context, ev payment.Event) (FulfillResult, error) {
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.WebhookEvents().FindByEventID(ctx, ev.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		createErr := r.WebhookEvents().Create(ctx, &model.WebhookEvent{
			EventID:    ev.ID,
			ReceivedAt: u.clock.Now(),
		})
		if errors.Is(createErr, repo.ErrDuplicateEvent) {
			return nil
		}
		return createErr
	})
	if err != nil {
		return FulfillResult{}, err
	}
	return FulfillResult{Skipped: true}, nil
}

func parseCartReference(ref string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrFulfillBadReference
	}
	return id, nil
}
