package repository

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

// 同じevent_idが既に記録済み
var ErrDuplicateEvent = errors.New("duplicate webhook event")

type WebhookEventRepository interface {
	//unique制約違反はErrDuplicateEventに正規化して返す
	Create(ctx context.Context, ev *model.WebhookEvent) error
	SetOrderID(ctx context.Context, eventID string, orderID int64) error
	FindByEventID(ctx context.Context, eventID string) (model.WebhookEvent, error)
}
