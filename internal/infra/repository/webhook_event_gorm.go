package repository

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	repo "github.com/alittlebroken/ecommerce/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgresのunique制約違反
const pgUniqueViolation = "23505"

type WebhookEventGormRepository struct {
	db *gorm.DB
}

func NewWebhookEventGormRepository(db *gorm.DB) *WebhookEventGormRepository {
	return &WebhookEventGormRepository{db: db}
}

// 二重配送はErrDuplicateEventへ正規化。
// ON CONFLICT DO NOTHINGで挿入するので、重複してもtxはabortしない
// （Postgresは制約違反のINSERTが失敗するとtx全体が巻き戻るため）。
func (r *WebhookEventGormRepository) Create(ctx context.Context, ev *model.WebhookEvent) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(ev)

	if res.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(res.Error, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repo.ErrDuplicateEvent
		}
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return repo.ErrDuplicateEvent
		}
		return res.Error
	}

	//衝突して何も挿入されなかった場合
	if res.RowsAffected == 0 {
		return repo.ErrDuplicateEvent
	}

	return nil
}

func (r *WebhookEventGormRepository) SetOrderID(ctx context.Context, eventID string, orderID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Update("order_id", orderID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *WebhookEventGormRepository) FindByEventID(ctx context.Context, eventID string) (model.WebhookEvent, error) {
	var ev model.WebhookEvent

	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WebhookEvent{}, repo.ErrNotFound
	}
	if err != nil {
		return model.WebhookEvent{}, err
	}
	return ev, nil
}
