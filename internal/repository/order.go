package repository

import (
	"context"
	"time"

	"eshop-backend/internal/model"

	"gorm.io/gorm"
)

// OrderRepository owns all order-row writes. Multi-row operations run in a
// single transaction so a webhook or a concurrent reconcile never observes a
// half-written order.
type OrderRepository interface {
	CreateWithItems(ctx context.Context, order *model.Order, items []*model.OrderItem) error
	FindByIntentID(ctx context.Context, intentID string) (*model.Order, error)
	// UpdateAmountAndItems replaces the item snapshot wholesale
	// (delete-then-recreate) and sets the new amount on the order keyed by
	// the payment intent id.
	UpdateAmountAndItems(ctx context.Context, intentID string, amount int64, items []*model.OrderItem) error
	MarkComplete(ctx context.Context, intentID string, addr *model.Address) error
	MarkFailed(ctx context.Context, intentID string, declineReason string) error
	MarkRequiresAction(ctx context.Context, intentID string, declineReason string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) CreateWithItems(ctx context.Context, order *model.Order, items []*model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepoImpl) FindByIntentID(ctx context.Context, intentID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", intentID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) UpdateAmountAndItems(ctx context.Context, intentID string, amount int64, items []*model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Where("payment_intent_id = ?", intentID).First(&order).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Order{}).
			Where("payment_intent_id = ?", intentID).
			Updates(map[string]interface{}{
				"amount":     amount,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("order_id = ?", order.ID).
			Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}

		for _, item := range items {
			item.OrderID = order.ID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepoImpl) MarkComplete(ctx context.Context, intentID string, addr *model.Address) error {
	updates := map[string]interface{}{
		"status":     model.OrderStatusComplete,
		"updated_at": time.Now(),
	}
	if addr != nil {
		updates["address_city"] = addr.City
		updates["address_country"] = addr.Country
		updates["address_line1"] = addr.Line1
		updates["address_line2"] = addr.Line2
		updates["address_postal_code"] = addr.PostalCode
		updates["address_state"] = addr.State
	}

	return r.updateByIntentID(ctx, intentID, updates)
}

func (r *orderRepoImpl) MarkFailed(ctx context.Context, intentID string, declineReason string) error {
	return r.updateByIntentID(ctx, intentID, map[string]interface{}{
		"status":         model.OrderStatusFailed,
		"decline_reason": declineReason,
		"updated_at":     time.Now(),
	})
}

func (r *orderRepoImpl) MarkRequiresAction(ctx context.Context, intentID string, declineReason string) error {
	return r.updateByIntentID(ctx, intentID, map[string]interface{}{
		"status":         model.OrderStatusRequiresAction,
		"decline_reason": declineReason,
		"updated_at":     time.Now(),
	})
}

func (r *orderRepoImpl) updateByIntentID(ctx context.Context, intentID string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("payment_intent_id = ?", intentID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
