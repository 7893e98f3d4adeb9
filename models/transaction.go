package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Transaction is an append-only record of a product leaving the shop:
// a sale to a customer or a points redemption by a supplier.
type Transaction struct {
	ID          int             `gorm:"primary_key" json:"id"`
	SupplierId  *int            `gorm:"index" json:"supplier_id"`
	CustomerId  *int            `gorm:"index" json:"customer_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	Kind        TransactionKind `gorm:"type:enum('Sale','Redemption');not null" json:"kind"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	PointsSpent int             `gorm:"not null;default:0" json:"points_spent"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"total"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRedemption struct {
	SupplierId int  `json:"supplier_id" binding:"required"`
	ProductId  int  `json:"product_id" binding:"required"`
	Quantity   *int `json:"quantity"`
}

type NewSale struct {
	CustomerId int  `json:"customer_id" binding:"required"`
	ProductId  int  `json:"product_id" binding:"required"`
	Quantity   *int `json:"quantity"`
}

// RedemptionView is a transaction enriched with the product snapshot the
// supplier app renders.
type RedemptionView struct {
	Transaction
	Product ProductSnapshot `json:"product"`
}

// TransactionView is a transaction enriched with the supplier the admin
// console shows next to it. Sales carry no supplier.
type TransactionView struct {
	Transaction
	Supplier *SupplierRef `json:"supplier,omitempty"`
}

// Redeem exchanges points for a redeemable product. Preconditions are
// checked in a fixed order (supplier, product, kind, balance) so clients
// get stable error shapes. The check-then-debit runs with the supplier
// row locked FOR UPDATE; concurrent redemptions on the same supplier
// serialize there.
func Redeem(ctx context.Context, input *NewRedemption) (*Transaction, error) {

	db := config.GetDB()

	quantity := utils.DereferencePtr(input.Quantity, 1)
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrorValidation)
	}

	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return nil, err
	}
	product, err := GetProduct(ctx, input.ProductId)
	if err != nil {
		return nil, err
	}
	if product.Kind != ProductKindRedeemable {
		return nil, fmt.Errorf("%w: product is not redeemable", utils.ErrorValidation)
	}
	pointsRequired := product.PointsRequired * quantity

	var transaction Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier Supplier
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&supplier, input.SupplierId).Error; err != nil {
			return utils.NotFoundOr(err)
		}

		if supplier.PointsBalance < pointsRequired {
			return fmt.Errorf("%w: insufficient points (have %d, need %d)",
				utils.ErrorValidation, supplier.PointsBalance, pointsRequired)
		}

		if err := tx.Model(&Supplier{}).Where("id = ?", supplier.ID).
			UpdateColumn("points_balance", gorm.Expr("points_balance - ?", pointsRequired)).Error; err != nil {
			return err
		}

		transaction = Transaction{
			SupplierId:  &supplier.ID,
			ProductId:   product.ID,
			Kind:        TransactionKindRedemption,
			Quantity:    quantity,
			PointsSpent: pointsRequired,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		return PublishToLoyalty(ctx, tx, supplier.ID, transaction.CreatedAt, transaction.ID,
			LoyaltyReferenceTypeRedemption, pointsRequired, &transaction, LoyaltyEventActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// RecordSale sells a sale-kind product to a customer. No points move.
func RecordSale(ctx context.Context, input *NewSale) (*Transaction, error) {

	db := config.GetDB()

	quantity := utils.DereferencePtr(input.Quantity, 1)
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrorValidation)
	}

	if err := utils.ValidateResourceId[Customer](ctx, input.CustomerId); err != nil {
		return nil, err
	}
	product, err := GetProduct(ctx, input.ProductId)
	if err != nil {
		return nil, err
	}
	if product.Kind != ProductKindSale {
		return nil, fmt.Errorf("%w: product is not for sale", utils.ErrorValidation)
	}

	var transaction Transaction
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		transaction = Transaction{
			CustomerId: &input.CustomerId,
			ProductId:  product.ID,
			Kind:       TransactionKindSale,
			Quantity:   quantity,
			Total:      product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		return PublishToLoyalty(ctx, tx, 0, transaction.CreatedAt, transaction.ID,
			LoyaltyReferenceTypeSale, 0, &transaction, LoyaltyEventActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	return utils.FetchModel[Transaction](ctx, id)
}

func GetAllTransactions(ctx context.Context) ([]*Transaction, error) {
	return utils.FetchAllModels[Transaction](ctx)
}

// ListSupplierRedemptions returns a supplier's redemptions newest first.
// Snapshot enrichment happens at the API boundary via the product loader.
func ListSupplierRedemptions(ctx context.Context, supplierId int) ([]*Transaction, error) {
	if err := utils.ValidateResourceId[Supplier](ctx, supplierId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*Transaction
	err := db.WithContext(ctx).
		Where("supplier_id = ? AND kind = ?", supplierId, TransactionKindRedemption).
		Order("created_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateTransaction is an administrative override: it edits the record
// as stored and does NOT move any points.
func (input *Transaction) UpdateTransaction(ctx context.Context, id int) (*Transaction, error) {
	db := config.GetDB()

	if _, err := utils.FetchModel[Transaction](ctx, id); err != nil {
		return nil, err
	}
	if input.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", utils.ErrorValidation)
	}

	err := db.WithContext(ctx).Model(&Transaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":     input.Quantity,
			"points_spent": input.PointsSpent,
			"total":        input.Total,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Transaction](ctx, id)
}

// DeleteTransaction is an administrative override: points already spent
// stay spent.
func DeleteTransaction(ctx context.Context, id int) (*Transaction, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Transaction](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&Transaction{}, id).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
