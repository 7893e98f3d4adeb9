package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Contribution is an immutable ledger entry: a supplier delivered Weight
// kilos of material and was credited Points at the rate in force.
type Contribution struct {
	ID         int             `gorm:"primary_key" json:"id"`
	SupplierId int             `gorm:"index;not null" json:"supplier_id"`
	Weight     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"weight"`
	Note       string          `gorm:"size:255" json:"note"`
	Points     int             `gorm:"not null" json:"points"`
	CreatedAt  time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewContribution struct {
	SupplierId int             `json:"supplier_id" binding:"required"`
	Weight     decimal.Decimal `json:"weight" binding:"required"`
	Note       string          `json:"note"`
}

type MonthlyKilos struct {
	Month       string          `json:"month"`
	TotalWeight decimal.Decimal `json:"total_weight"`
}

// PointsForWeight truncates fractional kilos before applying the rate,
// so 5.99 kg at rate 100 earns 500 points.
func PointsForWeight(weight decimal.Decimal, rate int) int {
	return int(weight.IntPart()) * rate
}

// RecordContribution credits a supplier for delivered kilos. The record
// insert and the balance increment commit together; fractional kilos earn
// nothing (points = whole kilos * rate).
func RecordContribution(ctx context.Context, input *NewContribution) (*Contribution, error) {

	db := config.GetDB()

	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return nil, err
	}
	if !input.Weight.IsPositive() {
		return nil, fmt.Errorf("%w: weight must be positive", utils.ErrorValidation)
	}

	var contribution Contribution
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rate, err := conversionRateTx(tx, ctx)
		if err != nil {
			return err
		}
		points := PointsForWeight(input.Weight, rate)

		contribution = Contribution{
			SupplierId: input.SupplierId,
			Weight:     input.Weight,
			Note:       input.Note,
			Points:     points,
		}
		if err := tx.Create(&contribution).Error; err != nil {
			return err
		}

		if err := tx.Model(&Supplier{}).Where("id = ?", input.SupplierId).
			UpdateColumn("points_balance", gorm.Expr("points_balance + ?", points)).Error; err != nil {
			return err
		}

		return PublishToLoyalty(ctx, tx, input.SupplierId, contribution.CreatedAt, contribution.ID,
			LoyaltyReferenceTypeContribution, points, &contribution, LoyaltyEventActionCreate)
	})
	if err != nil {
		return nil, err
	}
	return &contribution, nil
}

func GetContribution(ctx context.Context, id int) (*Contribution, error) {
	return utils.FetchModel[Contribution](ctx, id)
}

func GetAllContributions(ctx context.Context) ([]*Contribution, error) {
	return utils.FetchAllModels[Contribution](ctx)
}

// ListSupplierContributions returns a supplier's entries oldest first.
func ListSupplierContributions(ctx context.Context, supplierId int) ([]*Contribution, error) {
	if err := utils.ValidateResourceId[Supplier](ctx, supplierId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*Contribution
	err := db.WithContext(ctx).
		Where("supplier_id = ?", supplierId).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// KilosByMonth aggregates a supplier's delivered weight per calendar
// month in the DB timezone, oldest month first.
func KilosByMonth(ctx context.Context, supplierId int) ([]*MonthlyKilos, error) {
	if err := utils.ValidateResourceId[Supplier](ctx, supplierId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*MonthlyKilos
	err := db.WithContext(ctx).Model(&Contribution{}).
		Select("DATE_FORMAT(created_at, '%Y-%m') AS month, SUM(weight) AS total_weight").
		Where("supplier_id = ?", supplierId).
		Group("month").
		Order("month ASC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateContribution is an administrative override: it edits the record
// as stored and does NOT recompute the supplier's balance.
func (input *Contribution) UpdateContribution(ctx context.Context, id int) (*Contribution, error) {
	db := config.GetDB()

	if _, err := utils.FetchModel[Contribution](ctx, id); err != nil {
		return nil, err
	}
	if !input.Weight.IsPositive() {
		return nil, fmt.Errorf("%w: weight must be positive", utils.ErrorValidation)
	}

	err := db.WithContext(ctx).Model(&Contribution{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"weight": input.Weight,
			"note":   input.Note,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Contribution](ctx, id)
}

// DeleteContribution is an administrative override: the balance already
// credited stays with the supplier.
func DeleteContribution(ctx context.Context, id int) (*Contribution, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Contribution](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&Contribution{}, id).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
