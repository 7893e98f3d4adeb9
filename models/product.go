package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/shopspring/decimal"
)

// Product lives in one catalog with two kinds: sale products ('V') are
// sold for money, redeemable products ('C') are exchanged for points.
type Product struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Name           string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description    string          `gorm:"size:255" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"price"`
	PointsRequired int             `gorm:"not null;default:0" json:"points_required"`
	Kind           ProductKind     `gorm:"type:enum('V','C');default:'V'" json:"kind"`
	ImageKey       string          `gorm:"size:255" json:"image_key"`
	IsActive       *bool           `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	PointsRequired int             `json:"points_required"`
	Kind           ProductKind     `json:"kind" binding:"required"`
	ImageKey       string          `json:"image_key"`
}

// ProductSnapshot is the denormalized shape embedded in redemption
// listings: price rendered as text and the image key resolved to a URL.
type ProductSnapshot struct {
	Id             int    `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	PointsRequired int    `json:"points_required"`
	Kind           string `json:"kind"`
	ImageUrl       string `json:"image_url"`
}

func (p *Product) Snapshot() ProductSnapshot {
	imageUrl := ""
	if p.ImageKey != "" {
		imageUrl = utils.BuildObjectAccessURL(p.ImageKey)
	}
	return ProductSnapshot{
		Id:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price.StringFixed(2),
		PointsRequired: p.PointsRequired,
		Kind:           string(p.Kind),
		ImageUrl:       imageUrl,
	}
}

/*
caches:
	ProductList (redeemable catalog)
*/

func (p Product) RemoveAllRedis() error {
	return utils.RemoveRedisList[Product]()
}

func validateProductInput(kind ProductKind, price decimal.Decimal, pointsRequired int) error {
	if !kind.IsValid() {
		return fmt.Errorf("%w: invalid product kind", utils.ErrorValidation)
	}
	if kind == ProductKindSale && !price.IsPositive() {
		return fmt.Errorf("%w: sale products need a positive price", utils.ErrorValidation)
	}
	if kind == ProductKindRedeemable && pointsRequired <= 0 {
		return fmt.Errorf("%w: redeemable products need positive points_required", utils.ErrorValidation)
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := validateProductInput(input.Kind, input.Price, input.PointsRequired); err != nil {
		return nil, err
	}

	product := Product{
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		PointsRequired: input.PointsRequired,
		Kind:           input.Kind,
		ImageKey:       input.ImageKey,
		IsActive:       utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	if err := product.RemoveAllRedis(); err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

func GetAllProducts(ctx context.Context) ([]*Product, error) {
	return utils.FetchAllModels[Product](ctx)
}

// GetRedeemableProducts reads the redeemable catalog, redis or db, caching
// the result.
func GetRedeemableProducts(ctx context.Context) ([]*Product, error) {
	results, err := utils.RetrieveRedisList[Product]()
	if err != nil {
		return nil, err
	}
	// if not exists in redis
	if results == nil {
		results, err = utils.FetchModelsWhere[Product](ctx, "kind = ?", ProductKindRedeemable)
		if err != nil {
			return nil, err
		}
		// caching
		if err := utils.StoreRedisList[Product](results); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (input *Product) UpdateProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	if _, err := utils.FetchModel[Product](ctx, id); err != nil {
		return nil, err
	}
	if err := validateProductInput(input.Kind, input.Price, input.PointsRequired); err != nil {
		return nil, err
	}

	err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":            input.Name,
			"description":     input.Description,
			"price":           input.Price,
			"points_required": input.PointsRequired,
			"kind":            input.Kind,
			"image_key":       input.ImageKey,
			"is_active":       input.IsActive,
		}).Error
	if err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(Product{ID: id}); err != nil {
		return nil, err
	}
	return utils.FetchModel[Product](ctx, id)
}

func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&Product{}, id).Error; err != nil {
		return nil, err
	}
	if err := RemoveRedisBoth(*existing); err != nil {
		return nil, err
	}
	if existing.ImageKey != "" {
		// best effort, image cleanup must not fail the delete
		_ = utils.DeleteImageFromGCS(ctx, existing.ImageKey)
	}
	return existing, nil
}
