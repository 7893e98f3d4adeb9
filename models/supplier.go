package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"gorm.io/gorm"
)

// Supplier is a recycling-material supplier. PointsBalance is only ever
// mutated by RecordContribution (credit) and Redeem (debit); both run in
// a single DB transaction so it never goes negative.
type Supplier struct {
	ID            int       `gorm:"primary_key" json:"id"`
	UserId        int       `gorm:"index;not null" json:"user_id"`
	Name          string    `gorm:"size:100;not null" json:"name" binding:"required"`
	LastName      string    `gorm:"size:100" json:"last_name"`
	Dni           string    `gorm:"size:15;unique" json:"dni"`
	Ruc           string    `gorm:"size:15" json:"ruc"`
	Address       string    `gorm:"size:255" json:"address"`
	Phone         string    `gorm:"size:20" json:"phone"`
	PointsBalance int       `gorm:"not null;default:0" json:"points_balance"`
	IsActive      *bool     `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name"`
	Dni      string `json:"dni" binding:"required"`
	Ruc      string `json:"ruc"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

type SupplierProfile struct {
	Supplier   Supplier   `json:"supplier"`
	Redeemable []*Product `json:"redeemable_products"`
}

// SupplierRef is the slim supplier shape embedded in admin listings.
type SupplierRef struct {
	Id       int    `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	Dni      string `json:"dni"`
}

func (s *Supplier) Ref() SupplierRef {
	return SupplierRef{
		Id:       s.ID,
		Name:     s.Name,
		LastName: s.LastName,
		Dni:      s.Dni,
	}
}

// RegisterSupplier creates the login user and the supplier row together.
// New suppliers always start with a zero balance.
func RegisterSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	db := config.GetDB()

	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
		}
	}
	if err := utils.ValidateUnique[Supplier](ctx, "dni", input.Dni, 0); err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
	}

	var supplier Supplier
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hashedPassword, err := utils.HashPassword(input.Password)
		if err != nil {
			return err
		}
		user := User{
			Username: strings.TrimSpace(input.Username),
			Name:     strings.TrimSpace(input.Name + " " + input.LastName),
			Email:    utils.NilIfEmpty(strings.ToLower(input.Email)),
			Password: string(hashedPassword),
			IsActive: utils.NewTrue(),
			Role:     UserRoleSupplier,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		supplier = Supplier{
			UserId:        user.ID,
			Name:          input.Name,
			LastName:      input.LastName,
			Dni:           input.Dni,
			Ruc:           input.Ruc,
			Address:       input.Address,
			Phone:         input.Phone,
			PointsBalance: 0,
			IsActive:      utils.NewTrue(),
		}
		return tx.Create(&supplier).Error
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

func GetAllSuppliers(ctx context.Context) ([]*Supplier, error) {
	return utils.FetchAllModels[Supplier](ctx)
}

// GetSupplierByUserId resolves the supplier row behind a logged-in user.
func GetSupplierByUserId(ctx context.Context, userId int) (*Supplier, error) {
	db := config.GetDB()
	var result Supplier
	if err := db.WithContext(ctx).Where("user_id = ?", userId).First(&result).Error; err != nil {
		return nil, utils.NotFoundOr(err)
	}
	return &result, nil
}

// GetBalance is a pure read of the current points balance.
func GetBalance(ctx context.Context, supplierId int) (int, error) {
	supplier, err := GetSupplier(ctx, supplierId)
	if err != nil {
		return 0, err
	}
	return supplier.PointsBalance, nil
}

// GetSupplierProfile returns the caller's supplier record together with
// the redeemable catalog, for the supplier-facing app home screen.
func GetSupplierProfile(ctx context.Context) (*SupplierProfile, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, fmt.Errorf("%w: user id is required", utils.ErrorUnauthorized)
	}
	supplier, err := GetSupplierByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}
	redeemable, err := GetRedeemableProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierProfile{Supplier: *supplier, Redeemable: redeemable}, nil
}

func (input *Supplier) UpdateSupplier(ctx context.Context, id int) (*Supplier, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Dni != "" && input.Dni != existing.Dni {
		if err := utils.ValidateUnique[Supplier](ctx, "dni", input.Dni, id); err != nil {
			return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
		}
	}

	// PointsBalance is intentionally not updatable here.
	err = db.WithContext(ctx).Model(&Supplier{}).Where("id = ?", id).
		Updates(Supplier{
			Name:     input.Name,
			LastName: input.LastName,
			Dni:      input.Dni,
			Ruc:      input.Ruc,
			Address:  input.Address,
			Phone:    input.Phone,
			IsActive: input.IsActive,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Supplier](ctx, id)
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(&Supplier{}, id).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
