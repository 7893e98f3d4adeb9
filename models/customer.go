package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
)

// Customer buys sale-kind products at the plant shop. Customers have no
// points balance; loyalty is supplier-side only.
type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Dni       string    `gorm:"size:15;unique" json:"dni"`
	Ruc       string    `gorm:"size:15" json:"ruc"`
	Address   string    `gorm:"size:255" json:"address"`
	Phone     string    `gorm:"size:20" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name     string `json:"name" binding:"required"`
	LastName string `json:"last_name"`
	Dni      string `json:"dni" binding:"required"`
	Ruc      string `json:"ruc"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()

	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
		}
	}
	if err := utils.ValidateUnique[Customer](ctx, "dni", input.Dni, 0); err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
	}

	customer := Customer{
		Name:     input.Name,
		LastName: input.LastName,
		Dni:      input.Dni,
		Ruc:      input.Ruc,
		Address:  input.Address,
		Phone:    input.Phone,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func GetAllCustomers(ctx context.Context) ([]*Customer, error) {
	return utils.FetchAllModels[Customer](ctx)
}

func (input *Customer) UpdateCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()

	existing, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Dni != "" && input.Dni != existing.Dni {
		if err := utils.ValidateUnique[Customer](ctx, "dni", input.Dni, id); err != nil {
			return nil, fmt.Errorf("%w: %s", utils.ErrorValidation, err.Error())
		}
	}

	err = db.WithContext(ctx).Model(&Customer{}).Where("id = ?", id).
		Updates(Customer{
			Name:     input.Name,
			LastName: input.LastName,
			Dni:      input.Dni,
			Ruc:      input.Ruc,
			Address:  input.Address,
			Phone:    input.Phone,
		}).Error
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Customer](ctx, id)
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	existing, err := utils.FetchModel[Customer](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.DeleteModel[Customer](ctx, id); err != nil {
		return nil, err
	}
	return existing, nil
}
