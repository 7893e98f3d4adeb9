package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultConversionRate = 100

// Configuration is a single-row table holding the kilo-to-points
// conversion rate. The row is created lazily with the default rate.
type Configuration struct {
	ID             int       `gorm:"primary_key" json:"id"`
	ConversionRate int       `gorm:"not null;default:100" json:"conversion_rate"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewConfiguration struct {
	ConversionRate *int `json:"conversion_rate" binding:"required"`
}

/*
caches:
	Configuration:1
*/

func (c Configuration) RemoveInstanceRedis() error {
	return config.RemoveRedisKey("Configuration:1")
}

// GetConfiguration returns the singleton row, creating it with the
// default rate on first access.
func GetConfiguration(ctx context.Context) (*Configuration, error) {
	cached, err := utils.RetrieveRedis[Configuration](1)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var result Configuration
	err = db.WithContext(ctx).
		Where(Configuration{ID: 1}).
		Attrs(Configuration{ConversionRate: DefaultConversionRate}).
		Clauses(clause.OnConflict{DoNothing: true}).
		FirstOrCreate(&result).Error
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedis[Configuration](&result, 1); err != nil {
		return nil, err
	}
	return &result, nil
}

func GetConversionRate(ctx context.Context) (int, error) {
	cfg, err := GetConfiguration(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.ConversionRate, nil
}

// SetConversionRate updates the global rate. Negative rates are rejected;
// zero is allowed and makes future contributions earn nothing.
func SetConversionRate(ctx context.Context, rate int) (*Configuration, error) {
	if rate < 0 {
		return nil, fmt.Errorf("%w: conversion rate must not be negative", utils.ErrorValidation)
	}

	cfg, err := GetConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Configuration{}).
		Where("id = ?", cfg.ID).
		Update("conversion_rate", rate).Error; err != nil {
		return nil, err
	}
	cfg.ConversionRate = rate

	if err := RemoveRedisBoth(*cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// used inside transactions so the accrual reads a consistent rate
func conversionRateTx(tx *gorm.DB, ctx context.Context) (int, error) {
	var result Configuration
	err := tx.WithContext(ctx).
		Where(Configuration{ID: 1}).
		Attrs(Configuration{ConversionRate: DefaultConversionRate}).
		FirstOrCreate(&result).Error
	if err != nil {
		return 0, err
	}
	return result.ConversionRate, nil
}
