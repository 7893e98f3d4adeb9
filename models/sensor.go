package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"gorm.io/gorm/clause"
)

// SensorData mirrors the plant's ambient sensor. Single row, created
// lazily with zero readings.
type SensorData struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Temperature float64   `gorm:"not null;default:0" json:"temperature"`
	Humidity    float64   `gorm:"not null;default:0" json:"humidity"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSensorData struct {
	Temperature *float64 `json:"temperature" binding:"required"`
	Humidity    *float64 `json:"humidity" binding:"required"`
}

// ServoMotorState mirrors the gate actuator. Single row.
type ServoMotorState struct {
	ID        int       `gorm:"primary_key" json:"id"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewServoMotorState struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func GetSensorData(ctx context.Context) (*SensorData, error) {
	db := config.GetDB()
	var result SensorData
	err := db.WithContext(ctx).
		Where(SensorData{ID: 1}).
		Clauses(clause.OnConflict{DoNothing: true}).
		FirstOrCreate(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func UpdateSensorData(ctx context.Context, input *NewSensorData) (*SensorData, error) {
	current, err := GetSensorData(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&SensorData{}).Where("id = ?", current.ID).
		Updates(map[string]interface{}{
			"temperature": *input.Temperature,
			"humidity":    *input.Humidity,
		}).Error
	if err != nil {
		return nil, err
	}
	current.Temperature = *input.Temperature
	current.Humidity = *input.Humidity
	return current, nil
}

func GetServoMotorState(ctx context.Context) (*ServoMotorState, error) {
	db := config.GetDB()
	var result ServoMotorState
	err := db.WithContext(ctx).
		Where(ServoMotorState{ID: 1}).
		Clauses(clause.OnConflict{DoNothing: true}).
		FirstOrCreate(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func UpdateServoMotorState(ctx context.Context, input *NewServoMotorState) (*ServoMotorState, error) {
	current, err := GetServoMotorState(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&ServoMotorState{}).Where("id = ?", current.ID).
		Update("is_active", *input.IsActive).Error
	if err != nil {
		return nil, err
	}
	current.IsActive = *input.IsActive
	return current, nil
}
