package models

import (
	"log"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Supplier{}, &Customer{},
		&Product{},
		&Contribution{}, &Transaction{},
		&Configuration{},
		&SensorData{}, &ServoMotorState{},
		&LoyaltyEventRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
