package main

import (
	"net/http"

	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"github.com/gin-gonic/gin"
)

// Deposit station peripherals: ambient sensor readings and the gate servo.
// Both are single-row resources created on first read.

func getSensorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := models.GetSensorData(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

func updateSensorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSensorData
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		data, err := models.UpdateSensorData(c.Request.Context(), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

func getServoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := models.GetServoMotorState(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

func updateServoHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewServoMotorState
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		state, err := models.UpdateServoMotorState(c.Request.Context(), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}
