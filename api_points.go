package main

import (
	"errors"
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// writeModelError maps the model error taxonomy onto HTTP statuses.
func writeModelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func writeBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func createContributionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		var input models.NewContribution
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "RecordContribution",
			trace.WithAttributes(attribute.Int("supplier_id", input.SupplierId)))
		defer span.End()

		record, err := models.RecordContribution(ctx, &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, record)
	}
}

func redeemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		var input models.NewRedemption
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "Redeem",
			trace.WithAttributes(
				attribute.Int("supplier_id", input.SupplierId),
				attribute.Int("product_id", input.ProductId),
			))
		defer span.End()

		// Best-effort lock to shed contention early; the row lock inside
		// Redeem is what actually guarantees correctness.
		lock := utils.ObtainSupplierLock(ctx, input.SupplierId, "api_points.go", "redeemHandler")
		defer utils.ReleaseSupplierLock(ctx, lock)

		txn, err := models.Redeem(ctx, &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func balanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		balance, err := models.GetBalance(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"points_balance": balance})
	}
}

func getConfigurationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		conf, err := models.GetConfiguration(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversion_rate": conf.ConversionRate})
	}
}

func updateConfigurationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewConfiguration
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		conf, err := models.SetConversionRate(c.Request.Context(), *input.ConversionRate)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversion_rate": conf.ConversionRate})
	}
}
