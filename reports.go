package main

import (
	"fmt"

	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// kilosByMonthReportHandler exports a supplier's monthly delivered kilos
// as a spreadsheet.
func kilosByMonthReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		supplierId, ok := querySupplierId(c)
		if !ok {
			return
		}

		rows, err := models.KilosByMonth(c.Request.Context(), supplierId)
		if err != nil {
			writeModelError(c, err)
			return
		}

		f := excelize.NewFile()
		if _, err := f.NewSheet("Sheet1"); err != nil {
			writeModelError(c, err)
			return
		}

		// Add headers
		f.SetCellValue("Sheet1", "A1", "Month")
		f.SetCellValue("Sheet1", "B1", "TotalKilos")

		// Add data
		for i, row := range rows {
			f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), row.Month)
			f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), row.TotalWeight.StringFixed(2))
		}

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=kilos-by-month-%d.xlsx", supplierId))
		if err := f.Write(c.Writer); err != nil {
			_ = c.Error(err)
		}
	}
}
