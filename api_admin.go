package main

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/recycle_backend/middlewares"
	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/gin-gonic/gin"
)

// querySupplierId resolves which supplier a self-service query targets:
// suppliers get their own id from the session, admins may pass ?supplier_id=.
func querySupplierId(c *gin.Context) (int, bool) {
	if v := c.Query("supplier_id"); v != "" {
		isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
		if !isAdmin {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return 0, false
		}
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid supplier_id"})
			return 0, false
		}
		return id, true
	}
	id, ok := utils.GetSupplierIdFromContext(c.Request.Context())
	if !ok || id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}

func supplierRedemptionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		supplierId, ok := querySupplierId(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		txns, err := models.ListSupplierRedemptions(ctx, supplierId)
		if err != nil {
			writeModelError(c, err)
			return
		}

		// One batched product query for the whole page.
		ids := make([]int, 0, len(txns))
		for _, txn := range txns {
			ids = append(ids, txn.ProductId)
		}
		ids = utils.UniqueSlice(ids)
		products, errs := middlewares.GetProducts(ctx, ids)
		for _, perr := range errs {
			if perr != nil {
				writeModelError(c, perr)
				return
			}
		}
		byId := make(map[int]*models.Product, len(products))
		for _, p := range products {
			byId[p.ID] = p
		}

		views := make([]models.RedemptionView, 0, len(txns))
		for _, txn := range txns {
			views = append(views, models.RedemptionView{
				Transaction: *txn,
				Product:     byId[txn.ProductId].Snapshot(),
			})
		}
		c.JSON(http.StatusOK, views)
	}
}

func kilosByMonthHandler() gin.HandlerFunc {
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
		c.JSON(http.StatusOK, rows)
	}
}

// Users.

func listUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		users, err := models.GetAllUsers(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		for _, u := range users {
			u.PrepareGive()
		}
		c.JSON(http.StatusOK, users)
	}
}

func getUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		user, err := models.GetUser(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusOK, user)
	}
}

func updateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.User
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		user, err := input.UpdateUser(id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusOK, user)
	}
}

func deleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		user, err := (&models.User{}).DeleteUser(id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		user.PrepareGive()
		c.JSON(http.StatusOK, user)
	}
}

// Suppliers.

func listSuppliersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		suppliers, err := models.GetAllSuppliers(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, suppliers)
	}
}

func getSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		supplier, err := models.GetSupplier(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func updateSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.Supplier
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		supplier, err := input.UpdateSupplier(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

func deleteSupplierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		supplier, err := models.DeleteSupplier(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, supplier)
	}
}

// Customers.

func listCustomersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		customers, err := models.GetAllCustomers(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, customers)
	}
}

func getCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		customer, err := models.GetCustomer(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func createCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewCustomer
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		customer, err := models.CreateCustomer(c.Request.Context(), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func updateCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.Customer
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		customer, err := input.UpdateCustomer(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func deleteCustomerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		customer, err := models.DeleteCustomer(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

// Products.

func listProductsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		// Suppliers only see the redeemable catalog; admins see everything.
		isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
		if !isAdmin {
			products, err := models.GetRedeemableProducts(c.Request.Context())
			if err != nil {
				writeModelError(c, err)
				return
			}
			c.JSON(http.StatusOK, products)
			return
		}
		products, err := models.GetAllProducts(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

func getProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		product, err := models.GetProduct(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func createProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewProduct
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		product, err := models.CreateProduct(c.Request.Context(), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

func updateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.Product
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		product, err := input.UpdateProduct(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

func deleteProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		product, err := models.DeleteProduct(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// Transactions.

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		ctx := c.Request.Context()
		txns, err := models.GetAllTransactions(ctx)
		if err != nil {
			writeModelError(c, err)
			return
		}

		// One batched supplier query for the whole listing; sales have none.
		ids := make([]int, 0, len(txns))
		for _, txn := range txns {
			if txn.SupplierId != nil {
				ids = append(ids, *txn.SupplierId)
			}
		}
		ids = utils.UniqueSlice(ids)
		byId := make(map[int]*models.Supplier, len(ids))
		if len(ids) > 0 {
			suppliers, errs := middlewares.GetSuppliers(ctx, ids)
			for _, serr := range errs {
				if serr != nil {
					writeModelError(c, serr)
					return
				}
			}
			for _, s := range suppliers {
				byId[s.ID] = s
			}
		}

		views := make([]models.TransactionView, 0, len(txns))
		for _, txn := range txns {
			view := models.TransactionView{Transaction: *txn}
			if txn.SupplierId != nil {
				if s := byId[*txn.SupplierId]; s != nil {
					ref := s.Ref()
					view.Supplier = &ref
				}
			}
			views = append(views, view)
		}
		c.JSON(http.StatusOK, views)
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		txn, err := models.GetTransaction(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

// updateTransactionHandler is an administrative override: it edits the
// record as stored and does not recompute supplier balances.
func updateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.Transaction
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		txn, err := input.UpdateTransaction(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		txn, err := models.DeleteTransaction(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func createSaleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		var input models.NewSale
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		txn, err := models.RecordSale(c.Request.Context(), &input)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

// Contributions (admin listing + overrides; accrual happens on POST /contributions).

func listContributionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireSession(c) {
			return
		}
		if v := c.Query("supplier_id"); v != "" {
			supplierId, ok := querySupplierId(c)
			if !ok {
				return
			}
			records, err := models.ListSupplierContributions(c.Request.Context(), supplierId)
			if err != nil {
				writeModelError(c, err)
				return
			}
			c.JSON(http.StatusOK, records)
			return
		}
		if supplierId, ok := utils.GetSupplierIdFromContext(c.Request.Context()); ok && supplierId != 0 {
			records, err := models.ListSupplierContributions(c.Request.Context(), supplierId)
			if err != nil {
				writeModelError(c, err)
				return
			}
			c.JSON(http.StatusOK, records)
			return
		}
		if !requireAdmin(c) {
			return
		}
		records, err := models.GetAllContributions(c.Request.Context())
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

func getContributionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.GetContribution(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// updateContributionHandler is an administrative override: the ledger
// record is edited in place and the balance is left alone.
func updateContributionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input models.Contribution
		if err := c.ShouldBindJSON(&input); err != nil {
			writeBindingError(c, err)
			return
		}
		record, err := input.UpdateContribution(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func deleteContributionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !requireAdmin(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		record, err := models.DeleteContribution(c.Request.Context(), id)
		if err != nil {
			writeModelError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}
