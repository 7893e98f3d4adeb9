package middlewares

import (
	"context"
	"net/http"

	"bitbucket.org/mmdatafocus/recycle_backend/config"
	"bitbucket.org/mmdatafocus/recycle_backend/models"
	"bitbucket.org/mmdatafocus/recycle_backend/utils"
	"github.com/gin-gonic/gin"
)

func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		username, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyToken, token)
		ctx = context.WithValue(ctx, utils.ContextKeyUsername, username)

		// resolve the user so handlers get id/role without another lookup
		user := models.User{}
		cached, err := config.GetRedisObject("User:"+username, &user)
		if err == nil && !cached {
			db := config.GetDB()
			if db != nil {
				if derr := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Take(&user).Error; derr == nil {
					_ = config.SetRedisObject("User:"+username, &user, utils.GetCacheLifespan())
				}
			}
		}
		if user.ID != 0 {
			ctx = context.WithValue(ctx, utils.ContextKeyUserId, user.ID)
			ctx = context.WithValue(ctx, utils.ContextKeyUserName, user.Name)
			ctx = context.WithValue(ctx, utils.ContextKeyIsAdmin, user.Role == models.UserRoleAdmin)
			if user.Role == models.UserRoleSupplier {
				if supplier, serr := models.GetSupplierByUserId(ctx, user.ID); serr == nil {
					ctx = context.WithValue(ctx, utils.ContextKeySupplierId, supplier.ID)
				}
			}
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
