package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"flowtasks/internal/models"
	"flowtasks/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentUserKey is the gin context key holding the authenticated *models.User.
const CurrentUserKey = "currentUser"

// AuthMiddleware 校验 JWT，并在 context 里放入当前用户。
func AuthMiddleware(tokens *util.TokenManager, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			util.Abort(c, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			util.Abort(c, http.StatusUnauthorized, "Not authorized, token failed")
			return
		}

		var user models.User
		if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Abort(c, http.StatusUnauthorized, "User not found")
			} else {
				slog.Error("load current user", "user_id", claims.UserID, "err", err)
				util.Abort(c, http.StatusInternalServerError, "Server Error")
			}
			return
		}

		c.Set(CurrentUserKey, &user)
		c.Next()
	}
}

// AdminMiddleware must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsAdmin() {
			util.Abort(c, http.StatusForbidden, "Not authorized as an admin")
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user placed in the context by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CurrentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
