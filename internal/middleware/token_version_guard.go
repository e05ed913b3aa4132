package middleware

import (
	"net/http"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard はトークンのtvがDBのtoken_versionと同じときだけ通す。
// force-logout済み・削除済みは401、停止中のアカウントは403。
func TokenVersionGuard(users repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, errorJSON("db error"))
			}
			if user == nil || user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
			}

			c.Set(CtxUserKey, user)
			return next(c)
		}
	}
}

func currentUser(c echo.Context) *model.User {
	u, _ := c.Get(CtxUserKey).(*model.User)
	return u
}
