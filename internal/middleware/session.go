package middleware

import (
	"errors"
	"net/http"

	"storefront/internal/config"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const CtxSessionKey = "session" // *session.Session

// Session はCookieのキーでセッションを読み込み、変更があればレスポンス前に保存する。
// 保存先に無いキーは使い回さず新しく発行する。
func Session(store repo.SessionStore, cfg config.Config, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var sess *session.Session
			if ck, err := c.Cookie(cfg.SessionCookieName); err == nil && ck.Value != "" {
				data, err := store.Load(ctx, ck.Value)
				switch {
				case err == nil:
					sess = session.New(ck.Value, data, false)
				case errors.Is(err, repo.ErrNotFound):
				default:
					log.Warn("session load failed", zap.Error(err))
				}
			}
			if sess == nil {
				sess = session.New(uuid.NewString(), session.Data{}, true)
			}
			c.Set(CtxSessionKey, sess)

			saved := false
			save := func() {
				if saved || !sess.Modified() {
					return
				}
				saved = true
				if err := store.Save(ctx, sess.Key, sess.Data(), cfg.SessionTTL); err != nil {
					log.Error("session save failed", zap.String("path", c.Path()), zap.Error(err))
					return
				}
				c.SetCookie(&http.Cookie{
					Name:     cfg.SessionCookieName,
					Value:    sess.Key,
					Path:     "/",
					MaxAge:   int(cfg.SessionTTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.IsProd(),
					SameSite: http.SameSiteLaxMode,
				})
			}

			//ヘッダ送信前に保存（Set-Cookieを付けるため）
			c.Response().Before(save)

			err := next(c)
			if !c.Response().Committed {
				save()
			}
			return err
		}
	}
}

// GetSession はSession middlewareが載せたセッションを返す
func GetSession(c echo.Context) *session.Session {
	s, _ := c.Get(CtxSessionKey).(*session.Session)
	return s
}
