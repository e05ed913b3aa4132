package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"
	repo "storefront/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
	CtxUserKey         = "user"          // *model.User（TokenVersionGuardの後だけ）
)

var errInvalidToken = errors.New("invalid token")

type authClaims struct {
	userID int64
	role   string
	tv     int
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := verifyBearer(cfg, c.Request().Header.Get("Authorization"))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			setClaims(c, claims)
			return next(c)
		}
	}
}

// OptionalAuthJWT はトークンがあって正しければuserを載せる。無ければ匿名で通す。
// 不正・失効したトークンも匿名扱い（カートはセッションで動く）。
func OptionalAuthJWT(cfg config.Config, userRepo repo.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return next(c)
			}
			claims, err := verifyBearer(cfg, authz)
			if err != nil {
				return next(c)
			}

			//token_versionが古ければ匿名
			user, err := userRepo.FindByID(c.Request().Context(), claims.userID)
			if err != nil || user == nil || user.TokenVersion != claims.tv {
				return next(c)
			}

			setClaims(c, claims)
			return next(c)
		}
	}
}

func setClaims(c echo.Context, claims authClaims) {
	c.Set(CtxUserIDKey, claims.userID)
	c.Set(CtxUserRoleKey, claims.role)
	c.Set(CtxTokenVersionKey, claims.tv)
}

// Authorizationヘッダを検証してclaimsを返す
func verifyBearer(cfg config.Config, authz string) (authClaims, error) {
	if authz == "" {
		return authClaims{}, errInvalidToken
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return authClaims{}, errInvalidToken
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return authClaims{}, errInvalidToken
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return authClaims{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authClaims{}, errInvalidToken
	}

	userID, err := parseUserID(claims["sub"])
	if err != nil || userID <= 0 {
		return authClaims{}, errInvalidToken
	}

	//roleを取り出す（USER/ADMIN）
	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return authClaims{}, errInvalidToken
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return authClaims{}, errInvalidToken
	}

	return authClaims{userID: userID, role: role, tv: tv}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.New("invalid string")
	}
	return s, nil
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case int:
		return t, nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
