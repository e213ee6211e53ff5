package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // string (uuid)
	CtxUserRoleKey     = "user_role"     // model.Role
	CtxTokenVersionKey = "token_version" // int
)

type tokenClaims struct {
	userID string
	role   model.Role
	tv     int
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tc, ok := parseBearer(c.Request().Header.Get("Authorization"), cfg.JWTSecret)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//contextへ保存
			setClaims(c, tc)
			return next(c)
		}
	}
}

// ゲストも通す。トークンが正しければcontextに入れる（checkoutのcustomerId用）
func OptionalAuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tc, ok := parseBearer(c.Request().Header.Get("Authorization"), cfg.JWTSecret); ok {
				setClaims(c, tc)
			}
			return next(c)
		}
	}
}

func setClaims(c echo.Context, tc tokenClaims) {
	c.Set(CtxUserIDKey, tc.userID)
	c.Set(CtxUserRoleKey, tc.role)
	c.Set(CtxTokenVersionKey, tc.tv)
}

func parseBearer(authz string, secret string) (tokenClaims, bool) {
	var tc tokenClaims
	if authz == "" {
		return tc, false
	}

	//Bearer形式か確認してtokenを抜く
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return tc, false
	}
	rawToken := strings.TrimSpace(parts[1])
	if rawToken == "" {
		return tc, false
	}

	//JWTをパースして検証する
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return tc, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return tc, false
	}

	//subはuserのuuid
	userID, err := parseString(claims["sub"])
	if err != nil || userID == "" {
		return tc, false
	}

	role, err := parseString(claims["role"])
	if err != nil || role == "" {
		return tc, false
	}

	tv, err := parseInt(claims["tv"])
	if err != nil || tv < 0 {
		return tc, false
	}

	return tokenClaims{userID: userID, role: model.Role(role), tv: tv}, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
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
