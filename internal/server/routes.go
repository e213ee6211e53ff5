package server

import (
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"

	"github.com/labstack/echo/v4"
)

// 各handlerが満たす
type RouteRegistrar interface {
	RegisterRoutes(api *echo.Group, g handler.Guards)
}

func buildGuards(cfg config.Config, limits config.RateLimitConfig, limiter *ratelimit.Limiter, userRepo repository.UserRepository) handler.Guards {
	authChain := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
	}
	adminChain := append(append([]echo.MiddlewareFunc{}, authChain...), middleware.AdminRoleGuard())

	return handler.Guards{
		Auth:    authChain,
		OptAuth: middleware.OptionalAuthJWT(cfg),
		Admin:   adminChain,
		Cron:    middleware.CronSecretGuard(cfg.CronSecret),
		RateLimit: func(rule string) echo.MiddlewareFunc {
			r := limits.Rule(rule)
			return ratelimit.Middleware(limiter, rule, r.Limit, r.Window())
		},
	}
}

// RegisterRoutesは全handlerを/api配下に登録する
func RegisterRoutes(e *echo.Echo, g handler.Guards, hs ...RouteRegistrar) {
	api := e.Group("/api")
	for _, h := range hs {
		h.RegisterRoutes(api, g)
	}
}
