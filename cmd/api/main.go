package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/broker/kafka"
	"storefront/internal/cartsync"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/rediscache"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/integrations/pokemontcg"
	"storefront/internal/integrations/resend"
	"storefront/internal/integrations/stockx"
	"storefront/internal/integrations/stripepay"
	"storefront/internal/integrations/twilio"
	"storefront/internal/notify"
	"storefront/internal/ratelimit"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	cartSyncDelay = 5 * time.Second
	notifyWorkers = 4
	notifyQueue   = 256
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

func setupLogger(cfg config.Config) {
	var h slog.Handler
	if cfg.IsProd() {
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(h))
}

func main() {
	//.envは無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err.Error())
		os.Exit(1)
	}
	setupLogger(cfg)

	if err := run(cfg); err != nil {
		slog.Error("api exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limits, err := config.LoadRateLimitRules(cfg.RateLimitFile)
	if err != nil {
		return err
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	idGen := &uuidGenerator{}
	clock := &realClock{}

	//レート制限: REDIS_ADDRがあれば共有カウンタ、無ければプロセス内
	var (
		rlStore     ratelimit.Store
		stockxCache stockx.Cache
	)
	if cfg.RedisAddr != "" {
		rdb := rediscache.NewClient(cfg.RedisAddr)
		defer rdb.Close()
		rlStore = rediscache.NewRateLimitStore(rdb)
		stockxCache = rediscache.New(rdb, "storefront:")
	} else {
		mem := ratelimit.NewMemoryStore()
		mem.StartSweep(ctx, nil, limits.SweepInterval)
		rlStore = mem
	}
	limiter := ratelimit.New(rlStore, nil)

	//通知: KAFKA_BROKERSがあればnotify-workerへ、無ければプロセス内のワーカー
	var notifier notify.Dispatcher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
		notifier = notify.NewKafkaDispatcher(producer, cfg.NotifyTopic)
	} else {
		router := notify.NewRouter(
			twilio.New("", cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber),
			resend.New("", cfg.ResendAPIKey, cfg.EmailFrom),
		)
		pool := notify.NewPool(router, notifyWorkers, notifyQueue)
		defer func() {
			cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := pool.Close(cctx); err != nil {
				slog.Warn("notify pool close", "error", err.Error())
			}
		}()
		notifier = pool
	}

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	cartRepo := infraRepo.NewAbandonedCartGormRepository(gormDB)
	discountRepo := infraRepo.NewDiscountGormRepository(gormDB)
	giftCardRepo := infraRepo.NewGiftCardGormRepository(gormDB)
	ticketRepo := infraRepo.NewTicketGormRepository(gormDB)
	contactRepo := infraRepo.NewContactGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	subscriberRepo := infraRepo.NewSubscriberGormRepository(gormDB)

	//外部API
	gateway := stripepay.NewGateway(cfg.StripeSecretKey)
	verifier := stripepay.NewVerifier(cfg.StripeWebhookSecret)
	tokens := stockx.NewTokenSource("", cfg.StockXClientID, cfg.StockXClientSecret, cfg.StockXRefreshToken, stockxCache)
	prices := stockx.NewClient("", cfg.StockXAPIKey, tokens)
	catalog := pokemontcg.New("", cfg.PokemonTCGAPIKey)

	//放棄カートの書き込みは5秒デバウンス。終了時に保留分を書き出す
	debouncer := cartsync.New(cartSyncDelay)
	defer debouncer.Flush()

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, auth.NewBcryptPasswordHasher(12), idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(cfg.JWTSecret, auth.AccessTokenTTL), clock)
	forceLogoutUC := auth.NewForceLogoutUsecase(userRepo)

	checkoutUC := usecase.NewCheckoutUsecase(gateway)
	cartUC := usecase.NewAbandonedCartUsecase(txm, cartRepo, discountRepo, debouncer, notifier, idGen, clock)
	paymentUC := usecase.NewPaymentWebhookUsecase(verifier, txm, cartUC, notifier, idGen, clock, cfg.OrderPrefix)
	shippingUC := usecase.NewShippingWebhookUsecase(orderRepo, clock)
	pickupUC := usecase.NewPickupUsecase(txm, notifier, clock)
	discountUC := usecase.NewDiscountUsecase(discountRepo, clock)
	giftCardUC := usecase.NewGiftCardUsecase(giftCardRepo, clock)
	ticketUC := usecase.NewTicketUsecase(txm, ticketRepo, notifier, idGen, clock, cfg.AdminEmail)
	contactUC := usecase.NewContactUsecase(contactRepo, notifier, idGen, clock, cfg.AdminEmail)
	subscribeUC := usecase.NewSubscribeUsecase(subscriberRepo, clock)
	orderReadUC := usecase.NewOrderReadUsecase(orderRepo, userRepo)
	cardSearchUC := usecase.NewCardSearchUsecase(catalog)
	cardInventoryUC := usecase.NewCardInventoryUsecase(txm, clock)
	priceSyncUC := usecase.NewPriceSyncUsecase(txm, productRepo, prices, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	e := server.New(cfg, limits, limiter, userRepo,
		handler.NewHealthHandler(cfg),
		handler.NewAuthHandler(registerUC, loginUC),
		handler.NewAdminUserHandler(forceLogoutUC),
		handler.NewCheckoutHandler(checkoutUC),
		handler.NewWebhookHandler(paymentUC, shippingUC),
		handler.NewPromoHandler(discountUC, giftCardUC),
		handler.NewOrderHandler(orderReadUC),
		handler.NewAdminOrderHandler(pickupUC, auditUC),
		handler.NewTicketHandler(ticketUC),
		handler.NewContactHandler(contactUC, subscribeUC),
		handler.NewCartHandler(cartUC),
		handler.NewCardHandler(cardSearchUC, cardInventoryUC, priceSyncUC),
	)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	return server.Start(ctx, e, addr)
}
