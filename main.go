package main

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MMN3003/payagent/src/Infrastructure/ethereum"
	"github.com/MMN3003/payagent/src/Infrastructure/facilitator"
	"github.com/MMN3003/payagent/src/Infrastructure/fhe"
	"github.com/MMN3003/payagent/src/Infrastructure/rabbitmq"
	"github.com/MMN3003/payagent/src/Infrastructure/redislock"
	"github.com/MMN3003/payagent/src/config"
	cronRepo "github.com/MMN3003/payagent/src/cron/repository"
	cronUsecase "github.com/MMN3003/payagent/src/cron/usecase"
	"github.com/MMN3003/payagent/src/keylock"
	"github.com/MMN3003/payagent/src/logger"
	quoteHD "github.com/MMN3003/payagent/src/quote/delivery/http"
	quotedomain "github.com/MMN3003/payagent/src/quote/domain"
	quoteRepo "github.com/MMN3003/payagent/src/quote/repository"
	quote "github.com/MMN3003/payagent/src/quote/usecase"
	quoteadapter "github.com/MMN3003/payagent/src/session/adapter/quote"
	sessionHD "github.com/MMN3003/payagent/src/session/delivery/http"
	sessiondomain "github.com/MMN3003/payagent/src/session/domain"
	sessionRepo "github.com/MMN3003/payagent/src/session/repository"
	session "github.com/MMN3003/payagent/src/session/usecase"
	commissionadapter "github.com/MMN3003/payagent/src/settlement/adapter/commission"
	cronadapter "github.com/MMN3003/payagent/src/settlement/adapter/cron"
	encryptionadapter "github.com/MMN3003/payagent/src/settlement/adapter/encryption"
	facilitatoradapter "github.com/MMN3003/payagent/src/settlement/adapter/facilitator"
	sessionadapter "github.com/MMN3003/payagent/src/settlement/adapter/session"
	settlementHD "github.com/MMN3003/payagent/src/settlement/delivery/http"
	settlementdomain "github.com/MMN3003/payagent/src/settlement/domain"
	settlementRepo "github.com/MMN3003/payagent/src/settlement/repository"
	settlement "github.com/MMN3003/payagent/src/settlement/usecase"

	_ "github.com/MMN3003/payagent/docs" // Swagger docs
	_ "github.com/lib/pq"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// stores groups the persistence backends picked at boot.
type stores struct {
	quotes   quotedomain.QuoteRepository
	sessions sessiondomain.SessionRepository
	payments settlementdomain.PaymentRepository
	crons    *cronUsecase.Service
	close    func()
}

//	@title						payagent API
//	@version					1.0
//	@description				Stablecoin payment sessions settled through an x402 facilitator.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.New("dev").Fatalf("Invalid configuration: %v", err)
	}
	logg := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	st := openStores(ctx, cfg, logg)
	defer st.close()

	// --- Locking ---
	var locker keylock.Locker = keylock.NewRegistry()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logg.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logg.Fatalf("Failed to reach redis: %v", err)
		}
		locker = redislock.New(rdb, "payagent:lock", cfg.LockTTL)
		logg.Infof("Using redis session locks")
	}

	// --- Events ---
	var publisher rabbitmq.Publisher = rabbitmq.NewEventProducerFallback(logg)
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, cfg.EventsExchange, logg)
		if err != nil {
			logg.Warnf("RabbitMQ unavailable, events will only be logged: %v", err)
		} else {
			publisher = producer
		}
	}
	defer publisher.Close()

	// --- Facilitator ---
	facClient, err := facilitator.NewClient(cfg.FacilitatorURL,
		facilitator.WithHTTPClient(&http.Client{Timeout: cfg.FacilitatorTimeout}),
		facilitator.WithLogger(logg.Zerolog()))
	if err != nil {
		logg.Fatalf("Invalid facilitator config: %v", err)
	}
	probeFacilitator(ctx, facClient, cfg.Network, logg)

	// --- Dependencies ---
	quoteSvc := quote.NewService(st.quotes, quote.NewFixedRateProvider(), logg, cfg.QuoteTTL)
	sessionSvc := session.NewService(st.sessions, quoteadapter.NewQuotePort(quoteSvc), logg, session.Settings{
		SessionTTL:      cfg.SessionTTL,
		FacilitatorURL:  cfg.FacilitatorURL,
		MerchantAddress: cfg.MerchantAddress,
	})

	opts := []settlement.Option{settlement.WithPublisher(publisher)}
	if cfg.Ethereum.Enabled() {
		ethClient, err := ethereum.NewEthereumClient(ctx, ethereum.Config{
			RPCURL:          cfg.Ethereum.RPCURL,
			PrivateKey:      cfg.Ethereum.TreasuryKey,
			ChainID:         big.NewInt(cfg.Ethereum.ChainID),
			SupportedTokens: map[string]string{string(quotedomain.CurrencyUSDC): cfg.Ethereum.USDCContractAddress},
		})
		if err != nil {
			logg.Fatalf("Failed to init ethereum client: %v", err)
		}
		defer ethClient.Close()
		opts = append(opts, settlement.WithCommissionTransfer(
			commissionadapter.NewCommissionPort(ethClient, cfg.Ethereum.CommissionAddress)))
		logg.Infof("Commission leg enabled from treasury %s", ethClient.WalletAddress().Hex())
	} else {
		logg.Warnf("Commission leg disabled: EVM_RPC_URL, EVM_TREASURY_PRIVATE_KEY and COMMISSION_EVM_ADDRESS are required")
	}
	if cfg.FHEServiceURL != "" {
		fheClient, err := fhe.NewClient(cfg.FHEServiceURL, fhe.WithLogger(logg.Zerolog()))
		if err != nil {
			logg.Fatalf("Invalid FHE config: %v", err)
		}
		if err := fheClient.Health(ctx); err != nil {
			logg.Warnf("FHE service health check failed: %v", err)
		}
		opts = append(opts, settlement.WithEncryptor(encryptionadapter.NewEncryptionPort(fheClient)))
	}

	settlementSvc := settlement.NewService(
		sessionadapter.NewSessionPort(sessionSvc),
		st.payments,
		facilitatoradapter.NewFacilitatorPort(facClient, facilitatoradapter.Settings{
			Network: cfg.Network,
			Assets:  map[quotedomain.Currency]string{quotedomain.CurrencyUSDC: cfg.Ethereum.USDCContractAddress},
		}),
		locker,
		logg,
		settlement.Settings{
			FacilitatorTimeout:    cfg.FacilitatorTimeout,
			CommissionBps:         cfg.CommissionBps,
			CommissionTimeout:     cfg.CommissionTimeout,
			CommissionMaxAttempts: cfg.CommissionMaxAttempts,
		},
		opts...,
	)

	// --- Cron ---
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.PrintfLogger(logg))))
	if _, err := settlement.NewCronService(c, cfg.CommissionRetrySchedule, settlementSvc, cronadapter.NewCronPort(st.crons), logg); err != nil {
		logg.Fatalf("Invalid COMMISSION_RETRY_SCHEDULE: %v", err)
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	// --- Router ---
	r := gin.New()

	// Core middleware
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logg.Infof("%s %s status:%d duration:%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	})

	// --- Healthcheck ---
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Swagger ---
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- API routes ---
	quoteHD.NewHandler(quoteSvc, logg).RegisterRoutes(r)
	sessionHD.NewHandler(sessionSvc, logg).RegisterRoutes(r)
	settlementHD.NewHandler(settlementSvc, logg, cfg.JWTSecret).RegisterRoutes(r)

	// --- Start server ---
	logg.Infof("Starting service on %s (env=%s)", cfg.ListenAddr, cfg.Env)
	logg.Infof("Swagger UI available at http://localhost%s/swagger/index.html", cfg.ListenAddr)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.FacilitatorTimeout + cfg.CommissionTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatalf("Server terminated unexpectedly: %v", err)
		}
	}()

	<-ctx.Done()
	logg.Infof("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.FacilitatorTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Errorf("Graceful shutdown failed: %v", err)
	}
}

// openStores connects postgres when DATABASE_URL is set and falls back to
// in-process stores otherwise.
func openStores(ctx context.Context, cfg *config.Config, logg *logger.Logger) stores {
	if cfg.DatabaseURL == "" {
		logg.Warnf("DATABASE_URL not set, using in-memory stores")
		return stores{
			quotes:   quoteRepo.NewMemoryQuoteRepo(),
			sessions: sessionRepo.NewMemorySessionRepo(),
			payments: settlementRepo.NewMemoryPaymentRepo(),
			crons:    cronUsecase.NewService(cronRepo.NewMemoryCronRepo(), logg, 0),
			close:    func() {},
		}
	}

	// --- Database connection ---
	logg.Infof("Connecting to database")

	gormDB, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatalf("Failed to get generic DB handle: %v", err)
	}

	// Connection pool tuning
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	// quotes keep their own database/sql pool for the raw claim statement
	quoteDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logg.Fatalf("Failed to open quote database: %v", err)
	}
	quoteDB.SetMaxOpenConns(10)

	return stores{
		quotes:   quoteRepo.NewPostgresQuoteRepo(ctx, quoteDB, logg),
		sessions: sessionRepo.NewSessionRepo(gormDB, logg),
		payments: settlementRepo.NewPaymentRepo(gormDB, logg),
		crons:    cronUsecase.NewService(cronRepo.NewCronRepo(gormDB, logg), logg, 10*time.Minute),
		close: func() {
			quoteDB.Close()
			sqlDB.Close()
		},
	}
}

func probeFacilitator(ctx context.Context, client *facilitator.Client, network string, logg *logger.Logger) {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	supported, err := client.Supported(pctx)
	if err != nil {
		logg.Warnf("Facilitator /supported probe failed: %v", err)
		return
	}
	for _, k := range supported.Kinds {
		if k.Network == network && k.Scheme == "exact" {
			logg.Infof("Facilitator supports exact on %s (x402 v%d)", network, k.X402Version)
			return
		}
	}
	logg.Warnf("Facilitator does not advertise exact on %s", network)
}
