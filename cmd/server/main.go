package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nft-marketplace.backend/internal/config"
	"nft-marketplace.backend/internal/infrastructure/blockchain"
	"nft-marketplace.backend/internal/infrastructure/cache"
	"nft-marketplace.backend/internal/infrastructure/jobs"
	"nft-marketplace.backend/internal/infrastructure/models"
	"nft-marketplace.backend/internal/infrastructure/repositories"
	"nft-marketplace.backend/internal/infrastructure/wallet"
	"nft-marketplace.backend/internal/interfaces/http/handlers"
	"nft-marketplace.backend/internal/interfaces/http/middleware"
	"nft-marketplace.backend/internal/usecases"
	"nft-marketplace.backend/pkg/jwt"
	"nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/metrics"
	"nft-marketplace.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(cfg config.DatabaseConfig) (*gorm.DB, error) {
		if cfg.Driver == "sqlite" {
			return gorm.Open(sqlite.Open(cfg.URL()), &gorm.Config{})
		}
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL(),
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(ctx, "Database not available, transaction endpoints will return errors", zap.Error(err))
	} else {
		if err := db.AutoMigrate(&models.MarketplaceTransaction{}); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info(ctx, "Database connected", zap.String("driver", cfg.Database.Driver))
	}

	m := metrics.New()

	// Blockchain. The RPC is dialed on demand; until it answers the gateway is
	// not ready and the catalog is empty.
	clientFactory := blockchain.NewClientFactory()
	defer clientFactory.Close()

	rpc := blockchain.NewLazyClient(clientFactory, cfg.Blockchain.RPCURL)
	gateway := blockchain.NewMarketplaceGateway(rpc, cfg.Blockchain.MarketplaceAddress, cfg.Blockchain.PaymentTokenDecimals)
	if !gateway.IsReady() {
		logger.Warn(ctx, "Marketplace contract not connected", zap.String("address", cfg.Blockchain.MarketplaceAddress))
	}

	// Repositories
	txRepo := repositories.NewMarketplaceTransactionRepository(db)
	uow := repositories.NewUnitOfWork(db)
	snapshotRepo := repositories.NewWalletSnapshotRepository(redis.NewSnapshotStore(cfg.JWT.SessionExpiry))

	// Usecases
	queries := cache.NewQueryClient(redis.GetClient(), m)
	mapper := usecases.NewNFTMapper(gateway.ContractAddress(), cfg.Blockchain.PaymentTokenSymbol, gateway.FormatPrice)
	catalogUsecase := usecases.NewCatalogUsecase(gateway, mapper, queries, cfg.Catalog, m)
	catalogUsecase.SetFeeFallback(uint64(cfg.Blockchain.MarketplaceFeeBps))
	marketplaceUsecase := usecases.NewMarketplaceUsecase(catalogUsecase, queries)
	txUsecase := usecases.NewMarketplaceTxUsecase(gateway, txRepo, uow, cfg.Blockchain.ChainID)

	resolver := wallet.NewFactoryResolver(clientFactory, cfg.Blockchain.RPCURLFor)
	sessionRegistry := usecases.NewSessionRegistry(usecases.SessionDeps{
		JWT:          jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.SessionExpiry),
		NewWallet:    newWalletSDK(cfg.Blockchain, resolver),
		Snapshots:    snapshotRepo,
		WalletConfig: usecases.WalletConfigFrom(cfg.Blockchain),
		PageLimit:    cfg.Catalog.PageLimit,
		IdleTTL:      cfg.Jobs.SessionIdleTTL,
	})
	defer sessionRegistry.Close()

	// Handlers
	sessionHandler := handlers.NewSessionHandler(sessionRegistry)
	nftHandler := handlers.NewNFTHandler(catalogUsecase)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceUsecase, sessionRegistry)
	walletHandler := handlers.NewWalletHandler(sessionRegistry)
	transactionHandler := handlers.NewTransactionHandler(txUsecase)

	// Background jobs
	jobCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refreshJob := jobs.NewCatalogRefreshJob(catalogUsecase, sessionRegistry, queries, cfg.Jobs.CatalogRefreshInterval)
	go refreshJob.Start(jobCtx)
	evictionJob := jobs.NewSessionEvictionJob(sessionRegistry, cfg.Jobs.SessionEvictionInterval)
	go evictionJob.Start(jobCtx)

	txJob := jobs.NewTxConfirmationJob(txRepo, rpc, catalogUsecase, sessionRegistry, m, cfg.Jobs.TxWatchInterval)
	go txJob.Start(jobCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r, cfg.Server.CORSOrigins)
	registerHealthRoute(r)
	registerMetricsRoute(r, m.Handler())
	registerAPIV1Routes(r, routeDeps{
		sessionHandler:     sessionHandler,
		nftHandler:         nftHandler,
		marketplaceHandler: marketplaceHandler,
		walletHandler:      walletHandler,
		transactionHandler: transactionHandler,
		sessionAuth:        middleware.SessionAuthMiddleware(sessionRegistry),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "Shutting down server")
		refreshJob.Stop()
		evictionJob.Stop()
		txJob.Stop()
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "NFT marketplace backend starting",
		zap.String("port", cfg.Server.Port),
		zap.Int64("chain_id", cfg.Blockchain.ChainID),
		zap.String("marketplace", cfg.Blockchain.MarketplaceAddress),
	)

	if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// newWalletSDK builds each session's wallet SDK with its own injected connectors.
// The keystore, when configured, is opened once and shared.
func newWalletSDK(cfg config.BlockchainConfig, resolver wallet.ChainResolver) func() usecases.SessionWallet {
	var ks *keystore.KeyStore
	if cfg.KeystoreDir != "" {
		ks = keystore.NewKeyStore(cfg.KeystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	}
	return func() usecases.SessionWallet {
		connectors := []wallet.Connector{}
		for _, c := range wallet.DefaultInjectedConnectors() {
			connectors = append(connectors, c)
		}
		if ks != nil {
			connectors = append(connectors, wallet.NewKeystoreConnectorWithKeyStore(ks))
		}
		return wallet.NewSession(connectors, resolver, cfg.ChainID)
	}
}
