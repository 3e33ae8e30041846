package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"nft-marketplace.backend/internal/interfaces/http/handlers"
	"nft-marketplace.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "nft-marketplace-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	sessionHandler     *handlers.SessionHandler
	nftHandler         *handlers.NFTHandler
	marketplaceHandler *handlers.MarketplaceHandler
	walletHandler      *handlers.WalletHandler
	transactionHandler *handlers.TransactionHandler
	sessionAuth        gin.HandlerFunc
}

func applyCORSMiddleware(r *gin.Engine, origins []string) {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization",
			"Content-Type",
			middleware.RequestIDHeader,
		},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})

	r.Use(func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		// Preflights are answered by cors itself
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.Abort()
			return
		}
		ctx.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"version": serviceVersion,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, h http.Handler) {
	r.GET("/metrics", gin.WrapH(h))
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		// Session routes (public)
		v1.POST("/sessions", d.sessionHandler.CreateSession)

		// Catalog routes (public)
		nfts := v1.Group("/nfts")
		{
			nfts.GET("", d.nftHandler.ListNFTs)
			nfts.GET("/stats", d.nftHandler.GetStats)
			nfts.GET("/:id", d.nftHandler.GetNFT)
		}
		v1.GET("/users/:address/nfts", d.nftHandler.ListUserNFTs)

		// Marketplace view routes (session)
		marketplace := v1.Group("/marketplace")
		marketplace.Use(d.sessionAuth)
		{
			marketplace.GET("", d.marketplaceHandler.GetView)
			marketplace.POST("/load-more", d.marketplaceHandler.LoadMore)
			marketplace.POST("/reset", d.marketplaceHandler.Reset)
			marketplace.PUT("/category", d.marketplaceHandler.SelectCategory)
		}

		// Wallet routes (session)
		wallet := v1.Group("/wallet")
		wallet.Use(d.sessionAuth)
		{
			wallet.GET("", d.walletHandler.GetWallet)
			wallet.POST("/connect", d.walletHandler.ConnectWallet)
			wallet.POST("/disconnect", d.walletHandler.DisconnectWallet)
			wallet.POST("/switch-network", d.walletHandler.SwitchNetwork)
			wallet.GET("/notifications", d.walletHandler.ListNotifications)
		}

		// Transaction routes (session)
		transactions := v1.Group("/transactions")
		transactions.Use(d.sessionAuth)
		{
			transactions.POST("/build", d.transactionHandler.BuildTransaction)
			transactions.POST("", d.transactionHandler.TrackTransaction)
			transactions.GET("", d.transactionHandler.ListTransactions)
			transactions.GET("/:hash", d.transactionHandler.GetTransaction)
		}
	}
}
