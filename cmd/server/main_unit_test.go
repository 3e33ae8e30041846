package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nft-marketplace.backend/internal/config"
	plog "nft-marketplace.backend/pkg/logger"
	"nft-marketplace.backend/pkg/redis"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origOpenDB := openDB
	origRunServer := runServer
	origGetStdDB := getStdDB

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		openDB = origOpenDB
		runServer = origRunServer
		getStdDB = origGetStdDB
	})

	loadDotenv = func(...string) error { return nil }
	loadCfg = baseTestConfig
	initLog = plog.Init
}

func baseTestConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:        "18080",
			Env:         "development",
			CORSOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "file::memory:",
		},
		Redis: config.RedisConfig{
			URL: "redis://localhost:6379",
		},
		JWT: config.JWTConfig{
			Secret:        "secret",
			SessionExpiry: time.Hour,
		},
		Blockchain: config.BlockchainConfig{
			RPCURL:               "http://127.0.0.1:1",
			ChainID:              31337,
			ChainName:            "Anvil Local",
			MarketplaceAddress:   "0x2B0d36FACD61B71CC05ab8F3D2355ec3631C0dd5",
			PaymentTokenSymbol:   "ETH",
			PaymentTokenDecimals: 18,
			MarketplaceFeeBps:    300,
		},
		Catalog: config.CatalogConfig{
			ListedStaleTime: time.Minute,
			ListedGCTime:    time.Minute,
			OwnedStaleTime:  time.Minute,
			PageLimit:       12,
		},
		Jobs: config.JobsConfig{
			TxWatchInterval:         time.Hour,
			CatalogRefreshInterval:  time.Hour,
			SessionIdleTTL:          time.Hour,
			SessionEvictionInterval: time.Hour,
		},
	}
}

func useMiniredis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	orig := redis.GetClient()
	t.Cleanup(func() { redis.SetClient(orig) })
	initRedis = func(string, string) error {
		redis.SetClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
		return nil
	}
}

func useSQLite(name string) {
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	}
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)
	initRedis = func(string, string) error { return errors.New("redis down") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestRunMainProcess_DBOpenError(t *testing.T) {
	withMainHooks(t)
	useMiniredis(t)
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) { return nil, errors.New("db open failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestRunMainProcess_StdDBError(t *testing.T) {
	withMainHooks(t)
	useMiniredis(t)
	useSQLite("main_stddb_err")
	getStdDB = func(*gorm.DB) (*sql.DB, error) { return nil, errors.New("no pool") }

	require.Error(t, runMainProcess())
}

func TestRunMainProcess_ServerRunError(t *testing.T) {
	withMainHooks(t)
	useMiniredis(t)
	useSQLite("main_server_err")
	runServer = func(*http.Server) error { return errors.New("listen failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen failed")
}

func TestRunMainProcess_ServerClosedIsClean(t *testing.T) {
	withMainHooks(t)
	useMiniredis(t)
	useSQLite("main_server_closed")
	runServer = func(*http.Server) error { return http.ErrServerClosed }

	assert.NoError(t, runMainProcess())
}

func TestRunMainProcess_ServesAPI(t *testing.T) {
	withMainHooks(t)
	useMiniredis(t)
	useSQLite("main_success")

	runServer = func(srv *http.Server) error {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		// An unreachable RPC degrades the catalog to empty
		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nfts", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"nfts":[]`)

		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nfts/stats", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"totalNfts":0,"totalSold":0,"marketplaceFeeBps":300}`, rec.Body.String())

		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil))
		require.Equal(t, http.StatusCreated, rec.Code)
		var session struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		require.NotEmpty(t, session.Token)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/marketplace", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"selectedCategory":"nfts"`)

		req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		return nil
	}

	require.NoError(t, runMainProcess())
}

func TestNewWalletSDK_FreshConnectorsPerSession(t *testing.T) {
	factory := newWalletSDK(config.BlockchainConfig{ChainID: 31337}, nil)
	a := factory()
	b := factory()

	ca, ok := a.FindConnector("metamask")
	require.True(t, ok)
	cb, ok := b.FindConnector("metamask")
	require.True(t, ok)
	assert.NotSame(t, ca, cb)

	_, ok = a.FindConnector("keystore")
	assert.False(t, ok)
}
