package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/aq2208/payment-api/configs"
	"github.com/aq2208/payment-api/internal/adapter/cache"
	"github.com/aq2208/payment-api/internal/adapter/gateway"
	apihttp "github.com/aq2208/payment-api/internal/adapter/http"
	"github.com/aq2208/payment-api/internal/adapter/http/middleware"
	"github.com/aq2208/payment-api/internal/adapter/queue"
	"github.com/aq2208/payment-api/internal/adapter/repo"
	"github.com/aq2208/payment-api/internal/logging"
	"github.com/aq2208/payment-api/internal/security"
	"github.com/aq2208/payment-api/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logger := logging.Init("payment-api", cfg.App.LogFile)
	logger.Info("payment-api: starting up")

	// database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, err
	}

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, err
	}

	// rabbitmq event publisher (best-effort downstream events)
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	publisher, err := queue.NewRabbitPublisher(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, err
	}

	// gateway crypto + client
	cm, err := security.LoadCryptoMaterial(cfg)
	if err != nil {
		return nil, nil, err
	}
	cs, err := security.NewCryptoService(cm)
	if err != nil {
		return nil, nil, err
	}
	gw := gateway.NewWeChatClient(
		cfg.Gateway.BaseURL,
		cfg.Gateway.NotifyDomain,
		cfg.Gateway.AppID,
		cfg.Gateway.MchID,
		cfg.Gateway.MchSerialNo,
		cs,
		cfg.Gateway.Timeout,
	)
	opener := gateway.NewNotificationOpener(cs, cs)

	// repos + cache
	orderRepo := repo.NewMySQLOrderRepo(db)
	refundRepo := repo.NewMySQLRefundRepo(db)
	ledgerRepo := repo.NewMySQLLedgerRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	statusCache := cache.NewRedisStatusCache(rdb, cfg.Redis.CacheTTL)

	// use cases
	createUC := usecase.NewCreateOrder(orderRepo, productRepo, gw)
	cancelUC := usecase.NewCancelOrder(orderRepo, gw, statusCache)
	refundUC := usecase.NewRequestRefund(orderRepo, refundRepo, gw, statusCache)
	processor := usecase.NewNotificationProcessor(orderRepo, refundRepo, ledgerRepo, publisher, statusCache)
	reconciler := usecase.NewReconciler(orderRepo, refundRepo, ledgerRepo, gw, publisher, statusCache, cfg.Reconcile.Grace)

	// reconciliation loops, driven by a plain ticker
	schedCtx, stopSched := context.WithCancel(context.Background())
	startScheduler(schedCtx, reconciler, cfg.Reconcile.Interval)

	// handlers + router + middleware
	ph := apihttp.NewPaymentHandler(createUC, refundUC)
	oh := apihttp.NewOrderHandler(orderRepo, statusCache, cancelUC)
	nh := apihttp.NewNotifyHandler(opener, processor)
	th := apihttp.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := apihttp.NewRouter(ph, oh, nh, th, auth)

	cleanup := func() {
		stopSched()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}
