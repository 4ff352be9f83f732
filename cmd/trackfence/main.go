package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jg-Harshini/Trackfence/internal/config"
	"github.com/jg-Harshini/Trackfence/internal/consumer"
	"github.com/jg-Harshini/Trackfence/internal/database"
	"github.com/jg-Harshini/Trackfence/internal/geofence"
	httpapi "github.com/jg-Harshini/Trackfence/internal/http"
	"github.com/jg-Harshini/Trackfence/internal/logger"
	"github.com/jg-Harshini/Trackfence/internal/notifier"
	"github.com/jg-Harshini/Trackfence/internal/provider"
	"github.com/jg-Harshini/Trackfence/internal/repository"
	"github.com/jg-Harshini/Trackfence/internal/service"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// 4. Redis（实时推送）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	push := notifier.NewRedisNotifier(redisClient, log)
	if err := push.Ping(context.Background()); err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}

	// 5. 仓库与围栏引擎
	locationRepo := repository.NewLocationRepository(db, log)
	zoneRepo := repository.NewSafeZoneRepository(db, log)
	alertRepo := repository.NewAlertRepository(db, log)

	engine := geofence.NewEngine(zoneRepo, alertRepo, push, log)

	// 6. 服务
	shipday := provider.NewShipdayClient(cfg.Provider.BaseURL, cfg.Provider.APIKey, log)
	locationSvc := service.NewLocationService(locationRepo, engine, push, shipday, log)
	zoneSvc := service.NewSafeZoneService(zoneRepo, log)
	alertSvc := service.NewAlertService(alertRepo, push, log)

	// 7. HTTP 路由
	router := httpapi.NewRouter(log)
	router.RegisterHealthRoute()
	router.RegisterLocationRoutes(httpapi.NewLocationHandler(locationSvc, log))
	router.RegisterSafeZoneRoutes(httpapi.NewSafeZoneHandler(zoneSvc, log))
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(alertSvc, log))
	router.RegisterWSRoutes(httpapi.NewWSHandler(push, log))

	// 8. MQTT 设备上报（可选）
	var mqttConsumer *consumer.MQTTConsumer
	if cfg.MQTT.Enabled {
		mqttConsumer, err = consumer.NewMQTTConsumer(&cfg.MQTT, locationSvc, log)
		if err != nil {
			log.Fatal("Failed to create MQTT consumer", zap.Error(err))
		}
		if err := mqttConsumer.Start(); err != nil {
			log.Fatal("Failed to start MQTT consumer", zap.Error(err))
		}
		defer mqttConsumer.Stop()
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// 9. 等待信号（优雅关闭）
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)

	log.Info("Trackfence stopped")
}
