package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/webapi-auth-demo/internal/audit"
	"github.com/xela07ax/webapi-auth-demo/internal/console/handler"
	"github.com/xela07ax/webapi-auth-demo/internal/console/server"
	"github.com/xela07ax/webapi-auth-demo/internal/console/service"
	"github.com/xela07ax/webapi-auth-demo/internal/infra"
	"github.com/xela07ax/webapi-auth-demo/internal/infra/auth"
)

func main() {
	// 1. Конфигурация: без секрета стартовать нельзя
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// 2. Метрики на отдельном листенере
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("metrics listener failed", zap.Error(err))
		}
	}()

	// 3. Токены
	issuer, err := auth.NewIssuer(cfg.Jwt, auth.WithLogger(logger), auth.WithMetrics(metrics))
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	validator, err := auth.NewValidator(cfg.Jwt, auth.WithLogger(logger), auth.WithMetrics(metrics))
	if err != nil {
		logger.Fatal("token validator", zap.Error(err))
	}

	// 4. Учетные данные и аудит
	verifier, err := service.NewDemoVerifier(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("credential verifier", zap.Error(err))
	}

	trail := audit.NewTrail(audit.NewLogSink(logger), logger, audit.WithDropCounter(metrics.AuditDropped))
	trail.Start()

	// 5. Сборка API
	authService := service.NewAuthService(verifier, issuer, trail, metrics, logger)
	authHandler := handler.NewAuthHandler(authService, logger)
	api := server.NewConsoleServer(cfg, logger, metrics, validator, authHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 6. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("verification API started",
			zap.String("addr", srv.Addr),
			zap.String("metrics_addr", metricsSrv.Addr),
			zap.String("issuer", cfg.Jwt.Issuer),
			zap.Duration("token_ttl", cfg.Jwt.Expiration()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("verification API stopping...")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics shutdown failed", zap.Error(err))
	}
	// После остановки HTTP новых событий нет, дописываем остаток
	trail.Stop()
	logger.Info("verification API exited properly")
}
