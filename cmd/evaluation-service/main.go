// Command evaluation-service runs the code evaluation HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codecoach/internal/common/cache"
	commonmw "codecoach/internal/common/http/middleware"
	"codecoach/internal/common/mq"
	"codecoach/internal/evaluation/compiler"
	"codecoach/internal/evaluation/controller"
	"codecoach/internal/evaluation/evaluator"
	"codecoach/internal/evaluation/repository"
	"codecoach/internal/evaluation/sandbox"
	"codecoach/internal/evaluation/sandbox/engine"
	"codecoach/internal/evaluation/workspace"
	"codecoach/pkg/utils/logger"
)

const defaultConfigPath = "configs/evaluation_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	wm, err := workspace.NewManager(appCfg.Workspace)
	if err != nil {
		logger.Error(context.Background(), "init workspace manager failed", zap.Error(err))
		return
	}

	eng, err := engine.NewEngine(appCfg.Sandbox)
	if err != nil {
		logger.Error(context.Background(), "init sandbox engine failed", zap.Error(err))
		return
	}

	invoker := compiler.NewInvoker(eng, appCfg.Toolchain, appCfg.Compile)
	runner := sandbox.NewRunner(eng, appCfg.Toolchain, appCfg.Run)
	eval := evaluator.New(wm, invoker, runner, appCfg.Evaluator)

	var store *repository.RedisReportStore
	if appCfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
		if err != nil {
			logger.Error(context.Background(), "init redis failed", zap.Error(err))
			return
		}
		defer func() {
			_ = redisCache.Close()
		}()
		store, err = repository.NewRedisReportStore(redisCache, appCfg.Report.TTL)
		if err != nil {
			logger.Error(context.Background(), "init report store failed", zap.Error(err))
			return
		}
		eval.WithStore(store)
	}

	if len(appCfg.Kafka.Brokers) > 0 {
		producer, err := mq.NewKafkaProducer(appCfg.Kafka.toMQConfig())
		if err != nil {
			logger.Error(context.Background(), "init kafka producer failed", zap.Error(err))
			return
		}
		defer func() {
			_ = producer.Close()
		}()
		eval.WithPublisher(repository.NewEventPublisher(producer, appCfg.Kafka.Topic))
	}

	httpServer := buildHTTPServer(appCfg.Server, eval, store)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "evaluation http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg ServerConfig, eval *evaluator.Evaluator, store *repository.RedisReportStore) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	var getter controller.ReportGetter
	if store != nil {
		getter = store
	}
	evalController := controller.NewEvaluationController(eval, getter)
	evalController.RegisterRoutes(router)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
