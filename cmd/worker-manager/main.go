// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"readiness-workers/internal/app"
	"readiness-workers/internal/common/cache"
	"readiness-workers/internal/common/camunda"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"

	qms "readiness-workers/internal/workers/data-access/query-market-signals"
	sss "readiness-workers/internal/workers/communication/send-score-summary"
	cmi "readiness-workers/internal/workers/readiness/collect-market-insights"
	grs "readiness-workers/internal/workers/readiness/generate-readiness-score"
	gts "readiness-workers/internal/workers/readiness/get-readiness-score"
)

const serviceName = "readiness-worker-manager"

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := make(chan models.ProgressEvent, 64)
	go logProgress(events, log)

	svc, err := app.New(ctx, cfg, log, app.Options{
		ConnectAttempts: 15,
		RetryDelay:      2 * time.Second,
		Archive:         true,
		Notifications:   true,
		Events:          events,
		ServiceName:     serviceName,
	})
	if err != nil {
		zapLog.Fatal("service initialization failed", zap.Error(err))
	}
	defer svc.Close()

	zeebe, err := camunda.NewClientFromConfig(cfg.Camunda)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	sweeper, err := cache.NewSweeper(svc.Cache, cfg.Cache.SweepSchedule, log)
	if err != nil {
		zapLog.Fatal("cache sweeper schedule invalid", zap.Error(err))
	}
	sweeper.Start()

	workers := camunda.NewRegistry(zeebe.GetClient(), log)
	registerWorkers(workers, svc, cfg)
	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(svc, zeebe),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close(shutdownCtx)
	sweeper.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("HTTP server shutdown incomplete", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func registerWorkers(reg *camunda.Registry, svc *app.App, cfg *config.Config) {
	reg.Start(grs.TaskType, config.GetWorkerConfig(cfg, grs.TaskType), grs.NewHandler(grs.HandlerOptions{
		Config:    grs.LoadConfig(cfg, svc.Activity(grs.TaskType)),
		Engine:    svc.Engine,
		Validator: svc.Validator,
		Logger:    svc.Logger,
	}))

	reg.Start(gts.TaskType, config.GetWorkerConfig(cfg, gts.TaskType), gts.NewHandler(gts.HandlerOptions{
		Config:    gts.LoadConfig(cfg, svc.Activity(gts.TaskType)),
		Engine:    svc.Engine,
		Validator: svc.Validator,
		Logger:    svc.Logger,
	}))

	collectOpts := cmi.HandlerOptions{
		Config:     cmi.LoadConfig(cfg, svc.Activity(cmi.TaskType)),
		Repository: svc.Repository,
		Sources: []cmi.Source{
			cmi.ForumPosts("stackexchange", svc.StackExchange.SearchQuestions),
			cmi.ForumPosts("reddit", svc.Reddit.SearchPosts),
			cmi.TrendArticles("news", svc.News.SearchArticles),
			cmi.TrendArticles("hackernews", svc.HackerNews.SearchStories),
		},
		Validator: svc.Validator,
		Logger:    svc.Logger,
	}
	if svc.Archive != nil {
		collectOpts.Archive = svc.Archive
	}
	reg.Start(cmi.TaskType, config.GetWorkerConfig(cfg, cmi.TaskType), cmi.NewHandler(collectOpts))

	if svc.Archive != nil {
		reg.Start(qms.TaskType, config.GetWorkerConfig(cfg, qms.TaskType), qms.NewHandler(qms.HandlerOptions{
			Config:    qms.LoadConfig(cfg, svc.Activity(qms.TaskType)),
			Archive:   svc.Archive,
			Validator: svc.Validator,
			Logger:    svc.Logger,
		}))
	} else {
		svc.Logger.Warn("signal archive unavailable, not registering worker", map[string]interface{}{"taskType": qms.TaskType})
	}

	summaryOpts := sss.HandlerOptions{
		Config:        sss.LoadConfig(cfg, svc.Activity(sss.TaskType)),
		Scores:        svc.Engine,
		Notifications: svc.Repository,
		Validator:     svc.Validator,
		Logger:        svc.Logger,
	}
	if svc.Mailer != nil {
		summaryOpts.Mailer = svc.Mailer
	}
	reg.Start(sss.TaskType, config.GetWorkerConfig(cfg, sss.TaskType), sss.NewHandler(summaryOpts))
}

func newRouter(svc *app.App, zeebe *camunda.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
		})
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		for name, err := range svc.Ping(ctx) {
			checks[name] = err.Error()
		}
		if err := zeebe.HealthCheck(ctx); err != nil {
			checks["zeebe"] = err.Error()
		}

		if len(checks) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "not_ready",
				"checks": checks,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func logProgress(events <-chan models.ProgressEvent, log logger.Logger) {
	for ev := range events {
		log.Debug("score progress", map[string]interface{}{
			"transitionId": ev.TransitionID,
			"state":        string(ev.State),
			"message":      ev.Message,
		})
	}
}
