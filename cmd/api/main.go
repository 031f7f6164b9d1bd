package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nizamudheenp/project-collaboration/internal/app/migrate"
	"github.com/Nizamudheenp/project-collaboration/internal/email"
	httpx "github.com/Nizamudheenp/project-collaboration/internal/http"
	"github.com/Nizamudheenp/project-collaboration/internal/repository/postgres"
	"github.com/Nizamudheenp/project-collaboration/internal/service/activity"
	"github.com/Nizamudheenp/project-collaboration/internal/service/auth"
	"github.com/Nizamudheenp/project-collaboration/internal/service/comment"
	"github.com/Nizamudheenp/project-collaboration/internal/service/invite"
	"github.com/Nizamudheenp/project-collaboration/internal/service/project"
	"github.com/Nizamudheenp/project-collaboration/internal/service/task"
	"github.com/Nizamudheenp/project-collaboration/internal/service/team"
	"github.com/Nizamudheenp/project-collaboration/internal/ws"
	"github.com/Nizamudheenp/project-collaboration/pkg/config"
	"github.com/Nizamudheenp/project-collaboration/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)
	hub := ws.NewHub()
	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		LinkBase: cfg.InviteLinkBase,
	})

	authSvc := auth.New(repo, log, cfg)
	teamSvc := team.New(repo, repo, log)
	projectSvc := project.New(repo, repo, log)
	activitySvc := activity.New(repo, log)
	taskSvc := task.New(repo, repo, repo, activitySvc, log)
	commentSvc := comment.New(repo, repo, repo, repo, activitySvc, log)
	inviteSvc := invite.New(repo, repo, repo, mailer, cfg.InviteTTL, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, teamSvc, projectSvc, taskSvc, commentSvc, inviteSvc, activitySvc, hub, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
