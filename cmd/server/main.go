package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"novabook/internal/book"
	bookhandler "novabook/internal/book/handler"
	bookservice "novabook/internal/book/service"
	jwttoken "novabook/internal/jwt_token"
	"novabook/internal/loan"
	loanhandler "novabook/internal/loan/handler"
	loanservice "novabook/internal/loan/service"
	"novabook/internal/member"
	memberhandler "novabook/internal/member/handler"
	memberservice "novabook/internal/member/service"
	"novabook/internal/platform/config"
	"novabook/internal/platform/db"
	"novabook/internal/platform/httpserver"
	"novabook/internal/platform/logger"
	"novabook/internal/platform/metrics"
	httptransport "novabook/internal/transport/http"
	"novabook/internal/user"
	userhandler "novabook/internal/user/handler"
	userservice "novabook/internal/user/service"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires every dependency explicitly. Construction order is stores,
// coordinator, services, handlers, router; no registry or locator in
// between. Returning the fatal error keeps the deferred cleanup on the
// exit path.
func run(cfg config.Config, log *slog.Logger) error {
	pool, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	cancel()

	coordinator := db.NewCoordinator(pool)
	m := metrics.New()

	bookStore := book.NewPostgres(pool)
	memberStore := member.NewPostgres(pool)
	loanStore := loan.NewPostgres(pool)
	userStore := user.NewPostgres(pool)

	fineCalc := loan.NewFineCalculator(cfg.LoanDays, cfg.FinePerDay)

	bookSvc := bookservice.NewService(bookStore)
	memberSvc := memberservice.NewService(memberStore)
	loanSvc := loanservice.NewService(loanStore, bookStore, memberStore, coordinator, fineCalc, log)
	userSvc := userservice.NewService(userStore, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "novabook", "novabook-api")
	jwtValidator := jwttoken.NewJWTServiceAdapter(jwtService)

	// A fresh install gets a default administrator so the API is usable;
	// failure here is logged but does not stop the server.
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userSvc.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Warn("default admin seed failed", "error", err)
	}
	seedCancel()

	router := httptransport.NewRouter(log,
		userhandler.New(userSvc, jwtService, log, jwtValidator),
		bookhandler.New(bookSvc, log, jwtValidator),
		memberhandler.New(memberSvc, log, jwtValidator),
		loanhandler.New(loanSvc, log, m, jwtValidator),
	)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting novabook", "addr", cfg.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
