package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dotunfolarin/pressflow/app/api"
	"github.com/dotunfolarin/pressflow/app/cfg"
	"github.com/dotunfolarin/pressflow/app/content"
	"github.com/dotunfolarin/pressflow/app/database"
	"github.com/dotunfolarin/pressflow/app/jobs"
	"github.com/dotunfolarin/pressflow/app/site"
	"github.com/dotunfolarin/pressflow/app/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Pressflow", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", migrationVersion, "dirty", dirty)

	configCache := site.NewConfigCache(appCfg.SitesDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load site seeds", "dir", appCfg.SitesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Site seeds loaded", "count", configCache.GetSeedCount())

	siteRepo := database.NewSiteRepository(db)

	registeredCount := 0
	for _, seed := range configCache.GetSeeds() {
		inserted, err := siteRepo.RegisterSite(seed)
		if err != nil {
			slog.Warn("Failed to register site", "site", seed.Name, "error", err)
			continue
		}
		if inserted {
			registeredCount++
			slog.Info("Registered site", "site", seed.Name, "owner", seed.OwnerID)
		}
	}
	slog.Info("Site registration complete", "new", registeredCount, "total", configCache.GetSeedCount())

	httpClient := &http.Client{Timeout: 60 * time.Second}

	generator := content.NewGatewayClient(httpClient, appCfg.GeneratorURL, appCfg.GeneratorAPIKey, appCfg.UserAgent)
	publisher := content.NewWordPressClient(httpClient, appCfg.UserAgent)
	socialPublisher := content.NewSocialRelayClient(httpClient, appCfg.SocialRelayURL, appCfg.UserAgent)
	emailPublisher := content.NewEmailGatewayClient(httpClient, appCfg.EmailGatewayURL, appCfg.UserAgent)
	resolver := sources.NewResolver(httpClient, appCfg.UserAgent)

	statusStore := jobs.NewStatusStore()

	scheduler := jobs.NewScheduler(siteRepo, resolver, generator, publisher, socialPublisher, emailPublisher, statusStore)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Job scheduler started", "interval", appCfg.SchedulerInterval)

	apiHandler := api.NewHandler(siteRepo, configCache, scheduler, statusStore)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("HTTP server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
