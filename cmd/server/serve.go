package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/codechat/internal/handler"
	"github.com/arturoeanton/codechat/internal/mcp"
	"github.com/arturoeanton/codechat/internal/middleware"
)

const shutdownGrace = 2 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("🚀 Starting CodeChat",
		"port", cfg.Port,
		"ai_provider", cfg.AIProvider,
		"database", cfg.DatabaseDriver,
		"mcp_enabled", cfg.MCPEnabled,
	)

	c, err := wire(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "error", err)
		return err
	}
	defer c.Close()

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))
	app.Use(middleware.Credential())

	app.Get("/api/v1/health", func(fc fiber.Ctx) error {
		status := "healthy"
		if err := c.store.Ping(fc.Context()); err != nil {
			status = "degraded"
		}
		return fc.JSON(fiber.Map{
			"status":  status,
			"app":     cfg.AppName,
			"version": mcp.ServerVersion,
		})
	})

	repoHandler := handler.NewRepoHandler(c.repos)
	chatHandler := handler.NewChatHandler(c.chat)
	jobsHandler := handler.NewJobsHandler(c.runner)

	repoHandler.RegisterPublic(app)
	chatHandler.RegisterPublic(app)

	api := app.Group("/api/v1")
	repoHandler.Register(api)
	chatHandler.Register(api)
	jobsHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	var mcpServer *mcp.Server
	if cfg.MCPEnabled {
		mcpServer = mcp.NewServer(c.repos, c.chat, cfg.MCPPort)
		go func() {
			if err := mcpServer.Start(); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("🌐 Fiber listening", "port", cfg.Port)
		listenErr <- app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			slog.Error("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	if mcpServer != nil {
		if err := mcpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown", "error", err)
		}
	}
	if err := c.runner.Wait(shutdownCtx); err != nil {
		slog.Warn("ingestion runs still in flight at exit", "error", err)
	}
	return nil
}
